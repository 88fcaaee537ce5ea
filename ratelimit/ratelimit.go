// Package ratelimit caps accepted submissions per user per UTC calendar day.
//
// The check is a snapshot read over the user's recent report timestamps with
// no lock or atomic increment: concurrent submissions from one user can both
// pass before either is persisted. Accepted at this scale; callers needing
// exactness must move to a conditional counter in the store.
package ratelimit

import "time"

// DefaultDailyLimit is the reports-per-user-per-day threshold.
const DefaultDailyLimit = 5

// Decision is the outcome of a rate-limit check.
type Decision struct {
	Allowed bool
	Count   int
	Limit   int
}

// Check counts how many of the user's existing report timestamps fall on the
// same UTC calendar day as now and denies once the count reaches limit.
// Day equality is by ISO date (YYYY-MM-DD) in UTC, so the boundary is
// midnight UTC regardless of server or client timezone.
func Check(now time.Time, existing []time.Time, limit int) Decision {
	if limit <= 0 {
		limit = DefaultDailyLimit
	}

	today := now.UTC().Format("2006-01-02")
	count := 0
	for _, ts := range existing {
		if ts.UTC().Format("2006-01-02") == today {
			count++
		}
	}

	return Decision{
		Allowed: count < limit,
		Count:   count,
		Limit:   limit,
	}
}
