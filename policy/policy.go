// Package policy enforces the anti-spoofing rule on classifier output.
// The classifier is instructed to flag synthetic imagery itself, but its
// severity/action fields are untrusted once fakery is asserted, so the
// override is re-applied here regardless of what the model returned.
package policy

import "civicfix-backend/models"

// Override values written onto every Suspicious/Fake result.
const (
	RejectionAction = "Automated Rejection: Fake/AI Content Detected"
	RejectionReason = "System detected AI-generated or manipulated imagery."
)

// Apply returns result unchanged unless its type is Suspicious/Fake, in which
// case the canonical rejected shape is forced. Pure function, no side effects.
func Apply(result models.ClassificationResult) models.ClassificationResult {
	if result.Type != models.TypeSuspiciousFake {
		return result
	}

	result.IssueDetected = false
	result.SeverityScore = 1
	result.RecommendedAction = RejectionAction
	result.DangerReason = RejectionReason
	return result
}
