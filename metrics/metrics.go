package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	// SubmissionsTotal counts intake submissions by outcome.
	SubmissionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "civicfix",
		Subsystem: "intake",
		Name:      "submissions_total",
		Help:      "Total image submissions processed by the intake pipeline, labeled by outcome.",
	}, []string{"outcome"})

	// ClassifierFailuresTotal counts classifier calls degraded to the fallback record.
	ClassifierFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "civicfix",
		Subsystem: "intake",
		Name:      "classifier_failures_total",
		Help:      "Total classifier failures converted to the fallback classification, labeled by reason.",
	}, []string{"reason"})

	// ClassifierDurationSeconds times the external classifier call.
	ClassifierDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "civicfix",
		Subsystem: "intake",
		Name:      "classifier_duration_seconds",
		Help:      "Time spent waiting on the external AI classifier per submission.",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
	})

	// RateLimitedTotal counts submissions denied by the daily per-user limit.
	RateLimitedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "civicfix",
		Subsystem: "intake",
		Name:      "rate_limited_total",
		Help:      "Total submissions denied because the user's daily report limit was reached.",
	})

	// ReportsSavedTotal counts reports persisted to the store.
	ReportsSavedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "civicfix",
		Subsystem: "intake",
		Name:      "reports_saved_total",
		Help:      "Total reports written to the document store.",
	})

	// StoreWriteFailuresTotal counts swallowed store-write failures.
	StoreWriteFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "civicfix",
		Subsystem: "intake",
		Name:      "store_write_failures_total",
		Help:      "Total report persistence failures (the classification is still returned to the caller).",
	})
)

// Register registers intake metrics with the default Prometheus registry.
// Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			SubmissionsTotal,
			ClassifierFailuresTotal,
			ClassifierDurationSeconds,
			RateLimitedTotal,
			ReportsSavedTotal,
			StoreWriteFailuresTotal,
		)
	})
}
