// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Reconcile outcome labels.
const (
	OutcomeCreated = "created"
	OutcomeUpdated = "updated"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
)

// Poller run status labels.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Premium lookup metrics
	IncPremiumCacheHit()
	IncPremiumCacheMiss()
	IncPremiumStoreUnavailable()
	ObservePremiumLookupDuration(duration time.Duration)

	// Webhook reconciliation
	IncReconcileOutcome(outcome string) // created, updated, skipped, failed

	// PayPal client
	IncTokenRefresh(status string) // success or failed

	// Transaction poller
	IncPollerRun(status string) // success or failed
	AddTransactionsPolled(n int)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
