package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

func (n *NoopRecorder) IncPremiumCacheHit()                                 {}
func (n *NoopRecorder) IncPremiumCacheMiss()                                {}
func (n *NoopRecorder) IncPremiumStoreUnavailable()                         {}
func (n *NoopRecorder) ObservePremiumLookupDuration(duration time.Duration) {}
func (n *NoopRecorder) IncReconcileOutcome(outcome string)                  {}
func (n *NoopRecorder) IncTokenRefresh(status string)                       {}
func (n *NoopRecorder) IncPollerRun(status string)                          {}
func (n *NoopRecorder) AddTransactionsPolled(count int)                     {}
