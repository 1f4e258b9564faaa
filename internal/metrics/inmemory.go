package metrics

import (
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	PremiumCacheHits        uint64
	PremiumCacheMisses      uint64
	PremiumStoreUnavailable uint64
	PremiumLookupCount      uint64
	PremiumLookupTotalNs    int64
	ReconcileCreated        uint64
	ReconcileUpdated        uint64
	ReconcileSkipped        uint64
	ReconcileFailed         uint64
	TokenRefreshes          uint64
	TokenRefreshFailures    uint64
	PollerRuns              uint64
	PollerRunFailures       uint64
	TransactionsPolled      uint64
}

// InMemoryRecorder stores metrics in memory.
// It backs the /metrics endpoint and is used directly by tests.
type InMemoryRecorder struct {
	premiumCacheHits        uint64
	premiumCacheMisses      uint64
	premiumStoreUnavailable uint64
	premiumLookupCount      uint64
	premiumLookupTotalNs    int64
	reconcileCreated        uint64
	reconcileUpdated        uint64
	reconcileSkipped        uint64
	reconcileFailed         uint64
	tokenRefreshes          uint64
	tokenRefreshFailures    uint64
	pollerRuns              uint64
	pollerRunFailures       uint64
	transactionsPolled      uint64
}

var (
	_ Recorder    = (*InMemoryRecorder)(nil)
	_ Snapshotter = (*InMemoryRecorder)(nil)
)

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		PremiumCacheHits:        atomic.LoadUint64(&m.premiumCacheHits),
		PremiumCacheMisses:      atomic.LoadUint64(&m.premiumCacheMisses),
		PremiumStoreUnavailable: atomic.LoadUint64(&m.premiumStoreUnavailable),
		PremiumLookupCount:      atomic.LoadUint64(&m.premiumLookupCount),
		PremiumLookupTotalNs:    atomic.LoadInt64(&m.premiumLookupTotalNs),
		ReconcileCreated:        atomic.LoadUint64(&m.reconcileCreated),
		ReconcileUpdated:        atomic.LoadUint64(&m.reconcileUpdated),
		ReconcileSkipped:        atomic.LoadUint64(&m.reconcileSkipped),
		ReconcileFailed:         atomic.LoadUint64(&m.reconcileFailed),
		TokenRefreshes:          atomic.LoadUint64(&m.tokenRefreshes),
		TokenRefreshFailures:    atomic.LoadUint64(&m.tokenRefreshFailures),
		PollerRuns:              atomic.LoadUint64(&m.pollerRuns),
		PollerRunFailures:       atomic.LoadUint64(&m.pollerRunFailures),
		TransactionsPolled:      atomic.LoadUint64(&m.transactionsPolled),
	}
}

// IncPremiumCacheHit increments cache hit counter.
func (m *InMemoryRecorder) IncPremiumCacheHit() {
	atomic.AddUint64(&m.premiumCacheHits, 1)
}

// IncPremiumCacheMiss increments cache miss counter.
func (m *InMemoryRecorder) IncPremiumCacheMiss() {
	atomic.AddUint64(&m.premiumCacheMisses, 1)
}

// IncPremiumStoreUnavailable counts lookups that failed on the store.
func (m *InMemoryRecorder) IncPremiumStoreUnavailable() {
	atomic.AddUint64(&m.premiumStoreUnavailable, 1)
}

// ObservePremiumLookupDuration records lookup duration.
func (m *InMemoryRecorder) ObservePremiumLookupDuration(duration time.Duration) {
	atomic.AddUint64(&m.premiumLookupCount, 1)
	atomic.AddInt64(&m.premiumLookupTotalNs, duration.Nanoseconds())
}

// IncReconcileOutcome increments the counter for a reconcile outcome.
func (m *InMemoryRecorder) IncReconcileOutcome(outcome string) {
	switch outcome {
	case OutcomeCreated:
		atomic.AddUint64(&m.reconcileCreated, 1)
	case OutcomeUpdated:
		atomic.AddUint64(&m.reconcileUpdated, 1)
	case OutcomeSkipped:
		atomic.AddUint64(&m.reconcileSkipped, 1)
	case OutcomeFailed:
		atomic.AddUint64(&m.reconcileFailed, 1)
	}
}

// IncTokenRefresh counts OAuth token refreshes.
func (m *InMemoryRecorder) IncTokenRefresh(status string) {
	if status == StatusFailed {
		atomic.AddUint64(&m.tokenRefreshFailures, 1)
		return
	}
	atomic.AddUint64(&m.tokenRefreshes, 1)
}

// IncPollerRun counts transaction poller runs.
func (m *InMemoryRecorder) IncPollerRun(status string) {
	if status == StatusFailed {
		atomic.AddUint64(&m.pollerRunFailures, 1)
		return
	}
	atomic.AddUint64(&m.pollerRuns, 1)
}

// AddTransactionsPolled adds to the polled transaction counter.
func (m *InMemoryRecorder) AddTransactionsPolled(n int) {
	if n <= 0 {
		return
	}
	atomic.AddUint64(&m.transactionsPolled, uint64(n))
}
