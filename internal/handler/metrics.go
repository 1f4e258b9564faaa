package handler

import (
	"fmt"
	"net/http"

	"github.com/premiumgate/premiumgate/internal/metrics"
)

// MetricsHandler exposes in-memory metrics.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

// Metrics returns metrics in Prometheus exposition format.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	writeMetric(w, "premiumgate_premium_cache_hits_total %d\n", snap.PremiumCacheHits)
	writeMetric(w, "premiumgate_premium_cache_misses_total %d\n", snap.PremiumCacheMisses)
	writeMetric(w, "premiumgate_premium_store_unavailable_total %d\n", snap.PremiumStoreUnavailable)
	writeMetric(w, "premiumgate_premium_lookup_duration_seconds_count %d\n", snap.PremiumLookupCount)
	writeMetric(w, "premiumgate_premium_lookup_duration_seconds_sum %.6f\n", float64(snap.PremiumLookupTotalNs)/1e9)

	writeMetric(w, "premiumgate_reconcile_total{outcome=\"created\"} %d\n", snap.ReconcileCreated)
	writeMetric(w, "premiumgate_reconcile_total{outcome=\"updated\"} %d\n", snap.ReconcileUpdated)
	writeMetric(w, "premiumgate_reconcile_total{outcome=\"skipped\"} %d\n", snap.ReconcileSkipped)
	writeMetric(w, "premiumgate_reconcile_total{outcome=\"failed\"} %d\n", snap.ReconcileFailed)

	writeMetric(w, "premiumgate_paypal_token_refresh_total{status=\"success\"} %d\n", snap.TokenRefreshes)
	writeMetric(w, "premiumgate_paypal_token_refresh_total{status=\"failed\"} %d\n", snap.TokenRefreshFailures)

	writeMetric(w, "premiumgate_poller_runs_total{status=\"success\"} %d\n", snap.PollerRuns)
	writeMetric(w, "premiumgate_poller_runs_total{status=\"failed\"} %d\n", snap.PollerRunFailures)
	writeMetric(w, "premiumgate_poller_transactions_total %d\n", snap.TransactionsPolled)
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
