package handler

import (
	"context"
	"net/http"
	"time"
)

// HealthChecker defines an interface for checking service health.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// HealthHandler manages health check endpoints.
type HealthHandler struct {
	store        HealthChecker
	storeBackend string
	cache        HealthChecker
}

// NewHealthHandler creates a new HealthHandler.
// storeBackend names the store in the checks map. Pass nil for store or
// cache if they are not configured.
func NewHealthHandler(store HealthChecker, storeBackend string, cache HealthChecker) *HealthHandler {
	if storeBackend == "" {
		storeBackend = "store"
	}
	return &HealthHandler{
		store:        store,
		storeBackend: storeBackend,
		cache:        cache,
	}
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Healthz is a liveness probe endpoint.
// It returns 200 if the server is running.
// No dependency checks - this is for Kubernetes liveness probes.
//
// GET /healthz
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status: "ok",
	}
	writeJSON(w, http.StatusOK, response)
}

// Readyz is a readiness probe endpoint.
// It checks all dependencies and returns 200 only if all are healthy.
// For Kubernetes readiness probes - removes pod from LB if failing.
//
// GET /readyz
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string)
	healthy := true

	// The store is authoritative; the service cannot answer without it.
	if h.store != nil {
		if err := h.store.Ping(ctx); err != nil {
			checks[h.storeBackend] = "error: " + err.Error()
			healthy = false
		} else {
			checks[h.storeBackend] = "ok"
		}
	} else {
		checks[h.storeBackend] = "not configured"
	}

	// A cache outage degrades latency only.
	if h.cache != nil {
		if err := h.cache.Ping(ctx); err != nil {
			checks["redis"] = "degraded: " + err.Error()
		} else {
			checks["redis"] = "ok"
		}
	} else {
		checks["redis"] = "not configured"
	}

	status := "ok"
	statusCode := http.StatusOK
	if !healthy {
		status = "unhealthy"
		statusCode = http.StatusServiceUnavailable
	}

	response := HealthResponse{
		Status: status,
		Checks: checks,
	}

	writeJSON(w, statusCode, response)
}
