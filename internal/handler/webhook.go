package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/premiumgate/premiumgate/internal/model"
	"github.com/premiumgate/premiumgate/internal/webhook"
)

// DefaultMaxWebhookBody caps webhook bodies when no limit is configured.
const DefaultMaxWebhookBody = 1 << 20

// WebhookReconciler turns a provider notification into a membership change.
type WebhookReconciler interface {
	Reconcile(ctx context.Context, body []byte, headers webhook.Headers) model.ReconcileResult
}

// WebhookHandler receives PayPal webhook notifications.
type WebhookHandler struct {
	reconciler WebhookReconciler
	maxBody    int64
	logger     *slog.Logger
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(reconciler WebhookReconciler, maxBody int64, logger *slog.Logger) *WebhookHandler {
	if maxBody <= 0 {
		maxBody = DefaultMaxWebhookBody
	}
	return &WebhookHandler{
		reconciler: reconciler,
		maxBody:    maxBody,
		logger:     logger.With("handler", "webhook"),
	}
}

// PayPal handles POST /webhooks/paypal.
// It always answers 200 so the provider does not redeliver; the outcome is
// described in the body.
func (h *WebhookHandler) PayPal(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBody))
	if err != nil {
		h.logger.Warn("webhook body unreadable; treating as empty", "error", err)
		body = nil
	}

	// Finish reconciling even if the provider hangs up.
	ctx := context.WithoutCancel(r.Context())

	result := h.reconciler.Reconcile(ctx, body, webhook.HeadersFrom(r.Header))
	writeJSON(w, http.StatusOK, result)
}
