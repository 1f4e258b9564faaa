package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/premiumgate/premiumgate/internal/model"
	"github.com/premiumgate/premiumgate/internal/webhook"
)

type recordingReconciler struct {
	body    []byte
	headers webhook.Headers
	ctxErr  error
	result  model.ReconcileResult
}

func (r *recordingReconciler) Reconcile(ctx context.Context, body []byte, headers webhook.Headers) model.ReconcileResult {
	r.body = body
	r.headers = headers
	r.ctxErr = ctx.Err()
	return r.result
}

func TestWebhookHandler_PayPal(t *testing.T) {
	t.Parallel()

	rec := &recordingReconciler{result: model.ReconcileResult{
		Status:           "ok",
		ReconciliationID: "01J0000000000000000000000",
		EventType:        "CHECKOUT.ORDER.APPROVED",
		Email:            "buyer@example.com",
		Date:             "2025-10-17",
		Action:           model.ActionCreated,
	}}
	h := NewWebhookHandler(rec, 0, discardLogger())

	payload := `{"id":"WH-1","event_type":"CHECKOUT.ORDER.APPROVED"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/webhooks/paypal", strings.NewReader(payload))
	req.Header.Set(webhook.HeaderTransmissionID, "tx-123")
	w := httptest.NewRecorder()

	h.PayPal(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if string(rec.body) != payload {
		t.Errorf("reconciler body = %q, want %q", rec.body, payload)
	}
	if rec.headers.TransmissionID != "tx-123" {
		t.Errorf("transmission id = %q, want tx-123", rec.headers.TransmissionID)
	}

	var got model.ReconcileResult
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if got != rec.result {
		t.Errorf("response = %+v, want %+v", got, rec.result)
	}
}

func TestWebhookHandler_OversizedBodyStillOK(t *testing.T) {
	t.Parallel()

	rec := &recordingReconciler{result: model.ReconcileResult{Status: "ok", Skipped: true}}
	h := NewWebhookHandler(rec, 8, discardLogger())

	req := httptest.NewRequest(http.MethodPost, "/v1/webhooks/paypal", strings.NewReader(`{"id":"a very long body"}`))
	w := httptest.NewRecorder()

	h.PayPal(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if len(rec.body) != 0 {
		t.Errorf("reconciler body = %q, want empty", rec.body)
	}
}

func TestWebhookHandler_DetachedFromClientCancel(t *testing.T) {
	t.Parallel()

	rec := &recordingReconciler{result: model.ReconcileResult{Status: "ok"}}
	h := NewWebhookHandler(rec, 0, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/v1/webhooks/paypal", strings.NewReader(`{}`)).WithContext(ctx)

	h.PayPal(httptest.NewRecorder(), req)

	if rec.ctxErr != nil {
		t.Errorf("reconcile context err = %v, want nil", rec.ctxErr)
	}
}
