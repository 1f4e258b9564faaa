package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/premiumgate/premiumgate/internal/metrics"
	"github.com/premiumgate/premiumgate/internal/model"
	"github.com/premiumgate/premiumgate/internal/repository"
	"github.com/premiumgate/premiumgate/internal/webhook"
)

// PayerResolver resolves the payer email of an order.
type PayerResolver interface {
	ResolvePayerEmail(ctx context.Context, orderID string) (string, error)
}

// SignatureVerifier checks the authenticity of a webhook delivery.
type SignatureVerifier interface {
	VerifyWebhookSignature(ctx context.Context, h webhook.Headers, body []byte) (bool, error)
}

// MembershipWriter is the store surface used by reconciliation.
type MembershipWriter interface {
	Exists(ctx context.Context, email string) (bool, error)
	Insert(ctx context.Context, email string, premium bool, date string) error
	Update(ctx context.Context, email string, date string) error
}

// Reconciler maps inbound payment events onto membership records.
// It writes to the store only; the cache catches up when entries expire.
type Reconciler struct {
	resolver     PayerResolver
	store        MembershipWriter
	verifier     SignatureVerifier
	storeTimeout time.Duration
	logger       *slog.Logger
	metrics      metrics.Recorder
	now          func() time.Time
}

// ReconcilerOption configures a Reconciler.
type ReconcilerOption func(*Reconciler)

// WithSignatureVerifier enables signature verification for every event.
func WithSignatureVerifier(v SignatureVerifier) ReconcilerOption {
	return func(r *Reconciler) {
		r.verifier = v
	}
}

// WithStoreTimeout bounds each store call.
func WithStoreTimeout(d time.Duration) ReconcilerOption {
	return func(r *Reconciler) {
		if d > 0 {
			r.storeTimeout = d
		}
	}
}

// WithClock overrides the clock used for the fallback date.
func WithClock(now func() time.Time) ReconcilerOption {
	return func(r *Reconciler) {
		r.now = now
	}
}

// NewReconciler creates a Reconciler. resolver may be nil, in which case only
// the payer email embedded in the event is used.
func NewReconciler(resolver PayerResolver, store MembershipWriter, logger *slog.Logger, recorder metrics.Recorder, opts ...ReconcilerOption) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	r := &Reconciler{
		resolver:     resolver,
		store:        store,
		storeTimeout: DefaultStoreTimeout,
		logger:       logger.With("component", "reconciler"),
		metrics:      recorder,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reconcile processes one webhook delivery. It never fails: problems are
// reported through Skipped and Error on the result.
func (r *Reconciler) Reconcile(ctx context.Context, body []byte, headers webhook.Headers) model.ReconcileResult {
	result := model.ReconcileResult{
		Status:           "ok",
		ReconciliationID: ulid.Make().String(),
	}

	ev := webhook.Parse(body)
	result.EventType = ev.EventType

	logger := r.logger.With(
		"reconciliation_id", result.ReconciliationID,
		"event_id", ev.ID,
		"event_type", ev.EventType,
		"transmission_id", headers.TransmissionID,
	)
	logger.Debug("webhook received", "body", webhook.Preview(body))

	if r.verifier != nil {
		ok, err := r.verifier.VerifyWebhookSignature(ctx, headers, body)
		if err != nil {
			logger.Warn("webhook signature verification failed", "error", err)
		}
		if !ok {
			logger.Warn("webhook signature not verified; event skipped")
			result.Skipped = true
			result.Error = model.ReconcileErrorUnverified
			r.metrics.IncReconcileOutcome(metrics.OutcomeSkipped)
			return result
		}
	}

	date := ev.Date(r.now())
	email := r.resolveEmail(ctx, logger, ev)
	if email == "" {
		logger.Info("no payer email resolved; event skipped", "order_id", ev.OrderID)
		result.Skipped = true
		r.metrics.IncReconcileOutcome(metrics.OutcomeSkipped)
		return result
	}

	result.Email = email
	result.Date = date

	action, err := r.Apply(ctx, email, date)
	if err != nil {
		logger.Error("membership upsert failed", "order_id", ev.OrderID, "date", date, "error", err)
		result.Error = model.ReconcileErrorStore
		r.metrics.IncReconcileOutcome(metrics.OutcomeFailed)
		return result
	}

	result.Action = action
	r.metrics.IncReconcileOutcome(string(action))
	logger.Info("membership reconciled", "order_id", ev.OrderID, "date", date, "action", action)
	return result
}

// resolveEmail tries the order lookup first and falls back to the embedded payer email.
func (r *Reconciler) resolveEmail(ctx context.Context, logger *slog.Logger, ev webhook.Event) string {
	if ev.OrderID != "" && r.resolver != nil {
		email, err := r.resolver.ResolvePayerEmail(ctx, ev.OrderID)
		switch {
		case err == nil && strings.TrimSpace(email) != "":
			return model.NormalizeEmail(email)
		case err != nil:
			logger.Warn("order lookup failed; using embedded payer email", "order_id", ev.OrderID, "error", err)
		}
	}
	return model.NormalizeEmail(ev.PayerEmail)
}

// Apply records a payment for email on date: Update when a record exists,
// Insert with premium=true otherwise.
func (r *Reconciler) Apply(ctx context.Context, email, date string) (model.ReconcileAction, error) {
	email = model.NormalizeEmail(email)
	if email == "" {
		return "", errors.New("empty email")
	}

	ctx, cancel := context.WithTimeout(ctx, r.storeTimeout)
	defer cancel()

	exists, err := r.store.Exists(ctx, email)
	if err != nil {
		return "", fmt.Errorf("check membership: %w", err)
	}

	if exists {
		if err := r.store.Update(ctx, email, date); err != nil {
			if errors.Is(err, repository.ErrMembershipNotFound) {
				return "", fmt.Errorf("membership vanished before update: %w", err)
			}
			return "", fmt.Errorf("update membership: %w", err)
		}
		return model.ActionUpdated, nil
	}

	if err := r.store.Insert(ctx, email, true, date); err != nil {
		return "", fmt.Errorf("insert membership: %w", err)
	}
	return model.ActionCreated, nil
}
