package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/premiumgate/premiumgate/internal/auth"
	"github.com/premiumgate/premiumgate/internal/handler/dto"
	"github.com/premiumgate/premiumgate/internal/model"
	"github.com/premiumgate/premiumgate/internal/poller"
)

// MembershipProvisioner writes membership records directly.
type MembershipProvisioner interface {
	Insert(ctx context.Context, email string, premium bool, date string) error
}

// PremiumInvalidator drops cached premium flags.
type PremiumInvalidator interface {
	DeletePremium(ctx context.Context, email string) error
}

// PollRunner runs one transaction poll on demand.
type PollRunner interface {
	RunOnce(ctx context.Context) (*poller.RunResult, error)
}

// AdminHandler provides admin-only endpoints for provisioning and operations.
type AdminHandler struct {
	store        MembershipProvisioner
	cache        PremiumInvalidator
	poller       PollRunner
	storeTimeout time.Duration
	logger       *slog.Logger
	now          func() time.Time
}

// NewAdminHandler creates a new AdminHandler. cache and poller may be nil.
func NewAdminHandler(store MembershipProvisioner, cache PremiumInvalidator, poller PollRunner, storeTimeout time.Duration, logger *slog.Logger) *AdminHandler {
	if storeTimeout <= 0 {
		storeTimeout = 5 * time.Second
	}
	return &AdminHandler{
		store:        store,
		cache:        cache,
		poller:       poller,
		storeTimeout: storeTimeout,
		logger:       logger.With("handler", "admin"),
		now:          time.Now,
	}
}

// SetMembership handles PUT /admin/members/{email}.
// The record is overwritten and the cached flag dropped best-effort.
func (h *AdminHandler) SetMembership(w http.ResponseWriter, r *http.Request) {
	raw, err := url.PathUnescape(chi.URLParam(r, "email"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_EMAIL", "A valid email is required")
		return
	}
	email := model.NormalizeEmail(raw)
	if err := dto.ValidateEmail(email); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_EMAIL", "A valid email is required")
		return
	}

	var req dto.SetMembershipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "premium is required and date must be YYYY-MM-DD")
		return
	}

	date := req.Date
	if date == "" {
		date = model.FormatDate(h.now())
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.storeTimeout)
	defer cancel()

	if err := h.store.Insert(ctx, email, *req.Premium, date); err != nil {
		h.logger.Error("membership provisioning failed", "error", err)
		writeError(w, http.StatusServiceUnavailable, "DB_UNAVAILABLE", "Membership store is unavailable")
		return
	}

	if h.cache != nil {
		if err := h.cache.DeletePremium(ctx, email); err != nil {
			h.logger.Warn("premium cache invalidation failed", "error", err)
		}
	}

	attrs := []any{"premium", *req.Premium, "date", date}
	if admin := auth.AdminFromContext(r.Context()); admin != nil {
		attrs = append(attrs, "key_prefix", admin.KeyPrefix)
	}
	h.logger.Info("membership_provisioned", attrs...)

	writeJSON(w, http.StatusOK, dto.MembershipResponse{
		Email:   email,
		Premium: *req.Premium,
		Date:    date,
	})
}

// Poll handles POST /admin/poll.
func (h *AdminHandler) Poll(w http.ResponseWriter, r *http.Request) {
	if h.poller == nil {
		writeError(w, http.StatusServiceUnavailable, "POLLER_UNAVAILABLE", "Transaction poller is not configured")
		return
	}

	result, err := h.poller.RunOnce(r.Context())
	if err != nil {
		if errors.Is(err, poller.ErrAlreadyRunning) {
			writeError(w, http.StatusConflict, "POLL_IN_PROGRESS", "A poll is already running")
			return
		}
		h.logger.Error("manual poll failed", "error", err)
		writeError(w, http.StatusBadGateway, "PAYPAL_ERROR", "Transaction search failed")
		return
	}

	writeJSON(w, http.StatusOK, result)
}
