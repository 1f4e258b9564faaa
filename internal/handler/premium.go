package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/premiumgate/premiumgate/internal/handler/dto"
	"github.com/premiumgate/premiumgate/internal/model"
	"github.com/premiumgate/premiumgate/internal/service"
)

// PremiumChecker resolves premium status for an email.
type PremiumChecker interface {
	Check(ctx context.Context, email string) (*model.PremiumStatus, error)
}

// PremiumHandler serves premium status lookups.
type PremiumHandler struct {
	svc    PremiumChecker
	logger *slog.Logger
}

// NewPremiumHandler creates a new PremiumHandler.
func NewPremiumHandler(svc PremiumChecker, logger *slog.Logger) *PremiumHandler {
	return &PremiumHandler{
		svc:    svc,
		logger: logger.With("handler", "premium"),
	}
}

// CheckQuery handles GET /premium/check?email=.
func (h *PremiumHandler) CheckQuery(w http.ResponseWriter, r *http.Request) {
	req := dto.CheckPremiumRequest{Email: r.URL.Query().Get("email")}
	h.check(w, r, req)
}

// CheckBody handles POST /premium/check with a JSON body {"email": "..."}.
func (h *PremiumHandler) CheckBody(w http.ResponseWriter, r *http.Request) {
	var req dto.CheckPremiumRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}
	h.check(w, r, req)
}

func (h *PremiumHandler) check(w http.ResponseWriter, r *http.Request, req dto.CheckPremiumRequest) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_EMAIL", "A valid email is required")
		return
	}

	status, err := h.svc.Check(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, service.ErrStoreUnavailable) {
			h.logger.Error("premium lookup failed", "error", err)
			writeError(w, http.StatusServiceUnavailable, "DB_UNAVAILABLE", "Membership store is unavailable")
			return
		}
		h.logger.Error("internal_error", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
		return
	}

	writeJSON(w, http.StatusOK, dto.ToPremiumResponse(status))
}
