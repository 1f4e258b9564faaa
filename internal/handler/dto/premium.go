// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/premiumgate/premiumgate/internal/model"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Validator returns the shared request validator.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// CheckPremiumRequest is the body of POST /premium/check.
type CheckPremiumRequest struct {
	Email string `json:"email" validate:"required,email,max=254"`
}

// Normalize lowercases and trims the email in place.
func (r *CheckPremiumRequest) Normalize() {
	r.Email = model.NormalizeEmail(r.Email)
}

// Validate checks the normalized request.
func (r *CheckPremiumRequest) Validate() error {
	return Validator().Struct(r)
}

// PremiumResponse is returned by the premium check endpoints.
type PremiumResponse struct {
	Email   string `json:"email"`
	Premium bool   `json:"premium"`
	Source  string `json:"source"`
}

// ToPremiumResponse converts a lookup result to its response body.
func ToPremiumResponse(status *model.PremiumStatus) *PremiumResponse {
	return &PremiumResponse{
		Email:   status.Email,
		Premium: status.Premium,
		Source:  string(status.Source),
	}
}

// SetMembershipRequest is the body of PUT /admin/members/{email}.
// Date defaults to today (UTC) when empty.
type SetMembershipRequest struct {
	Premium *bool  `json:"premium" validate:"required"`
	Date    string `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// Validate checks the request.
func (r *SetMembershipRequest) Validate() error {
	return Validator().Struct(r)
}

// MembershipResponse describes a stored membership record.
type MembershipResponse struct {
	Email   string `json:"email"`
	Premium bool   `json:"premium"`
	Date    string `json:"date"`
}

// ValidateEmail checks a single already-normalized email address.
func ValidateEmail(email string) error {
	return Validator().Var(email, "required,email,max=254")
}

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}
