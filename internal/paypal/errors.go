package paypal

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Sentinel errors for PayPal operations.
var (
	ErrAuthentication = errors.New("paypal authentication failed")
	ErrOrderNotFound  = errors.New("paypal order has no payer email")
)

// APIError is returned for non-2xx responses from the PayPal REST API.
type APIError struct {
	Operation  string
	StatusCode int
	// Body is the raw response body; Details holds it decoded when it was JSON.
	Body    string
	Details map[string]any
}

func (e *APIError) Error() string {
	if name, ok := e.Details["name"].(string); ok {
		msg, _ := e.Details["message"].(string)
		return fmt.Sprintf("paypal %s failed: %d %s: %s", e.Operation, e.StatusCode, name, msg)
	}
	return fmt.Sprintf("paypal %s failed: %d %s", e.Operation, e.StatusCode, e.Body)
}

func newAPIError(operation string, status int, body []byte) *APIError {
	apiErr := &APIError{
		Operation:  operation,
		StatusCode: status,
		Body:       string(body),
	}
	var details map[string]any
	if err := json.Unmarshal(body, &details); err == nil {
		apiErr.Details = details
	}
	return apiErr
}
