package model

// ReconcileAction labels how a resolved webhook touched the store.
type ReconcileAction string

// Reconcile actions.
const (
	ActionCreated ReconcileAction = "created"
	ActionUpdated ReconcileAction = "updated"
)

// Reconcile error markers returned in webhook acknowledgements.
const (
	ReconcileErrorStore      = "store_error"
	ReconcileErrorUnverified = "signature_unverified"
)

// ReconcileResult is the acknowledgement payload for one webhook event.
// Status is always "ok"; failures surface through Error and Skipped.
type ReconcileResult struct {
	Status           string          `json:"status"`
	ReconciliationID string          `json:"reconciliation_id,omitempty"`
	EventType        string          `json:"event_type,omitempty"`
	Email            string          `json:"email,omitempty"`
	Date             string          `json:"date,omitempty"`
	Action           ReconcileAction `json:"action,omitempty"`
	Skipped          bool            `json:"skipped,omitempty"`
	Error            string          `json:"error,omitempty"`
}

// AdminContext identifies an authenticated admin key.
// It is injected into the request context by the admin auth middleware.
type AdminContext struct {
	KeyIndex  int
	KeyPrefix string
}
