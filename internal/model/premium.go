package model

// PremiumState is the tri-state cache answer for an email.
type PremiumState int

const (
	// PremiumUnknown means the cache has no opinion (miss or error).
	PremiumUnknown PremiumState = iota
	// PremiumTrue means the cache holds premium=true.
	PremiumTrue
	// PremiumFalse means the cache holds premium=false.
	PremiumFalse
)

// Known reports whether the state carries an actual boolean answer.
func (s PremiumState) Known() bool {
	return s == PremiumTrue || s == PremiumFalse
}

// Bool returns the boolean value of a known state. Unknown maps to false.
func (s PremiumState) Bool() bool {
	return s == PremiumTrue
}

// String implements fmt.Stringer.
func (s PremiumState) String() string {
	switch s {
	case PremiumTrue:
		return "true"
	case PremiumFalse:
		return "false"
	default:
		return "unknown"
	}
}

// PremiumStateOf converts a bool into a known state.
func PremiumStateOf(premium bool) PremiumState {
	if premium {
		return PremiumTrue
	}
	return PremiumFalse
}

// Source identifies which layer answered a status query.
type Source string

// Status query sources.
const (
	SourceCache Source = "cache"
	SourceStore Source = "db"
)

// PremiumStatus is the result of a status query.
type PremiumStatus struct {
	Email   string `json:"email"`
	Premium bool   `json:"premium"`
	Source  Source `json:"source"`
}
