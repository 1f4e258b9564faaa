// Package webhook parses inbound PayPal webhook events.
//
// Parsing is defensive: every field is looked up independently and any
// structural mismatch yields the zero value instead of an error.
package webhook

import (
	"encoding/json"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/premiumgate/premiumgate/internal/model"
)

// maxPreviewBytes caps the body preview attached to logs.
const maxPreviewBytes = 4000

// Event is the subset of a PayPal webhook event the reconciler consumes.
type Event struct {
	ID         string
	EventType  string
	OrderID    string
	CreateTime string
	PayerEmail string
}

// Parse decodes body into an Event. Invalid JSON yields an empty Event.
func Parse(body []byte) Event {
	var root map[string]any
	if len(body) > 0 {
		if err := json.Unmarshal(body, &root); err != nil {
			root = nil
		}
	}

	return Event{
		ID:         lookupString(root, "id"),
		EventType:  lookupString(root, "event_type"),
		OrderID:    lookupString(root, "resource", "supplementary_data", "related_ids", "order_id"),
		CreateTime: lookupString(root, "resource", "create_time"),
		PayerEmail: lookupString(root, "resource", "payer", "email_address"),
	}
}

// Date returns the UTC calendar date of CreateTime, or the date of now when
// CreateTime is absent or unparseable.
func (e Event) Date(now time.Time) string {
	if t, ok := ParseCreateTime(e.CreateTime); ok {
		return model.FormatDate(t)
	}
	return model.FormatDate(now)
}

// ParseCreateTime accepts a Z-suffixed UTC timestamp or an ISO-8601 timestamp
// with an explicit offset, and returns it in UTC.
func ParseCreateTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse("2006-01-02T15:04:05Z", s); err == nil {
		return t.UTC(), true
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), true
	}
	// Offset without colon, e.g. 2025-01-05T10:00:00+0100.
	if t, err := time.Parse("2006-01-02T15:04:05.999999999Z0700", s); err == nil {
		return t.UTC(), true
	}
	return time.Time{}, false
}

// Preview returns body as text, truncated for logging.
func Preview(body []byte) string {
	text := strings.ToValidUTF8(string(body), "�")
	if len(text) > maxPreviewBytes {
		cut := maxPreviewBytes
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		return text[:cut] + "…"
	}
	return text
}

// lookupString walks nested objects and returns the string at path.
// Any missing key or non-object/non-string value yields "".
func lookupString(root map[string]any, path ...string) string {
	var cur any = root
	for _, key := range path {
		obj, ok := cur.(map[string]any)
		if !ok {
			return ""
		}
		cur = obj[key]
	}
	s, _ := cur.(string)
	return s
}
