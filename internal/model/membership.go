// Package model defines domain entities for the application.
package model

import (
	"strings"
	"time"
)

// DateLayout is the calendar-date format stored on membership records.
const DateLayout = "2006-01-02"

// Membership represents the durable premium record for one email address.
type Membership struct {
	Email       string `json:"email" dynamodbav:"email"`
	IsPremium   bool   `json:"is_premium" dynamodbav:"is_premium"`
	LastUpdated string `json:"timestamp" dynamodbav:"timestamp"`
}

// NormalizeEmail returns the canonical key form of an email address.
// Every cache and store access goes through this.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// FormatDate renders t as a UTC calendar date (YYYY-MM-DD).
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// Today returns the current UTC calendar date.
func Today() string {
	return FormatDate(time.Now())
}

// IsValidDate reports whether s is a YYYY-MM-DD calendar date.
func IsValidDate(s string) bool {
	if len(s) != len(DateLayout) {
		return false
	}
	_, err := time.Parse(DateLayout, s)
	return err == nil
}
