package model

import (
	"testing"
	"time"
)

func TestNormalizeEmail(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"lower", "foo@bar.com", "foo@bar.com"},
		{"mixed case", "Foo@Bar.com", "foo@bar.com"},
		{"upper", "USER@EXAMPLE.COM", "user@example.com"},
		{"surrounding space", "  user@example.com\n", "user@example.com"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := NormalizeEmail(tt.input); got != tt.want {
				t.Errorf("NormalizeEmail(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatDate_ConvertsToUTC(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("UTC-5", -5*60*60)
	ts := time.Date(2025, 10, 16, 22, 30, 0, 0, loc) // 2025-10-17T03:30Z

	if got := FormatDate(ts); got != "2025-10-17" {
		t.Errorf("FormatDate = %q, want 2025-10-17", got)
	}
}

func TestIsValidDate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  bool
	}{
		{"2025-01-05", true},
		{"2025-1-5", false},
		{"2025-13-01", false},
		{"", false},
		{"2025-01-05T00:00:00Z", false},
	}

	for _, tt := range tests {
		if got := IsValidDate(tt.input); got != tt.want {
			t.Errorf("IsValidDate(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestPremiumState(t *testing.T) {
	t.Parallel()

	if PremiumUnknown.Known() {
		t.Error("unknown state should not be known")
	}
	if !PremiumStateOf(true).Known() || !PremiumStateOf(true).Bool() {
		t.Error("PremiumStateOf(true) should be known and true")
	}
	if !PremiumStateOf(false).Known() || PremiumStateOf(false).Bool() {
		t.Error("PremiumStateOf(false) should be known and false")
	}
	if PremiumUnknown.String() != "unknown" {
		t.Errorf("String() = %q, want unknown", PremiumUnknown.String())
	}
}
