package cache

import (
	"testing"

	"github.com/premiumgate/premiumgate/internal/model"
)

func TestHashIP_Deterministic(t *testing.T) {
	t.Parallel()

	ip := "192.168.1.100"

	if hashIP(ip) != hashIP(ip) {
		t.Error("Same IP should produce same hash")
	}
}

func TestHashIP_Length(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		ip   string
	}{
		{"IPv4", "192.168.1.1"},
		{"IPv6 localhost", "::1"},
		{"empty", ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := len(hashIP(tt.ip)); got != 16 {
				t.Errorf("hashIP(%q) length = %d, want 16", tt.ip, got)
			}
		})
	}
}

func TestPremiumKey_Normalizes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		email string
		want  string
	}{
		{"lower", "foo@bar.com", "premium:foo@bar.com"},
		{"mixed", "Foo@Bar.com", "premium:foo@bar.com"},
		{"padded", " USER@Example.COM ", "premium:user@example.com"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := PremiumKey(tt.email); got != tt.want {
				t.Errorf("PremiumKey(%q) = %q, want %q", tt.email, got, tt.want)
			}
		})
	}

	if PremiumKey("Foo@Bar.com") != PremiumKey("foo@bar.com") {
		t.Error("case variants must share a cache key")
	}
}

func TestEncodeDecodePremium(t *testing.T) {
	t.Parallel()

	if EncodePremium(true) != "1" {
		t.Errorf("EncodePremium(true) = %q, want 1", EncodePremium(true))
	}
	if EncodePremium(false) != "0" {
		t.Errorf("EncodePremium(false) = %q, want 0", EncodePremium(false))
	}

	tests := []struct {
		value string
		want  model.PremiumState
	}{
		{"1", model.PremiumTrue},
		{"0", model.PremiumFalse},
		{"", model.PremiumFalse},
		{"true", model.PremiumFalse},
	}
	for _, tt := range tests {
		if got := DecodePremium(tt.value); got != tt.want {
			t.Errorf("DecodePremium(%q) = %v, want %v", tt.value, got, tt.want)
		}
	}
}
