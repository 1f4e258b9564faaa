package auth

import (
	"errors"
	"fmt"
)

// ErrInvalidKey is returned when a presented key matches no configured hash.
var ErrInvalidKey = errors.New("invalid admin key")

// KeyVerifier checks presented admin keys against a fixed set of hashes.
type KeyVerifier struct {
	hashes []string
}

// NewKeyVerifier validates every hash up front so a bad config fails at startup.
func NewKeyVerifier(hashes []string) (*KeyVerifier, error) {
	for i, h := range hashes {
		if err := ValidateHash(h); err != nil {
			return nil, fmt.Errorf("admin key hash %d: %w", i, err)
		}
	}
	return &KeyVerifier{hashes: hashes}, nil
}

// Enabled reports whether any admin key is configured.
func (v *KeyVerifier) Enabled() bool {
	return v != nil && len(v.hashes) > 0
}

// Verify returns the index of the hash matching key.
// Keys that are not in admin format are rejected before hashing.
func (v *KeyVerifier) Verify(key string) (int, error) {
	if !v.Enabled() || !ValidateKeyFormat(key) {
		return -1, ErrInvalidKey
	}
	for i, h := range v.hashes {
		ok, err := VerifyKey(key, h)
		if err == nil && ok {
			return i, nil
		}
	}
	return -1, ErrInvalidKey
}
