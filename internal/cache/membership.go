package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/premiumgate/premiumgate/internal/model"
)

const (
	premiumKeyPrefix = "premium:"

	premiumTrueValue  = "1"
	premiumFalseValue = "0"

	// DefaultPremiumTTL is the TTL for cached premium flags.
	DefaultPremiumTTL = time.Hour
)

// PremiumKey returns the cache key for an email. The email is normalized first.
func PremiumKey(email string) string {
	return premiumKeyPrefix + model.NormalizeEmail(email)
}

// EncodePremium returns the stored sentinel for a premium flag.
func EncodePremium(premium bool) string {
	if premium {
		return premiumTrueValue
	}
	return premiumFalseValue
}

// DecodePremium converts a stored sentinel back into a known state.
func DecodePremium(value string) model.PremiumState {
	return model.PremiumStateOf(value == premiumTrueValue)
}

// GetPremium returns the cached premium state for an email.
// A miss yields PremiumUnknown with a nil error. Any Redis failure also yields
// PremiumUnknown; the error is returned only so callers can log it.
func (c *Cache) GetPremium(ctx context.Context, email string) (model.PremiumState, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	val, err := c.client.Get(ctx, PremiumKey(email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.PremiumUnknown, nil
		}
		return model.PremiumUnknown, fmt.Errorf("redis get premium: %w", err)
	}

	return DecodePremium(val), nil
}

// SetPremium caches the premium flag for an email, refreshing its TTL.
func (c *Cache) SetPremium(ctx context.Context, email string, premium bool) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	if err := c.client.SetEx(ctx, PremiumKey(email), EncodePremium(premium), c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set premium: %w", err)
	}
	return nil
}

// DeletePremium drops the cached flag for an email.
// Used after explicit provisioning so the next read goes to the store.
func (c *Cache) DeletePremium(ctx context.Context, email string) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	if err := c.client.Del(ctx, PremiumKey(email)).Err(); err != nil {
		return fmt.Errorf("redis delete premium: %w", err)
	}
	return nil
}
