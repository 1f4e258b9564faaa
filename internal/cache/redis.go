// Package cache provides the Redis-backed membership cache and rate limiter.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultOpTimeout bounds a single cache round trip when no timeout is configured.
const DefaultOpTimeout = 500 * time.Millisecond

// Cache provides Redis cache access methods.
type Cache struct {
	client    *redis.Client
	ttl       time.Duration
	opTimeout time.Duration
}

// Option configures a Cache.
type Option func(*Cache)

// WithOpTimeout sets the per-operation timeout for cache calls.
func WithOpTimeout(d time.Duration) Option {
	return func(c *Cache) {
		if d > 0 {
			c.opTimeout = d
		}
	}
}

// New creates a Cache for redisURL without dialing. Connections are opened on
// first use, so an unreachable Redis degrades every call to a miss instead of
// failing construction. ttl is applied to every premium-status write.
func New(redisURL string, ttl time.Duration, opts ...Option) (*Cache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	// Connection pool settings
	opt.PoolSize = 10
	opt.MinIdleConns = 2
	opt.PoolTimeout = 4 * time.Second
	opt.ConnMaxIdleTime = 5 * time.Minute

	return NewWithClient(redis.NewClient(opt), ttl, opts...), nil
}

// NewWithClient wraps an existing Redis client.
func NewWithClient(client *redis.Client, ttl time.Duration, opts ...Option) *Cache {
	if ttl <= 0 {
		ttl = DefaultPremiumTTL
	}
	c := &Cache{
		client:    client,
		ttl:       ttl,
		opTimeout: DefaultOpTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Ping checks Redis connectivity, bounded by the operation timeout.
func (c *Cache) Ping(ctx context.Context) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis client.
func (c *Cache) Close() error {
	return c.client.Close()
}

// Client returns the underlying Redis client.
// Use sparingly - prefer adding methods to Cache.
func (c *Cache) Client() *redis.Client {
	return c.client
}

// TTL returns the premium-status TTL.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

func (c *Cache) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.opTimeout)
}
