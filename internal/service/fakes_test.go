package service

import (
	"context"
	"errors"
	"sync"

	"github.com/premiumgate/premiumgate/internal/model"
	"github.com/premiumgate/premiumgate/internal/webhook"
)

// fakeCache is an in-process PremiumCache keyed like the Redis cache.
type fakeCache struct {
	mu      sync.Mutex
	entries map[string]bool
	getErr  error
	setErr  error
	sets    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string]bool{}}
}

func (c *fakeCache) GetPremium(_ context.Context, email string) (model.PremiumState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return model.PremiumUnknown, c.getErr
	}
	v, ok := c.entries[model.NormalizeEmail(email)]
	if !ok {
		return model.PremiumUnknown, nil
	}
	return model.PremiumStateOf(v), nil
}

func (c *fakeCache) SetPremium(_ context.Context, email string, premium bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	if c.setErr != nil {
		return c.setErr
	}
	c.entries[model.NormalizeEmail(email)] = premium
	return nil
}

// failingStore fails every call.
type failingStore struct{ err error }

func (s failingStore) IsPremium(context.Context, string) (bool, error) { return false, s.err }
func (s failingStore) Exists(context.Context, string) (bool, error)    { return false, s.err }
func (s failingStore) Insert(context.Context, string, bool, string) error {
	return s.err
}
func (s failingStore) Update(context.Context, string, string) error { return s.err }

// raceStore reports a record as existing but loses it before the update.
type raceStore struct{}

func (raceStore) Exists(context.Context, string) (bool, error)       { return true, nil }
func (raceStore) Insert(context.Context, string, bool, string) error { return nil }
func (raceStore) Update(context.Context, string, string) error       { return errNotFoundForTest }

// fakeResolver maps order ids to payer emails.
type fakeResolver struct {
	mu     sync.Mutex
	emails map[string]string
	err    error
	calls  int
}

func (r *fakeResolver) ResolvePayerEmail(_ context.Context, orderID string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.err != nil {
		return "", r.err
	}
	email, ok := r.emails[orderID]
	if !ok {
		return "", errOrderNotFoundForTest
	}
	return email, nil
}

type fakeVerifier struct {
	ok  bool
	err error
}

func (v fakeVerifier) VerifyWebhookSignature(context.Context, webhook.Headers, []byte) (bool, error) {
	return v.ok, v.err
}

var errOrderNotFoundForTest = errors.New("order not found")
