package paypal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/premiumgate/premiumgate/internal/metrics"
)

func TestTokenManager_ReusesValidToken(t *testing.T) {
	fake := newFakePayPal(t)
	tm := fake.client(t).Tokens()
	ctx := context.Background()

	first, err := tm.Token(ctx, false)
	require.NoError(t, err)
	second, err := tm.Token(ctx, false)
	require.NoError(t, err)

	assert.Equal(t, "A21AA-token", first)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), fake.tokenCalls.Load(), "back-to-back calls must issue exactly one OAuth request")

	cur, ok := tm.Current()
	require.True(t, ok)
	assert.Contains(t, cur.Scope, "reporting/search/read")
}

func TestTokenManager_ForceRefresh(t *testing.T) {
	fake := newFakePayPal(t)
	tm := fake.client(t).Tokens()
	ctx := context.Background()

	_, err := tm.Token(ctx, false)
	require.NoError(t, err)
	_, err = tm.Token(ctx, true)
	require.NoError(t, err)

	assert.Equal(t, int32(2), fake.tokenCalls.Load())
}

func TestTokenManager_RefreshesInsideSafetyMargin(t *testing.T) {
	fake := newFakePayPal(t)
	tm := fake.client(t).Tokens()
	ctx := context.Background()

	_, err := tm.Token(ctx, false)
	require.NoError(t, err)
	cur, _ := tm.Current()

	// 30s before expiry is inside the 60s margin.
	tm.now = func() time.Time { return cur.Expiry.Add(-30 * time.Second) }
	_, err = tm.Token(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, int32(2), fake.tokenCalls.Load())

	cur, _ = tm.Current()
	// 2 minutes before expiry is still reusable.
	tm.now = func() time.Time { return cur.Expiry.Add(-2 * time.Minute) }
	_, err = tm.Token(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, int32(2), fake.tokenCalls.Load())
}

func TestTokenManager_DefaultExpiry(t *testing.T) {
	fake := newFakePayPal(t)
	fake.tokenBody = map[string]any{"access_token": "no-expiry"}
	tm := fake.client(t).Tokens()

	before := time.Now()
	_, err := tm.Token(context.Background(), false)
	require.NoError(t, err)

	cur, ok := tm.Current()
	require.True(t, ok)
	assert.WithinDuration(t, before.Add(DefaultTokenLifetime), cur.Expiry, 5*time.Second)
}

func TestTokenManager_AuthenticationError(t *testing.T) {
	fake := newFakePayPal(t)
	fake.tokenCode = http.StatusUnauthorized
	rec := metrics.NewInMemory()
	tm := NewTokenManager(fake.server.URL, "client-id", "client-secret", fake.server.Client(), nil, rec)

	_, err := tm.Token(context.Background(), false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAuthentication))
	assert.Equal(t, uint64(1), rec.Snapshot().TokenRefreshFailures)

	_, ok := tm.Current()
	assert.False(t, ok)
}

func TestTokenManager_BadCredentials(t *testing.T) {
	fake := newFakePayPal(t)
	tm := NewTokenManager(fake.server.URL, "client-id", "wrong", fake.server.Client(), nil, nil)

	_, err := tm.Token(context.Background(), false)
	assert.ErrorIs(t, err, ErrAuthentication)
}

func TestTokenManager_ConcurrentRefreshCollapses(t *testing.T) {
	fake := newFakePayPal(t)
	fake.tokenDelay = 100 * time.Millisecond
	tm := fake.client(t).Tokens()

	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			tok, err := tm.Token(context.Background(), false)
			assert.NoError(t, err)
			assert.Equal(t, "A21AA-token", tok)
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), fake.tokenCalls.Load())
}

func TestTokenManager_CancelledCallerDoesNotFailWaiters(t *testing.T) {
	fake := newFakePayPal(t)
	fake.tokenDelay = 150 * time.Millisecond
	tm := fake.client(t).Tokens()

	leaderCtx, cancelLeader := context.WithCancel(context.Background())
	leaderErr := make(chan error, 1)
	go func() {
		_, err := tm.Token(leaderCtx, false)
		leaderErr <- err
	}()

	time.Sleep(20 * time.Millisecond)
	waiterTok := make(chan string, 1)
	waiterErr := make(chan error, 1)
	go func() {
		tok, err := tm.Token(context.Background(), false)
		waiterTok <- tok
		waiterErr <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cancelLeader()

	assert.ErrorIs(t, <-leaderErr, context.Canceled)
	require.NoError(t, <-waiterErr)
	assert.Equal(t, "A21AA-token", <-waiterTok)
	assert.Equal(t, int32(1), fake.tokenCalls.Load())

	cur, ok := tm.Current()
	require.True(t, ok)
	assert.Equal(t, "A21AA-token", cur.AccessToken)
}
