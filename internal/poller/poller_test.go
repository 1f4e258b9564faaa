package poller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/premiumgate/premiumgate/internal/metrics"
	"github.com/premiumgate/premiumgate/internal/model"
	"github.com/premiumgate/premiumgate/internal/repository"
	"github.com/premiumgate/premiumgate/internal/service"
)

type fakeSearcher struct {
	mu      sync.Mutex
	txns    []model.Transaction
	err     error
	windows []time.Duration
	block   chan struct{}
}

func (f *fakeSearcher) SearchTransactionsSince(ctx context.Context, window time.Duration) ([]model.Transaction, error) {
	f.mu.Lock()
	f.windows = append(f.windows, window)
	block := f.block
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.txns, f.err
}

func TestNew_InvalidSchedule(t *testing.T) {
	t.Parallel()

	_, err := New(&fakeSearcher{}, nil, Config{Schedule: "every tuesday"}, nil, nil)
	assert.Error(t, err)
}

func TestNew_ApplyRequiresApplier(t *testing.T) {
	t.Parallel()

	_, err := New(&fakeSearcher{}, nil, Config{Apply: true}, nil, nil)
	assert.Error(t, err)
}

func TestRunOnce_ListOnly(t *testing.T) {
	t.Parallel()

	searcher := &fakeSearcher{txns: []model.Transaction{
		{Date: "2025-01-05T10:00:00+0000", Email: "a@b.com", Amount: "9.99 USD"},
	}}
	rec := metrics.NewInMemory()
	p, err := New(searcher, nil, Config{Schedule: "@hourly"}, nil, rec)
	require.NoError(t, err)

	res, err := p.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Len(t, res.Transactions, 1)
	assert.Zero(t, res.Created)
	assert.Equal(t, []time.Duration{DefaultWindow}, searcher.windows)

	snap := rec.Snapshot()
	assert.Equal(t, uint64(1), snap.PollerRuns)
	assert.Equal(t, uint64(1), snap.TransactionsPolled)
}

func TestRunOnce_Apply(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := repository.NewMemoryStore()
	require.NoError(t, store.Insert(ctx, "old@example.com", true, "2024-12-01"))
	reconciler := service.NewReconciler(nil, store, nil, nil)

	searcher := &fakeSearcher{txns: []model.Transaction{
		{Date: "2025-01-05T23:30:00-0500", Email: "New@Example.com"},
		{Date: "2025-01-05T10:00:00+0000", Email: "old@example.com"},
		{Date: "2025-01-05T10:00:00+0000"},
	}}
	p, err := New(searcher, reconciler, Config{Apply: true}, nil, nil)
	require.NoError(t, err)

	res, err := p.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 1, res.Updated)
	assert.Equal(t, 1, res.Skipped)
	assert.Zero(t, res.Failed)

	m, err := store.GetMembership(ctx, "new@example.com")
	require.NoError(t, err)
	assert.Equal(t, "2025-01-06", m.LastUpdated, "transaction dates are converted to UTC")

	m, err = store.GetMembership(ctx, "old@example.com")
	require.NoError(t, err)
	assert.Equal(t, "2025-01-05", m.LastUpdated)
}

func TestRunOnce_SearchErrorPropagates(t *testing.T) {
	t.Parallel()

	cause := errors.New("paypal 503")
	rec := metrics.NewInMemory()
	p, err := New(&fakeSearcher{err: cause}, nil, Config{}, nil, rec)
	require.NoError(t, err)

	_, err = p.RunOnce(context.Background())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, uint64(1), rec.Snapshot().PollerRunFailures)
}

func TestRunOnce_RejectsOverlap(t *testing.T) {
	t.Parallel()

	searcher := &fakeSearcher{block: make(chan struct{})}
	p, err := New(searcher, nil, Config{}, nil, nil)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := p.RunOnce(context.Background())
		done <- err
	}()

	require.Eventually(t, func() bool {
		searcher.mu.Lock()
		defer searcher.mu.Unlock()
		return len(searcher.windows) == 1
	}, time.Second, 5*time.Millisecond)

	_, err = p.RunOnce(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyRunning)

	close(searcher.block)
	assert.NoError(t, <-done)
}

func TestShutdown(t *testing.T) {
	t.Parallel()

	p, err := New(&fakeSearcher{}, nil, Config{Schedule: "@every 1h"}, nil, nil)
	require.NoError(t, err)

	p.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, p.Shutdown(ctx))
}

func TestTransactionDate(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 10, 18, 1, 0, 0, 0, time.UTC)
	assert.Equal(t, "2025-01-06", transactionDate(model.Transaction{Date: "2025-01-05T23:30:00-0500"}, now))
	assert.Equal(t, "2025-01-05", transactionDate(model.Transaction{Date: "2025-01-05T10:00:00Z"}, now))
	assert.Equal(t, "2026-10-18", transactionDate(model.Transaction{}, now))
}
