//go:build integration

package repository

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/premiumgate/premiumgate/internal/testutil"
)

// ============================================================================
// PostgreSQL Membership Integration Tests
// ============================================================================

func newMembershipTestEnv(t *testing.T) (context.Context, *Repository) {
	t.Helper()
	ctx := context.Background()
	dsn := testutil.RequireEnv(t, "DATABASE_URL")

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect database: %v", err)
	}
	t.Cleanup(pool.Close)

	unlock, err := testutil.AcquireDBLock(ctx, pool)
	if err != nil {
		t.Fatalf("lock database: %v", err)
	}
	t.Cleanup(func() {
		_ = unlock()
	})

	if err := testutil.ResetMembershipSchema(ctx, pool); err != nil {
		t.Fatalf("reset schema: %v", err)
	}

	return ctx, NewWithPool(pool, DefaultTable)
}

func TestIntegrationRepository_Contract(t *testing.T) {
	testStoreContract(t, func(t *testing.T) Store {
		_, repo := newMembershipTestEnv(t)
		return repo
	})
}

func TestIntegrationRepository_GetMembership(t *testing.T) {
	ctx, repo := newMembershipTestEnv(t)

	email := testutil.UniqueEmail("get")
	if err := repo.Insert(ctx, email, true, "2025-01-05"); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	m, err := repo.GetMembership(ctx, email)
	if err != nil {
		t.Fatalf("GetMembership failed: %v", err)
	}
	if !m.IsPremium || m.LastUpdated != "2025-01-05" {
		t.Errorf("unexpected membership: %+v", m)
	}
}
