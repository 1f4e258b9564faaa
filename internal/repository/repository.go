// Package repository provides the durable membership store.
//
// Three backends implement Store: DynamoDB (DynamoStore), PostgreSQL
// (Repository) and an in-process map (MemoryStore). All of them keep update and
// insert distinct: Update never creates a record.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
)

// ErrMembershipNotFound is returned by Update when no record exists for the email.
var ErrMembershipNotFound = errors.New("membership not found")

// Store is the durable email -> premium record.
type Store interface {
	// IsPremium returns false when no record exists.
	IsPremium(ctx context.Context, email string) (bool, error)
	Exists(ctx context.Context, email string) (bool, error)
	// Insert creates or overwrites the record unconditionally.
	Insert(ctx context.Context, email string, premium bool, date string) error
	// Update touches the date of an existing record and returns
	// ErrMembershipNotFound when there is none.
	Update(ctx context.Context, email string, date string) error
	Ping(ctx context.Context) error
	Close()
}

// DefaultTable is the default membership table name.
const DefaultTable = "premium_users"

// Repository is the PostgreSQL-backed Store.
type Repository struct {
	pool  *pgxpool.Pool
	table string
}

var _ Store = (*Repository)(nil)

// New creates a new Repository with a connection pool.
// table is quoted as an identifier; an empty value selects DefaultTable.
func New(ctx context.Context, databaseURL, table string) (*Repository, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	// Connection pool settings
	config.MaxConns = 10
	config.MinConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return NewWithPool(pool, table), nil
}

// NewWithPool wraps an existing pool.
func NewWithPool(pool *pgxpool.Pool, table string) *Repository {
	if table == "" {
		table = DefaultTable
	}
	return &Repository{pool: pool, table: pq.QuoteIdentifier(table)}
}

// Ping checks database connectivity.
func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close closes the database connection pool.
func (r *Repository) Close() {
	r.pool.Close()
}

// Pool returns the underlying connection pool.
// Use sparingly - prefer adding methods to Repository.
func (r *Repository) Pool() *pgxpool.Pool {
	return r.pool
}
