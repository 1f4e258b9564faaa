package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/premiumgate/premiumgate/internal/model"
)

// IsPremium returns the stored premium flag, or false if no record exists.
func (r *Repository) IsPremium(ctx context.Context, email string) (bool, error) {
	query := `SELECT is_premium FROM ` + r.table + ` WHERE email = $1`

	var premium bool
	err := r.pool.QueryRow(ctx, query, model.NormalizeEmail(email)).Scan(&premium)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get premium flag: %w", err)
	}

	return premium, nil
}

// Exists reports whether a record exists for the email.
func (r *Repository) Exists(ctx context.Context, email string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM ` + r.table + ` WHERE email = $1)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, model.NormalizeEmail(email)).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}

	return exists, nil
}

// Insert writes the record, overwriting any existing row for the email.
func (r *Repository) Insert(ctx context.Context, email string, premium bool, date string) error {
	query := `
		INSERT INTO ` + r.table + ` (email, is_premium, timestamp)
		VALUES ($1, $2, $3)
		ON CONFLICT (email) DO UPDATE
		SET is_premium = EXCLUDED.is_premium, timestamp = EXCLUDED.timestamp
	`

	if _, err := r.pool.Exec(ctx, query, model.NormalizeEmail(email), premium, date); err != nil {
		return fmt.Errorf("failed to insert membership: %w", err)
	}

	return nil
}

// Update sets the timestamp of an existing record.
// Returns ErrMembershipNotFound when no row matched.
func (r *Repository) Update(ctx context.Context, email string, date string) error {
	query := `UPDATE ` + r.table + ` SET timestamp = $2 WHERE email = $1`

	result, err := r.pool.Exec(ctx, query, model.NormalizeEmail(email), date)
	if err != nil {
		return fmt.Errorf("failed to update membership: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrMembershipNotFound
	}

	return nil
}

// GetMembership returns the full record for an email.
func (r *Repository) GetMembership(ctx context.Context, email string) (*model.Membership, error) {
	query := `SELECT email, is_premium, timestamp FROM ` + r.table + ` WHERE email = $1`

	var m model.Membership
	err := r.pool.QueryRow(ctx, query, model.NormalizeEmail(email)).Scan(&m.Email, &m.IsPremium, &m.LastUpdated)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMembershipNotFound
		}
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}

	return &m, nil
}
