package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"finsplore/backend/internal/auth/domain"
)

// PostgresRepository stores blacklisted tokens in the jwt_blacklist table.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository returns a blacklist repository that uses the given pool for persistence.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Insert stores the entry. The unique index on token makes the insert
// idempotent: a conflicting row is left untouched and no error is returned.
func (r *PostgresRepository) Insert(ctx context.Context, e *domain.BlacklistedToken) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO jwt_blacklist (token, expires_at, blacklisted_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (token) DO NOTHING`,
		e.Token, e.ExpiresAt, e.BlacklistedAt,
	)
	if err != nil {
		return fmt.Errorf("blacklistRepo.Insert: %w", err)
	}
	return nil
}

// Exists reports whether the token value is present, expired or not.
func (r *PostgresRepository) Exists(ctx context.Context, token string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM jwt_blacklist WHERE token = $1)`, token,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("blacklistRepo.Exists: %w", err)
	}
	return exists, nil
}

// PurgeExpired deletes entries whose expiry precedes now and returns the count.
// Row deletes interleave safely with concurrent inserts and lookups; no table lock.
func (r *PostgresRepository) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM jwt_blacklist WHERE expires_at < $1`, now)
	if err != nil {
		return 0, fmt.Errorf("blacklistRepo.PurgeExpired: %w", err)
	}
	return tag.RowsAffected(), nil
}

// CountAll returns the total number of blacklist entries.
func (r *PostgresRepository) CountAll(ctx context.Context) (int64, error) {
	var n int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM jwt_blacklist`).Scan(&n); err != nil {
		return 0, fmt.Errorf("blacklistRepo.CountAll: %w", err)
	}
	return n, nil
}

// CountExpired returns the number of entries already past their expiry.
func (r *PostgresRepository) CountExpired(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM jwt_blacklist WHERE expires_at < $1`, now,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("blacklistRepo.CountExpired: %w", err)
	}
	return n, nil
}
