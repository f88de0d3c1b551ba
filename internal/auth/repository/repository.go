package repository

import (
	"context"
	"time"

	"finsplore/backend/internal/auth/domain"
)

// Repository defines persistence for blacklisted tokens.
type Repository interface {
	// Insert stores the entry. Inserting a token value that already exists is
	// a silent no-op, including under concurrent logouts of the same token.
	Insert(ctx context.Context, e *domain.BlacklistedToken) error
	// Exists reports whether the exact token value is blacklisted. This is the
	// read path of every authenticated request and must stay a point lookup.
	Exists(ctx context.Context, token string) (bool, error)
	// PurgeExpired deletes all entries whose expiry precedes now and returns
	// the number removed.
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
	CountAll(ctx context.Context) (int64, error)
	CountExpired(ctx context.Context, now time.Time) (int64, error)
}
