package repository

import (
	"context"
	"errors"
	"time"

	"finsplore/backend/internal/bill/domain"
)

// ErrNotFound is returned when an update or delete targets a bill that does
// not exist or belongs to another user.
var ErrNotFound = errors.New("bill not found")

// Repository defines persistence for bills.
type Repository interface {
	Create(ctx context.Context, b *domain.Bill) error
	GetByID(ctx context.Context, userID, id int64) (*domain.Bill, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Bill, error)
	// ListDueBefore returns the user's bills due on or before the cutoff.
	ListDueBefore(ctx context.Context, userID int64, cutoff time.Time) ([]domain.Bill, error)
	Update(ctx context.Context, b *domain.Bill) error
	Delete(ctx context.Context, userID, id int64) error
}
