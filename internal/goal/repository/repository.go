package repository

import (
	"context"
	"errors"

	"finsplore/backend/internal/goal/domain"
)

// ErrNotFound is returned when an update or delete targets a goal that does
// not exist or belongs to another user.
var ErrNotFound = errors.New("goal not found")

// Repository defines persistence for financial goals.
type Repository interface {
	Create(ctx context.Context, g *domain.Goal) error
	GetByID(ctx context.Context, userID, id int64) (*domain.Goal, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Goal, error)
	Update(ctx context.Context, g *domain.Goal) error
	// AddToCurrent atomically adds delta to current_amount and returns the new value.
	AddToCurrent(ctx context.Context, userID, id int64, delta float64) (float64, error)
	Delete(ctx context.Context, userID, id int64) error
}
