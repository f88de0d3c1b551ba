package repository

import (
	"context"
	"time"

	"finsplore/backend/internal/user/domain"
)

// Repository defines persistence for users.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// Create inserts the user and assigns its ID.
	Create(ctx context.Context, u *domain.User) error
	// UpdateProfile updates names, mobile, username and avatar.
	UpdateProfile(ctx context.Context, u *domain.User) error
	UpdatePasswordHash(ctx context.Context, id int64, hash string) error
	SetEmailVerified(ctx context.Context, id int64, at time.Time) error
	SetLastLogin(ctx context.Context, id int64, at time.Time) error
	SetBasiqUserID(ctx context.Context, id int64, basiqUserID string) error
	SetMonthlyBudget(ctx context.Context, id int64, amount *float64) error
	SetSavingsGoal(ctx context.Context, id int64, amount *float64) error
}
