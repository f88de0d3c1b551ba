package repository

import (
	"context"
	"errors"
	"time"

	"finsplore/backend/internal/transaction/domain"
)

// ErrNotFound is returned when an update targets a row that does not exist
// or belongs to another user.
var ErrNotFound = errors.New("transaction not found")

// ListFilter narrows List results. Zero values mean "no bound".
type ListFilter struct {
	From       time.Time
	To         time.Time
	CategoryID *int64
	// Search matches description or merchant name, case-insensitive.
	Search string
	Limit  int
}

// Repository defines persistence for transactions and categories.
type Repository interface {
	// Upsert inserts or refreshes a synced transaction. A user's manual
	// categorization survives re-syncs.
	Upsert(ctx context.Context, t *domain.Transaction) error
	GetByID(ctx context.Context, userID int64, id string) (*domain.Transaction, error)
	List(ctx context.Context, userID int64, f ListFilter) ([]domain.Transaction, error)
	SetCategory(ctx context.Context, userID int64, id string, categoryID *int64, byUser bool) error
	SetAISuggestedCategory(ctx context.Context, userID int64, id string, category string) error
	Summarize(ctx context.Context, userID int64, from, to time.Time) (*domain.Summary, error)

	CreateCategory(ctx context.Context, c *domain.Category) error
	ListCategories(ctx context.Context, userID int64) ([]domain.Category, error)
	DeleteCategory(ctx context.Context, userID, id int64) error
}
