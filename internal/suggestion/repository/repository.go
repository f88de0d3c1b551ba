package repository

import (
	"context"
	"errors"

	"finsplore/backend/internal/suggestion/domain"
)

// ErrNotFound is returned when a suggestion does not exist for the user.
var ErrNotFound = errors.New("suggestion not found")

// Repository defines persistence for financial suggestions.
type Repository interface {
	Create(ctx context.Context, s *domain.Suggestion) error
	ListByUser(ctx context.Context, userID int64) ([]domain.Suggestion, error)
	// Delete removes a single suggestion owned by the user.
	Delete(ctx context.Context, userID, id int64) error
	// DeleteByUser clears a user's suggestions before a fresh generation.
	DeleteByUser(ctx context.Context, userID int64) error
}
