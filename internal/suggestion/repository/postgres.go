package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"finsplore/backend/internal/suggestion/domain"
)

type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository returns a suggestion repository backed by the given pool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) Create(ctx context.Context, s *domain.Suggestion) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO financial_suggestions (user_id, title, description, suggestion_type,
			potential_savings, confidence_score)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`,
		s.UserID, s.Title, s.Description, s.Type, s.PotentialSavings, s.ConfidenceScore,
	).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		return fmt.Errorf("suggestionRepo.Create: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Suggestion, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, title, description, suggestion_type, potential_savings, confidence_score, created_at
		FROM financial_suggestions WHERE user_id = $1 ORDER BY created_at DESC, id`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("suggestionRepo.ListByUser: %w", err)
	}
	defer rows.Close()
	var out []domain.Suggestion
	for rows.Next() {
		var s domain.Suggestion
		if err := rows.Scan(&s.ID, &s.UserID, &s.Title, &s.Description, &s.Type,
			&s.PotentialSavings, &s.ConfidenceScore, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("suggestionRepo.ListByUser: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("suggestionRepo.ListByUser: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, userID, id int64) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM financial_suggestions WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return fmt.Errorf("suggestionRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) DeleteByUser(ctx context.Context, userID int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM financial_suggestions WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("suggestionRepo.DeleteByUser: %w", err)
	}
	return nil
}
