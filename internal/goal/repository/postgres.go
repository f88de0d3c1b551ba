package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"finsplore/backend/internal/goal/domain"
)

type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository returns a goal repository backed by the given pool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const goalColumns = `id, user_id, name, description, goal_type, target_amount, current_amount,
	currency, target_date, created_at, updated_at`

func scanGoal(row pgx.Row) (*domain.Goal, error) {
	var g domain.Goal
	err := row.Scan(
		&g.ID, &g.UserID, &g.Name, &g.Description, &g.Type, &g.TargetAmount, &g.CurrentAmount,
		&g.Currency, &g.TargetDate, &g.CreatedAt, &g.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &g, nil
}

func (r *PostgresRepository) Create(ctx context.Context, g *domain.Goal) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO financial_goals (user_id, name, description, goal_type, target_amount,
			current_amount, currency, target_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`,
		g.UserID, g.Name, g.Description, g.Type, g.TargetAmount, g.CurrentAmount, g.Currency, g.TargetDate,
	).Scan(&g.ID, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return fmt.Errorf("goalRepo.Create: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, userID, id int64) (*domain.Goal, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+goalColumns+` FROM financial_goals WHERE id = $1 AND user_id = $2`, id, userID)
	g, err := scanGoal(row)
	if err != nil {
		return nil, fmt.Errorf("goalRepo.GetByID: %w", err)
	}
	return g, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Goal, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+goalColumns+` FROM financial_goals WHERE user_id = $1 ORDER BY target_date NULLS LAST, name`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("goalRepo.ListByUser: %w", err)
	}
	defer rows.Close()
	var out []domain.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("goalRepo.ListByUser: %w", err)
		}
		out = append(out, *g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("goalRepo.ListByUser: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) Update(ctx context.Context, g *domain.Goal) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE financial_goals SET name = $3, description = $4, goal_type = $5,
			target_amount = $6, current_amount = $7, currency = $8, target_date = $9, updated_at = now()
		WHERE id = $1 AND user_id = $2`,
		g.ID, g.UserID, g.Name, g.Description, g.Type, g.TargetAmount, g.CurrentAmount, g.Currency, g.TargetDate,
	)
	if err != nil {
		return fmt.Errorf("goalRepo.Update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AddToCurrent atomically adds delta and returns the new amount; the floor is
// zero so over-withdrawing clamps instead of going negative.
func (r *PostgresRepository) AddToCurrent(ctx context.Context, userID, id int64, delta float64) (float64, error) {
	var current float64
	err := r.pool.QueryRow(ctx, `
		UPDATE financial_goals
		SET current_amount = GREATEST(current_amount + $3, 0), updated_at = now()
		WHERE id = $1 AND user_id = $2
		RETURNING current_amount`,
		id, userID, delta,
	).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("goalRepo.AddToCurrent: %w", err)
	}
	return current, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, userID, id int64) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM financial_goals WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("goalRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
