package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"finsplore/backend/internal/bill/domain"
)

type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository returns a bill repository backed by the given pool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const billColumns = `id, user_id, name, description, amount, currency, frequency,
	next_due_date, company_name, created_at, updated_at`

func scanBill(row pgx.Row) (*domain.Bill, error) {
	var b domain.Bill
	err := row.Scan(
		&b.ID, &b.UserID, &b.Name, &b.Description, &b.Amount, &b.Currency, &b.Frequency,
		&b.NextDueDate, &b.CompanyName, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &b, nil
}

func (r *PostgresRepository) Create(ctx context.Context, b *domain.Bill) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO bills (user_id, name, description, amount, currency, frequency, next_due_date, company_name)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`,
		b.UserID, b.Name, b.Description, b.Amount, b.Currency, b.Frequency, b.NextDueDate, b.CompanyName,
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("billRepo.Create: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, userID, id int64) (*domain.Bill, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+billColumns+` FROM bills WHERE id = $1 AND user_id = $2`, id, userID)
	b, err := scanBill(row)
	if err != nil {
		return nil, fmt.Errorf("billRepo.GetByID: %w", err)
	}
	return b, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Bill, error) {
	return r.list(ctx,
		`SELECT `+billColumns+` FROM bills WHERE user_id = $1 ORDER BY next_due_date NULLS LAST, name`,
		userID)
}

func (r *PostgresRepository) ListDueBefore(ctx context.Context, userID int64, cutoff time.Time) ([]domain.Bill, error) {
	return r.list(ctx,
		`SELECT `+billColumns+` FROM bills
		WHERE user_id = $1 AND next_due_date IS NOT NULL AND next_due_date <= $2
		ORDER BY next_due_date`,
		userID, cutoff)
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]domain.Bill, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("billRepo.list: %w", err)
	}
	defer rows.Close()
	var out []domain.Bill
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, fmt.Errorf("billRepo.list: %w", err)
		}
		out = append(out, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("billRepo.list: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) Update(ctx context.Context, b *domain.Bill) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE bills SET name = $3, description = $4, amount = $5, currency = $6,
			frequency = $7, next_due_date = $8, company_name = $9, updated_at = now()
		WHERE id = $1 AND user_id = $2`,
		b.ID, b.UserID, b.Name, b.Description, b.Amount, b.Currency, b.Frequency, b.NextDueDate, b.CompanyName,
	)
	if err != nil {
		return fmt.Errorf("billRepo.Update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, userID, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM bills WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("billRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
