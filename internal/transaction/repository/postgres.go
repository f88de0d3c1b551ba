package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"finsplore/backend/internal/transaction/domain"
)

type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository returns a transaction repository backed by the given pool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const txColumns = `id, user_id, account_id, description, amount, transaction_date, direction,
	original_category, ai_suggested_category, category_id, categorized_by_user, merchant_name, created_at`

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var t domain.Transaction
	err := row.Scan(
		&t.ID, &t.UserID, &t.AccountID, &t.Description, &t.Amount, &t.Date, &t.Direction,
		&t.OriginalCategory, &t.AISuggestedCategory, &t.CategoryID, &t.CategorizedByUser, &t.MerchantName, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

// Upsert inserts or refreshes a synced transaction. category_id and
// categorized_by_user are deliberately left out of the update so a manual
// categorization survives re-syncs.
func (r *PostgresRepository) Upsert(ctx context.Context, t *domain.Transaction) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO transactions (id, user_id, account_id, description, amount, transaction_date,
			direction, original_category, merchant_name)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			account_id = EXCLUDED.account_id,
			description = EXCLUDED.description,
			amount = EXCLUDED.amount,
			transaction_date = EXCLUDED.transaction_date,
			direction = EXCLUDED.direction,
			original_category = EXCLUDED.original_category,
			merchant_name = EXCLUDED.merchant_name`,
		t.ID, t.UserID, t.AccountID, t.Description, t.Amount, t.Date,
		t.Direction, t.OriginalCategory, t.MerchantName,
	)
	if err != nil {
		return fmt.Errorf("txRepo.Upsert: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, userID int64, id string) (*domain.Transaction, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+txColumns+` FROM transactions WHERE id = $1 AND user_id = $2`, id, userID)
	t, err := scanTransaction(row)
	if err != nil {
		return nil, fmt.Errorf("txRepo.GetByID: %w", err)
	}
	return t, nil
}

func (r *PostgresRepository) List(ctx context.Context, userID int64, f ListFilter) ([]domain.Transaction, error) {
	query := `SELECT ` + txColumns + ` FROM transactions WHERE user_id = $1`
	args := []any{userID}
	if !f.From.IsZero() {
		args = append(args, f.From)
		query += fmt.Sprintf(" AND transaction_date >= $%d", len(args))
	}
	if !f.To.IsZero() {
		args = append(args, f.To)
		query += fmt.Sprintf(" AND transaction_date <= $%d", len(args))
	}
	if f.CategoryID != nil {
		args = append(args, *f.CategoryID)
		query += fmt.Sprintf(" AND category_id = $%d", len(args))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		query += fmt.Sprintf(" AND (description ILIKE $%d OR merchant_name ILIKE $%d)", len(args), len(args))
	}
	query += " ORDER BY transaction_date DESC, id"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("txRepo.List: %w", err)
	}
	defer rows.Close()
	var out []domain.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("txRepo.List: %w", err)
		}
		out = append(out, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("txRepo.List: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) SetCategory(ctx context.Context, userID int64, id string, categoryID *int64, byUser bool) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE transactions SET category_id = $3, categorized_by_user = $4
		WHERE id = $1 AND user_id = $2`,
		id, userID, categoryID, byUser,
	)
	if err != nil {
		return fmt.Errorf("txRepo.SetCategory: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) SetAISuggestedCategory(ctx context.Context, userID int64, id string, category string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE transactions SET ai_suggested_category = $3
		WHERE id = $1 AND user_id = $2`,
		id, userID, category,
	)
	if err != nil {
		return fmt.Errorf("txRepo.SetAISuggestedCategory: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Summarize(ctx context.Context, userID int64, from, to time.Time) (*domain.Summary, error) {
	var s domain.Summary
	err := r.pool.QueryRow(ctx, `
		SELECT
			COALESCE(SUM(amount) FILTER (WHERE direction = 'credit'), 0),
			COALESCE(SUM(ABS(amount)) FILTER (WHERE direction = 'debit'), 0),
			COUNT(*)
		FROM transactions
		WHERE user_id = $1 AND transaction_date >= $2 AND transaction_date <= $3`,
		userID, from, to,
	).Scan(&s.Income, &s.Expenses, &s.Count)
	if err != nil {
		return nil, fmt.Errorf("txRepo.Summarize: %w", err)
	}
	s.Net = s.Income - s.Expenses
	return &s, nil
}

func (r *PostgresRepository) CreateCategory(ctx context.Context, c *domain.Category) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO transaction_categories (user_id, name)
		VALUES ($1, $2)
		ON CONFLICT (user_id, name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id`,
		c.UserID, c.Name,
	).Scan(&c.ID)
	if err != nil {
		return fmt.Errorf("txRepo.CreateCategory: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListCategories(ctx context.Context, userID int64) ([]domain.Category, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, name FROM transaction_categories WHERE user_id = $1 ORDER BY name`, userID)
	if err != nil {
		return nil, fmt.Errorf("txRepo.ListCategories: %w", err)
	}
	defer rows.Close()
	var out []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name); err != nil {
			return nil, fmt.Errorf("txRepo.ListCategories: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("txRepo.ListCategories: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) DeleteCategory(ctx context.Context, userID, id int64) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM transaction_categories WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("txRepo.DeleteCategory: %w", err)
	}
	return nil
}
