package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"finsplore/backend/internal/user/domain"
)

type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository returns a user repository backed by the given pool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const userColumns = `id, email, password_hash, first_name, middle_name, last_name,
	mobile_number, username, basiq_user_id, avatar_url, monthly_budget, savings_goal,
	email_verified, email_verified_at, active, created_at, updated_at, last_login_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.MiddleName, &u.LastName,
		&u.MobileNumber, &u.Username, &u.BasiqUserID, &u.AvatarURL, &u.MonthlyBudget, &u.SavingsGoal,
		&u.EmailVerified, &u.EmailVerifiedAt, &u.Active, &u.CreatedAt, &u.UpdatedAt, &u.LastLoginAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// GetByID returns the user for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("userRepo.GetByID: %w", err)
	}
	return u, nil
}

// GetByEmail returns the user with the given email, or nil if not found.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	u, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("userRepo.GetByEmail: %w", err)
	}
	return u, nil
}

// Create inserts the user and fills in the assigned ID and timestamps.
func (r *PostgresRepository) Create(ctx context.Context, u *domain.User) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO users (email, password_hash, first_name, middle_name, last_name,
			mobile_number, username, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`,
		u.Email, u.PasswordHash, u.FirstName, u.MiddleName, u.LastName,
		u.MobileNumber, u.Username, u.Active,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("userRepo.Create: %w", err)
	}
	return nil
}

// UpdateProfile updates names, mobile number, username and avatar URL.
func (r *PostgresRepository) UpdateProfile(ctx context.Context, u *domain.User) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE users SET first_name = $2, middle_name = $3, last_name = $4,
			mobile_number = $5, username = $6, avatar_url = $7, updated_at = now()
		WHERE id = $1`,
		u.ID, u.FirstName, u.MiddleName, u.LastName, u.MobileNumber, u.Username, u.AvatarURL,
	)
	if err != nil {
		return fmt.Errorf("userRepo.UpdateProfile: %w", err)
	}
	return nil
}

func (r *PostgresRepository) UpdatePasswordHash(ctx context.Context, id int64, hash string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1`, id, hash)
	if err != nil {
		return fmt.Errorf("userRepo.UpdatePasswordHash: %w", err)
	}
	return nil
}

func (r *PostgresRepository) SetEmailVerified(ctx context.Context, id int64, at time.Time) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE users SET email_verified = TRUE, email_verified_at = $2, updated_at = now()
		WHERE id = $1 AND NOT email_verified`, id, at)
	if err != nil {
		return fmt.Errorf("userRepo.SetEmailVerified: %w", err)
	}
	return nil
}

func (r *PostgresRepository) SetLastLogin(ctx context.Context, id int64, at time.Time) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE users SET last_login_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("userRepo.SetLastLogin: %w", err)
	}
	return nil
}

func (r *PostgresRepository) SetBasiqUserID(ctx context.Context, id int64, basiqUserID string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE users SET basiq_user_id = $2, updated_at = now() WHERE id = $1`, id, basiqUserID)
	if err != nil {
		return fmt.Errorf("userRepo.SetBasiqUserID: %w", err)
	}
	return nil
}

func (r *PostgresRepository) SetMonthlyBudget(ctx context.Context, id int64, amount *float64) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE users SET monthly_budget = $2, updated_at = now() WHERE id = $1`, id, amount)
	if err != nil {
		return fmt.Errorf("userRepo.SetMonthlyBudget: %w", err)
	}
	return nil
}

func (r *PostgresRepository) SetSavingsGoal(ctx context.Context, id int64, amount *float64) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE users SET savings_goal = $2, updated_at = now() WHERE id = $1`, id, amount)
	if err != nil {
		return fmt.Errorf("userRepo.SetSavingsGoal: %w", err)
	}
	return nil
}
