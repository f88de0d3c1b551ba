package domain

import (
	"errors"
	"strings"
	"time"
)

// User is the core account entity.
type User struct {
	ID            int64
	Email         string
	PasswordHash  string
	FirstName     string
	MiddleName    string
	LastName      string
	MobileNumber  string
	Username      string
	BasiqUserID   string
	AvatarURL     string
	MonthlyBudget *float64
	SavingsGoal   *float64
	EmailVerified bool
	EmailVerifiedAt *time.Time
	Active        bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
	LastLoginAt   *time.Time
}

// FullName joins the non-empty name parts with single spaces.
func (u *User) FullName() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{u.FirstName, u.MiddleName, u.LastName} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// Validate validates the user for persistence. Returns an error describing the first validation failure.
func (u *User) Validate() error {
	if u.Email == "" {
		return errors.New("email is required")
	}
	if u.PasswordHash == "" {
		return errors.New("password hash is required")
	}
	return nil
}
