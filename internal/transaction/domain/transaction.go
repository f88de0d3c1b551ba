package domain

import (
	"errors"
	"time"
)

// Direction of money movement from the account holder's point of view.
type Direction string

const (
	DirectionCredit Direction = "credit"
	DirectionDebit  Direction = "debit"
)

// Transaction is a bank transaction. The ID is the aggregator's id, so a
// re-sync upserts instead of duplicating.
type Transaction struct {
	ID                  string
	UserID              int64
	AccountID           string
	Description         string
	Amount              float64
	Date                time.Time
	Direction           Direction
	OriginalCategory    string
	AISuggestedCategory string
	CategoryID          *int64
	CategorizedByUser   bool
	MerchantName        string
	CreatedAt           time.Time
}

// Validate validates the transaction for persistence.
func (t *Transaction) Validate() error {
	if t.ID == "" {
		return errors.New("transaction id is required")
	}
	if t.UserID == 0 {
		return errors.New("user id is required")
	}
	if t.Direction != DirectionCredit && t.Direction != DirectionDebit {
		return errors.New("direction must be credit or debit")
	}
	return nil
}

// Category is a user-defined transaction category.
type Category struct {
	ID     int64
	UserID int64
	Name   string
}

// Summary aggregates a user's transactions over a period.
type Summary struct {
	Income   float64
	Expenses float64
	Net      float64
	Count    int64
}
