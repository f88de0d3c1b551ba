package domain

import (
	"errors"
	"time"
)

// Frequency of a recurring bill.
type Frequency string

const (
	FrequencyWeekly      Frequency = "weekly"
	FrequencyFortnightly Frequency = "fortnightly"
	FrequencyMonthly     Frequency = "monthly"
	FrequencyQuarterly   Frequency = "quarterly"
	FrequencyYearly      Frequency = "yearly"
)

func (f Frequency) Valid() bool {
	switch f {
	case FrequencyWeekly, FrequencyFortnightly, FrequencyMonthly, FrequencyQuarterly, FrequencyYearly:
		return true
	}
	return false
}

// Bill is a recurring payment the user tracks.
type Bill struct {
	ID          int64
	UserID      int64
	Name        string
	Description string
	Amount      float64
	Currency    string
	Frequency   Frequency
	NextDueDate *time.Time
	CompanyName string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Validate validates the bill for persistence.
func (b *Bill) Validate() error {
	if b.Name == "" {
		return errors.New("bill name is required")
	}
	if b.Amount <= 0 {
		return errors.New("bill amount must be positive")
	}
	if !b.Frequency.Valid() {
		return errors.New("unknown bill frequency")
	}
	return nil
}
