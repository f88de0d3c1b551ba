package domain

import (
	"errors"
	"time"
)

// SuggestionType classifies a generated suggestion.
type SuggestionType string

const (
	TypeBudgeting     SuggestionType = "budgeting"
	TypeSaving        SuggestionType = "saving"
	TypeSpendingAlert SuggestionType = "spending_alert"
	TypeInvestment    SuggestionType = "investment"
)

func (t SuggestionType) Valid() bool {
	switch t {
	case TypeBudgeting, TypeSaving, TypeSpendingAlert, TypeInvestment:
		return true
	}
	return false
}

// Suggestion is one generated piece of financial advice.
type Suggestion struct {
	ID               int64
	UserID           int64
	Title            string
	Description      string
	Type             SuggestionType
	PotentialSavings *float64
	ConfidenceScore  *float64
	CreatedAt        time.Time
}

// Validate validates the suggestion for persistence.
func (s *Suggestion) Validate() error {
	if s.Title == "" {
		return errors.New("suggestion title is required")
	}
	if !s.Type.Valid() {
		return errors.New("unknown suggestion type")
	}
	if s.ConfidenceScore != nil && (*s.ConfidenceScore < 0 || *s.ConfidenceScore > 1) {
		return errors.New("confidence score must be between 0 and 1")
	}
	return nil
}
