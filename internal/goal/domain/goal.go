package domain

import (
	"errors"
	"time"
)

// GoalType classifies a financial goal.
type GoalType string

const (
	GoalTypeSavings       GoalType = "savings"
	GoalTypeDebtReduction GoalType = "debt_reduction"
	GoalTypeInvestment    GoalType = "investment"
	GoalTypePurchase      GoalType = "purchase"
)

func (g GoalType) Valid() bool {
	switch g {
	case GoalTypeSavings, GoalTypeDebtReduction, GoalTypeInvestment, GoalTypePurchase:
		return true
	}
	return false
}

// Goal is a financial target the user saves toward.
type Goal struct {
	ID            int64
	UserID        int64
	Name          string
	Description   string
	Type          GoalType
	TargetAmount  float64
	CurrentAmount float64
	Currency      string
	TargetDate    *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Progress returns completion in percent, capped at 100.
func (g *Goal) Progress() float64 {
	if g.TargetAmount <= 0 {
		return 0
	}
	p := g.CurrentAmount / g.TargetAmount * 100
	if p > 100 {
		return 100
	}
	return p
}

// Achieved reports whether the target has been reached.
func (g *Goal) Achieved() bool {
	return g.TargetAmount > 0 && g.CurrentAmount >= g.TargetAmount
}

// Validate validates the goal for persistence.
func (g *Goal) Validate() error {
	if g.Name == "" {
		return errors.New("goal name is required")
	}
	if g.TargetAmount <= 0 {
		return errors.New("target amount must be positive")
	}
	if g.CurrentAmount < 0 {
		return errors.New("current amount must not be negative")
	}
	if !g.Type.Valid() {
		return errors.New("unknown goal type")
	}
	return nil
}
