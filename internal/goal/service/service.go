package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"finsplore/backend/internal/goal/domain"
	"finsplore/backend/internal/goal/repository"
)

var ErrGoalNotFound = errors.New("goal not found")

// GoalRepo is the minimal goal repository needed by the service.
type GoalRepo interface {
	Create(ctx context.Context, g *domain.Goal) error
	GetByID(ctx context.Context, userID, id int64) (*domain.Goal, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Goal, error)
	Update(ctx context.Context, g *domain.Goal) error
	AddToCurrent(ctx context.Context, userID, id int64, delta float64) (float64, error)
	Delete(ctx context.Context, userID, id int64) error
}

// Input carries the editable goal fields.
type Input struct {
	Name          string
	Description   string
	Type          string
	TargetAmount  float64
	CurrentAmount float64
	Currency      string
	TargetDate    *time.Time
}

// GoalService manages financial goals.
type GoalService struct {
	repo GoalRepo
}

func NewGoalService(repo GoalRepo) *GoalService {
	return &GoalService{repo: repo}
}

func fromInput(userID int64, in Input) *domain.Goal {
	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = "AUD"
	}
	goalType := strings.ToLower(strings.TrimSpace(in.Type))
	if goalType == "" {
		goalType = string(domain.GoalTypeSavings)
	}
	return &domain.Goal{
		UserID:        userID,
		Name:          strings.TrimSpace(in.Name),
		Description:   strings.TrimSpace(in.Description),
		Type:          domain.GoalType(goalType),
		TargetAmount:  in.TargetAmount,
		CurrentAmount: in.CurrentAmount,
		Currency:      currency,
		TargetDate:    in.TargetDate,
	}
}

func (s *GoalService) Create(ctx context.Context, userID int64, in Input) (*domain.Goal, error) {
	g := fromInput(userID, in)
	if err := g.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

func (s *GoalService) Get(ctx context.Context, userID, id int64) (*domain.Goal, error) {
	g, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, ErrGoalNotFound
	}
	return g, nil
}

func (s *GoalService) List(ctx context.Context, userID int64) ([]domain.Goal, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *GoalService) Update(ctx context.Context, userID, id int64, in Input) (*domain.Goal, error) {
	g := fromInput(userID, in)
	g.ID = id
	if err := g.Validate(); err != nil {
		return nil, err
	}
	err := s.repo.Update(ctx, g)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrGoalNotFound
	}
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, userID, id)
}

// Contribute moves money into (or, with a negative amount, out of) the goal
// and returns the refreshed goal.
func (s *GoalService) Contribute(ctx context.Context, userID, id int64, amount float64) (*domain.Goal, error) {
	if amount == 0 {
		return nil, errors.New("contribution amount must not be zero")
	}
	_, err := s.repo.AddToCurrent(ctx, userID, id, amount)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrGoalNotFound
	}
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, userID, id)
}

func (s *GoalService) Delete(ctx context.Context, userID, id int64) error {
	err := s.repo.Delete(ctx, userID, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrGoalNotFound
	}
	return err
}
