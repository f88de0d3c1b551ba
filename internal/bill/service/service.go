package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"finsplore/backend/internal/bill/domain"
	"finsplore/backend/internal/bill/repository"
)

var ErrBillNotFound = errors.New("bill not found")

// BillRepo is the minimal bill repository needed by the service.
type BillRepo interface {
	Create(ctx context.Context, b *domain.Bill) error
	GetByID(ctx context.Context, userID, id int64) (*domain.Bill, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Bill, error)
	ListDueBefore(ctx context.Context, userID int64, cutoff time.Time) ([]domain.Bill, error)
	Update(ctx context.Context, b *domain.Bill) error
	Delete(ctx context.Context, userID, id int64) error
}

// Input carries the editable bill fields.
type Input struct {
	Name        string
	Description string
	Amount      float64
	Currency    string
	Frequency   string
	NextDueDate *time.Time
	CompanyName string
}

// BillService manages recurring bills.
type BillService struct {
	repo BillRepo
}

func NewBillService(repo BillRepo) *BillService {
	return &BillService{repo: repo}
}

func (s *BillService) Create(ctx context.Context, userID int64, in Input) (*domain.Bill, error) {
	b := fromInput(userID, in)
	if err := b.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func fromInput(userID int64, in Input) *domain.Bill {
	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = "AUD"
	}
	return &domain.Bill{
		UserID:      userID,
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Amount:      in.Amount,
		Currency:    currency,
		Frequency:   domain.Frequency(strings.ToLower(strings.TrimSpace(in.Frequency))),
		NextDueDate: in.NextDueDate,
		CompanyName: strings.TrimSpace(in.CompanyName),
	}
}

func (s *BillService) Get(ctx context.Context, userID, id int64) (*domain.Bill, error) {
	b, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, ErrBillNotFound
	}
	return b, nil
}

func (s *BillService) List(ctx context.Context, userID int64) ([]domain.Bill, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Upcoming returns bills due within the next days days.
func (s *BillService) Upcoming(ctx context.Context, userID int64, days int) ([]domain.Bill, error) {
	if days <= 0 {
		days = 30
	}
	cutoff := time.Now().UTC().AddDate(0, 0, days)
	return s.repo.ListDueBefore(ctx, userID, cutoff)
}

func (s *BillService) Update(ctx context.Context, userID, id int64, in Input) (*domain.Bill, error) {
	b := fromInput(userID, in)
	b.ID = id
	if err := b.Validate(); err != nil {
		return nil, err
	}
	err := s.repo.Update(ctx, b)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrBillNotFound
	}
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, userID, id)
}

// MarkPaid advances the due date by one period.
func (s *BillService) MarkPaid(ctx context.Context, userID, id int64) (*domain.Bill, error) {
	b, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if b.NextDueDate != nil {
		next := advance(*b.NextDueDate, b.Frequency)
		b.NextDueDate = &next
	}
	if err := s.repo.Update(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func advance(t time.Time, f domain.Frequency) time.Time {
	switch f {
	case domain.FrequencyWeekly:
		return t.AddDate(0, 0, 7)
	case domain.FrequencyFortnightly:
		return t.AddDate(0, 0, 14)
	case domain.FrequencyMonthly:
		return t.AddDate(0, 1, 0)
	case domain.FrequencyQuarterly:
		return t.AddDate(0, 3, 0)
	case domain.FrequencyYearly:
		return t.AddDate(1, 0, 0)
	}
	return t
}

func (s *BillService) Delete(ctx context.Context, userID, id int64) error {
	err := s.repo.Delete(ctx, userID, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrBillNotFound
	}
	return err
}
