package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"finsplore/backend/internal/ai"
	"finsplore/backend/internal/suggestion/domain"
	"finsplore/backend/internal/suggestion/repository"
	txdomain "finsplore/backend/internal/transaction/domain"
	txrepository "finsplore/backend/internal/transaction/repository"
)

var (
	ErrAdvisorUnavailable = errors.New("advisor is not configured")
	ErrSuggestionNotFound = errors.New("suggestion not found")
)

// SuggestionRepo is the minimal suggestion repository needed by the service.
type SuggestionRepo interface {
	Create(ctx context.Context, s *domain.Suggestion) error
	ListByUser(ctx context.Context, userID int64) ([]domain.Suggestion, error)
	Delete(ctx context.Context, userID, id int64) error
	DeleteByUser(ctx context.Context, userID int64) error
}

// SpendingSource provides the numbers the advisor reasons about.
type SpendingSource interface {
	Summary(ctx context.Context, userID int64, from, to time.Time) (*txdomain.Summary, error)
	List(ctx context.Context, userID int64, f txrepository.ListFilter) ([]txdomain.Transaction, error)
}

// Advisor generates suggestions and chat replies.
type Advisor interface {
	GenerateSuggestions(ctx context.Context, spendingSummary string) ([]ai.SuggestionDraft, error)
	Chat(ctx context.Context, financialContext, question string) (string, error)
}

// SuggestionService generates and serves financial suggestions.
type SuggestionService struct {
	repo     SuggestionRepo
	spending SpendingSource
	advisor  Advisor
}

// NewSuggestionService returns a SuggestionService. advisor may be nil; then
// generation and chat report ErrAdvisorUnavailable.
func NewSuggestionService(repo SuggestionRepo, spending SpendingSource, advisor Advisor) *SuggestionService {
	return &SuggestionService{repo: repo, spending: spending, advisor: advisor}
}

// List returns the user's stored suggestions, newest first.
func (s *SuggestionService) List(ctx context.Context, userID int64) ([]domain.Suggestion, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Delete removes a single suggestion the user has dismissed.
func (s *SuggestionService) Delete(ctx context.Context, userID, id int64) error {
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrSuggestionNotFound
		}
		return err
	}
	return nil
}

// Generate replaces the user's suggestions with a fresh set derived from the
// last 90 days of spending. Drafts the model returns malformed are dropped.
func (s *SuggestionService) Generate(ctx context.Context, userID int64) ([]domain.Suggestion, error) {
	if s.advisor == nil {
		return nil, ErrAdvisorUnavailable
	}
	summary, err := s.spendingSummary(ctx, userID)
	if err != nil {
		return nil, err
	}
	drafts, err := s.advisor.GenerateSuggestions(ctx, summary)
	if err != nil {
		return nil, fmt.Errorf("generate suggestions: %w", err)
	}
	if err := s.repo.DeleteByUser(ctx, userID); err != nil {
		return nil, err
	}
	var out []domain.Suggestion
	for _, d := range drafts {
		sg := &domain.Suggestion{
			UserID:           userID,
			Title:            strings.TrimSpace(d.Title),
			Description:      strings.TrimSpace(d.Description),
			Type:             domain.SuggestionType(strings.ToLower(strings.TrimSpace(d.Type))),
			PotentialSavings: d.PotentialSavings,
			ConfidenceScore:  d.ConfidenceScore,
		}
		if err := sg.Validate(); err != nil {
			log.Printf("suggestion: drop draft %q: %v", d.Title, err)
			continue
		}
		if err := s.repo.Create(ctx, sg); err != nil {
			return nil, err
		}
		out = append(out, *sg)
	}
	return out, nil
}

// Chat answers a free-form question against the user's recent spending.
func (s *SuggestionService) Chat(ctx context.Context, userID int64, question string) (string, error) {
	if s.advisor == nil {
		return "", ErrAdvisorUnavailable
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return "", errors.New("message is required")
	}
	summary, err := s.spendingSummary(ctx, userID)
	if err != nil {
		return "", err
	}
	reply, err := s.advisor.Chat(ctx, summary, question)
	if err != nil {
		return "", fmt.Errorf("advisor chat: %w", err)
	}
	return reply, nil
}

// spendingSummary renders the last 90 days as plain text for the model.
func (s *SuggestionService) spendingSummary(ctx context.Context, userID int64) (string, error) {
	to := time.Now().UTC()
	from := to.AddDate(0, 0, -90)
	sum, err := s.spending.Summary(ctx, userID, from, to)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Period: %s to %s\n", from.Format("2006-01-02"), to.Format("2006-01-02"))
	fmt.Fprintf(&b, "Income: %.2f\nExpenses: %.2f\nNet: %.2f\nTransactions: %d\n",
		sum.Income, sum.Expenses, sum.Net, sum.Count)

	txs, err := s.spending.List(ctx, userID, txrepository.ListFilter{From: from, To: to, Limit: 50})
	if err != nil {
		return "", err
	}
	if len(txs) > 0 {
		b.WriteString("Recent transactions:\n")
		for i := range txs {
			t := &txs[i]
			fmt.Fprintf(&b, "- %s %s %.2f (%s)\n",
				t.Date.Format("2006-01-02"), t.Description, t.Amount, t.Direction)
		}
	}
	return b.String(), nil
}
