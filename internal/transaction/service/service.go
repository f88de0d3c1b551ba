package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"finsplore/backend/internal/basiq"
	"finsplore/backend/internal/transaction/domain"
	"finsplore/backend/internal/transaction/repository"
	userdomain "finsplore/backend/internal/user/domain"
)

var (
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrBankNotLinked       = errors.New("no bank connection for user")
	ErrCategoryNotFound    = errors.New("category not found")
)

// TxRepo is the minimal transaction repository needed by the service.
type TxRepo interface {
	Upsert(ctx context.Context, t *domain.Transaction) error
	GetByID(ctx context.Context, userID int64, id string) (*domain.Transaction, error)
	List(ctx context.Context, userID int64, f repository.ListFilter) ([]domain.Transaction, error)
	SetCategory(ctx context.Context, userID int64, id string, categoryID *int64, byUser bool) error
	SetAISuggestedCategory(ctx context.Context, userID int64, id string, category string) error
	Summarize(ctx context.Context, userID int64, from, to time.Time) (*domain.Summary, error)
	CreateCategory(ctx context.Context, c *domain.Category) error
	ListCategories(ctx context.Context, userID int64) ([]domain.Category, error)
	DeleteCategory(ctx context.Context, userID, id int64) error
}

// UserRepo resolves the aggregation account for a user.
type UserRepo interface {
	GetByID(ctx context.Context, id int64) (*userdomain.User, error)
}

// BankFeed pulls raw transactions from the aggregator.
type BankFeed interface {
	Transactions(ctx context.Context, bankUserID string) ([]basiq.Transaction, error)
}

// Classifier proposes a category name for a transaction.
type Classifier interface {
	ClassifyTransaction(ctx context.Context, description, merchant string, categories []string) (string, error)
}

// TransactionService syncs, lists and categorizes bank transactions.
type TransactionService struct {
	repo       TxRepo
	users      UserRepo
	bank       BankFeed
	classifier Classifier
}

// NewTransactionService returns a TransactionService. bank and classifier may
// be nil; sync and AI categorization then report the feature as unavailable.
func NewTransactionService(repo TxRepo, users UserRepo, bank BankFeed, classifier Classifier) *TransactionService {
	return &TransactionService{repo: repo, users: users, bank: bank, classifier: classifier}
}

// Sync pulls the user's transactions from the aggregator and upserts them.
// Returns the number of records stored. Rows the aggregator reports with an
// unparsable shape are skipped, not fatal.
func (s *TransactionService) Sync(ctx context.Context, userID int64) (int, error) {
	if s.bank == nil {
		return 0, ErrBankNotLinked
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return 0, err
	}
	if user == nil || user.BasiqUserID == "" {
		return 0, ErrBankNotLinked
	}
	raw, err := s.bank.Transactions(ctx, user.BasiqUserID)
	if err != nil {
		return 0, fmt.Errorf("transaction sync: %w", err)
	}
	stored := 0
	for i := range raw {
		t, err := fromBank(userID, &raw[i])
		if err != nil {
			log.Printf("transaction: skip %s: %v", raw[i].ID, err)
			continue
		}
		if err := s.repo.Upsert(ctx, t); err != nil {
			return stored, err
		}
		stored++
	}
	return stored, nil
}

// fromBank maps an aggregator transaction onto the domain entity.
func fromBank(userID int64, raw *basiq.Transaction) (*domain.Transaction, error) {
	amount, err := strconv.ParseFloat(raw.Amount, 64)
	if err != nil {
		return nil, fmt.Errorf("parse amount %q: %w", raw.Amount, err)
	}
	date, err := time.Parse(time.RFC3339, raw.PostDate)
	if err != nil {
		date, err = time.Parse("2006-01-02", raw.PostDate)
		if err != nil {
			return nil, fmt.Errorf("parse post date %q: %w", raw.PostDate, err)
		}
	}
	dir := domain.DirectionDebit
	if strings.EqualFold(raw.Direction, "credit") || (raw.Direction == "" && amount > 0) {
		dir = domain.DirectionCredit
	}
	t := &domain.Transaction{
		ID:               raw.ID,
		UserID:           userID,
		AccountID:        raw.Account,
		Description:      raw.Description,
		Amount:           amount,
		Date:             date,
		Direction:        dir,
		OriginalCategory: raw.SubClass.Title,
		MerchantName:     raw.Enrich.Merchant.BusinessName,
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *TransactionService) Get(ctx context.Context, userID int64, id string) (*domain.Transaction, error) {
	t, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrTransactionNotFound
	}
	return t, nil
}

func (s *TransactionService) List(ctx context.Context, userID int64, f repository.ListFilter) ([]domain.Transaction, error) {
	return s.repo.List(ctx, userID, f)
}

// Categorize assigns a category picked by the user. categoryID nil clears the
// assignment. The category must belong to the same user.
func (s *TransactionService) Categorize(ctx context.Context, userID int64, id string, categoryID *int64) error {
	if categoryID != nil {
		categories, err := s.repo.ListCategories(ctx, userID)
		if err != nil {
			return err
		}
		found := false
		for _, c := range categories {
			if c.ID == *categoryID {
				found = true
				break
			}
		}
		if !found {
			return ErrCategoryNotFound
		}
	}
	err := s.repo.SetCategory(ctx, userID, id, categoryID, categoryID != nil)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrTransactionNotFound
	}
	return err
}

// SuggestCategory asks the classifier for a category name from the user's own
// set and records it as the AI suggestion without touching the assignment.
func (s *TransactionService) SuggestCategory(ctx context.Context, userID int64, id string) (string, error) {
	if s.classifier == nil {
		return "", errors.New("categorization assistant is not configured")
	}
	t, err := s.Get(ctx, userID, id)
	if err != nil {
		return "", err
	}
	categories, err := s.repo.ListCategories(ctx, userID)
	if err != nil {
		return "", err
	}
	names := make([]string, 0, len(categories))
	for _, c := range categories {
		names = append(names, c.Name)
	}
	suggestion, err := s.classifier.ClassifyTransaction(ctx, t.Description, t.MerchantName, names)
	if err != nil {
		return "", fmt.Errorf("classify transaction: %w", err)
	}
	suggestion = strings.TrimSpace(suggestion)
	if err := s.repo.SetAISuggestedCategory(ctx, userID, id, suggestion); err != nil {
		return "", err
	}
	return suggestion, nil
}

// Summary aggregates the user's transactions between from and to inclusive.
func (s *TransactionService) Summary(ctx context.Context, userID int64, from, to time.Time) (*domain.Summary, error) {
	return s.repo.Summarize(ctx, userID, from, to)
}

func (s *TransactionService) CreateCategory(ctx context.Context, userID int64, name string) (*domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("category name is required")
	}
	c := &domain.Category{UserID: userID, Name: name}
	if err := s.repo.CreateCategory(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *TransactionService) ListCategories(ctx context.Context, userID int64) ([]domain.Category, error) {
	return s.repo.ListCategories(ctx, userID)
}

func (s *TransactionService) DeleteCategory(ctx context.Context, userID, id int64) error {
	return s.repo.DeleteCategory(ctx, userID, id)
}
