package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"finsplore/backend/internal/basiq"
	"finsplore/backend/internal/transaction/domain"
	"finsplore/backend/internal/transaction/repository"
	userdomain "finsplore/backend/internal/user/domain"
)

type memTxRepo struct {
	mu         sync.Mutex
	txs        map[string]*domain.Transaction
	categories map[int64]*domain.Category
	nextCatID  int64
}

func newMemTxRepo() *memTxRepo {
	return &memTxRepo{
		txs:        map[string]*domain.Transaction{},
		categories: map[int64]*domain.Category{},
		nextCatID:  1,
	}
}

func (m *memTxRepo) Upsert(ctx context.Context, t *domain.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.txs[t.ID]; ok {
		categoryID, byUser := cur.CategoryID, cur.CategorizedByUser
		cp := *t
		cp.CategoryID, cp.CategorizedByUser = categoryID, byUser
		m.txs[t.ID] = &cp
		return nil
	}
	cp := *t
	m.txs[t.ID] = &cp
	return nil
}

func (m *memTxRepo) GetByID(ctx context.Context, userID int64, id string) (*domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.txs[id]; ok && t.UserID == userID {
		cp := *t
		return &cp, nil
	}
	return nil, nil
}

func (m *memTxRepo) List(ctx context.Context, userID int64, f repository.ListFilter) ([]domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Transaction
	for _, t := range m.txs {
		if t.UserID != userID {
			continue
		}
		if !f.From.IsZero() && t.Date.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && t.Date.After(f.To) {
			continue
		}
		out = append(out, *t)
	}
	return out, nil
}

func (m *memTxRepo) SetCategory(ctx context.Context, userID int64, id string, categoryID *int64, byUser bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.txs[id]
	if !ok || t.UserID != userID {
		return repository.ErrNotFound
	}
	t.CategoryID = categoryID
	t.CategorizedByUser = byUser
	return nil
}

func (m *memTxRepo) SetAISuggestedCategory(ctx context.Context, userID int64, id string, category string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.txs[id]; ok && t.UserID == userID {
		t.AISuggestedCategory = category
	}
	return nil
}

func (m *memTxRepo) Summarize(ctx context.Context, userID int64, from, to time.Time) (*domain.Summary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var s domain.Summary
	for _, t := range m.txs {
		if t.UserID != userID || t.Date.Before(from) || t.Date.After(to) {
			continue
		}
		s.Count++
		if t.Direction == domain.DirectionCredit {
			s.Income += t.Amount
		} else {
			if t.Amount < 0 {
				s.Expenses -= t.Amount
			} else {
				s.Expenses += t.Amount
			}
		}
	}
	s.Net = s.Income - s.Expenses
	return &s, nil
}

func (m *memTxRepo) CreateCategory(ctx context.Context, c *domain.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, cur := range m.categories {
		if cur.UserID == c.UserID && cur.Name == c.Name {
			c.ID = cur.ID
			return nil
		}
	}
	c.ID = m.nextCatID
	m.nextCatID++
	cp := *c
	m.categories[c.ID] = &cp
	return nil
}

func (m *memTxRepo) ListCategories(ctx context.Context, userID int64) ([]domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Category
	for _, c := range m.categories {
		if c.UserID == userID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *memTxRepo) DeleteCategory(ctx context.Context, userID, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.categories[id]; ok && c.UserID == userID {
		delete(m.categories, id)
	}
	return nil
}

type fixedUserRepo struct {
	user *userdomain.User
}

func (f *fixedUserRepo) GetByID(ctx context.Context, id int64) (*userdomain.User, error) {
	if f.user != nil && f.user.ID == id {
		cp := *f.user
		return &cp, nil
	}
	return nil, nil
}

type fakeFeed struct {
	txs []basiq.Transaction
	err error
}

func (f *fakeFeed) Transactions(ctx context.Context, bankUserID string) ([]basiq.Transaction, error) {
	return f.txs, f.err
}

type fakeClassifier struct {
	gotCategories []string
	answer        string
}

func (f *fakeClassifier) ClassifyTransaction(ctx context.Context, description, merchant string, categories []string) (string, error) {
	f.gotCategories = categories
	return f.answer, nil
}

func bankTx(id, amount, date, direction string) basiq.Transaction {
	t := basiq.Transaction{ID: id, Amount: amount, PostDate: date, Direction: direction}
	t.Description = "desc-" + id
	return t
}

func linkedUser() *fixedUserRepo {
	return &fixedUserRepo{user: &userdomain.User{ID: 1, Email: "a@x.com", BasiqUserID: "bq-1"}}
}

func TestSyncStoresTransactions(t *testing.T) {
	repo := newMemTxRepo()
	feed := &fakeFeed{txs: []basiq.Transaction{
		bankTx("t1", "-4.50", "2025-06-01T00:00:00Z", "debit"),
		bankTx("t2", "5000.00", "2025-06-02T00:00:00Z", "credit"),
		bankTx("t3", "garbage", "2025-06-03T00:00:00Z", "debit"), // skipped
	}}
	s := NewTransactionService(repo, linkedUser(), feed, nil)

	n, err := s.Sync(context.Background(), 1)
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if n != 2 {
		t.Errorf("stored = %d, want 2", n)
	}
	got, err := s.Get(context.Background(), 1, "t2")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Direction != domain.DirectionCredit || got.Amount != 5000.00 {
		t.Errorf("t2 = %+v", got)
	}
}

func TestSyncPreservesManualCategory(t *testing.T) {
	repo := newMemTxRepo()
	feed := &fakeFeed{txs: []basiq.Transaction{bankTx("t1", "-4.50", "2025-06-01T00:00:00Z", "debit")}}
	s := NewTransactionService(repo, linkedUser(), feed, nil)

	if _, err := s.Sync(context.Background(), 1); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	cat, err := s.CreateCategory(context.Background(), 1, "Coffee")
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	if err := s.Categorize(context.Background(), 1, "t1", &cat.ID); err != nil {
		t.Fatalf("Categorize: %v", err)
	}

	if _, err := s.Sync(context.Background(), 1); err != nil {
		t.Fatalf("re-Sync: %v", err)
	}
	got, _ := s.Get(context.Background(), 1, "t1")
	if got.CategoryID == nil || *got.CategoryID != cat.ID || !got.CategorizedByUser {
		t.Errorf("manual category lost on re-sync: %+v", got)
	}
}

func TestSyncWithoutBankLink(t *testing.T) {
	s := NewTransactionService(newMemTxRepo(), &fixedUserRepo{user: &userdomain.User{ID: 1}}, &fakeFeed{}, nil)
	if _, err := s.Sync(context.Background(), 1); !errors.Is(err, ErrBankNotLinked) {
		t.Errorf("err = %v, want ErrBankNotLinked", err)
	}
}

func TestCategorizeValidation(t *testing.T) {
	repo := newMemTxRepo()
	feed := &fakeFeed{txs: []basiq.Transaction{bankTx("t1", "-4.50", "2025-06-01T00:00:00Z", "debit")}}
	s := NewTransactionService(repo, linkedUser(), feed, nil)
	if _, err := s.Sync(context.Background(), 1); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	missing := int64(99)
	if err := s.Categorize(context.Background(), 1, "t1", &missing); !errors.Is(err, ErrCategoryNotFound) {
		t.Errorf("unknown category err = %v, want ErrCategoryNotFound", err)
	}
	cat, _ := s.CreateCategory(context.Background(), 1, "Coffee")
	if err := s.Categorize(context.Background(), 1, "missing-tx", &cat.ID); !errors.Is(err, ErrTransactionNotFound) {
		t.Errorf("unknown tx err = %v, want ErrTransactionNotFound", err)
	}

	// Clearing the assignment needs no category lookup.
	if err := s.Categorize(context.Background(), 1, "t1", nil); err != nil {
		t.Errorf("clear category: %v", err)
	}
	got, _ := s.Get(context.Background(), 1, "t1")
	if got.CategorizedByUser {
		t.Error("categorized_by_user still set after clearing")
	}
}

func TestSuggestCategory(t *testing.T) {
	repo := newMemTxRepo()
	feed := &fakeFeed{txs: []basiq.Transaction{bankTx("t1", "-4.50", "2025-06-01T00:00:00Z", "debit")}}
	classifier := &fakeClassifier{answer: "Coffee"}
	s := NewTransactionService(repo, linkedUser(), feed, classifier)
	if _, err := s.Sync(context.Background(), 1); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if _, err := s.CreateCategory(context.Background(), 1, "Coffee"); err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}

	got, err := s.SuggestCategory(context.Background(), 1, "t1")
	if err != nil {
		t.Fatalf("SuggestCategory: %v", err)
	}
	if got != "Coffee" {
		t.Errorf("suggestion = %q", got)
	}
	if len(classifier.gotCategories) != 1 || classifier.gotCategories[0] != "Coffee" {
		t.Errorf("classifier saw categories %v", classifier.gotCategories)
	}
	tx, _ := s.Get(context.Background(), 1, "t1")
	if tx.AISuggestedCategory != "Coffee" {
		t.Errorf("ai_suggested_category = %q", tx.AISuggestedCategory)
	}
	if tx.CategoryID != nil {
		t.Error("suggestion must not change the assignment")
	}
}

func TestSummary(t *testing.T) {
	repo := newMemTxRepo()
	feed := &fakeFeed{txs: []basiq.Transaction{
		bankTx("t1", "-40.00", "2025-06-01T00:00:00Z", "debit"),
		bankTx("t2", "5000.00", "2025-06-02T00:00:00Z", "credit"),
		bankTx("t3", "-60.00", "2025-07-15T00:00:00Z", "debit"), // outside range
	}}
	s := NewTransactionService(repo, linkedUser(), feed, nil)
	if _, err := s.Sync(context.Background(), 1); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	from := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	sum, err := s.Summary(context.Background(), 1, from, to)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if sum.Income != 5000 || sum.Expenses != 40 || sum.Net != 4960 || sum.Count != 2 {
		t.Errorf("summary = %+v", sum)
	}
}
