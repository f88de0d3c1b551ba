package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"finsplore/backend/internal/basiq"
	"finsplore/backend/internal/security"
	"finsplore/backend/internal/user/domain"
)

type memUserRepo struct {
	mu     sync.Mutex
	users  map[int64]*domain.User
	nextID int64

	failGet bool
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: map[int64]*domain.User{}, nextID: 1}
}

func (m *memUserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGet {
		return nil, errors.New("db down")
	}
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (m *memUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGet {
		return nil, errors.New("db down")
	}
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memUserRepo) Create(ctx context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u.ID = m.nextID
	m.nextID++
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *memUserRepo) UpdateProfile(ctx context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.users[u.ID]; ok {
		cur.FirstName = u.FirstName
		cur.MiddleName = u.MiddleName
		cur.LastName = u.LastName
		cur.MobileNumber = u.MobileNumber
		cur.Username = u.Username
		cur.AvatarURL = u.AvatarURL
	}
	return nil
}

func (m *memUserRepo) UpdatePasswordHash(ctx context.Context, id int64, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		u.PasswordHash = hash
	}
	return nil
}

func (m *memUserRepo) SetEmailVerified(ctx context.Context, id int64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok && !u.EmailVerified {
		u.EmailVerified = true
		u.EmailVerifiedAt = &at
	}
	return nil
}

func (m *memUserRepo) SetLastLogin(ctx context.Context, id int64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		u.LastLoginAt = &at
	}
	return nil
}

func (m *memUserRepo) SetBasiqUserID(ctx context.Context, id int64, basiqUserID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		u.BasiqUserID = basiqUserID
	}
	return nil
}

func (m *memUserRepo) SetMonthlyBudget(ctx context.Context, id int64, amount *float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		u.MonthlyBudget = amount
	}
	return nil
}

func (m *memUserRepo) SetSavingsGoal(ctx context.Context, id int64, amount *float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		u.SavingsGoal = amount
	}
	return nil
}

// memRevoker tracks blacklisted tokens in a set.
type memRevoker struct {
	mu         sync.Mutex
	revoked    map[string]bool
	failInsert bool
}

func newMemRevoker() *memRevoker {
	return &memRevoker{revoked: map[string]bool{}}
}

func (m *memRevoker) Blacklist(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failInsert {
		return errors.New("store down")
	}
	m.revoked[token] = true
	return nil
}

func (m *memRevoker) IsBlacklisted(ctx context.Context, token string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.revoked[token]
}

type recordedMail struct {
	to, subject, body string
}

type memMailer struct {
	mu   sync.Mutex
	sent []recordedMail
}

func (m *memMailer) Send(ctx context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, recordedMail{to, subject, body})
	return nil
}

type fakeBank struct {
	created  int
	linkFor  string
}

func (f *fakeBank) CreateUser(ctx context.Context, email, mobile string) (string, error) {
	f.created++
	return "bq-user-1", nil
}

func (f *fakeBank) AuthLink(ctx context.Context, bankUserID string) (string, error) {
	f.linkFor = bankUserID
	return "https://connect.example/" + bankUserID, nil
}

func (f *fakeBank) Accounts(ctx context.Context, bankUserID string) ([]basiq.Account, error) {
	return []basiq.Account{{ID: "acc-1", Name: "Everyday", Balance: "1024.50", Currency: "AUD"}}, nil
}

func newTestService(repo *memUserRepo, revoker *memRevoker, mailer EmailSender, bank BankClient) *UserService {
	tokens := security.NewTestTokenProvider()
	hasher := security.NewHasher(4)
	return NewUserService(repo, hasher, tokens, revoker, mailer, bank, "https://app.finsplore.example")
}

func register(t *testing.T, s *UserService, email string) *AuthResult {
	t.Helper()
	res, err := s.Register(context.Background(), RegisterInput{
		Email:     email,
		Password:  "hunter2hunter2",
		FirstName: "Ada",
		LastName:  "Lovelace",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	return res
}

func TestRegisterAndLogin(t *testing.T) {
	repo := newMemUserRepo()
	s := newTestService(repo, newMemRevoker(), nil, nil)

	res := register(t, s, "Ada@X.com")
	if res.Token == "" {
		t.Fatal("no token from Register")
	}
	if res.User.Email != "ada@x.com" {
		t.Errorf("email = %q, want lowercased ada@x.com", res.User.Email)
	}
	if res.User.FullName() != "Ada Lovelace" {
		t.Errorf("FullName = %q", res.User.FullName())
	}

	login, err := s.Login(context.Background(), "ada@x.com", "hunter2hunter2")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if login.User.ID != res.User.ID {
		t.Errorf("login user ID = %d, want %d", login.User.ID, res.User.ID)
	}
	if login.User.LastLoginAt == nil {
		t.Error("last login not recorded")
	}
	if !login.ExpiresAt.After(time.Now()) {
		t.Error("token expiry not in the future")
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	s := newTestService(newMemUserRepo(), newMemRevoker(), nil, nil)
	register(t, s, "a@x.com")
	_, err := s.Register(context.Background(), RegisterInput{Email: "a@x.com", Password: "hunter2hunter2"})
	if !errors.Is(err, ErrEmailAlreadyRegistered) {
		t.Errorf("err = %v, want ErrEmailAlreadyRegistered", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	s := newTestService(newMemUserRepo(), newMemRevoker(), nil, nil)
	if _, err := s.Register(context.Background(), RegisterInput{Email: "not-an-email", Password: "hunter2hunter2"}); err == nil {
		t.Error("bad email accepted")
	}
	if _, err := s.Register(context.Background(), RegisterInput{Email: "a@x.com", Password: "short1"}); err == nil {
		t.Error("short password accepted")
	}
	if _, err := s.Register(context.Background(), RegisterInput{Email: "a@x.com", Password: "lettersonly"}); err == nil {
		t.Error("password without digits accepted")
	}
}

func TestLoginWrongPassword(t *testing.T) {
	s := newTestService(newMemUserRepo(), newMemRevoker(), nil, nil)
	register(t, s, "a@x.com")
	_, err := s.Login(context.Background(), "a@x.com", "wrongpass99")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("err = %v, want ErrInvalidCredentials", err)
	}
	_, err = s.Login(context.Background(), "nobody@x.com", "hunter2hunter2")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown email err = %v, want ErrInvalidCredentials", err)
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	revoker := newMemRevoker()
	s := newTestService(newMemUserRepo(), revoker, nil, nil)
	res := register(t, s, "a@x.com")

	if err := s.Logout(context.Background(), res.Token); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if !revoker.IsBlacklisted(context.Background(), res.Token) {
		t.Error("token not revoked after logout")
	}
}

func TestLogoutPropagatesStoreFailure(t *testing.T) {
	revoker := newMemRevoker()
	revoker.failInsert = true
	s := newTestService(newMemUserRepo(), revoker, nil, nil)
	res := register(t, s, "a@x.com")

	if err := s.Logout(context.Background(), res.Token); err == nil {
		t.Error("store failure swallowed by Logout")
	}
}

func TestUpdateProfile(t *testing.T) {
	s := newTestService(newMemUserRepo(), newMemRevoker(), nil, nil)
	res := register(t, s, "a@x.com")

	updated, err := s.UpdateProfile(context.Background(), res.User.ID, ProfileUpdate{
		FirstName: "Grace", LastName: "Hopper", Username: "grace",
	})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if updated.FirstName != "Grace" || updated.Username != "grace" {
		t.Errorf("profile not applied: %+v", updated)
	}

	got, err := s.Profile(context.Background(), res.User.ID)
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if got.FirstName != "Grace" {
		t.Errorf("persisted first name = %q", got.FirstName)
	}
}

func TestProfileUnknownUser(t *testing.T) {
	s := newTestService(newMemUserRepo(), newMemRevoker(), nil, nil)
	_, err := s.Profile(context.Background(), 404)
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("err = %v, want ErrUserNotFound", err)
	}
}

func TestVerifyEmailConsumesToken(t *testing.T) {
	repo := newMemUserRepo()
	mailer := &memMailer{}
	s := newTestService(repo, newMemRevoker(), mailer, nil)
	res := register(t, s, "a@x.com")

	if len(mailer.sent) != 1 {
		t.Fatalf("verification mails sent = %d, want 1", len(mailer.sent))
	}
	token := extractToken(t, mailer.sent[0].body)

	if err := s.VerifyEmail(context.Background(), token); err != nil {
		t.Fatalf("VerifyEmail: %v", err)
	}
	got, _ := s.Profile(context.Background(), res.User.ID)
	if !got.EmailVerified {
		t.Error("email not marked verified")
	}

	// The mailed token is single use.
	if err := s.VerifyEmail(context.Background(), token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("second use err = %v, want ErrInvalidToken", err)
	}
}

func TestPasswordResetFlow(t *testing.T) {
	repo := newMemUserRepo()
	mailer := &memMailer{}
	s := newTestService(repo, newMemRevoker(), mailer, nil)
	register(t, s, "a@x.com")
	mailer.sent = nil

	if err := s.RequestPasswordReset(context.Background(), "a@x.com"); err != nil {
		t.Fatalf("RequestPasswordReset: %v", err)
	}
	if len(mailer.sent) != 1 {
		t.Fatalf("reset mails sent = %d, want 1", len(mailer.sent))
	}
	token := extractToken(t, mailer.sent[0].body)

	if err := s.ResetPassword(context.Background(), token, "newpass1234"); err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}
	if _, err := s.Login(context.Background(), "a@x.com", "newpass1234"); err != nil {
		t.Errorf("login with new password: %v", err)
	}
	if _, err := s.Login(context.Background(), "a@x.com", "hunter2hunter2"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("old password still accepted: %v", err)
	}

	// Reset links cannot be replayed.
	if err := s.ResetPassword(context.Background(), token, "anotherpass1"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("replayed reset err = %v, want ErrInvalidToken", err)
	}
}

func TestRequestPasswordResetUnknownEmail(t *testing.T) {
	mailer := &memMailer{}
	s := newTestService(newMemUserRepo(), newMemRevoker(), mailer, nil)
	if err := s.RequestPasswordReset(context.Background(), "ghost@x.com"); err != nil {
		t.Fatalf("RequestPasswordReset: %v", err)
	}
	if len(mailer.sent) != 0 {
		t.Error("mail sent for unknown address")
	}
}

func TestBudgetAndSavingsGoal(t *testing.T) {
	s := newTestService(newMemUserRepo(), newMemRevoker(), nil, nil)
	res := register(t, s, "a@x.com")

	budget := 2500.0
	if err := s.SetMonthlyBudget(context.Background(), res.User.ID, &budget); err != nil {
		t.Fatalf("SetMonthlyBudget: %v", err)
	}
	goal := 10000.0
	if err := s.SetSavingsGoal(context.Background(), res.User.ID, &goal); err != nil {
		t.Fatalf("SetSavingsGoal: %v", err)
	}
	got, _ := s.Profile(context.Background(), res.User.ID)
	if got.MonthlyBudget == nil || *got.MonthlyBudget != 2500.0 {
		t.Errorf("monthly budget = %v", got.MonthlyBudget)
	}
	if got.SavingsGoal == nil || *got.SavingsGoal != 10000.0 {
		t.Errorf("savings goal = %v", got.SavingsGoal)
	}

	neg := -5.0
	if err := s.SetMonthlyBudget(context.Background(), res.User.ID, &neg); err == nil {
		t.Error("negative budget accepted")
	}
}

func TestConnectBank(t *testing.T) {
	repo := newMemUserRepo()
	bank := &fakeBank{}
	s := newTestService(repo, newMemRevoker(), nil, bank)
	res := register(t, s, "a@x.com")

	link, err := s.ConnectBank(context.Background(), res.User.ID)
	if err != nil {
		t.Fatalf("ConnectBank: %v", err)
	}
	if link != "https://connect.example/bq-user-1" {
		t.Errorf("link = %q", link)
	}

	// Second call reuses the stored aggregation user.
	if _, err := s.ConnectBank(context.Background(), res.User.ID); err != nil {
		t.Fatalf("ConnectBank again: %v", err)
	}
	if bank.created != 1 {
		t.Errorf("aggregation users created = %d, want 1", bank.created)
	}
}

func TestAccounts(t *testing.T) {
	repo := newMemUserRepo()
	bank := &fakeBank{}
	s := newTestService(repo, newMemRevoker(), nil, bank)
	res := register(t, s, "a@x.com")

	if _, err := s.Accounts(context.Background(), res.User.ID); !errors.Is(err, ErrBankNotLinked) {
		t.Errorf("before linking err = %v, want ErrBankNotLinked", err)
	}

	if _, err := s.ConnectBank(context.Background(), res.User.ID); err != nil {
		t.Fatalf("ConnectBank: %v", err)
	}
	accounts, err := s.Accounts(context.Background(), res.User.ID)
	if err != nil {
		t.Fatalf("Accounts: %v", err)
	}
	if len(accounts) != 1 || accounts[0].Balance != "1024.50" {
		t.Errorf("accounts = %+v", accounts)
	}
}

func TestConnectBankWithoutClient(t *testing.T) {
	s := newTestService(newMemUserRepo(), newMemRevoker(), nil, nil)
	res := register(t, s, "a@x.com")
	if _, err := s.ConnectBank(context.Background(), res.User.ID); !errors.Is(err, ErrBankNotLinked) {
		t.Errorf("err = %v, want ErrBankNotLinked", err)
	}
}

func extractToken(t *testing.T, body string) string {
	t.Helper()
	i := strings.Index(body, "token=")
	if i < 0 {
		t.Fatalf("no token in mail body %q", body)
	}
	return strings.TrimSpace(body[i+len("token="):])
}
