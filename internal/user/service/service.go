package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"finsplore/backend/internal/basiq"
	"finsplore/backend/internal/security"
	"finsplore/backend/internal/user/domain"
)

// Sentinel errors for the user service; handlers map them to HTTP statuses.
var (
	ErrEmailAlreadyRegistered = errors.New("email already registered")
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrUserNotFound           = errors.New("user not found")
	ErrInvalidToken           = errors.New("invalid or expired token")
	ErrBankNotLinked          = errors.New("no bank connection for user")
)

// UserRepo is the minimal user repository needed by the service.
type UserRepo interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
	UpdateProfile(ctx context.Context, u *domain.User) error
	UpdatePasswordHash(ctx context.Context, id int64, hash string) error
	SetEmailVerified(ctx context.Context, id int64, at time.Time) error
	SetLastLogin(ctx context.Context, id int64, at time.Time) error
	SetBasiqUserID(ctx context.Context, id int64, basiqUserID string) error
	SetMonthlyBudget(ctx context.Context, id int64, amount *float64) error
	SetSavingsGoal(ctx context.Context, id int64, amount *float64) error
}

// Revoker invalidates issued tokens.
type Revoker interface {
	Blacklist(ctx context.Context, token string) error
	IsBlacklisted(ctx context.Context, token string) bool
}

// EmailSender delivers transactional mail. Implementations may be a no-op
// when mail is not configured.
type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// BankClient manages the external bank-aggregation account for a user.
type BankClient interface {
	CreateUser(ctx context.Context, email, mobile string) (string, error)
	AuthLink(ctx context.Context, bankUserID string) (string, error)
	Accounts(ctx context.Context, bankUserID string) ([]basiq.Account, error)
}

// AuthResult is the outcome of Register and Login.
type AuthResult struct {
	Token     string
	ExpiresAt time.Time
	User      *domain.User
}

// RegisterInput carries the fields accepted at signup.
type RegisterInput struct {
	Email        string
	Password     string
	FirstName    string
	MiddleName   string
	LastName     string
	MobileNumber string
	Username     string
}

// ProfileUpdate carries the editable profile fields.
type ProfileUpdate struct {
	FirstName    string
	MiddleName   string
	LastName     string
	MobileNumber string
	Username     string
	AvatarURL    string
}

// UserService implements signup, login, logout and profile management.
type UserService struct {
	repo    UserRepo
	hasher  *security.Hasher
	tokens  *security.TokenProvider
	revoker Revoker
	email   EmailSender
	bank    BankClient
	baseURL string
}

// NewUserService returns a UserService with the given dependencies.
// email and bank may be nil; the corresponding features degrade to no-ops.
func NewUserService(
	repo UserRepo,
	hasher *security.Hasher,
	tokens *security.TokenProvider,
	revoker Revoker,
	email EmailSender,
	bank BankClient,
	baseURL string,
) *UserService {
	return &UserService{
		repo:    repo,
		hasher:  hasher,
		tokens:  tokens,
		revoker: revoker,
		email:   email,
		bank:    bank,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Register creates an account, sends a verification mail and returns a signed token.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	email := strings.TrimSpace(strings.ToLower(in.Email))
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(in.Password); err != nil {
		return nil, err
	}
	existing, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailAlreadyRegistered
	}
	hashed, err := s.hasher.Hash([]byte(in.Password))
	if err != nil {
		return nil, err
	}
	user := &domain.User{
		Email:        email,
		PasswordHash: hashed,
		FirstName:    strings.TrimSpace(in.FirstName),
		MiddleName:   strings.TrimSpace(in.MiddleName),
		LastName:     strings.TrimSpace(in.LastName),
		MobileNumber: strings.TrimSpace(in.MobileNumber),
		Username:     strings.TrimSpace(in.Username),
		Active:       true,
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	s.sendVerificationMail(ctx, user)
	token, err := s.tokens.Issue(user.Email, user.ID)
	if err != nil {
		return nil, err
	}
	exp, _ := s.tokens.ExpiresAt(token)
	return &AuthResult{Token: token, ExpiresAt: exp, User: user}, nil
}

// Login authenticates with email/password, records the login time and returns a token.
func (s *UserService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.Active {
		return nil, ErrInvalidCredentials
	}
	if err := s.hasher.Compare(user.PasswordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	now := time.Now().UTC()
	if err := s.repo.SetLastLogin(ctx, user.ID, now); err != nil {
		log.Printf("user: record last login for %d: %v", user.ID, err)
	}
	user.LastLoginAt = &now
	token, err := s.tokens.Issue(user.Email, user.ID)
	if err != nil {
		return nil, err
	}
	exp, _ := s.tokens.ExpiresAt(token)
	return &AuthResult{Token: token, ExpiresAt: exp, User: user}, nil
}

// Logout revokes the presented token. The error from the revocation store is
// propagated so the caller never believes a still-valid token is dead.
func (s *UserService) Logout(ctx context.Context, token string) error {
	return s.revoker.Blacklist(ctx, token)
}

// Profile returns the user for id.
func (s *UserService) Profile(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// UpdateProfile applies the editable fields and returns the updated user.
func (s *UserService) UpdateProfile(ctx context.Context, id int64, in ProfileUpdate) (*domain.User, error) {
	user, err := s.Profile(ctx, id)
	if err != nil {
		return nil, err
	}
	user.FirstName = strings.TrimSpace(in.FirstName)
	user.MiddleName = strings.TrimSpace(in.MiddleName)
	user.LastName = strings.TrimSpace(in.LastName)
	user.MobileNumber = strings.TrimSpace(in.MobileNumber)
	user.Username = strings.TrimSpace(in.Username)
	user.AvatarURL = strings.TrimSpace(in.AvatarURL)
	if err := s.repo.UpdateProfile(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// VerifyEmail marks the account behind the token as verified. The token is the
// one mailed at signup; it is consumed on first use.
func (s *UserService) VerifyEmail(ctx context.Context, token string) error {
	user, err := s.consumeToken(ctx, token)
	if err != nil {
		return err
	}
	return s.repo.SetEmailVerified(ctx, user.ID, time.Now().UTC())
}

// RequestPasswordReset mails a reset link for the account, if it exists.
// Always succeeds from the caller's point of view so the endpoint does not
// leak which addresses are registered.
func (s *UserService) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil || s.email == nil {
		return nil
	}
	token, err := s.tokens.Issue(user.Email, user.ID)
	if err != nil {
		return err
	}
	body := fmt.Sprintf("Reset your Finsplore password:\n\n%s/reset-password?token=%s\n", s.baseURL, token)
	if err := s.email.Send(ctx, user.Email, "Reset your password", body); err != nil {
		log.Printf("user: send reset mail to %s: %v", user.Email, err)
	}
	return nil
}

// ResetPassword sets a new password for the account behind the reset token
// and consumes the token so the link cannot be replayed.
func (s *UserService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	user, err := s.consumeToken(ctx, token)
	if err != nil {
		return err
	}
	hashed, err := s.hasher.Hash([]byte(newPassword))
	if err != nil {
		return err
	}
	return s.repo.UpdatePasswordHash(ctx, user.ID, hashed)
}

// SetMonthlyBudget stores the monthly budget target. nil clears it.
func (s *UserService) SetMonthlyBudget(ctx context.Context, id int64, amount *float64) error {
	if err := validateAmount(amount); err != nil {
		return err
	}
	return s.repo.SetMonthlyBudget(ctx, id, amount)
}

// SetSavingsGoal stores the savings target. nil clears it.
func (s *UserService) SetSavingsGoal(ctx context.Context, id int64, amount *float64) error {
	if err := validateAmount(amount); err != nil {
		return err
	}
	return s.repo.SetSavingsGoal(ctx, id, amount)
}

// ConnectBank ensures the user has an aggregation account and returns the
// consent link to hand to the frontend.
func (s *UserService) ConnectBank(ctx context.Context, id int64) (string, error) {
	if s.bank == nil {
		return "", ErrBankNotLinked
	}
	user, err := s.Profile(ctx, id)
	if err != nil {
		return "", err
	}
	bankUserID := user.BasiqUserID
	if bankUserID == "" {
		bankUserID, err = s.bank.CreateUser(ctx, user.Email, user.MobileNumber)
		if err != nil {
			return "", err
		}
		if err := s.repo.SetBasiqUserID(ctx, id, bankUserID); err != nil {
			return "", err
		}
	}
	return s.bank.AuthLink(ctx, bankUserID)
}

// Accounts lists the user's linked bank accounts with balances.
func (s *UserService) Accounts(ctx context.Context, id int64) ([]basiq.Account, error) {
	if s.bank == nil {
		return nil, ErrBankNotLinked
	}
	user, err := s.Profile(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.BasiqUserID == "" {
		return nil, ErrBankNotLinked
	}
	return s.bank.Accounts(ctx, user.BasiqUserID)
}

// consumeToken validates a one-shot mailed token, resolves its user, and
// blacklists it so a second use fails.
func (s *UserService) consumeToken(ctx context.Context, token string) (*domain.User, error) {
	if token == "" || !s.tokens.IsValid(token) {
		return nil, ErrInvalidToken
	}
	if s.revoker.IsBlacklisted(ctx, token) {
		return nil, ErrInvalidToken
	}
	email, err := s.tokens.Subject(token)
	if err != nil {
		return nil, ErrInvalidToken
	}
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidToken
	}
	if err := s.revoker.Blacklist(ctx, token); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) sendVerificationMail(ctx context.Context, user *domain.User) {
	if s.email == nil {
		return
	}
	token, err := s.tokens.Issue(user.Email, user.ID)
	if err != nil {
		log.Printf("user: issue verification token for %s: %v", user.Email, err)
		return
	}
	body := fmt.Sprintf("Welcome to Finsplore!\n\nVerify your email:\n\n%s/verify-email?token=%s\n", s.baseURL, token)
	if err := s.email.Send(ctx, user.Email, "Verify your email", body); err != nil {
		log.Printf("user: send verification mail to %s: %v", user.Email, err)
	}
}

func validateEmail(email string) error {
	if email == "" {
		return errors.New("email is required")
	}
	const simpleEmail = `^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`
	ok, _ := regexp.MatchString(simpleEmail, email)
	if !ok {
		return errors.New("invalid email format")
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return errors.New("password must be at least 8 characters")
	}
	var hasLetter, hasNumber bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z':
			hasLetter = true
		case r >= '0' && r <= '9':
			hasNumber = true
		}
	}
	if !hasLetter || !hasNumber {
		return errors.New("password must contain letters and numbers")
	}
	return nil
}

func validateAmount(amount *float64) error {
	if amount != nil && *amount < 0 {
		return errors.New("amount must not be negative")
	}
	return nil
}
