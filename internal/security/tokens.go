package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrMalformedToken is returned when a token's structure or signature is invalid,
// or when a well-formed token has already expired. Never surfaced to clients;
// callers treat it as "not authenticated".
var ErrMalformedToken = errors.New("malformed token")

// Claims holds the JWT claims of a session token: subject (account email),
// the numeric user id, and the registered iat/exp pair.
type Claims struct {
	jwt.RegisteredClaims
	UserID int64  `json:"userId"`
	Email  string `json:"email"`
}

// TokenProvider issues and validates self-contained session tokens signed with
// HS256. The secret is injected at construction and immutable afterwards, so
// a single provider is safe for unsynchronized concurrent use.
type TokenProvider struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenProvider returns a TokenProvider signing with the given secret.
// ttl is the token lifetime added to issuance time (exp = iat + ttl).
func NewTokenProvider(secret string, ttl time.Duration) *TokenProvider {
	return &TokenProvider{secret: []byte(secret), ttl: ttl}
}

// Issue builds and signs a session token for the given account.
// The subject claim is the email; exp is strict (token invalid at exactly exp).
func (p *TokenProvider) Issue(email string, userID int64) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.ttl)),
			// jti keeps tokens for the same account distinct, so revoking
			// one never revokes another issued in the same second.
			ID: uuid.New().String(),
		},
		UserID: userID,
		Email:  email,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
}

// ParseClaims verifies the signature and deserializes the claims.
// Expiry is validated during parsing, so an expired token fails here too;
// every failure collapses to ErrMalformedToken.
func (p *TokenProvider) ParseClaims(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrMalformedToken
		}
		return p.secret, nil
	})
	if err != nil {
		return nil, ErrMalformedToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrMalformedToken
	}
	return claims, nil
}

// Subject returns the subject (account email) from the token.
func (p *TokenProvider) Subject(tokenString string) (string, error) {
	claims, err := p.ParseClaims(tokenString)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// UserID returns the numeric user id from the token.
func (p *TokenProvider) UserID(tokenString string) (int64, error) {
	claims, err := p.ParseClaims(tokenString)
	if err != nil {
		return 0, err
	}
	return claims.UserID, nil
}

// ExpiresAt returns the token's expiry instant.
func (p *TokenProvider) ExpiresAt(tokenString string) (time.Time, error) {
	claims, err := p.ParseClaims(tokenString)
	if err != nil {
		return time.Time{}, err
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, ErrMalformedToken
	}
	return claims.ExpiresAt.Time, nil
}

// IsExpired reports whether the token has passed its expiry. A token that
// cannot be parsed counts as expired (fail-closed).
func (p *TokenProvider) IsExpired(tokenString string) bool {
	exp, err := p.ExpiresAt(tokenString)
	if err != nil {
		return true
	}
	return !time.Now().Before(exp)
}

// IsValid reports whether the token is well-formed, correctly signed, and not expired.
func (p *TokenProvider) IsValid(tokenString string) bool {
	return !p.IsExpired(tokenString)
}

// IsValidFor reports whether the token is valid and belongs to the given
// subject. Used when an endpoint must confirm the token's principal, not
// merely that it is well-formed.
func (p *TokenProvider) IsValidFor(tokenString, email string) bool {
	subject, err := p.Subject(tokenString)
	if err != nil {
		return false
	}
	return subject == email && p.IsValid(tokenString)
}
