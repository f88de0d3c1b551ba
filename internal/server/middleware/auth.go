// Package middleware implements the per-request gatekeeper and the context
// plumbing for authenticated identity.
package middleware

import (
	"context"
	"log"
	"net/http"
	"strings"

	"finsplore/backend/internal/api"
	"finsplore/backend/internal/security"
	"finsplore/backend/internal/telemetry"
)

const bearerPrefix = "bearer "

// DefaultPublicPrefixes lists the path prefixes that skip the gatekeeper
// entirely: no token required and no blacklist check performed.
var DefaultPublicPrefixes = []string{
	"/api/auth/register",
	"/api/auth/login",
	"/api/auth/verify-email",
	"/api/auth/reset-password",
	"/healthz",
	"/api/docs",
}

// BlacklistChecker reports whether a token has been revoked. The production
// implementation is the blacklist service, which fails secure on store errors.
type BlacklistChecker interface {
	IsBlacklisted(ctx context.Context, token string) bool
}

// Authenticator is the per-request gatekeeper. It extracts a bearer token,
// consults the blacklist and the token codec, and establishes (or withholds)
// an authenticated identity for downstream handlers. It never rejects a
// request itself; route-level RequireAuth does that.
type Authenticator struct {
	tokens    *security.TokenProvider
	blacklist BlacklistChecker
	public    []string
	metrics   *telemetry.Metrics
}

// NewAuthenticator returns an Authenticator over the given codec and blacklist.
// publicPrefixes defaults to DefaultPublicPrefixes when nil; metrics may be nil.
func NewAuthenticator(tokens *security.TokenProvider, blacklist BlacklistChecker, publicPrefixes []string, metrics *telemetry.Metrics) *Authenticator {
	if publicPrefixes == nil {
		publicPrefixes = DefaultPublicPrefixes
	}
	return &Authenticator{tokens: tokens, blacklist: blacklist, public: publicPrefixes, metrics: metrics}
}

// Handler wraps next with the gatekeeper. Public paths pass through untouched.
// Everything else proceeds either with identity in context or anonymously;
// the middleware itself never short-circuits the pipeline.
func (a *Authenticator) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.isPublic(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		email, userID, ok := a.resolve(r)
		if !ok {
			a.metrics.RequestAnonymous(r.Context())
			next.ServeHTTP(w, r)
			return
		}
		a.metrics.RequestAuthenticated(r.Context())
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), email, userID)))
	})
}

// resolve maps the request to an identity, or to nothing. It cannot fail:
// every internal error, including a panic, collapses to anonymous.
func (a *Authenticator) resolve(r *http.Request) (email string, userID int64, ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("auth: identity resolution panicked: %v", rec)
			email, userID, ok = "", 0, false
		}
	}()

	token := extractBearer(r)
	if token == "" {
		return "", 0, false
	}
	if a.blacklist.IsBlacklisted(r.Context(), token) {
		return "", 0, false
	}
	claims, err := a.tokens.ParseClaims(token)
	if err != nil {
		return "", 0, false
	}
	if !a.tokens.IsValid(token) {
		return "", 0, false
	}
	return claims.Subject, claims.UserID, true
}

func (a *Authenticator) isPublic(path string) bool {
	for _, prefix := range a.public {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// extractBearer returns the Bearer token from the Authorization header, or ""
// if missing or malformed.
func extractBearer(r *http.Request) string {
	v := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(v) < len(bearerPrefix) {
		return ""
	}
	if !strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(v[len(bearerPrefix):])
}

// RequireAuth rejects requests that reach a protected route without an
// identity. Expired, malformed, and revoked tokens all end up here with the
// same generic response; the distinction is deliberately not leaked.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetUserID(r.Context()); !ok {
			api.Error(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
