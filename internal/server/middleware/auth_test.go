package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"finsplore/backend/internal/security"
)

type spyBlacklist struct {
	mu     sync.Mutex
	calls  int
	result bool
}

func (s *spyBlacklist) IsBlacklisted(ctx context.Context, token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.result
}

func (s *spyBlacklist) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// identityProbe records the identity (if any) the gatekeeper established.
type identityProbe struct {
	called bool
	email  string
	userID int64
	authed bool
}

func (p *identityProbe) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p.called = true
		p.email, _ = GetEmail(r.Context())
		p.userID, p.authed = GetUserID(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func serve(t *testing.T, a *Authenticator, probe *identityProbe, path, authHeader string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	a.Handler(probe.handler()).ServeHTTP(rec, req)
	return rec
}

func TestAuthenticator_ValidToken(t *testing.T) {
	tokens := security.NewTestTokenProvider()
	token, err := tokens.Issue("a@x.com", 7)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	blacklist := &spyBlacklist{}
	a := NewAuthenticator(tokens, blacklist, nil, nil)

	probe := &identityProbe{}
	rec := serve(t, a, probe, "/api/transactions", "Bearer "+token)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if !probe.authed {
		t.Fatal("identity not established for a valid token")
	}
	if probe.email != "a@x.com" || probe.userID != 7 {
		t.Errorf("identity = (%q, %d), want (a@x.com, 7)", probe.email, probe.userID)
	}
	if blacklist.callCount() != 1 {
		t.Errorf("blacklist consulted %d times, want 1", blacklist.callCount())
	}
}

func TestAuthenticator_NoToken(t *testing.T) {
	blacklist := &spyBlacklist{}
	a := NewAuthenticator(security.NewTestTokenProvider(), blacklist, nil, nil)

	probe := &identityProbe{}
	rec := serve(t, a, probe, "/api/transactions", "")

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 (gatekeeper never rejects)", rec.Code)
	}
	if !probe.called {
		t.Error("request did not reach the handler")
	}
	if probe.authed {
		t.Error("identity established without a token")
	}
	if blacklist.callCount() != 0 {
		t.Error("blacklist consulted for a request with no credential")
	}
}

func TestAuthenticator_MalformedHeader(t *testing.T) {
	blacklist := &spyBlacklist{}
	a := NewAuthenticator(security.NewTestTokenProvider(), blacklist, nil, nil)

	for _, header := range []string{"Token abc", "Bearer", "bear abc"} {
		probe := &identityProbe{}
		req := httptest.NewRequest(http.MethodGet, "/api/transactions", nil)
		req.Header.Set("Authorization", header)
		rec := httptest.NewRecorder()
		a.Handler(probe.handler()).ServeHTTP(rec, req)

		if probe.authed {
			t.Errorf("header %q: identity established", header)
		}
		if !probe.called {
			t.Errorf("header %q: request blocked", header)
		}
	}
	if blacklist.callCount() != 0 {
		t.Error("blacklist consulted for malformed credentials")
	}
}

func TestAuthenticator_BlacklistedToken(t *testing.T) {
	tokens := security.NewTestTokenProvider()
	token, err := tokens.Issue("a@x.com", 7)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	// The token itself is still valid; only the revocation flag differs.
	blacklist := &spyBlacklist{result: true}
	a := NewAuthenticator(tokens, blacklist, nil, nil)

	probe := &identityProbe{}
	rec := serve(t, a, probe, "/api/transactions", "Bearer "+token)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if probe.authed {
		t.Error("revoked token must not establish identity")
	}
}

func TestAuthenticator_ExpiredToken(t *testing.T) {
	expired := security.NewTokenProvider("test-secret-not-for-production", -time.Minute)
	token, err := expired.Issue("a@x.com", 7)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	a := NewAuthenticator(security.NewTestTokenProvider(), &spyBlacklist{}, nil, nil)

	probe := &identityProbe{}
	serve(t, a, probe, "/api/transactions", "Bearer "+token)

	if probe.authed {
		t.Error("expired token must not establish identity")
	}
	if !probe.called {
		t.Error("request blocked")
	}
}

func TestAuthenticator_GarbageToken(t *testing.T) {
	blacklist := &spyBlacklist{}
	a := NewAuthenticator(security.NewTestTokenProvider(), blacklist, nil, nil)

	probe := &identityProbe{}
	serve(t, a, probe, "/api/transactions", "Bearer not.a.jwt")

	if probe.authed {
		t.Error("garbage token must not establish identity")
	}
	if !probe.called {
		t.Error("request blocked")
	}
}

func TestAuthenticator_PublicPathsSkipBlacklist(t *testing.T) {
	tokens := security.NewTestTokenProvider()
	token, err := tokens.Issue("a@x.com", 7)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	blacklist := &spyBlacklist{result: true}
	a := NewAuthenticator(tokens, blacklist, nil, nil)

	for _, path := range []string{
		"/api/auth/register",
		"/api/auth/login",
		"/api/auth/verify-email",
		"/api/auth/reset-password",
		"/healthz",
		"/api/docs/openapi.json",
	} {
		probe := &identityProbe{}
		rec := serve(t, a, probe, path, "Bearer "+token)
		if rec.Code != http.StatusOK {
			t.Errorf("%s: status = %d, want 200", path, rec.Code)
		}
		if !probe.called {
			t.Errorf("%s: request blocked", path)
		}
	}
	if blacklist.callCount() != 0 {
		t.Errorf("blacklist consulted %d times on public paths, want 0", blacklist.callCount())
	}
}

func TestRequireAuth(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/transactions", nil)
	rec := httptest.NewRecorder()
	RequireAuth(next).ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous status = %d, want 401", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/transactions", nil)
	req = req.WithContext(WithIdentity(req.Context(), "a@x.com", 7))
	rec = httptest.NewRecorder()
	RequireAuth(next).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("authenticated status = %d, want 200", rec.Code)
	}
}

// Logout-replay: a token accepted once must stop authenticating the moment the
// blacklist reports it revoked, even though its expiry has not passed.
func TestAuthenticator_RevocationTakesEffect(t *testing.T) {
	tokens := security.NewTestTokenProvider()
	token, err := tokens.Issue("a@x.com", 7)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	blacklist := &spyBlacklist{}
	a := NewAuthenticator(tokens, blacklist, nil, nil)

	probe := &identityProbe{}
	serve(t, a, probe, "/api/transactions", "Bearer "+token)
	if !probe.authed {
		t.Fatal("token rejected before revocation")
	}

	blacklist.mu.Lock()
	blacklist.result = true
	blacklist.mu.Unlock()

	probe = &identityProbe{}
	serve(t, a, probe, "/api/transactions", "Bearer "+token)
	if probe.authed {
		t.Error("token still authenticates after revocation")
	}
	if !probe.called {
		t.Error("request blocked after revocation")
	}
}
