// Package service implements the business layer over the token blacklist:
// blacklist-on-logout, blacklist-check-on-request, the periodic purge sweep,
// and statistics.
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"finsplore/backend/internal/auth/domain"
	"finsplore/backend/internal/security"
	"finsplore/backend/internal/telemetry"
)

// ErrRevocation is returned when a token cannot be blacklisted, either because
// it does not parse or because the store rejected the write. Callers must
// treat it as a failed logout and surface it; an unacknowledged logout is a
// security-relevant failure.
var ErrRevocation = errors.New("failed to blacklist token")

// BlacklistRepo is the minimal blacklist repository needed by the service.
type BlacklistRepo interface {
	Insert(ctx context.Context, e *domain.BlacklistedToken) error
	Exists(ctx context.Context, token string) (bool, error)
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
	CountAll(ctx context.Context) (int64, error)
	CountExpired(ctx context.Context, now time.Time) (int64, error)
}

// Stats describes the blacklist at a point in time. Expired entries are still
// counted under Total until the next purge sweep removes them.
type Stats struct {
	Total   int64 `json:"total"`
	Active  int64 `json:"active"`
	Expired int64 `json:"expired"`
}

// BlacklistService orchestrates revocation. It holds no state of its own;
// all durable state lives in the repository.
type BlacklistService struct {
	repo    BlacklistRepo
	tokens  *security.TokenProvider
	metrics *telemetry.Metrics
}

// NewBlacklistService returns a BlacklistService over the given store and codec.
func NewBlacklistService(repo BlacklistRepo, tokens *security.TokenProvider) *BlacklistService {
	return &BlacklistService{repo: repo, tokens: tokens}
}

// WithMetrics attaches purge-sweep instrumentation and returns the service.
func (s *BlacklistService) WithMetrics(m *telemetry.Metrics) *BlacklistService {
	s.metrics = m
	return s
}

// Blacklist records the token as revoked until its embedded expiry passes.
// Re-blacklisting an already revoked token is a no-op. The existence check is
// a shortcut only; the store's uniqueness guarantee covers the race between
// two concurrent logouts of the same token.
func (s *BlacklistService) Blacklist(ctx context.Context, token string) error {
	exists, err := s.repo.Exists(ctx, token)
	if err == nil && exists {
		return nil
	}

	expiresAt, err := s.tokens.ExpiresAt(token)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRevocation, err)
	}

	entry := &domain.BlacklistedToken{
		Token:         token,
		ExpiresAt:     expiresAt,
		BlacklistedAt: time.Now().UTC(),
	}
	if err := s.repo.Insert(ctx, entry); err != nil {
		return fmt.Errorf("%w: %v", ErrRevocation, err)
	}
	return nil
}

// IsBlacklisted reports whether the token has been revoked. Fail-secure: when
// the store is unreachable the token is treated as blacklisted, so an outage
// can reject valid tokens but never re-admit a revoked one.
func (s *BlacklistService) IsBlacklisted(ctx context.Context, token string) bool {
	exists, err := s.repo.Exists(ctx, token)
	if err != nil {
		log.Printf("blacklist: existence check failed, treating token as revoked: %v", err)
		return true
	}
	return exists
}

// PurgeExpired deletes entries whose tokens have expired naturally and returns
// the count removed. Failures are logged, never propagated: a failed sweep
// must not crash the process, and the next scheduled run retries anyway.
func (s *BlacklistService) PurgeExpired(ctx context.Context) int64 {
	n, err := s.repo.PurgeExpired(ctx, time.Now().UTC())
	if err != nil {
		log.Printf("blacklist: purge sweep failed: %v", err)
		return 0
	}
	if n > 0 {
		log.Printf("blacklist: purged %d expired entries", n)
	}
	s.metrics.TokensPurged(ctx, n)
	return n
}

// Stats returns total, active, and expired-but-not-yet-purged entry counts.
func (s *BlacklistService) Stats(ctx context.Context) (Stats, error) {
	total, err := s.repo.CountAll(ctx)
	if err != nil {
		return Stats{}, err
	}
	expired, err := s.repo.CountExpired(ctx, time.Now().UTC())
	if err != nil {
		return Stats{}, err
	}
	return Stats{Total: total, Active: total - expired, Expired: expired}, nil
}

// RunPurgeLoop invokes PurgeExpired every interval until ctx is canceled.
// Runs independently of request handling; safe to run concurrently with
// inserts and lookups, and running a sweep twice is harmless.
func (s *BlacklistService) RunPurgeLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.PurgeExpired(ctx)
		}
	}
}
