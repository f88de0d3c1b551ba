package domain

import "time"

// BlacklistedToken marks one exact serialized token string as unusable before
// its natural expiry. Entries are created on logout, read on every
// authenticated request, and deleted only by the purge sweep. Never updated.
type BlacklistedToken struct {
	ID            int64
	Token         string
	ExpiresAt     time.Time // copied from the token's own exp claim
	BlacklistedAt time.Time
}

// Expired reports whether the underlying token has passed its own expiry,
// which makes the entry purge-eligible.
func (b *BlacklistedToken) Expired(now time.Time) bool {
	return now.After(b.ExpiresAt)
}
