package security

import "time"

// NewTestTokenProvider returns a TokenProvider for unit tests: fixed throwaway
// secret, 1h TTL. Do not use outside tests.
func NewTestTokenProvider() *TokenProvider {
	return NewTokenProvider("test-secret-not-for-production", time.Hour)
}
