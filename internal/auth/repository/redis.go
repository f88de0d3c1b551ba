package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"finsplore/backend/internal/auth/domain"
)

const blacklistKeyPrefix = "jwt:blacklist:"

// RedisRepository stores blacklisted tokens as Redis keys whose TTL matches
// the token's remaining lifetime, so Redis itself performs the purge. It is
// an alternative to the Postgres store for deployments that want the request
// hot path off the relational database.
type RedisRepository struct {
	client *redis.Client
}

// NewRedisRepository returns a blacklist repository backed by the given Redis client.
func NewRedisRepository(client *redis.Client) *RedisRepository {
	return &RedisRepository{client: client}
}

// Insert stores the token under its own value with a TTL equal to the token's
// remaining lifetime. An entry whose token has already expired is skipped:
// expiry alone makes it unusable. SET on an existing key is a harmless overwrite
// with the same value, so concurrent logouts stay idempotent.
func (r *RedisRepository) Insert(ctx context.Context, e *domain.BlacklistedToken) error {
	ttl := time.Until(e.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	if err := r.client.Set(ctx, blacklistKeyPrefix+e.Token, "1", ttl).Err(); err != nil {
		return fmt.Errorf("blacklistRepo.Insert: %w", err)
	}
	return nil
}

// Exists reports whether the token value is blacklisted. Keys past their TTL
// are already gone, which matches the purge semantics of the Postgres store.
func (r *RedisRepository) Exists(ctx context.Context, token string) (bool, error) {
	n, err := r.client.Exists(ctx, blacklistKeyPrefix+token).Result()
	if err != nil {
		return false, fmt.Errorf("blacklistRepo.Exists: %w", err)
	}
	return n > 0, nil
}

// PurgeExpired is a no-op: Redis evicts entries at their TTL. Always returns 0
// so a scheduled sweep against this backend simply logs nothing.
func (r *RedisRepository) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}

// CountAll scans the blacklist keyspace. Entries past their expiry never
// appear, so all counted entries are active.
func (r *RedisRepository) CountAll(ctx context.Context) (int64, error) {
	var total int64
	var cursor uint64
	for {
		keys, next, err := r.client.Scan(ctx, cursor, blacklistKeyPrefix+"*", 1000).Result()
		if err != nil {
			return 0, fmt.Errorf("blacklistRepo.CountAll: %w", err)
		}
		total += int64(len(keys))
		cursor = next
		if cursor == 0 {
			return total, nil
		}
	}
}

// CountExpired always returns 0: expired entries are evicted by Redis before
// they can be observed.
func (r *RedisRepository) CountExpired(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}
