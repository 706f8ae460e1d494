package cache

import (
	"context"
	"fmt"
	"time"
)

// TokenBlacklist remembers revoked bearer token IDs until the tokens expire.
type TokenBlacklist struct {
	redis *RedisClient
}

// NewTokenBlacklist creates a new TokenBlacklist.
func NewTokenBlacklist(redis *RedisClient) *TokenBlacklist {
	return &TokenBlacklist{redis: redis}
}

func (b *TokenBlacklist) key(tokenID string) string {
	return fmt.Sprintf("auth:revoked:%s", tokenID)
}

// Revoke blacklists tokenID until expiresAt. Already expired tokens are ignored.
func (b *TokenBlacklist) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return b.redis.Set(ctx, b.key(tokenID), "1", ttl)
}

// IsRevoked reports whether tokenID was revoked.
func (b *TokenBlacklist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	return b.redis.Exists(ctx, b.key(tokenID))
}
