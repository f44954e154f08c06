package authcore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevocationLedger records tokens invalidated before their natural
// expiry. Insert is idempotent; Exists is queried on every protected
// request and on refresh, so implementations must be cheap and
// fail-closed callers treat any error as "revoked".
type RevocationLedger interface {
	Insert(ctx context.Context, tokenValue string, ttl time.Duration) error
	Exists(ctx context.Context, tokenValue string) (bool, error)
}

const revocationKeyPrefix = "revoked"

// redisRevocationLedger stores each revoked token under a hashed key
// whose TTL equals the maximum token lifetime. Once the token itself
// has expired the codec rejects it anyway, so the row is safe to drop
// and the ledger stays bounded.
type redisRevocationLedger struct {
	redis  *redis.Client
	prefix string
}

// NewRedisRevocationLedger returns the default ledger implementation.
func NewRedisRevocationLedger(redisClient *redis.Client) RevocationLedger {
	return &redisRevocationLedger{redis: redisClient, prefix: revocationKeyPrefix}
}

func (l *redisRevocationLedger) key(tokenValue string) string {
	sum := sha256.Sum256([]byte(tokenValue))
	return l.prefix + ":" + hex.EncodeToString(sum[:])
}

func (l *redisRevocationLedger) Insert(ctx context.Context, tokenValue string, ttl time.Duration) error {
	if tokenValue == "" {
		return nil
	}
	if err := l.redis.Set(ctx, l.key(tokenValue), "1", ttl).Err(); err != nil {
		return fmt.Errorf("revocation ledger insert: %w", err)
	}
	return nil
}

func (l *redisRevocationLedger) Exists(ctx context.Context, tokenValue string) (bool, error) {
	if tokenValue == "" {
		return false, nil
	}
	n, err := l.redis.Exists(ctx, l.key(tokenValue)).Result()
	if err != nil {
		return false, fmt.Errorf("revocation ledger lookup: %w", err)
	}
	return n > 0, nil
}
