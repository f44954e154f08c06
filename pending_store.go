package authcore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const pendingKeyPrefix = "user-to-verify"

var (
	errPendingNotFound         = errors.New("pending registration not found")
	errPendingStoreUnavailable = errors.New("pending registration store unavailable")
)

// pendingStore parks candidate registrations until the emailed OTP is
// verified. Records are JSON values with a store-side TTL; an expired
// record simply disappears and the registration must be restarted.
type pendingStore struct {
	redis  *redis.Client
	prefix string
}

func newPendingStore(redisClient *redis.Client) *pendingStore {
	return &pendingStore{redis: redisClient, prefix: pendingKeyPrefix}
}

func (s *pendingStore) key(email string) string {
	return s.prefix + ":" + email
}

// Save writes the record with its TTL in a single store operation,
// replacing any earlier submission for the same email.
func (s *pendingStore) Save(ctx context.Context, pending *PendingRegistration, ttl time.Duration) error {
	encoded, err := json.Marshal(pending)
	if err != nil {
		return err
	}

	if err := s.redis.Set(ctx, s.key(pending.Email), encoded, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", errPendingStoreUnavailable, err)
	}

	return nil
}

// Get returns the pending registration for email, or errPendingNotFound
// when none exists (never submitted, already consumed, or expired).
func (s *pendingStore) Get(ctx context.Context, email string) (*PendingRegistration, error) {
	data, err := s.redis.Get(ctx, s.key(email)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, errPendingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errPendingStoreUnavailable, err)
	}

	var pending PendingRegistration
	if err := json.Unmarshal(data, &pending); err != nil {
		return nil, fmt.Errorf("%w: %v", errPendingStoreUnavailable, err)
	}

	return &pending, nil
}

// Delete removes the record. Deleting an absent record is not an error.
func (s *pendingStore) Delete(ctx context.Context, email string) error {
	if err := s.redis.Del(ctx, s.key(email)).Err(); err != nil {
		return fmt.Errorf("%w: %v", errPendingStoreUnavailable, err)
	}
	return nil
}
