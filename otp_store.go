package authcore

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/redis/go-redis/v9"
)

const otpKeyPrefix = "otp"

var errOTPStoreUnavailable = errors.New("otp store unavailable")

// otpStore keeps one active code per email with a store-side TTL. The
// value and its expiry are written in a single SET so a crash can never
// leave an immortal code behind.
type otpStore struct {
	redis  *redis.Client
	prefix string
}

func newOTPStore(redisClient *redis.Client) *otpStore {
	return &otpStore{redis: redisClient, prefix: otpKeyPrefix}
}

func (s *otpStore) key(email string) string {
	return s.prefix + ":" + email
}

// Issue stores code under the email's key, overwriting any prior code.
func (s *otpStore) Issue(ctx context.Context, email, code string, ttl time.Duration) error {
	if err := s.redis.Set(ctx, s.key(email), code, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", errOTPStoreUnavailable, err)
	}
	return nil
}

// Consume compares candidate against the stored code and deletes the
// key only on a match, making each code single-use. A mismatch or a
// missing key returns (false, nil) and leaves the stored code in place
// so the user may retry until its TTL lapses.
func (s *otpStore) Consume(ctx context.Context, email, candidate string) (bool, error) {
	const maxRetries = 4
	key := s.key(email)

	for i := 0; i < maxRetries; i++ {
		matched := false

		err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
			stored, err := tx.Get(ctx, key).Result()
			if err != nil {
				return err
			}

			if subtle.ConstantTimeCompare([]byte(stored), []byte(candidate)) != 1 {
				return nil
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Del(ctx, key)
				return nil
			})
			if err != nil {
				return err
			}

			matched = true
			return nil
		}, key)

		if err == redis.TxFailedErr {
			continue
		}
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("%w: %v", errOTPStoreUnavailable, err)
		}

		return matched, nil
	}

	return false, nil
}

// generateOTP returns a numeric code of the given width. Codes are
// short-lived and single-use, not long-term secrets, but drawing from
// crypto/rand costs nothing here.
func generateOTP(digits int) (string, error) {
	low := int64(1)
	for i := 1; i < digits; i++ {
		low *= 10
	}

	n, err := rand.Int(rand.Reader, big.NewInt(low*9))
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%d", low+n.Int64()), nil
}
