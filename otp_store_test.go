package authcore

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newStoreRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestOTPStoreConsumeIsSingleUse(t *testing.T) {
	_, rdb := newStoreRedis(t)
	store := newOTPStore(rdb)
	ctx := context.Background()

	if err := store.Issue(ctx, "alice@example.com", "123456", time.Minute); err != nil {
		t.Fatalf("issue: %v", err)
	}

	ok, err := store.Consume(ctx, "alice@example.com", "123456")
	if err != nil || !ok {
		t.Fatalf("consume: ok=%v err=%v", ok, err)
	}

	ok, err = store.Consume(ctx, "alice@example.com", "123456")
	if err != nil || ok {
		t.Fatalf("second consume: ok=%v err=%v", ok, err)
	}
}

func TestOTPStoreMismatchKeepsCode(t *testing.T) {
	_, rdb := newStoreRedis(t)
	store := newOTPStore(rdb)
	ctx := context.Background()

	if err := store.Issue(ctx, "alice@example.com", "123456", time.Minute); err != nil {
		t.Fatalf("issue: %v", err)
	}

	ok, err := store.Consume(ctx, "alice@example.com", "654321")
	if err != nil || ok {
		t.Fatalf("mismatch consume: ok=%v err=%v", ok, err)
	}

	ok, err = store.Consume(ctx, "alice@example.com", "123456")
	if err != nil || !ok {
		t.Fatalf("retry with right code: ok=%v err=%v", ok, err)
	}
}

func TestOTPStoreMissingKey(t *testing.T) {
	_, rdb := newStoreRedis(t)
	store := newOTPStore(rdb)

	ok, err := store.Consume(context.Background(), "nobody@example.com", "123456")
	if err != nil || ok {
		t.Fatalf("missing key: ok=%v err=%v", ok, err)
	}
}

func TestOTPStoreKeyHasTTL(t *testing.T) {
	mr, rdb := newStoreRedis(t)
	store := newOTPStore(rdb)
	ctx := context.Background()

	if err := store.Issue(ctx, "alice@example.com", "123456", time.Minute); err != nil {
		t.Fatalf("issue: %v", err)
	}
	if ttl := mr.TTL("otp:alice@example.com"); ttl <= 0 {
		t.Fatalf("key has no TTL: %v", ttl)
	}

	mr.FastForward(2 * time.Minute)
	ok, err := store.Consume(ctx, "alice@example.com", "123456")
	if err != nil || ok {
		t.Fatalf("expired code: ok=%v err=%v", ok, err)
	}
}

func TestOTPStoreReissueOverwrites(t *testing.T) {
	_, rdb := newStoreRedis(t)
	store := newOTPStore(rdb)
	ctx := context.Background()

	if err := store.Issue(ctx, "alice@example.com", "111111", time.Minute); err != nil {
		t.Fatalf("first issue: %v", err)
	}
	if err := store.Issue(ctx, "alice@example.com", "222222", time.Minute); err != nil {
		t.Fatalf("second issue: %v", err)
	}

	if ok, _ := store.Consume(ctx, "alice@example.com", "111111"); ok {
		t.Fatal("overwritten code must not consume")
	}
	if ok, err := store.Consume(ctx, "alice@example.com", "222222"); err != nil || !ok {
		t.Fatalf("current code: ok=%v err=%v", ok, err)
	}
}

func TestGenerateOTPRange(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := generateOTP(6)
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("code %q is not 6 digits", code)
		}
		n, err := strconv.Atoi(code)
		if err != nil {
			t.Fatalf("code %q is not numeric", code)
		}
		if n < 100000 || n > 999999 {
			t.Fatalf("code %d out of range", n)
		}
	}
}
