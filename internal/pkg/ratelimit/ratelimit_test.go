package ratelimit

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestRateLimiter_AllowReducesTokens(t *testing.T) {
	rdb := newMiniRedis(t)
	defer closeRedis(t, rdb)

	limiter := NewRedisRateLimiter(rdb, "test:ratelimit:", 10, 2)
	ok, err := limiter.Allow(context.Background(), "basic", time.Now().UnixMilli())
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if !ok {
		t.Fatalf("expected first acquire to succeed")
	}

	tokensStr, err := rdb.HGet(context.Background(), "test:ratelimit:basic", "tokens").Result()
	if err != nil {
		t.Fatalf("hget tokens: %v", err)
	}
	tokens, err := strconv.ParseFloat(tokensStr, 64)
	if err != nil {
		t.Fatalf("parse tokens: %v", err)
	}
	if tokens > 1.1 {
		t.Fatalf("expected tokens to decrease, got %.2f", tokens)
	}
}

func TestRateLimiter_RejectsWhenEmpty(t *testing.T) {
	rdb := newMiniRedis(t)
	defer closeRedis(t, rdb)

	limiter := NewRedisRateLimiter(rdb, "test:ratelimit:", 1, 2)
	now := time.Now().UnixMilli()

	for i := 0; i < 2; i++ {
		ok, err := limiter.Allow(context.Background(), "empty", now)
		if err != nil {
			t.Fatalf("allow %d: %v", i, err)
		}
		if !ok {
			t.Fatalf("expected acquire %d to succeed", i)
		}
	}

	ok, err := limiter.Allow(context.Background(), "empty", now)
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if ok {
		t.Fatalf("expected rejection once bucket is empty")
	}
}

func TestRateLimiter_RefillOverTime(t *testing.T) {
	rdb := newMiniRedis(t)
	defer closeRedis(t, rdb)

	limiter := NewRedisRateLimiter(rdb, "test:ratelimit:", 10, 1)
	now := time.Now().UnixMilli()

	if ok, _ := limiter.Allow(context.Background(), "refill", now); !ok {
		t.Fatalf("warm acquire should succeed")
	}
	if ok, _ := limiter.Allow(context.Background(), "refill", now); ok {
		t.Fatalf("bucket should be empty immediately after")
	}

	// 10 tokens/s means one token back after 100ms.
	ok, err := limiter.Allow(context.Background(), "refill", now+150)
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if !ok {
		t.Fatalf("expected refill after 150ms")
	}
}

func TestRateLimiter_KeysAreIndependent(t *testing.T) {
	rdb := newMiniRedis(t)
	defer closeRedis(t, rdb)

	limiter := NewRedisRateLimiter(rdb, "test:ratelimit:", 1, 1)
	now := time.Now().UnixMilli()

	if ok, _ := limiter.Allow(context.Background(), "ip-a", now); !ok {
		t.Fatalf("ip-a should succeed")
	}
	if ok, _ := limiter.Allow(context.Background(), "ip-a", now); ok {
		t.Fatalf("ip-a should be exhausted")
	}
	if ok, _ := limiter.Allow(context.Background(), "ip-b", now); !ok {
		t.Fatalf("ip-b should have its own bucket")
	}
}

func newMiniRedis(t *testing.T) *redis.Client {
	t.Helper()
	s, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(s.Close)
	return redis.NewClient(&redis.Options{Addr: s.Addr()})
}

func closeRedis(t *testing.T, rdb *redis.Client) {
	t.Helper()
	if err := rdb.Close(); err != nil {
		t.Fatalf("close redis: %v", err)
	}
}
