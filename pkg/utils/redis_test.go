package utils

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// newTestClient returns a client that is never dialed; input validation
// fires before any command is issued.
func newTestClient() *redis.Client {
	return redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
}

func TestClaimOnce_RejectsBadInput(t *testing.T) {
	ctx := context.Background()

	if _, err := ClaimOnce(ctx, nil, "k", time.Minute); err == nil {
		t.Fatalf("expected error for nil client")
	}

	rdb := newTestClient()
	if _, err := ClaimOnce(ctx, rdb, "", time.Minute); err == nil {
		t.Fatalf("expected error for empty key")
	}
	if _, err := ClaimOnce(ctx, rdb, "k", 0); err == nil {
		t.Fatalf("expected error for zero ttl")
	}
}

func TestReleaseClaim_RejectsBadInput(t *testing.T) {
	ctx := context.Background()

	if err := ReleaseClaim(ctx, nil, "k"); err == nil {
		t.Fatalf("expected error for nil client")
	}
	if err := ReleaseClaim(ctx, newTestClient(), ""); err == nil {
		t.Fatalf("expected error for empty key")
	}
}

func TestRedisConfig_Defaults(t *testing.T) {
	got := RedisConfig{}.withDefaults()
	if got.DialTimeout != 3*time.Second {
		t.Fatalf("DialTimeout = %v", got.DialTimeout)
	}
	if got.PoolSize != 20 {
		t.Fatalf("PoolSize = %d", got.PoolSize)
	}
	if got.PingTimeout != 2*time.Second {
		t.Fatalf("PingTimeout = %v", got.PingTimeout)
	}
}
