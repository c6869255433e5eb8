package ratelimit

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aquatrack/aquatrack/internal/testutil"
)

func TestMemory_BurstThenRefill(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clock := testutil.NewClock(time.Date(2024, 7, 15, 12, 0, 0, 0, time.UTC))
	l := NewMemory(60, 3) // one token per second
	l.SetClock(clock.Now)

	for i := 0; i < 3; i++ {
		res, _ := l.Allow(ctx, "1.2.3.4")
		if !res.Allowed {
			t.Fatalf("request %d within burst was denied", i+1)
		}
		if res.Remaining != int64(2-i) {
			t.Errorf("request %d: Remaining = %d, want %d", i+1, res.Remaining, 2-i)
		}
	}

	res, _ := l.Allow(ctx, "1.2.3.4")
	if res.Allowed {
		t.Fatal("request beyond burst was allowed")
	}
	if res.RetryAfter != time.Second {
		t.Errorf("RetryAfter = %s, want 1s", res.RetryAfter)
	}

	clock.Advance(time.Second)
	if res, _ := l.Allow(ctx, "1.2.3.4"); !res.Allowed {
		t.Error("request after refill was denied")
	}
}

func TestMemory_KeysAreIndependent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	l := NewMemory(10, 1)

	if res, _ := l.Allow(ctx, "a"); !res.Allowed {
		t.Fatal("first request for a denied")
	}
	if res, _ := l.Allow(ctx, "a"); res.Allowed {
		t.Error("second request for a allowed")
	}
	if res, _ := l.Allow(ctx, "b"); !res.Allowed {
		t.Error("first request for b denied")
	}
}

func TestRedis_Integration(t *testing.T) {
	testutil.RequireEnv(t, "TEST_REDIS_URL")

	opt, err := redis.ParseURL(os.Getenv("TEST_REDIS_URL"))
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	client := redis.NewClient(opt)
	defer client.Close()

	ctx := context.Background()
	prefix := "aquatrack:test:ratelimit:" + testutil.UniqueID("ratelimit") + ":"
	l := NewRedis(client, prefix, 6, 2)

	for i := 0; i < 2; i++ {
		res, err := l.Allow(ctx, "ip")
		if err != nil {
			t.Fatalf("Allow failed: %v", err)
		}
		if !res.Allowed {
			t.Fatalf("request %d within burst was denied", i+1)
		}
	}

	res, err := l.Allow(ctx, "ip")
	if err != nil {
		t.Fatalf("Allow failed: %v", err)
	}
	if res.Allowed || res.RetryAfter <= 0 {
		t.Errorf("expected denial with retry hint, got %+v", res)
	}
}
