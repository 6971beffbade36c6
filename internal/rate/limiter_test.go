package rate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestLimiter(t *testing.T, cfg Config) (*Limiter, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return New(rdb, cfg), mr
}

func TestLimiterBudget(t *testing.T) {
	limiter, _ := newTestLimiter(t, Config{MaxAttempts: 3, Cooldown: time.Minute})
	ctx := context.Background()

	if err := limiter.Check(ctx, "ana@x.com", ""); err != nil {
		t.Fatalf("Check before any failure = %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := limiter.RecordFailure(ctx, "ana@x.com", ""); err != nil {
			t.Fatalf("RecordFailure %d = %v", i, err)
		}
	}

	if err := limiter.Check(ctx, "ana@x.com", ""); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("Check after budget exhausted = %v, want ErrRateLimited", err)
	}

	// Another identifier is unaffected.
	if err := limiter.Check(ctx, "bo@x.com", ""); err != nil {
		t.Fatalf("Check for other identifier = %v", err)
	}
}

func TestLimiterResetClearsBudget(t *testing.T) {
	limiter, _ := newTestLimiter(t, Config{MaxAttempts: 2, Cooldown: time.Minute})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := limiter.RecordFailure(ctx, "ana@x.com", ""); err != nil {
			t.Fatalf("RecordFailure = %v", err)
		}
	}
	if err := limiter.Check(ctx, "ana@x.com", ""); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("Check = %v, want ErrRateLimited", err)
	}

	if err := limiter.Reset(ctx, "ana@x.com", ""); err != nil {
		t.Fatalf("Reset = %v", err)
	}
	if err := limiter.Check(ctx, "ana@x.com", ""); err != nil {
		t.Fatalf("Check after reset = %v", err)
	}
}

func TestLimiterWindowExpires(t *testing.T) {
	limiter, mr := newTestLimiter(t, Config{MaxAttempts: 1, Cooldown: time.Minute})
	ctx := context.Background()

	if err := limiter.RecordFailure(ctx, "ana@x.com", ""); err != nil {
		t.Fatalf("RecordFailure = %v", err)
	}
	if err := limiter.Check(ctx, "ana@x.com", ""); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("Check = %v, want ErrRateLimited", err)
	}

	mr.FastForward(2 * time.Minute)

	if err := limiter.Check(ctx, "ana@x.com", ""); err != nil {
		t.Fatalf("Check after window = %v", err)
	}
}

func TestLimiterPerIP(t *testing.T) {
	limiter, _ := newTestLimiter(t, Config{MaxAttempts: 2, Cooldown: time.Minute, PerIP: true})
	ctx := context.Background()

	// Different identifiers, same IP: the IP budget still trips.
	if err := limiter.RecordFailure(ctx, "a@x.com", "10.0.0.9"); err != nil {
		t.Fatalf("RecordFailure = %v", err)
	}
	if err := limiter.RecordFailure(ctx, "b@x.com", "10.0.0.9"); err != nil {
		t.Fatalf("RecordFailure = %v", err)
	}
	if err := limiter.Check(ctx, "c@x.com", "10.0.0.9"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("Check = %v, want ErrRateLimited", err)
	}
	if err := limiter.Check(ctx, "c@x.com", "10.0.0.10"); err != nil {
		t.Fatalf("Check from other IP = %v", err)
	}
}
