package rate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newLimiterTest(t *testing.T, cfg Config) (*Limiter, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return New(rdb, cfg), mr
}

func TestCheckAfterBudget(t *testing.T) {
	l, _ := newLimiterTest(t, Config{MaxLoginAttempts: 3, LoginCooldownDuration: time.Minute})
	ctx := context.Background()
	k := Key{Identifier: "a@example.com"}

	for i := 0; i < 3; i++ {
		if err := l.Check(ctx, k); err != nil {
			t.Fatalf("attempt %d: unexpected check error %v", i, err)
		}
		if err := l.Fail(ctx, k); err != nil {
			t.Fatalf("attempt %d: unexpected fail error %v", i, err)
		}
	}
	if err := l.Check(ctx, k); !errors.Is(err, ErrLimited) {
		t.Fatalf("expected ErrLimited after budget, got %v", err)
	}
	if err := l.Check(ctx, Key{Identifier: "b@example.com"}); err != nil {
		t.Fatalf("other identifier should not be limited: %v", err)
	}

	n, err := l.Attempts(ctx, "A@Example.com ")
	if err != nil || n != 3 {
		t.Fatalf("expected 3 normalized attempts, got %d (%v)", n, err)
	}
	if n, _ := l.Attempts(ctx, "nobody@example.com"); n != 0 {
		t.Fatalf("unknown identifier reported %d attempts", n)
	}
}

func TestFailPastBudget(t *testing.T) {
	l, _ := newLimiterTest(t, Config{MaxLoginAttempts: 1, LoginCooldownDuration: time.Minute})
	ctx := context.Background()
	k := Key{Identifier: "a@example.com"}

	if err := l.Fail(ctx, k); err != nil {
		t.Fatalf("first failure: %v", err)
	}
	if err := l.Fail(ctx, k); !errors.Is(err, ErrLimited) {
		t.Fatalf("expected ErrLimited past the budget, got %v", err)
	}
}

func TestWindowStartsAtFirstFailure(t *testing.T) {
	l, mr := newLimiterTest(t, Config{MaxLoginAttempts: 2, LoginCooldownDuration: time.Minute})
	ctx := context.Background()
	k := Key{Identifier: "a@example.com"}

	_ = l.Fail(ctx, k)
	mr.FastForward(40 * time.Second)
	_ = l.Fail(ctx, k)
	if err := l.Check(ctx, k); !errors.Is(err, ErrLimited) {
		t.Fatalf("expected limited, got %v", err)
	}

	ttl, err := l.RetryAfter(ctx, k)
	if err != nil || ttl <= 0 || ttl > 20*time.Second {
		t.Fatalf("second failure must not extend the window: retry-after %v (%v)", ttl, err)
	}

	mr.FastForward(21 * time.Second)
	if err := l.Check(ctx, k); err != nil {
		t.Fatalf("expected window to close, got %v", err)
	}
}

func TestIPThrottle(t *testing.T) {
	l, _ := newLimiterTest(t, Config{EnableIPThrottle: true, MaxLoginAttempts: 2, LoginCooldownDuration: time.Minute})
	ctx := context.Background()

	_ = l.Fail(ctx, Key{Identifier: "a@example.com", IP: "10.0.0.1"})
	_ = l.Fail(ctx, Key{Identifier: "b@example.com", IP: "10.0.0.1"})

	if err := l.Check(ctx, Key{Identifier: "c@example.com", IP: "10.0.0.1"}); !errors.Is(err, ErrLimited) {
		t.Fatalf("expected IP throttle to engage, got %v", err)
	}
	if err := l.Check(ctx, Key{Identifier: "c@example.com", IP: "10.0.0.2"}); err != nil {
		t.Fatalf("different IP should pass, got %v", err)
	}
}

func TestIPIgnoredWhenThrottleOff(t *testing.T) {
	l, mr := newLimiterTest(t, Config{MaxLoginAttempts: 2, LoginCooldownDuration: time.Minute, Prefix: "t"})
	_ = l.Fail(context.Background(), Key{Identifier: "a@example.com", IP: "10.0.0.1"})
	if mr.Exists("t:ali:10.0.0.1") {
		t.Fatal("IP counter written with the throttle disabled")
	}
}

func TestResetClearsIdentifierOnly(t *testing.T) {
	l, mr := newLimiterTest(t, Config{EnableIPThrottle: true, MaxLoginAttempts: 5, LoginCooldownDuration: time.Minute, Prefix: "test"})
	ctx := context.Background()

	_ = l.Fail(ctx, Key{Identifier: "a@example.com", IP: "10.0.0.1"})
	if err := l.Reset(ctx, "a@example.com"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if mr.Exists("test:al:a@example.com") {
		t.Fatal("expected identifier counter removed")
	}
	if !mr.Exists("test:ali:10.0.0.1") {
		t.Fatal("expected IP counter kept")
	}
}

func TestRedisUnavailable(t *testing.T) {
	l, mr := newLimiterTest(t, Config{MaxLoginAttempts: 5, LoginCooldownDuration: time.Minute})
	mr.Close()

	err := l.Check(context.Background(), Key{Identifier: "a@example.com"})
	if !IsStoreError(err) || errors.Is(err, ErrLimited) {
		t.Fatalf("expected a store error, got %v", err)
	}
}
