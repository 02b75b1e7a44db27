package rate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestGuard(t *testing.T, cfg Config) (*Guard, *miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return New(rdb, cfg), mr, rdb
}

func TestRecordAttemptCountsUpToLimit(t *testing.T) {
	guard, mr, _ := newTestGuard(t, Config{MaxAttempts: 5, Window: 600 * time.Second})
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		if err := guard.RecordAttempt(ctx, "alice@example.com", ""); err != nil {
			t.Fatalf("attempt %d refused: %v", i, err)
		}
		if got, _ := mr.Get("login_attempt:alice@example.com"); got == "" {
			t.Fatalf("counter key missing after attempt %d", i)
		}
		n, err := guard.Attempts(ctx, "alice@example.com")
		if err != nil {
			t.Fatalf("Attempts failed: %v", err)
		}
		if n != i {
			t.Fatalf("counter after attempt %d = %d", i, n)
		}
	}

	err := guard.RecordAttempt(ctx, "alice@example.com", "")
	var limit *LimitError
	if !errors.As(err, &limit) {
		t.Fatalf("sixth attempt: err = %v, want *LimitError", err)
	}
	if !errors.Is(err, ErrRateLimited) {
		t.Fatal("LimitError does not match ErrRateLimited")
	}
	if limit.RetryAfter <= 0 || limit.RetryAfter > 600*time.Second {
		t.Fatalf("RetryAfter = %s, want within the window", limit.RetryAfter)
	}

	// A refused attempt must not increment further.
	n, err := guard.Attempts(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("Attempts failed: %v", err)
	}
	if n != 5 {
		t.Fatalf("counter after refusal = %d, want 5", n)
	}
}

func TestFirstAttemptArmsWindowTTL(t *testing.T) {
	guard, mr, _ := newTestGuard(t, Config{MaxAttempts: 5, Window: 10 * time.Minute})

	if err := guard.RecordAttempt(context.Background(), "alice@example.com", ""); err != nil {
		t.Fatalf("RecordAttempt failed: %v", err)
	}
	if ttl := mr.TTL("login_attempt:alice@example.com"); ttl != 10*time.Minute {
		t.Fatalf("window TTL = %s, want 10m", ttl)
	}

	// Later attempts ride the existing window.
	mr.FastForward(4 * time.Minute)
	if err := guard.RecordAttempt(context.Background(), "alice@example.com", ""); err != nil {
		t.Fatalf("RecordAttempt failed: %v", err)
	}
	if ttl := mr.TTL("login_attempt:alice@example.com"); ttl != 6*time.Minute {
		t.Fatalf("window TTL after second attempt = %s, want 6m", ttl)
	}
}

func TestWindowExpiryResetsCounter(t *testing.T) {
	guard, mr, _ := newTestGuard(t, Config{MaxAttempts: 2, Window: time.Minute})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := guard.RecordAttempt(ctx, "alice@example.com", ""); err != nil {
			t.Fatalf("RecordAttempt failed: %v", err)
		}
	}
	if err := guard.RecordAttempt(ctx, "alice@example.com", ""); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("err = %v, want ErrRateLimited", err)
	}

	mr.FastForward(2 * time.Minute)

	if err := guard.RecordAttempt(ctx, "alice@example.com", ""); err != nil {
		t.Fatalf("attempt in fresh window refused: %v", err)
	}
	n, err := guard.Attempts(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("Attempts failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("fresh-window counter = %d, want 1", n)
	}
}

func TestClearRemovesCounter(t *testing.T) {
	guard, _, _ := newTestGuard(t, Config{MaxAttempts: 5, Window: time.Minute})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := guard.RecordAttempt(ctx, "alice@example.com", ""); err != nil {
			t.Fatalf("RecordAttempt failed: %v", err)
		}
	}
	if err := guard.Clear(ctx, "alice@example.com", ""); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	n, err := guard.Attempts(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("Attempts failed: %v", err)
	}
	if n != 0 {
		t.Fatalf("counter after Clear = %d, want 0", n)
	}

	// Counting restarts from one, not one-plus-prior.
	if err := guard.RecordAttempt(ctx, "alice@example.com", ""); err != nil {
		t.Fatalf("RecordAttempt failed: %v", err)
	}
	n, err = guard.Attempts(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("Attempts failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("counter after Clear+attempt = %d, want 1", n)
	}
}

func TestIPThrottleCountsSeparately(t *testing.T) {
	guard, _, rdb := newTestGuard(t, Config{MaxAttempts: 2, Window: time.Minute, EnableIPThrottle: true})
	ctx := context.Background()

	// Distinct identities behind one IP share the IP budget.
	if err := guard.RecordAttempt(ctx, "alice@example.com", "10.0.0.9"); err != nil {
		t.Fatalf("RecordAttempt failed: %v", err)
	}
	if err := guard.RecordAttempt(ctx, "bob@example.com", "10.0.0.9"); err != nil {
		t.Fatalf("RecordAttempt failed: %v", err)
	}
	err := guard.RecordAttempt(ctx, "carol@example.com", "10.0.0.9")
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("err = %v, want ErrRateLimited", err)
	}

	got, err := rdb.Get(ctx, "login_attempt_ip:10.0.0.9").Int64()
	if err != nil {
		t.Fatalf("read ip counter: %v", err)
	}
	if got != 2 {
		t.Fatalf("ip counter = %d, want 2", got)
	}
}

func TestIdentitiesAreIndependent(t *testing.T) {
	guard, _, _ := newTestGuard(t, Config{MaxAttempts: 1, Window: time.Minute})
	ctx := context.Background()

	if err := guard.RecordAttempt(ctx, "alice@example.com", ""); err != nil {
		t.Fatalf("RecordAttempt failed: %v", err)
	}
	if err := guard.RecordAttempt(ctx, "alice@example.com", ""); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("err = %v, want ErrRateLimited", err)
	}
	if err := guard.RecordAttempt(ctx, "bob@example.com", ""); err != nil {
		t.Fatalf("independent identity refused: %v", err)
	}
}

func TestRedisUnavailable(t *testing.T) {
	guard, mr, _ := newTestGuard(t, Config{MaxAttempts: 5, Window: time.Minute})
	ctx := context.Background()
	mr.Close()

	if err := guard.RecordAttempt(ctx, "alice@example.com", ""); !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("RecordAttempt err = %v, want ErrRedisUnavailable", err)
	}
	if err := guard.Clear(ctx, "alice@example.com", ""); !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("Clear err = %v, want ErrRedisUnavailable", err)
	}
	if _, err := guard.Attempts(ctx, "alice@example.com"); !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("Attempts err = %v, want ErrRedisUnavailable", err)
	}
}
