package rate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds guard tuning parameters.
type Config struct {
	MaxAttempts      int
	Window           time.Duration
	EnableIPThrottle bool
}

// Guard throttles repeated failed logins per identity (and optionally per
// client IP) using fixed-window Redis counters.
type Guard struct {
	redis  redis.UniversalClient
	config Config
}

// New creates a Guard backed by the given Redis client.
func New(redisClient redis.UniversalClient, cfg Config) *Guard {
	return &Guard{
		redis:  redisClient,
		config: cfg,
	}
}

// RecordAttempt charges one login attempt against identity (and ip when
// IP throttling is enabled). At or above the attempt budget it returns a
// [*LimitError] without incrementing further; otherwise the counter goes
// up by one and, on the first hit of a fresh window, its TTL is armed.
func (g *Guard) RecordAttempt(ctx context.Context, identity, ip string) error {
	if err := g.recordKey(ctx, attemptKey(identity)); err != nil {
		return err
	}

	if g.config.EnableIPThrottle && ip != "" {
		if err := g.recordKey(ctx, attemptIPKey(ip)); err != nil {
			return err
		}
	}

	return nil
}

// Clear deletes the counters for identity (and ip). Called after a
// verified-correct login so a later failure starts counting from zero.
func (g *Guard) Clear(ctx context.Context, identity, ip string) error {
	keys := []string{attemptKey(identity)}
	if g.config.EnableIPThrottle && ip != "" {
		keys = append(keys, attemptIPKey(ip))
	}

	if err := g.redis.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return nil
}

// Attempts returns the current counter for an identity. Missing keys
// return zero and do not reveal whether the identity exists.
func (g *Guard) Attempts(ctx context.Context, identity string) (int, error) {
	count, err := g.redis.Get(ctx, attemptKey(identity)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if count < 0 {
		return 0, nil
	}
	return int(count), nil
}

func (g *Guard) recordKey(ctx context.Context, key string) error {
	count, err := g.redis.Get(ctx, key).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	if err == nil && count >= int64(g.config.MaxAttempts) {
		ttl, terr := g.redis.TTL(ctx, key).Result()
		if terr != nil {
			return fmt.Errorf("%w: %v", ErrRedisUnavailable, terr)
		}
		if ttl <= 0 {
			// Counter without a TTL should not happen; assume a full window.
			ttl = g.config.Window
		}
		return &LimitError{RetryAfter: ttl}
	}

	next, err := g.redis.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	// Fixed-window semantics: arm the TTL only on the first hit.
	if next == 1 {
		if err := g.redis.Expire(ctx, key, g.config.Window).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}

	return nil
}

func attemptKey(identity string) string {
	return "login_attempt:" + identity
}

func attemptIPKey(ip string) string {
	return "login_attempt_ip:" + ip
}
