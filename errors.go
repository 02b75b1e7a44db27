package authcore

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrUnauthorized is the single externally visible failure for every
	// authentication problem: bad credentials, and any refresh token that
	// is forged, expired, already rotated, or never existed. Collapsing
	// these denies an attacker a distinguishing oracle.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrConflict reports a duplicate username or email at registration.
	ErrConflict = errors.New("principal already exists")
	// ErrPrincipalNotFound is returned by UserDirectory implementations
	// when no principal matches the identity. The engine translates it to
	// ErrUnauthorized before it reaches a caller.
	ErrPrincipalNotFound = errors.New("principal not found")
	// ErrLoginRateLimited is the sentinel matched by errors.Is when the
	// login-attempt budget is exhausted. The concrete error is always a
	// [*RateLimitError] carrying the retry-after hint.
	ErrLoginRateLimited = errors.New("login rate limited")
	// ErrStoreUnavailable wraps cache and directory connectivity failures.
	// It is deliberately distinct from ErrUnauthorized: callers should
	// retry, not discard a session that may still be valid.
	ErrStoreUnavailable = errors.New("auth backend unavailable")
	// ErrEngineNotReady is returned when an Engine method is called on a
	// nil or unbuilt engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)

// RateLimitError reports a throttled login together with the estimated
// time until the current window expires.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("login rate limited, retry in %s", e.RetryAfter)
}

// Is makes errors.Is(err, ErrLoginRateLimited) match any RateLimitError.
func (e *RateLimitError) Is(target error) bool {
	return target == ErrLoginRateLimited
}
