package rate

import (
	"errors"
	"fmt"
	"time"
)

// ErrRateLimited is the sentinel matched by errors.Is for any guard
// refusal. The concrete error is always a [*LimitError].
var ErrRateLimited = errors.New("rate limited")

// ErrRedisUnavailable wraps Redis transport failures.
var ErrRedisUnavailable = errors.New("redis unavailable")

// LimitError reports a refused attempt together with the time remaining
// in the current window.
type LimitError struct {
	RetryAfter time.Duration
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("rate limited, retry in %s", e.RetryAfter)
}

// Is makes errors.Is(err, ErrRateLimited) match any LimitError.
func (e *LimitError) Is(target error) bool {
	return target == ErrRateLimited
}
