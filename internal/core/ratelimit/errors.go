package ratelimit

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrRateLimited matches every rejection returned by Limiter.Check.
var ErrRateLimited = errors.New("rate limit exceeded")

// RejectedError reports a throttled identifier and when it may retry.
type RejectedError struct {
	Identifier string
	RetryAfter time.Duration
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("rate limit exceeded. Try again in %d seconds", e.RetryAfterSeconds())
}

// Is lets callers test with errors.Is(err, ErrRateLimited).
func (e *RejectedError) Is(target error) bool {
	return target == ErrRateLimited
}

// RetryAfterSeconds rounds RetryAfter up to whole seconds.
func (e *RejectedError) RetryAfterSeconds() int {
	if e == nil || e.RetryAfter <= 0 {
		return 0
	}
	return int(math.Ceil(e.RetryAfter.Seconds()))
}
