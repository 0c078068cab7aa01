package retry

import (
	"math"
	"time"
)

// BackoffFunc returns the delay before the next attempt. attempts starts at 1.
type BackoffFunc func(attempts uint) time.Duration

// ConstantBackoff always waits interval.
func ConstantBackoff(interval time.Duration) BackoffFunc {
	return func(uint) time.Duration {
		return interval
	}
}

// ExponentialBackoff waits baseDelay * factor^(attempts-1), saturating at the
// largest representable duration.
//
// Ex. ExponentialBackoff(time.Second, 2) = 1s, 2s, 4s, 8s, ...
func ExponentialBackoff(baseDelay time.Duration, factor float64) BackoffFunc {
	return func(attempts uint) time.Duration {
		delay := float64(baseDelay) * math.Pow(factor, float64(attempts-1))
		if delay >= math.MaxInt64 || delay < 0 {
			return math.MaxInt64
		}
		return time.Duration(delay)
	}
}
