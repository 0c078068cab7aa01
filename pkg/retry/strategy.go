package retry

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"
)

// Strategy decides whether a failed action should be attempted again.
// Strategies may sleep, but must return false once ctx is done.
type Strategy func(ctx context.Context, attempts uint, err error) bool

// Limit caps the total number of attempts. maxAttempts should be >= 1.
func Limit(maxAttempts uint) Strategy {
	return func(_ context.Context, attempts uint, _ error) bool {
		return attempts < maxAttempts
	}
}

// RetriableErrors only retries errors matching one of retriableErrors.
func RetriableErrors(retriableErrors ...error) Strategy {
	return func(_ context.Context, _ uint, err error) bool {
		for _, e := range retriableErrors {
			if errors.Is(err, e) {
				return true
			}
		}

		return false
	}
}

// NonRetriableErrors retries everything except errors matching one of
// nonRetriableErrors.
func NonRetriableErrors(nonRetriableErrors ...error) Strategy {
	return func(_ context.Context, _ uint, err error) bool {
		for _, e := range nonRetriableErrors {
			if errors.Is(err, e) {
				return false
			}
		}

		return true
	}
}

// Backoff sleeps for the delay computed by delayFn, capped at maxBackoff.
func Backoff(delayFn BackoffFunc, maxBackoff time.Duration) Strategy {
	return BackoffWithJitter(delayFn, maxBackoff, 0)
}

// BackoffWithJitter is Backoff with the capped delay moved by up to
// +/- jitter (a fraction of the delay). A capped delay of 100ms with a
// jitter of 0.1 sleeps between 90ms and 110ms.
func BackoffWithJitter(delayFn BackoffFunc, maxBackoff time.Duration, jitter float64) Strategy {
	return func(ctx context.Context, attempts uint, _ error) bool {
		delay := time.Duration(math.Min(float64(maxBackoff), float64(delayFn(attempts))))
		if jitter > 0 {
			delay = time.Duration(float64(delay) * (1 + (rand.Float64()*jitter*2 - jitter)))
		}

		return sleeperImpl.Sleep(ctx, delay)
	}
}

type sleeper interface {
	// Sleep returns false if ctx finished before d elapsed.
	Sleep(ctx context.Context, d time.Duration) bool
}

type realSleeper struct{}

func (realSleeper) Sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

var sleeperImpl sleeper = realSleeper{}
