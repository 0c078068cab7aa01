package rate

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter limits operations based on a provided key.
type Limiter interface {
	Allow(key string) (bool, error)
}

type keyedLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// LocalRateLimiter is an in memory Limiter with one token bucket per key.
// Buckets that have been idle for longer than the eviction window are
// dropped on the next Allow call.
type LocalRateLimiter struct {
	limit rate.Limit
	burst int
	idle  time.Duration
	now   func() time.Time

	sync.Mutex
	limiters  map[string]*keyedLimiter
	lastSweep time.Time
}

// NewLocalRateLimiter returns an in memory limiter allowing limit operations
// per second for each key, with bursts of up to burst operations. A burst
// below one uses the rounded up limit.
func NewLocalRateLimiter(limit rate.Limit, burst int) *LocalRateLimiter {
	if burst < 1 {
		burst = int(limit)
		if float64(burst) < float64(limit) || burst < 1 {
			burst++
		}
	}

	return &LocalRateLimiter{
		limit:    limit,
		burst:    burst,
		idle:     10 * time.Minute,
		now:      time.Now,
		limiters: make(map[string]*keyedLimiter),
	}
}

// Allow implements limiter.Allow.
func (l *LocalRateLimiter) Allow(key string) (bool, error) {
	l.Lock()
	now := l.now()

	if now.Sub(l.lastSweep) > l.idle {
		for k, v := range l.limiters {
			if now.Sub(v.lastSeen) > l.idle {
				delete(l.limiters, k)
			}
		}
		l.lastSweep = now
	}

	entry, ok := l.limiters[key]
	if !ok {
		entry = &keyedLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[key] = entry
	}
	entry.lastSeen = now
	l.Unlock()

	return entry.limiter.AllowN(now, 1), nil
}

// Size returns the number of keys currently tracked.
func (l *LocalRateLimiter) Size() int {
	l.Lock()
	defer l.Unlock()
	return len(l.limiters)
}

// NoLimiter never limits operations
type NoLimiter struct {
}

// Allow implements limiter.Allow.
func (n *NoLimiter) Allow(key string) (bool, error) {
	return true, nil
}
