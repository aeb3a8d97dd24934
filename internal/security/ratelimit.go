package security

import (
	"context"
	"sync"
	"time"
)

// Quota is the state of one throttle key after a request was counted.
type Quota struct {
	Allowed   bool
	Remaining int
	// ResetIn is how long until the current window closes.
	ResetIn time.Duration
}

// Limiter is a request-level throttle keyed by scope and caller.
type Limiter interface {
	Take(ctx context.Context, key string, limit int, window time.Duration) Quota
}

type windowCounter struct {
	opened time.Time
	hits   int
}

// FixedWindowLimiter counts requests per key in fixed windows, in process.
type FixedWindowLimiter struct {
	mu        sync.Mutex
	counters  map[string]windowCounter
	lastSweep time.Time
	now       func() time.Time
}

var _ Limiter = (*FixedWindowLimiter)(nil)

func NewFixedWindowLimiter() *FixedWindowLimiter {
	return &FixedWindowLimiter{
		counters: make(map[string]windowCounter),
		now:      time.Now,
	}
}

func (l *FixedWindowLimiter) Take(ctx context.Context, key string, limit int, window time.Duration) Quota {
	if limit <= 0 || window <= 0 {
		return Quota{}
	}

	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.sweep(now, window)

	counter, ok := l.counters[key]
	if !ok || now.Sub(counter.opened) >= window {
		counter = windowCounter{opened: now}
	}
	resetIn := window - now.Sub(counter.opened)

	if counter.hits >= limit {
		return Quota{ResetIn: resetIn}
	}
	counter.hits++
	l.counters[key] = counter
	return Quota{Allowed: true, Remaining: limit - counter.hits, ResetIn: resetIn}
}

// sweep drops closed windows at most once per window. Callers hold l.mu.
func (l *FixedWindowLimiter) sweep(now time.Time, window time.Duration) {
	if now.Sub(l.lastSweep) < window {
		return
	}
	l.lastSweep = now
	for key, counter := range l.counters {
		if now.Sub(counter.opened) >= window {
			delete(l.counters, key)
		}
	}
}
