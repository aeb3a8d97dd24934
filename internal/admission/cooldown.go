package admission

import (
	"context"
	"fmt"
	"time"
)

// DefaultCooldown is the minimum spacing between successful submissions from
// one origin.
const DefaultCooldown = 60 * time.Second

// CooldownGate allows one successful submission per origin per interval.
type CooldownGate struct {
	store    Store
	interval time.Duration
}

func NewCooldownGate(store Store, interval time.Duration) *CooldownGate {
	return &CooldownGate{store: store, interval: interval}
}

// Check returns a *Rejection while origin is cooling down. An empty origin
// cannot be keyed and always passes.
func (g *CooldownGate) Check(ctx context.Context, origin string, now time.Time) error {
	if origin == "" {
		return nil
	}

	latest, found, err := g.store.LatestByOrigin(ctx, origin)
	if err != nil {
		return fmt.Errorf("look up latest submission for origin: %w", err)
	}
	if !found {
		return nil
	}

	elapsed := now.Sub(latest)
	if elapsed < 0 {
		elapsed = 0
	}
	if elapsed >= g.interval {
		return nil
	}

	return &Rejection{Reason: ReasonCooldown, RetryAfter: g.retryAfter(elapsed)}
}

// retryAfter floors the remaining time to whole seconds, within [1, interval].
func (g *CooldownGate) retryAfter(elapsed time.Duration) int {
	seconds := int((g.interval - elapsed) / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	if ceiling := int(g.interval / time.Second); ceiling >= 1 && seconds > ceiling {
		seconds = ceiling
	}
	return seconds
}

// Seconds is the interval reported to clients after an accepted submission.
func (g *CooldownGate) Seconds() int {
	return int(g.interval / time.Second)
}
