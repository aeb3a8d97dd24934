package admission

import (
	"context"
	"fmt"
	"time"

	"portfolio-api/internal/store"
)

// DefaultDuplicateWindow is how long identical content stays blocked.
const DefaultDuplicateWindow = 10 * time.Minute

// DuplicateDetector rejects content-identical resubmissions inside a trailing
// window. It keys on email when present, else on origin.
type DuplicateDetector struct {
	store  Store
	window time.Duration
}

func NewDuplicateDetector(store Store, window time.Duration) *DuplicateDetector {
	return &DuplicateDetector{store: store, window: window}
}

// Check returns a *Rejection when a matching submission exists in the window.
// Without email and origin there is no key and the check is skipped.
func (d *DuplicateDetector) Check(ctx context.Context, email, origin, contentHash string, now time.Time) error {
	if email == "" && origin == "" {
		return nil
	}

	q := store.DuplicateQuery{
		ContentHash: contentHash,
		Since:       now.Add(-d.window),
	}
	if email != "" {
		q.Email = email
	} else {
		q.Origin = origin
	}

	latest, found, err := d.store.LatestDuplicate(ctx, q)
	if err != nil {
		return fmt.Errorf("look up duplicate submission: %w", err)
	}
	if !found {
		return nil
	}

	remaining := int((d.window - now.Sub(latest)) / time.Second)
	if remaining < 0 {
		remaining = 0
	}
	return &Rejection{Reason: ReasonDuplicate, RetryAfter: remaining}
}
