package security

import (
	"context"
	"sync"
	"time"
)

// OriginClaims hands out one in-flight admission slot per origin. A claim
// expires after its ttl even if never released.
type OriginClaims struct {
	mu      sync.Mutex
	records map[string]time.Time
	now     func() time.Time
}

func NewOriginClaims() *OriginClaims {
	return &OriginClaims{
		records: make(map[string]time.Time),
		now:     time.Now,
	}
}

// Claim returns true when origin was free and is now held by the caller.
func (c *OriginClaims) Claim(ctx context.Context, origin string, ttl time.Duration) (bool, error) {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if expireAt, exists := c.records[origin]; exists && now.Before(expireAt) {
		return false, nil
	}

	c.records[origin] = now.Add(ttl)
	for key, expireAt := range c.records {
		if !now.Before(expireAt) {
			delete(c.records, key)
		}
	}
	return true, nil
}

func (c *OriginClaims) Release(ctx context.Context, origin string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.records, origin)
	return nil
}
