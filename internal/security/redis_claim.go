package security

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisOriginClaims shares origin claims across processes with SET NX.
// When Redis is unreachable the claim is taken locally instead.
type RedisOriginClaims struct {
	client    *redis.Client
	keyPrefix string
	fallback  *OriginClaims
	timeout   time.Duration

	mu     sync.Mutex
	tokens map[string]string
}

// Deletes the key only if it still holds our token, so an expired claim
// re-taken by another process is left alone.
var releaseClaimScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

func NewRedisOriginClaims(client *redis.Client, keyPrefix string) *RedisOriginClaims {
	return &RedisOriginClaims{
		client:    client,
		keyPrefix: keyPrefix,
		fallback:  NewOriginClaims(),
		timeout:   800 * time.Millisecond,
		tokens:    make(map[string]string),
	}
}

func (c *RedisOriginClaims) Claim(ctx context.Context, origin string, ttl time.Duration) (bool, error) {
	if c.client == nil {
		return c.fallback.Claim(ctx, origin, ttl)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	token := uuid.NewString()
	ok, err := c.client.SetNX(ctx, c.key(origin), token, ttl).Result()
	if err != nil {
		slog.Warn("redis origin claim unavailable, claiming locally", "error", err)
		return c.fallback.Claim(ctx, origin, ttl)
	}
	if !ok {
		return false, nil
	}

	c.mu.Lock()
	c.tokens[origin] = token
	c.mu.Unlock()
	return true, nil
}

func (c *RedisOriginClaims) Release(ctx context.Context, origin string) error {
	c.mu.Lock()
	token, held := c.tokens[origin]
	delete(c.tokens, origin)
	c.mu.Unlock()

	if !held || c.client == nil {
		return c.fallback.Release(ctx, origin)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := releaseClaimScript.Run(ctx, c.client, []string{c.key(origin)}, token).Err(); err != nil {
		return fmt.Errorf("release origin claim: %w", err)
	}
	return nil
}

func (c *RedisOriginClaims) key(origin string) string {
	return fmt.Sprintf("%s:claim:%s", c.keyPrefix, origin)
}
