package security

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// takeScript counts one hit and returns {hits, pttl}. The expiry is set only
// when the window opens, so the window does not slide.
var takeScript = redis.NewScript(`
local hits = redis.call("INCR", KEYS[1])
if hits == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return {hits, redis.call("PTTL", KEYS[1])}
`)

// RedisFixedWindowLimiter keeps throttle windows in Redis so every replica
// sees the same counts. On Redis errors it counts in process instead.
type RedisFixedWindowLimiter struct {
	client   redis.Scripter
	prefix   string
	timeout  time.Duration
	fallback *FixedWindowLimiter
}

var _ Limiter = (*RedisFixedWindowLimiter)(nil)

func NewRedisFixedWindowLimiter(client redis.Scripter, keyPrefix string) *RedisFixedWindowLimiter {
	return &RedisFixedWindowLimiter{
		client:   client,
		prefix:   keyPrefix + ":throttle:",
		timeout:  800 * time.Millisecond,
		fallback: NewFixedWindowLimiter(),
	}
}

func (l *RedisFixedWindowLimiter) Take(ctx context.Context, key string, limit int, window time.Duration) Quota {
	if limit <= 0 || window <= 0 {
		return Quota{}
	}

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	reply, err := takeScript.Run(ctx, l.client, []string{l.prefix + key}, max(window.Milliseconds(), 1)).Int64Slice()
	if err != nil || len(reply) != 2 {
		slog.Warn("redis throttle unavailable, counting in process", "key", key, "error", err)
		return l.fallback.Take(ctx, key, limit, window)
	}

	hits, pttl := int(reply[0]), time.Duration(reply[1])*time.Millisecond
	if pttl < 0 {
		pttl = window
	}
	if hits > limit {
		return Quota{ResetIn: pttl}
	}
	return Quota{Allowed: true, Remaining: limit - hits, ResetIn: pttl}
}
