package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// allowScript increments the counter, starting the window on first use.
var allowScript = redis.NewScript(`
	local current = redis.call("INCR", KEYS[1])
	if current == 1 then
		redis.call("PEXPIRE", KEYS[1], ARGV[2])
	end
	if current > tonumber(ARGV[1]) then
		return 0
	end
	return 1
`)

// RedisLimiter shares windows across every server instance.
type RedisLimiter struct {
	client    redis.Scripter
	keyPrefix string
	limit     int
	period    time.Duration
}

// NewRedisLimiter constructs a RedisLimiter.
func NewRedisLimiter(client redis.Scripter, keyPrefix string, limit int, period time.Duration) *RedisLimiter {
	if keyPrefix == "" {
		keyPrefix = "linkseal-rate:"
	}
	return &RedisLimiter{
		client:    client,
		keyPrefix: keyPrefix,
		limit:     limit,
		period:    period,
	}
}

func (r *RedisLimiter) key(addr string) string {
	return fmt.Sprintf("%s%s", r.keyPrefix, addr)
}

func (r *RedisLimiter) Allow(ctx context.Context, key string) error {
	res, err := allowScript.Run(ctx, r.client, []string{r.key(key)}, r.limit, r.period.Milliseconds()).Int()
	if err != nil {
		return fmt.Errorf("rate limit script: %w", err)
	}
	if res == 0 {
		return ErrLimitExceeded
	}
	return nil
}
