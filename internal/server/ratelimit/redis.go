package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "rl:"

// fixedWindowScript checks and increments the counter atomically.
// KEYS[1] counter key, ARGV[1] max requests, ARGV[2] window in ms.
// Returns 1 when limited.
var fixedWindowScript = redis.NewScript(`
local current = tonumber(redis.call("GET", KEYS[1]) or "0")
if current >= tonumber(ARGV[1]) then
	return 1
end
current = redis.call("INCR", KEYS[1])
if current == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// Redis is a Limiter shared between server instances through Redis
type Redis struct {
	client redis.UniversalClient
	prefix string
	config Config
}

// NewRedis creates a Redis backed limiter. An empty prefix means "rl:".
func NewRedis(client redis.UniversalClient, cfg Config, prefix string) *Redis {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}

	return &Redis{
		client: client,
		prefix: prefix,
		config: cfg.withDefaults(),
	}
}

// IsRateLimited implements Limiter
func (r *Redis) IsRateLimited(ctx context.Context, key string) (bool, error) {
	limited, err := fixedWindowScript.Run(ctx, r.client,
		[]string{r.prefix + key},
		r.config.MaxRequests,
		r.config.Window.Milliseconds(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return limited == 1, nil
}

// RemainingTime implements Limiter
func (r *Redis) RemainingTime(ctx context.Context, key string) (time.Duration, error) {
	ttl, err := r.client.PTTL(ctx, r.prefix+key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	// -2 нет ключа, -1 нет TTL
	if ttl < 0 {
		return 0, nil
	}

	return ttl, nil
}
