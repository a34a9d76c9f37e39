package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis shares counters across API instances. Each key lives for one window.
type Redis struct {
	client redis.Cmdable
	limit  int
	window time.Duration
	prefix string
}

func NewRedis(client redis.Cmdable, limit int, window time.Duration) *Redis {
	return &Redis{
		client: client,
		limit:  limit,
		window: window,
		prefix: "docvault:ratelimit:",
	}
}

func (rl *Redis) Allow(ctx context.Context, key string) (Decision, error) {
	k := rl.prefix + key

	var incr *redis.IntCmd
	var ttl *redis.DurationCmd

	_, err := rl.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, k)
		// NX: only the first hit of a window sets the expiry
		pipe.ExpireNX(ctx, k, rl.window)
		ttl = pipe.PTTL(ctx, k)
		return nil
	})
	if err != nil {
		return Decision{}, fmt.Errorf("ratelimit: %w", err)
	}

	count := int(incr.Val())
	if count <= rl.limit {
		return Decision{Allowed: true, Remaining: rl.limit - count}, nil
	}

	retryAfter := ttl.Val()
	if retryAfter < 0 {
		retryAfter = rl.window
	}
	return Decision{Allowed: false, RetryAfter: retryAfter}, nil
}
