package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// slidingWindow removes expired members, admits the request if the window
// has room, and returns the count after admission (or -1 when limited).
var slidingWindow = redis.NewScript(`
	local key = KEYS[1]
	local window_start = tonumber(ARGV[1])
	local now = tonumber(ARGV[2])
	local rate = tonumber(ARGV[3])
	local window_ms = tonumber(ARGV[4])

	redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)

	local count = redis.call('ZCARD', key)
	if count >= rate then
		return -1
	end

	redis.call('ZADD', key, now, now)
	redis.call('PEXPIRE', key, window_ms)

	return count + 1
`)

// RedisLimiter is a sliding-window limiter backed by a Redis sorted set,
// for deployments running more than one API instance.
type RedisLimiter struct {
	client    redis.Cmdable
	keyPrefix string
	rate      int
	window    time.Duration
}

// NewRedisLimiter creates a limiter allowing rate requests per window.
// The client's lifecycle is managed by the caller.
func NewRedisLimiter(client redis.Cmdable, keyPrefix string, rate int, window time.Duration) *RedisLimiter {
	if keyPrefix == "" {
		keyPrefix = "ratelimit:"
	}
	return &RedisLimiter{
		client:    client,
		keyPrefix: keyPrefix,
		rate:      rate,
		window:    window,
	}
}

// Allow records a request for key and reports whether it is within the limit.
func (r *RedisLimiter) Allow(ctx context.Context, key string) (Result, error) {
	now := time.Now()
	windowStart := now.Add(-r.window).UnixMicro()

	count, err := slidingWindow.Run(ctx, r.client, []string{r.keyPrefix + key},
		windowStart,
		now.UnixMicro(),
		r.rate,
		r.window.Milliseconds(),
	).Int()
	if err != nil {
		return Result{}, fmt.Errorf("rate limit script: %w", err)
	}

	res := Result{Limit: r.rate, ResetAt: now.Add(r.window)}
	if count < 0 {
		return res, nil
	}

	res.Allowed = true
	res.Remaining = r.rate - count
	return res, nil
}

// Reset clears the counter for a key.
func (r *RedisLimiter) Reset(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.keyPrefix+key).Err()
}

// Close is a no-op; the Redis client is managed by the caller.
func (r *RedisLimiter) Close() error {
	return nil
}
