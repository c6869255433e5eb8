package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// tokenBucketScript refills and consumes atomically.
// Returns {allowed, retry_after_seconds, remaining}.
var tokenBucketScript = redis.NewScript(`
	local key = KEYS[1]
	local rate = tonumber(ARGV[1])
	local burst = tonumber(ARGV[2])
	local now = tonumber(ARGV[3])
	local ttl = tonumber(ARGV[4])

	local data = redis.call('HMGET', key, 'tokens', 'last_update')
	local tokens = tonumber(data[1]) or burst
	local last_update = tonumber(data[2]) or now

	tokens = math.min(burst, tokens + ((now - last_update) * rate))

	local allowed = 0
	local retry_after = 0
	if tokens >= 1 then
		tokens = tokens - 1
		allowed = 1
	else
		retry_after = math.ceil((1 - tokens) / rate)
	end

	redis.call('HSET', key, 'tokens', tokens, 'last_update', now)
	redis.call('EXPIRE', key, ttl)

	return {allowed, retry_after, math.floor(tokens)}
`)

// Redis is a token bucket shared by every process using the same Redis.
type Redis struct {
	client redis.Scripter
	prefix string
	rate   float64
	burst  int
	limit  int
	ttl    int
}

// NewRedis creates a Redis-backed limiter. Keys are stored under prefix.
func NewRedis(client redis.Scripter, prefix string, perMinute, burst int) *Redis {
	rate := float64(perMinute) / 60
	ttl := int(float64(burst)/rate) + 60
	return &Redis{
		client: client,
		prefix: prefix,
		rate:   rate,
		burst:  burst,
		limit:  perMinute,
		ttl:    ttl,
	}
}

// Allow consumes one token for key.
func (r *Redis) Allow(ctx context.Context, key string) (Result, error) {
	res, err := tokenBucketScript.Run(ctx, r.client,
		[]string{r.prefix + key},
		r.rate, r.burst, time.Now().Unix(), r.ttl,
	).Int64Slice()
	if err != nil {
		return Result{}, fmt.Errorf("rate limit script: %w", err)
	}
	if len(res) != 3 {
		return Result{}, fmt.Errorf("rate limit script: unexpected reply %v", res)
	}

	return Result{
		Allowed:    res[0] == 1,
		Limit:      r.limit,
		Remaining:  res[2],
		RetryAfter: time.Duration(res[1]) * time.Second,
	}, nil
}
