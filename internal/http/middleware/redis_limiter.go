package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// slidingWindowScript counts hits in the trailing window and records the new
// hit only when under the limit, all in one round trip.
var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local member = ARGV[4]

redis.call("ZREMRANGEBYSCORE", key, 0, now - window)
local count = redis.call("ZCARD", key)
if count < limit then
  redis.call("ZADD", key, now, member)
  redis.call("PEXPIRE", key, window)
  return {1, limit - count - 1, 0}
end
local oldest = redis.call("ZRANGE", key, 0, 0, "WITHSCORES")
local retry = window
if oldest[2] then
  retry = (tonumber(oldest[2]) + window) - now
end
return {0, 0, retry}
`)

type redisSlidingWindowLimiter struct {
	client    redis.UniversalClient
	keyPrefix string
}

// NewRedisSlidingWindowLimiter shares one rate limit budget across all
// replicas. Backend errors surface to the caller so the RateLimiter can apply
// its fail-open or fail-closed mode.
func NewRedisSlidingWindowLimiter(client redis.UniversalClient, keyPrefix string) Limiter {
	if keyPrefix == "" {
		keyPrefix = "ratelimit"
	}
	return &redisSlidingWindowLimiter{client: client, keyPrefix: keyPrefix}
}

func (l *redisSlidingWindowLimiter) Allow(ctx context.Context, key string, policy RateLimitPolicy) (Decision, error) {
	policy = normalizePolicy(policy)
	now := time.Now()
	member := fmt.Sprintf("%d-%d", now.UnixNano(), now.Nanosecond())

	res, err := slidingWindowScript.Run(ctx, l.client,
		[]string{l.keyPrefix + ":" + key},
		now.UnixMilli(),
		policy.SustainedWindow.Milliseconds(),
		policy.SustainedLimit,
		member,
	).Int64Slice()
	if err != nil {
		return Decision{}, err
	}
	if len(res) != 3 {
		return Decision{}, fmt.Errorf("unexpected rate limit script reply: %v", res)
	}

	allowed := res[0] == 1
	remaining := int(res[1])
	retryAfter := time.Duration(res[2]) * time.Millisecond
	if !allowed && retryAfter <= 0 {
		retryAfter = time.Second
	}
	resetAt := now.Add(policy.SustainedWindow)
	if !allowed {
		resetAt = now.Add(retryAfter)
	}
	return Decision{
		Allowed:    allowed,
		RetryAfter: retryAfter,
		Remaining:  remaining,
		ResetAt:    resetAt,
		Reason:     "window",
	}, nil
}
