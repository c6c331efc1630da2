package httpx

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// tokenBucketScript refills and takes one token atomically. Returns
// {allowed, remaining, retry_after_ms}.
var tokenBucketScript = redis.NewScript(`
local key = KEYS[1]
local now_ms = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local interval_ms = tonumber(ARGV[3])
local ttl_seconds = tonumber(ARGV[4])

local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
local tokens = tonumber(state[1])
local last_refill = tonumber(state[2])
if tokens == nil or last_refill == nil then
  tokens = capacity
  last_refill = now_ms
end

local elapsed = math.max(0, now_ms - last_refill)
local refill = math.floor(elapsed / interval_ms)
if refill > 0 then
  tokens = math.min(capacity, tokens + refill)
  last_refill = last_refill + refill * interval_ms
end

local allowed = 0
local retry_ms = 0
if tokens > 0 then
  allowed = 1
  tokens = tokens - 1
else
  retry_ms = math.max(0, interval_ms - (now_ms - last_refill))
end

redis.call('HSET', key, 'tokens', tokens, 'last_refill_ms', last_refill)
redis.call('EXPIRE', key, ttl_seconds)
return {allowed, tokens, retry_ms}
`)

// redisLimiter shares buckets across instances through Redis.
type redisLimiter struct {
	rdb    redis.Scripter
	cfg    RateLimitConfig
	prefix string
	now    func() time.Time
}

// NewRedisLimiter returns a token bucket limiter stored in Redis under
// prefix. One token is added every Window/RequestsPerWindow up to Burst.
func NewRedisLimiter(rdb redis.Scripter, cfg RateLimitConfig, prefix string) Limiter {
	return &redisLimiter{rdb: rdb, cfg: cfg, prefix: prefix, now: time.Now}
}

func (l *redisLimiter) Config() RateLimitConfig { return l.cfg }

func (l *redisLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	interval := l.cfg.Window / time.Duration(max(l.cfg.RequestsPerWindow, 1))
	ttl := max(int64(l.cfg.Window/time.Second)*2, 1)

	res, err := tokenBucketScript.Run(ctx, l.rdb,
		[]string{l.prefix + ":" + key},
		l.now().UnixMilli(),
		l.cfg.Burst,
		max(interval.Milliseconds(), 1),
		ttl,
	).Int64Slice()
	if err != nil {
		return false, 0, fmt.Errorf("httpx: redis rate limit: %w", err)
	}
	if len(res) != 3 {
		return false, 0, fmt.Errorf("httpx: redis rate limit: unexpected reply %v", res)
	}

	return res[0] == 1, time.Duration(res[2]) * time.Millisecond, nil
}

// LimiterFactory builds the limiter for a named profile.
type LimiterFactory func(name string, cfg RateLimitConfig) Limiter

// MemoryLimiters is the LimiterFactory for single instance deployments.
func MemoryLimiters(_ string, cfg RateLimitConfig) Limiter { return NewMemoryLimiter(cfg) }

// RedisLimiters returns a LimiterFactory sharing buckets through rdb.
func RedisLimiters(rdb redis.Scripter, prefix string) LimiterFactory {
	return func(name string, cfg RateLimitConfig) Limiter {
		return NewRedisLimiter(rdb, cfg, prefix+":"+name)
	}
}
