package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"sankalp/internal/ratelimit/models"
)

const keyPrefix = "sankalp:rl:"

// slidingWindow trims the sorted set to the window, then adds the request
// when the budget allows. It returns {allowed, count, oldest_ms}.
var slidingWindow = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
local count = redis.call('ZCARD', key)
local allowed = 0
if count < limit then
  redis.call('ZADD', key, now, ARGV[4])
  count = count + 1
  allowed = 1
end
redis.call('PEXPIRE', key, window)
local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
local oldestScore = now
if oldest[2] then oldestScore = tonumber(oldest[2]) end
return {allowed, count, oldestScore}
`)

// Redis shares counters between instances.
type Redis struct {
	client *redis.Client
	now    func() time.Time
}

func NewRedis(client *redis.Client, now func() time.Time) *Redis {
	if now == nil {
		now = time.Now
	}
	return &Redis{client: client, now: now}
}

func (s *Redis) Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.Result, error) {
	now := s.now()
	raw, err := slidingWindow.Run(ctx, s.client, []string{keyPrefix + key},
		now.UnixMilli(), window.Milliseconds(), limit, uuid.NewString()).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("rate limit script: %w", err)
	}
	return scriptResult(raw, limit, window, now)
}

// scriptResult interprets the {allowed, count, oldest_ms} reply of slidingWindow.
func scriptResult(raw []int64, limit int, window time.Duration, now time.Time) (*models.Result, error) {
	if len(raw) != 3 {
		return nil, fmt.Errorf("rate limit script: unexpected reply of length %d", len(raw))
	}
	resetAt := time.UnixMilli(raw[2]).Add(window)
	res := &models.Result{Allowed: raw[0] == 1, Limit: limit, ResetAt: resetAt}
	if res.Allowed {
		res.Remaining = limit - int(raw[1])
	} else {
		res.RetryAfter = retryAfter(resetAt, now)
	}
	return res, nil
}
