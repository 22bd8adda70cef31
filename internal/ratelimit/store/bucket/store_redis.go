package bucket

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"wellfile/internal/ratelimit/models"
)

// slidingWindowScript runs the purge, count, and insert as one atomic script
// so concurrent replicas cannot race between the steps. Scores and the window
// are in milliseconds. Reply is {allowed, remaining, oldest_score}.
var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local cost = tonumber(ARGV[3])
local limit = tonumber(ARGV[4])
local member = ARGV[5]

redis.call('ZREMRANGEBYSCORE', key, 0, now - window)
local count = redis.call('ZCARD', key)

if count + cost > limit then
	local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
	local oldest_score = now
	if oldest[2] then
		oldest_score = tonumber(oldest[2])
	end
	return {0, 0, oldest_score}
end

for i = 1, cost do
	redis.call('ZADD', key, now, member .. ':' .. i)
end
redis.call('PEXPIRE', key, window)

local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
return {1, limit - count - cost, tonumber(oldest[2])}
`)

// RedisBucketStore implements sliding window rate limiting on Redis sorted
// sets. Every instance sharing the Redis sees the same buckets, so limits
// hold across replicas.
type RedisBucketStore struct {
	client redis.UniversalClient
}

// NewRedisBucketStore creates a bucket store backed by the given Redis client.
func NewRedisBucketStore(client redis.UniversalClient) *RedisBucketStore {
	return &RedisBucketStore{client: client}
}

// Allow checks if a request is allowed and increments the counter.
func (s *RedisBucketStore) Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.RateLimitResult, error) {
	return s.AllowN(ctx, key, 1, limit, window)
}

// AllowN checks if a request with custom cost is allowed. Behaves like Allow
// but consumes 'cost' slots instead of 1.
func (s *RedisBucketStore) AllowN(ctx context.Context, key string, cost int, limit int, window time.Duration) (*models.RateLimitResult, error) {
	now := time.Now()
	raw, err := slidingWindowScript.Run(ctx, s.client, []string{key},
		now.UnixMilli(), window.Milliseconds(), cost, limit, uuid.NewString()).Slice()
	if err != nil {
		return nil, fmt.Errorf("redis rate limit check: %w", err)
	}
	if len(raw) != 3 {
		return nil, fmt.Errorf("redis rate limit check: unexpected script reply %v", raw)
	}

	allowed, _ := raw[0].(int64)
	remaining, _ := raw[1].(int64)
	oldestMs, _ := raw[2].(int64)

	resetAt := time.UnixMilli(oldestMs).Add(window)
	result := &models.RateLimitResult{
		Allowed:   allowed == 1,
		Limit:     limit,
		Remaining: int(remaining),
		ResetAt:   resetAt,
	}
	if !result.Allowed {
		retryAfter := int(resetAt.Sub(now).Seconds()) + 1
		if retryAfter < 1 {
			retryAfter = 1
		}
		result.RetryAfter = retryAfter
	}
	return result, nil
}

// Reset clears the rate limit counter for a key.
func (s *RedisBucketStore) Reset(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis rate limit reset: %w", err)
	}
	return nil
}

// GetCurrentCount returns the current request count for a key. Entries past
// their window are purged lazily by the next AllowN, so the count may briefly
// include expired ones.
func (s *RedisBucketStore) GetCurrentCount(ctx context.Context, key string) (int, error) {
	count, err := s.client.ZCard(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis rate limit count: %w", err)
	}
	return int(count), nil
}
