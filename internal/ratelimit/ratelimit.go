// ===========================================
// Package ratelimit - Fixed Window Counters
// ===========================================
// ALGORITHM: fixed window counter.
// 1. Window start = now truncated to the window size
// 2. Increment the counter for (key, window start)
// 3. The first increment sets the counter's expiry
// 4. count > limit means rejected
//
// Bursts of up to 2x limit are possible across a window boundary.
// ===========================================

package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Result describes one Allow decision.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Limiter counts requests per key within a fixed window.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (Result, error)
}

func newResult(count int64, limit int, windowStart time.Time, window time.Duration) Result {
	remaining := limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return Result{
		Allowed:   int(count) <= limit,
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   windowStart.Add(window),
	}
}

// ===========================================
// Redis backend
// ===========================================

// RedisLimiter shares counters across instances.
type RedisLimiter struct {
	client *redis.Client
	now    func() time.Time
}

// NewRedisLimiter creates a Redis-backed limiter.
func NewRedisLimiter(client *redis.Client) *RedisLimiter {
	return &RedisLimiter{client: client, now: time.Now}
}

// Key returns the counter key for an identifier and window start.
// Pattern: "ratelimit:{identifier}:{window start unix}"
func Key(identifier string, windowStart time.Time) string {
	return fmt.Sprintf("ratelimit:%s:%d", identifier, windowStart.Unix())
}

func (l *RedisLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (Result, error) {
	start := l.now().Truncate(window)
	redisKey := Key(key, start)

	// INCR is atomic, so concurrent requests each see a distinct count.
	count, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return Result{}, fmt.Errorf("rate limit incr failed: %w", err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, redisKey, window).Err(); err != nil {
			return Result{}, fmt.Errorf("rate limit expire failed: %w", err)
		}
	}

	return newResult(count, limit, start, window), nil
}

// ===========================================
// In-process backend
// ===========================================

type memoryCounter struct {
	windowStart time.Time
	count       int64
}

// MemoryLimiter keeps counters in a map. Counters from past windows are
// swept once per window.
type MemoryLimiter struct {
	mu        sync.Mutex
	counters  map[string]*memoryCounter
	lastSweep time.Time
	now       func() time.Time
}

// NewMemoryLimiter creates an in-process limiter.
func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{counters: make(map[string]*memoryCounter), now: time.Now}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string, limit int, window time.Duration) (Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	start := now.Truncate(window)

	if now.Sub(l.lastSweep) >= window {
		for k, c := range l.counters {
			if c.windowStart.Before(start) {
				delete(l.counters, k)
			}
		}
		l.lastSweep = now
	}

	c, ok := l.counters[key]
	if !ok || !c.windowStart.Equal(start) {
		c = &memoryCounter{windowStart: start}
		l.counters[key] = c
	}
	c.count++

	return newResult(c.count, limit, start, window), nil
}
