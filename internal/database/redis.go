package database

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/cache/v9"
	"github.com/redis/go-redis/v9"

	"github.com/user/smartshort/internal/config"
)

// RedisDB wraps the Redis client. Redis is optional; callers check for
// a nil *RedisDB and fall back to in-process implementations.
type RedisDB struct {
	Client   *redis.Client
	CacheTTL time.Duration
}

// NewRedisDB creates a new Redis connection and pings it.
func NewRedisDB(ctx context.Context, cfg config.RedisConfig) (*RedisDB, error) {
	opt, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	// Only override what the URL did not already set.
	if cfg.Password != "" {
		opt.Password = cfg.Password
	}
	if cfg.DB != 0 {
		opt.DB = cfg.DB
	}
	if cfg.PoolSize > 0 {
		opt.PoolSize = cfg.PoolSize
	}
	if cfg.MinIdleConns > 0 {
		opt.MinIdleConns = cfg.MinIdleConns
	}

	opt.DialTimeout = 5 * time.Second
	opt.ReadTimeout = 3 * time.Second
	opt.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return &RedisDB{
		Client:   client,
		CacheTTL: cfg.CacheTTL,
	}, nil
}

// Close shuts down the Redis connection.
func (r *RedisDB) Close() error {
	if r.Client != nil {
		return r.Client.Close()
	}
	return nil
}

// Health checks if Redis is responsive.
func (r *RedisDB) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return r.Client.Ping(ctx).Err()
}

// ===========================================
// CACHE
// ===========================================
// Two tiers: a per-process TinyLFU in front of Redis. Without Redis only
// the local tier is used.

// Local tier sizing. The local TTL bounds how long another instance can
// serve a link after it was deactivated here.
const (
	localCacheSize = 1000
	localCacheTTL  = time.Minute
)

// NewCache builds the two-tier cache. r may be nil.
func NewCache(r *RedisDB) *cache.Cache {
	opts := &cache.Options{
		LocalCache: cache.NewTinyLFU(localCacheSize, localCacheTTL),
	}
	// A nil *redis.Client must not reach the interface field.
	if r != nil && r.Client != nil {
		opts.Redis = r.Client
	}
	return cache.New(opts)
}
