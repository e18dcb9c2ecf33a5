// Package cache provides checklist caching with a Redis backend and an
// in-process LRU fallback for deployments without Redis.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/visabuddy/checklist-engine/internal/domain"
)

// RedisCache stores generated checklists in Redis. Entries carry their own
// expiry metadata in addition to the Redis TTL so a misconfigured server
// never serves stale checklists.
type RedisCache struct {
	redis      *redis.Client
	logger     *logrus.Logger
	defaultTTL time.Duration
}

// NewRedisCache creates a new Redis-backed checklist cache.
func NewRedisCache(logger *logrus.Logger, config domain.CacheConfig) (*RedisCache, error) {
	opts, err := redis.ParseURL(config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	opts.PoolSize = config.PoolSize
	opts.PoolTimeout = config.PoolTimeout
	opts.MaxRetries = config.MaxRetries

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	ttl := config.DefaultTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RedisCache{redis: client, logger: logger, defaultTTL: ttl}, nil
}

type cachedChecklist struct {
	Checklist *domain.GeneratedChecklist `json:"checklist"`
	CachedAt  time.Time                  `json:"cached_at"`
	ExpiresAt time.Time                  `json:"expires_at"`
}

// Get retrieves a cached checklist. Cache failures are misses, never errors:
// the caller can always regenerate.
func (c *RedisCache) Get(ctx context.Context, key string) (*domain.GeneratedChecklist, bool) {
	val, err := c.redis.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("Cache read failed")
		return nil, false
	}

	var cached cachedChecklist
	if err := json.Unmarshal([]byte(val), &cached); err != nil {
		c.redis.Del(ctx, key)
		return nil, false
	}
	if time.Now().After(cached.ExpiresAt) || cached.Checklist == nil {
		c.redis.Del(ctx, key)
		return nil, false
	}
	return cached.Checklist, true
}

// Set caches a checklist under the default TTL.
func (c *RedisCache) Set(ctx context.Context, key string, checklist *domain.GeneratedChecklist) {
	cached := cachedChecklist{
		Checklist: checklist,
		CachedAt:  time.Now(),
		ExpiresAt: time.Now().Add(c.defaultTTL),
	}
	payload, err := json.Marshal(cached)
	if err != nil {
		c.logger.WithError(err).Warn("Failed to marshal checklist for cache")
		return
	}
	if err := c.redis.Set(ctx, key, payload, c.defaultTTL).Err(); err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("Cache write failed")
	}
}

// Close releases the Redis connection pool.
func (c *RedisCache) Close() error {
	return c.redis.Close()
}

// LocalCache is an in-process LRU checklist cache used when Redis is not
// configured, in the lite server for example. Expiry is checked on read.
type LocalCache struct {
	entries *lru.Cache[string, cachedChecklist]
	ttl     time.Duration
}

// NewLocalCache creates a new in-process cache.
func NewLocalCache(size int, ttl time.Duration) (*LocalCache, error) {
	if size <= 0 {
		size = 256
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	entries, err := lru.New[string, cachedChecklist](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create LRU cache: %w", err)
	}
	return &LocalCache{entries: entries, ttl: ttl}, nil
}

// Get retrieves a cached checklist.
func (c *LocalCache) Get(_ context.Context, key string) (*domain.GeneratedChecklist, bool) {
	cached, ok := c.entries.Get(key)
	if !ok {
		return nil, false
	}
	if time.Now().After(cached.ExpiresAt) {
		c.entries.Remove(key)
		return nil, false
	}
	return cached.Checklist, true
}

// Set caches a checklist.
func (c *LocalCache) Set(_ context.Context, key string, checklist *domain.GeneratedChecklist) {
	c.entries.Add(key, cachedChecklist{
		Checklist: checklist,
		CachedAt:  time.Now(),
		ExpiresAt: time.Now().Add(c.ttl),
	})
}
