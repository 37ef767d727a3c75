package persistence

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisReportCache backs the resolved-report cache with Redis. Cache
// failures degrade to a miss; the report is then served from Postgres.
type RedisReportCache struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisReportCache builds a cache over the shared client.
func NewRedisReportCache(r *Redis, logger *zap.Logger) *RedisReportCache {
	if r == nil || r.Client == nil {
		return nil
	}
	return &RedisReportCache{client: r.Client, logger: logger}
}

// Get returns the cached value for key, if any.
func (c *RedisReportCache) Get(ctx context.Context, key string) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("report cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	return raw, true
}

// Set stores value under key for ttl.
func (c *RedisReportCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if c == nil {
		return
	}
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		c.logger.Warn("report cache write failed", zap.String("key", key), zap.Error(err))
	}
}
