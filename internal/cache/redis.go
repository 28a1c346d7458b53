package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const statsKeyPrefix = "stats:"

// RedisLinkCache caches short code -> destination URL under the raw short
// code key. Cache failures are logged and treated as misses; they never fail
// the resolve path.
type RedisLinkCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisLinkCache creates a Redis-backed link cache with the given TTL.
func NewRedisLinkCache(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisLinkCache {
	return &RedisLinkCache{rdb: rdb, ttl: ttl, logger: logger}
}

// GetDestination returns the cached destination, or "" on miss.
func (c *RedisLinkCache) GetDestination(ctx context.Context, shortCode string) (string, error) {
	destination, err := c.rdb.Get(ctx, shortCode).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("failed to get destination from cache",
				zap.String("short_code", shortCode),
				zap.Error(err),
			)
		}
		return "", nil
	}
	return destination, nil
}

// SetDestination stores the destination under the short code key.
func (c *RedisLinkCache) SetDestination(ctx context.Context, shortCode, destination string) error {
	if err := c.rdb.Set(ctx, shortCode, destination, c.ttl).Err(); err != nil {
		c.logger.Warn("failed to cache destination",
			zap.String("short_code", shortCode),
			zap.Error(err),
		)
	}
	return nil
}

// RedisStatsCache memoizes serialized stats responses under "stats:{code}".
// The TTL is short: stats are a dashboard surface where freshness matters
// more than hit ratio.
type RedisStatsCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisStatsCache creates a Redis-backed stats cache with the given TTL.
func NewRedisStatsCache(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisStatsCache {
	return &RedisStatsCache{rdb: rdb, ttl: ttl, logger: logger}
}

// Get returns the cached stats payload, or nil on miss.
func (c *RedisStatsCache) Get(ctx context.Context, shortCode string) ([]byte, error) {
	payload, err := c.rdb.Get(ctx, statsKeyPrefix+shortCode).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("failed to get stats from cache",
				zap.String("short_code", shortCode),
				zap.Error(err),
			)
		}
		return nil, nil
	}
	return payload, nil
}

// Set stores the serialized stats payload.
func (c *RedisStatsCache) Set(ctx context.Context, shortCode string, payload []byte) error {
	if err := c.rdb.Set(ctx, statsKeyPrefix+shortCode, payload, c.ttl).Err(); err != nil {
		c.logger.Warn("failed to cache stats",
			zap.String("short_code", shortCode),
			zap.Error(err),
		)
	}
	return nil
}
