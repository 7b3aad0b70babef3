package cache

import (
	"context"
	"errors"
	"time"

	"github.com/lyzr/compressor/common/redis"
)

// ErrClosed is returned by writes after Close
var ErrClosed = errors.New("cache closed")

// RedisCache stores entries in Redis so several compressor instances can
// redeem each other's artifacts
type RedisCache struct {
	client *redis.Client
	prefix string
}

// NewRedisCache creates a cache whose keys are namespaced by prefix
func NewRedisCache(client *redis.Client, prefix string) *RedisCache {
	return &RedisCache{client: client, prefix: prefix}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return c.client.GetBytes(ctx, c.prefix+key)
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.SetBytes(ctx, c.prefix+key, value, ttl)
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.client.Delete(ctx, c.prefix+key)
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// Stats returns cache statistics
func (c *RedisCache) Stats() map[string]interface{} {
	return map[string]interface{}{
		"type":   "redis",
		"prefix": c.prefix,
	}
}
