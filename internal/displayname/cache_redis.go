package displayname

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "displayname:"

// RedisCache shares the display-name cache across hub instances. Every
// Redis failure degrades to a cache miss; the gateway remains the source
// of truth.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, userID string) (string, bool) {
	name, err := c.client.Get(ctx, redisKeyPrefix+userID).Result()
	if err != nil {
		if err != redis.Nil {
			slog.Warn("Display name cache read failed", "user_id", userID, "error", err)
		}
		return "", false
	}
	return name, true
}

func (c *RedisCache) Set(ctx context.Context, userID, name string) {
	if err := c.client.Set(ctx, redisKeyPrefix+userID, name, c.ttl).Err(); err != nil {
		slog.Warn("Display name cache write failed", "user_id", userID, "error", err)
	}
}
