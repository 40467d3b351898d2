package repository

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

type redisReportCache struct {
	client *redis.Client
}

func NewRedisReportCache(client *redis.Client) ReportCache {
	return &redisReportCache{client: client}
}

func (c *redisReportCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

func (c *redisReportCache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	return val, err
}

func (c *redisReportCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}
