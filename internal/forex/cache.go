package forex

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// RedisRateCache shares resolved pair rates between service instances.
type RedisRateCache struct {
	client *redis.Client
	prefix string
}

func NewRedisRateCache(client *redis.Client) RateCache {
	return &RedisRateCache{client: client, prefix: "splitpay:fx:"}
}

func (c *RedisRateCache) Get(ctx context.Context, key string) (decimal.Decimal, error) {
	data, err := c.client.Get(ctx, c.prefix+key).Result()
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(data)
}

func (c *RedisRateCache) Set(ctx context.Context, key string, rate decimal.Decimal, ttl time.Duration) error {
	return c.client.Set(ctx, c.prefix+key, rate.String(), ttl).Err()
}
