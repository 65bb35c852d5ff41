package forex

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisRateCache_RoundTrip(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Skip("Redis not available")
	}
	defer rdb.Close()

	ctx := context.Background()
	cache := NewRedisRateCache(rdb)

	require.NoError(t, cache.Set(ctx, "test:USD-EUR", d("0.9090909090909091"), time.Minute))

	rate, err := cache.Get(ctx, "test:USD-EUR")
	require.NoError(t, err)
	assert.True(t, rate.Equal(d("0.9090909090909091")))

	_, err = cache.Get(ctx, "test:missing")
	assert.ErrorIs(t, err, redis.Nil)
}
