package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SERVER_PORT", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_URL", "")

	cfg := Load()

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 10*time.Minute, cfg.Forex.CacheTTL)
	assert.False(t, cfg.PersistenceEnabled())
	assert.False(t, cfg.CacheEnabled())
	assert.NoError(t, cfg.ValidateCore())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("REDIS_URL", "redis://cache:6379")
	t.Setenv("FOREX_CACHE_TTL", "30s")
	t.Setenv("DB_MAX_OPEN_CONNS", "not-a-number")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "cache:6379", cfg.Redis.URL)
	assert.Equal(t, 30*time.Second, cfg.Forex.CacheTTL)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.True(t, cfg.CacheEnabled())
}

func TestLoad_HTTPGuards(t *testing.T) {
	t.Setenv("RATE_LIMIT_REQUESTS", "5")
	t.Setenv("IDEMPOTENCY_TTL", "1h")
	t.Setenv("RATE_LIMIT_WINDOW", "")

	cfg := Load()

	assert.Equal(t, 5, cfg.HTTP.RateLimit)
	assert.Equal(t, time.Minute, cfg.HTTP.RateLimitWindow)
	assert.Equal(t, time.Hour, cfg.HTTP.IdempotencyTTL)
}

func TestValidateCore_Missing(t *testing.T) {
	cfg := &Config{}

	err := cfg.ValidateCore()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "SERVER_PORT")
	assert.Contains(t, err.Error(), "FOREX_CACHE_TTL")
}

func TestValidateCore_PersistenceNeedsSnapshotInterval(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/splitpay")
	t.Setenv("LEDGER_SNAPSHOT_INTERVAL", "0s")

	err := Load().ValidateCore()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "LEDGER_SNAPSHOT_INTERVAL")
}
