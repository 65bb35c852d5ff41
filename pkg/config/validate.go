// Package config loads and validates service configuration.
package config

import (
	"fmt"
	"strings"
)

// ValidateCore ensures critical configuration is present.
func (c *Config) ValidateCore() error {
	var missing []string

	if strings.TrimSpace(c.Server.Port) == "" {
		missing = append(missing, "SERVER_PORT")
	}
	if c.Forex.CacheTTL <= 0 {
		missing = append(missing, "FOREX_CACHE_TTL")
	}
	if c.PersistenceEnabled() && c.Ledger.SnapshotInterval <= 0 {
		missing = append(missing, "LEDGER_SNAPSHOT_INTERVAL")
	}
	if c.CacheEnabled() && (c.HTTP.RateLimit <= 0 || c.HTTP.RateLimitWindow <= 0) {
		missing = append(missing, "RATE_LIMIT_REQUESTS/RATE_LIMIT_WINDOW")
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	return nil
}

// PersistenceEnabled reports whether a database is configured.
func (c *Config) PersistenceEnabled() bool {
	return strings.TrimSpace(c.Database.URL) != ""
}

// CacheEnabled reports whether a redis instance is configured.
func (c *Config) CacheEnabled() bool {
	return strings.TrimSpace(c.Redis.URL) != ""
}
