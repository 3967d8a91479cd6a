package config

import (
	"testing"
	"time"

	"github.com/go-band-notify/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, 100, cfg.Delivery.BatchSize)
	assert.Equal(t, 5*time.Minute, cfg.Delivery.Interval)
	assert.Equal(t, cfg.Delivery.Interval, cfg.Delivery.ClaimTTL)
	assert.Equal(t, 10, cfg.Delivery.Concurrency)
	assert.Equal(t, 2*time.Minute, cfg.Delivery.CycleTimeout)
	assert.Equal(t, BackendSQLite, cfg.StoreBackend)
	assert.Equal(t, ProviderLog, cfg.Push.Provider)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_ClaimTTLFollowsInterval(t *testing.T) {
	t.Setenv("INTERVAL", "10m")
	cfg := Load()
	assert.Equal(t, 10*time.Minute, cfg.Delivery.ClaimTTL)

	t.Setenv("CLAIM_TTL", "15m")
	cfg = Load()
	assert.Equal(t, 15*time.Minute, cfg.Delivery.ClaimTTL)
}

func TestLoad_BadValuesFallBack(t *testing.T) {
	t.Setenv("BATCH_SIZE", "lots")
	t.Setenv("INTERVAL", "soon")
	t.Setenv("SCHEDULER_ENABLED", "maybe")
	cfg := Load()
	assert.Equal(t, 100, cfg.Delivery.BatchSize)
	assert.Equal(t, 5*time.Minute, cfg.Delivery.Interval)
	assert.False(t, cfg.SchedulerEnabled)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"zero batch", func(c *Config) { c.Delivery.BatchSize = 0 }},
		{"dynamo batch over limit", func(c *Config) { c.StoreBackend = BackendDynamo; c.Delivery.BatchSize = 101 }},
		{"zero concurrency", func(c *Config) { c.Delivery.Concurrency = 0 }},
		{"timeout not below ttl", func(c *Config) { c.Delivery.CycleTimeout = c.Delivery.ClaimTTL }},
		{"unknown backend", func(c *Config) { c.StoreBackend = "postgres" }},
		{"unknown provider", func(c *Config) { c.Push.Provider = "carrier-pigeon" }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Load()
			tc.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrConfiguration)
		})
	}
}

func TestValidate_SQLiteAllowsLargeBatches(t *testing.T) {
	cfg := Load()
	cfg.Delivery.BatchSize = 500
	assert.NoError(t, cfg.Validate())
}
