package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig()

	assert.Equal(t, "products.json", cfg.ProductsFile)
	assert.Equal(t, "price_history.json", cfg.HistoryFile)
	assert.Equal(t, 12*time.Hour, cfg.ScanInterval)
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Equal(t, 5*time.Second, cfg.RetryDelay)
	assert.Equal(t, 30*time.Second, cfg.FetchTimeout)
	assert.Equal(t, 4, cfg.ScanConcurrency)
	assert.Equal(t, "pricetracker:alerts", cfg.RedisStream)
	assert.Equal(t, "development", cfg.Environment)

	require.NoError(t, cfg.Validate())
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("SCAN_INTERVAL_HOURS", "6")
	t.Setenv("MAX_RETRIES", "5")
	t.Setenv("RETRY_DELAY_SECONDS", "1")
	t.Setenv("HISTORY_FILE", "/var/lib/pricetracker/history.json")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg := LoadConfig()

	assert.Equal(t, 6*time.Hour, cfg.ScanInterval)
	assert.Equal(t, 5, cfg.MaxAttempts)
	assert.Equal(t, time.Second, cfg.RetryDelay)
	assert.Equal(t, "/var/lib/pricetracker/history.json", cfg.HistoryFile)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
}

func TestLoadConfigIgnoresInvalidInts(t *testing.T) {
	t.Setenv("SCAN_INTERVAL_HOURS", "soon")

	cfg := LoadConfig()
	assert.Equal(t, 12*time.Hour, cfg.ScanInterval)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty products file", func(c *Config) { c.ProductsFile = "" }},
		{"empty history file", func(c *Config) { c.HistoryFile = "" }},
		{"zero interval", func(c *Config) { c.ScanInterval = 0 }},
		{"zero retries", func(c *Config) { c.MaxAttempts = 0 }},
		{"negative delay", func(c *Config) { c.RetryDelay = -time.Second }},
		{"zero concurrency", func(c *Config) { c.ScanConcurrency = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := LoadConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
