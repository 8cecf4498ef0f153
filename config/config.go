package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config represents the application configuration
type Config struct {
	// Tracked item and history file locations
	ProductsFile string
	HistoryFile  string

	// Scan configuration
	ScanInterval    time.Duration
	ItemTimeout     time.Duration
	ScanConcurrency int

	// Fetch configuration
	FetchTimeout time.Duration
	MaxAttempts  int
	RetryDelay   time.Duration
	UserAgent    string

	// Memcache configuration (optional; empty disables shared host blocking)
	MemcacheAddr string

	// Redis notification sink (optional; empty disables the sink)
	RedisAddr      string
	RedisDB        int
	RedisStream    string
	RedisStreamMax int64

	// Pushbullet notification sink (optional; empty disables the sink)
	PushbulletToken string

	// Metrics endpoint for schedule mode
	MetricsAddr string

	// Environment
	Environment string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() Config {
	scanHours := getEnvInt("SCAN_INTERVAL_HOURS", 12)
	itemTimeout := getEnvInt("ITEM_TIMEOUT_SECONDS", 120)
	fetchTimeout := getEnvInt("FETCH_TIMEOUT_SECONDS", 30)
	retryDelay := getEnvInt("RETRY_DELAY_SECONDS", 5)
	streamMax := getEnvInt("REDIS_STREAM_MAXLEN", 1000)

	return Config{
		ProductsFile:    getEnv("PRODUCTS_FILE", "products.json"),
		HistoryFile:     getEnv("HISTORY_FILE", "price_history.json"),
		ScanInterval:    time.Duration(scanHours) * time.Hour,
		ItemTimeout:     time.Duration(itemTimeout) * time.Second,
		ScanConcurrency: getEnvInt("SCAN_CONCURRENCY", 4),
		FetchTimeout:    time.Duration(fetchTimeout) * time.Second,
		MaxAttempts:     getEnvInt("MAX_RETRIES", 3),
		RetryDelay:      time.Duration(retryDelay) * time.Second,
		UserAgent:       getEnv("USER_AGENT", ""),
		MemcacheAddr:    getEnv("MEMCACHE_ADDR", ""),
		RedisAddr:       getEnv("REDIS_ADDR", ""),
		RedisDB:         getEnvInt("REDIS_DB", 0),
		RedisStream:     getEnv("REDIS_STREAM", "pricetracker:alerts"),
		RedisStreamMax:  int64(streamMax),
		PushbulletToken: getEnv("PUSHBULLET_API_KEY", ""),
		MetricsAddr:     getEnv("METRICS_ADDR", ":9109"),
		Environment:     getEnv("PRICETRACKER_ENVIRONMENT", "development"),
	}
}

// Validate checks the configuration for values the tracker cannot run with
func (c *Config) Validate() error {
	if c.ProductsFile == "" {
		return fmt.Errorf("products file path cannot be empty")
	}
	if c.HistoryFile == "" {
		return fmt.Errorf("history file path cannot be empty")
	}
	if c.ScanInterval <= 0 {
		return fmt.Errorf("scan interval must be positive")
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("max retries must be at least 1")
	}
	if c.RetryDelay < 0 {
		return fmt.Errorf("retry delay cannot be negative")
	}
	if c.ScanConcurrency < 1 {
		return fmt.Errorf("scan concurrency must be at least 1")
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt retrieves an integer environment variable or returns a default value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}
