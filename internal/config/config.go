package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the configuration for the pricing engine service
type Config struct {
	// HTTP settings
	Port string

	// Database settings
	DatabaseURL    string
	MaxConnections int

	// Redis settings (optional - decision caching degrades gracefully)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Stripe settings (optional - subscription sync)
	StripeAPIKey string

	// Cache settings
	SnapshotCacheTTL time.Duration
	DecisionCacheTTL time.Duration

	// Entitlement sweep settings
	SweepSchedule string // Cron expression (default: every 15 minutes)

	// Logging
	LogLevel string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Port: getEnv("PORT", "8090"),

		// Database defaults
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		MaxConnections: getEnvInt("DB_MAX_CONNECTIONS", 25),

		// Redis defaults
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		// Stripe
		StripeAPIKey: getEnv("STRIPE_API_KEY", ""),

		// Cache defaults
		SnapshotCacheTTL: getEnvDuration("SNAPSHOT_CACHE_TTL", 5*time.Minute),
		DecisionCacheTTL: getEnvDuration("DECISION_CACHE_TTL", time.Minute),

		// Sweep defaults
		SweepSchedule: getEnv("ENTITLEMENT_SWEEP_SCHEDULE", "*/15 * * * *"),

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.MaxConnections < 1 || c.MaxConnections > 100 {
		return fmt.Errorf("DB_MAX_CONNECTIONS must be between 1 and 100")
	}

	if c.SnapshotCacheTTL < time.Second {
		return fmt.Errorf("SNAPSHOT_CACHE_TTL must be at least 1s")
	}

	if c.DecisionCacheTTL < time.Second {
		return fmt.Errorf("DECISION_CACHE_TTL must be at least 1s")
	}

	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
