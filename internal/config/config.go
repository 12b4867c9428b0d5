// Package config provides configuration loading and management for Mnemosyne services.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the Mnemosyne checkpoint service.
type Config struct {
	// Version is the application version
	Version string

	// Environment is the deployment environment (development, staging, production)
	Environment string

	// API configuration
	API APIConfig

	// Database configuration for the checkpoint store
	Database DatabaseConfig

	// Auth configuration for viewer token verification
	Auth AuthConfig

	// Playback configuration for the progress tracking policy
	Playback PlaybackConfig

	// Retention configuration for stale checkpoint cleanup
	Retention RetentionConfig

	// Metrics configuration
	Metrics MetricsConfig
}

// APIConfig holds API server configuration.
type APIConfig struct {
	// ListenAddr is the address to listen on (e.g., ":8080")
	ListenAddr string

	// BaseURL is the external base URL of the API
	BaseURL string

	// ReadTimeout is the maximum duration for reading the entire request
	ReadTimeout time.Duration

	// WriteTimeout is the maximum duration before timing out writes of the response
	WriteTimeout time.Duration

	// CORSOrigins is a list of allowed CORS origins (use "*" for all)
	CORSOrigins []string

	// RateLimitRPS is the rate limit in requests per second
	RateLimitRPS float64

	// RateLimitBurst is the maximum burst size for rate limiting
	RateLimitBurst int
}

// DatabaseConfig holds database connection configuration.
type DatabaseConfig struct {
	// Host is the database host
	Host string

	// Port is the database port
	Port int

	// Name is the database name
	Name string

	// User is the database user
	User string

	// Password is the database password
	Password string

	// SSLMode is the SSL mode (disable, require, verify-ca, verify-full)
	SSLMode string

	// MaxOpenConns is the maximum number of open connections
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections
	MaxIdleConns int
}

// DSN returns the database connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		d.Host, d.Port, d.Name, d.User, d.Password, d.SSLMode,
	)
}

// AuthConfig holds viewer authentication configuration.
//
// Mnemosyne never issues tokens. Viewers authenticate against an external
// identity provider; this service only verifies the HS256 tokens that
// provider signs with the shared secret.
type AuthConfig struct {
	// Enabled enables bearer token verification on checkpoint endpoints
	Enabled bool

	// JWTSecret is the shared HMAC secret of the identity provider
	JWTSecret string

	// Issuer is the expected token issuer (empty disables the check)
	Issuer string
}

// PlaybackConfig holds the progress tracking policy.
type PlaybackConfig struct {
	// SaveInterval is the minimum playback-time delta between throttled saves
	SaveInterval time.Duration

	// CompletionThreshold is the watched fraction at which content counts as completed
	CompletionThreshold float64
}

// RetentionConfig holds stale checkpoint cleanup configuration.
type RetentionConfig struct {
	// Enabled enables the retention sweeper
	Enabled bool

	// MaxAge is how long an untouched checkpoint is kept
	MaxAge time.Duration

	// Schedule is the cron schedule for the sweeper
	Schedule string
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	// Enabled enables Prometheus metrics
	Enabled bool

	// ListenAddr is the address for the standalone metrics endpoint
	ListenAddr string
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Version:     getEnv("MNEMOSYNE_VERSION", "0.1.0"),
		Environment: getEnv("MNEMOSYNE_ENV", "development"),

		API: APIConfig{
			ListenAddr:     getEnv("MNEMOSYNE_API_LISTEN_ADDR", ":8080"),
			BaseURL:        getEnv("MNEMOSYNE_API_BASE_URL", "http://localhost:8080"),
			ReadTimeout:    getDurationEnv("MNEMOSYNE_API_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:   getDurationEnv("MNEMOSYNE_API_WRITE_TIMEOUT", 15*time.Second),
			CORSOrigins:    getSliceEnv("MNEMOSYNE_API_CORS_ORIGINS", []string{"*"}),
			RateLimitRPS:   getFloatEnv("MNEMOSYNE_API_RATE_LIMIT_RPS", 100),
			RateLimitBurst: getIntEnv("MNEMOSYNE_API_RATE_LIMIT_BURST", 200),
		},

		Database: DatabaseConfig{
			Host:         getEnv("MNEMOSYNE_DB_HOST", "localhost"),
			Port:         getIntEnv("MNEMOSYNE_DB_PORT", 5432),
			Name:         getEnv("MNEMOSYNE_DB_NAME", "mnemosyne"),
			User:         getEnv("MNEMOSYNE_DB_USER", "mnemosyne"),
			Password:     getEnv("MNEMOSYNE_DB_PASSWORD", "mnemosyne"),
			SSLMode:      getEnv("MNEMOSYNE_DB_SSLMODE", "disable"),
			MaxOpenConns: getIntEnv("MNEMOSYNE_DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getIntEnv("MNEMOSYNE_DB_MAX_IDLE_CONNS", 5),
		},

		Auth: AuthConfig{
			Enabled:   getBoolEnv("MNEMOSYNE_AUTH_ENABLED", true),
			JWTSecret: getEnv("MNEMOSYNE_AUTH_JWT_SECRET", ""),
			Issuer:    getEnv("MNEMOSYNE_AUTH_ISSUER", ""),
		},

		Playback: PlaybackConfig{
			SaveInterval:        getDurationEnv("MNEMOSYNE_PLAYBACK_SAVE_INTERVAL", 5*time.Second),
			CompletionThreshold: getFloatEnv("MNEMOSYNE_PLAYBACK_COMPLETION_THRESHOLD", 0.9),
		},

		Retention: RetentionConfig{
			Enabled:  getBoolEnv("MNEMOSYNE_RETENTION_ENABLED", false),
			MaxAge:   getDurationEnv("MNEMOSYNE_RETENTION_MAX_AGE", 365*24*time.Hour),
			Schedule: getEnv("MNEMOSYNE_RETENTION_SCHEDULE", "0 4 * * *"),
		},

		Metrics: MetricsConfig{
			Enabled:    getBoolEnv("MNEMOSYNE_METRICS_ENABLED", true),
			ListenAddr: getEnv("MNEMOSYNE_METRICS_LISTEN_ADDR", ":9090"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks configuration invariants that cannot be defaulted away.
func (c *Config) Validate() error {
	if c.Auth.Enabled && c.Auth.JWTSecret == "" {
		return fmt.Errorf("MNEMOSYNE_AUTH_JWT_SECRET is required when auth is enabled")
	}
	if c.Playback.SaveInterval < 0 {
		return fmt.Errorf("playback save interval must not be negative")
	}
	if c.Playback.CompletionThreshold <= 0 || c.Playback.CompletionThreshold > 1 {
		return fmt.Errorf("playback completion threshold must be in (0, 1]")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		var result []string
		for _, v := range splitAndTrim(value, ",") {
			if v != "" {
				result = append(result, v)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return defaultValue
}

func splitAndTrim(s, sep string) []string {
	parts := make([]string, 0)
	for _, p := range strings.Split(s, sep) {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
