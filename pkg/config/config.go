// ABOUTME: Configuration management for the application with environment variable support
// ABOUTME: Defines configuration structures for the store backend, source API, and entity caches

package config

import (
	"errors"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	// App contains application-wide settings
	App AppConfig

	// Store contains fast-store backend configuration
	Store StoreConfig

	// SourceAPI contains source-of-truth service configuration
	SourceAPI SourceAPIConfig

	// Users contains user cache settings
	Users EntityConfig

	// Products contains product cache settings
	Products EntityConfig
}

// AppConfig holds application-wide settings
type AppConfig struct {
	// GlobalPrefix namespaces every key written by this application
	GlobalPrefix string

	// LogLevel controls logger verbosity (debug/info/warn/error)
	LogLevel string
}

// StoreConfig holds fast-store backend configuration
type StoreConfig struct {
	// Type specifies the store backend (redis/memory/sqlite)
	Type string

	// Redis contains Redis-specific configuration
	Redis RedisConfig

	// SQLite contains SQLite-specific configuration
	SQLite SQLiteConfig
}

// RedisConfig holds Redis-specific configuration
type RedisConfig struct {
	// Address is the Redis server address
	Address string

	// Password is the Redis authentication password
	Password string

	// DB is the Redis database number
	DB int
}

// SQLiteConfig holds SQLite-specific configuration
type SQLiteConfig struct {
	// FilePath is the database file location
	FilePath string
}

// SourceAPIConfig holds source-of-truth service configuration
type SourceAPIConfig struct {
	// BaseURL is the root of the source-of-truth HTTP API
	BaseURL string

	// APIKey is sent as a bearer token when set
	APIKey string

	// Timeout bounds each request in seconds
	Timeout int

	// RequestsPerSecond throttles outgoing requests; zero disables it
	RequestsPerSecond float64
}

// EntityConfig holds per-entity cache settings
type EntityConfig struct {
	// TTL is the default entry lifetime in seconds; zero means no expiry
	TTL int

	// FallbackToAPI enables the source-of-truth fallback on cache miss
	FallbackToAPI bool

	// FallbackTTL bounds fallback write-backs in seconds; zero falls
	// through to the cache default
	FallbackTTL int
}

// TTLDuration returns the entity TTL as a duration.
func (e EntityConfig) TTLDuration() time.Duration {
	return time.Duration(e.TTL) * time.Second
}

// FallbackTTLDuration returns the fallback TTL as a duration.
func (e EntityConfig) FallbackTTLDuration() time.Duration {
	return time.Duration(e.FallbackTTL) * time.Second
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			GlobalPrefix: getEnvOrDefault("GLOBAL_PREFIX", "entity-cache"),
			LogLevel:     getEnvOrDefault("LOG_LEVEL", "info"),
		},
		Store: StoreConfig{
			Type: getEnvOrDefault("STORE_TYPE", "memory"),
			Redis: RedisConfig{
				Address:  getEnvOrDefault("REDIS_ADDRESS", "localhost:6379"),
				Password: getEnvOrDefault("REDIS_PASSWORD", ""),
				DB:       getEnvAsIntOrDefault("REDIS_DB", 0),
			},
			SQLite: SQLiteConfig{
				FilePath: getEnvOrDefault("SQLITE_PATH", "entity-cache.db"),
			},
		},
		SourceAPI: SourceAPIConfig{
			BaseURL:           getEnvOrDefault("SOURCE_API_URL", ""),
			APIKey:            getEnvOrDefault("SOURCE_API_KEY", ""),
			Timeout:           getEnvAsIntOrDefault("SOURCE_API_TIMEOUT", 30),
			RequestsPerSecond: getEnvAsFloatOrDefault("SOURCE_API_RPS", 0),
		},
		Users: EntityConfig{
			TTL:           getEnvAsIntOrDefault("USER_TTL", 0),
			FallbackToAPI: getEnvAsBoolOrDefault("USER_FALLBACK", false),
			FallbackTTL:   getEnvAsIntOrDefault("USER_FALLBACK_TTL", 180),
		},
		Products: EntityConfig{
			TTL:           getEnvAsIntOrDefault("PRODUCT_TTL", 0),
			FallbackToAPI: getEnvAsBoolOrDefault("PRODUCT_FALLBACK", false),
			FallbackTTL:   getEnvAsIntOrDefault("PRODUCT_FALLBACK_TTL", 0),
		},
	}

	return cfg, nil
}

// getEnvOrDefault returns the environment variable value or a default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsIntOrDefault returns the environment variable as int or a default
func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsFloatOrDefault returns the environment variable as float64 or a default
func getEnvAsFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getEnvAsBoolOrDefault returns the environment variable as bool or a default
func getEnvAsBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.App.GlobalPrefix == "" {
		return errors.New("global prefix cannot be empty")
	}

	switch c.Store.Type {
	case "redis":
		if c.Store.Redis.Address == "" {
			return errors.New("redis address cannot be empty when using redis store")
		}
	case "sqlite":
		if c.Store.SQLite.FilePath == "" {
			return errors.New("sqlite path cannot be empty when using sqlite store")
		}
	case "memory":
	default:
		return errors.New("store type must be 'redis', 'memory' or 'sqlite'")
	}

	if (c.Users.FallbackToAPI || c.Products.FallbackToAPI) && c.SourceAPI.BaseURL == "" {
		return errors.New("source API URL is required when fallback is enabled")
	}

	if c.SourceAPI.Timeout < 1 {
		return errors.New("source API timeout must be at least 1 second")
	}

	return nil
}
