// Package config provides configuration management for the game release
// tracker. It loads settings from environment variables, optionally seeded
// from a .env file, with defaults suited to a single-instance deployment.
//
// Environment Variables:
//
// Application Settings:
//   - PORT: Server port (default: 8001)
//   - APP_NAME: Name reported by the info endpoint and logger (default: game-release-tracker)
//   - LOG_LEVEL: Logging level (default: info)
//   - LOG_FILE: Also write logs to this size-rotated file
//   - CORS_ALLOWED_ORIGINS: Comma-separated allowed origins (default: *)
//
// Catalog API:
//   - IGDB_CLIENT_ID: Twitch application client id (required)
//   - IGDB_CLIENT_SECRET: Twitch application client secret (required)
//   - IGDB_BASE_URL: API root (default: https://api.igdb.com/v4)
//   - IGDB_TOKEN_URL: Token endpoint (default: https://id.twitch.tv/oauth2/token)
//   - IGDB_TIMEOUT: Per-request timeout (default: 30s)
//   - REQUESTS_PER_SECOND: Outbound request budget (default: 3.5)
//   - OUTBOUND_LIMITER: "local" or "redis" (default: local)
//
// Caching and Storage:
//   - CACHE_TTL: Search cache lifetime in seconds (default: 3600)
//   - CACHE_TYPE: "local", "redis" or "two_tier" (default: local)
//   - DATABASE_TYPE: "sqlite" or "postgres" (default: sqlite)
//   - DATABASE_PATH: SQLite database file (default: ./data/game_releases.db)
//   - POSTGRES_HOST, POSTGRES_PORT, POSTGRES_DB, POSTGRES_USER,
//     POSTGRES_PASSWORD, POSTGRES_SSL_MODE
//
// Redis Configuration:
//   - REDIS_ADDRESS: Redis server address; empty disables Redis
//   - REDIS_PASSWORD: Redis password
//   - REDIS_DB: Redis database number 0-15 (default: 0)
//   - REDIS_POOL_SIZE: Redis connection pool size (default: 10)
//
// Inbound Rate Limiting:
//   - RATE_LIMIT_ENABLED: Per-client limiting of API requests (default: true)
//   - RATE_LIMIT_RPS: Requests per second per client (default: 10)
//   - RATE_LIMIT_BURST: Burst per client (default: 20)
//
// Background Sync:
//   - SYNC_SCHEDULE: Cron spec such as "@every 6h"; empty disables the scheduler
//
// Example usage:
//
//	config.LoadEnvFile()
//	cfg := config.Load()
//	if err := cfg.Validate(); err != nil {
//		log.Fatalf("Invalid configuration: %v", err)
//	}
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"game-release-tracker/internal/common/utils"
	"game-release-tracker/internal/common/validation"
)

// Config holds all configuration values for the tracker.
//
// The configuration is loaded using the Load() function and should be
// validated using the Validate() method before use.
type Config struct {
	// Application settings
	Port               string
	AppName            string
	LogLevel           string
	LogFile            string
	CORSAllowedOrigins []string

	// Catalog API
	IGDBClientID      string
	IGDBClientSecret  string
	IGDBBaseURL       string
	IGDBTokenURL      string
	IGDBTimeout       time.Duration
	RequestsPerSecond float64
	OutboundLimiter   string // "local" or "redis"

	// Response cache
	CacheTTL  time.Duration
	CacheType string

	// Database configuration
	DatabaseType     string // "sqlite" or "postgres"
	DatabasePath     string
	PostgresHost     string
	PostgresPort     string
	PostgresDB       string
	PostgresUser     string
	PostgresPassword string
	PostgresSSLMode  string

	// Redis configuration; an empty address disables every Redis feature
	RedisAddress  string
	RedisPassword string
	RedisDB       string
	RedisPoolSize string

	// Inbound rate limiting
	RateLimitEnabled bool
	RateLimitRPS     float64
	RateLimitBurst   int

	// Background sync
	SyncSchedule string
}

// LoadEnvFile loads variables from .env files into the process environment.
// Variables that are already set win. Missing files are ignored.
func LoadEnvFile(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}

	var existing []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}

// Load creates a new Config instance with values loaded from environment
// variables. If a variable is not set, the corresponding default is used.
//
// This function does not validate the configuration; call Validate() on the
// returned Config.
func Load() *Config {
	return &Config{
		Port:               getEnv("PORT", "8001"),
		AppName:            getEnv("APP_NAME", "game-release-tracker"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFile:            getEnv("LOG_FILE", ""),
		CORSAllowedOrigins: getListEnv("CORS_ALLOWED_ORIGINS", []string{"*"}),

		IGDBClientID:      getEnv("IGDB_CLIENT_ID", ""),
		IGDBClientSecret:  getEnv("IGDB_CLIENT_SECRET", ""),
		IGDBBaseURL:       getEnv("IGDB_BASE_URL", "https://api.igdb.com/v4"),
		IGDBTokenURL:      getEnv("IGDB_TOKEN_URL", "https://id.twitch.tv/oauth2/token"),
		IGDBTimeout:       getDurationEnv("IGDB_TIMEOUT", 30*time.Second),
		RequestsPerSecond: getFloatEnv("REQUESTS_PER_SECOND", 3.5),
		OutboundLimiter:   getEnv("OUTBOUND_LIMITER", "local"),

		CacheTTL:  time.Duration(getIntEnv("CACHE_TTL", 3600)) * time.Second,
		CacheType: getEnv("CACHE_TYPE", "local"),

		DatabaseType:     getEnv("DATABASE_TYPE", "sqlite"),
		DatabasePath:     getEnv("DATABASE_PATH", "./data/game_releases.db"),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresDB:       getEnv("POSTGRES_DB", "game_releases"),
		PostgresUser:     getEnv("POSTGRES_USER", "postgres"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", ""),
		PostgresSSLMode:  getEnv("POSTGRES_SSL_MODE", "disable"),

		RedisAddress:  getEnv("REDIS_ADDRESS", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnv("REDIS_DB", "0"),
		RedisPoolSize: getEnv("REDIS_POOL_SIZE", "10"),

		RateLimitEnabled: getBoolEnv("RATE_LIMIT_ENABLED", true),
		RateLimitRPS:     getFloatEnv("RATE_LIMIT_RPS", 10),
		RateLimitBurst:   getIntEnv("RATE_LIMIT_BURST", 20),

		SyncSchedule: getEnv("SYNC_SCHEDULE", ""),
	}
}

// RedisEnabled reports whether a Redis address is configured
func (c *Config) RedisEnabled() bool {
	return c.RedisAddress != ""
}

// RedisDBNumber returns REDIS_DB as an int. Call after Validate.
func (c *Config) RedisDBNumber() int {
	n, _ := strconv.Atoi(c.RedisDB)
	return n
}

// RedisPoolSizeNumber returns REDIS_POOL_SIZE as an int. Call after Validate.
func (c *Config) RedisPoolSizeNumber() int {
	n, _ := strconv.Atoi(c.RedisPoolSize)
	return n
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getBoolEnv accepts the forms understood by strconv.ParseBool and falls
// back to defaultValue otherwise
func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getDurationEnv accepts Go durations ("45s") and bare integers as seconds
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	if parsed, err := utils.ParseDuration(value); err == nil {
		return parsed
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

// Validate checks required fields, value ranges and cross-field
// dependencies. It returns the first problem found.
func (c *Config) Validate() error {
	if c.IGDBClientID == "" {
		return fmt.Errorf("IGDB_CLIENT_ID environment variable is required")
	}
	if c.IGDBClientSecret == "" {
		return fmt.Errorf("IGDB_CLIENT_SECRET environment variable is required")
	}

	if port, err := strconv.Atoi(c.Port); err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("PORT must be a valid port number between 1 and 65535")
	}

	if err := validation.ValidateVar(c.IGDBBaseURL, "required,url"); err != nil {
		return fmt.Errorf("IGDB_BASE_URL must be a valid URL")
	}
	if err := validation.ValidateVar(c.IGDBTokenURL, "required,url"); err != nil {
		return fmt.Errorf("IGDB_TOKEN_URL must be a valid URL")
	}
	if c.IGDBTimeout <= 0 {
		return fmt.Errorf("IGDB_TIMEOUT must be positive")
	}

	if c.RequestsPerSecond <= 0 {
		return fmt.Errorf("REQUESTS_PER_SECOND must be positive")
	}
	switch c.OutboundLimiter {
	case "local":
	case "redis":
		if !c.RedisEnabled() {
			return fmt.Errorf("OUTBOUND_LIMITER=redis requires REDIS_ADDRESS")
		}
	default:
		return fmt.Errorf("OUTBOUND_LIMITER must be 'local' or 'redis'")
	}

	if c.CacheTTL < 0 {
		return fmt.Errorf("CACHE_TTL must not be negative")
	}
	switch c.CacheType {
	case "local":
	case "redis", "two_tier":
		if !c.RedisEnabled() {
			return fmt.Errorf("CACHE_TYPE=%s requires REDIS_ADDRESS", c.CacheType)
		}
	default:
		return fmt.Errorf("CACHE_TYPE must be 'local', 'redis' or 'two_tier'")
	}

	switch c.DatabaseType {
	case "sqlite":
		if c.DatabasePath == "" {
			return fmt.Errorf("DATABASE_PATH is required when using SQLite")
		}
	case "postgres":
		if c.PostgresHost == "" {
			return fmt.Errorf("POSTGRES_HOST is required when using PostgreSQL")
		}
		if c.PostgresDB == "" {
			return fmt.Errorf("POSTGRES_DB is required when using PostgreSQL")
		}
		if c.PostgresUser == "" {
			return fmt.Errorf("POSTGRES_USER is required when using PostgreSQL")
		}
		if port, err := strconv.Atoi(c.PostgresPort); err != nil || port < 1 || port > 65535 {
			return fmt.Errorf("POSTGRES_PORT must be a valid port number")
		}
	default:
		return fmt.Errorf("DATABASE_TYPE must be 'sqlite' or 'postgres'")
	}

	if c.RedisEnabled() {
		if err := validation.ValidateVar(c.RedisAddress, "hostname_port"); err != nil {
			return fmt.Errorf("REDIS_ADDRESS must be host:port")
		}
		if db, err := strconv.Atoi(c.RedisDB); err != nil || db < 0 || db > 15 {
			return fmt.Errorf("REDIS_DB must be a number between 0 and 15")
		}
		if poolSize, err := strconv.Atoi(c.RedisPoolSize); err != nil || poolSize < 1 {
			return fmt.Errorf("REDIS_POOL_SIZE must be a positive number")
		}
	}

	if c.RateLimitEnabled {
		if c.RateLimitRPS <= 0 {
			return fmt.Errorf("RATE_LIMIT_RPS must be positive")
		}
		if c.RateLimitBurst < 1 {
			return fmt.Errorf("RATE_LIMIT_BURST must be at least 1")
		}
	}

	if err := validation.ValidateVar(c.SyncSchedule, "cron_schedule"); err != nil {
		return fmt.Errorf("SYNC_SCHEDULE is not a valid cron expression: %q", c.SyncSchedule)
	}

	return nil
}
