package cache

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
)

// Type represents the cache backend type
type Type string

const (
	TypeLocal   Type = "local"
	TypeRedis   Type = "redis"
	TypeTwoTier Type = "two_tier"
)

// Config holds cache configuration
type Config struct {
	Type            Type          `json:"type"`
	TTL             time.Duration `json:"ttl"`
	CleanupInterval time.Duration `json:"cleanup_interval,omitempty"`
	KeyPrefix       string        `json:"key_prefix,omitempty"`
	RedisClient     *redis.Client `json:"-"`
}

// DefaultConfig returns default cache configuration
func DefaultConfig() Config {
	return Config{
		Type:            TypeLocal,
		TTL:             10 * time.Minute,
		CleanupInterval: 20 * time.Minute,
		KeyPrefix:       "cache:",
	}
}

// ParseType maps a configuration string to a backend type
func ParseType(s string) (Type, error) {
	switch Type(strings.ToLower(strings.TrimSpace(s))) {
	case "", TypeLocal:
		return TypeLocal, nil
	case TypeRedis:
		return TypeRedis, nil
	case TypeTwoTier, "two-tier", "twotier":
		return TypeTwoTier, nil
	default:
		return "", fmt.Errorf("unknown cache type: %s", s)
	}
}

// New creates a cache instance based on configuration
func New(config Config) (Cache, error) {
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = 2 * config.TTL
	}

	switch config.Type {
	case TypeLocal:
		return NewLocalCache(config.TTL, config.CleanupInterval), nil

	case TypeRedis:
		if config.RedisClient == nil {
			return nil, fmt.Errorf("redis client required for redis cache")
		}
		return NewRedisCache(config.RedisClient, config.KeyPrefix), nil

	case TypeTwoTier:
		if config.RedisClient == nil {
			return nil, fmt.Errorf("redis client required for two-tier cache")
		}
		return NewTwoTierCache(
			config.TTL,
			config.CleanupInterval,
			config.RedisClient,
			config.KeyPrefix,
		), nil

	default:
		return nil, fmt.Errorf("unknown cache type: %s", config.Type)
	}
}

