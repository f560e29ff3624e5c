package oauth2

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	goredis "github.com/go-redis/redis/v8"
)

// RedisInterface defines the Redis operations needed for token storage
type RedisInterface interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// RedisTokenStorage shares tokens between instances through Redis. Entries
// expire together with the token they hold.
type RedisTokenStorage struct {
	client RedisInterface
	prefix string
}

// NewRedisTokenStorage creates a Redis-backed storage using the
// "oauth2:token:" key prefix
func NewRedisTokenStorage(client RedisInterface) *RedisTokenStorage {
	return &RedisTokenStorage{
		client: client,
		prefix: "oauth2:token:",
	}
}

// SaveToken stores token with a TTL ending at its ExpiresAt. Tokens that are
// already expired are not stored.
func (s *RedisTokenStorage) SaveToken(ctx context.Context, key string, token *Token) error {
	ttl := time.Until(token.ExpiresAt)
	if ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}

	if err := s.client.Set(ctx, s.prefix+key, data, ttl); err != nil {
		return fmt.Errorf("failed to store token in Redis: %w", err)
	}
	return nil
}

// LoadToken returns the stored token or nil when none exists
func (s *RedisTokenStorage) LoadToken(ctx context.Context, key string) (*Token, error) {
	data, err := s.client.Get(ctx, s.prefix+key)
	if err != nil {
		if stderrors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get token from Redis: %w", err)
	}

	var token Token
	if err := json.Unmarshal([]byte(data), &token); err != nil {
		return nil, fmt.Errorf("failed to unmarshal token: %w", err)
	}
	return &token, nil
}

// DeleteToken removes the stored token
func (s *RedisTokenStorage) DeleteToken(ctx context.Context, key string) error {
	if err := s.client.Delete(ctx, s.prefix+key); err != nil {
		return fmt.Errorf("failed to delete token from Redis: %w", err)
	}
	return nil
}

var _ TokenStorage = (*RedisTokenStorage)(nil)
