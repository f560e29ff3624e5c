package oauth2

import (
	"context"
	"sync"
)

// TokenStorage persists tokens so that instances sharing one credential pair
// can reuse a single token. LoadToken returns nil, nil when nothing is stored.
type TokenStorage interface {
	LoadToken(ctx context.Context, key string) (*Token, error)
	SaveToken(ctx context.Context, key string, token *Token) error
	DeleteToken(ctx context.Context, key string) error
}

// MemoryTokenStorage implements TokenStorage in process memory. It is mostly
// useful in tests.
type MemoryTokenStorage struct {
	mu     sync.RWMutex
	tokens map[string]*Token
}

// NewMemoryTokenStorage creates an empty in-memory storage
func NewMemoryTokenStorage() *MemoryTokenStorage {
	return &MemoryTokenStorage{
		tokens: make(map[string]*Token),
	}
}

// SaveToken stores token under key, replacing any previous value
func (s *MemoryTokenStorage) SaveToken(_ context.Context, key string, token *Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[key] = token
	return nil
}

// LoadToken returns the token stored under key
func (s *MemoryTokenStorage) LoadToken(_ context.Context, key string) (*Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens[key], nil
}

// DeleteToken removes the token stored under key
func (s *MemoryTokenStorage) DeleteToken(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, key)
	return nil
}

var _ TokenStorage = (*MemoryTokenStorage)(nil)
