package oauth2

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"
	"game-release-tracker/internal/circuitbreaker"
	"game-release-tracker/internal/common/errors"
	"game-release-tracker/internal/common/logging"
)

const (
	// DefaultTokenURL is the Twitch endpoint that issues IGDB credentials
	DefaultTokenURL = "https://id.twitch.tv/oauth2/token"
	// RefreshMargin is how long before the upstream expiry a token is replaced
	RefreshMargin = 300 * time.Second
	// DefaultExpiresIn is assumed when the server omits expires_in
	DefaultExpiresIn = 3600
	// DefaultTimeout bounds a single token request
	DefaultTimeout = 30 * time.Second

	maxErrorBody = 512
)

// Credentials identify this process to the token endpoint. The secret is
// never printed.
type Credentials struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"-"`
}

// String implements fmt.Stringer without exposing the secret
func (c Credentials) String() string {
	return fmt.Sprintf("Credentials{ClientID: %s, ClientSecret: [REDACTED]}", c.ClientID)
}

// GoString keeps %#v from printing the secret
func (c Credentials) GoString() string {
	return c.String()
}

// Validate checks that both halves of the credential pair are present
func (c Credentials) Validate() error {
	if c.ClientID == "" {
		return errors.ConfigError("client_id is required")
	}
	if c.ClientSecret == "" {
		return errors.ConfigError("client_secret is required")
	}
	return nil
}

// TokenResponse is the wire form returned by the token endpoint
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// Token is a bearer token with the instant after which it must be replaced.
// ExpiresAt already includes the refresh margin. A Token is replaced, never
// mutated.
type Token struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Valid reports whether the token can be used at now
func (t *Token) Valid(now time.Time) bool {
	return t != nil && t.AccessToken != "" && now.Before(t.ExpiresAt)
}

// ExpiresAt returns the refresh instant for a token issued at now with the
// given lifetime in seconds. Lifetimes at or below the refresh margin keep
// half of their duration, and never less than one second, so the result is
// always after now.
func ExpiresAt(now time.Time, expiresIn int) time.Time {
	if expiresIn <= 0 {
		expiresIn = DefaultExpiresIn
	}

	lifetime := time.Duration(expiresIn) * time.Second
	if lifetime > RefreshMargin {
		return now.Add(lifetime - RefreshMargin)
	}

	keep := lifetime / 2
	if keep < time.Second {
		keep = time.Second
	}
	return now.Add(keep)
}

// Config configures a Manager
type Config struct {
	Credentials
	TokenURL string
	Timeout  time.Duration
}

// Manager owns the access token for one credential pair. It is safe for
// concurrent use; concurrent refreshes collapse into a single request.
type Manager struct {
	config     Config
	httpClient *http.Client
	storage    TokenStorage
	breaker    *circuitbreaker.GoBreakerAdapter
	clock      clockwork.Clock
	logger     logging.Logger

	mu    sync.RWMutex
	token *Token

	group     singleflight.Group
	requests  atomic.Int64
	failures  atomic.Int64
	fromStore atomic.Int64
}

// Option customizes a Manager
type Option func(*Manager)

// WithStorage shares tokens through storage, typically Redis
func WithStorage(storage TokenStorage) Option {
	return func(m *Manager) { m.storage = storage }
}

// WithHTTPClient replaces the default client
func WithHTTPClient(client *http.Client) Option {
	return func(m *Manager) { m.httpClient = client }
}

// WithClock replaces the wall clock
func WithClock(clock clockwork.Clock) Option {
	return func(m *Manager) { m.clock = clock }
}

// WithLogger sets the logger
func WithLogger(logger logging.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// WithBreaker replaces the token endpoint circuit breaker
func WithBreaker(breaker *circuitbreaker.GoBreakerAdapter) Option {
	return func(m *Manager) { m.breaker = breaker }
}

// NewManager creates a token manager. No request is made until the first
// AccessToken call.
func NewManager(config Config, opts ...Option) (*Manager, error) {
	if err := config.Credentials.Validate(); err != nil {
		return nil, err
	}
	if config.TokenURL == "" {
		config.TokenURL = DefaultTokenURL
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}

	m := &Manager{
		config: config,
		clock:  clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(m)
	}

	if m.logger == nil {
		m.logger = logging.GetGlobalLogger().WithFields(logging.String("component", "oauth2"))
	}
	if m.httpClient == nil {
		m.httpClient = &http.Client{Timeout: config.Timeout}
	}
	if m.breaker == nil {
		m.breaker = circuitbreaker.NewGoBreaker("oauth2-token", circuitbreaker.TokenEndpointConfig, m.logger)
	}

	return m, nil
}

// AccessToken returns a bearer token valid at the time of the call. A cached
// token is returned without I/O; otherwise the shared storage is consulted
// and, failing that, a new token is requested. Failures are AuthErrors and
// leave the cache untouched.
func (m *Manager) AccessToken(ctx context.Context) (string, error) {
	token, err := m.Token(ctx)
	if err != nil {
		return "", err
	}
	return token.AccessToken, nil
}

// Token is AccessToken returning the full token
func (m *Manager) Token(ctx context.Context) (*Token, error) {
	if token := m.cached(); token != nil {
		return token, nil
	}

	// the refresh outlives a cancelled caller so waiting callers still get it
	ch := m.group.DoChan("token", func() (interface{}, error) {
		return m.refresh(context.WithoutCancel(ctx))
	})

	select {
	case <-ctx.Done():
		return nil, errors.AuthError("token request cancelled", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Token), nil
	}
}

// Invalidate drops the cached token so the next call refreshes. The stored
// copy is removed only if it is the same token, so a newer token saved by
// another instance survives.
func (m *Manager) Invalidate(ctx context.Context) error {
	m.mu.Lock()
	old := m.token
	m.token = nil
	m.mu.Unlock()

	if old == nil || m.storage == nil {
		return nil
	}

	stored, err := m.storage.LoadToken(ctx, m.storageKey())
	if err != nil {
		return err
	}
	if stored != nil && stored.AccessToken == old.AccessToken {
		return m.storage.DeleteToken(ctx, m.storageKey())
	}
	return nil
}

// Stats reports token and breaker state without exposing the token
func (m *Manager) Stats() map[string]interface{} {
	stats := map[string]interface{}{
		"client_id":      m.config.ClientID,
		"token_requests": m.requests.Load(),
		"token_failures": m.failures.Load(),
		"storage_hits":   m.fromStore.Load(),
		"breaker":        m.breaker.Stats(),
	}

	m.mu.RLock()
	token := m.token
	m.mu.RUnlock()

	stats["has_token"] = token.Valid(m.clock.Now())
	if token != nil {
		stats["expires_at"] = token.ExpiresAt.Format(time.RFC3339)
	}
	return stats
}

func (m *Manager) cached() *Token {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.token.Valid(m.clock.Now()) {
		return m.token
	}
	return nil
}

func (m *Manager) store(token *Token) {
	m.mu.Lock()
	m.token = token
	m.mu.Unlock()
}

func (m *Manager) storageKey() string {
	return m.config.ClientID
}

func (m *Manager) refresh(ctx context.Context) (*Token, error) {
	if token := m.cached(); token != nil {
		return token, nil
	}

	if m.storage != nil {
		stored, err := m.storage.LoadToken(ctx, m.storageKey())
		if err != nil {
			m.logger.Warn("Failed to load shared token", logging.Err(err))
		} else if stored.Valid(m.clock.Now()) {
			m.fromStore.Add(1)
			m.store(stored)
			m.logger.Debug("Adopted shared token", logging.Time("expires_at", stored.ExpiresAt))
			return stored, nil
		}
	}

	token, err := m.requestToken(ctx)
	if err != nil {
		m.failures.Add(1)
		return nil, err
	}
	m.store(token)

	if m.storage != nil {
		if err := m.storage.SaveToken(ctx, m.storageKey(), token); err != nil {
			m.logger.Warn("Failed to persist token", logging.Err(err))
		}
	}

	m.logger.Info("Obtained access token", logging.Time("expires_at", token.ExpiresAt))
	return token, nil
}

// requestToken performs the client_credentials exchange
func (m *Manager) requestToken(ctx context.Context) (*Token, error) {
	var token *Token
	err := m.breaker.Execute(ctx, func() error {
		var reqErr error
		token, reqErr = m.exchange(ctx)
		return reqErr
	})
	if err != nil {
		if errors.IsType(err, errors.ErrTypeAuth) {
			return nil, err
		}
		return nil, errors.AuthError("token request rejected", err)
	}
	return token, nil
}

func (m *Manager) exchange(ctx context.Context) (*Token, error) {
	m.requests.Add(1)

	data := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {m.config.ClientID},
		"client_secret": {m.config.ClientSecret},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.config.TokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, errors.AuthError("failed to create token request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, errors.AuthError("token request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, errors.AuthError("failed to read token response", err).WithStatus(resp.StatusCode)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.AuthError(
			fmt.Sprintf("token request failed: %s", upstreamMessage(body)), nil,
		).WithStatus(resp.StatusCode)
	}

	var tokenResp TokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return nil, errors.AuthError("failed to decode token response", err).WithStatus(resp.StatusCode)
	}
	if tokenResp.AccessToken == "" {
		return nil, errors.AuthError("token response has no access_token", nil).WithStatus(resp.StatusCode)
	}

	tokenType := tokenResp.TokenType
	if tokenType == "" {
		tokenType = "bearer"
	}

	return &Token{
		AccessToken: tokenResp.AccessToken,
		TokenType:   tokenType,
		ExpiresAt:   ExpiresAt(m.clock.Now(), tokenResp.ExpiresIn),
	}, nil
}

// upstreamMessage extracts a human readable reason from an error body. Twitch
// answers {"status":400,"message":"..."}; RFC 6749 servers use error and
// error_description.
func upstreamMessage(body []byte) string {
	var errResp struct {
		Error       string `json:"error"`
		Description string `json:"error_description"`
		Message     string `json:"message"`
	}
	if err := json.Unmarshal(body, &errResp); err == nil {
		switch {
		case errResp.Message != "":
			return errResp.Message
		case errResp.Error != "" && errResp.Description != "":
			return errResp.Error + " - " + errResp.Description
		case errResp.Error != "":
			return errResp.Error
		}
	}

	text := strings.TrimSpace(string(body))
	if len(text) > maxErrorBody {
		text = text[:maxErrorBody] + "..."
	}
	if text == "" {
		return "empty response"
	}
	return text
}
