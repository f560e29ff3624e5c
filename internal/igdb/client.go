package igdb

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"game-release-tracker/internal/common/errors"
	"game-release-tracker/internal/common/logging"
	"game-release-tracker/internal/common/validation"
	"game-release-tracker/internal/models"
)

const (
	// DefaultBaseURL is the catalog API root
	DefaultBaseURL = "https://api.igdb.com/v4"
	// DefaultTimeout is the ceiling for one entity request
	DefaultTimeout = 30 * time.Second

	EndpointGames     = "games"
	EndpointPlatforms = "platforms"

	maxResponseBody = 32 << 20
)

// TokenSource supplies bearer tokens
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// tokenInvalidator is implemented by token sources that can drop a token the
// API rejected
type tokenInvalidator interface {
	Invalidate(ctx context.Context) error
}

// Pacer gates the start of every outbound request
type Pacer interface {
	Wait(ctx context.Context) error
}

// Config configures a Client
type Config struct {
	ClientID string
	BaseURL  string
	Timeout  time.Duration
}

// Client performs authenticated, paced queries against the catalog API. One
// Client and its Pacer are shared by all callers so every query kind draws
// from the same request budget. The client never retries.
type Client struct {
	config     Config
	httpClient *http.Client
	tokens     TokenSource
	pacer      Pacer
	clock      clockwork.Clock
	logger     logging.Logger
	validator  *validation.CentralizedValidator

	requests    atomic.Int64
	rateLimited atomic.Int64
	failures    atomic.Int64
	skipped     atomic.Int64
}

// Option customizes a Client
type Option func(*Client)

// WithHTTPClient replaces the default client. Its Timeout is left as given.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) { c.httpClient = client }
}

// WithClock replaces the wall clock used for release windows
func WithClock(clock clockwork.Clock) Option {
	return func(c *Client) { c.clock = clock }
}

// WithLogger sets the logger
func WithLogger(logger logging.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// NewClient creates a catalog API client
func NewClient(config Config, tokens TokenSource, pacer Pacer, opts ...Option) (*Client, error) {
	if config.ClientID == "" {
		return nil, errors.ConfigError("client_id is required")
	}
	if tokens == nil {
		return nil, errors.ConfigError("token source is required")
	}
	if pacer == nil {
		return nil, errors.ConfigError("rate limiter is required")
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}

	c := &Client{
		config:    config,
		tokens:    tokens,
		pacer:     pacer,
		clock:     clockwork.NewRealClock(),
		validator: validation.NewCentralizedValidator(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: config.Timeout}
	}
	if c.logger == nil {
		c.logger = logging.GetGlobalLogger().WithFields(logging.String("component", "igdb"))
	}

	return c, nil
}

// FetchUpcomingReleases returns games with a release date in
// [now, now+daysAhead days), earliest first. When platformIDs is non-empty
// only releases on one of those platforms match.
func (c *Client) FetchUpcomingReleases(ctx context.Context, daysAhead, limit int, platformIDs []int64) ([]models.Game, error) {
	if daysAhead <= 0 {
		return nil, errors.ValidationError("days_ahead must be positive")
	}
	if err := validateLimit(limit); err != nil {
		return nil, err
	}
	for _, id := range platformIDs {
		if id <= 0 {
			return nil, errors.ValidationError(fmt.Sprintf("invalid platform id %d", id))
		}
	}

	now := c.clock.Now()
	end := now.Add(time.Duration(daysAhead) * 24 * time.Hour)
	query := UpcomingQuery(now, end, limit, platformIDs)

	games, err := fetch[models.Game](ctx, c, EndpointGames, query)
	if err != nil {
		return nil, fmt.Errorf("fetch upcoming releases: %w", err)
	}

	c.logger.WithContext(ctx).Info("Fetched upcoming games",
		logging.Int("count", len(games)),
		logging.Int("days_ahead", daysAhead),
		logging.Int("platforms", len(platformIDs)),
	)
	return games, nil
}

// SearchByName runs a free-text search on game names
func (c *Client) SearchByName(ctx context.Context, term string, limit int) ([]models.Game, error) {
	if strings.TrimSpace(term) == "" {
		return nil, errors.ValidationError("search term is required")
	}
	if err := validateLimit(limit); err != nil {
		return nil, err
	}

	games, err := fetch[models.Game](ctx, c, EndpointGames, SearchQuery(term, limit))
	if err != nil {
		return nil, fmt.Errorf("search games: %w", err)
	}
	return games, nil
}

// FetchPlatforms lists consoles, portables and computers sorted by name
func (c *Client) FetchPlatforms(ctx context.Context) ([]models.Platform, error) {
	platforms, err := fetch[models.Platform](ctx, c, EndpointPlatforms, PlatformsQuery())
	if err != nil {
		return nil, fmt.Errorf("fetch platforms: %w", err)
	}

	c.logger.WithContext(ctx).Info("Fetched platforms", logging.Int("count", len(platforms)))
	return platforms, nil
}

// Do sends one query to endpoint and classifies the response. It waits for
// the pacer, then obtains a token, then issues a single POST.
func (c *Client) Do(ctx context.Context, endpoint string, query Query) Result {
	result := Result{Endpoint: endpoint}

	if err := c.pacer.Wait(ctx); err != nil {
		result.Outcome = TransportError
		result.Err = err
		return result
	}

	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		result.Outcome = AuthFailed
		result.Err = err
		return result
	}

	body := query.String()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/"+endpoint, strings.NewReader(body))
	if err != nil {
		result.Outcome = TransportError
		result.Err = err
		return result
	}
	req.Header.Set("Client-ID", c.config.ClientID)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "text/plain")

	c.requests.Add(1)
	c.logger.WithContext(ctx).Debug("Sending query",
		logging.String("endpoint", endpoint),
		logging.String("query", body),
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		result.Outcome = TransportError
		result.Err = describeTransportError(err)
		return result
	}
	defer resp.Body.Close()

	result.StatusCode = resp.StatusCode
	result.Body, err = io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		result.Outcome = TransportError
		result.Err = describeTransportError(err)
		return result
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		result.Outcome = RateLimited
		result.RetryAfter = resp.Header.Get("Retry-After")
	case resp.StatusCode >= 200 && resp.StatusCode <= 299:
		result.Outcome = Success
	default:
		result.Outcome = TransportError
		if resp.StatusCode == http.StatusUnauthorized {
			c.invalidateToken(ctx)
		}
	}
	return result
}

// Stats returns request counters
func (c *Client) Stats() map[string]interface{} {
	return map[string]interface{}{
		"base_url":         c.config.BaseURL,
		"requests":         c.requests.Load(),
		"rate_limited":     c.rateLimited.Load(),
		"failures":         c.failures.Load(),
		"skipped_entities": c.skipped.Load(),
	}
}

func (c *Client) invalidateToken(ctx context.Context) {
	inv, ok := c.tokens.(tokenInvalidator)
	if !ok {
		return
	}
	if err := inv.Invalidate(ctx); err != nil {
		c.logger.WithContext(ctx).Warn("Failed to invalidate rejected token", logging.Err(err))
	}
}

// fetch runs query and decodes the JSON array response element by element.
// Elements that do not decode or fail validation are skipped.
func fetch[T any](ctx context.Context, c *Client, endpoint string, query Query) ([]T, error) {
	result := c.Do(ctx, endpoint, query)
	if err := result.Error(); err != nil {
		if result.Outcome == RateLimited {
			c.rateLimited.Add(1)
		} else {
			c.failures.Add(1)
		}
		c.logger.WithContext(ctx).Error("Catalog request failed", err,
			logging.String("endpoint", endpoint),
			logging.String("outcome", result.Outcome.String()),
			logging.Int("status", result.StatusCode),
		)
		return nil, err
	}

	return decodeEntities[T](ctx, c, endpoint, result.Body)
}

func decodeEntities[T any](ctx context.Context, c *Client, endpoint string, body []byte) ([]T, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		c.failures.Add(1)
		return nil, errors.UpstreamError(http.StatusOK,
			fmt.Sprintf("%s response is not a JSON array: %s", endpoint, snippet(body)), err)
	}

	entities := make([]T, 0, len(raw))
	for i, element := range raw {
		var entity T
		if err := json.Unmarshal(element, &entity); err != nil {
			c.skip(ctx, endpoint, i, element, err)
			continue
		}
		if err := c.validator.ValidateStruct(entity); err != nil {
			c.skip(ctx, endpoint, i, element, err)
			continue
		}
		entities = append(entities, entity)
	}
	return entities, nil
}

func (c *Client) skip(ctx context.Context, endpoint string, index int, element []byte, err error) {
	c.skipped.Add(1)
	c.logger.WithContext(ctx).Warn("Skipping malformed entity",
		logging.String("endpoint", endpoint),
		logging.Int("index", index),
		logging.String("element", snippet(element)),
		logging.Err(err),
	)
}

func validateLimit(limit int) error {
	if limit <= 0 {
		return errors.ValidationError("limit must be positive")
	}
	return nil
}

func describeTransportError(err error) error {
	var netErr net.Error
	if stderrors.As(err, &netErr) && netErr.Timeout() {
		timeout := errors.TimeoutError("catalog request")
		timeout.Cause = err
		return timeout
	}
	return err
}
