package app

import (
	"fmt"

	"game-release-tracker/internal/common/cache"
	httpclient "game-release-tracker/internal/common/http"
	"game-release-tracker/internal/common/logging"
	"game-release-tracker/internal/igdb"
	"game-release-tracker/internal/oauth2"
)

func (app *App) initializeCatalogClient() error {
	httpClient := httpclient.NewHTTPClient(httpclient.WithTimeout(app.Config.IGDBTimeout))

	opts := []oauth2.Option{oauth2.WithHTTPClient(httpClient)}
	if app.RedisClient != nil {
		opts = append(opts, oauth2.WithStorage(oauth2.NewRedisTokenStorage(app.RedisClient)))
	}

	tokens, err := oauth2.NewManager(oauth2.Config{
		Credentials: oauth2.Credentials{
			ClientID:     app.Config.IGDBClientID,
			ClientSecret: app.Config.IGDBClientSecret,
		},
		TokenURL: app.Config.IGDBTokenURL,
		Timeout:  app.Config.IGDBTimeout,
	}, opts...)
	if err != nil {
		return fmt.Errorf("failed to initialize token manager: %w", err)
	}
	app.Tokens = tokens

	client, err := igdb.NewClient(igdb.Config{
		ClientID: app.Config.IGDBClientID,
		BaseURL:  app.Config.IGDBBaseURL,
		Timeout:  app.Config.IGDBTimeout,
	}, tokens, app.Limiter, igdb.WithHTTPClient(httpClient))
	if err != nil {
		return fmt.Errorf("failed to initialize IGDB client: %w", err)
	}
	app.IGDB = client

	return nil
}

func (app *App) initializeCache() error {
	cacheType, err := cache.ParseType(app.Config.CacheType)
	if err != nil {
		return err
	}

	cacheConfig := cache.DefaultConfig()
	cacheConfig.Type = cacheType
	cacheConfig.TTL = app.Config.CacheTTL
	cacheConfig.KeyPrefix = "tracker:cache:"

	if cacheType != cache.TypeLocal {
		if app.RedisClient == nil {
			app.Logger.Warn("Redis unavailable, using a local response cache",
				logging.String("requested", string(cacheType)))
			cacheConfig.Type = cache.TypeLocal
		} else {
			cacheConfig.RedisClient = app.RedisClient.GetGoRedisClient()
		}
	}

	c, err := cache.New(cacheConfig)
	if err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}

	app.Cache = c
	app.Logger.Info("Response Cache: Enabled",
		logging.String("type", string(cacheConfig.Type)),
		logging.Duration("ttl", cacheConfig.TTL),
	)
	return nil
}
