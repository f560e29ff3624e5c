// Package oauth2 manages the application access token used for the game
// catalog API.
//
// # Overview
//
// The catalog API authenticates with the OAuth 2.0 client_credentials grant.
// A Manager owns one credential pair and hands out a bearer token that is
// valid at the time of the call:
//
//	manager, err := oauth2.NewManager(oauth2.Config{
//		Credentials: oauth2.Credentials{
//			ClientID:     clientID,
//			ClientSecret: clientSecret,
//		},
//	})
//	if err != nil {
//		return err
//	}
//
//	token, err := manager.AccessToken(ctx)
//
// # Expiry
//
// Tokens are replaced RefreshMargin (300s) before the expiry announced by the
// server. A lifetime of 3600s therefore yields a token that is reused for
// 3300s. Lifetimes at or below the margin are cut in half instead, so a new
// token is never considered expired on arrival. A missing expires_in is
// treated as 3600s.
//
// # Concurrency
//
// Concurrent callers that find no valid token share one token request through
// golang.org/x/sync/singleflight. Requests to the token endpoint run through a
// circuit breaker; an open breaker fails fast with an authentication error.
//
// # Storage
//
// With WithStorage(NewRedisTokenStorage(client)) a token obtained by one
// instance is adopted by every other instance that uses the same client id.
// Invalidate drops the cached token after the API rejects it, so the next call
// fetches a fresh one.
//
// # Errors
//
// Every failure is an *errors.AppError of type ErrTypeAuth carrying the HTTP
// status when one was received. Nothing is cached on failure.
package oauth2
