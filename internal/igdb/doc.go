// Package igdb is the client for the IGDB game catalog API.
//
// Every query goes through the same steps: wait for the shared pacer, obtain
// a bearer token, POST the query body and classify the response into a
// Result. Failures surface as typed errors from internal/common/errors:
//
//   - authentication failures are ErrTypeAuth
//   - HTTP 429 is ErrTypeRateLimit
//   - any other non-2xx status, transport failure or timeout is ErrTypeUpstream
//
// A 2xx body must be a JSON array. Elements that fail to decode or lack an id
// or name are logged and skipped; the rest are returned.
package igdb
