// Package storage persists fetched games and platforms so list endpoints can
// be served without spending upstream request budget.
//
// Backends register themselves with DefaultRegistry from their init
// functions; import game-release-tracker/internal/storage/sqlite or
// game-release-tracker/internal/storage/postgres to link one in. Both share
// the goose migrations embedded in this package.
package storage
