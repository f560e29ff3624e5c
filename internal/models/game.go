// Package models holds the catalog entities returned by the upstream API and
// served by the public HTTP API.
package models

import (
	"sort"
	"strings"
	"time"
)

// DefaultCoverSize is the image variant used when no size is requested
const DefaultCoverSize = "cover_big"

// Platform is a gaming platform such as "PC (Microsoft Windows)"
type Platform struct {
	ID           int64  `json:"id" validate:"required"`
	Name         string `json:"name" validate:"required"`
	Abbreviation string `json:"abbreviation,omitempty"`
}

// ReleaseDate is a single platform/region release of a game
type ReleaseDate struct {
	ID       int64     `json:"id" validate:"required"`
	Date     *UnixTime `json:"date,omitempty"`
	Human    string    `json:"human,omitempty"`
	Platform *Platform `json:"platform,omitempty"`
	Region   *int      `json:"region,omitempty"`
}

// Cover is a game's cover art reference
type Cover struct {
	ID  int64  `json:"id" validate:"required"`
	URL string `json:"url,omitempty"`
}

// ImageURL returns an absolute URL for the requested size, e.g. "cover_big"
// or "thumb". It is empty when the cover has no URL.
func (c *Cover) ImageURL(size string) string {
	if c == nil || c.URL == "" {
		return ""
	}
	if size == "" {
		size = DefaultCoverSize
	}

	url := strings.Replace(c.URL, "t_thumb", "t_"+size, 1)
	if strings.HasPrefix(url, "//") {
		return "https:" + url
	}
	return url
}

// Game is a catalog entry
type Game struct {
	ID               int64         `json:"id" validate:"required"`
	Name             string        `json:"name" validate:"required"`
	Summary          string        `json:"summary,omitempty"`
	Rating           *float64      `json:"rating,omitempty"`
	FirstReleaseDate *UnixTime     `json:"first_release_date,omitempty"`
	ReleaseDates     []ReleaseDate `json:"release_dates,omitempty" validate:"omitempty,dive"`
	Platforms        []Platform    `json:"platforms,omitempty" validate:"omitempty,dive"`
	Cover            *Cover        `json:"cover,omitempty"`
	LastUpdated      *time.Time    `json:"last_updated,omitempty"`
}

// PlatformIDs returns the distinct platform ids of the game and its release
// dates in first-seen order
func (g *Game) PlatformIDs() []int64 {
	seen := make(map[int64]struct{})
	var ids []int64
	add := func(id int64) {
		if id == 0 {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	for _, p := range g.Platforms {
		add(p.ID)
	}
	for _, rd := range g.ReleaseDates {
		if rd.Platform != nil {
			add(rd.Platform.ID)
		}
	}
	return ids
}

// GameResponse is the envelope for game listings
type GameResponse struct {
	Games      []Game `json:"games"`
	TotalCount int    `json:"total_count"`
	Page       int    `json:"page"`
	PerPage    int    `json:"per_page"`
}

// NewGameResponse wraps a single page of games
func NewGameResponse(games []Game, perPage int) GameResponse {
	if games == nil {
		games = []Game{}
	}
	return GameResponse{
		Games:      games,
		TotalCount: len(games),
		Page:       1,
		PerPage:    perPage,
	}
}

// SortGames orders games by first release date ascending with undated games
// last, then by name
func SortGames(games []Game) {
	sort.SliceStable(games, func(i, j int) bool {
		a, b := games[i].FirstReleaseDate, games[j].FirstReleaseDate
		aSet := a != nil && !a.IsZero()
		bSet := b != nil && !b.IsZero()

		switch {
		case aSet && bSet && !a.Equal(b.Time):
			return a.Time.Before(b.Time)
		case aSet != bSet:
			return aSet
		default:
			return games[i].Name < games[j].Name
		}
	})
}
