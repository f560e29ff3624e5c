// Package testutil holds builders shared by package tests.
package testutil

import (
	"strconv"
	"time"

	"game-release-tracker/internal/models"
)

// GameBuilder helps build test games
type GameBuilder struct {
	game models.Game
}

// NewGameBuilder creates a game with the given id and name and no release date
func NewGameBuilder(id int64, name string) *GameBuilder {
	return &GameBuilder{game: models.Game{ID: id, Name: name}}
}

// ReleasedAt sets the first release date
func (b *GameBuilder) ReleasedAt(t time.Time) *GameBuilder {
	release := models.NewUnixTime(t)
	b.game.FirstReleaseDate = &release
	return b
}

// ReleasedIn sets the first release date to days after from
func (b *GameBuilder) ReleasedIn(from time.Time, days int) *GameBuilder {
	return b.ReleasedAt(from.AddDate(0, 0, days))
}

// OnPlatforms appends platforms named "Platform <id>"
func (b *GameBuilder) OnPlatforms(ids ...int64) *GameBuilder {
	for _, id := range ids {
		b.game.Platforms = append(b.game.Platforms, Platform(id))
	}
	return b
}

// WithReleaseDate appends a per-platform release date
func (b *GameBuilder) WithReleaseDate(id int64, t time.Time, platform models.Platform) *GameBuilder {
	date := models.NewUnixTime(t)
	b.game.ReleaseDates = append(b.game.ReleaseDates, models.ReleaseDate{ID: id, Date: &date, Platform: &platform})
	return b
}

// WithRating sets the rating
func (b *GameBuilder) WithRating(rating float64) *GameBuilder {
	b.game.Rating = &rating
	return b
}

// WithCover sets the cover thumbnail URL
func (b *GameBuilder) WithCover(id int64, url string) *GameBuilder {
	b.game.Cover = &models.Cover{ID: id, URL: url}
	return b
}

func (b *GameBuilder) Build() models.Game {
	return b.game
}

// Platform returns a platform fixture
func Platform(id int64) models.Platform {
	return models.Platform{ID: id, Name: "Platform " + strconv.FormatInt(id, 10)}
}

// Names returns the game names in order
func Names(games []models.Game) []string {
	out := make([]string, len(games))
	for i, g := range games {
		out[i] = g.Name
	}
	return out
}
