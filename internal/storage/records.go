package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"game-release-tracker/internal/models"
)

// GameRecord is the row shape shared by the SQL backends
type GameRecord struct {
	ID               int64
	Name             string
	FirstReleaseDate *int64
	Document         []byte
	PlatformIDs      []int64
	LastUpdated      time.Time
}

// NewGameRecords stamps each game with now and encodes it for storage.
// Duplicate ids keep the last occurrence.
func NewGameRecords(games []models.Game, now time.Time) ([]GameRecord, error) {
	now = now.UTC()
	index := make(map[int64]int, len(games))
	records := make([]GameRecord, 0, len(games))

	for _, game := range games {
		stamped := now
		game.LastUpdated = &stamped

		doc, err := json.Marshal(game)
		if err != nil {
			return nil, fmt.Errorf("encode game %d: %w", game.ID, err)
		}

		record := GameRecord{
			ID:          game.ID,
			Name:        game.Name,
			Document:    doc,
			PlatformIDs: game.PlatformIDs(),
			LastUpdated: now,
		}
		if game.FirstReleaseDate != nil && !game.FirstReleaseDate.IsZero() {
			epoch := game.FirstReleaseDate.Unix()
			record.FirstReleaseDate = &epoch
		}

		if i, ok := index[game.ID]; ok {
			records[i] = record
			continue
		}
		index[game.ID] = len(records)
		records = append(records, record)
	}
	return records, nil
}

// DecodeGame restores a game from its stored document
func DecodeGame(doc []byte) (models.Game, error) {
	var game models.Game
	if err := json.Unmarshal(doc, &game); err != nil {
		return models.Game{}, fmt.Errorf("decode stored game: %w", err)
	}
	return game, nil
}

// DedupePlatforms keeps the last occurrence of each platform id
func DedupePlatforms(platforms []models.Platform) []models.Platform {
	index := make(map[int64]int, len(platforms))
	out := make([]models.Platform, 0, len(platforms))
	for _, p := range platforms {
		if i, ok := index[p.ID]; ok {
			out[i] = p
			continue
		}
		index[p.ID] = len(out)
		out = append(out, p)
	}
	return out
}
