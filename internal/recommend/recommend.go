// Package recommend produces short related-track lists for a seed track,
// mixing genre affinity, artist affinity, and overall popularity.
package recommend

import (
	"database/sql"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/calliope-fm/calliope/internal/models"
	"github.com/calliope-fm/calliope/internal/repositories"
	"github.com/calliope-fm/calliope/internal/shared"
)

const (
	sameGenreLimit  = 3
	sameArtistLimit = 2
	totalLimit      = 5
)

// Service builds recommendation lists from the track catalog.
type Service struct {
	tracks *repositories.TrackRepository
	logger *log.Logger
}

// NewService creates a Service reading from the given database.
func NewService(db *sql.DB, logger *log.Logger) *Service {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Service{
		tracks: repositories.NewTrackRepository(db),
		logger: logger,
	}
}

// ForTrack returns up to five tracks related to the seed: the most liked
// tracks sharing its genre, then the most played tracks by the same artist,
// then catalog-wide popular tracks to fill the remainder. The seed never
// appears in its own recommendations and no track appears twice.
func (s *Service) ForTrack(seedID string) ([]*models.PersistedTrack, error) {
	seed, err := s.tracks.Get(seedID)
	if err != nil {
		return nil, fmt.Errorf("failed to load seed track: %w", err)
	}

	picks := make([]*models.PersistedTrack, 0, totalLimit)
	seen := map[string]bool{seedID: true}

	add := func(candidates []*models.PersistedTrack, limit int) {
		for _, candidate := range candidates {
			if len(picks) >= totalLimit || limit == 0 {
				return
			}
			if seen[candidate.ID()] {
				continue
			}
			seen[candidate.ID()] = true
			picks = append(picks, candidate)
			limit--
		}
	}

	if seed.Genre() != "" {
		byGenre, err := s.tracks.ListByGenre(seed.Genre(), seedID, sameGenreLimit)
		if err != nil {
			return nil, fmt.Errorf("failed to list tracks by genre: %w", err)
		}
		add(byGenre, sameGenreLimit)
	}

	byArtist, err := s.tracks.ListByArtist(seed.ArtistID(), seedID, sameArtistLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list tracks by artist: %w", err)
	}
	add(byArtist, sameArtistLimit)

	if len(picks) < totalLimit {
		exclude := make([]string, 0, len(seen))
		for id := range seen {
			exclude = append(exclude, id)
		}
		popular, err := s.tracks.ListPopular(exclude, totalLimit-len(picks))
		if err != nil {
			return nil, fmt.Errorf("failed to list popular tracks: %w", err)
		}
		add(popular, totalLimit-len(picks))
	}

	return picks, nil
}
