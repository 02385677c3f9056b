package ui

import (
	"github.com/calliope-fm/calliope/internal/models"
)

// artistsLoadedMsg carries the catalog artist listing.
type artistsLoadedMsg struct {
	artists []*models.PersistedArtist
	err     error
}

// tracksLoadedMsg carries one artist's tracks.
type tracksLoadedMsg struct {
	artist *models.PersistedArtist
	tracks []*models.PersistedTrack
	err    error
}

// detailLoadedMsg carries a track with its related-track list.
type detailLoadedMsg struct {
	track   *models.PersistedTrack
	related []*models.PersistedTrack
	err     error
}

// counterBumpedMsg carries the refreshed track after a play or like.
type counterBumpedMsg struct {
	track *models.PersistedTrack
	err   error
}
