package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"

	"github.com/calliope-fm/calliope/internal/models"
)

var (
	_ list.Item = artistItem{}
	_ list.Item = trackItem{}
)

// artistItem wraps [models.PersistedArtist] to implement [list.Item].
type artistItem struct {
	artist *models.PersistedArtist
}

func (i artistItem) FilterValue() string { return i.artist.Name() }
func (i artistItem) Title() string       { return i.artist.Name() }
func (i artistItem) Description() string {
	desc := i.artist.Genre()
	if desc == "" {
		desc = "unknown genre"
	}
	if i.artist.Country() != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.artist.Country())
	}
	return desc
}

// trackItem wraps [models.PersistedTrack] to implement [list.Item].
type trackItem struct {
	track *models.PersistedTrack
}

func (i trackItem) FilterValue() string { return i.track.Title() }
func (i trackItem) Title() string       { return i.track.Title() }
func (i trackItem) Description() string {
	desc := i.track.FormatDuration()
	if i.track.Album() != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.track.Album())
	}
	if i.track.PlayCount() > 0 {
		desc = fmt.Sprintf("%s • %d plays", desc, i.track.PlayCount())
	}
	return desc
}
