package models

import (
	"fmt"
	"strings"
	"time"
)

// Artist holds the mutable profile fields of a catalog artist.
type Artist struct {
	Name    string
	Bio     string
	Genre   string
	Country string
}

// Track holds the metadata fields of a catalog track.
//
// Zero values mean the field was absent from the source audio file. Duration
// is in seconds, FileSize in bytes, Bitrate in kbit/s, SampleRate in Hz.
type Track struct {
	Title       string
	Album       string
	Genre       string
	Duration    int
	ReleaseYear int
	FilePath    string
	FileSize    int64
	Bitrate     int
	SampleRate  int
}

// PersistedArtist is a catalog artist row. Implements [Model].
type PersistedArtist struct {
	id        string
	sequence  int
	fields    Artist
	createdAt time.Time
	updatedAt time.Time
}

// NewPersistedArtist creates a PersistedArtist from its profile fields.
// The ID is assigned by the repository on Create.
func NewPersistedArtist(sequence int, fields Artist) *PersistedArtist {
	now := time.Now().UTC()
	return &PersistedArtist{
		sequence:  sequence,
		fields:    fields,
		createdAt: now,
		updatedAt: now,
	}
}

func (a *PersistedArtist) ID() string           { return a.id }
func (a *PersistedArtist) Sequence() int        { return a.sequence }
func (a *PersistedArtist) Name() string         { return a.fields.Name }
func (a *PersistedArtist) Bio() string          { return a.fields.Bio }
func (a *PersistedArtist) Genre() string        { return a.fields.Genre }
func (a *PersistedArtist) Country() string      { return a.fields.Country }
func (a *PersistedArtist) CreatedAt() time.Time { return a.createdAt }
func (a *PersistedArtist) UpdatedAt() time.Time { return a.updatedAt }

func (a *PersistedArtist) SetID(id string)          { a.id = id }
func (a *PersistedArtist) SetFields(fields Artist)  { a.fields = fields }
func (a *PersistedArtist) SetCreatedAt(t time.Time) { a.createdAt = t }
func (a *PersistedArtist) SetUpdatedAt(t time.Time) { a.updatedAt = t }

// Validate checks that the artist has a usable display name.
func (a *PersistedArtist) Validate() error {
	if strings.TrimSpace(a.fields.Name) == "" {
		return fmt.Errorf("artist name is required")
	}
	return nil
}

// PersistedTrack is a catalog track row. Implements [Model].
//
// Every persisted track belongs to exactly one artist; deleting the artist
// cascades to its tracks at the storage layer.
type PersistedTrack struct {
	id           string
	sequence     int
	artistID     string
	fields       Track
	playCount    int
	likeCount    int
	dislikeCount int
	createdAt    time.Time
	updatedAt    time.Time
}

// NewPersistedTrack creates a PersistedTrack owned by the given artist.
// The ID is assigned by the repository on Create.
func NewPersistedTrack(sequence int, artistID string, fields Track) *PersistedTrack {
	now := time.Now().UTC()
	return &PersistedTrack{
		sequence:  sequence,
		artistID:  artistID,
		fields:    fields,
		createdAt: now,
		updatedAt: now,
	}
}

func (t *PersistedTrack) ID() string           { return t.id }
func (t *PersistedTrack) Sequence() int        { return t.sequence }
func (t *PersistedTrack) ArtistID() string     { return t.artistID }
func (t *PersistedTrack) Title() string        { return t.fields.Title }
func (t *PersistedTrack) Album() string        { return t.fields.Album }
func (t *PersistedTrack) Genre() string        { return t.fields.Genre }
func (t *PersistedTrack) Duration() int        { return t.fields.Duration }
func (t *PersistedTrack) ReleaseYear() int     { return t.fields.ReleaseYear }
func (t *PersistedTrack) FilePath() string     { return t.fields.FilePath }
func (t *PersistedTrack) FileSize() int64      { return t.fields.FileSize }
func (t *PersistedTrack) Bitrate() int         { return t.fields.Bitrate }
func (t *PersistedTrack) SampleRate() int      { return t.fields.SampleRate }
func (t *PersistedTrack) PlayCount() int       { return t.playCount }
func (t *PersistedTrack) LikeCount() int       { return t.likeCount }
func (t *PersistedTrack) DislikeCount() int    { return t.dislikeCount }
func (t *PersistedTrack) CreatedAt() time.Time { return t.createdAt }
func (t *PersistedTrack) UpdatedAt() time.Time { return t.updatedAt }

// Fields returns a copy of the track's metadata fields.
func (t *PersistedTrack) Fields() Track { return t.fields }

func (t *PersistedTrack) SetID(id string)           { t.id = id }
func (t *PersistedTrack) SetFields(fields Track)    { t.fields = fields }
func (t *PersistedTrack) SetCreatedAt(tm time.Time) { t.createdAt = tm }
func (t *PersistedTrack) SetUpdatedAt(tm time.Time) { t.updatedAt = tm }

// SetCounters restores the usage counters, used when scanning rows.
func (t *PersistedTrack) SetCounters(play, like, dislike int) {
	t.playCount = play
	t.likeCount = like
	t.dislikeCount = dislike
}

// Validate checks referential and counter invariants before persistence.
func (t *PersistedTrack) Validate() error {
	if strings.TrimSpace(t.fields.Title) == "" {
		return fmt.Errorf("track title is required")
	}
	if t.artistID == "" {
		return fmt.Errorf("track must belong to an artist")
	}
	if t.fields.Duration < 0 {
		return fmt.Errorf("track duration cannot be negative")
	}
	if t.playCount < 0 || t.likeCount < 0 || t.dislikeCount < 0 {
		return fmt.Errorf("track counters cannot be negative")
	}
	return nil
}

// FormatDuration renders the track duration as M:SS for display.
func (t *PersistedTrack) FormatDuration() string {
	if t.fields.Duration <= 0 {
		return "0:00"
	}
	return fmt.Sprintf("%d:%02d", t.fields.Duration/60, t.fields.Duration%60)
}
