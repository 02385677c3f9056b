package batch

import (
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/calliope-fm/calliope/internal/metadata"
	"github.com/calliope-fm/calliope/internal/models"
	"github.com/calliope-fm/calliope/internal/shared"
)

// ArtistStatus describes how a track's artist string resolved against the catalog.
type ArtistStatus string

const (
	// ArtistExisting means the name matched a catalog artist case-insensitively.
	ArtistExisting ArtistStatus = "existing"
	// ArtistPending means the name is new and awaits confirmation.
	ArtistPending ArtistStatus = "pending"
	// ArtistMissing means the file carried no usable artist string.
	ArtistMissing ArtistStatus = "missing"
)

// TrackPreview is the transient projection of one uploaded file shown to the
// user before confirmation.
type TrackPreview struct {
	Title       string       `json:"title"`
	Album       string       `json:"album,omitempty"`
	Genre       string       `json:"genre,omitempty"`
	Duration    int          `json:"duration,omitempty"`
	ReleaseYear int          `json:"release_year,omitempty"`
	Bitrate     int          `json:"bitrate,omitempty"`
	SampleRate  int          `json:"sample_rate,omitempty"`
	FileSize    int64        `json:"file_size"`
	FilePath    string       `json:"file_path"`
	Filename    string       `json:"filename"`
	ArtistName  string       `json:"artist_name,omitempty"`
	ArtistState ArtistStatus `json:"artist_status"`
	ArtistID    string       `json:"artist_id,omitempty"`
}

// PendingArtist is an artist name seen in a batch with no catalog match,
// deduplicated by lowercased name. TrackIdx references entries in the payload's
// track list.
type PendingArtist struct {
	Name     string `json:"name"`
	TrackIdx []int  `json:"track_indices"`
}

// Payload describes a previewed batch held in the [Store] until confirmation.
type Payload struct {
	Tracks         []TrackPreview  `json:"tracks"`
	PendingArtists []*PendingArtist `json:"pending_artists"`
	StagingDirs    []string        `json:"staging_dirs"`
	CreatedAt      time.Time       `json:"created_at"`
}

// ArtistResolver looks up catalog artists by display name.
// *repositories.ArtistRepository satisfies it.
type ArtistResolver interface {
	GetByName(name string) (*models.PersistedArtist, error)
}

// Builder produces batch payloads from intake results.
type Builder struct {
	extractor *metadata.Extractor
	artists   ArtistResolver
	logger    *log.Logger
}

// NewBuilder creates a Builder using the given extractor and artist lookup.
func NewBuilder(extractor *metadata.Extractor, artists ArtistResolver, logger *log.Logger) *Builder {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Builder{extractor: extractor, artists: artists, logger: logger}
}

// Build runs extraction over the intake audio files and resolves each track's
// artist, preserving upload order. Tracks whose artist is unknown to the
// catalog are grouped into one pending-artist bucket per distinct name.
func (b *Builder) Build(audioFiles, stagingDirs []string) *Payload {
	payload := &Payload{
		StagingDirs: stagingDirs,
		CreatedAt:   time.Now().UTC(),
	}

	buckets := map[string]*PendingArtist{}

	for _, path := range audioFiles {
		fields := b.extractor.Extract(path)

		preview := TrackPreview{
			Title:       stringOr(fields.Title, stemOf(path)),
			Album:       stringOr(fields.Album, ""),
			Genre:       stringOr(fields.Genre, ""),
			Duration:    intOr(fields.Duration),
			ReleaseYear: intOr(fields.ReleaseYear),
			Bitrate:     intOr(fields.Bitrate),
			SampleRate:  intOr(fields.SampleRate),
			FileSize:    fields.FileSize,
			FilePath:    path,
			Filename:    filepath.Base(path),
		}

		if fields.Artist != nil {
			preview.ArtistName = *fields.Artist
		}
		b.resolveArtist(&preview, len(payload.Tracks), buckets, payload)

		payload.Tracks = append(payload.Tracks, preview)
	}

	return payload
}

// resolveArtist sets the preview's artist status, recording pending names in
// per-batch buckets keyed by lowercased normalized name.
func (b *Builder) resolveArtist(preview *TrackPreview, idx int, buckets map[string]*PendingArtist, payload *Payload) {
	name := shared.NormalizeString(preview.ArtistName)
	if name == "" {
		preview.ArtistState = ArtistMissing
		return
	}
	preview.ArtistName = name

	existing, err := b.artists.GetByName(name)
	if err == nil {
		preview.ArtistState = ArtistExisting
		preview.ArtistID = existing.ID()
		return
	}
	if !errors.Is(err, shared.ErrArtistNotFound) {
		b.logger.Warn("artist lookup failed, treating as pending", "name", name, "error", err)
	}

	key := strings.ToLower(name)
	bucket, ok := buckets[key]
	if !ok {
		bucket = &PendingArtist{Name: name}
		buckets[key] = bucket
		payload.PendingArtists = append(payload.PendingArtists, bucket)
	}
	bucket.TrackIdx = append(bucket.TrackIdx, idx)
	preview.ArtistState = ArtistPending
}

// stemOf returns the filename without extension, used as the title fallback.
func stemOf(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func stringOr(s *string, fallback string) string {
	if s != nil {
		return *s
	}
	return fallback
}

func intOr(v *int) int {
	if v != nil {
		return *v
	}
	return 0
}
