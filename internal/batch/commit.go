package batch

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/mattn/go-sqlite3"

	"github.com/calliope-fm/calliope/internal/models"
	"github.com/calliope-fm/calliope/internal/repositories"
	"github.com/calliope-fm/calliope/internal/shared"
)

// CommitResult summarizes a successful batch commit.
type CommitResult struct {
	TracksCreated  int `json:"tracks_created"`
	ArtistsCreated int `json:"artists_created"`
	// Skipped counts previews dropped at commit time because no artist could
	// be resolved for them (missing metadata, or pending artists left
	// unconfirmed). Each skip carries a message in Warnings.
	Skipped  int      `json:"skipped"`
	Warnings []string `json:"warnings,omitempty"`
}

// ValidationError carries every violation found during pre-commit validation.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%v: %s", shared.ErrValidationFailed, strings.Join(e.Violations, "; "))
}

func (e *ValidationError) Unwrap() error {
	return shared.ErrValidationFailed
}

// Committer turns a stored batch payload into catalog rows.
type Committer struct {
	db     *sql.DB
	store  *Store
	tracks *repositories.TrackRepository
	logger *log.Logger
}

// NewCommitter creates a Committer writing through the given database.
func NewCommitter(db *sql.DB, store *Store, logger *log.Logger) *Committer {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Committer{
		db:     db,
		store:  store,
		tracks: repositories.NewTrackRepository(db),
		logger: logger,
	}
}

// Confirm pops the batch for token and commits it as a single transaction.
//
// When confirmArtists is set, pending-artist buckets are promoted to catalog
// artists (reusing an existing row if one appeared since preview time). Any
// failure rolls back every insert and removes the batch's staging directories;
// on success staging is cleaned as well. The pop is terminal either way - a
// second confirm of the same token fails with [shared.ErrBatchExpired].
func (c *Committer) Confirm(token string, confirmArtists bool) (*CommitResult, error) {
	payload, ok := c.store.Pop(token)
	if !ok {
		return nil, shared.ErrBatchExpired
	}

	if violations := ValidateTracks(payload.Tracks); len(violations) > 0 {
		removeStagingDirs(payload, c.logger)
		return nil, &ValidationError{Violations: violations}
	}

	result, err := c.commit(payload, confirmArtists)
	if err != nil {
		removeStagingDirs(payload, c.logger)
		return nil, err
	}

	removeStagingDirs(payload, c.logger)
	c.logger.Info("batch committed",
		"tracks", result.TracksCreated,
		"artists", result.ArtistsCreated,
		"skipped", result.Skipped)
	return result, nil
}

func (c *Committer) commit(payload *Payload, confirmArtists bool) (*CommitResult, error) {
	tx, err := c.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result := &CommitResult{}

	// artistByKey maps lowercased names to promoted or reused artist IDs.
	artistByKey := map[string]string{}

	if confirmArtists {
		for _, pending := range payload.PendingArtists {
			if pending.Name == "" {
				continue
			}

			key := shared.ArtistKey(pending.Name)

			// Re-check by name: the artist may have been created since the
			// preview was built.
			id, err := findArtistTx(tx, key)
			if err == nil {
				artistByKey[key] = id
				continue
			}
			if err != sql.ErrNoRows {
				return nil, fmt.Errorf("failed to look up artist %q: %w", pending.Name, err)
			}

			id, created, err := createArtistTx(tx, pending.Name)
			if err != nil {
				return nil, fmt.Errorf("failed to create artist %q: %w", pending.Name, err)
			}
			artistByKey[key] = id
			if created {
				result.ArtistsCreated++
			}
		}
	}

	for idx, preview := range payload.Tracks {
		artistID := preview.ArtistID
		if artistID == "" && preview.ArtistName != "" {
			artistID = artistByKey[shared.ArtistKey(preview.ArtistName)]
		}

		if artistID == "" {
			result.Skipped++
			if preview.ArtistName == "" {
				result.Warnings = append(result.Warnings,
					fmt.Sprintf("track %q has no artist metadata", trackLabel(preview, idx)))
			} else {
				result.Warnings = append(result.Warnings,
					fmt.Sprintf("track %q skipped: new artist %q was not confirmed", trackLabel(preview, idx), preview.ArtistName))
			}
			continue
		}

		track := models.NewPersistedTrack(0, artistID, models.Track{
			Title:       preview.Title,
			Album:       preview.Album,
			Genre:       preview.Genre,
			Duration:    preview.Duration,
			ReleaseYear: preview.ReleaseYear,
			FilePath:    preview.FilePath,
			FileSize:    preview.FileSize,
			Bitrate:     preview.Bitrate,
			SampleRate:  preview.SampleRate,
		})

		if err := c.tracks.CreateTx(tx, track); err != nil {
			return nil, fmt.Errorf("failed to insert track %q: %w", preview.Title, err)
		}
		result.TracksCreated++
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit batch: %w", err)
	}

	return result, nil
}

// findArtistTx resolves an artist ID by lowercased name within the transaction.
func findArtistTx(tx *sql.Tx, key string) (string, error) {
	var id string
	err := tx.QueryRow("SELECT id FROM artists WHERE lower(name) = ?", key).Scan(&id)
	return id, err
}

// createArtistTx inserts a minimal artist row within the transaction.
//
// The artists table enforces uniqueness on lower(name). When the insert trips
// that index, another writer promoted the same name first, so the existing row
// is looked up and reused instead of failing the batch. The second return
// value reports whether a new row was actually created.
func createArtistTx(tx *sql.Tx, name string) (string, bool, error) {
	sequence, err := repositories.NextSequenceTx(tx, "artists")
	if err != nil {
		return "", false, err
	}

	artist := models.NewPersistedArtist(sequence, models.Artist{Name: name})
	artist.SetID(shared.GenerateID())
	if err := artist.Validate(); err != nil {
		return "", false, err
	}

	_, err = tx.Exec(`
		INSERT INTO artists (id, sequence, name, bio, genre, country, created_at, updated_at)
		VALUES (?, ?, ?, NULL, NULL, NULL, ?, ?)`,
		artist.ID(), sequence, artist.Name(), artist.CreatedAt(), artist.UpdatedAt(),
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			id, findErr := findArtistTx(tx, shared.ArtistKey(name))
			if findErr != nil {
				return "", false, err
			}
			return id, false, nil
		}
		return "", false, err
	}

	return artist.ID(), true, nil
}
