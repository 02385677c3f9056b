package repositories

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/calliope-fm/calliope/internal/models"
	"github.com/calliope-fm/calliope/internal/shared"
)

const trackColumns = `id, sequence, artist_id, title, album, genre, duration, release_year,
	file_path, file_size, bitrate, sample_rate, play_count, like_count, dislike_count,
	created_at, updated_at`

// TrackRepository implements models.Repository[*models.PersistedTrack].
//
// Beyond CRUD it carries the usage counter updates and the ranking queries
// backing the recommendation endpoint.
type TrackRepository struct {
	db *sql.DB
}

// NewTrackRepository creates a new TrackRepository with the given database connection
func NewTrackRepository(db *sql.DB) *TrackRepository {
	return &TrackRepository{db: db}
}

// Create inserts a new [models.PersistedTrack] into the database with generated ID and sequence
func (r *TrackRepository) Create(track *models.PersistedTrack) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := r.CreateTx(tx, track); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit track insert: %w", err)
	}

	return nil
}

// CreateTx inserts a track within an existing transaction.
//
// The batch committer uses this so a whole batch of tracks either commits or
// rolls back as a unit.
func (r *TrackRepository) CreateTx(tx *sql.Tx, track *models.PersistedTrack) error {
	sequence, err := NextSequenceTx(tx, "tracks")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	track.SetID(id)

	if err := track.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO tracks (id, sequence, artist_id, title, album, genre, duration, release_year,
			file_path, file_size, bitrate, sample_rate, play_count, like_count, dislike_count,
			created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	fields := track.Fields()
	_, err = tx.Exec(query,
		id,
		sequence,
		track.ArtistID(),
		fields.Title,
		nullable(fields.Album),
		nullable(fields.Genre),
		nullableInt(fields.Duration),
		nullableInt(fields.ReleaseYear),
		nullable(fields.FilePath),
		nullableInt64(fields.FileSize),
		nullableInt(fields.Bitrate),
		nullableInt(fields.SampleRate),
		track.PlayCount(),
		track.LikeCount(),
		track.DislikeCount(),
		track.CreatedAt(),
		track.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert track: %w", err)
	}

	return nil
}

// Get retrieves a track by ID
func (r *TrackRepository) Get(id string) (*models.PersistedTrack, error) {
	query := fmt.Sprintf("SELECT %s FROM tracks WHERE id = ?", trackColumns)
	return scanTrack(r.db.QueryRow(query, id))
}

// Update modifies an existing track in the database
func (r *TrackRepository) Update(track *models.PersistedTrack) error {
	if err := track.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now().UTC()
	track.SetUpdatedAt(now)

	query := `
		UPDATE tracks
		SET title = ?, album = ?, genre = ?, duration = ?, release_year = ?,
			file_path = ?, file_size = ?, bitrate = ?, sample_rate = ?, updated_at = ?
		WHERE id = ?
	`

	fields := track.Fields()
	result, err := r.db.Exec(query,
		fields.Title,
		nullable(fields.Album),
		nullable(fields.Genre),
		nullableInt(fields.Duration),
		nullableInt(fields.ReleaseYear),
		nullable(fields.FilePath),
		nullableInt64(fields.FileSize),
		nullableInt(fields.Bitrate),
		nullableInt(fields.SampleRate),
		now,
		track.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update track: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrTrackNotFound, track.ID())
	}

	return nil
}

// Delete removes a track by ID
func (r *TrackRepository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM tracks WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete track: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrTrackNotFound, id)
	}

	return nil
}

// List retrieves all tracks matching the given criteria
//
// Supported criteria: "artist_id", "genre", and "search" (substring match on title).
func (r *TrackRepository) List(criteria map[string]any) ([]*models.PersistedTrack, error) {
	query := fmt.Sprintf("SELECT %s FROM tracks WHERE 1 = 1", trackColumns)

	args := []any{}

	if artistID, ok := criteria["artist_id"].(string); ok && artistID != "" {
		query += " AND artist_id = ?"
		args = append(args, artistID)
	}

	if genre, ok := criteria["genre"].(string); ok && genre != "" {
		query += " AND genre = ?"
		args = append(args, genre)
	}

	if search, ok := criteria["search"].(string); ok && search != "" {
		query += " AND lower(title) LIKE ?"
		args = append(args, "%"+strings.ToLower(search)+"%")
	}

	query += " ORDER BY sequence ASC"

	return r.queryTracks(query, args...)
}

// IncrementPlayCount bumps the play counter for a track.
func (r *TrackRepository) IncrementPlayCount(id string) error {
	return r.bumpCounter(id, "play_count")
}

// AddLike bumps the like counter for a track.
func (r *TrackRepository) AddLike(id string) error {
	return r.bumpCounter(id, "like_count")
}

// AddDislike bumps the dislike counter for a track.
func (r *TrackRepository) AddDislike(id string) error {
	return r.bumpCounter(id, "dislike_count")
}

func (r *TrackRepository) bumpCounter(id, column string) error {
	query := fmt.Sprintf("UPDATE tracks SET %s = %s + 1, updated_at = ? WHERE id = ?", column, column)

	result, err := r.db.Exec(query, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", column, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrTrackNotFound, id)
	}

	return nil
}

// ListByGenre returns the most liked tracks sharing a genre, excluding one track.
func (r *TrackRepository) ListByGenre(genre, excludeID string, limit int) ([]*models.PersistedTrack, error) {
	if genre == "" {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT %s FROM tracks
		WHERE genre = ? AND id != ?
		ORDER BY like_count DESC, sequence ASC
		LIMIT ?`, trackColumns)

	return r.queryTracks(query, genre, excludeID, limit)
}

// ListByArtist returns the most played tracks by an artist, excluding one track.
func (r *TrackRepository) ListByArtist(artistID, excludeID string, limit int) ([]*models.PersistedTrack, error) {
	query := fmt.Sprintf(`SELECT %s FROM tracks
		WHERE artist_id = ? AND id != ?
		ORDER BY play_count DESC, sequence ASC
		LIMIT ?`, trackColumns)

	return r.queryTracks(query, artistID, excludeID, limit)
}

// ListPopular returns the most liked tracks not present in excludeIDs.
func (r *TrackRepository) ListPopular(excludeIDs []string, limit int) ([]*models.PersistedTrack, error) {
	query := fmt.Sprintf("SELECT %s FROM tracks", trackColumns)

	args := []any{}
	if len(excludeIDs) > 0 {
		placeholders := strings.Repeat("?, ", len(excludeIDs))
		query += fmt.Sprintf(" WHERE id NOT IN (%s)", strings.TrimSuffix(placeholders, ", "))
		for _, id := range excludeIDs {
			args = append(args, id)
		}
	}

	query += " ORDER BY like_count DESC, sequence ASC LIMIT ?"
	args = append(args, limit)

	return r.queryTracks(query, args...)
}

func (r *TrackRepository) queryTracks(query string, args ...any) ([]*models.PersistedTrack, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks: %w", err)
	}
	defer rows.Close()

	var tracks []*models.PersistedTrack
	for rows.Next() {
		track, err := scanTrack(rows)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, track)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return tracks, nil
}

// scanTrack scans a single row into a [models.PersistedTrack]
func scanTrack(row scanner) (*models.PersistedTrack, error) {
	var (
		id           string
		sequence     int
		artistID     string
		title        string
		album        sql.NullString
		genre        sql.NullString
		duration     sql.NullInt64
		releaseYear  sql.NullInt64
		filePath     sql.NullString
		fileSize     sql.NullInt64
		bitrate      sql.NullInt64
		sampleRate   sql.NullInt64
		playCount    int
		likeCount    int
		dislikeCount int
		createdAt    time.Time
		updatedAt    time.Time
	)

	err := row.Scan(&id, &sequence, &artistID, &title, &album, &genre, &duration, &releaseYear,
		&filePath, &fileSize, &bitrate, &sampleRate, &playCount, &likeCount, &dislikeCount,
		&createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, shared.ErrTrackNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan track: %w", err)
	}

	fields := models.Track{
		Title:       title,
		Album:       album.String,
		Genre:       genre.String,
		Duration:    int(duration.Int64),
		ReleaseYear: int(releaseYear.Int64),
		FilePath:    filePath.String,
		FileSize:    fileSize.Int64,
		Bitrate:     int(bitrate.Int64),
		SampleRate:  int(sampleRate.Int64),
	}

	track := models.NewPersistedTrack(sequence, artistID, fields)
	track.SetID(id)
	track.SetCounters(playCount, likeCount, dislikeCount)
	track.SetCreatedAt(createdAt)
	track.SetUpdatedAt(updatedAt)

	return track, nil
}

// nullableInt converts a zero int to a SQL NULL.
func nullableInt(v int) any {
	if v == 0 {
		return nil
	}
	return v
}

// nullableInt64 converts a zero int64 to a SQL NULL.
func nullableInt64(v int64) any {
	if v == 0 {
		return nil
	}
	return v
}
