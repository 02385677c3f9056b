package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/calliope-fm/calliope/internal/models"
	"github.com/calliope-fm/calliope/internal/shared"
)

// ArtistRepository implements models.Repository[*models.PersistedArtist].
//
// Artist names are matched case-insensitively; a unique index on lower(name)
// rejects duplicates that differ only in case.
type ArtistRepository struct {
	db *sql.DB
}

// NewArtistRepository creates a new ArtistRepository with the given database connection
func NewArtistRepository(db *sql.DB) *ArtistRepository {
	return &ArtistRepository{db: db}
}

// Create inserts a new [models.PersistedArtist] into the database with generated ID and sequence
func (r *ArtistRepository) Create(artist *models.PersistedArtist) error {
	sequence, err := NextSequence(r.db, "artists")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	artist.SetID(id)

	if err := artist.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO artists (id, sequence, name, bio, genre, country, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		artist.Name(),
		nullable(artist.Bio()),
		nullable(artist.Genre()),
		nullable(artist.Country()),
		artist.CreatedAt(),
		artist.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert artist: %w", err)
	}

	return nil
}

// Get retrieves an artist by ID
func (r *ArtistRepository) Get(id string) (*models.PersistedArtist, error) {
	query := `
		SELECT id, sequence, name, bio, genre, country, created_at, updated_at
		FROM artists
		WHERE id = ?
	`

	return scanArtist(r.db.QueryRow(query, id))
}

// GetByName retrieves an artist by display name, matched case-insensitively.
//
// Returns [shared.ErrArtistNotFound] when no artist carries the name.
func (r *ArtistRepository) GetByName(name string) (*models.PersistedArtist, error) {
	query := `
		SELECT id, sequence, name, bio, genre, country, created_at, updated_at
		FROM artists
		WHERE lower(name) = ?
	`

	return scanArtist(r.db.QueryRow(query, shared.ArtistKey(name)))
}

// Update modifies an existing artist in the database
func (r *ArtistRepository) Update(artist *models.PersistedArtist) error {
	if err := artist.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now().UTC()
	artist.SetUpdatedAt(now)

	query := `
		UPDATE artists
		SET name = ?, bio = ?, genre = ?, country = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.Exec(query,
		artist.Name(),
		nullable(artist.Bio()),
		nullable(artist.Genre()),
		nullable(artist.Country()),
		now,
		artist.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update artist: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrArtistNotFound, artist.ID())
	}

	return nil
}

// Delete removes an artist by ID. The foreign key cascade removes the artist's tracks.
func (r *ArtistRepository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM artists WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete artist: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrArtistNotFound, id)
	}

	return nil
}

// List retrieves all artists matching the given criteria
func (r *ArtistRepository) List(criteria map[string]any) ([]*models.PersistedArtist, error) {
	query := `
		SELECT id, sequence, name, bio, genre, country, created_at, updated_at
		FROM artists
		WHERE 1 = 1
	`

	args := []any{}

	if genre, ok := criteria["genre"].(string); ok && genre != "" {
		query += " AND genre = ?"
		args = append(args, genre)
	}

	if country, ok := criteria["country"].(string); ok && country != "" {
		query += " AND country = ?"
		args = append(args, country)
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query artists: %w", err)
	}
	defer rows.Close()

	var artists []*models.PersistedArtist
	for rows.Next() {
		artist, err := scanArtist(rows)
		if err != nil {
			return nil, err
		}
		artists = append(artists, artist)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return artists, nil
}

// scanner abstracts [sql.Row] and [sql.Rows] for shared scan logic.
type scanner interface {
	Scan(dest ...any) error
}

// scanArtist scans a single row into a [models.PersistedArtist]
func scanArtist(row scanner) (*models.PersistedArtist, error) {
	var (
		id        string
		sequence  int
		name      string
		bio       sql.NullString
		genre     sql.NullString
		country   sql.NullString
		createdAt time.Time
		updatedAt time.Time
	)

	err := row.Scan(&id, &sequence, &name, &bio, &genre, &country, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, shared.ErrArtistNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan artist: %w", err)
	}

	fields := models.Artist{
		Name:    name,
		Bio:     bio.String,
		Genre:   genre.String,
		Country: country.String,
	}

	artist := models.NewPersistedArtist(sequence, fields)
	artist.SetID(id)
	artist.SetCreatedAt(createdAt)
	artist.SetUpdatedAt(updatedAt)

	return artist, nil
}

// nullable converts an empty string to a SQL NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
