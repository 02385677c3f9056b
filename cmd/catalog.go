package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/calliope-fm/calliope/internal/batch"
	"github.com/calliope-fm/calliope/internal/formatter"
	"github.com/calliope-fm/calliope/internal/recommend"
	"github.com/calliope-fm/calliope/internal/repositories"
	"github.com/calliope-fm/calliope/internal/shared"
	"github.com/calliope-fm/calliope/internal/tasks"
)

func timeMinutes(minutes int) time.Duration {
	return time.Duration(minutes) * time.Minute
}

// TracksList prints catalog tracks, optionally filtered by artist, genre, or
// a title search.
func (r *Runner) TracksList(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	criteria := map[string]any{}
	if v := cmd.String("artist-id"); v != "" {
		criteria["artist_id"] = v
	}
	if v := cmd.String("genre"); v != "" {
		criteria["genre"] = v
	}
	if v := cmd.String("search"); v != "" {
		criteria["search"] = v
	}

	tracks, err := repositories.NewTrackRepository(db).List(criteria)
	if err != nil {
		return fmt.Errorf("failed to list tracks: %w", err)
	}

	if cmd.Bool("json") {
		rows := make([]map[string]any, len(tracks))
		for i, track := range tracks {
			rows[i] = map[string]any{
				"id":        track.ID(),
				"artist_id": track.ArtistID(),
				"title":     track.Title(),
				"album":     track.Album(),
				"genre":     track.Genre(),
				"duration":  track.Duration(),
				"plays":     track.PlayCount(),
				"likes":     track.LikeCount(),
			}
		}
		return r.writeJSON(rows, cmd.Bool("pretty"))
	}

	for i, track := range tracks {
		r.writePlain("%d. %s [%s]\n", i+1, track.Title(), track.FormatDuration())
	}
	r.writePlain("\n%d tracks\n", len(tracks))
	return nil
}

// TracksExport writes one artist's tracks to CSV, Markdown, or plain text.
func (r *Runner) TracksExport(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	artistID := cmd.String("artist-id")
	artist, err := repositories.NewArtistRepository(db).Get(artistID)
	if err != nil {
		return fmt.Errorf("failed to load artist: %w", err)
	}

	tracks, err := repositories.NewTrackRepository(db).List(map[string]any{"artist_id": artistID})
	if err != nil {
		return fmt.Errorf("failed to list tracks: %w", err)
	}

	export := &formatter.ArtistExport{Artist: artist, Tracks: tracks}
	output := cmd.String("output")

	switch format := cmd.String("format"); format {
	case "csv":
		result, err := formatter.WriteCSVExport(export, output)
		if err != nil {
			return err
		}
		r.writePlain("Wrote %s and %s\n", result.TracksFile, result.MetadataFile)
	case "markdown", "md":
		file, err := formatter.WriteMarkdownExport(export, output)
		if err != nil {
			return err
		}
		r.writePlain("Wrote %s\n", file)
	case "text", "txt":
		file, err := formatter.WriteTextExport(export, output)
		if err != nil {
			return err
		}
		r.writePlain("Wrote %s\n", file)
	default:
		return fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, format)
	}

	return nil
}

// ArtistsList prints catalog artists, optionally filtered by genre or country.
func (r *Runner) ArtistsList(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	criteria := map[string]any{}
	if v := cmd.String("genre"); v != "" {
		criteria["genre"] = v
	}
	if v := cmd.String("country"); v != "" {
		criteria["country"] = v
	}

	artists, err := repositories.NewArtistRepository(db).List(criteria)
	if err != nil {
		return fmt.Errorf("failed to list artists: %w", err)
	}

	if cmd.Bool("json") {
		rows := make([]map[string]any, len(artists))
		for i, artist := range artists {
			rows[i] = map[string]any{
				"id":      artist.ID(),
				"name":    artist.Name(),
				"genre":   artist.Genre(),
				"country": artist.Country(),
			}
		}
		return r.writeJSON(rows, cmd.Bool("pretty"))
	}

	for i, artist := range artists {
		r.writePlain("%d. %s\n", i+1, artist.Name())
	}
	r.writePlain("\n%d artists\n", len(artists))
	return nil
}

// Recommend prints related tracks for a seed track.
func (r *Runner) Recommend(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	trackID := cmd.StringArg("track-id")
	if trackID == "" {
		return fmt.Errorf("%w: track-id", shared.ErrMissingArgument)
	}

	picks, err := recommend.NewService(db, r.logger).ForTrack(trackID)
	if err != nil {
		return fmt.Errorf("failed to build recommendations: %w", err)
	}

	for i, track := range picks {
		r.writePlain("%d. %s [%s]\n", i+1, track.Title(), track.FormatDuration())
	}
	if len(picks) == 0 {
		r.writePlain("No related tracks found\n")
	}
	return nil
}

// Sweep runs one maintenance pass over the staging directory.
func (r *Runner) Sweep(ctx context.Context, cmd *cli.Command) error {
	ttl := timeMinutes(r.config.Batch.TTLMinutes)
	sweeper := tasks.NewSweeper(
		batch.NewStore(ttl, r.logger),
		r.config.Upload.StagingDir,
		ttl,
		timeMinutes(r.config.Batch.SweepIntervalMinutes),
		r.logger,
	)

	report := sweeper.RunOnce()
	r.writePlain("Removed %d staging directories\n", len(report.DirsRemoved))
	for _, sweepErr := range report.Errors {
		r.writePlain("Failed: %s (%v)\n", sweepErr.Path, sweepErr.Error)
	}
	return nil
}
