// Package formatter exports catalog data to various formats (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/calliope-fm/calliope/internal/models"
	"github.com/calliope-fm/calliope/internal/shared"
)

// ArtistExport bundles an artist with their catalog tracks for export.
type ArtistExport struct {
	Artist *models.PersistedArtist
	Tracks []*models.PersistedTrack
}

// ExportToCSV converts an ArtistExport to CSV with columns: ID, Title, Album, Genre, Duration, Year, Plays, Likes
func ExportToCSV(export *ArtistExport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Album", "Genre", "Duration", "Year", "Plays", "Likes"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, track := range export.Tracks {
		record := []string{
			track.ID(),
			track.Title(),
			track.Album(),
			track.Genre(),
			strconv.Itoa(track.Duration()),
			strconv.Itoa(track.ReleaseYear()),
			strconv.Itoa(track.PlayCount()),
			strconv.Itoa(track.LikeCount()),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts an ArtistExport to a Markdown document
func ExportToMarkdown(export *ArtistExport) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", export.Artist.Name()))

	if export.Artist.Bio() != "" {
		buf.WriteString(fmt.Sprintf("%s\n\n", export.Artist.Bio()))
	}
	if export.Artist.Genre() != "" {
		buf.WriteString(fmt.Sprintf("**Genre**: %s\n", export.Artist.Genre()))
	}
	if export.Artist.Country() != "" {
		buf.WriteString(fmt.Sprintf("**Country**: %s\n", export.Artist.Country()))
	}
	buf.WriteString(fmt.Sprintf("**Tracks**: %d\n\n", len(export.Tracks)))

	buf.WriteString("## Tracks\n\n")
	for i, track := range export.Tracks {
		albumPart := ""
		if track.Album() != "" {
			albumPart = fmt.Sprintf(" (%s)", track.Album())
		}
		buf.WriteString(fmt.Sprintf("%d. %s%s [%s]\n", i+1, track.Title(), albumPart, track.FormatDuration()))
	}

	return buf.Bytes(), nil
}

// ExportToText converts an ArtistExport to plain text format
func ExportToText(export *ArtistExport) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Artist: %s\n", export.Artist.Name()))
	if export.Artist.Genre() != "" {
		buf.WriteString(fmt.Sprintf("Genre: %s\n", export.Artist.Genre()))
	}
	buf.WriteString(fmt.Sprintf("Tracks: %d\n\n", len(export.Tracks)))

	for i, track := range export.Tracks {
		buf.WriteString(fmt.Sprintf("%d. %s [%s]\n", i+1, track.Title(), track.FormatDuration()))
	}

	return buf.Bytes(), nil
}

// artistMetadata is the JSON projection written alongside CSV exports.
type artistMetadata struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Bio     string `json:"bio,omitempty"`
	Genre   string `json:"genre,omitempty"`
	Country string `json:"country,omitempty"`
	Tracks  int    `json:"tracks"`
}

// ToMetadataJSON generates a JSON representation of artist metadata (without tracks)
func ToMetadataJSON(export *ArtistExport) ([]byte, error) {
	return shared.MarshalJSON(artistMetadata{
		ID:      export.Artist.ID(),
		Name:    export.Artist.Name(),
		Bio:     export.Artist.Bio(),
		Genre:   export.Artist.Genre(),
		Country: export.Artist.Country(),
		Tracks:  len(export.Tracks),
	}, true)
}

// CSVExportResult contains the paths of files created by WriteCSVExport
type CSVExportResult struct {
	TracksFile   string
	MetadataFile string
}

// WriteCSVExport exports an artist's tracks to CSV with an accompanying metadata JSON file.
//
// Defaults to the artist ID as the base filename & creates {base}_tracks.csv and {base}_metadata.json
func WriteCSVExport(export *ArtistExport, baseFilepath string) (*CSVExportResult, error) {
	if baseFilepath == "" {
		baseFilepath = export.Artist.ID()
	}

	csvData, err := ExportToCSV(export)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSV: %w", err)
	}

	tracksFile := baseFilepath + "_tracks.csv"
	if err := os.WriteFile(tracksFile, csvData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write CSV file: %w", err)
	}

	metadataJSON, err := ToMetadataJSON(export)
	if err != nil {
		return nil, fmt.Errorf("failed to generate metadata JSON: %w", err)
	}

	metadataFile := baseFilepath + "_metadata.json"
	if err := os.WriteFile(metadataFile, metadataJSON, 0644); err != nil {
		return nil, fmt.Errorf("failed to write metadata file: %w", err)
	}

	return &CSVExportResult{
		TracksFile:   tracksFile,
		MetadataFile: metadataFile,
	}, nil
}

// WriteMarkdownExport exports an artist to Markdown in a dedicated directory.
//
// Directory name defaults to the artist ID. Creates {dir}/README.md.
func WriteMarkdownExport(export *ArtistExport, outputDir string) (string, error) {
	if outputDir == "" {
		outputDir = export.Artist.ID()
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	mdData, err := ExportToMarkdown(export)
	if err != nil {
		return "", fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := filepath.Join(outputDir, "README.md")
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return "", fmt.Errorf("failed to write Markdown file: %w", err)
	}

	return mdFile, nil
}

// WriteTextExport exports an artist's tracks to plain text format.
//
// Defaults to {artist ID}_tracks.txt as the filename.
func WriteTextExport(export *ArtistExport, filePath string) (string, error) {
	if filePath == "" {
		filePath = fmt.Sprintf("%s_tracks.txt", export.Artist.ID())
	}

	textData, err := ExportToText(export)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	if err := os.WriteFile(filePath, textData, 0644); err != nil {
		return "", fmt.Errorf("failed to write text file: %w", err)
	}

	return filePath, nil
}
