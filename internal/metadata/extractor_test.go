package metadata

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
)

func newQuietLogger() *log.Logger {
	return log.New(io.Discard)
}

func TestExtract(t *testing.T) {
	extractor := NewExtractor(newQuietLogger())

	t.Run("MissingFile", func(t *testing.T) {
		fields := extractor.Extract(filepath.Join(t.TempDir(), "ghost.mp3"))

		if fields.FileSize != 0 {
			t.Errorf("expected zero file size, got %d", fields.FileSize)
		}
		if fields.Title != nil || fields.Artist != nil {
			t.Error("expected nil tag fields for missing file")
		}
	})

	t.Run("UnreadableAudioDegradesToFileSize", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "noise.mp3")
		payload := []byte("this is not an mp3 frame")
		if err := os.WriteFile(path, payload, 0644); err != nil {
			t.Fatalf("failed to write fixture: %v", err)
		}

		fields := extractor.Extract(path)

		if fields.FileSize != int64(len(payload)) {
			t.Errorf("expected file size %d, got %d", len(payload), fields.FileSize)
		}
		if fields.Title != nil || fields.Artist != nil || fields.Album != nil || fields.Genre != nil {
			t.Error("expected nil tag fields for unreadable audio")
		}
		if fields.Duration != nil || fields.Bitrate != nil || fields.SampleRate != nil {
			t.Error("expected nil stream properties for unreadable audio")
		}
	})

	t.Run("EmptyFile", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "empty.mp3")
		if err := os.WriteFile(path, nil, 0644); err != nil {
			t.Fatalf("failed to write fixture: %v", err)
		}

		fields := extractor.Extract(path)
		if fields.FileSize != 0 {
			t.Errorf("expected zero file size, got %d", fields.FileSize)
		}
	})
}

func TestParseYear(t *testing.T) {
	tc := []struct {
		name  string
		input string
		want  int // 0 means nil expected
	}{
		{name: "bare year", input: "1995", want: 1995},
		{name: "full date", input: "1995-06-12", want: 1995},
		{name: "padded", input: "  2003 ", want: 2003},
		{name: "garbage", input: "unknown", want: 0},
		{name: "too short", input: "95", want: 0},
		{name: "empty", input: "", want: 0},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got := parseYear(tt.input)
			if tt.want == 0 {
				if got != nil {
					t.Errorf("parseYear(%q) = %d, want nil", tt.input, *got)
				}
				return
			}
			if got == nil || *got != tt.want {
				t.Errorf("parseYear(%q) = %v, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestFirstTag(t *testing.T) {
	tags := map[string][]string{
		"TITLE":  {"", "Help!"},
		"ARTIST": {"The Beatles"},
	}

	if got := firstTag(tags, "TITLE"); got != "Help!" {
		t.Errorf("expected first non-empty value, got %q", got)
	}
	if got := firstTag(tags, "ALBUM", "ARTIST"); got != "The Beatles" {
		t.Errorf("expected fallback key value, got %q", got)
	}
	if got := firstTag(tags, "GENRE"); got != "" {
		t.Errorf("expected empty string for absent keys, got %q", got)
	}
}
