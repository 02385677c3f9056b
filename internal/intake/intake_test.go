package intake

import (
	"archive/zip"
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/calliope-fm/calliope/internal/shared"
)

func newTestIntake(t *testing.T, maxFiles int) (*Intake, string, string) {
	t.Helper()

	uploadDir := filepath.Join(t.TempDir(), "uploads")
	stagingDir := filepath.Join(t.TempDir(), "staging")
	for _, dir := range []string{uploadDir, stagingDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatalf("failed to create %s: %v", dir, err)
		}
	}

	cfg := shared.UploadConfig{
		UploadDir:     uploadDir,
		StagingDir:    stagingDir,
		MaxBatchFiles: maxFiles,
		MaxFileSizeMB: 1,
	}
	return New(cfg, log.New(io.Discard)), uploadDir, stagingDir
}

func buildZip(t *testing.T, members map[string]string) io.Reader {
	t.Helper()

	var buf bytes.Buffer
	writer := zip.NewWriter(&buf)
	for name, content := range members {
		part, err := writer.Create(name)
		if err != nil {
			t.Fatalf("failed to create zip member: %v", err)
		}
		if _, err := part.Write([]byte(content)); err != nil {
			t.Fatalf("failed to write zip member: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close zip: %v", err)
	}
	return &buf
}

func countFiles(t *testing.T, root string) int {
	t.Helper()

	count := 0
	err := filepath.Walk(root, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			count++
		}
		return nil
	})
	if err != nil {
		t.Fatalf("failed to walk %s: %v", root, err)
	}
	return count
}

func TestSafeFilename(t *testing.T) {
	t.Run("PreservesStemAndExtension", func(t *testing.T) {
		name := SafeFilename("My Song.MP3")
		if !strings.HasPrefix(name, "MySong-") {
			t.Errorf("expected sanitized stem prefix, got %q", name)
		}
		if !strings.HasSuffix(name, ".mp3") {
			t.Errorf("expected lowercased extension, got %q", name)
		}
	})

	t.Run("StripsPathSeparators", func(t *testing.T) {
		name := SafeFilename("../../etc/passwd.mp3")
		if strings.ContainsAny(name, "/\\") {
			t.Errorf("generated name contains path separators: %q", name)
		}
	})

	t.Run("FallbackStem", func(t *testing.T) {
		name := SafeFilename("###.ogg")
		if !strings.HasPrefix(name, "track-") {
			t.Errorf("expected fallback stem, got %q", name)
		}
	})

	t.Run("NeverCollides", func(t *testing.T) {
		seen := map[string]bool{}
		for range 50 {
			name := SafeFilename("same.mp3")
			if seen[name] {
				t.Fatalf("duplicate generated name: %q", name)
			}
			seen[name] = true
		}
	})
}

func TestCollect(t *testing.T) {
	t.Run("PlainFiles", func(t *testing.T) {
		in, uploadDir, _ := newTestIntake(t, 10)

		result, err := in.Collect([]File{
			{Name: "one.mp3", Reader: strings.NewReader("audio one")},
			{Name: "two.flac", Reader: strings.NewReader("audio two")},
			{Name: "notes.txt", Reader: strings.NewReader("skip me")},
		})
		if err != nil {
			t.Fatalf("collect failed: %v", err)
		}

		if len(result.AudioFiles) != 2 {
			t.Fatalf("expected 2 audio files, got %d", len(result.AudioFiles))
		}
		if len(result.StagingDirs) != 0 {
			t.Errorf("expected no staging dirs, got %d", len(result.StagingDirs))
		}
		if countFiles(t, uploadDir) != 2 {
			t.Errorf("expected 2 files in upload dir, got %d", countFiles(t, uploadDir))
		}
	})

	t.Run("SameNameTwiceNeverCollides", func(t *testing.T) {
		in, _, _ := newTestIntake(t, 10)

		result, err := in.Collect([]File{
			{Name: "same.mp3", Reader: strings.NewReader("first")},
			{Name: "same.mp3", Reader: strings.NewReader("second")},
		})
		if err != nil {
			t.Fatalf("collect failed: %v", err)
		}

		if result.AudioFiles[0] == result.AudioFiles[1] {
			t.Error("expected distinct paths for identical original names")
		}
		for _, path := range result.AudioFiles {
			if _, err := os.Stat(path); err != nil {
				t.Errorf("expected %s to exist: %v", path, err)
			}
		}
	})

	t.Run("ZipExtractsOnlyAllowedMembers", func(t *testing.T) {
		in, _, stagingDir := newTestIntake(t, 10)

		archive := buildZip(t, map[string]string{
			"album/01 one.mp3":  "audio",
			"album/02 two.flac": "audio",
			"album/cover.jpg":   "image",
			"album/notes.txt":   "text",
		})

		result, err := in.Collect([]File{{Name: "album.zip", Reader: archive}})
		if err != nil {
			t.Fatalf("collect failed: %v", err)
		}

		if len(result.AudioFiles) != 2 {
			t.Fatalf("expected 2 extracted members, got %d", len(result.AudioFiles))
		}
		if len(result.StagingDirs) != 1 {
			t.Fatalf("expected 1 staging dir, got %d", len(result.StagingDirs))
		}
		for _, path := range result.AudioFiles {
			if !strings.HasPrefix(path, result.StagingDirs[0]) {
				t.Errorf("extracted file %s not under staging dir", path)
			}
		}

		// The staged archive itself is removed once extraction completes.
		if countFiles(t, stagingDir) != 2 {
			t.Errorf("expected only extracted members in staging, got %d files", countFiles(t, stagingDir))
		}
	})

	t.Run("InvalidZipFailsWholeItem", func(t *testing.T) {
		in, _, stagingDir := newTestIntake(t, 10)

		_, err := in.Collect([]File{{Name: "broken.zip", Reader: strings.NewReader("not a zip")}})
		if !errors.Is(err, shared.ErrInvalidArchive) {
			t.Fatalf("expected ErrInvalidArchive, got %v", err)
		}

		if countFiles(t, stagingDir) != 0 {
			t.Errorf("expected staging to be empty after invalid archive, got %d files", countFiles(t, stagingDir))
		}
	})

	t.Run("CeilingRollsBackEverything", func(t *testing.T) {
		in, uploadDir, stagingDir := newTestIntake(t, 2)

		archive := buildZip(t, map[string]string{
			"a.mp3": "audio",
			"b.mp3": "audio",
		})

		_, err := in.Collect([]File{
			{Name: "solo.mp3", Reader: strings.NewReader("audio")},
			{Name: "album.zip", Reader: archive},
		})
		if !errors.Is(err, shared.ErrBatchTooLarge) {
			t.Fatalf("expected ErrBatchTooLarge, got %v", err)
		}

		if countFiles(t, uploadDir) != 0 {
			t.Errorf("expected upload dir empty after rollback, got %d files", countFiles(t, uploadDir))
		}
		if countFiles(t, stagingDir) != 0 {
			t.Errorf("expected staging dir empty after rollback, got %d files", countFiles(t, stagingDir))
		}
	})

	t.Run("EmptyUpload", func(t *testing.T) {
		in, _, _ := newTestIntake(t, 10)

		if _, err := in.Collect(nil); !errors.Is(err, shared.ErrEmptyUpload) {
			t.Errorf("expected ErrEmptyUpload, got %v", err)
		}
	})

	t.Run("OnlyUnsupportedFiles", func(t *testing.T) {
		in, _, _ := newTestIntake(t, 10)

		_, err := in.Collect([]File{{Name: "readme.txt", Reader: strings.NewReader("text")}})
		if !errors.Is(err, shared.ErrNoAudioFiles) {
			t.Errorf("expected ErrNoAudioFiles, got %v", err)
		}
	})

	t.Run("FileTooLarge", func(t *testing.T) {
		in, uploadDir, _ := newTestIntake(t, 10)

		huge := bytes.Repeat([]byte("x"), 1024*1024+1)
		_, err := in.Collect([]File{{Name: "huge.mp3", Reader: bytes.NewReader(huge)}})
		if !errors.Is(err, shared.ErrFileTooLarge) {
			t.Fatalf("expected ErrFileTooLarge, got %v", err)
		}

		if countFiles(t, uploadDir) != 0 {
			t.Errorf("expected upload dir empty, got %d files", countFiles(t, uploadDir))
		}
	})
}
