package intake

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/calliope-fm/calliope/internal/shared"
)

// copyChunkSize bounds memory use while streaming uploads to disk.
const copyChunkSize = 64 * 1024

// fallbackStem is used when sanitization leaves nothing of the original name.
const fallbackStem = "track"

// allowedExtensions is the fixed audio extension allow-list. Zip archives are
// handled separately and are not part of this set.
var allowedExtensions = map[string]struct{}{
	".mp3":  {},
	".flac": {},
	".wav":  {},
	".aac":  {},
	".m4a":  {},
	".ogg":  {},
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// IsAllowed reports whether the filename carries a supported audio extension.
func IsAllowed(filename string) bool {
	_, ok := allowedExtensions[strings.ToLower(filepath.Ext(filename))]
	return ok
}

// File is a single uploaded item: its original client-side name and content.
type File struct {
	Name   string
	Reader io.Reader
}

// Result describes where an accepted batch landed on disk.
type Result struct {
	// AudioFiles are the persisted audio file paths, in upload order with zip
	// members expanded in archive order.
	AudioFiles []string
	// StagingDirs are the temporary directories holding extracted zip members.
	// They are recorded on the batch payload and removed after confirm or expiry.
	StagingDirs []string
}

// Intake persists upload batches according to the configured limits.
type Intake struct {
	uploadDir     string
	stagingDir    string
	maxBatchFiles int
	maxFileSize   int64
	logger        *log.Logger
}

// New creates an Intake rooted at the configured directories.
func New(cfg shared.UploadConfig, logger *log.Logger) *Intake {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Intake{
		uploadDir:     cfg.UploadDir,
		stagingDir:    cfg.StagingDir,
		maxBatchFiles: cfg.MaxBatchFiles,
		maxFileSize:   int64(cfg.MaxFileSizeMB) * 1024 * 1024,
		logger:        logger,
	}
}

// SafeFilename generates a unique, path-separator-free filename preserving the
// original extension (lowercased). Repeated uploads of the same original name
// never collide because of the random suffix.
func SafeFilename(originalName string) string {
	base := filepath.Base(originalName)
	ext := strings.ToLower(filepath.Ext(base))
	stem := unsafeChars.ReplaceAllString(strings.TrimSuffix(base, filepath.Ext(base)), "")
	stem = strings.Trim(stem, "._-")
	if stem == "" {
		stem = fallbackStem
	}
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:12]
	return fmt.Sprintf("%s-%s%s", stem, suffix, ext)
}

// Collect persists the uploaded items and returns the accepted audio files.
//
// Disallowed extensions are skipped silently; zip archives are extracted into
// fresh staging subdirectories. If the accepted file count exceeds the batch
// ceiling every file written during this call is deleted before the error is
// returned.
func (i *Intake) Collect(files []File) (*Result, error) {
	if len(files) == 0 {
		return nil, shared.ErrEmptyUpload
	}

	result := &Result{}

	for _, file := range files {
		ext := strings.ToLower(filepath.Ext(file.Name))

		if ext == ".zip" {
			extracted, tempDir, err := i.extractArchive(file)
			if err != nil {
				i.discard(result)
				return nil, err
			}
			result.AudioFiles = append(result.AudioFiles, extracted...)
			if tempDir != "" {
				result.StagingDirs = append(result.StagingDirs, tempDir)
			}
			continue
		}

		if !IsAllowed(file.Name) {
			i.logger.Debug("skipping unsupported upload", "name", file.Name)
			continue
		}

		destination := filepath.Join(i.uploadDir, SafeFilename(file.Name))
		if err := i.persist(file.Reader, destination); err != nil {
			i.discard(result)
			return nil, fmt.Errorf("failed to persist %s: %w", file.Name, err)
		}
		result.AudioFiles = append(result.AudioFiles, destination)
	}

	if len(result.AudioFiles) == 0 {
		i.discard(result)
		return nil, shared.ErrNoAudioFiles
	}

	if len(result.AudioFiles) > i.maxBatchFiles {
		i.discard(result)
		return nil, fmt.Errorf("%w: %d files exceeds ceiling of %d",
			shared.ErrBatchTooLarge, len(result.AudioFiles), i.maxBatchFiles)
	}

	return result, nil
}

// persist streams content to destination in fixed-size chunks, enforcing the
// per-file size ceiling.
func (i *Intake) persist(src io.Reader, destination string) error {
	if err := os.MkdirAll(filepath.Dir(destination), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	out, err := os.Create(destination)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer out.Close()

	written, err := io.CopyBuffer(out, io.LimitReader(src, i.maxFileSize+1), make([]byte, copyChunkSize))
	if err != nil {
		os.Remove(destination)
		return fmt.Errorf("failed to write file: %w", err)
	}
	if written > i.maxFileSize {
		os.Remove(destination)
		return fmt.Errorf("%w: %s", shared.ErrFileTooLarge, filepath.Base(destination))
	}

	return out.Close()
}

// extractArchive stages the uploaded zip, extracts its allowed members into a
// fresh temp directory, and removes the staged archive. A corrupt archive
// removes the temp directory and fails the whole item.
func (i *Intake) extractArchive(file File) ([]string, string, error) {
	archivePath := filepath.Join(i.stagingDir, SafeFilename(file.Name))
	if err := i.persist(file.Reader, archivePath); err != nil {
		return nil, "", fmt.Errorf("failed to stage archive %s: %w", file.Name, err)
	}
	defer os.Remove(archivePath)

	tempDir, err := os.MkdirTemp(i.stagingDir, "batch-")
	if err != nil {
		return nil, "", fmt.Errorf("failed to create staging directory: %w", err)
	}

	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		os.RemoveAll(tempDir)
		return nil, "", fmt.Errorf("%w: %s", shared.ErrInvalidArchive, file.Name)
	}
	defer reader.Close()

	var extracted []string
	for _, member := range reader.File {
		if member.FileInfo().IsDir() {
			continue
		}
		if !IsAllowed(member.Name) {
			continue
		}

		source, err := member.Open()
		if err != nil {
			os.RemoveAll(tempDir)
			return nil, "", fmt.Errorf("%w: %s", shared.ErrInvalidArchive, file.Name)
		}

		destination := filepath.Join(tempDir, SafeFilename(filepath.Base(member.Name)))
		err = i.persist(source, destination)
		source.Close()
		if err != nil {
			os.RemoveAll(tempDir)
			return nil, "", fmt.Errorf("failed to extract %s: %w", member.Name, err)
		}

		extracted = append(extracted, destination)
	}

	if len(extracted) == 0 {
		os.RemoveAll(tempDir)
		return nil, "", nil
	}

	return extracted, tempDir, nil
}

// discard removes everything written during a failed Collect call.
func (i *Intake) discard(result *Result) {
	for _, path := range result.AudioFiles {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			i.logger.Warn("failed to remove rejected upload", "path", path, "error", err)
		}
	}
	for _, dir := range result.StagingDirs {
		if err := os.RemoveAll(dir); err != nil {
			i.logger.Warn("failed to remove staging directory", "path", dir, "error", err)
		}
	}
}
