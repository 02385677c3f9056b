package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Upload intake errors
	ErrEmptyUpload    = fmt.Errorf("no files provided")
	ErrNoAudioFiles   = fmt.Errorf("no supported audio files detected")
	ErrInvalidArchive = fmt.Errorf("invalid zip archive")
	ErrBatchTooLarge  = fmt.Errorf("upload exceeds batch file limit")
	ErrFileTooLarge   = fmt.Errorf("file exceeds size limit")

	// Batch lifecycle errors
	ErrBatchExpired     = fmt.Errorf("upload batch expired or already confirmed")
	ErrValidationFailed = fmt.Errorf("batch validation failed")

	// Catalog errors
	ErrArtistNotFound = fmt.Errorf("artist not found")
	ErrTrackNotFound  = fmt.Errorf("track not found")

	// Command argument errors
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
