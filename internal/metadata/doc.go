// Package metadata reads audio tags and stream properties from files on disk.
//
// Extraction never fails: corrupt or unsupported files degrade to a [Fields]
// value carrying only the file size, so a single bad file cannot abort a
// whole upload batch.
package metadata
