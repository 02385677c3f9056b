package metadata

import (
	"os"
	"strconv"

	"github.com/charmbracelet/log"
	"go.senan.xyz/taglib"

	"github.com/calliope-fm/calliope/internal/shared"
)

// Fields holds the metadata extracted from one audio file.
//
// Pointer fields are nil when the source file carried no usable value. FileSize
// is always populated when the file exists on disk.
type Fields struct {
	Title       *string
	Album       *string
	Artist      *string
	Genre       *string
	Duration    *int // seconds
	Bitrate     *int // kbit/s
	SampleRate  *int // Hz
	ReleaseYear *int
	FileSize    int64
}

// Extractor reads tags and properties via TagLib.
type Extractor struct {
	logger *log.Logger
}

// NewExtractor creates an Extractor. A nil logger falls back to the shared default.
func NewExtractor(logger *log.Logger) *Extractor {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Extractor{logger: logger}
}

// Extract derives metadata for the file at path.
//
// Decoding failures are logged and degrade to nil fields; the returned value is
// always usable.
func (e *Extractor) Extract(path string) Fields {
	fields := Fields{}

	info, err := os.Stat(path)
	if err != nil {
		e.logger.Warn("cannot stat upload", "path", path, "error", err)
		return fields
	}
	fields.FileSize = info.Size()

	tags, err := taglib.ReadTags(path)
	if err != nil {
		e.logger.Warn("tag extraction failed", "path", path, "error", err)
	} else {
		fields.Title = normalized(firstTag(tags, taglib.Title, "TITLE"))
		fields.Album = normalized(firstTag(tags, taglib.Album, "ALBUM"))
		fields.Artist = normalized(firstTag(tags, taglib.Artist, "ARTIST"))
		fields.Genre = normalized(firstTag(tags, taglib.Genre, "GENRE"))
		fields.ReleaseYear = parseYear(firstTag(tags, taglib.Date, "DATE", "YEAR"))
	}

	props, err := taglib.ReadProperties(path)
	if err != nil {
		e.logger.Warn("property extraction failed", "path", path, "error", err)
		return fields
	}

	if secs := int(props.Length.Seconds()); secs > 0 {
		fields.Duration = &secs
	}
	if props.Bitrate > 0 {
		bitrate := int(props.Bitrate)
		fields.Bitrate = &bitrate
	}
	if props.SampleRate > 0 {
		sampleRate := int(props.SampleRate)
		fields.SampleRate = &sampleRate
	}

	return fields
}

// firstTag returns the first non-empty value among the given tag keys.
func firstTag(tags map[string][]string, keys ...string) string {
	for _, key := range keys {
		for _, value := range tags[key] {
			if value != "" {
				return value
			}
		}
	}
	return ""
}

// normalized collapses whitespace and maps empty strings to nil.
func normalized(s string) *string {
	clean := shared.NormalizeString(s)
	if clean == "" {
		return nil
	}
	return &clean
}

// parseYear extracts a four digit year from a date tag such as "1995" or "1995-06-12".
func parseYear(s string) *int {
	clean := shared.NormalizeString(s)
	if len(clean) < 4 {
		return nil
	}
	year, err := strconv.Atoi(clean[:4])
	if err != nil || year < 1000 || year > 9999 {
		return nil
	}
	return &year
}
