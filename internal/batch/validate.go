package batch

import "fmt"

// ValidateTracks checks structural readiness of every preview in the batch and
// returns all violations found, not just the first. A violation here aborts
// the whole commit; nothing is written.
//
// Artist resolution is handled separately at commit time: a track whose artist
// cannot be resolved is skipped with a warning rather than sinking the batch.
func ValidateTracks(tracks []TrackPreview) []string {
	var violations []string

	for idx, track := range tracks {
		if track.Title == "" {
			violations = append(violations, fmt.Sprintf("track #%d is missing a title", idx+1))
		}
		if track.FilePath == "" {
			violations = append(violations, fmt.Sprintf("track %q is missing an audio file reference", trackLabel(track, idx)))
		}
	}

	return violations
}

func trackLabel(track TrackPreview, idx int) string {
	if track.Title != "" {
		return track.Title
	}
	return fmt.Sprintf("#%d", idx+1)
}
