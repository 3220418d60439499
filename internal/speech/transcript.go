package speech

import (
	"regexp"
	"strings"
)

var (
	// timestampPrefix matches whisper segment stamps like
	// "[00:00:00.000 --> 00:00:05.000]".
	timestampPrefix = regexp.MustCompile(`\[\d{2}:\d{2}:\d{2}\.\d{3}\s*-->\s*\d{2}:\d{2}:\d{2}\.\d{3}\]`)

	// annotation matches "[BLANK_AUDIO]", "(keyboard clicking)", "[Music]"
	// and friends.
	annotation = regexp.MustCompile(`[\(\[][A-Za-z][A-Za-z_\s]*[\)\]]`)

	spaces = regexp.MustCompile(`\s+`)
)

// hallucinations are phrases whisper emits on silence. A transcript made
// only of one of these is discarded.
var hallucinations = map[string]bool{
	"...":                     true,
	"you":                     true,
	"thank you.":              true,
	"thanks for watching!":    true,
	"thank you for watching.": true,
	"bye.":                    true,
	"the end.":                true,
}

// CleanTranscript normalizes raw whisper output: timestamps, bracketed
// sound annotations and known silence hallucinations are removed and
// whitespace collapsed. Returns "" when nothing was said.
func CleanTranscript(raw string) string {
	s := timestampPrefix.ReplaceAllString(raw, " ")
	s = annotation.ReplaceAllString(s, " ")
	s = strings.TrimSpace(spaces.ReplaceAllString(s, " "))

	if hallucinations[strings.ToLower(s)] {
		return ""
	}
	return s
}
