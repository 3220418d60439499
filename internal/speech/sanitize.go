package speech

import "strings"

// markupChars are stripped before synthesis; TTS engines read them aloud
// or choke on them.
const markupChars = "#*~`^+=@{}[]\\|<>"

var markupStripper = func() *strings.Replacer {
	pairs := make([]string, 0, 2*len(markupChars))
	for _, c := range markupChars {
		pairs = append(pairs, string(c), "")
	}
	return strings.NewReplacer(pairs...)
}()

// Sanitize removes markup and symbol characters from text. Everything
// else, including whitespace and word order, is left alone.
func Sanitize(text string) string {
	return markupStripper.Replace(text)
}
