package materials

import (
	"strings"
	"unicode"

	"github.com/verte-zerg/koch/internal/lesson"
)

// FilterTranscript uppercases text, keeps Koch characters, and collapses
// any run of whitespace into a single space.
func FilterTranscript(text string) string {
	var b strings.Builder
	space := false
	for _, r := range strings.ToUpper(text) {
		if unicode.IsSpace(r) {
			space = b.Len() > 0
			continue
		}
		if !lesson.InAlphabet(r) {
			continue
		}
		if space {
			b.WriteByte(' ')
			space = false
		}
		b.WriteRune(r)
	}
	return b.String()
}
