package corpus

import (
	"strings"
	"unicode"
)

// Preprocess normalizes text before embedding (trim, collapse whitespace).
// Passages and questions both go through it so queries and corpus are embedded the same way.
func Preprocess(text string) string {
	text = strings.TrimSpace(text)
	var b strings.Builder
	wasSpace := false
	for _, r := range text {
		if unicode.IsSpace(r) {
			if !wasSpace {
				b.WriteRune(' ')
				wasSpace = true
			}
		} else {
			b.WriteRune(r)
			wasSpace = false
		}
	}
	return b.String()
}
