package common

import (
	"strings"
	"unicode"
)

// Sanitize strips control characters (C0 and C1, tabs and line breaks
// included) and zero-width marks, turns no-break spaces into plain spaces,
// collapses whitespace runs and trims the result.
func Sanitize(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	pendingSpace := false
	for _, r := range text {
		switch {
		case r <= 0x1F || (r >= 0x7F && r <= 0x9F):
			continue
		case r == '\u200b' || r == '\ufeff':
			continue
		case r == '\u00a0' || r == '\u202f' || r == '\u2007':
			pendingSpace = true
			continue
		case unicode.IsSpace(r):
			pendingSpace = true
			continue
		}
		if pendingSpace && b.Len() > 0 {
			b.WriteByte(' ')
		}
		pendingSpace = false
		b.WriteRune(r)
	}
	return b.String()
}
