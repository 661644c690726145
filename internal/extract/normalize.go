package extract

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Normalize applies the text cleanup shared by every format: NFC, LF line
// endings, no control characters, single spaces, at most one blank line
// between paragraphs, and at most maxChars characters (0 means no cap).
func Normalize(text string, maxChars int) string {
	text = norm.NFC.String(text)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var sb strings.Builder
	sb.Grow(len(text))

	newlines := 0
	pendingSpace := false
	for _, r := range text {
		switch {
		case r == '\n':
			pendingSpace = false
			newlines++
			continue
		case r == '\t' || unicode.IsSpace(r):
			pendingSpace = true
			continue
		case unicode.IsControl(r) || unicode.Is(unicode.Cf, r):
			continue
		}

		if sb.Len() > 0 {
			switch {
			case newlines >= 2:
				sb.WriteString("\n\n")
			case newlines == 1:
				sb.WriteByte('\n')
			case pendingSpace:
				sb.WriteByte(' ')
			}
		}
		newlines = 0
		pendingSpace = false
		sb.WriteRune(r)
	}

	return truncateRunes(sb.String(), maxChars)
}

// truncateRunes cuts s to at most n runes without splitting a character.
func truncateRunes(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return strings.TrimSpace(s[:i])
		}
		count++
	}
	return s
}
