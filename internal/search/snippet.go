package search

import (
	"sort"
	"strings"
)

// SnippetLength is the target snippet size in characters.
const SnippetLength = 240

const ellipsis = "..."

// makeSnippet returns a window of text centered on the first match of any
// needle, or the start of text when nothing matches. Whitespace runs are
// collapsed.
func makeSnippet(text string, needles []string) string {
	runes := []rune(strings.Join(strings.Fields(text), " "))
	if len(runes) <= SnippetLength {
		return string(runes)
	}

	lower := []rune(strings.ToLower(string(runes)))
	at := -1
	for _, n := range needles {
		if i := runeIndex(lower, []rune(n)); i >= 0 && (at < 0 || i < at) {
			at = i
		}
	}

	start := 0
	if at > SnippetLength/3 {
		start = at - SnippetLength/3
	}
	end := min(start+SnippetLength, len(runes))
	if end-start < SnippetLength {
		start = max(0, end-SnippetLength)
	}

	// Prefer word boundaries.
	if start > 0 {
		if sp := runeIndex(runes[start:min(start+20, end)], []rune(" ")); sp >= 0 {
			start += sp + 1
		}
	}
	if end < len(runes) {
		for i := end - 1; i > end-20 && i > start; i-- {
			if runes[i] == ' ' {
				end = i
				break
			}
		}
	}

	out := string(runes[start:end])
	if start > 0 {
		out = ellipsis + out
	}
	if end < len(runes) {
		out += ellipsis
	}
	return out
}

// runeIndex is strings.Index over rune slices, so offsets stay in
// characters even when case folding changes byte lengths.
func runeIndex(haystack, needle []rune) int {
	if len(needle) == 0 || len(needle) > len(haystack) {
		return -1
	}
outer:
	for i := 0; i+len(needle) <= len(haystack); i++ {
		for j, r := range needle {
			if haystack[i+j] != r {
				continue outer
			}
		}
		return i
	}
	return -1
}

// calculateHighlights finds byte ranges of needles in content.
func calculateHighlights(content string, needles []string) []Range {
	if len(needles) == 0 || len(content) == 0 {
		return []Range{}
	}

	const maxMatchesPerTerm = 10
	highlights := make([]Range, 0, len(needles)*3)
	lowerContent := strings.ToLower(content)
	if len(lowerContent) != len(content) {
		// Case folding changed byte widths; offsets would not line up.
		return []Range{}
	}

	for _, term := range needles {
		if term == "" {
			continue
		}
		start := 0
		for count := 0; count < maxMatchesPerTerm; count++ {
			idx := strings.Index(lowerContent[start:], term)
			if idx == -1 {
				break
			}
			absStart := start + idx
			highlights = append(highlights, Range{Start: absStart, End: absStart + len(term)})
			start = absStart + len(term)
		}
	}

	if len(highlights) > 1 {
		sort.Slice(highlights, func(i, j int) bool {
			return highlights[i].Start < highlights[j].Start
		})
	}
	return highlights
}
