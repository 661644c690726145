package search

import (
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"
)

// matcher holds a query prepared for literal matching.
type matcher struct {
	mode   MatchMode
	phrase string   // lowercased trimmed query
	terms  []string // lowercased words, MatchTokens only
}

func newMatcher(query string, mode MatchMode) *matcher {
	m := &matcher{mode: mode, phrase: strings.ToLower(strings.TrimSpace(query))}
	if mode == MatchTokens {
		m.terms = queryTerms(m.phrase)
	}
	return m
}

// queryTerms splits a lowercased query into distinct words of at least
// MinTokenLength characters.
func queryTerms(q string) []string {
	fields := strings.FieldsFunc(q, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	seen := make(map[string]struct{}, len(fields))
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		if utf8.RuneCountInString(f) < MinTokenLength {
			continue
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		terms = append(terms, f)
	}
	return terms
}

// matches reports whether text contains the query under the match mode.
func (m *matcher) matches(text string) bool {
	if m.phrase == "" {
		return false
	}
	lower := strings.ToLower(text)
	if m.mode != MatchTokens {
		return strings.Contains(lower, m.phrase)
	}
	for _, t := range m.terms {
		if strings.Contains(lower, t) {
			return true
		}
	}
	return false
}

// needles returns the strings to highlight.
func (m *matcher) needles() []string {
	if m.mode == MatchTokens {
		return m.terms
	}
	if m.phrase == "" {
		return nil
	}
	return []string{m.phrase}
}

// boost returns the additive boost for a chunk of the document at path.
// At most one title boost and one content boost apply.
func (r *Ranker) boost(m *matcher, path, text string) (boost float64, title, content bool) {
	if m.matches(filepath.Base(path)) {
		boost += r.cfg.TitleBoost
		title = true
	}
	if m.matches(text) {
		boost += r.cfg.ContentBoost
		content = true
	}
	return boost, title, content
}
