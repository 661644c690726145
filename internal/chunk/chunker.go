package chunk

import "unicode"

// separators in priority order: paragraph, line, sentence, word.
var separators = [][]rune{
	[]rune("\n\n"),
	[]rune("\n"),
	[]rune(". "),
	[]rune("! "),
	[]rune("? "),
	[]rune(" "),
}

// Chunker splits text into chunks of at most maxLength characters,
// preferring to cut at natural boundaries.
type Chunker struct {
	maxLength int
	overlap   int
}

// Option configures a Chunker.
type Option func(*Chunker)

// WithMaxLength sets the maximum chunk length in characters.
func WithMaxLength(n int) Option {
	return func(c *Chunker) {
		if n >= MinMaxLength {
			c.maxLength = n
		}
	}
}

// WithOverlap sets how many characters consecutive chunks share.
func WithOverlap(n int) Option {
	return func(c *Chunker) {
		if n >= 0 {
			c.overlap = n
		}
	}
}

// New creates a Chunker. Overlap is clamped below maxLength/2 so every
// step advances by at least half a window.
func New(opts ...Option) *Chunker {
	c := &Chunker{maxLength: DefaultMaxLength, overlap: DefaultOverlap}
	for _, opt := range opts {
		opt(c)
	}
	if c.overlap >= c.maxLength/2 {
		c.overlap = c.maxLength/2 - 1
	}
	return c
}

// MaxLength returns the configured maximum chunk length.
func (c *Chunker) MaxLength() int {
	return c.maxLength
}

// Split cuts text into chunks. Whitespace-only input yields no chunks;
// any other input yields at least one.
func (c *Chunker) Split(text string) []Chunk {
	runes := []rune(text)
	n := len(runes)

	var chunks []Chunk
	start := 0
	for start < n {
		for start < n && unicode.IsSpace(runes[start]) {
			start++
		}
		if start >= n {
			break
		}

		end := start + c.maxLength
		if end >= n {
			end = n
		} else {
			end = c.cut(runes, start, end)
		}

		e := end
		for e > start && unicode.IsSpace(runes[e-1]) {
			e--
		}
		if e > start {
			chunks = append(chunks, Chunk{
				Index: len(chunks),
				Text:  string(runes[start:e]),
				Start: start,
				End:   e,
			})
		}

		if end >= n {
			break
		}
		start = c.nextStart(runes, start, end)
	}
	return chunks
}

// cut returns the end of the window [start, limit). It looks for the last
// separator inside the tolerance window [start+maxLength/2, limit), trying
// separators in priority order, and falls back to a hard cut at limit.
func (c *Chunker) cut(runes []rune, start, limit int) int {
	lo := start + c.maxLength/2
	for _, sep := range separators {
		for i := limit - len(sep); i >= lo; i-- {
			if matchAt(runes, i, sep) {
				return i + len(sep)
			}
		}
	}
	return limit
}

// nextStart backs up by the overlap, then moves forward to the next word
// start so the overlap does not begin mid-word. It always advances.
func (c *Chunker) nextStart(runes []rune, start, end int) int {
	if c.overlap == 0 {
		return end
	}
	next := end - c.overlap
	if next <= start {
		return end
	}
	for i := next; i < end; i++ {
		if unicode.IsSpace(runes[i]) {
			return i + 1
		}
	}
	return next
}

func matchAt(runes []rune, i int, sep []rune) bool {
	if i < 0 || i+len(sep) > len(runes) {
		return false
	}
	for j, r := range sep {
		if runes[i+j] != r {
			return false
		}
	}
	return true
}
