// Package chunk splits normalized document text into bounded, overlapping
// segments that are embedded and retrieved independently.
package chunk

// Chunk size defaults, in characters.
const (
	DefaultMaxLength = 500
	DefaultOverlap   = 50
	// MinMaxLength keeps the tolerance window meaningful.
	MinMaxLength = 20
)

// Chunk is a contiguous span of a document's text. Start and End are
// character (rune) offsets into the text passed to Split, End exclusive.
type Chunk struct {
	Index int
	Text  string
	Start int
	End   int
}

// Len returns the chunk length in characters.
func (c Chunk) Len() int {
	return c.End - c.Start
}
