// Package search ranks indexed chunks for a free-text query.
//
// Retrieval is hybrid: candidates come from exact cosine similarity over
// the store, then a literal match of the query against the file name or
// chunk text adds a fixed boost. The boosted list is re-sorted, optionally
// collapsed to one result per document, and truncated.
package search

import (
	"context"

	"github.com/Aman-CERP/docfinder/internal/store"
)

// Granularity controls whether results are chunks or documents.
type Granularity string

const (
	// GranularityDocument keeps the best chunk of each document.
	GranularityDocument Granularity = "document"
	// GranularityChunk returns every qualifying chunk.
	GranularityChunk Granularity = "chunk"
)

// MatchMode controls how the query is matched for boosting.
type MatchMode string

const (
	// MatchPhrase boosts when the whole trimmed query is a substring.
	MatchPhrase MatchMode = "phrase"
	// MatchTokens boosts when any query word of MinTokenLength or more
	// characters is a substring.
	MatchTokens MatchMode = "tokens"
)

// MinTokenLength is the shortest query word considered in MatchTokens mode.
const MinTokenLength = 3

// Searcher is the read side of the vector store.
type Searcher interface {
	// Search returns at most k hits; fewer means the store has no more.
	Search(ctx context.Context, query []float32, k int) ([]store.Hit, error)

	// CheckModel fails with ERR_402_MODEL_MISMATCH when the stored vectors
	// came from another model.
	CheckModel(model string, dims int) error
}

// Config configures a Ranker.
type Config struct {
	// DefaultTopK is used when a query asks for zero or fewer results (default: 20).
	DefaultTopK int

	// OverFetchMultiplier widens the candidate pool before boosting (default: 3).
	OverFetchMultiplier int

	// TitleBoost is added when the query matches the file base name (default: 0.25).
	TitleBoost float64

	// ContentBoost is added when the query matches the chunk text (default: 0.15).
	ContentBoost float64

	Granularity Granularity
	MatchMode   MatchMode
}

// DefaultConfig returns the ranking defaults.
func DefaultConfig() Config {
	return Config{
		DefaultTopK:         20,
		OverFetchMultiplier: 3,
		TitleBoost:          0.25,
		ContentBoost:        0.15,
		Granularity:         GranularityDocument,
		MatchMode:           MatchPhrase,
	}
}

// Options refines a single query.
type Options struct {
	// TopK is the number of results; zero or less uses Config.DefaultTopK.
	TopK int

	// Granularity overrides Config.Granularity when set.
	Granularity Granularity

	// Scopes restricts results to documents under these folders.
	// Multiple scopes use OR logic. Empty means no restriction.
	Scopes []string
}

// Result is one ranked search hit.
type Result struct {
	Path           string  `json:"path"`
	ChunkIndex     int     `json:"chunk_index"`
	ChunkText      string  `json:"chunk_text"`
	Snippet        string  `json:"snippet"`
	BaseSimilarity float64 `json:"base_similarity"`
	Boost          float64 `json:"boost"`
	FinalScore     float64 `json:"score"`
	Rank           int     `json:"rank"`

	// TitleMatch and ContentMatch record which boosts applied.
	TitleMatch   bool `json:"title_match"`
	ContentMatch bool `json:"content_match"`

	// Highlights are byte ranges of matched query text within Snippet.
	Highlights []Range `json:"highlights,omitempty"`

	// similarityRank is the 1-based position in the raw similarity order.
	similarityRank int
}

// Range represents a text range for highlighting.
type Range struct {
	// Start is the starting byte offset (0-indexed).
	Start int `json:"start"`

	// End is the ending byte offset (exclusive).
	End int `json:"end"`
}
