package embed

import (
	"context"
	"math"
	"time"
)

const (
	// DefaultBatchSize is the default number of texts per backend request.
	DefaultBatchSize = 32

	// MaxBatchSize prevents oversized requests.
	MaxBatchSize = 256

	// DefaultTimeout bounds a single backend request.
	DefaultTimeout = 60 * time.Second

	// DefaultMaxInputChars is the truncation limit applied before encoding.
	// Small sentence-embedding models see about 256 tokens; 2000 characters
	// keeps every chunk whole at the default chunk length.
	DefaultMaxInputChars = 2000

	// StaticDimensions is the embedding dimension of the static embedder.
	StaticDimensions = 384

	// StaticModelName identifies static embeddings in the store.
	StaticModelName = "static-hash-384"
)

// Embedder generates vector embeddings for text.
//
// For any backend, EmbedBatch(texts)[i] must equal Embed(texts[i]) within
// floating-point tolerance: batching is only a throughput optimization.
type Embedder interface {
	// Embed generates the embedding for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts, in order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding dimension.
	Dimensions() int

	// ModelName returns the model identifier recorded in the store.
	ModelName() string

	// Available checks if the backend is ready.
	Available(ctx context.Context) bool

	// Close releases resources.
	Close() error
}

// Truncate returns the first maxChars characters of text. The cut point
// depends only on the input, so repeated calls embed the same prefix.
func Truncate(text string, maxChars int) string {
	if maxChars <= 0 || len(text) <= maxChars {
		return text
	}
	n := 0
	for i := range text {
		if n == maxChars {
			return text[:i]
		}
		n++
	}
	return text
}

// normalizeVector returns v scaled to unit length. Zero vectors are
// returned unchanged.
func normalizeVector(v []float32) []float32 {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}

	magnitude := math.Sqrt(sumSquares)
	if magnitude == 0 {
		return v
	}

	normalized := make([]float32, len(v))
	for i, val := range v {
		normalized[i] = float32(float64(val) / magnitude)
	}
	return normalized
}
