// Package store persists chunks, their embeddings and per-document
// fingerprints in SQLite, and serves exact cosine search from an in-memory
// copy of the vectors.
package store

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"
)

const (
	// DBFileName is the store file inside the data directory.
	DBFileName = "index.db"

	// LockFileName guards the data directory against concurrent writers.
	LockFileName = "writer.lock"

	schemaVersion = 1
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("store is closed")

// Chunk is one contiguous segment of a document's normalized text.
// Start and End are character offsets, End exclusive.
type Chunk struct {
	ID           string
	DocumentPath string
	Index        int
	Text         string
	Start        int
	End          int
}

// ChunkID derives the stable identifier of a document's index-th chunk.
func ChunkID(path string, index int) string {
	sum := sha256.Sum256([]byte(path + ":" + strconv.Itoa(index)))
	return hex.EncodeToString(sum[:])[:16]
}

// Fingerprint is the change-detection state recorded per document.
type Fingerprint struct {
	ModTime     time.Time
	Size        int64
	ContentHash string
}

// Document is a successfully extracted file.
type Document struct {
	Path        string
	Fingerprint Fingerprint
	IndexedAt   time.Time
}

// IndexEntry is a document row joined with its chunk ids.
type IndexEntry struct {
	Path        string
	Fingerprint Fingerprint
	IndexedAt   time.Time
	ChunkIDs    []string
}

// Hit is one search candidate.
type Hit struct {
	Chunk      Chunk
	Similarity float64
	Seq        int64
}

// Stats summarizes the store.
type Stats struct {
	Path       string
	Documents  int
	Chunks     int
	Model      string
	Dimensions int
	SizeBytes  int64
	ANN        bool
}

// Options configures Open.
type Options struct {
	// ANN maintains an HNSW graph for candidate generation.
	ANN bool

	Logger *slog.Logger
}

// ErrDimensionMismatch indicates a vector of the wrong length.
type ErrDimensionMismatch struct {
	Expected int
	Got      int
}

func (e ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d (run 'docfinder index --reset')", e.Expected, e.Got)
}
