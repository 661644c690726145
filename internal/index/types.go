// Package index keeps a folder's documents in sync with the vector store.
//
// A run scans the folder, fingerprints every supported file, re-extracts
// only what changed, and removes entries for files that disappeared. Runs
// are incremental and idempotent: indexing an unchanged folder twice
// leaves the store untouched.
package index

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"time"

	"github.com/Aman-CERP/docfinder/internal/chunk"
	"github.com/Aman-CERP/docfinder/internal/pathguard"
	"github.com/Aman-CERP/docfinder/internal/scanner"
	"github.com/Aman-CERP/docfinder/internal/store"
)

// ErrNilDependency is returned by NewManager when a dependency is missing.
var ErrNilDependency = errors.New("index: nil dependency")

// FingerprintMode selects how changed files are detected.
type FingerprintMode string

const (
	// FingerprintMtime trusts an equal mtime and size, hashing only on change.
	FingerprintMtime FingerprintMode = "mtime"
	// FingerprintHash hashes every file on every run.
	FingerprintHash FingerprintMode = "hash"
)

// Store is the subset of the vector store a run writes to.
type Store interface {
	EnsureModel(ctx context.Context, model string, dims int) error
	ReplaceDocument(ctx context.Context, doc store.Document, chunks []store.Chunk, vectors [][]float32) error
	DeleteByDocument(ctx context.Context, path string) error
	TouchDocument(ctx context.Context, path string, fp store.Fingerprint) error
	IndexEntries(ctx context.Context) ([]store.IndexEntry, error)
	Recovered() bool
	Dir() string
}

// Extractor turns a document into normalized text.
type Extractor interface {
	Extract(ctx context.Context, path string) (string, error)
}

// Chunker splits text into overlapping chunks.
type Chunker interface {
	Split(text string) []chunk.Chunk
}

// Scanner walks a folder for supported documents.
type Scanner interface {
	Collect(ctx context.Context, opts *scanner.ScanOptions) ([]*scanner.FileInfo, error)
	Guard() *pathguard.Guard
}

// FileFailure records a document that could not be indexed.
type FileFailure struct {
	Path   string `json:"path"`
	Kind   string `json:"kind"`
	Reason string `json:"reason"`
}

// Report summarizes one run.
type Report struct {
	RunID          string        `json:"run_id"`
	Root           string        `json:"root"`
	Indexed        int           `json:"indexed"`
	Skipped        int           `json:"skipped"`
	Removed        int           `json:"removed"`
	Failed         []FileFailure `json:"failed"`
	Chunks         int           `json:"chunks"`
	Duration       time.Duration `json:"duration"`
	StoreRecovered bool          `json:"store_recovered"`
}

// Total returns the number of documents the run looked at.
func (r *Report) Total() int {
	return r.Indexed + r.Skipped + len(r.Failed)
}

// settings holds the Manager's tunables.
type settings struct {
	workers     int
	batchSize   int
	fingerprint FingerprintMode
	lockDir     string
	followLinks bool
	logger      *slog.Logger
}

func defaultSettings() settings {
	return settings{
		workers:     max(1, runtime.NumCPU()/2),
		batchSize:   32,
		fingerprint: FingerprintMtime,
		logger:      slog.Default(),
	}
}

// Option configures a Manager.
type Option func(*settings)

// WithWorkers sets the extraction pool size.
func WithWorkers(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithBatchSize sets how many chunks are embedded per call.
func WithBatchSize(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// WithFingerprintMode selects mtime or hash change detection.
func WithFingerprintMode(mode FingerprintMode) Option {
	return func(s *settings) {
		if mode == FingerprintMtime || mode == FingerprintHash {
			s.fingerprint = mode
		}
	}
}

// WithLockDir places the cross-process writer lock. Defaults to the
// store's directory.
func WithLockDir(dir string) Option {
	return func(s *settings) {
		s.lockDir = dir
	}
}

// WithFollowSymlinks includes symlinked files in the walk.
func WithFollowSymlinks(follow bool) Option {
	return func(s *settings) {
		s.followLinks = follow
	}
}

// WithLogger sets the run logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}
