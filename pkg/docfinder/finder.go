// Package docfinder is the public entry point for indexing a folder of
// documents and searching it by meaning.
//
// A Finder owns one index directory. Indexing is incremental and runs in
// the background when started with StartIndexing; Search is read-only and
// safe to call while a run is in progress.
//
//	f, err := docfinder.Open(ctx, docfinder.Options{Root: "~/Documents"})
//	if err != nil {
//	    return err
//	}
//	defer f.Close()
//
//	report, err := f.IndexFolder(ctx, f.Root())
//	results, err := f.Search(ctx, "budget meeting", 10)
package docfinder

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Aman-CERP/docfinder/internal/async"
	"github.com/Aman-CERP/docfinder/internal/chunk"
	"github.com/Aman-CERP/docfinder/internal/config"
	"github.com/Aman-CERP/docfinder/internal/embed"
	"github.com/Aman-CERP/docfinder/internal/extract"
	"github.com/Aman-CERP/docfinder/internal/index"
	"github.com/Aman-CERP/docfinder/internal/pathguard"
	"github.com/Aman-CERP/docfinder/internal/scanner"
	"github.com/Aman-CERP/docfinder/internal/search"
	"github.com/Aman-CERP/docfinder/internal/store"
)

// Options configures Open.
type Options struct {
	// Root is the default folder; its config file and data directory are
	// used unless overridden. Defaults to the working directory.
	Root string

	// DataDir overrides where the index lives.
	DataDir string

	// Config overrides loading configuration from Root.
	Config *config.Config

	// Offline forces the static embedder.
	Offline bool

	// Embedder replaces the configured embedding backend.
	Embedder embed.Embedder

	Logger *slog.Logger
}

// Status describes the index and any run in progress.
type Status struct {
	Root          string                       `json:"root"`
	DataDir       string                       `json:"data_dir"`
	Store         store.Stats                  `json:"store"`
	Recovered     bool                         `json:"recovered"`
	IncompleteRun bool                         `json:"incomplete_run"`
	Active        *async.IndexProgressSnapshot `json:"active,omitempty"`
}

// Finder indexes folders into one store and searches it.
type Finder struct {
	root    string
	dataDir string
	cfg     *config.Config
	offline bool
	logger  *slog.Logger
	store   *store.SQLiteStore
	guard   *pathguard.Guard
	scanner *scanner.Scanner

	mu       sync.Mutex
	embedder embed.Embedder
	ownsEmb  bool
	manager  *index.Manager
	ranker   *search.Ranker
	runs     []*index.Run
	closed   bool
}

// Open loads configuration and opens the store. The embedding backend is
// connected on first use, so Status works without it.
func Open(ctx context.Context, opts Options) (*Finder, error) {
	root := opts.Root
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("get working directory: %w", err)
		}
		root = wd
	}
	root, err := filepath.Abs(expandHome(root))
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}

	cfg := opts.Config
	if cfg == nil {
		cfg, err = config.Load(root)
		if err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	dataDir := opts.DataDir
	if dataDir == "" {
		dataDir = cfg.DataDirFor(root)
	}
	dataDir, err = filepath.Abs(expandHome(dataDir))
	if err != nil {
		return nil, fmt.Errorf("resolve data dir: %w", err)
	}

	s, err := store.Open(ctx, dataDir, store.Options{ANN: cfg.Search.ANN, Logger: logger})
	if err != nil {
		return nil, err
	}

	guard := pathguard.New(
		pathguard.WithRoots(cfg.Paths.Denylist...),
		pathguard.WithIgnoreNames(cfg.Paths.IgnoreNames...),
		pathguard.WithExcludes(cfg.Paths.Exclude...),
	)

	return &Finder{
		root:     root,
		dataDir:  dataDir,
		cfg:      cfg,
		offline:  opts.Offline,
		logger:   logger,
		store:    s,
		guard:    guard,
		scanner:  scanner.New(guard, logger),
		embedder: opts.Embedder,
	}, nil
}

// Root returns the default folder.
func (f *Finder) Root() string { return f.root }

// DataDir returns the index directory.
func (f *Finder) DataDir() string { return f.dataDir }

// Config returns the effective configuration.
func (f *Finder) Config() *config.Config { return f.cfg }

// Guard returns the path guard applied to scans.
func (f *Finder) Guard() *pathguard.Guard { return f.guard }

// Store exposes the underlying store for inspection.
func (f *Finder) Store() *store.SQLiteStore { return f.store }

// components lazily connects the embedder and builds the manager and
// ranker on top of it.
func (f *Finder) components(ctx context.Context) (*index.Manager, *search.Ranker, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil, nil, store.ErrClosed
	}
	if f.manager != nil {
		return f.manager, f.ranker, nil
	}

	if f.embedder == nil {
		emb, err := f.newEmbedder(ctx)
		if err != nil {
			return nil, nil, err
		}
		f.embedder = emb
		f.ownsEmb = true
	}

	cfg := f.cfg
	extractor := extract.New(extract.Options{
		MaxFileSize:   int64(cfg.Extract.MaxFileSizeMB) * 1024 * 1024,
		MaxTextChars:  cfg.Extract.MaxTextChars,
		TextEncodings: cfg.Extract.TextEncodings,
		PDFToText:     cfg.Extract.PDFToText,
	})
	chunker := chunk.New(
		chunk.WithMaxLength(cfg.Index.ChunkMaxLength),
		chunk.WithOverlap(cfg.Index.ChunkOverlap),
	)

	manager, err := index.NewManager(index.Dependencies{
		Store:     f.store,
		Embedder:  f.embedder,
		Extractor: extractor,
		Chunker:   chunker,
		Scanner:   f.scanner,
	},
		index.WithWorkers(cfg.Index.Workers),
		index.WithBatchSize(cfg.Embeddings.BatchSize),
		index.WithFingerprintMode(index.FingerprintMode(cfg.Index.Fingerprint)),
		index.WithLogger(f.logger),
	)
	if err != nil {
		return nil, nil, err
	}

	ranker, err := search.NewRanker(f.store, f.embedder, search.Config{
		DefaultTopK:         cfg.Search.TopK,
		OverFetchMultiplier: cfg.Search.OverFetchMultiplier,
		TitleBoost:          cfg.Search.TitleBoost,
		ContentBoost:        cfg.Search.ContentBoost,
		Granularity:         search.Granularity(cfg.Search.Granularity),
		MatchMode:           search.MatchMode(cfg.Search.MatchMode),
	}, search.WithLogger(f.logger))
	if err != nil {
		return nil, nil, err
	}

	f.manager, f.ranker = manager, ranker
	return manager, ranker, nil
}

func (f *Finder) newEmbedder(ctx context.Context) (embed.Embedder, error) {
	provider, err := embed.ParseProvider(f.cfg.Embeddings.Provider)
	if err != nil {
		return nil, err
	}
	if f.offline {
		provider = embed.ProviderStatic
	}
	return embed.NewEmbedder(ctx, embed.Options{
		Provider:      provider,
		Model:         f.cfg.Embeddings.Model,
		Host:          f.cfg.Embeddings.OllamaHost,
		BatchSize:     f.cfg.Embeddings.BatchSize,
		MaxInputChars: f.cfg.Embeddings.MaxInputChars,
		Timeout:       f.cfg.EmbeddingTimeout(),
		CacheSize:     f.cfg.Embeddings.CacheSize,
		Logger:        f.logger,
	})
}

// IndexFolder indexes path and waits for the run to finish.
func (f *Finder) IndexFolder(ctx context.Context, path string) (*index.Report, error) {
	manager, _, err := f.components(ctx)
	if err != nil {
		return nil, err
	}
	return manager.IndexFolder(ctx, expandHome(path))
}

// StartIndexing indexes path in the background. A run already active on
// path is returned instead of starting another.
func (f *Finder) StartIndexing(ctx context.Context, path string) (*index.Run, error) {
	manager, _, err := f.components(ctx)
	if err != nil {
		return nil, err
	}
	run := manager.Start(ctx, expandHome(path))

	f.mu.Lock()
	f.runs = append(f.runs, run)
	f.mu.Unlock()
	return run, nil
}

// Search returns up to topK results for query. topK <= 0 uses the
// configured default.
func (f *Finder) Search(ctx context.Context, query string, topK int) ([]*search.Result, error) {
	return f.SearchWithOptions(ctx, query, search.Options{TopK: topK})
}

// SearchWithOptions is Search with per-query options.
func (f *Finder) SearchWithOptions(ctx context.Context, query string, opts search.Options) ([]*search.Result, error) {
	_, ranker, err := f.components(ctx)
	if err != nil {
		return nil, err
	}
	return ranker.Search(ctx, query, opts)
}

// Status reports on the store and any run active on the default root.
// It never connects to the embedding backend.
func (f *Finder) Status(ctx context.Context) (*Status, error) {
	stats, err := f.store.Stats(ctx)
	if err != nil {
		return nil, err
	}
	st := &Status{
		Root:          f.root,
		DataDir:       f.dataDir,
		Store:         stats,
		Recovered:     f.store.Recovered(),
		IncompleteRun: async.HasIncompleteRun(f.dataDir),
	}

	f.mu.Lock()
	manager := f.manager
	f.mu.Unlock()
	if manager != nil {
		if run, ok := manager.Active(f.root); ok {
			snap := run.Progress()
			st.Active = &snap
			st.IncompleteRun = false
		}
	}
	return st, nil
}

// Reset empties the index. The recorded embedding model is cleared too.
func (f *Finder) Reset(ctx context.Context) error {
	lock := store.NewFileLock(f.dataDir)
	if err := lock.Acquire(); err != nil {
		return err
	}
	defer func() { _ = lock.Unlock() }()
	return f.store.Reset(ctx)
}

// Close cancels background runs and releases the store and embedder.
func (f *Finder) Close() error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil
	}
	f.closed = true
	runs := f.runs
	f.runs = nil
	f.mu.Unlock()

	for _, r := range runs {
		select {
		case <-r.Done():
		default:
			r.Cancel()
		}
	}

	// Give cancelled runs a moment to release the lock before closing.
	deadline := time.After(5 * time.Second)
	for _, r := range runs {
		select {
		case <-r.Done():
		case <-deadline:
		}
	}

	var firstErr error
	if f.ownsEmb && f.embedder != nil {
		if err := f.embedder.Close(); err != nil {
			firstErr = err
		}
	}
	if err := f.store.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

func expandHome(path string) string {
	if path == "~" || (len(path) > 1 && path[:2] == "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
