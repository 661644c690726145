package index

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Aman-CERP/docfinder/internal/async"
	"github.com/Aman-CERP/docfinder/internal/embed"
	ferrors "github.com/Aman-CERP/docfinder/internal/errors"
	"github.com/Aman-CERP/docfinder/internal/scanner"
	"github.com/Aman-CERP/docfinder/internal/store"
)

// Dependencies contains the injected collaborators of a Manager.
type Dependencies struct {
	Store     Store
	Embedder  embed.Embedder
	Extractor Extractor
	Chunker   Chunker
	Scanner   Scanner
}

// Manager runs indexing for one store. Runs over the same root coalesce;
// runs over different roots queue behind the writer slot.
type Manager struct {
	store     Store
	embedder  embed.Embedder
	extractor Extractor
	chunker   Chunker
	scanner   Scanner
	cfg       settings
	logger    *slog.Logger

	writer chan struct{} // capacity 1, held for the duration of a run

	mu   sync.Mutex
	runs map[string]*Run
}

// NewManager creates a Manager with injected dependencies.
func NewManager(deps Dependencies, opts ...Option) (*Manager, error) {
	switch {
	case deps.Store == nil:
		return nil, fmt.Errorf("%w: store", ErrNilDependency)
	case deps.Embedder == nil:
		return nil, fmt.Errorf("%w: embedder", ErrNilDependency)
	case deps.Extractor == nil:
		return nil, fmt.Errorf("%w: extractor", ErrNilDependency)
	case deps.Chunker == nil:
		return nil, fmt.Errorf("%w: chunker", ErrNilDependency)
	case deps.Scanner == nil:
		return nil, fmt.Errorf("%w: scanner", ErrNilDependency)
	}

	cfg := defaultSettings()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.lockDir == "" {
		cfg.lockDir = deps.Store.Dir()
	}

	return &Manager{
		store:     deps.Store,
		embedder:  deps.Embedder,
		extractor: deps.Extractor,
		chunker:   deps.Chunker,
		scanner:   deps.Scanner,
		cfg:       cfg,
		logger:    cfg.logger,
		writer:    make(chan struct{}, 1),
		runs:      make(map[string]*Run),
	}, nil
}

// IndexFolder indexes root and blocks until the run ends. If a run over
// root is already active, it waits for that run instead of starting one.
// When ctx ends first, a run that other callers still wait on keeps going
// and IndexFolder returns ctx.Err(); otherwise the run is cancelled and its
// partial report returned.
func (m *Manager) IndexFolder(ctx context.Context, root string) (*Report, error) {
	r, detach := m.start(ctx, root)
	select {
	case <-r.Done():
	case <-ctx.Done():
		if !detach() {
			return nil, ctx.Err()
		}
	}
	return r.Wait()
}

// Start begins indexing root in the background and returns its handle.
// A run over the same root that is still active is returned as is. The
// run stops when Run.Cancel is called or when the contexts of all callers
// that started or joined it have ended.
func (m *Manager) Start(ctx context.Context, root string) *Run {
	r, _ := m.start(ctx, root)
	return r
}

func (m *Manager) start(ctx context.Context, root string) (*Run, func() bool) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		absRoot = filepath.Clean(root)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if r, ok := m.runs[absRoot]; ok {
		select {
		case <-r.Done():
		default:
			if detach, ok := r.attach(ctx); ok {
				m.logger.Debug("index_run_coalesced", slog.String("root", absRoot), slog.String("run_id", r.id))
				return r, detach
			}
		}
	}

	r := &Run{id: uuid.NewString(), root: absRoot}
	r.bg = async.NewBackgroundIndexer(async.IndexerConfig{DataDir: m.store.Dir()},
		func(ctx context.Context, progress *async.IndexProgress) error {
			defer m.forget(r)
			report, err := m.run(ctx, r.id, absRoot, progress)
			r.setReport(report)
			return err
		})
	m.runs[absRoot] = r
	detach, _ := r.attach(ctx)
	r.bg.Start(context.WithoutCancel(ctx))
	return r, detach
}

// Active returns the run currently registered for root, if any.
func (m *Manager) Active(root string) (*Run, bool) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.runs[absRoot]
	return r, ok
}

func (m *Manager) forget(r *Run) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.runs[r.root] == r {
		delete(m.runs, r.root)
	}
}

// acquire takes the writer slot, giving up if ctx ends first.
func (m *Manager) acquire(ctx context.Context) error {
	select {
	case m.writer <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) release() {
	<-m.writer
}

// run executes one indexing pass over root. The returned report is
// non-nil whenever the run got past its preconditions, including when it
// was cancelled.
func (m *Manager) run(ctx context.Context, runID, root string, progress *async.IndexProgress) (*Report, error) {
	if err := m.acquire(ctx); err != nil {
		return nil, err
	}
	defer m.release()

	start := time.Now()
	report := &Report{RunID: runID, Root: root, Failed: []FileFailure{}}
	logger := m.logger.With(slog.String("run_id", runID), slog.String("root", root))

	if err := m.scanner.Guard().Check(root); err != nil {
		return nil, err
	}
	if err := m.store.EnsureModel(ctx, m.embedder.ModelName(), m.embedder.Dimensions()); err != nil {
		return nil, err
	}
	lock := store.NewFileLock(m.cfg.lockDir)
	if err := lock.Acquire(); err != nil {
		return nil, err
	}
	defer func() { _ = lock.Unlock() }()

	report.StoreRecovered = m.store.Recovered()
	if report.StoreRecovered {
		logger.Warn("store_recovered", slog.String("dir", m.store.Dir()))
	}
	logger.Info("index_started",
		slog.String("model", m.embedder.ModelName()),
		slog.String("fingerprint", string(m.cfg.fingerprint)))

	// Stage 1: Scan
	progress.SetStage(async.StageScanning, 0)
	files, err := m.scanner.Collect(ctx, &scanner.ScanOptions{
		RootDir:        root,
		FollowSymlinks: m.cfg.followLinks,
	})
	if err != nil {
		if ctx.Err() != nil {
			return m.finish(report, start, logger, ctx.Err())
		}
		return nil, ferrors.New(ferrors.ErrCodeIndexFailed, "scan "+root, err)
	}
	progress.SetStage(async.StageScanning, len(files))

	entries, err := m.store.IndexEntries(ctx)
	if err != nil {
		return nil, err
	}
	known := make(map[string]store.IndexEntry, len(entries))
	for _, e := range entries {
		if underRoot(root, e.Path) {
			known[e.Path] = e
		}
	}

	// Stage 2: Fingerprint
	plans, err := planFiles(ctx, files, known, m.cfg.fingerprint, m.cfg.workers)
	if err != nil {
		if ctx.Err() != nil {
			return m.finish(report, start, logger, ctx.Err())
		}
		return nil, err
	}

	var todo []plan
	for _, p := range plans {
		switch p.action {
		case actionSkip:
			report.Skipped++
			progress.FileSkipped()
		case actionTouch:
			if err := m.store.TouchDocument(ctx, p.file.AbsPath, p.fp); err != nil {
				return m.finish(report, start, logger, err)
			}
			report.Skipped++
			progress.FileSkipped()
		default:
			todo = append(todo, p)
		}
	}

	// Stage 3: Extract, chunk, embed, persist
	if err := m.processAll(ctx, todo, report, progress, logger); err != nil {
		return m.finish(report, start, logger, err)
	}

	// Stage 4: Remove documents that are gone or no longer allowed
	seen := make(map[string]struct{}, len(files))
	for _, f := range files {
		seen[f.AbsPath] = struct{}{}
	}
	for path := range known {
		if _, ok := seen[path]; ok {
			continue
		}
		if err := ctx.Err(); err != nil {
			return m.finish(report, start, logger, err)
		}
		if err := m.store.DeleteByDocument(ctx, path); err != nil {
			return m.finish(report, start, logger, err)
		}
		report.Removed++
		logger.Debug("document_removed", slog.String("path", path))
	}

	return m.finish(report, start, logger, nil)
}

func (m *Manager) finish(report *Report, start time.Time, logger *slog.Logger, err error) (*Report, error) {
	report.Duration = time.Since(start)
	attrs := []any{
		slog.Int("indexed", report.Indexed),
		slog.Int("skipped", report.Skipped),
		slog.Int("removed", report.Removed),
		slog.Int("failed", len(report.Failed)),
		slog.Int("chunks", report.Chunks),
		slog.Int64("duration_ms", report.Duration.Milliseconds()),
	}

	switch {
	case err == nil:
		logger.Info("index_complete", attrs...)
	case errors.Is(err, context.Canceled):
		logger.Info("index_cancelled", attrs...)
	default:
		logger.Error("index_failed", append(attrs, slog.String("error", err.Error()))...)
	}
	return report, err
}

// underRoot reports whether path lies inside root.
func underRoot(root, path string) bool {
	if path == root {
		return false
	}
	prefix := root
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(path, prefix)
}
