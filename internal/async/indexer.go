package async

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// RunMarkerName is written to the data directory while a run is active and
// removed when it ends, so an interrupted run can be detected later.
const RunMarkerName = "indexing.inprogress"

// IndexFunc is the function signature for the actual indexing work.
type IndexFunc func(ctx context.Context, progress *IndexProgress) error

// IndexerConfig configures the BackgroundIndexer.
type IndexerConfig struct {
	// DataDir receives the run marker. Empty disables the marker.
	DataDir string
}

// BackgroundIndexer runs indexing in a background goroutine with progress tracking.
type BackgroundIndexer struct {
	config   IndexerConfig
	progress *IndexProgress

	// IndexFunc is the actual indexing function to run.
	IndexFunc IndexFunc

	stopCh   chan struct{}
	stopOnce sync.Once
	doneCh   chan struct{}

	mu      sync.Mutex
	started bool
	running bool
	err     error
}

// NewBackgroundIndexer creates a new background indexer.
func NewBackgroundIndexer(cfg IndexerConfig, fn IndexFunc) *BackgroundIndexer {
	return &BackgroundIndexer{
		config:    cfg,
		progress:  NewIndexProgress(),
		IndexFunc: fn,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// Progress returns the progress tracker for this indexer.
func (b *BackgroundIndexer) Progress() *IndexProgress {
	return b.progress
}

// IsRunning returns true if the indexer is currently running.
func (b *BackgroundIndexer) IsRunning() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.running
}

// Start begins indexing in a background goroutine. It is non-blocking and
// runs at most once; use Wait to block until completion.
func (b *BackgroundIndexer) Start(ctx context.Context) {
	b.mu.Lock()
	if b.started {
		b.mu.Unlock()
		return
	}
	b.started = true
	b.running = true
	b.mu.Unlock()

	go b.run(ctx)
}

func (b *BackgroundIndexer) run(ctx context.Context) {
	defer close(b.doneCh)
	defer func() {
		b.mu.Lock()
		b.running = false
		b.mu.Unlock()
	}()

	// Merged context that respects both the parent and Stop.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-b.stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	if b.config.DataDir != "" {
		marker := filepath.Join(b.config.DataDir, RunMarkerName)
		if err := os.MkdirAll(b.config.DataDir, 0o755); err != nil {
			b.fail(err)
			return
		}
		if err := os.WriteFile(marker, []byte(time.Now().Format(time.RFC3339)), 0o644); err != nil {
			b.fail(err)
			return
		}
		defer func() { _ = os.Remove(marker) }()
	}

	if b.IndexFunc != nil {
		if err := b.IndexFunc(ctx, b.progress); err != nil {
			b.fail(err)
			return
		}
	}
	b.progress.SetReady()
}

func (b *BackgroundIndexer) fail(err error) {
	if errors.Is(err, context.Canceled) {
		b.progress.SetCancelled()
	} else {
		b.progress.SetError(err.Error())
	}
	b.mu.Lock()
	b.err = err
	b.mu.Unlock()
}

// Stop signals the indexer to stop. If it was started, Stop waits for it to
// finish. Safe to call more than once.
func (b *BackgroundIndexer) Stop() {
	b.stopOnce.Do(func() { close(b.stopCh) })

	b.mu.Lock()
	started := b.started
	b.mu.Unlock()
	if started {
		<-b.doneCh
	}
}

// Done is closed when the run finishes.
func (b *BackgroundIndexer) Done() <-chan struct{} {
	return b.doneCh
}

// Wait blocks until the indexer completes and returns any error.
func (b *BackgroundIndexer) Wait() error {
	<-b.doneCh
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.err
}

// HasIncompleteRun reports whether a previous run in dataDir ended without
// removing its marker.
func HasIncompleteRun(dataDir string) bool {
	_, err := os.Stat(filepath.Join(dataDir, RunMarkerName))
	return err == nil
}
