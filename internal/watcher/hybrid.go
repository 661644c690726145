package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// HybridWatcher watches a folder tree with fsnotify, falling back to
// polling, and emits debounced batches of relevant events.
type HybridWatcher struct {
	opts        Options
	logger      *slog.Logger
	fsWatcher   *fsnotify.Watcher
	pollWatcher *PollingWatcher
	debouncer   *Debouncer
	filter      *filter

	events chan []FileEvent
	errors chan error
	stopCh chan struct{}

	mu             sync.RWMutex
	stopped        bool
	droppedBatches atomic.Uint64
}

// NewHybridWatcher creates a watcher. fsnotify is tried first unless
// opts.ForcePolling is set.
func NewHybridWatcher(opts Options) (*HybridWatcher, error) {
	opts = opts.WithDefaults()

	h := &HybridWatcher{
		opts:      opts,
		logger:    opts.Logger,
		debouncer: NewDebouncer(opts.DebounceWindow, opts.Logger),
		events:    make(chan []FileEvent, opts.EventBufferSize),
		errors:    make(chan error, 10),
		stopCh:    make(chan struct{}),
	}

	if !opts.ForcePolling {
		fsw, err := fsnotify.NewWatcher()
		if err == nil {
			h.fsWatcher = fsw
		} else {
			h.logger.Warn("watch_fsnotify_unavailable", slog.String("error", err.Error()))
		}
	}
	return h, nil
}

// Start watches root until ctx ends or Stop is called. It blocks.
func (h *HybridWatcher) Start(ctx context.Context, root string) error {
	abs, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolve absolute path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("watch %s: %w", root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("watch %s: not a directory", root)
	}

	h.mu.Lock()
	h.filter = &filter{root: abs, guard: h.opts.Guard}
	if h.fsWatcher == nil {
		h.pollWatcher = newPollingWatcher(h.opts.PollInterval, h.filter, h.logger)
	}
	h.mu.Unlock()

	go h.forward(ctx)

	if h.fsWatcher != nil {
		return h.runFsnotify(ctx)
	}
	return h.runPolling(ctx)
}

func (h *HybridWatcher) runFsnotify(ctx context.Context) error {
	if err := h.addTree(h.filter.root); err != nil {
		return fmt.Errorf("add directories to watcher: %w", err)
	}
	h.logger.Info("watch_started", slog.String("root", h.filter.root), slog.String("mode", h.Mode()))

	for {
		select {
		case <-ctx.Done():
			_ = h.Stop()
			return ctx.Err()
		case <-h.stopCh:
			return nil
		case event, ok := <-h.fsWatcher.Events:
			if !ok {
				return nil
			}
			h.handleFsnotify(event)
		case err, ok := <-h.fsWatcher.Errors:
			if !ok {
				return nil
			}
			h.emitError(err)
		}
	}
}

func (h *HybridWatcher) runPolling(ctx context.Context) error {
	go func() {
		for {
			select {
			case <-h.stopCh:
				return
			case event, ok := <-h.pollWatcher.Events():
				if !ok {
					return
				}
				h.debouncer.Add(event)
			case err, ok := <-h.pollWatcher.Errors():
				if !ok {
					return
				}
				h.emitError(err)
			}
		}
	}()

	h.logger.Info("watch_started", slog.String("root", h.filter.root), slog.String("mode", h.Mode()))
	return h.pollWatcher.Start(ctx)
}

// handleFsnotify maps an fsnotify event and feeds it to the debouncer.
func (h *HybridWatcher) handleFsnotify(event fsnotify.Event) {
	var op Operation
	switch {
	case event.Op&fsnotify.Create != 0:
		op = OpCreate
	case event.Op&fsnotify.Write != 0:
		op = OpModify
	case event.Op&fsnotify.Remove != 0:
		op = OpDelete
	case event.Op&fsnotify.Rename != 0:
		op = OpRename
	default:
		return
	}

	isDir := false
	if info, err := os.Stat(event.Name); err == nil {
		isDir = info.IsDir()
	}

	op, ok := h.filter.relevant(event.Name, isDir, op)
	if !ok {
		return
	}
	if isDir && op == OpCreate {
		// New subtrees need their own watches; files copied in with them
		// were never reported, so the index run picks them up instead.
		if err := h.addTree(event.Name); err != nil {
			h.emitError(err)
		}
	}

	h.debouncer.Add(FileEvent{
		Path:      h.filter.rel(event.Name),
		Operation: op,
		IsDir:     isDir,
		Timestamp: time.Now(),
	})
}

// addTree watches dir and every allowed directory below it.
func (h *HybridWatcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if !h.filter.descend(path) {
			return filepath.SkipDir
		}
		if err := h.fsWatcher.Add(path); err != nil {
			h.logger.Debug("watch_add_failed", slog.String("path", path), slog.String("error", err.Error()))
		}
		return nil
	})
}

func (h *HybridWatcher) forward(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-h.stopCh:
			return
		case batch, ok := <-h.debouncer.Output():
			if !ok {
				return
			}
			h.emitBatch(batch)
		}
	}
}

func (h *HybridWatcher) emitBatch(batch []FileEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.stopped {
		return
	}
	select {
	case h.events <- batch:
	default:
		n := h.droppedBatches.Add(1)
		h.logger.Warn("watch_batch_dropped",
			slog.Int("batch_size", len(batch)),
			slog.Uint64("total_dropped_batches", n))
	}
}

func (h *HybridWatcher) emitError(err error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.stopped {
		return
	}
	select {
	case h.errors <- err:
	default:
	}
}

// Stop releases the watcher and closes Events and Errors. Safe to call
// more than once.
func (h *HybridWatcher) Stop() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopped {
		return nil
	}
	h.stopped = true
	close(h.stopCh)
	h.debouncer.Stop()
	if h.fsWatcher != nil {
		_ = h.fsWatcher.Close()
	}
	if h.pollWatcher != nil {
		_ = h.pollWatcher.Stop()
	}
	close(h.events)
	close(h.errors)
	return nil
}

// Events returns debounced batches.
func (h *HybridWatcher) Events() <-chan []FileEvent {
	return h.events
}

// Errors returns non-fatal watch errors.
func (h *HybridWatcher) Errors() <-chan error {
	return h.errors
}

// DroppedBatches counts batches lost to a full Events buffer.
func (h *HybridWatcher) DroppedBatches() uint64 {
	return h.droppedBatches.Load()
}

// Mode returns "fsnotify" or "polling".
func (h *HybridWatcher) Mode() string {
	if h.fsWatcher != nil {
		return "fsnotify"
	}
	return "polling"
}
