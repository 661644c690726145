package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sync"
	"time"
)

// PollingWatcher detects changes by walking the folder on an interval.
// It is the fallback when fsnotify cannot be used.
type PollingWatcher struct {
	interval time.Duration
	filter   *filter
	logger   *slog.Logger

	mu       sync.Mutex
	snapshot map[string]fileSnapshot
	events   chan FileEvent
	errors   chan error
	stopCh   chan struct{}
	stopped  bool
}

type fileSnapshot struct {
	modTime time.Time
	size    int64
	isDir   bool
}

func newPollingWatcher(interval time.Duration, f *filter, logger *slog.Logger) *PollingWatcher {
	return &PollingWatcher{
		interval: interval,
		filter:   f,
		logger:   logger,
		snapshot: make(map[string]fileSnapshot),
		events:   make(chan FileEvent, 256),
		errors:   make(chan error, 10),
		stopCh:   make(chan struct{}),
	}
}

// Start records a baseline and then polls until ctx ends or Stop is
// called.
func (p *PollingWatcher) Start(ctx context.Context) error {
	baseline, err := p.walk()
	if err != nil {
		return fmt.Errorf("initial scan: %w", err)
	}
	p.mu.Lock()
	p.snapshot = baseline
	p.mu.Unlock()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			_ = p.Stop()
			return ctx.Err()
		case <-p.stopCh:
			return nil
		case <-ticker.C:
			if err := p.poll(); err != nil {
				select {
				case p.errors <- err:
				default:
				}
			}
		}
	}
}

// walk snapshots every relevant entry under the root.
func (p *PollingWatcher) walk() (map[string]fileSnapshot, error) {
	current := make(map[string]fileSnapshot)
	err := filepath.WalkDir(p.filter.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == p.filter.root {
				return err
			}
			return nil
		}
		if d.IsDir() && !p.filter.descend(path) {
			return filepath.SkipDir
		}
		if _, ok := p.filter.relevant(path, d.IsDir(), OpModify); !ok {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		current[path] = fileSnapshot{modTime: info.ModTime(), size: info.Size(), isDir: d.IsDir()}
		return nil
	})
	return current, err
}

// poll diffs a fresh walk against the last snapshot.
func (p *PollingWatcher) poll() error {
	current, err := p.walk()
	if err != nil {
		return fmt.Errorf("poll %s: %w", p.filter.root, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	for path, snap := range current {
		prev, existed := p.snapshot[path]
		switch {
		case !existed:
			p.emit(path, snap.isDir, OpCreate, now)
		case !snap.isDir && (prev.modTime != snap.modTime || prev.size != snap.size):
			p.emit(path, false, OpModify, now)
		}
	}
	for path, snap := range p.snapshot {
		if _, ok := current[path]; !ok {
			p.emit(path, snap.isDir, OpDelete, now)
		}
	}
	p.snapshot = current
	return nil
}

// emit must be called with p.mu held.
func (p *PollingWatcher) emit(abs string, isDir bool, op Operation, at time.Time) {
	if p.stopped {
		return
	}
	op, _ = p.filter.relevant(abs, isDir, op)
	event := FileEvent{Path: p.filter.rel(abs), Operation: op, IsDir: isDir, Timestamp: at}
	select {
	case p.events <- event:
	default:
		p.logger.Warn("watch_event_dropped", slog.String("path", event.Path), slog.String("op", op.String()))
	}
}

// Stop ends polling and closes the channels. Safe to call more than once.
func (p *PollingWatcher) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return nil
	}
	p.stopped = true
	close(p.stopCh)
	close(p.events)
	close(p.errors)
	return nil
}

// Events returns raw, undebounced events.
func (p *PollingWatcher) Events() <-chan FileEvent {
	return p.events
}

// Errors returns non-fatal poll errors.
func (p *PollingWatcher) Errors() <-chan error {
	return p.errors
}
