package ui

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"
)

// PlainRenderer writes one line per update, without escape codes.
type PlainRenderer struct {
	mu     sync.Mutex
	out    io.Writer
	folder string
	last   ProgressEvent
}

// NewPlainRenderer creates a plain text renderer.
func NewPlainRenderer(cfg Config) *PlainRenderer {
	return &PlainRenderer{out: cfg.Output, folder: cfg.Folder}
}

// Start implements Renderer.
func (r *PlainRenderer) Start(context.Context) error {
	if r.folder != "" {
		_, _ = fmt.Fprintf(r.out, "Indexing %s\n", r.folder)
	}
	return nil
}

// UpdateProgress implements Renderer. Only changes of stage or file are
// printed.
func (r *PlainRenderer) UpdateProgress(ev ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if ev.Stage == r.last.Stage && ev.CurrentFile == r.last.CurrentFile && ev.Total == r.last.Total {
		r.last = ev
		return
	}
	r.last = ev

	switch {
	case ev.Total > 0 && ev.CurrentFile != "":
		_, _ = fmt.Fprintf(r.out, "[%s] %d/%d %s\n", ev.Stage.Icon(), ev.Current, ev.Total, ev.CurrentFile)
	case ev.Total > 0:
		_, _ = fmt.Fprintf(r.out, "[%s] %d/%d\n", ev.Stage.Icon(), ev.Current, ev.Total)
	case ev.CurrentFile != "":
		_, _ = fmt.Fprintf(r.out, "[%s] %s\n", ev.Stage.Icon(), ev.CurrentFile)
	}
}

// AddError implements Renderer.
func (r *PlainRenderer) AddError(ev ErrorEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ev.Kind != "" {
		_, _ = fmt.Fprintf(r.out, "FAILED: %s (%s): %v\n", ev.File, ev.Kind, ev.Err)
		return
	}
	_, _ = fmt.Fprintf(r.out, "FAILED: %s: %v\n", ev.File, ev.Err)
}

// Complete implements Renderer.
func (r *PlainRenderer) Complete(stats CompletionStats) {
	r.mu.Lock()
	defer r.mu.Unlock()

	verb := "Indexed"
	if stats.Cancelled {
		verb = "Cancelled after indexing"
	}
	_, _ = fmt.Fprintf(r.out, "%s %d files (%d chunks) in %s; %d unchanged, %d removed",
		verb, stats.Indexed, stats.Chunks, stats.Duration.Round(100*time.Millisecond), stats.Skipped, stats.Removed)
	if stats.Failed > 0 {
		_, _ = fmt.Fprintf(r.out, ", %d failed", stats.Failed)
	}
	_, _ = fmt.Fprintln(r.out)
	if stats.Model != "" {
		_, _ = fmt.Fprintf(r.out, "Model: %s\n", stats.Model)
	}
}

// Stop implements Renderer.
func (r *PlainRenderer) Stop() error {
	return nil
}

var _ Renderer = (*PlainRenderer)(nil)
