package ui

import (
	"context"
	"time"

	"github.com/Aman-CERP/docfinder/internal/async"
)

// Follow polls snapshot every interval and forwards changes to r until
// done is closed or ctx ends. The final snapshot is always forwarded.
func Follow(ctx context.Context, r Renderer, snapshot func() async.IndexProgressSnapshot, done <-chan struct{}, interval time.Duration) {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last ProgressEvent
	forward := func() {
		ev := eventOf(snapshot())
		if ev != last {
			r.UpdateProgress(ev)
			last = ev
		}
	}

	forward()
	for {
		select {
		case <-done:
			forward()
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			forward()
		}
	}
}

func eventOf(s async.IndexProgressSnapshot) ProgressEvent {
	return ProgressEvent{
		Stage:       StageOf(s.Stage),
		Current:     s.FilesProcessed,
		Total:       s.FilesTotal,
		CurrentFile: s.CurrentFile,
		Skipped:     s.FilesSkipped,
		Failed:      s.FilesFailed,
		Chunks:      s.ChunksIndexed,
	}
}
