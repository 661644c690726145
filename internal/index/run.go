package index

import (
	"context"
	"sync"

	"github.com/Aman-CERP/docfinder/internal/async"
)

// Run is the handle of a background indexing run.
type Run struct {
	id   string
	root string
	bg   *async.BackgroundIndexer

	mu       sync.Mutex
	report   *Report
	callers  int  // attached callers whose contexts are still live
	stopping bool // no further callers may join
}

// ID returns the run's unique identifier.
func (r *Run) ID() string {
	return r.id
}

// Root returns the absolute folder being indexed.
func (r *Run) Root() string {
	return r.root
}

// Progress returns a snapshot of the run's progress.
func (r *Run) Progress() async.IndexProgressSnapshot {
	return r.bg.Progress().Snapshot()
}

// Cancel stops the run at the next file boundary and waits for it to
// finish. Files processed so far stay indexed.
func (r *Run) Cancel() {
	r.mu.Lock()
	r.stopping = true
	r.mu.Unlock()
	r.bg.Stop()
}

// Done is closed when the run ends.
func (r *Run) Done() <-chan struct{} {
	return r.bg.Done()
}

// Wait blocks until the run ends. The report is returned even for a
// cancelled run; it is nil only if the run never got started.
func (r *Run) Wait() (*Report, error) {
	err := r.bg.Wait()
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.report, err
}

func (r *Run) setReport(report *Report) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.report = report
}

// attach keeps the run alive for ctx. When the last attached context ends
// the run is cancelled. The returned detach does the same on demand and
// reports whether it was the last caller. A stopping run cannot be joined.
func (r *Run) attach(ctx context.Context) (detach func() bool, ok bool) {
	r.mu.Lock()
	if r.stopping {
		r.mu.Unlock()
		return nil, false
	}
	r.callers++
	r.mu.Unlock()

	var once sync.Once
	var last bool
	detach = func() bool {
		once.Do(func() {
			r.mu.Lock()
			r.callers--
			last = r.callers == 0
			if last {
				r.stopping = true
			}
			r.mu.Unlock()
			if last {
				r.bg.Stop()
			}
		})
		return last
	}

	go func() {
		select {
		case <-r.Done():
		case <-ctx.Done():
			detach()
		}
	}()
	return detach, true
}
