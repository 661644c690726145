package watcher

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// TriggerFunc runs one incremental index pass over the watched folder.
type TriggerFunc func(ctx context.Context) error

// Reindexer turns batches of changes into index runs. At most one run is
// in flight; any batches that arrive during it schedule exactly one more,
// since an incremental run reconciles the whole folder anyway.
type Reindexer struct {
	trigger TriggerFunc
	logger  *slog.Logger

	// OnConfigChange is called when a batch includes a config file edit.
	OnConfigChange func()
	// OnRun is called after every run.
	OnRun func(err error, elapsed time.Duration)
}

// NewReindexer creates a Reindexer around trigger.
func NewReindexer(trigger TriggerFunc, logger *slog.Logger) *Reindexer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reindexer{trigger: trigger, logger: logger}
}

// Run consumes batches until ctx ends or batches is closed. A closed
// input still gets its pending run; either way Run waits for the run in
// flight before returning.
func (r *Reindexer) Run(ctx context.Context, batches <-chan []FileEvent) error {
	var (
		running bool
		pending bool
		started time.Time
		done    = make(chan error, 1)
	)
	start := func() {
		running, pending, started = true, false, time.Now()
		go func() { done <- r.trigger(ctx) }()
	}
	drain := func() {
		if running {
			r.finished(<-done, started)
		}
	}

	for {
		select {
		case <-ctx.Done():
			drain()
			return ctx.Err()

		case batch, ok := <-batches:
			if !ok {
				drain()
				if pending {
					start()
					drain()
				}
				return nil
			}
			if len(batch) == 0 {
				continue
			}
			r.logger.Info("watch_changes", slog.Int("events", len(batch)), slog.Bool("run_in_flight", running))
			if r.OnConfigChange != nil && hasConfigChange(batch) {
				r.OnConfigChange()
			}
			if running {
				pending = true
				continue
			}
			start()

		case err := <-done:
			running = false
			r.finished(err, started)
			if pending && ctx.Err() == nil {
				start()
			}
		}
	}
}

func (r *Reindexer) finished(err error, started time.Time) {
	elapsed := time.Since(started)
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled):
		r.logger.Info("watch_run_cancelled")
	default:
		r.logger.Error("watch_run_failed", slog.String("error", err.Error()))
	}
	if r.OnRun != nil {
		r.OnRun(err, elapsed)
	}
}

func hasConfigChange(batch []FileEvent) bool {
	for _, e := range batch {
		if e.Operation == OpConfigChange {
			return true
		}
	}
	return false
}
