// Package watcher reports document changes under a folder and turns them
// into incremental index runs.
//
// fsnotify is used where it works; on file systems where it cannot be
// initialized (some network mounts and container volumes) the watcher
// falls back to periodic polling. Raw events are filtered through the
// same path guard the scanner uses, so hidden folders, ignored names and
// unsupported file types never trigger work. What survives is debounced
// into batches.
//
//	w, err := watcher.NewHybridWatcher(watcher.Options{Guard: guard})
//	if err != nil {
//	    return err
//	}
//	defer w.Stop()
//
//	go func() { _ = w.Start(ctx, root) }()
//	r := watcher.NewReindexer(func(ctx context.Context) error {
//	    _, err := finder.IndexFolder(ctx, root)
//	    return err
//	}, logger)
//	return r.Run(ctx, w.Events())
package watcher
