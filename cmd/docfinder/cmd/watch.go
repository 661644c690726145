package cmd

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/docfinder/internal/index"
	"github.com/Aman-CERP/docfinder/internal/output"
	"github.com/Aman-CERP/docfinder/internal/watcher"
)

type watchOptions struct {
	offline     bool
	poll        bool
	skipInitial bool
}

func newWatchCmd() *cobra.Command {
	var opts watchOptions

	cmd := &cobra.Command{
		Use:   "watch [folder]",
		Short: "Keep a folder's index up to date",
		Long: `Index a folder, then watch it and re-index whenever documents are added,
changed or removed. Bursts of changes are batched into one run.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			folder, err := resolveFolder(args, "")
			if err != nil {
				return err
			}
			return runWatch(ctx, cmd, folder, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.offline, "offline", false, "Use the built-in static embeddings instead of Ollama")
	cmd.Flags().BoolVar(&opts.poll, "poll", false, "Poll for changes instead of using filesystem notifications")
	cmd.Flags().BoolVar(&opts.skipInitial, "skip-initial", false, "Do not index before watching")

	return cmd
}

func runWatch(ctx context.Context, cmd *cobra.Command, folder string, opts watchOptions) error {
	f, err := openFinder(ctx, folder, opts.offline)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	out := output.New(cmd.OutOrStdout())

	if !opts.skipInitial {
		out.Statusf("", "Indexing %s", folder)
		report, err := f.IndexFolder(ctx, folder)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		printRunSummary(out, report)
	}

	hw, err := watcher.NewHybridWatcher(watcher.Options{
		DebounceWindow: f.Config().WatchDebounce(),
		Guard:          f.Guard(),
		ForcePolling:   opts.poll,
		Logger:         slog.Default(),
	})
	if err != nil {
		return err
	}

	reindexer := watcher.NewReindexer(func(ctx context.Context) error {
		report, err := f.IndexFolder(ctx, folder)
		if report != nil && (report.Indexed > 0 || report.Removed > 0 || len(report.Failed) > 0) {
			printRunSummary(out, report)
		}
		return err
	}, slog.Default())
	reindexer.OnConfigChange = func() {
		f.Guard().Forget(folder)
		out.Warning("Configuration changed; exclusion patterns reloaded. Restart 'docfinder watch' to apply other settings")
	}
	reindexer.OnRun = func(err error, _ time.Duration) {
		if err != nil && !errors.Is(err, context.Canceled) {
			out.Errorf("Re-index failed: %v", err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer func() { _ = hw.Stop() }()
		return hw.Start(gctx, folder)
	})
	g.Go(func() error {
		return reindexer.Run(gctx, hw.Events())
	})
	g.Go(func() error {
		for err := range hw.Errors() {
			slog.Warn("watch_error", slog.String("error", err.Error()))
		}
		return nil
	})

	out.Successf("Watching %s (%s). Press Ctrl+C to stop.", folder, hw.Mode())
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	if n := hw.DroppedBatches(); n > 0 {
		slog.Warn("watch_batches_dropped", slog.Uint64("count", n))
	}
	return nil
}

func printRunSummary(out *output.Writer, report *index.Report) {
	out.Successf("Indexed %d documents (%d chunks) in %s; %d unchanged, %d removed",
		report.Indexed, report.Chunks, report.Duration.Round(100*time.Millisecond), report.Skipped, report.Removed)
	for _, fail := range report.Failed {
		out.Warningf("%s (%s): %s", fail.Path, fail.Kind, fail.Reason)
	}
}
