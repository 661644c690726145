package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/docfinder/internal/index"
	"github.com/Aman-CERP/docfinder/internal/ui"
	"github.com/Aman-CERP/docfinder/pkg/docfinder"
)

type indexOptions struct {
	reset   bool
	noTUI   bool
	offline bool
}

func newIndexCmd() *cobra.Command {
	var opts indexOptions

	cmd := &cobra.Command{
		Use:   "index [folder]",
		Short: "Index a folder of documents",
		Long: `Index the PDF, DOCX and TXT files under a folder.

Indexing is incremental: unchanged documents are skipped and deleted ones
are dropped from the index. Press Ctrl+C to stop; documents finished so
far stay indexed and the next run picks up the rest.`,
		Example: `  docfinder index ~/Documents
  docfinder index . --no-tui
  docfinder index ~/Papers --reset --offline`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			folder, err := resolveFolder(args, "")
			if err != nil {
				return err
			}
			return runIndex(ctx, cmd, folder, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.reset, "reset", false, "Clear the index and rebuild it from scratch")
	cmd.Flags().BoolVar(&opts.noTUI, "no-tui", false, "Disable TUI mode, use plain text output")
	cmd.Flags().BoolVar(&opts.offline, "offline", false, "Use the built-in static embeddings instead of Ollama")

	return cmd
}

func runIndex(ctx context.Context, cmd *cobra.Command, folder string, opts indexOptions) error {
	f, err := openFinder(ctx, folder, opts.offline)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	if opts.reset {
		if err := f.Reset(ctx); err != nil {
			return fmt.Errorf("failed to reset index: %w", err)
		}
		slog.Info("index_reset", slog.String("data_dir", f.DataDir()))
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	renderer := ui.NewRenderer(ui.NewConfig(cmd.OutOrStdout(),
		ui.WithForcePlain(opts.noTUI),
		ui.WithFolder(folder),
		ui.WithInterrupt(cancel),
	))
	if err := renderer.Start(ctx); err != nil {
		slog.Warn("failed to start progress renderer", slog.String("error", err.Error()))
	}
	defer func() { _ = renderer.Stop() }()

	run, err := f.StartIndexing(runCtx, folder)
	if err != nil {
		return err
	}
	ui.Follow(ctx, renderer, run.Progress, run.Done(), 100*time.Millisecond)

	report, runErr := run.Wait()
	cancelled := errors.Is(runErr, context.Canceled)
	if runErr != nil && !cancelled {
		return runErr
	}
	if report == nil {
		return runErr
	}

	reportToRenderer(renderer, report, cancelled, modelName(ctx, f))
	return nil
}

// reportToRenderer sends failures and the summary of a finished run.
func reportToRenderer(r ui.Renderer, report *index.Report, cancelled bool, model string) {
	for _, fail := range report.Failed {
		r.AddError(ui.ErrorEvent{File: fail.Path, Kind: fail.Kind, Err: errors.New(fail.Reason)})
	}
	r.Complete(ui.CompletionStats{
		Indexed:   report.Indexed,
		Skipped:   report.Skipped,
		Removed:   report.Removed,
		Failed:    len(report.Failed),
		Chunks:    report.Chunks,
		Duration:  report.Duration,
		Cancelled: cancelled,
		Model:     model,
	})
}

func modelName(ctx context.Context, f *docfinder.Finder) string {
	st, err := f.Status(ctx)
	if err != nil {
		return ""
	}
	return st.Store.Model
}
