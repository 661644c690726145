package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/docfinder/internal/output"
	"github.com/Aman-CERP/docfinder/internal/search"
)

type searchOptions struct {
	limit       int
	folder      string
	granularity string
	format      string
	scopes      []string
	explain     bool
	offline     bool
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search indexed documents",
		Long: `Search the indexed documents by meaning.

Results are ranked by embedding similarity, with a boost when the query
appears literally in the file name or the matching passage.`,
		Example: `  docfinder search "quarterly budget meeting"
  docfinder search "lease agreement" --folder ~/Documents -n 5
  docfinder search "travel" --granularity chunk --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd.Context(), cmd, strings.Join(args, " "), opts)
		},
	}

	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 0, "Maximum number of results (default: search.top_k)")
	cmd.Flags().StringVar(&opts.folder, "folder", "", "Indexed folder (default: current directory)")
	cmd.Flags().StringVar(&opts.granularity, "granularity", "", "Result granularity: document or chunk (default: search.granularity)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")
	cmd.Flags().StringSliceVarP(&opts.scopes, "scope", "s", nil, "Only return documents under this folder (repeatable)")
	cmd.Flags().BoolVar(&opts.explain, "explain", false, "Show similarity and boost for each result")
	cmd.Flags().BoolVar(&opts.offline, "offline", false, "Use the built-in static embeddings instead of Ollama")

	return cmd
}

func runSearch(ctx context.Context, cmd *cobra.Command, query string, opts searchOptions) error {
	format, err := output.ParseFormat(opts.format)
	if err != nil {
		return err
	}
	granularity := search.Granularity(opts.granularity)
	switch granularity {
	case "", search.GranularityDocument, search.GranularityChunk:
	default:
		return fmt.Errorf("unknown granularity %q (want document or chunk)", opts.granularity)
	}

	folder, err := resolveFolder(nil, opts.folder)
	if err != nil {
		return err
	}
	f, err := openFinder(ctx, folder, opts.offline)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	st, err := f.Status(ctx)
	if err != nil {
		return err
	}
	out := output.New(cmd.OutOrStdout())
	if st.Store.Documents == 0 {
		output.New(cmd.ErrOrStderr()).Warningf("No documents indexed in %s. Run 'docfinder index %s' first.", folder, folder)
		return out.Results(query, nil, format, output.ResultsOptions{})
	}

	slog.Info("search_started", slog.String("query", query), slog.Int("limit", opts.limit))
	results, err := f.SearchWithOptions(ctx, query, search.Options{
		TopK:        opts.limit,
		Granularity: granularity,
		Scopes:      opts.scopes,
	})
	if err != nil {
		return err
	}
	slog.Info("search_complete", slog.Int("results", len(results)))

	effective := granularity
	if effective == "" {
		effective = search.Granularity(f.Config().Search.Granularity)
	}
	return out.Results(query, results, format, output.ResultsOptions{
		Explain: opts.explain,
		Chunk:   effective == search.GranularityChunk,
	})
}
