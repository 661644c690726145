package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Aman-CERP/docfinder/internal/ui"
	"github.com/Aman-CERP/docfinder/pkg/docfinder"
)

func newStatusCmd() *cobra.Command {
	var (
		folder     string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show index statistics",
		Long: `Show how many documents are indexed, which embedding model built the
index, and whether the last run finished.

Status never contacts the embedding backend.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			root, err := resolveFolder(nil, folder)
			if err != nil {
				return err
			}
			f, err := openFinder(ctx, root, false)
			if err != nil {
				return err
			}
			defer func() { _ = f.Close() }()

			st, err := f.Status(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			r := ui.NewStatusRenderer(out, !ui.IsTTY(out) || ui.DetectNoColor())
			if jsonOutput {
				return r.RenderJSON(statusInfo(st))
			}
			return r.Render(statusInfo(st))
		},
	}

	cmd.Flags().StringVar(&folder, "folder", "", "Indexed folder (default: current directory)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func statusInfo(st *docfinder.Status) ui.StatusInfo {
	info := ui.StatusInfo{
		Folder:        st.Root,
		DataDir:       st.DataDir,
		Documents:     st.Store.Documents,
		Chunks:        st.Store.Chunks,
		Model:         st.Store.Model,
		Dimensions:    st.Store.Dimensions,
		SizeBytes:     st.Store.SizeBytes,
		ANN:           st.Store.ANN,
		Recovered:     st.Recovered,
		IncompleteRun: st.IncompleteRun,
	}
	if st.Active != nil {
		info.Active = &ui.ActiveInfo{
			Stage:          st.Active.Stage,
			FilesProcessed: st.Active.FilesProcessed,
			FilesTotal:     st.Active.FilesTotal,
		}
	}
	return info
}
