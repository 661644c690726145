package cmd

import (
	"encoding/json"
	"errors"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/docfinder/internal/config"
	"github.com/Aman-CERP/docfinder/internal/preflight"
)

func newDoctorCmd() *cobra.Command {
	var (
		folder     string
		offline    bool
		verbose    bool
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "doctor [folder]",
		Short: "Check that docfinder can index a folder",
		Long: `Run system checks before indexing: the data directory is writable, there
is free disk space, pdftotext is installed and the embedding backend
answers. Exits non-zero when a required check fails.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := resolveFolder(args, folder)
			if err != nil {
				return err
			}
			cfg, loadErr := config.Load(root)
			if loadErr != nil {
				cfg = config.NewConfig()
			}
			dataDir := dataDirFlag
			if dataDir == "" {
				dataDir = cfg.DataDirFor(root)
			}
			if abs, err := filepath.Abs(dataDir); err == nil {
				dataDir = abs
			}

			checker := preflight.New(
				preflight.WithOffline(offline),
				preflight.WithVerbose(verbose),
				preflight.WithOutput(cmd.OutOrStdout()),
			)
			results := checker.RunAll(cmd.Context(), preflight.Target{
				Folder:    root,
				DataDir:   dataDir,
				Config:    cfg,
				ConfigErr: loadErr,
			})

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(map[string]any{
					"status": checker.SummaryStatus(results),
					"checks": results,
				}); err != nil {
					return err
				}
			} else {
				checker.PrintResults(results)
			}

			if checker.HasCriticalFailures(results) {
				return errors.New("system check failed")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&folder, "folder", "", "Folder to check (default: current directory)")
	cmd.Flags().BoolVar(&offline, "offline", false, "Skip the embedding backend check")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show details for passing checks")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}
