// Package cmd provides the CLI commands for docfinder.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	ferrors "github.com/Aman-CERP/docfinder/internal/errors"
	"github.com/Aman-CERP/docfinder/internal/logging"
	"github.com/Aman-CERP/docfinder/pkg/version"
)

// Persistent flags
var (
	debugMode      bool
	dataDirFlag    string
	loggingCleanup func()
)

// NewRootCmd creates the root command for the docfinder CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docfinder",
		Short: "Find local documents by meaning",
		Long: `docfinder indexes the PDF, DOCX and TXT files in a folder and lets you
search them by what they are about rather than by exact words.

Everything runs locally. Embeddings come from a local Ollama server, or
from a built-in static model with --offline.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("docfinder version {{.Version}}\n")

	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging (also mirrored to stderr)")
	cmd.PersistentFlags().StringVar(&dataDirFlag, "data-dir", "", "Index directory (default: <folder>/.docfinder)")

	cmd.PersistentPreRunE = startLogging
	cmd.PersistentPostRunE = stopLogging

	cmd.AddCommand(newIndexCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newWatchCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newDoctorCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// startLogging routes slog to the rotated log file.
func startLogging(_ *cobra.Command, _ []string) error {
	cfg := logging.DefaultConfig()
	if debugMode {
		cfg = logging.DebugConfig()
	}
	return setLogger(cfg)
}

func setLogger(cfg logging.Config) error {
	logger, cleanup, err := logging.Setup(cfg)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	if loggingCleanup != nil {
		loggingCleanup()
	}
	loggingCleanup = cleanup
	slog.SetDefault(logger)
	return nil
}

// applyLogLevel switches to the configured level unless --debug is set.
func applyLogLevel(level string) {
	if debugMode || level == "" || logging.ParseLevel(level) == slog.LevelInfo {
		return
	}
	cfg := logging.DefaultConfig()
	cfg.Level = level
	if err := setLogger(cfg); err != nil {
		slog.Warn("log_level_not_applied", slog.String("error", err.Error()))
	}
}

func stopLogging(_ *cobra.Command, _ []string) error {
	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
	return nil
}

// Execute runs the root command and prints errors with their hints.
func Execute() error {
	cmd := NewRootCmd()
	err := cmd.Execute()
	if err != nil {
		_, _ = fmt.Fprint(os.Stderr, ferrors.FormatForCLI(err))
		_ = stopLogging(cmd, nil)
	}
	return err
}
