package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Aman-CERP/docfinder/internal/config"
	"github.com/Aman-CERP/docfinder/pkg/docfinder"
)

// resolveFolder returns the absolute folder from args, defaulting to the
// working directory.
func resolveFolder(args []string, flag string) (string, error) {
	folder := flag
	if len(args) > 0 {
		folder = args[0]
	}
	if folder == "" {
		folder = "."
	}
	if folder == "~" || len(folder) > 1 && folder[:2] == "~/" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		folder = filepath.Join(home, folder[1:])
	}
	abs, err := filepath.Abs(folder)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("folder %s: %w", folder, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s is not a folder", folder)
	}
	return abs, nil
}

// openFinder loads folder's configuration, applies its log level and
// opens the index with the persistent flags applied.
func openFinder(ctx context.Context, folder string, offline bool) (*docfinder.Finder, error) {
	cfg, err := config.Load(folder)
	if err != nil {
		return nil, err
	}
	applyLogLevel(cfg.Logging.Level)

	return docfinder.Open(ctx, docfinder.Options{
		Root:    folder,
		DataDir: dataDirFlag,
		Config:  cfg,
		Offline: offline,
		Logger:  slog.Default(),
	})
}
