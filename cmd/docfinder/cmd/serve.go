package cmd

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/docfinder/internal/mcp"
)

func newServeCmd() *cobra.Command {
	var (
		folder  string
		offline bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start an MCP server over stdio",
		Long: `Start a Model Context Protocol server on stdin/stdout exposing the
index_folder, search and index_status tools.

Stdout carries JSON-RPC only; logs go to the log file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			root, err := resolveFolder(nil, folder)
			if err != nil {
				return err
			}
			f, err := openFinder(ctx, root, offline)
			if err != nil {
				return err
			}
			defer func() { _ = f.Close() }()

			server, err := mcp.NewServer(f, mcp.WithLogger(slog.Default()))
			if err != nil {
				return err
			}
			return server.Serve(ctx)
		},
	}

	cmd.Flags().StringVar(&folder, "folder", "", "Folder to serve (default: current directory)")
	cmd.Flags().BoolVar(&offline, "offline", false, "Use the built-in static embeddings instead of Ollama")

	return cmd
}
