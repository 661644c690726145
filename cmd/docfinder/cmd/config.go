package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Aman-CERP/docfinder/configs"
	"github.com/Aman-CERP/docfinder/internal/config"
	"github.com/Aman-CERP/docfinder/internal/output"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long: `Manage docfinder configuration.

Configuration precedence (lowest to highest):
  1. Hardcoded defaults
  2. User config (~/.config/docfinder/config.yaml)
  3. Folder config (.docfinder.yaml, .docfinder.yml or .docfinder.toml)
  4. Environment variables (DOCFINDER_*)`,
		Example: `  # Write a commented folder config
  docfinder config init --folder ~/Documents

  # Show the effective configuration for a folder
  docfinder config show --folder ~/Documents`,
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigPathCmd())

	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var (
		folder string
		user   bool
		force  bool
		full   bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a commented configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := output.New(cmd.OutOrStdout())

			path := config.GetUserConfigPath()
			if !user {
				root, err := resolveFolder(nil, folder)
				if err != nil {
					return err
				}
				path = filepath.Join(root, ".docfinder.yaml")
			}

			if _, err := os.Stat(path); err == nil && !force {
				out.Warningf("Configuration already exists at %s", path)
				out.Status("", "Use --force to overwrite it")
				return nil
			}
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return fmt.Errorf("failed to create config directory: %w", err)
			}
			if full {
				if err := config.NewConfig().WriteYAML(path); err != nil {
					return err
				}
			} else {
				template := configs.FolderConfigTemplate
				if user {
					template = configs.UserConfigTemplate
				}
				if err := os.WriteFile(path, []byte(template), 0o644); err != nil {
					return fmt.Errorf("failed to write config: %w", err)
				}
			}
			out.Successf("Wrote %s", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&folder, "folder", "", "Folder to configure (default: current directory)")
	cmd.Flags().BoolVar(&user, "user", false, "Write the user configuration instead of a folder one")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	cmd.Flags().BoolVar(&full, "full", false, "Write every setting with its default value instead of the template")

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	var (
		folder     string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			root, err := resolveFolder(nil, folder)
			if err != nil {
				return err
			}
			cfg, err := config.Load(root)
			if err != nil {
				return err
			}

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(cfg)
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			defer func() { _ = enc.Close() }()
			return enc.Encode(cfg)
		},
	}

	cmd.Flags().StringVar(&folder, "folder", "", "Folder whose configuration to show (default: current directory)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the user config file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), config.GetUserConfigPath())
			return err
		},
	}
}
