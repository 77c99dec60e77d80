package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/robert-at-pretension-io/sv-tbgen/internal/config"
)

func newInitCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Create a sv_tbgen.json configuration file",
		Long: `Writes the default configuration. The file format follows the extension:
.yaml/.yml for YAML, anything else for JSON.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath := "sv_tbgen.json"
			if len(args) == 1 {
				configPath = args[0]
			}

			if _, err := os.Stat(configPath); err == nil && !force {
				return fmt.Errorf("config file %s already exists (use --force to overwrite)", configPath)
			}

			cfg := config.DefaultConfig()
			if err := cfg.Save(configPath); err != nil {
				return fmt.Errorf("creating config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Created %s\n", configPath)
			fmt.Fprintln(out, "\nEdit this file to configure:")
			fmt.Fprintln(out, "  - Stimulus timing and value mode")
			fmt.Fprintln(out, "  - Clock and reset name patterns")
			fmt.Fprintln(out, "  - Harness naming and simulation horizon")
			fmt.Fprintln(out, "  - Check severities")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file")
	return cmd
}
