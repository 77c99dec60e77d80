package main

import (
	"encoding/json"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/robert-at-pretension-io/sv-tbgen/internal/design"
	"github.com/robert-at-pretension-io/sv-tbgen/internal/extractor"
	"github.com/robert-at-pretension-io/sv-tbgen/internal/generator"
)

// portsOutput is the document printed by the ports command
type portsOutput struct {
	Module  design.Module                     `json:"module" yaml:"module"`
	Skipped []extractor.UnrecognizedPortError `json:"skipped,omitempty" yaml:"skipped,omitempty"`
}

func newPortsCmd(opts *cliOptions) *cobra.Command {
	var asYAML bool
	cmd := &cobra.Command{
		Use:   "ports <input.sv>",
		Short: "Print the extracted module as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig(args[0])
			if err != nil {
				return err
			}
			gen, err := generator.New(cfg, opts.logger)
			if err != nil {
				return err
			}
			res, err := gen.Extract(args[0])
			if err != nil {
				return err
			}

			doc := portsOutput{Module: res.Module, Skipped: res.Skipped}
			if asYAML {
				enc := yaml.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent(2)
				defer func() { _ = enc.Close() }()
				return enc.Encode(doc)
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(doc)
		},
	}
	cmd.Flags().BoolVar(&asYAML, "yaml", false, "Print YAML instead of JSON")
	return cmd
}
