package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/robert-at-pretension-io/sv-tbgen/internal/generator"
)

func newCheckCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check <input.sv>",
		Short: "Run the harness checks without writing a harness",
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

			report, err := gen.Check(cmd.Context(), args[0])
			var checkErr *generator.CheckError
			if err != nil && !errors.As(err, &checkErr) {
				return err
			}

			out := cmd.OutOrStdout()
			if report != nil && report.Checks != nil {
				for _, v := range report.Checks.Violations {
					if v.Line > 0 {
						fmt.Fprintf(out, "%s:%d: %s: [%s] %s\n", args[0], v.Line, v.Severity, v.Rule, v.Message)
					} else {
						fmt.Fprintf(out, "%s: %s: [%s] %s\n", args[0], v.Severity, v.Rule, v.Message)
					}
				}
				s := report.Checks.Summary
				fmt.Fprintf(out, "\n%d issue(s): %d error(s), %d warning(s), %d info\n",
					s.TotalViolations, s.Errors, s.Warnings, s.Info)
			}
			return err
		},
	}
}
