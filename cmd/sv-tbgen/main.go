// =============================================================================
// sv-tbgen - Testbench Generator
// =============================================================================
//
// Reads a Verilog/SystemVerilog file holding one module and writes a
// testbench that instantiates it, drives its inputs, monitors every port and
// finishes after a fixed simulation time.
//
// THE PIPELINE:
//   1. Extractor recovers the module name, parameters and ANSI port list
//   2. CUE Validator enforces the module contract
//   3. Stimulus, monitor and control fragments are synthesized
//   4. OPA evaluates the harness checks (horizon, skipped ports, ...)
//   5. The assembler renders <module>_tb and the file is written
//
// WHEN A PORT IS MISSING FROM THE HARNESS:
//   Look for a "skipping port entry" warning first. Entries without a
//   direction keyword (non-ANSI headers, shared-direction lists) are skipped.
// =============================================================================

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/robert-at-pretension-io/sv-tbgen/internal/config"
	"github.com/robert-at-pretension-io/sv-tbgen/internal/extractor"
	"github.com/robert-at-pretension-io/sv-tbgen/internal/generator"
)

var version = "0.1.0-dev"

// cliOptions holds the flags shared by every command
type cliOptions struct {
	configPath string
	verbose    bool
	logger     *zap.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		var perr *extractor.ParseError
		if errors.As(err, &perr) {
			fmt.Fprintln(os.Stderr, "No harness was written.")
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &cliOptions{}
	var outputPath string
	var timingPath string
	var random bool
	var seed uint64

	rootCmd := &cobra.Command{
		Use:   "sv-tbgen <input.sv>",
		Short: "Generate a SystemVerilog testbench for a module",
		Long: `sv-tbgen reads a file containing one Verilog/SystemVerilog module and
writes a testbench that instantiates it, drives its inputs, monitors every
port and finishes the simulation after a fixed horizon.

The harness is written to generated_testbench.sv next to the input unless
--output is given.`,
		Version:       version,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.logger != nil {
				return nil
			}
			zapCfg := zap.NewProductionConfig()
			zapCfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
			if opts.verbose {
				zapCfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			var err error
			opts.logger, err = zapCfg.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.logger != nil {
				_ = opts.logger.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig(args[0])
			if err != nil {
				return err
			}
			if random {
				cfg.Stimulus.Entropy = true
			}
			if cmd.Flags().Changed("seed") {
				cfg.Stimulus.Seed = &seed
				cfg.Stimulus.Entropy = false
			}

			gen, err := generator.New(cfg, opts.logger)
			if err != nil {
				return err
			}
			report, err := gen.Generate(cmd.Context(), generator.Options{
				InputPath:  args[0],
				OutputPath: outputPath,
				TimingPath: timingPath,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Testbench for %s generated and saved to: %s\n", report.Module.Name, report.OutputPath)
			if report.Degraded() {
				fmt.Fprintf(out, "Warning: %d port entries skipped; the harness covers %d ports\n",
					len(report.Skipped), len(report.Module.Ports))
				for _, s := range report.Skipped {
					fmt.Fprintf(out, "  %s:%d: %s (%s)\n", args[0], s.Line, s.Entry, s.Reason)
				}
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Config file (JSON or YAML)")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the harness to this file")
	rootCmd.Flags().StringVar(&timingPath, "timing", "", "Append per-stage timings to this JSONL file")
	rootCmd.Flags().BoolVar(&random, "random", false, "Seed stimulus values from the clock")
	rootCmd.Flags().Uint64Var(&seed, "seed", 1, "Seed for random stimulus values")

	rootCmd.AddCommand(
		newInitCmd(),
		newPortsCmd(opts),
		newCheckCmd(opts),
	)
	return rootCmd
}

// loadConfig loads the --config file, or searches the default locations.
// A file that is found but invalid is an error, never a silent default.
func (o *cliOptions) loadConfig(inputPath string) (*config.Config, error) {
	if o.configPath != "" {
		cfg, err := config.LoadFile(o.configPath)
		if err != nil {
			return nil, fmt.Errorf("loading config %s: %w", o.configPath, err)
		}
		return cfg, nil
	}
	cfg, err := config.Load(inputPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}
