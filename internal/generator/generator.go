// Package generator runs the whole pipeline: source text to module, module
// to stimulus, monitor and control fragments, fragments to harness text.
package generator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/robert-at-pretension-io/sv-tbgen/internal/config"
	"github.com/robert-at-pretension-io/sv-tbgen/internal/control"
	"github.com/robert-at-pretension-io/sv-tbgen/internal/design"
	"github.com/robert-at-pretension-io/sv-tbgen/internal/extractor"
	"github.com/robert-at-pretension-io/sv-tbgen/internal/harness"
	"github.com/robert-at-pretension-io/sv-tbgen/internal/ident"
	"github.com/robert-at-pretension-io/sv-tbgen/internal/monitor"
	"github.com/robert-at-pretension-io/sv-tbgen/internal/policy"
	"github.com/robert-at-pretension-io/sv-tbgen/internal/stimulus"
	"github.com/robert-at-pretension-io/sv-tbgen/internal/validator"
)

// Options locate the source and the generated harness. An empty
// OutputPath selects the configured file name next to the input.
type Options struct {
	InputPath  string
	OutputPath string

	// TimingPath appends per-stage timings as JSON lines. Empty falls back
	// to $SV_TBGEN_TIMING_JSONL, then to no timing output.
	TimingPath string
}

// Report describes one generation run
type Report struct {
	InputPath  string                            `json:"input"`
	OutputPath string                            `json:"output,omitempty"`
	Module     design.Module                     `json:"module"`
	Skipped    []extractor.UnrecognizedPortError `json:"skipped,omitempty"`
	Plan       stimulus.Plan                     `json:"plan"`
	Horizon    int                               `json:"horizon"`
	Seed       uint64                            `json:"seed"`
	Checks     *policy.Result                    `json:"checks,omitempty"`
}

// Degraded reports whether the harness was built from a reduced port list
func (r *Report) Degraded() bool {
	return r != nil && len(r.Skipped) > 0
}

// Generator holds the configured pipeline stages
type Generator struct {
	cfg       *config.Config
	keywords  ident.KeywordSet
	extractor *extractor.Extractor
	validator *validator.Validator
	checks    *policy.Engine
	logger    *zap.Logger
	now       func() time.Time
}

// New builds a Generator. A nil cfg means config.DefaultConfig and a nil
// logger discards output.
func New(cfg *config.Config, logger *zap.Logger) (*Generator, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	keywords := ident.SystemVerilog().With(cfg.Keywords...)

	v, err := validator.New()
	if err != nil {
		return nil, fmt.Errorf("creating validator: %w", err)
	}
	engine, err := policy.New(cfg.Lint.PolicyDir)
	if err != nil {
		return nil, fmt.Errorf("loading harness checks: %w", err)
	}

	return &Generator{
		cfg:       cfg,
		keywords:  keywords,
		extractor: extractor.New(keywords, logger),
		validator: v,
		checks:    engine,
		logger:    logger,
		now:       time.Now,
	}, nil
}

// Generate reads the source, builds the harness and writes it. Nothing is
// written when extraction or a check fails.
func Generate(ctx context.Context, opts Options) (string, error) {
	g, err := New(nil, nil)
	if err != nil {
		return "", err
	}
	report, err := g.Generate(ctx, opts)
	if err != nil {
		return "", err
	}
	return report.OutputPath, nil
}

// Generate reads opts.InputPath, builds the harness and writes it to the
// output path
func (g *Generator) Generate(ctx context.Context, opts Options) (*Report, error) {
	runStart := g.now()
	timing := newTimingRecorder(runStart, resolveTimingPath(opts.TimingPath))
	if err := timing.Err(); err != nil {
		g.logger.Warn("timing output disabled", zap.Error(err))
	}
	defer timing.Close()

	report, err := g.generate(ctx, opts, timing)
	timing.stage("total", opts.InputPath, status(err), runStart)
	return report, err
}

func (g *Generator) generate(ctx context.Context, opts Options, timing *timingRecorder) (*Report, error) {
	start := time.Now()
	source, err := g.read(opts.InputPath)
	timing.stage("read", opts.InputPath, status(err), start)
	if err != nil {
		return nil, err
	}

	outputPath := g.cfg.OutputPath(opts.InputPath, opts.OutputPath)
	if config.SamePath(outputPath, opts.InputPath) {
		return nil, &IOError{Op: "write", Path: outputPath, Err: errors.New("output would overwrite the input")}
	}

	text, report, err := g.build(ctx, opts.InputPath, source, timing)
	if err != nil {
		return report, err
	}

	start = time.Now()
	err = os.WriteFile(outputPath, []byte(text), 0644)
	timing.stage("write", outputPath, status(err), start)
	if err != nil {
		return report, &IOError{Op: "write", Path: outputPath, Err: err}
	}
	report.OutputPath = outputPath

	g.logger.Info("harness written",
		zap.String("module", report.Module.Name),
		zap.String("output", outputPath),
		zap.Int("ports", len(report.Module.Ports)),
		zap.Bool("degraded", report.Degraded()))
	return report, nil
}

// Check runs the pipeline on opts.InputPath without writing anything
func (g *Generator) Check(ctx context.Context, inputPath string) (*Report, error) {
	source, err := g.read(inputPath)
	if err != nil {
		return nil, err
	}
	_, report, err := g.Build(ctx, inputPath, source)
	return report, err
}

// Extract reads inputPath and returns its validated module
func (g *Generator) Extract(inputPath string) (extractor.Result, error) {
	source, err := g.read(inputPath)
	if err != nil {
		return extractor.Result{}, err
	}
	res, err := g.extractor.Extract(inputPath, source)
	if err != nil {
		return res, err
	}
	if err := g.validator.ValidateModule(res.Module); err != nil {
		return res, err
	}
	return res, nil
}

// Build turns source text into harness text. file names the source in
// messages and in the harness header.
func (g *Generator) Build(ctx context.Context, file string, source []byte) (string, *Report, error) {
	return g.build(ctx, file, source, nil)
}

func (g *Generator) build(ctx context.Context, file string, source []byte, timing *timingRecorder) (string, *Report, error) {
	start := time.Now()
	res, err := g.extractor.Extract(file, source)
	extractStatus := status(err)
	if res.Degraded() {
		extractStatus = "degraded"
	}
	timing.stage("extract", file, extractStatus, start)
	if err != nil {
		return "", nil, err
	}
	mod := res.Module

	start = time.Now()
	err = g.validator.ValidateModule(mod)
	timing.stage("validate", file, status(err), start)
	if err != nil {
		return "", nil, err
	}

	report := &Report{InputPath: file, Module: mod, Skipped: res.Skipped}

	start = time.Now()
	opts := g.stimulusOptions()
	report.Seed = opts.Seed
	plan := stimulus.Synthesize(mod.Ports, opts)
	mon := monitor.Synthesize(mod.Ports)
	ctl := control.Synthesize(g.cfg.Control.Horizon, plan.LastOffset())
	report.Plan = plan
	report.Horizon = ctl.Horizon
	timing.stage("synthesize", file, "ok", start)

	start = time.Now()
	checks, err := g.runChecks(ctx, mod, res.Skipped, plan, ctl)
	if err == nil && checks.HasErrors() {
		err = &CheckError{Violations: checks.Violations}
	}
	timing.stage("checks", file, status(err), start)
	report.Checks = checks
	if checks != nil {
		for _, v := range checks.Violations {
			g.logger.Debug("harness check",
				zap.String("rule", v.Rule),
				zap.String("severity", v.Severity),
				zap.String("message", v.Message))
		}
	}
	if err != nil {
		return "", report, err
	}

	start = time.Now()
	text, err := harness.Assemble(mod, harness.Parts{
		Stimulus: plan,
		Monitor:  mon,
		Control:  ctl,
	}, g.harnessOptions(), g.keywords)
	timing.stage("assemble", file, status(err), start)
	if err != nil {
		return "", report, err
	}
	return text, report, nil
}

func (g *Generator) runChecks(ctx context.Context, mod design.Module, skipped []extractor.UnrecognizedPortError, plan stimulus.Plan, ctl control.Directive) (*policy.Result, error) {
	input := policy.Input{
		Module:  mod,
		Horizon: ctl.Horizon,
		Plan: policy.Plan{
			Clocks:    make([]string, 0, len(plan.Clocks)),
			Resets:    append([]string{}, plan.Resets...),
			Events:    len(plan.Events),
			LastEvent: plan.LastOffset(),
		},
		Skipped: make([]policy.SkippedEntry, 0, len(skipped)),
	}
	for _, c := range plan.Clocks {
		input.Plan.Clocks = append(input.Plan.Clocks, c.Signal)
	}
	for _, s := range skipped {
		input.Skipped = append(input.Skipped, policy.SkippedEntry{Entry: s.Entry, Line: s.Line, Reason: s.Reason})
	}

	if err := g.validator.ValidateCheckInput(input); err != nil {
		return nil, fmt.Errorf("check input: %w", err)
	}
	result, err := g.checks.Evaluate(ctx, input)
	if err != nil {
		return nil, err
	}
	result.Apply(g.cfg.GetRuleSeverity)
	return result, nil
}

func (g *Generator) stimulusOptions() stimulus.Options {
	s := g.cfg.Stimulus
	opts := stimulus.Options{
		ClockHalfPeriod:  s.ClockHalfPeriod,
		ResetDelay:       s.ResetDelay,
		VectorStart:      s.VectorStart,
		VectorStep:       s.VectorStep,
		VectorsPerSignal: s.VectorsPerSignal,
		Mode:             stimulus.Mode(s.Mode),
		Seed:             1,
		Classifier: stimulus.Classifier{
			ClockPatterns: s.ClockPatterns,
			ResetPatterns: s.ResetPatterns,
		},
	}
	if s.Seed != nil {
		opts.Seed = *s.Seed
	}
	if s.Entropy {
		opts.Seed = uint64(g.now().UnixNano())
		g.logger.Info("seeding stimulus from the clock", zap.Uint64("seed", opts.Seed))
	}
	return opts
}

func (g *Generator) harnessOptions() harness.Options {
	opts := harness.DefaultOptions()
	opts.Timescale = g.cfg.Timescale
	opts.Suffix = g.cfg.Harness.Suffix
	opts.Instance = g.cfg.Harness.Instance
	return opts
}

func (g *Generator) read(path string) ([]byte, error) {
	if !config.IsSourceFile(path) {
		g.logger.Warn("input does not have a Verilog extension", zap.String("input", path))
	}
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, &IOError{Op: "read", Path: path, Err: err}
	}
	return source, nil
}
