package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/robert-at-pretension-io/sv-tbgen/internal/ident"
)

// Config is the top-level configuration for sv-tbgen
type Config struct {
	// Timescale is written after `timescale, e.g. "1ns / 1ps"
	Timescale string `json:"timescale,omitempty" yaml:"timescale,omitempty"`

	// Harness controls naming of the generated module
	Harness HarnessConfig `json:"harness,omitempty" yaml:"harness,omitempty"`

	// Stimulus contains the stimulus timing and value policy
	Stimulus StimulusConfig `json:"stimulus,omitempty" yaml:"stimulus,omitempty"`

	// Control contains the finish directive settings
	Control ControlConfig `json:"control,omitempty" yaml:"control,omitempty"`

	// Keywords adds reserved words on top of the SystemVerilog set
	Keywords []string `json:"keywords,omitempty" yaml:"keywords,omitempty"`

	// Lint contains harness check configuration
	Lint LintConfig `json:"lint,omitempty" yaml:"lint,omitempty"`
}

// HarnessConfig names the harness and the instance inside it
type HarnessConfig struct {
	// Suffix is appended to the module name, e.g. "_tb"
	Suffix string `json:"suffix,omitempty" yaml:"suffix,omitempty"`

	// Instance is the instance name of the module under test. Empty derives
	// it from the module name, e.g. u_counter
	Instance string `json:"instance,omitempty" yaml:"instance,omitempty"`

	// OutputName is the file name used when no output path is given
	OutputName string `json:"outputName,omitempty" yaml:"outputName,omitempty"`
}

// StimulusConfig contains the fixed stimulus constants, in time units
type StimulusConfig struct {
	ClockHalfPeriod  int `json:"clockHalfPeriod,omitempty" yaml:"clockHalfPeriod,omitempty"`
	ResetDelay       int `json:"resetDelay,omitempty" yaml:"resetDelay,omitempty"`
	VectorStart      int `json:"vectorStart,omitempty" yaml:"vectorStart,omitempty"`
	VectorStep       int `json:"vectorStep,omitempty" yaml:"vectorStep,omitempty"`
	VectorsPerSignal int `json:"vectorsPerSignal,omitempty" yaml:"vectorsPerSignal,omitempty"`

	// Mode is "random" (seeded) or "vectors"
	Mode string `json:"mode,omitempty" yaml:"mode,omitempty"`

	// Seed seeds the random mode
	Seed *uint64 `json:"seed,omitempty" yaml:"seed,omitempty"`

	// Entropy replaces Seed with a time-based seed
	Entropy bool `json:"entropy,omitempty" yaml:"entropy,omitempty"`

	// ClockPatterns and ResetPatterns are case-insensitive name substrings
	ClockPatterns []string `json:"clockPatterns,omitempty" yaml:"clockPatterns,omitempty"`
	ResetPatterns []string `json:"resetPatterns,omitempty" yaml:"resetPatterns,omitempty"`
}

// ControlConfig contains the simulation horizon
type ControlConfig struct {
	// Horizon is the $finish time; raised past the last stimulus event
	Horizon int `json:"horizon,omitempty" yaml:"horizon,omitempty"`
}

// LintConfig contains harness check configuration
type LintConfig struct {
	// Rules maps rule names to severity: "off", "info", "warning", "error"
	Rules map[string]string `json:"rules,omitempty" yaml:"rules,omitempty"`

	// PolicyDir holds additional .rego files
	PolicyDir string `json:"policyDir,omitempty" yaml:"policyDir,omitempty"`
}

const (
	defaultTimescale  = "1ns / 1ps"
	defaultSuffix     = "_tb"
	defaultOutputName = "generated_testbench.sv"
	defaultMode       = "random"
	defaultHorizon    = 200
)

// DefaultConfig returns a sensible default configuration
func DefaultConfig() *Config {
	return &Config{
		Timescale: defaultTimescale,
		Harness: HarnessConfig{
			Suffix:     defaultSuffix,
			OutputName: defaultOutputName,
		},
		Stimulus: StimulusConfig{
			ClockHalfPeriod:  5,
			ResetDelay:       10,
			VectorStart:      20,
			VectorStep:       10,
			VectorsPerSignal: 2,
			Mode:             defaultMode,
			Seed:             uint64Ptr(1),
			ClockPatterns:    []string{"clk", "clock"},
			ResetPatterns:    []string{"rst", "reset", "res_n", "resn"},
		},
		Control: ControlConfig{
			Horizon: defaultHorizon,
		},
		Keywords: []string{},
		Lint: LintConfig{
			Rules: map[string]string{},
		},
	}
}

func uint64Ptr(v uint64) *uint64 {
	return &v
}

// Load finds and loads the configuration file
// Search order:
//  1. ./sv_tbgen.json, ./.sv_tbgen.json, ./sv_tbgen.yaml (current working directory)
//  2. the same names next to inputPath (if in a different directory)
//  3. ~/.config/sv_tbgen/config.json
//
// Returns DefaultConfig if no config file is found
func Load(inputPath string) (*Config, error) {
	cwd, _ := os.Getwd()

	var searchPaths []string
	searchPaths = append(searchPaths, candidates(cwd)...)

	if inputPath != "" {
		dir := filepath.Dir(inputPath)
		if absDir, err := filepath.Abs(dir); err == nil && absDir != cwd {
			searchPaths = append(searchPaths, candidates(dir)...)
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		searchPaths = append(searchPaths, filepath.Join(home, ".config", "sv_tbgen", "config.json"))
	}

	for _, path := range searchPaths {
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}

	return DefaultConfig(), nil
}

func candidates(dir string) []string {
	return []string{
		filepath.Join(dir, "sv_tbgen.json"),
		filepath.Join(dir, ".sv_tbgen.json"),
		filepath.Join(dir, "sv_tbgen.yaml"),
		filepath.Join(dir, ".sv_tbgen.yaml"),
	}
}

// LoadFile loads configuration from a specific file. Files ending in .yaml
// or .yml are read as YAML, everything else as JSON.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if isYAML(path) {
		err = yaml.Unmarshal(data, &cfg)
	} else {
		err = json.Unmarshal(data, &cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return &cfg, nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// applyDefaults fills in missing configuration with defaults
func (c *Config) applyDefaults() {
	def := DefaultConfig()

	if c.Timescale == "" {
		c.Timescale = def.Timescale
	}
	if c.Harness.Suffix == "" {
		c.Harness.Suffix = def.Harness.Suffix
	}
	if c.Harness.OutputName == "" {
		c.Harness.OutputName = def.Harness.OutputName
	}

	s := &c.Stimulus
	if s.ClockHalfPeriod == 0 {
		s.ClockHalfPeriod = def.Stimulus.ClockHalfPeriod
	}
	if s.ResetDelay == 0 {
		s.ResetDelay = def.Stimulus.ResetDelay
	}
	if s.VectorStart == 0 {
		s.VectorStart = def.Stimulus.VectorStart
	}
	if s.VectorStep == 0 {
		s.VectorStep = def.Stimulus.VectorStep
	}
	if s.VectorsPerSignal == 0 {
		s.VectorsPerSignal = def.Stimulus.VectorsPerSignal
	}
	if s.Mode == "" {
		s.Mode = def.Stimulus.Mode
	}
	if s.Seed == nil {
		s.Seed = def.Stimulus.Seed
	}
	if len(s.ClockPatterns) == 0 {
		s.ClockPatterns = def.Stimulus.ClockPatterns
	}
	if len(s.ResetPatterns) == 0 {
		s.ResetPatterns = def.Stimulus.ResetPatterns
	}

	if c.Control.Horizon == 0 {
		c.Control.Horizon = def.Control.Horizon
	}
	if c.Keywords == nil {
		c.Keywords = []string{}
	}
	if c.Lint.Rules == nil {
		c.Lint.Rules = make(map[string]string)
	}
}

// Validate rejects values the generator cannot honour
func (c *Config) Validate() error {
	s := c.Stimulus
	for name, v := range map[string]int{
		"stimulus.clockHalfPeriod":  s.ClockHalfPeriod,
		"stimulus.resetDelay":       s.ResetDelay,
		"stimulus.vectorStart":      s.VectorStart,
		"stimulus.vectorStep":       s.VectorStep,
		"stimulus.vectorsPerSignal": s.VectorsPerSignal,
		"control.horizon":           c.Control.Horizon,
	} {
		if v < 0 {
			return fmt.Errorf("%s must not be negative, got %d", name, v)
		}
	}
	switch s.Mode {
	case "random", "vectors":
	default:
		return fmt.Errorf("stimulus.mode must be \"random\" or \"vectors\", got %q", s.Mode)
	}
	for _, kw := range c.Keywords {
		// A reserved word ending in the suffix would make renaming unstable:
		// "data" -> "data_sig" -> "data_sig_sig".
		if kw == "" || strings.HasSuffix(kw, ident.Suffix) {
			return fmt.Errorf("keywords: %q is not allowed (empty or ending in %q)", kw, ident.Suffix)
		}
	}
	for rule, severity := range c.Lint.Rules {
		switch severity {
		case "off", "info", "warning", "error":
		default:
			return fmt.Errorf("lint rule %s: unknown severity %q", rule, severity)
		}
	}
	return nil
}

// Save writes the configuration to a file, as YAML when the path ends in
// .yaml or .yml
func (c *Config) Save(path string) error {
	var data []byte
	var err error
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// GetRuleSeverity returns the severity for a rule, or the default if not configured
func (c *Config) GetRuleSeverity(rule string, defaultSeverity string) string {
	if severity, ok := c.Lint.Rules[rule]; ok {
		return severity
	}
	return defaultSeverity
}

// IsRuleEnabled returns true if the rule is not set to "off"
func (c *Config) IsRuleEnabled(rule string) bool {
	if severity, ok := c.Lint.Rules[rule]; ok {
		return severity != "off"
	}
	return true // enabled by default
}
