package policy

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/open-policy-agent/opa/rego"

	"github.com/robert-at-pretension-io/sv-tbgen/internal/design"
)

//go:embed harness.rego
var builtinPolicy string

const violationsQuery = "data.tbgen.checks.violations"

// Severities, most severe first
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
	SeverityInfo    = "info"
	SeverityOff     = "off"
)

// Engine evaluates Rego checks against an extracted module and its plan
type Engine struct {
	query rego.PreparedEvalQuery
}

// Violation is one finding of a check
type Violation struct {
	Rule     string `json:"rule" yaml:"rule"`
	Severity string `json:"severity" yaml:"severity"`
	Signal   string `json:"signal,omitempty" yaml:"signal,omitempty"`
	Line     int    `json:"line,omitempty" yaml:"line,omitempty"`
	Message  string `json:"message" yaml:"message"`
}

// Result contains the evaluation results
type Result struct {
	Violations []Violation `json:"violations"`
	Summary    Summary     `json:"summary"`
}

// Summary provides aggregate counts
type Summary struct {
	TotalViolations int `json:"total_violations"`
	Errors          int `json:"errors"`
	Warnings        int `json:"warnings"`
	Info            int `json:"info"`
}

// Input is the data structure passed to OPA
type Input struct {
	Module  design.Module  `json:"module"`
	Plan    Plan           `json:"plan"`
	Horizon int            `json:"horizon"`
	Skipped []SkippedEntry `json:"skipped"`
}

// Plan summarises the stimulus plan
type Plan struct {
	Clocks    []string `json:"clocks"`
	Resets    []string `json:"resets"`
	Events    int      `json:"events"`
	LastEvent int      `json:"last_event"`
}

// SkippedEntry is a port-list entry the extractor could not use
type SkippedEntry struct {
	Entry  string `json:"entry"`
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// normalized replaces nil lists, which the checks would see as null
func (in Input) normalized() Input {
	if in.Module.Ports == nil {
		in.Module.Ports = []design.Signal{}
	}
	if in.Module.Parameters == nil {
		in.Module.Parameters = []design.Parameter{}
	}
	if in.Plan.Clocks == nil {
		in.Plan.Clocks = []string{}
	}
	if in.Plan.Resets == nil {
		in.Plan.Resets = []string{}
	}
	if in.Skipped == nil {
		in.Skipped = []SkippedEntry{}
	}
	return in
}

// New creates an engine from the built-in checks plus every .rego file in
// policyDir. An empty policyDir loads only the built-in checks.
func New(policyDir string) (*Engine, error) {
	modules := []func(*rego.Rego){rego.Module("harness.rego", builtinPolicy)}

	if policyDir != "" {
		files, err := filepath.Glob(filepath.Join(policyDir, "*.rego"))
		if err != nil {
			return nil, fmt.Errorf("finding policy files: %w", err)
		}
		if len(files) == 0 {
			return nil, fmt.Errorf("no policy files found in %s", policyDir)
		}
		for _, f := range files {
			content, err := os.ReadFile(f)
			if err != nil {
				return nil, fmt.Errorf("reading %s: %w", f, err)
			}
			modules = append(modules, rego.Module(f, string(content)))
		}
	}

	opts := append(modules, rego.Query(violationsQuery))
	query, err := rego.New(opts...).PrepareForEval(context.Background())
	if err != nil {
		return nil, fmt.Errorf("preparing violations query: %w", err)
	}
	return &Engine{query: query}, nil
}

// Evaluate runs the checks against input. Violations are sorted by
// severity, line and rule.
func (e *Engine) Evaluate(ctx context.Context, input Input) (*Result, error) {
	inputMap, err := structToMap(input.normalized())
	if err != nil {
		return nil, fmt.Errorf("converting input: %w", err)
	}

	rs, err := e.query.Eval(ctx, rego.EvalInput(inputMap))
	if err != nil {
		return nil, fmt.Errorf("evaluating violations: %w", err)
	}

	result := &Result{}
	if len(rs) > 0 && len(rs[0].Expressions) > 0 {
		violations, ok := rs[0].Expressions[0].Value.([]interface{})
		if ok {
			for _, v := range violations {
				vmap, ok := v.(map[string]interface{})
				if !ok {
					continue
				}
				result.Violations = append(result.Violations, Violation{
					Rule:     getString(vmap, "rule"),
					Severity: getString(vmap, "severity"),
					Signal:   getString(vmap, "signal"),
					Line:     getInt(vmap, "line"),
					Message:  getString(vmap, "message"),
				})
			}
		}
	}
	result.sortAndCount()
	return result, nil
}

// SeverityFunc returns the effective severity of a rule given its default
type SeverityFunc func(rule, defaultSeverity string) string

// Apply rewrites severities with fn and drops rules turned off
func (r *Result) Apply(fn SeverityFunc) {
	if fn == nil {
		return
	}
	kept := r.Violations[:0]
	for _, v := range r.Violations {
		v.Severity = fn(v.Rule, v.Severity)
		if v.Severity == SeverityOff {
			continue
		}
		kept = append(kept, v)
	}
	r.Violations = kept
	r.sortAndCount()
}

// HasErrors reports whether any violation has error severity
func (r *Result) HasErrors() bool {
	return r != nil && r.Summary.Errors > 0
}

func (r *Result) sortAndCount() {
	sort.SliceStable(r.Violations, func(i, j int) bool {
		a, b := r.Violations[i], r.Violations[j]
		if rank(a.Severity) != rank(b.Severity) {
			return rank(a.Severity) < rank(b.Severity)
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		if a.Rule != b.Rule {
			return a.Rule < b.Rule
		}
		return a.Signal < b.Signal
	})
	r.Summary = Summary{TotalViolations: len(r.Violations)}
	for _, v := range r.Violations {
		switch v.Severity {
		case SeverityError:
			r.Summary.Errors++
		case SeverityWarning:
			r.Summary.Warnings++
		default:
			r.Summary.Info++
		}
	}
}

func rank(severity string) int {
	switch severity {
	case SeverityError:
		return 0
	case SeverityWarning:
		return 1
	}
	return 2
}

// Helper functions
func structToMap(v interface{}) (map[string]interface{}, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var result map[string]interface{}
	err = json.Unmarshal(data, &result)
	return result, err
}

func getString(m map[string]interface{}, key string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func getInt(m map[string]interface{}, key string) int {
	if v, ok := m[key]; ok {
		switch n := v.(type) {
		case int:
			return n
		case float64:
			return int(n)
		case json.Number:
			i, _ := n.Int64()
			return int(i)
		}
	}
	return 0
}
