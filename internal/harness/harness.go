// Package harness assembles the generated testbench: declarations mirroring
// the ports of the module under test, its instantiation, and the stimulus,
// monitor and control fragments in that order.
package harness

import (
	"bytes"
	_ "embed"
	"fmt"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/robert-at-pretension-io/sv-tbgen/internal/design"
	"github.com/robert-at-pretension-io/sv-tbgen/internal/ident"
)

//go:embed testbench.sv.tmpl
var testbenchTemplate string

var tmpl = template.Must(template.New("testbench").Parse(testbenchTemplate))

// Fragment is a rendered block of harness statements
type Fragment interface {
	Render() string
}

// Options control naming and the header of the harness
type Options struct {
	Timescale string
	// Suffix is appended to the module name to name the harness.
	Suffix string
	// Instance names the module instance inside the harness. Empty means
	// InstancePrefix followed by the module name.
	Instance string
	// Tool is credited in the header comment.
	Tool string
}

// InstancePrefix starts the derived instance name, as in u_counter
const InstancePrefix = "u_"

// DefaultOptions returns the conventional `<module>_tb` / `u_<module>` naming
func DefaultOptions() Options {
	return Options{
		Timescale: "1ns / 1ps",
		Suffix:    "_tb",
		Tool:      "sv-tbgen",
	}
}

// Parts are the synthesized fragments placed after the instantiation
type Parts struct {
	Stimulus Fragment
	Monitor  Fragment
	Control  Fragment
}

type declaration struct {
	Storage string
	Signed  bool
	Range   string
	Name    string
}

type binding struct {
	Port  string
	Local string
	Last  bool
}

type override struct {
	Name string
	Last bool
}

type view struct {
	Source     string
	Tool       string
	Timescale  string
	Harness    string
	Module     string
	Instance   string
	Parameters []design.Parameter
	Overrides  []override
	Decls      []declaration
	Bindings   []binding
	Stimulus   string
	Monitor    string
	Checks     string
	Control    string
}

// Name returns the harness module name for mod. It never equals the
// module name or an identifier declared inside the harness.
func Name(mod design.Module, opts Options, keywords ident.KeywordSet) string {
	if opts.Suffix == "" {
		opts.Suffix = DefaultOptions().Suffix
	}
	taken := declared(mod)
	taken[mod.Name] = true
	return unique(keywords.Sanitize(mod.Name+opts.Suffix), taken)
}

// InstanceName returns the name of the instance of mod inside the harness.
// It never collides with a port or parameter declared in the harness.
func InstanceName(mod design.Module, opts Options, keywords ident.KeywordSet) string {
	name := opts.Instance
	if name == "" {
		name = InstancePrefix + mod.Name
	}
	return unique(keywords.Sanitize(name), declared(mod))
}

// declared returns the identifiers the harness declares in its own scope
func declared(mod design.Module) map[string]bool {
	taken := make(map[string]bool, len(mod.Ports)+len(mod.Parameters))
	for _, p := range mod.Ports {
		taken[p.Name] = true
	}
	for _, p := range mod.Parameters {
		taken[p.Name] = true
	}
	return taken
}

// unique returns name, or name with the first free numeric suffix
func unique(name string, taken map[string]bool) string {
	if !taken[name] {
		return name
	}
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s_%d", name, i)
		if !taken[candidate] {
			return candidate
		}
	}
}

// Assemble renders the complete harness for mod. Every bound port has a
// local declaration of the same range; module and instance names come from
// mod and opts only.
func Assemble(mod design.Module, parts Parts, opts Options, keywords ident.KeywordSet) (string, error) {
	if len(mod.Ports) == 0 {
		return "", fmt.Errorf("module %s has no ports", mod.Name)
	}
	if parts.Stimulus == nil || parts.Monitor == nil || parts.Control == nil {
		return "", fmt.Errorf("assembling %s: stimulus, monitor and control are all required", mod.Name)
	}
	def := DefaultOptions()
	if opts.Suffix == "" {
		opts.Suffix = def.Suffix
	}
	if opts.Timescale == "" {
		opts.Timescale = def.Timescale
	}
	if opts.Tool == "" {
		opts.Tool = def.Tool
	}

	v := view{
		Source:     filepath.Base(mod.File),
		Tool:       opts.Tool,
		Timescale:  opts.Timescale,
		Harness:    Name(mod, opts, keywords),
		Module:     mod.Name,
		Instance:   InstanceName(mod, opts, keywords),
		Parameters: mod.Parameters,
		Stimulus:   parts.Stimulus.Render(),
		Monitor:    parts.Monitor.Render(),
		Control:    parts.Control.Render(),
	}
	if mod.File == "" {
		v.Source = ""
	}

	for _, p := range mod.Parameters {
		if p.Overridable() {
			v.Overrides = append(v.Overrides, override{Name: p.Name})
		}
	}
	if n := len(v.Overrides); n > 0 {
		v.Overrides[n-1].Last = true
	}
	v.Checks = parameterChecks(mod.Parameters, v.Instance)

	for i, p := range mod.Ports {
		storage := "wire"
		if p.Driven() {
			storage = "reg"
		}
		port := p.DeclaredName
		if port == "" {
			port = p.Name
		}
		v.Decls = append(v.Decls, declaration{Storage: storage, Signed: p.Signed, Range: p.Range, Name: p.Name})
		v.Bindings = append(v.Bindings, binding{Port: port, Local: p.Name, Last: i == len(mod.Ports)-1})
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, v); err != nil {
		return "", fmt.Errorf("rendering harness for %s: %w", mod.Name, err)
	}
	return buf.String(), nil
}

// parameterChecks asserts that the instance was elaborated with the
// parameter values found in the source. Unit-scope parameters are not
// visible through the instance and are skipped.
func parameterChecks(params []design.Parameter, instance string) string {
	var onInstance []design.Parameter
	for _, p := range params {
		if p.OnInstance() {
			onInstance = append(onInstance, p)
		}
	}
	if len(onInstance) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("  // Parameter checks\n")
	b.WriteString("  initial begin\n")
	for _, p := range onInstance {
		fmt.Fprintf(&b, "    assert (%s.%s == %s) else $fatal(1, \"%s assertion failed\");\n", instance, p.Name, p.Name, p.Name)
	}
	b.WriteString("  end")
	return b.String()
}
