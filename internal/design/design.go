// Package design holds the structural model shared by the extractor and
// every synthesizer downstream of it.
package design

import "fmt"

// Direction is the port direction keyword
type Direction string

const (
	Input  Direction = "input"
	Output Direction = "output"
	Inout  Direction = "inout"
)

// ParseDirection maps a direction keyword to a Direction
func ParseDirection(word string) (Direction, bool) {
	switch Direction(word) {
	case Input, Output, Inout:
		return Direction(word), true
	}
	return "", false
}

// Kind is the storage semantics of a signal
type Kind string

const (
	// Net is a two-state net ("wire", "tri" or no keyword)
	Net Kind = "wire"
	// Register is stateful storage ("reg", "logic")
	Register Kind = "reg"
)

// Signal is one port of a module
type Signal struct {
	// Name is the sanitized identifier used inside the harness.
	Name string `json:"name" yaml:"name"`
	// DeclaredName is the port name as written in the source. It is the
	// name used when binding the instance.
	DeclaredName string `json:"declared_name" yaml:"declared_name"`

	Direction Direction `json:"direction" yaml:"direction"`
	Kind      Kind      `json:"kind" yaml:"kind"`
	Width     int       `json:"width" yaml:"width"`
	Signed    bool      `json:"signed,omitempty" yaml:"signed,omitempty"`

	// Range is the bit range exactly as written, e.g. "[7:0]". Empty for
	// scalar ports.
	Range string `json:"range,omitempty" yaml:"range,omitempty"`

	// Resolved is false when Range has non-literal bounds. Width is 1 in
	// that case.
	Resolved bool `json:"resolved" yaml:"resolved"`

	Line int `json:"line" yaml:"line"`
}

// IsVector reports whether the signal is declared with a bit range
func (s Signal) IsVector() bool {
	return s.Range != ""
}

// Driven reports whether the harness drives the signal
func (s Signal) Driven() bool {
	return s.Direction == Input
}

// Scope tells where a parameter was declared
type Scope string

const (
	// ModuleScope parameters belong to the module header.
	ModuleScope Scope = "module"
	// UnitScope parameters precede the module keyword and live in the
	// compilation unit. The instance does not know them.
	UnitScope Scope = "unit"
)

// Parameter is a parameter with its literal value
type Parameter struct {
	Name  string `json:"name" yaml:"name"`
	Value string `json:"value" yaml:"value"`
	// Local parameters cannot be overridden at instantiation.
	Local bool  `json:"local,omitempty" yaml:"local,omitempty"`
	Scope Scope `json:"scope" yaml:"scope"`
	Line  int   `json:"line" yaml:"line"`
}

// Overridable reports whether the parameter can be set on the instance
func (p Parameter) Overridable() bool {
	return p.Scope != UnitScope && !p.Local
}

// OnInstance reports whether the instance carries the parameter
func (p Parameter) OnInstance() bool {
	return p.Scope != UnitScope
}

// Module is the parsed design unit. Ports keep declaration order.
type Module struct {
	Name       string      `json:"name" yaml:"name"`
	File       string      `json:"file,omitempty" yaml:"file,omitempty"`
	Ports      []Signal    `json:"ports" yaml:"ports"`
	Parameters []Parameter `json:"parameters" yaml:"parameters"`
}

// Inputs returns the input ports in declaration order
func (m Module) Inputs() []Signal {
	var out []Signal
	for _, p := range m.Ports {
		if p.Driven() {
			out = append(out, p)
		}
	}
	return out
}

// Port looks up a port by name
func (m Module) Port(name string) (Signal, bool) {
	for _, p := range m.Ports {
		if p.Name == name {
			return p, true
		}
	}
	return Signal{}, false
}

// Parameter looks up a parameter value by name
func (m Module) Parameter(name string) (string, bool) {
	for _, p := range m.Parameters {
		if p.Name == name {
			return p.Value, true
		}
	}
	return "", false
}

func (s Signal) String() string {
	if s.Range == "" {
		return fmt.Sprintf("%s %s %s", s.Direction, s.Kind, s.Name)
	}
	return fmt.Sprintf("%s %s %s %s", s.Direction, s.Kind, s.Range, s.Name)
}
