// Package monitor builds the $monitor statement that reports every port of
// the module under test.
package monitor

import (
	"fmt"
	"strings"

	"github.com/robert-at-pretension-io/sv-tbgen/internal/design"
)

// TimeArg is the argument paired with the leading time field
const TimeArg = "$time"

// Field is one "<label> = <verb>" entry of the format string
type Field struct {
	Label string `json:"label"`
	Verb  string `json:"verb"`
	Arg   string `json:"arg"`
}

// Statement is a $monitor call. Fields[i] is printed from Args()[i+1].
type Statement struct {
	Prefix string  `json:"prefix"`
	Fields []Field `json:"fields"`
}

// Synthesize returns a statement observing ports in declaration order
func Synthesize(ports []design.Signal) Statement {
	st := Statement{Prefix: "At time %0t:"}
	for _, p := range ports {
		verb := "%b"
		if p.IsVector() {
			verb = "%h"
		}
		st.Fields = append(st.Fields, Field{Label: p.Name, Verb: verb, Arg: p.Name})
	}
	return st
}

// Format returns the format string
func (s Statement) Format() string {
	parts := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		parts[i] = fmt.Sprintf("%s = %s", f.Label, f.Verb)
	}
	if len(parts) == 0 {
		return s.Prefix
	}
	return s.Prefix + " " + strings.Join(parts, ", ")
}

// Args returns the argument list: the time followed by one signal per field
func (s Statement) Args() []string {
	args := make([]string, 0, len(s.Fields)+1)
	args = append(args, TimeArg)
	for _, f := range s.Fields {
		args = append(args, f.Arg)
	}
	return args
}

// Render returns the statement wrapped in an initial block
func (s Statement) Render() string {
	var b strings.Builder
	b.WriteString("  // Monitor changes\n")
	b.WriteString("  initial begin\n")
	fmt.Fprintf(&b, "    $monitor(%q,\n", s.Format())
	fmt.Fprintf(&b, "             %s);\n", strings.Join(s.Args(), ", "))
	b.WriteString("  end\n")
	return b.String()
}
