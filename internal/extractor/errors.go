package extractor

import "fmt"

// ParseError aborts extraction. It points at the region of the source that
// could not be parsed.
type ParseError struct {
	File   string
	Line   int
	Column int
	Region string
	Reason string
}

func (e *ParseError) Error() string {
	loc := e.File
	if loc == "" {
		loc = "<input>"
	}
	if e.Line > 0 {
		loc = fmt.Sprintf("%s:%d:%d", loc, e.Line, e.Column)
	}
	if e.Region != "" {
		return fmt.Sprintf("%s: %s near %q", loc, e.Reason, e.Region)
	}
	return fmt.Sprintf("%s: %s", loc, e.Reason)
}

// UnrecognizedPortError describes a port-list entry that was skipped.
// Extraction continues without it.
type UnrecognizedPortError struct {
	Entry  string `json:"entry" yaml:"entry"`
	Line   int    `json:"line" yaml:"line"`
	Reason string `json:"reason" yaml:"reason"`
}

func (e UnrecognizedPortError) Error() string {
	return fmt.Sprintf("line %d: skipped port entry %q: %s", e.Line, e.Entry, e.Reason)
}
