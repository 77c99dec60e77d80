package generator

import (
	"fmt"
	"strings"

	"github.com/robert-at-pretension-io/sv-tbgen/internal/policy"
)

// IOError reports an unreadable input or an unwritable output
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// CheckError is returned when a harness check fails with error severity
type CheckError struct {
	Violations []policy.Violation
}

func (e *CheckError) Error() string {
	var msgs []string
	for _, v := range e.Violations {
		if v.Severity == policy.SeverityError {
			msgs = append(msgs, fmt.Sprintf("%s: %s", v.Rule, v.Message))
		}
	}
	return "harness checks failed: " + strings.Join(msgs, "; ")
}
