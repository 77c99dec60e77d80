package stimulus

import "strings"

// Role is how the harness drives an input
type Role int

const (
	// Data inputs receive scheduled test vectors.
	Data Role = iota
	// Clock inputs toggle forever.
	Clock
	// Reset inputs start asserted and are released once.
	Reset
)

func (r Role) String() string {
	switch r {
	case Clock:
		return "clock"
	case Reset:
		return "reset"
	}
	return "data"
}

// Classifier assigns a Role to an input by name. Clock patterns take
// precedence over reset patterns.
type Classifier struct {
	ClockPatterns []string
	ResetPatterns []string
}

// DefaultClassifier matches the usual clock and reset spellings
func DefaultClassifier() Classifier {
	return Classifier{
		ClockPatterns: []string{"clk", "clock"},
		ResetPatterns: []string{"rst", "reset", "res_n", "resn"},
	}
}

// Classify returns the role of the named input
func (c Classifier) Classify(name string) Role {
	lower := strings.ToLower(name)
	if containsAny(lower, c.ClockPatterns) {
		return Clock
	}
	if containsAny(lower, c.ResetPatterns) {
		return Reset
	}
	return Data
}

// ActiveLow reports whether a reset name denotes an active-low reset
func ActiveLow(name string) bool {
	lower := strings.ToLower(name)
	for _, suffix := range []string{"_n", "_b", "_l", "_ni", "_bar", "rstn", "resetn", "resn", "rstb", "resetb"} {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}

func containsAny(s string, patterns []string) bool {
	for _, p := range patterns {
		if p != "" && strings.Contains(s, strings.ToLower(p)) {
			return true
		}
	}
	return false
}
