// Package control emits the directive that ends the simulation.
package control

import "fmt"

// DefaultHorizon is the finish time when nothing is scheduled after it
const DefaultHorizon = 200

// Directive finishes the simulation at Horizon
type Directive struct {
	Horizon int `json:"horizon"`
}

// Synthesize returns a directive firing at horizon, pushed past
// lastEvent when needed. The result always exceeds lastEvent, rounded up
// to the next multiple of ten.
func Synthesize(horizon, lastEvent int) Directive {
	if horizon <= 0 {
		horizon = DefaultHorizon
	}
	if horizon <= lastEvent {
		horizon = (lastEvent/10 + 1) * 10
	}
	return Directive{Horizon: horizon}
}

// After reports whether the directive fires strictly after t
func (d Directive) After(t int) bool {
	return d.Horizon > t
}

// Render returns the directive as an initial block
func (d Directive) Render() string {
	return fmt.Sprintf("  // Finish simulation\n  initial begin\n    #%d $finish;\n  end\n", d.Horizon)
}
