// Package stimulus turns the input ports of a module into a timeline of
// drives: a free-running toggle per clock, one release per reset and a
// strictly increasing sequence of value changes for every other input.
package stimulus

import (
	"fmt"
	"strings"

	"github.com/robert-at-pretension-io/sv-tbgen/internal/design"
)

// Options are the fixed timing constants of the generated stimulus, in
// simulation time units
type Options struct {
	ClockHalfPeriod  int
	ResetDelay       int
	VectorStart      int
	VectorStep       int
	VectorsPerSignal int
	Mode             Mode
	Seed             uint64
	Classifier       Classifier
}

// DefaultOptions returns the deterministic defaults
func DefaultOptions() Options {
	return Options{
		ClockHalfPeriod:  5,
		ResetDelay:       10,
		VectorStart:      20,
		VectorStep:       10,
		VectorsPerSignal: 2,
		Mode:             Random,
		Seed:             1,
		Classifier:       DefaultClassifier(),
	}
}

// Assignment sets a signal to a literal value
type Assignment struct {
	Signal string `json:"signal"`
	Value  string `json:"value"`
}

// ClockDrive toggles Signal every HalfPeriod time units, forever
type ClockDrive struct {
	Signal     string `json:"signal"`
	HalfPeriod int    `json:"half_period"`
}

// Event is a value change at an absolute simulation time
type Event struct {
	Time   int    `json:"time"`
	Signal string `json:"signal"`
	Value  string `json:"value"`
	Role   Role   `json:"-"`
}

// Plan is the stimulus for one module. Outputs and inouts never appear in
// it. Events are in strictly increasing time order.
type Plan struct {
	Init   []Assignment `json:"init"`
	Clocks []ClockDrive `json:"clocks"`
	Resets []string     `json:"resets"`
	Events []Event      `json:"events"`
}

// LastOffset returns the time of the latest scheduled event, or 0 when
// there are none
func (p Plan) LastOffset() int {
	if len(p.Events) == 0 {
		return 0
	}
	return p.Events[len(p.Events)-1].Time
}

// Synthesize builds the stimulus plan for ports. Only inputs are driven;
// port order decides the order of initialisation and of events within a
// round of vectors.
func Synthesize(ports []design.Signal, opts Options) Plan {
	opts = opts.withDefaults()
	values := newValueSource(opts.Mode, opts.Seed)

	var plan Plan
	var data []design.Signal
	for _, p := range ports {
		if !p.Driven() {
			continue
		}
		switch opts.Classifier.Classify(p.Name) {
		case Clock:
			plan.Init = append(plan.Init, Assignment{Signal: p.Name, Value: "1'b0"})
			plan.Clocks = append(plan.Clocks, ClockDrive{Signal: p.Name, HalfPeriod: opts.ClockHalfPeriod})
		case Reset:
			asserted, released := "1'b1", "1'b0"
			if ActiveLow(p.Name) {
				asserted, released = released, asserted
			}
			plan.Init = append(plan.Init, Assignment{Signal: p.Name, Value: asserted})
			plan.Resets = append(plan.Resets, p.Name)
			plan.Events = append(plan.Events, Event{Signal: p.Name, Value: released, Role: Reset})
		default:
			plan.Init = append(plan.Init, Assignment{Signal: p.Name, Value: Zero(p.Width)})
			data = append(data, p)
		}
	}

	// Releases first, then round-robin vectors, one event per time step.
	t := opts.ResetDelay
	for i := range plan.Events {
		plan.Events[i].Time = t
		t += opts.VectorStep
	}
	if t < opts.VectorStart {
		t = opts.VectorStart
	}
	for round := 0; round < opts.VectorsPerSignal; round++ {
		for _, p := range data {
			plan.Events = append(plan.Events, Event{
				Time:   t,
				Signal: p.Name,
				Value:  values.next(p.Width, round),
				Role:   Data,
			})
			t += opts.VectorStep
		}
	}
	return plan
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.ClockHalfPeriod <= 0 {
		o.ClockHalfPeriod = def.ClockHalfPeriod
	}
	if o.ResetDelay <= 0 {
		o.ResetDelay = def.ResetDelay
	}
	if o.VectorStart <= 0 {
		o.VectorStart = def.VectorStart
	}
	if o.VectorStep <= 0 {
		o.VectorStep = def.VectorStep
	}
	if o.VectorsPerSignal <= 0 {
		o.VectorsPerSignal = def.VectorsPerSignal
	}
	if o.Mode == "" {
		o.Mode = def.Mode
	}
	if len(o.Classifier.ClockPatterns) == 0 && len(o.Classifier.ResetPatterns) == 0 {
		o.Classifier = def.Classifier
	}
	return o
}

// Render returns the stimulus as harness statements: one initial block
// with every starting value, an always block per clock and one initial
// block replaying the events with relative delays.
func (p Plan) Render() string {
	var b strings.Builder

	b.WriteString("  // Initialize inputs\n")
	b.WriteString("  initial begin\n")
	for _, a := range p.Init {
		fmt.Fprintf(&b, "    %s = %s;\n", a.Signal, a.Value)
	}
	b.WriteString("  end\n")

	if len(p.Clocks) > 0 {
		b.WriteString("\n  // Clock generation\n")
		for _, c := range p.Clocks {
			fmt.Fprintf(&b, "  always #%d %s = ~%s;\n", c.HalfPeriod, c.Signal, c.Signal)
		}
	}

	if len(p.Events) > 0 {
		b.WriteString("\n  // Reset release and test vectors\n")
		b.WriteString("  initial begin\n")
		now := 0
		for _, e := range p.Events {
			fmt.Fprintf(&b, "    #%d %s = %s; // t=%d\n", e.Time-now, e.Signal, e.Value, e.Time)
			now = e.Time
		}
		b.WriteString("  end\n")
	}
	return b.String()
}
