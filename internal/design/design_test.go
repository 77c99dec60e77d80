package design

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDirection(t *testing.T) {
	for _, word := range []string{"input", "output", "inout"} {
		dir, ok := ParseDirection(word)
		assert.True(t, ok, word)
		assert.Equal(t, Direction(word), dir)
	}
	_, ok := ParseDirection("buffer")
	assert.False(t, ok)
}

func TestParameterScope(t *testing.T) {
	tests := []struct {
		param       Parameter
		overridable bool
		onInstance  bool
	}{
		{Parameter{Name: "W", Scope: ModuleScope}, true, true},
		{Parameter{Name: "AW", Scope: ModuleScope, Local: true}, false, true},
		{Parameter{Name: "FOO", Scope: UnitScope}, false, false},
		{Parameter{Name: "OLD"}, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.param.Name, func(t *testing.T) {
			assert.Equal(t, tt.overridable, tt.param.Overridable())
			assert.Equal(t, tt.onInstance, tt.param.OnInstance())
		})
	}
}

func TestModuleLookups(t *testing.T) {
	mod := Module{
		Name: "m",
		Ports: []Signal{
			{Name: "clk", Direction: Input, Kind: Net, Width: 1},
			{Name: "q", Direction: Output, Kind: Register, Width: 4, Range: "[3:0]"},
			{Name: "d", Direction: Input, Kind: Net, Width: 4, Range: "[3:0]"},
			{Name: "io", Direction: Inout, Kind: Net, Width: 1},
		},
		Parameters: []Parameter{{Name: "W", Value: "4"}},
	}

	var inputs []string
	for _, p := range mod.Inputs() {
		inputs = append(inputs, p.Name)
	}
	assert.Equal(t, []string{"clk", "d"}, inputs)

	q, ok := mod.Port("q")
	assert.True(t, ok)
	assert.True(t, q.IsVector())
	assert.False(t, q.Driven())
	assert.Equal(t, "output reg [3:0] q", q.String())

	_, ok = mod.Port("missing")
	assert.False(t, ok)

	w, ok := mod.Parameter("W")
	assert.True(t, ok)
	assert.Equal(t, "4", w)
}
