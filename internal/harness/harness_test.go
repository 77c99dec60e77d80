package harness

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-at-pretension-io/sv-tbgen/internal/design"
	"github.com/robert-at-pretension-io/sv-tbgen/internal/ident"
)

type fragment string

func (f fragment) Render() string { return string(f) }

func parts() Parts {
	return Parts{
		Stimulus: fragment("  // STIMULUS\n"),
		Monitor:  fragment("  // MONITOR\n"),
		Control:  fragment("  // CONTROL\n"),
	}
}

func counter() design.Module {
	return design.Module{
		Name: "counter",
		File: "/work/rtl/counter.v",
		Ports: []design.Signal{
			{Name: "clk", DeclaredName: "clk", Direction: design.Input, Kind: design.Net, Width: 1, Resolved: true},
			{Name: "res_n", DeclaredName: "res_n", Direction: design.Input, Kind: design.Net, Width: 1, Resolved: true},
			{Name: "cnt_out", DeclaredName: "cnt_out", Direction: design.Output, Kind: design.Register, Width: 8, Range: "[7:0]", Resolved: true},
		},
		Parameters: []design.Parameter{},
	}
}

func TestAssembleCounter(t *testing.T) {
	out, err := Assemble(counter(), parts(), DefaultOptions(), ident.SystemVerilog())
	require.NoError(t, err)

	want := "// Testbench for module counter\n" +
		"// Generated by sv-tbgen from counter.v. Do not edit.\n" +
		"`timescale 1ns / 1ps\n" +
		"\n" +
		"module counter_tb;\n" +
		"\n" +
		"  // Declare variables for the inputs and outputs of the DUT\n" +
		"  reg clk;\n" +
		"  reg res_n;\n" +
		"  wire [7:0] cnt_out;\n" +
		"\n" +
		"  // Instantiate the DUT\n" +
		"  counter u_counter (\n" +
		"    .clk(clk),\n" +
		"    .res_n(res_n),\n" +
		"    .cnt_out(cnt_out)\n" +
		"  );\n" +
		"\n" +
		"  // STIMULUS\n" +
		"\n" +
		"  // MONITOR\n" +
		"\n" +
		"  // CONTROL\n" +
		"endmodule\n"
	assert.Equal(t, want, out)
}

func TestAssembleSectionOrder(t *testing.T) {
	out, err := Assemble(counter(), parts(), DefaultOptions(), ident.SystemVerilog())
	require.NoError(t, err)

	markers := []string{"`timescale", "module counter_tb;", "reg clk;", "counter u_counter (", "// STIMULUS", "// MONITOR", "// CONTROL", "endmodule"}
	last := -1
	for _, m := range markers {
		i := strings.Index(out, m)
		require.GreaterOrEqual(t, i, 0, "missing %q", m)
		assert.Greater(t, i, last, "%q out of order", m)
		last = i
	}
}

func TestAssembleBindsSanitizedPorts(t *testing.T) {
	mod := design.Module{
		Name: "cfg_block",
		Ports: []design.Signal{
			{Name: "config_sig", DeclaredName: "config", Direction: design.Input, Kind: design.Net, Width: 1, Resolved: true},
			{Name: "q", DeclaredName: "q", Direction: design.Output, Kind: design.Net, Width: 4, Signed: true, Range: "[3:0]", Resolved: true},
			{Name: "bus", DeclaredName: "bus", Direction: design.Inout, Kind: design.Net, Width: 8, Range: "[7:0]", Resolved: true},
		},
	}
	out, err := Assemble(mod, parts(), DefaultOptions(), ident.SystemVerilog())
	require.NoError(t, err)

	assert.Contains(t, out, "  reg config_sig;\n")
	assert.Contains(t, out, "  wire signed [3:0] q;\n")
	assert.Contains(t, out, "  wire [7:0] bus;\n")
	assert.Contains(t, out, "    .config(config_sig),\n")
	assert.Contains(t, out, "    .bus(bus)\n  );")
	assert.Contains(t, out, "// Generated by sv-tbgen. Do not edit.\n")
}

func TestAssembleParameters(t *testing.T) {
	mod := design.Module{
		Name: "fifo",
		Ports: []design.Signal{
			{Name: "din", DeclaredName: "din", Direction: design.Input, Kind: design.Register, Width: 1, Range: "[WIDTH-1:0]"},
			{Name: "dout", DeclaredName: "dout", Direction: design.Output, Kind: design.Register, Width: 1, Range: "[WIDTH-1:0]"},
		},
		Parameters: []design.Parameter{
			{Name: "WIDTH", Value: "8", Scope: design.ModuleScope},
			{Name: "DEPTH", Value: "16", Scope: design.ModuleScope},
			{Name: "AW", Value: "$clog2(DEPTH)", Local: true, Scope: design.ModuleScope},
		},
	}
	out, err := Assemble(mod, parts(), DefaultOptions(), ident.SystemVerilog())
	require.NoError(t, err)

	assert.Contains(t, out, "  // Parameters\n  localparam WIDTH = 8;\n  localparam DEPTH = 16;\n  localparam AW = $clog2(DEPTH);\n")
	assert.Contains(t, out, "  reg [WIDTH-1:0] din;\n")
	assert.Contains(t, out, "  fifo #(\n    .WIDTH(WIDTH),\n    .DEPTH(DEPTH)\n  ) u_fifo (\n")
	assert.NotContains(t, out, ".AW(AW)")
	assert.Contains(t, out, `    assert (u_fifo.AW == AW) else $fatal(1, "AW assertion failed");`)
	assert.Contains(t, out, "  end\n\n  // STIMULUS")
}

func TestAssembleUnitScopeParameters(t *testing.T) {
	mod := design.Module{
		Name: "m",
		Ports: []design.Signal{
			{Name: "a", DeclaredName: "a", Direction: design.Input, Kind: design.Net, Width: 1, Resolved: true},
			{Name: "y", DeclaredName: "y", Direction: design.Output, Kind: design.Net, Width: 1, Resolved: true},
		},
		Parameters: []design.Parameter{
			{Name: "FOO", Value: "3", Scope: design.UnitScope},
		},
	}
	out, err := Assemble(mod, parts(), DefaultOptions(), ident.SystemVerilog())
	require.NoError(t, err)

	assert.Contains(t, out, "  localparam FOO = 3;\n")
	assert.Contains(t, out, "  m u_m (\n")
	assert.NotContains(t, out, "#(")
	assert.NotContains(t, out, ".FOO(FOO)")
	assert.NotContains(t, out, "u_m.FOO")
	assert.NotContains(t, out, "Parameter checks")
}

func TestAssembleMixedScopeParameters(t *testing.T) {
	mod := design.Module{
		Name: "m",
		Ports: []design.Signal{
			{Name: "y", DeclaredName: "y", Direction: design.Output, Kind: design.Net, Width: 1, Resolved: true},
		},
		Parameters: []design.Parameter{
			{Name: "FOO", Value: "3", Scope: design.UnitScope},
			{Name: "W", Value: "FOO", Scope: design.ModuleScope},
		},
	}
	out, err := Assemble(mod, parts(), DefaultOptions(), ident.SystemVerilog())
	require.NoError(t, err)

	assert.Contains(t, out, "  localparam FOO = 3;\n  localparam W = FOO;\n")
	assert.Contains(t, out, "  m #(\n    .W(W)\n  ) u_m (\n")
	assert.Contains(t, out, `    assert (u_m.W == W) else $fatal(1, "W assertion failed");`)
	assert.NotContains(t, out, "u_m.FOO")
}

func TestAssembleInstanceAvoidsPortNames(t *testing.T) {
	mod := design.Module{
		Name: "m",
		Ports: []design.Signal{
			{Name: "u_m", DeclaredName: "u_m", Direction: design.Input, Kind: design.Net, Width: 1, Resolved: true},
			{Name: "uut", DeclaredName: "uut", Direction: design.Input, Kind: design.Net, Width: 1, Resolved: true},
			{Name: "y", DeclaredName: "y", Direction: design.Output, Kind: design.Net, Width: 1, Resolved: true},
		},
	}
	out, err := Assemble(mod, parts(), DefaultOptions(), ident.SystemVerilog())
	require.NoError(t, err)
	assert.Contains(t, out, "  reg u_m;\n")
	assert.Contains(t, out, "  m u_m_1 (\n")
	assert.Contains(t, out, "    .u_m(u_m),\n")

	opts := DefaultOptions()
	opts.Instance = "uut"
	out, err = Assemble(mod, parts(), opts, ident.SystemVerilog())
	require.NoError(t, err)
	assert.Contains(t, out, "  m uut_1 (\n")
}

func TestInstanceName(t *testing.T) {
	kw := ident.SystemVerilog()
	tests := []struct {
		name string
		mod  design.Module
		opts Options
		want string
	}{
		{"derived", counter(), DefaultOptions(), "u_counter"},
		{"configured", counter(), Options{Instance: "dut"}, "dut"},
		{"configured keyword", counter(), Options{Instance: "begin"}, "begin_sig"},
		{"collides with port", counter(), Options{Instance: "clk"}, "clk_1"},
		{
			"collides with parameter",
			design.Module{Name: "p", Parameters: []design.Parameter{{Name: "u_p"}, {Name: "u_p_1"}}},
			DefaultOptions(),
			"u_p_2",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InstanceName(tt.mod, tt.opts, kw))
		})
	}
}

func TestAssembleOptions(t *testing.T) {
	opts := Options{Timescale: "10ns / 1ns", Suffix: "_bench", Instance: "dut"}
	out, err := Assemble(counter(), parts(), opts, ident.SystemVerilog())
	require.NoError(t, err)

	assert.Contains(t, out, "`timescale 10ns / 1ns\n")
	assert.Contains(t, out, "module counter_bench;\n")
	assert.Contains(t, out, "  counter dut (\n")
}

func TestAssembleErrors(t *testing.T) {
	_, err := Assemble(design.Module{Name: "empty"}, parts(), DefaultOptions(), ident.SystemVerilog())
	assert.ErrorContains(t, err, "no ports")

	p := parts()
	p.Monitor = nil
	_, err = Assemble(counter(), p, DefaultOptions(), ident.SystemVerilog())
	assert.ErrorContains(t, err, "required")
}

func TestName(t *testing.T) {
	kw := ident.SystemVerilog()
	assert.Equal(t, "counter_tb", Name(design.Module{Name: "counter"}, DefaultOptions(), kw))
	// A suffix that produces a keyword is still sanitized.
	assert.Equal(t, "end_sig", Name(design.Module{Name: "e"}, Options{Suffix: "nd"}, kw))

	clash := design.Module{
		Name:  "counter",
		Ports: []design.Signal{{Name: "counter_tb", DeclaredName: "counter_tb", Direction: design.Input}},
	}
	assert.Equal(t, "counter_tb_1", Name(clash, DefaultOptions(), kw))
}
