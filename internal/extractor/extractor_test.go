package extractor

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"

	"github.com/robert-at-pretension-io/sv-tbgen/internal/design"
	"github.com/robert-at-pretension-io/sv-tbgen/internal/ident"
)

const counterSource = `// 8-bit counter
module counter (
    input wire clk,
    input wire res_n,
    output reg [7:0] cnt_out
);
  always @(posedge clk or negedge res_n) begin
    if (!res_n) cnt_out <= 8'd0;
    else cnt_out <= cnt_out + 1;
  end
endmodule
`

func newExtractor() *Extractor {
	return New(ident.SystemVerilog(), zap.NewNop())
}

func TestExtractCounter(t *testing.T) {
	res, err := newExtractor().Extract("counter.v", []byte(counterSource))
	require.NoError(t, err)

	want := design.Module{
		Name:       "counter",
		File:       "counter.v",
		Parameters: []design.Parameter{},
		Ports: []design.Signal{
			{Name: "clk", DeclaredName: "clk", Direction: design.Input, Kind: design.Net, Width: 1, Resolved: true, Line: 3},
			{Name: "res_n", DeclaredName: "res_n", Direction: design.Input, Kind: design.Net, Width: 1, Resolved: true, Line: 4},
			{Name: "cnt_out", DeclaredName: "cnt_out", Direction: design.Output, Kind: design.Register, Width: 8, Range: "[7:0]", Resolved: true, Line: 5},
		},
	}
	if diff := cmp.Diff(want, res.Module); diff != "" {
		t.Fatalf("module mismatch (-want +got):\n%s", diff)
	}
	assert.False(t, res.Degraded())
}

func TestExtractSourceEncodings(t *testing.T) {
	encode := func(enc encoding.Encoding) []byte {
		b, err := enc.NewEncoder().Bytes([]byte(counterSource))
		require.NoError(t, err)
		return b
	}
	tests := []struct {
		name   string
		source []byte
	}{
		{"utf-8 bom", append([]byte{0xEF, 0xBB, 0xBF}, counterSource...)},
		{"utf-16le bom", encode(unicode.UTF16(unicode.LittleEndian, unicode.UseBOM))},
		{"utf-16be bom", encode(unicode.UTF16(unicode.BigEndian, unicode.UseBOM))},
		{"utf-16le without bom", encode(unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM))},
		{"utf-16be without bom", encode(unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM))},
	}
	want, err := newExtractor().Extract("counter.v", []byte(counterSource))
	require.NoError(t, err)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := newExtractor().Extract("counter.v", tt.source)
			require.NoError(t, err)
			if diff := cmp.Diff(want.Module, res.Module); diff != "" {
				t.Errorf("module mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExtractParameterizedHeader(t *testing.T) {
	src := `module fifo #(
  parameter WIDTH = 8,
  parameter DEPTH = 16,
  localparam AW = $clog2(DEPTH)
) (
  input  logic             clk,
  input  logic             rst_n,
  input  logic [WIDTH-1:0] din,
  output logic [WIDTH-1:0] dout,
  output logic             full
);
endmodule`

	res, err := newExtractor().Extract("fifo.sv", []byte(src))
	require.NoError(t, err)

	wantParams := []design.Parameter{
		{Name: "WIDTH", Value: "8", Scope: design.ModuleScope, Line: 2},
		{Name: "DEPTH", Value: "16", Scope: design.ModuleScope, Line: 3},
		{Name: "AW", Value: "$clog2(DEPTH)", Local: true, Scope: design.ModuleScope, Line: 4},
	}
	if diff := cmp.Diff(wantParams, res.Module.Parameters); diff != "" {
		t.Fatalf("parameters mismatch (-want +got):\n%s", diff)
	}

	require.Len(t, res.Module.Ports, 5)
	din := res.Module.Ports[2]
	assert.Equal(t, "din", din.Name)
	assert.Equal(t, "[WIDTH-1:0]", din.Range)
	assert.False(t, din.Resolved)
	assert.Equal(t, 1, din.Width)
	assert.Equal(t, design.Register, din.Kind)
}

func TestExtractParameterStatementBeforeModule(t *testing.T) {
	src := "parameter FOO = 3, BAR = 4'hA;\nmodule m (input a, output y);\nendmodule\n"
	res, err := newExtractor().Extract("", []byte(src))
	require.NoError(t, err)

	want := []design.Parameter{
		{Name: "FOO", Value: "3", Scope: design.UnitScope, Line: 1},
		{Name: "BAR", Value: "4'hA", Scope: design.UnitScope, Line: 1},
	}
	if diff := cmp.Diff(want, res.Module.Parameters); diff != "" {
		t.Fatalf("parameters mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractIgnoresComments(t *testing.T) {
	src := `module m (
  input a, // first, with comma
  /* block, with (paren */ input [3:0] b,
  (* keep = "true" *) output y
);
endmodule`

	res, err := newExtractor().Extract("m.v", []byte(src))
	require.NoError(t, err)
	require.Len(t, res.Module.Ports, 3)
	assert.Equal(t, []string{"a", "b", "y"}, names(res.Module.Ports))
	assert.Equal(t, 4, res.Module.Ports[1].Width)
	assert.Equal(t, 3, res.Module.Ports[1].Line)
}

func TestExtractWidths(t *testing.T) {
	tests := []struct {
		decl   string
		width  int
		signed bool
		rng    string
	}{
		{"input a", 1, false, ""},
		{"input [7:0] a", 8, false, "[7:0]"},
		{"input [0:7] a", 8, false, "[0:7]"},
		{"input [15:8] a", 8, false, "[15:8]"},
		{"input wire signed [15:0] a", 16, true, "[15:0]"},
		{"input logic [3:0][7:0] a", 32, false, "[3:0][7:0]"},
		{"input [1_023:0] a", 1024, false, "[1_023:0]"},
		{"input [ 31 : 0 ] a", 32, false, "[ 31 : 0 ]"},
	}

	for _, tt := range tests {
		src := "module w (" + tt.decl + ", output y);\nendmodule"
		res, err := newExtractor().Extract("", []byte(src))
		require.NoError(t, err, tt.decl)
		got := res.Module.Ports[0]
		assert.Equal(t, tt.width, got.Width, tt.decl)
		assert.Equal(t, tt.signed, got.Signed, tt.decl)
		assert.Equal(t, tt.rng, got.Range, tt.decl)
	}
}

func TestExtractSanitizesKeywordNames(t *testing.T) {
	src := "module k (input config, output y);\nendmodule"
	res, err := newExtractor().Extract("", []byte(src))
	require.NoError(t, err)

	port := res.Module.Ports[0]
	assert.Equal(t, "config_sig", port.Name)
	assert.Equal(t, "config", port.DeclaredName)
}

func TestExtractSkipsEntriesWithoutDirection(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	ex := New(ident.SystemVerilog(), zap.New(core))

	src := `module d (
  input a,
  b,
  output y
);
endmodule`

	res, err := ex.Extract("d.v", []byte(src))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "y"}, names(res.Module.Ports))
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, "b", res.Skipped[0].Entry)
	assert.Equal(t, 3, res.Skipped[0].Line)
	assert.True(t, res.Degraded())

	warnings := logs.FilterMessage("skipping port entry")
	require.Equal(t, 1, warnings.Len())
	assert.Equal(t, "b", warnings.All()[0].ContextMap()["entry"])
}

func TestExtractSkipsUnsupportedEntries(t *testing.T) {
	src := `module u (
  input logic a [0:3],
  my_if.master bus,
  input logic [3:0] b = 4'h0,
  output y,
);
endmodule`

	res, err := newExtractor().Extract("", []byte(src))
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "y"}, names(res.Module.Ports))
	assert.Len(t, res.Skipped, 3)
}

func TestExtractParseErrors(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		reason string
	}{
		{"no module", "wire a;\nassign a = 1'b0;\n", "no module declaration found"},
		{"mismatched bracket", "module m (input [3:0 a, output y);\nendmodule", "unbalanced port list"},
		{"unclosed port list", "module m (input a, output y\nendmodule", "unbalanced port list"},
		{"no port list", "module m;\nendmodule", "module m has no port list"},
		{"non-ANSI ports", "module m (a, y);\n  input a;\n  output y;\nendmodule", "module m has no recognized ports"},
		{"empty port list", "module m ();\nendmodule", "module m has no recognized ports"},
		{"missing endmodule", "module m (input a, output y);\n", "module m is missing endmodule"},
		{"duplicate port", "module m (input a, output a);\nendmodule", "duplicate port a"},
		{"unbalanced parameters", "module m #(parameter W = (4) (input a);\nendmodule", "unbalanced parameter list"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newExtractor().Extract("bad.v", []byte(tt.src))
			require.Error(t, err)

			var perr *ParseError
			require.True(t, errors.As(err, &perr), "want *ParseError, got %T", err)
			assert.Equal(t, tt.reason, perr.Reason)
			assert.Equal(t, "bad.v", perr.File)
		})
	}
}

func TestParseErrorPointsAtRegion(t *testing.T) {
	src := "module m (\n  input [3:0 a,\n  output y);\nendmodule"
	_, err := newExtractor().Extract("bad.v", []byte(src))

	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 3, perr.Line)
	assert.NotEmpty(t, perr.Region)
	assert.Contains(t, perr.Error(), "bad.v:3:")
}

func TestExtractFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "counter.v")
	require.NoError(t, os.WriteFile(path, []byte(counterSource), 0o644))

	res, err := newExtractor().ExtractFile(path)
	require.NoError(t, err)
	assert.Equal(t, "counter", res.Module.Name)
	assert.Equal(t, path, res.Module.File)

	_, err = newExtractor().ExtractFile(filepath.Join(t.TempDir(), "missing.v"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestExtractModuleVariants(t *testing.T) {
	tests := []struct {
		src  string
		name string
	}{
		{"module automatic top(input a, output y); endmodule", "top"},
		{"macromodule mm (input a, output y); endmodule", "mm"},
		{"module p#(parameter W=4)(input [W-1:0] a, output y);endmodule", "p"},
	}
	for _, tt := range tests {
		res, err := newExtractor().Extract("", []byte(tt.src))
		require.NoError(t, err, tt.src)
		assert.Equal(t, tt.name, res.Module.Name)
		assert.Len(t, res.Module.Ports, 2)
	}
}

func names(ports []design.Signal) []string {
	var out []string
	for _, p := range ports {
		out = append(out, p.Name)
	}
	return out
}
