// Package ident rewrites identifiers that collide with reserved words of the
// target hardware description language.
package ident

// Suffix is appended to identifiers that are reserved words.
const Suffix = "_sig"

// verilogKeywords are the reserved words of Verilog-2005.
var verilogKeywords = []string{
	"always", "and", "assign", "automatic", "begin", "buf", "bufif0", "bufif1",
	"case", "casex", "casez", "cell", "cmos", "config", "deassign", "default",
	"defparam", "design", "disable", "edge", "else", "end", "endcase",
	"endconfig", "endfunction", "endgenerate", "endmodule", "endprimitive",
	"endspecify", "endtable", "endtask", "event", "for", "force", "forever",
	"fork", "function", "generate", "genvar", "highz0", "highz1", "if",
	"ifnone", "incdir", "include", "initial", "inout", "input", "instance",
	"integer", "join", "large", "liblist", "library", "localparam",
	"macromodule", "medium", "module", "nand", "negedge", "nmos", "nor",
	"noshowcancelled", "not", "notif0", "notif1", "or", "output", "parameter",
	"pmos", "posedge", "primitive", "pull0", "pull1", "pulldown", "pullup",
	"pulsestyle_onevent", "pulsestyle_ondetect", "rcmos", "real", "realtime",
	"reg", "release", "repeat", "rnmos", "rpmos", "rtran", "rtranif0",
	"rtranif1", "scalared", "showcancelled", "signed", "small", "specify",
	"specparam", "strong0", "strong1", "supply0", "supply1", "table", "task",
	"time", "tran", "tranif0", "tranif1", "tri", "tri0", "tri1", "triand",
	"trior", "trireg", "unsigned", "use", "uwire", "vectored", "wait", "wand",
	"weak0", "weak1", "while", "wire", "wor", "xnor", "xor",
}

// systemVerilogKeywords are the SystemVerilog additions a harness may
// collide with.
var systemVerilogKeywords = []string{
	"alias", "always_comb", "always_ff", "always_latch", "assert", "assume",
	"bit", "break", "byte", "chandle", "class", "clocking", "const",
	"constraint", "context", "continue", "cover", "do", "endclass",
	"endclocking", "endinterface", "endpackage", "endprogram", "endproperty",
	"endsequence", "enum", "export", "extends", "final", "foreach", "import",
	"int", "interface", "logic", "longint", "modport", "new", "null",
	"package", "program", "property", "rand", "return", "sequence",
	"shortint", "static", "string", "struct", "super", "this", "type",
	"typedef", "union", "unique", "var", "virtual", "void",
}

// KeywordSet is an immutable set of reserved words. The zero value is an
// empty set.
type KeywordSet struct {
	words map[string]struct{}
}

// NewKeywordSet builds a set from the given words
func NewKeywordSet(words ...string) KeywordSet {
	set := KeywordSet{words: make(map[string]struct{}, len(words))}
	for _, w := range words {
		set.words[w] = struct{}{}
	}
	return set
}

// SystemVerilog returns the reserved words of Verilog-2005 together with the
// SystemVerilog additions.
func SystemVerilog() KeywordSet {
	all := make([]string, 0, len(verilogKeywords)+len(systemVerilogKeywords))
	all = append(all, verilogKeywords...)
	all = append(all, systemVerilogKeywords...)
	return NewKeywordSet(all...)
}

// Contains reports whether word is reserved
func (k KeywordSet) Contains(word string) bool {
	_, ok := k.words[word]
	return ok
}

// Len returns the number of reserved words
func (k KeywordSet) Len() int {
	return len(k.words)
}

// Sanitize returns name, or name with Suffix appended when name is reserved.
// No reserved word ends in Suffix, so Sanitize(Sanitize(x)) == Sanitize(x).
func (k KeywordSet) Sanitize(name string) string {
	if k.Contains(name) {
		return name + Suffix
	}
	return name
}

// With returns a new set holding the words of k and words
func (k KeywordSet) With(words ...string) KeywordSet {
	all := make([]string, 0, len(k.words)+len(words))
	for w := range k.words {
		all = append(all, w)
	}
	all = append(all, words...)
	return NewKeywordSet(all...)
}
