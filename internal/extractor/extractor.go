package extractor

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/robert-at-pretension-io/sv-tbgen/internal/design"
	"github.com/robert-at-pretension-io/sv-tbgen/internal/ident"
)

// Extractor recovers the port list of a single Verilog/SystemVerilog module
// from source text. Only the module header is read; the body is ignored.
type Extractor struct {
	keywords ident.KeywordSet
	logger   *zap.Logger
}

// Result is the outcome of a successful extraction. A non-empty Skipped list
// means the module was extracted with a reduced port list.
type Result struct {
	Module  design.Module
	Skipped []UnrecognizedPortError
}

// Degraded reports whether any port entry was skipped
func (r Result) Degraded() bool {
	return len(r.Skipped) > 0
}

// New creates an Extractor. Port names are passed through keywords.Sanitize.
func New(keywords ident.KeywordSet, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{keywords: keywords, logger: logger}
}

// ExtractFile reads filePath and extracts its module
func (e *Extractor) ExtractFile(filePath string) (Result, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return Result{}, fmt.Errorf("reading file: %w", err)
	}
	return e.Extract(filePath, content)
}

// Extract parses source and returns the first module it declares. source
// may be UTF-8 or UTF-16. file is only used for error messages.
func (e *Extractor) Extract(file string, source []byte) (Result, error) {
	decoded, err := decodeSource(source)
	if err != nil {
		return Result{}, &ParseError{File: file, Reason: "decoding source: " + err.Error()}
	}
	text := string(blankComments(decoded))
	fail := func(offset int, reason string) error {
		line, col := position(text, offset)
		return &ParseError{
			File:   file,
			Line:   line,
			Column: col,
			Region: snippet(text, offset),
			Reason: reason,
		}
	}

	name, start, end, ok := matchModule(text)
	if !ok {
		return Result{}, &ParseError{File: file, Reason: "no module declaration found"}
	}

	mod := design.Module{Name: name, File: file}
	params := e.scanParamStatements(text[:start])

	cursor := skipSpace(text, end)
	if cursor < len(text) && text[cursor] == '#' {
		open := skipSpace(text, cursor+1)
		if open >= len(text) || text[open] != '(' {
			return Result{}, fail(cursor, "expected '(' after '#' in parameter list")
		}
		rparen, ok := balancedClose(text, open)
		if !ok {
			return Result{}, fail(rparen, "unbalanced parameter list")
		}
		params = append(params, e.scanParamList(text, open+1, rparen)...)
		cursor = skipSpace(text, rparen+1)
	}
	if params == nil {
		params = []design.Parameter{}
	}
	mod.Parameters = params

	if cursor >= len(text) || text[cursor] != '(' {
		return Result{}, fail(cursor, fmt.Sprintf("module %s has no port list", name))
	}
	rparen, ok := balancedClose(text, cursor)
	if !ok {
		return Result{}, fail(rparen, "unbalanced port list")
	}
	if endModulePattern.FindStringIndex(text[rparen:]) == nil {
		return Result{}, fail(start, fmt.Sprintf("module %s is missing endmodule", name))
	}

	var skipped []UnrecognizedPortError
	seen := make(map[string]bool)
	for _, ent := range splitTopLevel(text[cursor+1:rparen], cursor+1) {
		line, _ := position(text, ent.offset+leadingSpace(ent.text))
		sig, reason := e.parsePort(ent.text)
		if reason != "" {
			skip := UnrecognizedPortError{Entry: collapse(ent.text), Line: line, Reason: reason}
			e.logger.Warn("skipping port entry",
				zap.String("file", file),
				zap.String("module", name),
				zap.String("entry", skip.Entry),
				zap.Int("line", line),
				zap.String("reason", reason))
			skipped = append(skipped, skip)
			continue
		}
		if seen[sig.Name] {
			return Result{}, fail(ent.offset+leadingSpace(ent.text), fmt.Sprintf("duplicate port %s", sig.Name))
		}
		seen[sig.Name] = true
		sig.Line = line
		mod.Ports = append(mod.Ports, sig)
	}

	if len(mod.Ports) == 0 {
		return Result{Skipped: skipped}, fail(cursor, fmt.Sprintf("module %s has no recognized ports", name))
	}

	e.logger.Debug("extracted module",
		zap.String("file", file),
		zap.String("module", name),
		zap.Int("ports", len(mod.Ports)),
		zap.Int("parameters", len(mod.Parameters)),
		zap.Int("skipped", len(skipped)))

	return Result{Module: mod, Skipped: skipped}, nil
}

// parsePort turns one port-list entry into a Signal. A non-empty reason
// means the entry is not an ANSI port declaration.
func (e *Extractor) parsePort(text string) (design.Signal, string) {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return design.Signal{}, "empty entry"
	}

	dir, ok := design.ParseDirection(tokens[0])
	if !ok {
		return design.Signal{}, fmt.Sprintf("no direction keyword before %q", tokens[0])
	}
	sig := design.Signal{Direction: dir, Kind: design.Net, Width: 1, Resolved: true}

	i := 1
modifiers:
	for ; i < len(tokens); i++ {
		tok := tokens[i]
		switch {
		case netKinds[tok]:
			sig.Kind = design.Net
		case registerKinds[tok]:
			sig.Kind = design.Register
		case signing[tok]:
			sig.Signed = tok == "signed"
		case strings.HasPrefix(tok, "["):
			if err := e.applyRange(&sig, tok); err != "" {
				return design.Signal{}, err
			}
		default:
			break modifiers
		}
	}
	if i >= len(tokens) {
		return design.Signal{}, "missing port name"
	}
	if !isIdentifier(tokens[i]) || isDeclKeyword(tokens[i]) {
		return design.Signal{}, fmt.Sprintf("%q is not a port name", tokens[i])
	}
	sig.DeclaredName = tokens[i]
	sig.Name = e.keywords.Sanitize(tokens[i])

	rest := tokens[i+1:]
	if len(rest) > 0 && strings.HasPrefix(rest[0], "[") {
		return design.Signal{}, "unpacked array ports are not supported"
	}
	if len(rest) > 0 && rest[0] != "=" {
		return design.Signal{}, fmt.Sprintf("unexpected %q after port name", rest[0])
	}
	return sig, ""
}

// applyRange folds a packed range into the signal width. Ranges with
// non-literal bounds leave the signal unresolved with width 1.
func (e *Extractor) applyRange(sig *design.Signal, tok string) string {
	bounds := matchRange(tok)
	if bounds == nil {
		return fmt.Sprintf("unsupported range %s", tok)
	}
	sig.Range += tok
	high, okHigh := parseBound(bounds[0])
	low, okLow := parseBound(bounds[1])
	if !okHigh || !okLow || !sig.Resolved {
		sig.Resolved = false
		sig.Width = 1
		return ""
	}
	width := high - low + 1
	if low > high {
		width = low - high + 1
	}
	if sig.Range == tok {
		sig.Width = width
	} else {
		sig.Width *= width
	}
	return ""
}

func parseBound(s string) (int, bool) {
	if !decimalPattern.MatchString(s) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.ReplaceAll(s, "_", ""))
	if err != nil {
		return 0, false
	}
	return n, true
}

// isDeclKeyword reports keywords that can never start a port name even
// after sanitization.
func isDeclKeyword(word string) bool {
	switch word {
	case "input", "output", "inout", "parameter", "localparam":
		return true
	}
	return false
}

// scanParamStatements collects "parameter A = 1, B = 2;" statements that
// precede the module keyword. They belong to the compilation unit.
func (e *Extractor) scanParamStatements(text string) []design.Parameter {
	var params []design.Parameter
	keywords, bodies, offsets := matchParamStatements(text)
	for i, body := range bodies {
		local := keywords[i] == "localparam"
		for _, ent := range splitTopLevel(body, offsets[i]) {
			if p, ok := e.paramFromEntry(text, ent); ok {
				p.Local = local
				p.Scope = design.UnitScope
				params = append(params, p)
			}
		}
	}
	return params
}

// scanParamList collects the entries of a "#( ... )" header between from
// and to
func (e *Extractor) scanParamList(text string, from, to int) []design.Parameter {
	var params []design.Parameter
	local := false
	for _, ent := range splitTopLevel(text[from:to], from) {
		// The keyword carries over to entries that omit it.
		switch leadingWord(ent.text) {
		case "parameter":
			local = false
		case "localparam":
			local = true
		}
		if p, ok := e.paramFromEntry(text, ent); ok {
			p.Local = local
			p.Scope = design.ModuleScope
			params = append(params, p)
		}
	}
	return params
}

func (e *Extractor) paramFromEntry(text string, ent entry) (design.Parameter, bool) {
	m := matchParamAssignment(ent.text)
	if m == nil {
		if strings.TrimSpace(ent.text) != "" {
			e.logger.Debug("ignoring parameter entry", zap.String("entry", collapse(ent.text)))
		}
		return design.Parameter{}, false
	}
	line, _ := position(text, ent.offset+leadingSpace(ent.text))
	return design.Parameter{Name: m[0], Value: m[1], Line: line}, true
}

func leadingWord(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, " \t\r\n"); i >= 0 {
		return s[:i]
	}
	return s
}

func skipSpace(text string, i int) int {
	for i < len(text) && strings.ContainsRune(" \t\r\n", rune(text[i])) {
		i++
	}
	return i
}

func leadingSpace(s string) int {
	return len(s) - len(strings.TrimLeft(s, " \t\r\n"))
}
