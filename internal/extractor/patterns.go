package extractor

import (
	"regexp"
	"strings"
)

var (
	// Pattern: module [automatic|static] <name>
	modulePattern = regexp.MustCompile(`\b(?:macro)?module\s+(?:(?:automatic|static)\s+)?([A-Za-z_][A-Za-z0-9_$]*)`)

	// Pattern: endmodule
	endModulePattern = regexp.MustCompile(`\bendmodule\b`)

	// Pattern: parameter <assignments> ;
	paramStatementPattern = regexp.MustCompile(`\b(parameter|localparam)\b([^;]*);`)

	// Leading keywords and packed ranges of a parameter declaration
	paramPrefixPattern = regexp.MustCompile(`^(?:(?:parameter|localparam|integer|real|realtime|time|signed|unsigned|int|logic|bit|reg|type)\b\s*|\[[^\]]*\]\s*)*`)

	// Pattern: <name> = <value>
	paramAssignPattern = regexp.MustCompile(`(?s)^([A-Za-z_][A-Za-z0-9_$]*)\s*=\s*(.+)$`)

	// Pattern: [<high>:<low>]
	rangePattern = regexp.MustCompile(`^\[\s*([^:\]]+?)\s*:\s*([^:\]]+?)\s*\]$`)

	// Pattern: identifier
	identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_$]*$`)

	// Pattern: unsized decimal literal, underscores allowed
	decimalPattern = regexp.MustCompile(`^[0-9][0-9_]*$`)

	whitespace = regexp.MustCompile(`\s+`)
)

// Keywords that may follow a direction keyword in an ANSI port declaration.
var (
	netKinds = map[string]bool{
		"wire": true, "tri": true, "tri0": true, "tri1": true, "wand": true,
		"wor": true, "triand": true, "trior": true, "uwire": true,
		"supply0": true, "supply1": true,
	}
	registerKinds = map[string]bool{
		"reg": true, "logic": true, "var": true, "bit": true,
	}
	signing = map[string]bool{
		"signed": true, "unsigned": true,
	}
)

// matchModule returns [name, start, end] offsets of the first module header
func matchModule(text string) (string, int, int, bool) {
	m := modulePattern.FindStringSubmatchIndex(text)
	if m == nil {
		return "", 0, 0, false
	}
	return text[m[2]:m[3]], m[0], m[1], true
}

// matchParamStatements returns the keyword and assignment list of every
// parameter statement in text, with the offset of each list
func matchParamStatements(text string) ([]string, []string, []int) {
	var keywords, bodies []string
	var offsets []int
	for _, m := range paramStatementPattern.FindAllStringSubmatchIndex(text, -1) {
		keywords = append(keywords, text[m[2]:m[3]])
		bodies = append(bodies, text[m[4]:m[5]])
		offsets = append(offsets, m[4])
	}
	return keywords, bodies, offsets
}

// matchParamAssignment returns [name, value] if entry is a parameter assignment
func matchParamAssignment(entry string) []string {
	entry = strings.TrimSpace(entry)
	entry = strings.TrimSpace(paramPrefixPattern.ReplaceAllString(entry, ""))
	if m := paramAssignPattern.FindStringSubmatch(entry); m != nil {
		return []string{m[1], collapse(m[2])}
	}
	return nil
}

// matchRange returns [high, low] if token is a two-bound bit range
func matchRange(token string) []string {
	if m := rangePattern.FindStringSubmatch(token); m != nil {
		return []string{m[1], m[2]}
	}
	return nil
}

func isIdentifier(s string) bool {
	return identPattern.MatchString(s)
}

func collapse(s string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}
