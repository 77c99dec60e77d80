package extractor

import "strings"

// blankComments replaces line comments, block comments and attribute
// instances with spaces. Newlines are kept so offsets map to the same line
// and column in the original source.
func blankComments(src []byte) []byte {
	out := make([]byte, len(src))
	copy(out, src)

	blank := func(from, to int) {
		for i := from; i < to && i < len(out); i++ {
			if out[i] != '\n' {
				out[i] = ' '
			}
		}
	}

	for i := 0; i < len(out); i++ {
		switch {
		case out[i] == '"':
			// String literals may contain comment markers.
			j := i + 1
			for j < len(out) && out[j] != '"' && out[j] != '\n' {
				if out[j] == '\\' {
					j++
				}
				j++
			}
			i = j
		case out[i] == '/' && i+1 < len(out) && out[i+1] == '/':
			j := i
			for j < len(out) && out[j] != '\n' {
				j++
			}
			blank(i, j)
			i = j
		case out[i] == '/' && i+1 < len(out) && out[i+1] == '*':
			end := strings.Index(string(out[i+2:]), "*/")
			if end < 0 {
				blank(i, len(out))
				return out
			}
			j := i + 2 + end + 2
			blank(i, j)
			i = j - 1
		case out[i] == '(' && i+1 < len(out) && out[i+1] == '*' && (i+2 >= len(out) || out[i+2] != ')'):
			end := strings.Index(string(out[i+2:]), "*)")
			if end < 0 {
				continue
			}
			j := i + 2 + end + 2
			blank(i, j)
			i = j - 1
		}
	}
	return out
}

var closerFor = map[byte]byte{'(': ')', '[': ']', '{': '}'}

// balancedClose returns the offset of the delimiter closing the group opened
// at text[open]. On failure it returns the offset of the offending
// delimiter and false: either an unmatched closer or the opener that never
// closed.
func balancedClose(text string, open int) (int, bool) {
	var stack []int
	for i := open; i < len(text); i++ {
		c := text[i]
		switch c {
		case '(', '[', '{':
			stack = append(stack, i)
		case ')', ']', '}':
			if len(stack) == 0 {
				return i, false
			}
			top := stack[len(stack)-1]
			if closerFor[text[top]] != c {
				return i, false
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return i, true
			}
		}
	}
	if len(stack) == 0 {
		return open, false
	}
	return stack[len(stack)-1], false
}

// entry is one top-level comma-separated item of a delimited list
type entry struct {
	text   string
	offset int
}

// splitTopLevel splits text on commas that are not nested inside brackets,
// parentheses or braces. Offsets are relative to base.
func splitTopLevel(text string, base int) []entry {
	var entries []entry
	depth := 0
	start := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ',':
			if depth == 0 {
				entries = append(entries, entry{text: text[start:i], offset: base + start})
				start = i + 1
			}
		}
	}
	entries = append(entries, entry{text: text[start:], offset: base + start})
	return entries
}

// tokenize splits a port entry into words and bracketed ranges. A range is
// kept as one token, e.g. "[WIDTH - 1 : 0]".
func tokenize(text string) []string {
	var tokens []string
	i := 0
	for i < len(text) {
		c := text[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '[':
			end, ok := balancedClose(text, i)
			if !ok {
				tokens = append(tokens, text[i:])
				return tokens
			}
			tokens = append(tokens, collapse(text[i:end+1]))
			i = end + 1
		case c == '=':
			tokens = append(tokens, "=")
			i++
		default:
			j := i
			for j < len(text) && !strings.ContainsRune(" \t\n\r[=", rune(text[j])) {
				j++
			}
			tokens = append(tokens, text[i:j])
			i = j
		}
	}
	return tokens
}

// position converts a byte offset into a 1-based line and column
func position(text string, offset int) (int, int) {
	if offset > len(text) {
		offset = len(text)
	}
	line := 1 + strings.Count(text[:offset], "\n")
	col := offset + 1
	if nl := strings.LastIndexByte(text[:offset], '\n'); nl >= 0 {
		col = offset - nl
	}
	return line, col
}

// snippet returns a short single-line excerpt of text starting at offset
func snippet(text string, offset int) string {
	const max = 48
	if offset >= len(text) {
		return ""
	}
	end := offset + max
	if end > len(text) {
		end = len(text)
	}
	return collapse(text[offset:end])
}
