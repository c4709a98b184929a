package diff

import "unicode/utf8"

// SplitLines breaks text into lines at the usual line boundaries (\n, \r\n,
// \r, \v, \f, \x1c, \x1d, \x1e, U+0085, U+2028 and U+2029). The separators
// are dropped, a trailing separator does not produce an empty last line and
// empty text yields no lines. Line content is otherwise kept verbatim.
func SplitLines(text string) []string {
	lines := []string{}
	start := 0
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		if !isLineBreak(r) {
			i += size
			continue
		}
		lines = append(lines, text[start:i])
		i += size
		if r == '\r' && i < len(text) && text[i] == '\n' {
			i++
		}
		start = i
	}
	if start < len(text) {
		lines = append(lines, text[start:])
	}
	return lines
}

func isLineBreak(r rune) bool {
	switch r {
	case '\n', '\r', '\v', '\f', '\x1c', '\x1d', '\x1e', '\u0085', '\u2028', '\u2029':
		return true
	}
	return false
}
