package markdown

import "strings"

// CommonMark backslash-escapable punctuation that can change inline structure.
const specialChars = "\\`*_{}[]()<>#+-.!|~"

// EscapeText escapes input so it renders literally inside inline Markdown
// such as link labels and headings.
func EscapeText(input string) string {
	lookup := specialCharLookup()
	charsToEscape := 0

	for i := 0; i < len(input); i++ {
		if lookup[input[i]] {
			charsToEscape++
		}
	}
	if charsToEscape == 0 {
		return input
	}

	var b strings.Builder
	b.Grow(len(input) + charsToEscape)

	// Bytes, not runes: every escapable character is ASCII, so continuation
	// bytes of multi-byte runes pass through untouched.
	for i := 0; i < len(input); i++ {
		c := input[i]
		if lookup[c] {
			b.WriteByte('\\')
		}
		b.WriteByte(c)
	}

	return b.String()
}

// SingleLine collapses all whitespace, including newlines, to single spaces.
func SingleLine(input string) string {
	return strings.Join(strings.Fields(input), " ")
}

func specialCharLookup() [256]bool {
	var m [256]bool
	for _, c := range []byte(specialChars) {
		m[c] = true
	}
	return m
}
