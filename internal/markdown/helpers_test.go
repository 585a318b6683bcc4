package markdown

import (
	"testing"
	"unicode/utf8"
)

func TestEscapeText(t *testing.T) {
	tests := map[string]string{
		"plain title":   "plain title",
		"[link](x)":     `\[link\]\(x\)`,
		"a*b_c":         `a\*b\_c`,
		"1. not a list": `1\. not a list`,
		"back\\slash":   `back\\slash`,
		"héllo wörld":   "héllo wörld",
		"<script>":      `\<script\>`,
		"Café (x).":     `Café \(x\)\.`,
		"日本語 - 記事!":     `日本語 \- 記事\!`,
	}

	for input, want := range tests {
		if got := EscapeText(input); got != want {
			t.Fatalf("EscapeText(%q) = %q, want %q", input, got, want)
		}
		if got := EscapeText(input); !utf8.ValidString(got) {
			t.Fatalf("EscapeText(%q) produced invalid UTF-8: %q", input, got)
		}
	}
}

func TestSingleLine(t *testing.T) {
	if got := SingleLine("  a\n\tb   c \n"); got != "a b c" {
		t.Fatalf("unexpected single line: %q", got)
	}
}
