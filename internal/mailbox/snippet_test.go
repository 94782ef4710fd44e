package mailbox

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestMakeSnippet(t *testing.T) {
	tests := []struct {
		name string
		text string
		html string
		want string
	}{
		{"plain text wins", "Hello   there\n\nBob", "<p>ignored</p>", "Hello there Bob"},
		{"html fallback", "  ", "<html><head><title>T</title></head><body><style>p{}</style><p>Big <b>sale</b> today</p><script>x()</script></body></html>", "Big sale today"},
		{"empty", "", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MakeSnippet(tt.text, tt.html); got != tt.want {
				t.Errorf("MakeSnippet() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMakeSnippet_Truncates(t *testing.T) {
	got := MakeSnippet(strings.Repeat("ä", SnippetLength+50), "")
	if n := utf8.RuneCountInString(got); n != SnippetLength {
		t.Errorf("snippet length = %d runes, want %d", n, SnippetLength)
	}
}
