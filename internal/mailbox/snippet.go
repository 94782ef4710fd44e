package mailbox

import (
	"strings"

	"golang.org/x/net/html"
)

// SnippetLength is the rune length of a generated snippet.
const SnippetLength = 200

// MakeSnippet builds a short preview for backends without server-side
// snippets. The plain-text body wins; otherwise the visible text of the HTML
// body is used. Whitespace is collapsed.
func MakeSnippet(text, htmlBody string) string {
	source := text
	if strings.TrimSpace(source) == "" {
		source = visibleText(htmlBody)
	}
	collapsed := strings.Join(strings.Fields(source), " ")
	if r := []rune(collapsed); len(r) > SnippetLength {
		return string(r[:SnippetLength])
	}
	return collapsed
}

func visibleText(body string) string {
	var b strings.Builder
	skip := 0
	z := html.NewTokenizer(strings.NewReader(body))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return b.String()
		case html.StartTagToken:
			if name, _ := z.TagName(); isHidden(string(name)) {
				skip++
			}
		case html.EndTagToken:
			if name, _ := z.TagName(); isHidden(string(name)) && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
				b.WriteByte(' ')
			}
		}
	}
}

func isHidden(tag string) bool {
	return tag == "script" || tag == "style" || tag == "head"
}
