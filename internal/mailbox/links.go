package mailbox

import (
	"strings"

	"golang.org/x/net/html"
)

// MaxLinks caps how many links a Record carries.
const MaxLinks = 1

// ExtractLinks returns the href of the first anchors in body, up to
// MaxLinks. Non-HTML bodies simply yield no links.
func ExtractLinks(body string) []string {
	links := make([]string, 0, MaxLinks)
	if !strings.Contains(body, "<") {
		return links
	}

	z := html.NewTokenizer(strings.NewReader(body))
	for len(links) < MaxLinks {
		switch z.Next() {
		case html.ErrorToken:
			return links
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			if tok.Data != "a" {
				continue
			}
			for _, attr := range tok.Attr {
				if attr.Key == "href" && strings.TrimSpace(attr.Val) != "" {
					links = append(links, strings.TrimSpace(attr.Val))
					break
				}
			}
		}
	}
	return links
}
