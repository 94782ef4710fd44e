package mailbox

import (
	"regexp"
	"strings"
)

const (
	// TokenStart opens a framed continuation token in a tool result.
	TokenStart = "---NEXT_PAGE_TOKEN_START---"
	// TokenEnd closes a framed continuation token.
	TokenEnd = "---NEXT_PAGE_TOKEN_END---"
)

var (
	framedTokenRE   = regexp.MustCompile(regexp.QuoteMeta(TokenStart) + `(.*?)` + regexp.QuoteMeta(TokenEnd))
	friendlyTokenRE = regexp.MustCompile(`Next Page Token:\s*(\S+)`)
)

// FormatPageToken frames token for inclusion in a tool result. It returns ""
// for an empty token.
func FormatPageToken(token string) string {
	if token == "" {
		return ""
	}
	return TokenStart + token + TokenEnd
}

// ParsePageToken returns the framed token embedded in text, if any. The
// token comes back exactly as it was framed.
func ParsePageToken(text string) (string, bool) {
	m := framedTokenRE.FindStringSubmatch(text)
	if m == nil || m[1] == "" {
		return "", false
	}
	return m[1], true
}

// ExtractPageToken recovers a continuation token from an assistant answer.
// The friendly "Next Page Token: <token>" line is checked first, then the
// framed form.
func ExtractPageToken(text string) (string, bool) {
	if m := friendlyTokenRE.FindStringSubmatch(text); m != nil {
		if tok := strings.Trim(m[1], "`*\"'.[]<>"); tok != "" {
			return tok, true
		}
	}
	return ParsePageToken(text)
}
