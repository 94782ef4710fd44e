package mailbox

import (
	"regexp"
	"strings"
)

var angleAddrRE = regexp.MustCompile(`<([^<>]+)>`)

// NoSubject stands in for an empty subject when replying.
const NoSubject = "(No Subject)"

// ReplyAddress returns the address to answer. For "Name <addr>" it is the
// bracketed address, otherwise the trimmed header value.
func ReplyAddress(from string) string {
	if m := angleAddrRE.FindStringSubmatch(from); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(from)
}

// ReplySubject prefixes subject with "Re: " unless it already carries the
// prefix.
func ReplySubject(subject string) string {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		subject = NoSubject
	}
	if strings.HasPrefix(strings.ToLower(subject), "re:") {
		return subject
	}
	return "Re: " + subject
}
