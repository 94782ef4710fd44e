package gmail

import (
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"strings"

	gmail "google.golang.org/api/gmail/v1"

	"github.com/teemow/mailpilot/internal/mailbox"
)

// MissingHeader replaces absent Subject and From headers.
const MissingHeader = "N/A"

// HeaderValue returns the first payload header named header, compared
// case-insensitively, or "".
func HeaderValue(m *gmail.Message, header string) string {
	if m == nil || m.Payload == nil {
		return ""
	}
	for _, h := range m.Payload.Headers {
		if strings.EqualFold(h.Name, header) {
			return h.Value
		}
	}
	return ""
}

func headerOr(m *gmail.Message, header, fallback string) string {
	if v := HeaderValue(m, header); v != "" {
		return v
	}
	return fallback
}

// ToRecord converts a message fetched in full format.
func ToRecord(m *gmail.Message) mailbox.Record {
	return mailbox.Record{
		ID:        m.Id,
		Subject:   headerOr(m, "Subject", MissingHeader),
		From:      headerOr(m, "From", MissingHeader),
		Snippet:   m.Snippet,
		Links:     mailbox.ExtractLinks(MessageBody(m.Payload)),
		Permalink: PermalinkBase + m.Id,
	}
}

// MessageBody concatenates the decoded data of every leaf part, depth first.
// Parts that fail to decode are skipped.
func MessageBody(part *gmail.MessagePart) string {
	var b strings.Builder
	walkParts(part, func(p *gmail.MessagePart) {
		if p.Body == nil || p.Body.Data == "" {
			return
		}
		data, err := decodeBase64(p.Body.Data)
		if err != nil {
			return
		}
		b.Write(data)
	})
	return b.String()
}

// walkParts calls fn for every leaf part under part.
func walkParts(part *gmail.MessagePart, fn func(*gmail.MessagePart)) {
	if part == nil {
		return
	}
	if len(part.Parts) == 0 {
		fn(part)
		return
	}
	for _, p := range part.Parts {
		walkParts(p, fn)
	}
}

// decodeBase64 accepts the padded and unpadded URL alphabets Gmail uses, and
// the standard alphabet.
func decodeBase64(s string) ([]byte, error) {
	for _, enc := range []*base64.Encoding{base64.URLEncoding, base64.RawURLEncoding, base64.StdEncoding, base64.RawStdEncoding} {
		if data, err := enc.DecodeString(s); err == nil {
			return data, nil
		}
	}
	return nil, errors.New("invalid base64 body")
}

// Threading holds the headers tying a reply to its source.
type Threading struct {
	InReplyTo  string
	References string
}

// ReplyThreading derives reply headers from the source Message-ID and
// References. An empty messageID yields no threading.
func ReplyThreading(messageID, references string) Threading {
	if messageID == "" {
		return Threading{}
	}
	refs := messageID
	if references != "" {
		refs = references + " " + messageID
	}
	return Threading{InReplyTo: messageID, References: refs}
}

// BuildRaw renders msg as an RFC 2822 plain-text message.
func BuildRaw(msg mailbox.OutgoingMessage, thread Threading) ([]byte, error) {
	if msg.To == "" {
		return nil, fmt.Errorf("recipient is required")
	}
	if strings.ContainsAny(msg.To, "\r\n") || strings.ContainsAny(msg.Subject, "\r\n") {
		return nil, fmt.Errorf("header values must not contain line breaks")
	}

	var b strings.Builder
	b.WriteString("To: " + msg.To + "\r\n")
	b.WriteString("Subject: " + encodeRFC2047(msg.Subject) + "\r\n")
	if thread.InReplyTo != "" {
		b.WriteString("In-Reply-To: " + thread.InReplyTo + "\r\n")
	}
	if thread.References != "" {
		b.WriteString("References: " + thread.References + "\r\n")
	}
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(strings.ReplaceAll(msg.Body, "\r\n", "\n"), "\n", "\r\n"))
	return []byte(b.String()), nil
}

// EncodeRaw encodes a message for gmail.Message.Raw.
func EncodeRaw(raw []byte) string {
	return base64.URLEncoding.EncodeToString(raw)
}

// encodeRFC2047 encodes non-ASCII header text such as umlauts.
func encodeRFC2047(s string) string {
	for _, r := range s {
		if r > 127 {
			return mime.BEncoding.Encode("UTF-8", s)
		}
	}
	return s
}
