package imapmail

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-imap"
	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
	"github.com/google/uuid"

	"github.com/teemow/mailpilot/internal/mailbox"
)

const tokenPrefix = "uid:"

// MissingHeader replaces an absent subject or sender.
const MissingHeader = "N/A"

var bodySection = &imap.BodySectionName{Peek: true}

// FormatToken returns the continuation token for UIDs below uid.
func FormatToken(uid uint32) string {
	return tokenPrefix + strconv.FormatUint(uint64(uid), 10)
}

// ParseToken returns the exclusive UID bound of token; 0 for no token.
func ParseToken(token string) (uint32, error) {
	if token == "" {
		return 0, nil
	}
	rest, ok := strings.CutPrefix(token, tokenPrefix)
	if !ok {
		return 0, fmt.Errorf("invalid page token %q", token)
	}
	n, err := strconv.ParseUint(rest, 10, 32)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("invalid page token %q", token)
	}
	return uint32(n), nil
}

func toRecord(msg *imap.Message) (mailbox.Record, error) {
	rec := mailbox.Record{
		ID:      strconv.FormatUint(uint64(msg.Uid), 10),
		Subject: MissingHeader,
		From:    MissingHeader,
	}
	if env := msg.Envelope; env != nil {
		if env.Subject != "" {
			rec.Subject = env.Subject
		}
		if len(env.From) > 0 {
			rec.From = formatAddress(env.From[0])
		}
	}

	var text, html string
	if literal := msg.GetBody(bodySection); literal != nil {
		raw, err := io.ReadAll(literal)
		if err != nil {
			return mailbox.Record{}, fmt.Errorf("reading body: %w", err)
		}
		text, html = parseBody(raw)
	}

	linkSource := html
	if linkSource == "" {
		linkSource = text
	}
	rec.Links = mailbox.ExtractLinks(linkSource)
	rec.Snippet = mailbox.MakeSnippet(text, html)
	return rec, nil
}

func formatAddress(a *imap.Address) string {
	addr := a.Address()
	if a.PersonalName == "" {
		return addr
	}
	return fmt.Sprintf("%s <%s>", a.PersonalName, addr)
}

// parseBody returns the first text/plain and text/html inline parts. A body
// that is not valid MIME is returned as plain text.
func parseBody(raw []byte) (text, html string) {
	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		return string(raw), ""
	}
	defer mr.Close()

	for {
		part, err := mr.NextPart()
		if err != nil {
			break
		}
		h, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		contentType, _, _ := h.ContentType()
		body, err := io.ReadAll(part.Body)
		if err != nil {
			continue
		}
		switch {
		case contentType == "text/plain" && text == "":
			text = string(body)
		case contentType == "text/html" && html == "":
			html = string(body)
		}
	}
	return text, html
}

// Outgoing is a rendered message ready for SMTP.
type Outgoing struct {
	From       string
	Recipients []string
	// MessageID includes the angle brackets.
	MessageID string
	Raw       []byte
}

// Reader returns the raw message.
func (o *Outgoing) Reader() io.Reader {
	return bytes.NewReader(o.Raw)
}

// BuildMessage renders msg as a quoted-printable text/plain message from
// from. A non-empty inReplyTo threads it as a reply.
func BuildMessage(from string, msg mailbox.OutgoingMessage, inReplyTo string, now time.Time) (*Outgoing, error) {
	sender, err := mail.ParseAddress(from)
	if err != nil {
		return nil, fmt.Errorf("invalid sender address %q: %w", from, err)
	}
	to, err := mail.ParseAddress(msg.To)
	if err != nil {
		return nil, fmt.Errorf("invalid recipient address %q: %w", msg.To, err)
	}

	id := uuid.NewString() + "@" + domainOf(sender.Address)

	var h mail.Header
	h.SetDate(now)
	h.SetAddressList("From", []*mail.Address{sender})
	h.SetAddressList("To", []*mail.Address{to})
	h.SetSubject(msg.Subject)
	h.SetMessageID(id)
	if ref := strings.Trim(strings.TrimSpace(inReplyTo), "<>"); ref != "" {
		h.SetMsgIDList("In-Reply-To", []string{ref})
		h.SetMsgIDList("References", []string{ref})
	}
	h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})
	h.Set("Content-Transfer-Encoding", "quoted-printable")

	var buf bytes.Buffer
	w, err := mail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("creating message writer: %w", err)
	}
	if _, err := io.WriteString(w, msg.Body); err != nil {
		return nil, fmt.Errorf("writing message body: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finalizing message: %w", err)
	}

	return &Outgoing{
		From:       sender.Address,
		Recipients: []string{to.Address},
		MessageID:  "<" + id + ">",
		Raw:        buf.Bytes(),
	}, nil
}

func domainOf(address string) string {
	if at := strings.LastIndex(address, "@"); at >= 0 && at < len(address)-1 {
		return address[at+1:]
	}
	return "localhost"
}
