package imapmail

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/mailpilot/internal/mailbox"
)

func TestBuildMessage(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	out, err := BuildMessage("Jane <jane@example.com>", mailbox.OutgoingMessage{
		To:      "bob@example.org",
		Subject: "Grüße aus Berlin",
		Body:    "Hallo Bob,\nbis bald.",
	}, "<orig@example.org>", now)
	require.NoError(t, err)

	assert.Equal(t, "jane@example.com", out.From)
	assert.Equal(t, []string{"bob@example.org"}, out.Recipients)
	assert.True(t, strings.HasPrefix(out.MessageID, "<") && strings.HasSuffix(out.MessageID, "@example.com>"))

	mr, err := mail.CreateReader(bytes.NewReader(out.Raw))
	require.NoError(t, err)
	defer mr.Close()

	subject, err := mr.Header.Subject()
	require.NoError(t, err)
	assert.Equal(t, "Grüße aus Berlin", subject)

	to, err := mr.Header.AddressList("To")
	require.NoError(t, err)
	require.Len(t, to, 1)
	assert.Equal(t, "bob@example.org", to[0].Address)

	inReplyTo, err := mr.Header.MsgIDList("In-Reply-To")
	require.NoError(t, err)
	assert.Equal(t, []string{"orig@example.org"}, inReplyTo)

	date, err := mr.Header.Date()
	require.NoError(t, err)
	assert.True(t, date.Equal(now))

	part, err := mr.NextPart()
	require.NoError(t, err)
	body, err := io.ReadAll(part.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "bis bald.")
}

func TestBuildMessage_InvalidAddresses(t *testing.T) {
	_, err := BuildMessage("", mailbox.OutgoingMessage{To: "bob@example.org"}, "", time.Now())
	assert.ErrorContains(t, err, "invalid sender address")

	_, err = BuildMessage("jane@example.com", mailbox.OutgoingMessage{To: "bob"}, "", time.Now())
	assert.ErrorContains(t, err, "invalid recipient address")
}

func TestParseBody(t *testing.T) {
	text, html := parseBody([]byte(multipartBody))
	assert.Contains(t, text, "See the   report.")
	assert.Contains(t, html, `href="https://corp.example/q3"`)

	text, html = parseBody([]byte("not a mime message"))
	assert.Equal(t, "not a mime message", text)
	assert.Empty(t, html)
}
