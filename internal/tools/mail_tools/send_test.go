package mail_tools

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/mailpilot/internal/mailbox"
	"github.com/teemow/mailpilot/internal/memory"
	"github.com/teemow/mailpilot/internal/resolver"
)

func newSend(mb *fakeMailbox, records []mailbox.Record) (*Send, *fakeComposer) {
	store := memory.New(nil)
	store.Set(records)
	composer := &fakeComposer{}
	return NewSend(mb, resolver.New(store), composer, nil, nil), composer
}

func TestDecodeSendArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    map[string]any
		wantErr string
	}{
		{name: "new message", args: map[string]any{"bodyInstruction": "hi", "recipient": "a@b.com", "subject": "Hello"}},
		{name: "reply", args: map[string]any{"bodyInstruction": "hi", "replyIdentifier": "alice"}},
		{name: "named recipient", args: map[string]any{"bodyInstruction": "hi", "recipient": "Ann <a@b.com>", "subject": "x"}},
		{name: "missing instruction", args: map[string]any{"recipient": "a@b.com"}, wantErr: "bodyInstruction is required"},
		{name: "reply with recipient", args: map[string]any{"bodyInstruction": "hi", "replyIdentifier": "alice", "recipient": "a@b.com"}, wantErr: "replyIdentifier cannot be combined"},
		{name: "reply with subject", args: map[string]any{"bodyInstruction": "hi", "replyIdentifier": "alice", "subject": "x"}, wantErr: "replyIdentifier cannot be combined"},
		{name: "bad address", args: map[string]any{"bodyInstruction": "hi", "recipient": "not an address", "subject": "x"}, wantErr: "is not a valid email address"},
		{name: "wrong type", args: map[string]any{"bodyInstruction": 3.0}, wantErr: "bodyInstruction must be a string"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeSendArgs(tt.args)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.True(t, strings.HasPrefix(err.Error(), "invalid arguments for sendEmail: "))
		})
	}
}

func TestSend_NewMessage(t *testing.T) {
	mb := &fakeMailbox{}
	s, composer := newSend(mb, nil)

	res := s.Execute(context.Background(), map[string]any{
		"bodyInstruction": "ask about lunch",
		"recipient":       "carol@example.com",
		"subject":         "Lunch?",
	})

	require.False(t, res.IsError, res.Text)
	assert.Equal(t, "Email successfully sent to carol@example.com (as a new message).", res.Text)
	require.Len(t, mb.sent, 1)
	assert.Equal(t, mailbox.OutgoingMessage{
		To:      "carol@example.com",
		Subject: "Lunch?",
		Body:    "Body for: ask about lunch",
	}, mb.sent[0])
	assert.Equal(t, []string{"ask about lunch"}, composer.instructions)
	require.NotNil(t, res.Sent)
	assert.Equal(t, ModeNew, res.Sent.Mode)
}

func TestSend_NewMessageMissingFields(t *testing.T) {
	mb := &fakeMailbox{}
	s, composer := newSend(mb, nil)

	res := s.Execute(context.Background(), map[string]any{"bodyInstruction": "hi", "recipient": "a@b.com"})
	assert.True(t, res.IsError)
	assert.Equal(t, "Error: Cannot send a new message without a recipient and subject.", res.Text)
	assert.Empty(t, mb.sent)
	assert.Empty(t, composer.instructions)
}

func TestSend_Reply(t *testing.T) {
	mb := &fakeMailbox{}
	s, _ := newSend(mb, inbox)

	res := s.Execute(context.Background(), map[string]any{
		"bodyInstruction": "say I'll review it",
		"replyIdentifier": "project",
	})

	require.False(t, res.IsError, res.Text)
	assert.Equal(t, "Email successfully sent to b@x.com (as a reply, based on identifier: project).", res.Text)
	require.Len(t, mb.sent, 1)
	assert.Equal(t, "b@x.com", mb.sent[0].To)
	assert.Equal(t, "Re: Project update", mb.sent[0].Subject)
	assert.Equal(t, "2", mb.sent[0].SourceMessageID)
	assert.Equal(t, ModeReply, res.Sent.Mode)
}

func TestSend_ReplySubjectHandling(t *testing.T) {
	records := []mailbox.Record{
		{ID: "r1", From: "dana@example.com", Subject: "Re: Budget"},
		{ID: "r2", From: "ed@example.com", Subject: ""},
	}

	tests := []struct {
		identifier  string
		wantTo      string
		wantSubject string
	}{
		{"budget", "dana@example.com", "Re: Budget"},
		{"r2", "ed@example.com", "Re: (No Subject)"},
	}
	for _, tt := range tests {
		t.Run(tt.identifier, func(t *testing.T) {
			mb := &fakeMailbox{}
			s, _ := newSend(mb, records)
			res := s.Execute(context.Background(), map[string]any{"bodyInstruction": "ok", "replyIdentifier": tt.identifier})
			require.False(t, res.IsError, res.Text)
			require.Len(t, mb.sent, 1)
			assert.Equal(t, tt.wantTo, mb.sent[0].To)
			assert.Equal(t, tt.wantSubject, mb.sent[0].Subject)
		})
	}
}

func TestSend_ReplyNotFound(t *testing.T) {
	mb := &fakeMailbox{}
	s, composer := newSend(mb, inbox)

	res := s.Execute(context.Background(), map[string]any{"bodyInstruction": "hi", "replyIdentifier": "invoice"})
	assert.True(t, res.IsError)
	assert.Equal(t, `Error: The email matching "invoice" could not be found in the recent context.`, res.Text)
	assert.Empty(t, mb.sent)
	assert.Empty(t, composer.instructions)
}

func TestSend_ReplyAmbiguous(t *testing.T) {
	mb := &fakeMailbox{}
	s, _ := newSend(mb, inbox)

	res := s.Execute(context.Background(), map[string]any{"bodyInstruction": "hi", "replyIdentifier": "x.com"})
	assert.True(t, res.IsError)
	assert.True(t, strings.HasPrefix(res.Text, `Found 2 emails matching "x.com".`), res.Text)
	assert.Empty(t, mb.sent)
}

func TestSend_ReplyEmptyCache(t *testing.T) {
	mb := &fakeMailbox{}
	s, _ := newSend(mb, nil)

	res := s.Execute(context.Background(), map[string]any{"bodyInstruction": "hi", "replyIdentifier": "alice"})
	assert.True(t, res.IsError)
	assert.Contains(t, res.Text, "could not be found")
}

func TestSend_SendFailure(t *testing.T) {
	mb := &fakeMailbox{sendErr: errors.New("550 mailbox unavailable")}
	s, _ := newSend(mb, nil)

	res := s.Execute(context.Background(), map[string]any{
		"bodyInstruction": "hi", "recipient": "a@b.com", "subject": "s",
	})
	assert.True(t, res.IsError)
	assert.Equal(t, "Failed to send email. Error: 550 mailbox unavailable", res.Text)
}

func TestSend_ValidationBeforeSideEffects(t *testing.T) {
	mb := &fakeMailbox{}
	s, composer := newSend(mb, inbox)

	res := s.Execute(context.Background(), map[string]any{
		"bodyInstruction": "hi", "replyIdentifier": "project", "subject": "override",
	})
	assert.True(t, res.IsError)
	assert.Equal(t, "Error: invalid arguments for sendEmail: replyIdentifier cannot be combined with recipient or subject", res.Text)
	assert.Empty(t, mb.sent)
	assert.Empty(t, composer.instructions)
}
