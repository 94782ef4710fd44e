package mail_tools

import (
	"context"

	"github.com/teemow/mailpilot/internal/mailbox"
)

type listCall struct {
	userID string
	limit  int
	token  string
}

type fakeMailbox struct {
	page    mailbox.Page
	listErr error
	sendErr error

	lists []listCall
	sent  []mailbox.OutgoingMessage
}

func (f *fakeMailbox) ListMessages(_ context.Context, userID string, limit int, pageToken string) (mailbox.Page, error) {
	f.lists = append(f.lists, listCall{userID: userID, limit: limit, token: pageToken})
	return f.page, f.listErr
}

func (f *fakeMailbox) Send(_ context.Context, msg mailbox.OutgoingMessage) (mailbox.Ack, error) {
	f.sent = append(f.sent, msg)
	if f.sendErr != nil {
		return mailbox.Ack{}, f.sendErr
	}
	return mailbox.Ack{MessageID: "sent-1"}, nil
}

type fakeComposer struct {
	instructions []string
}

func (f *fakeComposer) Synthesize(_ context.Context, instruction string) string {
	f.instructions = append(f.instructions, instruction)
	return "Body for: " + instruction
}
