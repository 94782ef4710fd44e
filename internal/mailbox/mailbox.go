package mailbox

import "context"

// Record is one message as seen by the assistant. Records are treated as
// values: annotating one (for example with a Summary) produces a copy.
type Record struct {
	ID        string   `json:"id"`
	Subject   string   `json:"subject"`
	From      string   `json:"from"`
	Snippet   string   `json:"snippet"`
	Links     []string `json:"links"`
	Permalink string   `json:"gmailLink"`
	Summary   string   `json:"summary,omitempty"`
}

// Page is one listing result. An empty NextToken means there is no
// further page.
type Page struct {
	Records   []Record
	NextToken string
}

// HasMore reports whether a continuation token is available.
func (p Page) HasMore() bool {
	return p.NextToken != ""
}

// OutgoingMessage is a message to send. SourceMessageID is set for replies
// and names the Record.ID being answered.
type OutgoingMessage struct {
	To              string
	Subject         string
	Body            string
	SourceMessageID string
}

// IsReply reports whether the message answers an existing record.
func (m OutgoingMessage) IsReply() bool {
	return m.SourceMessageID != ""
}

// Ack is the backend acknowledgement for a sent message.
type Ack struct {
	MessageID string
	ThreadID  string
}

// Mailbox is implemented by the Gmail and IMAP backends.
type Mailbox interface {
	// ListMessages returns up to limit records, newest first. pageToken is
	// empty for the first page.
	ListMessages(ctx context.Context, userID string, limit int, pageToken string) (Page, error)

	// Send delivers msg, threading it when msg.SourceMessageID is set.
	Send(ctx context.Context, msg OutgoingMessage) (Ack, error)
}
