package mail_tools

import (
	"context"
	"log/slog"
	"net/mail"

	"github.com/teemow/mailpilot/internal/instrumentation"
	"github.com/teemow/mailpilot/internal/llm"
	"github.com/teemow/mailpilot/internal/logging"
	"github.com/teemow/mailpilot/internal/mailbox"
	"github.com/teemow/mailpilot/internal/resolver"
	"github.com/teemow/mailpilot/internal/tools/common"
)

// SendToolName is the capability name offered to the model.
const SendToolName = "sendEmail"

// Send modes recorded in audit entries.
const (
	ModeNew   = "new"
	ModeReply = "reply"
)

// Resolver finds the record a reply refers to.
type Resolver interface {
	Resolve(query string) resolver.Result
}

// Synthesizer writes a body from an instruction. It never fails.
type Synthesizer interface {
	Synthesize(ctx context.Context, instruction string) string
}

// SendArgs are the decoded sendEmail arguments. Exactly one of
// ReplyIdentifier or Recipient and Subject is used.
type SendArgs struct {
	BodyInstruction string
	Recipient       string
	Subject         string
	ReplyIdentifier string
}

// IsReply reports whether the arguments ask for a reply.
func (a SendArgs) IsReply() bool {
	return a.ReplyIdentifier != ""
}

// DecodeSendArgs validates raw arguments. A new message lacking recipient
// or subject is not a decoding error; Execute reports it.
func DecodeSendArgs(args map[string]any) (SendArgs, error) {
	var out SendArgs
	var err error

	if out.BodyInstruction, err = common.RequiredString(args, "bodyInstruction"); err != nil {
		return SendArgs{}, common.Invalid(SendToolName, "%v", err)
	}
	if out.Recipient, err = common.OptionalString(args, "recipient"); err != nil {
		return SendArgs{}, common.Invalid(SendToolName, "%v", err)
	}
	if out.Subject, err = common.OptionalString(args, "subject"); err != nil {
		return SendArgs{}, common.Invalid(SendToolName, "%v", err)
	}
	if out.ReplyIdentifier, err = common.OptionalString(args, "replyIdentifier"); err != nil {
		return SendArgs{}, common.Invalid(SendToolName, "%v", err)
	}

	if out.IsReply() && (out.Recipient != "" || out.Subject != "") {
		return SendArgs{}, common.Invalid(SendToolName, "replyIdentifier cannot be combined with recipient or subject")
	}
	if out.Recipient != "" {
		if _, err := mail.ParseAddress(out.Recipient); err != nil {
			return SendArgs{}, common.Invalid(SendToolName, "recipient %q is not a valid email address", out.Recipient)
		}
	}
	return out, nil
}

// Send implements sendEmail.
type Send struct {
	mailbox  mailbox.Mailbox
	resolver Resolver
	composer Synthesizer
	metrics  *instrumentation.Metrics
	logger   *slog.Logger
}

// NewSend returns the sendEmail capability.
func NewSend(mb mailbox.Mailbox, r Resolver, composer Synthesizer, metrics *instrumentation.Metrics, logger *slog.Logger) *Send {
	return &Send{
		mailbox:  mb,
		resolver: r,
		composer: composer,
		metrics:  metrics,
		logger:   logging.WithTool(logger, SendToolName),
	}
}

// Definition describes sendEmail to the model.
func (s *Send) Definition() llm.ToolDefinition {
	return llm.ToolDefinition{
		Name:        SendToolName,
		Description: "Sends a new email OR replies to a recently fetched email. For replies, provide a unique subject line, sender name, or ID as replyIdentifier and omit recipient and subject.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"bodyInstruction": map[string]any{
					"type":        "string",
					"description": "The user's instruction on what the message body should convey (e.g., 'ask about the meeting time').",
				},
				"recipient": map[string]any{
					"type":        "string",
					"description": "The email address of the primary recipient (required for a NEW message).",
				},
				"subject": map[string]any{
					"type":        "string",
					"description": "The subject line of the email (required for a NEW message).",
				},
				"replyIdentifier": map[string]any{
					"type":        "string",
					"description": "Identifies the email being replied to: subject words, sender name or address, or ID. Comma-separate several hints (REQUIRED for replies).",
				},
			},
			"required": []string{"bodyInstruction"},
		},
	}
}

// Execute sends a new message or a reply.
func (s *Send) Execute(ctx context.Context, raw map[string]any) common.Result {
	args, err := DecodeSendArgs(raw)
	if err != nil {
		return validationResult(err)
	}

	msg := mailbox.OutgoingMessage{To: args.Recipient, Subject: args.Subject}
	mode := ModeNew

	if args.IsReply() {
		res := s.resolver.Resolve(args.ReplyIdentifier)
		s.metrics.RecordResolution(ctx, res.Kind.String())
		if res.Kind != resolver.Unique {
			s.logger.Info("reply target not resolved", "outcome", res.Kind.String())
			return common.ErrorResult(res.Message(args.ReplyIdentifier))
		}
		msg.To = mailbox.ReplyAddress(res.Record.From)
		msg.Subject = mailbox.ReplySubject(res.Record.Subject)
		msg.SourceMessageID = res.Record.ID
		mode = ModeReply
	} else if args.Recipient == "" || args.Subject == "" {
		return common.ErrorResult("Error: Cannot send a new message without a recipient and subject.")
	}

	msg.Body = s.composer.Synthesize(ctx, args.BodyInstruction)

	delivery := &common.Delivery{Recipient: msg.To, Mode: mode}
	if _, err := s.mailbox.Send(ctx, msg); err != nil {
		s.logger.Warn("send failed", logging.Domain(msg.To), logging.Err(err))
		res := common.Errorf("Failed to send email. Error: %v", err)
		res.Sent = delivery
		return res
	}

	s.logger.Info("email sent", "mode", mode, logging.UserHash(msg.To))
	text := "Email successfully sent to " + msg.To
	if mode == ModeReply {
		text += " (as a reply, based on identifier: " + args.ReplyIdentifier + ")."
	} else {
		text += " (as a new message)."
	}
	return common.Result{Text: text, Sent: delivery}
}
