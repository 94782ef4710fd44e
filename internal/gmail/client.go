package gmail

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/teemow/mailpilot/internal/instrumentation"
	"github.com/teemow/mailpilot/internal/logging"
	"github.com/teemow/mailpilot/internal/mailbox"
)

// apiUser addresses the authenticated account. The Gmail API accepts no
// other user for an end-user OAuth token.
const apiUser = "me"

// DefaultConcurrency bounds parallel message fetches.
const DefaultConcurrency = 8

// PermalinkBase prefixes a message id to open it in the web client.
const PermalinkBase = "https://mail.google.com/mail/u/0/#inbox/"

// Options configures a Client.
type Options struct {
	Concurrency int
	Metrics     *instrumentation.Metrics
	Logger      *slog.Logger
}

// Client is a Gmail mailbox backend.
type Client struct {
	svc         *gmail.Service
	concurrency int
	metrics     *instrumentation.Metrics
	logger      *slog.Logger
}

var _ mailbox.Mailbox = (*Client)(nil)

// NewClient creates a Client on an authenticated HTTP client.
func NewClient(ctx context.Context, httpClient *http.Client, opts Options, extra ...option.ClientOption) (*Client, error) {
	svc, err := gmail.NewService(ctx, append([]option.ClientOption{option.WithHTTPClient(httpClient)}, extra...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}
	return New(svc, opts), nil
}

// New wraps an existing Gmail service.
func New(svc *gmail.Service, opts Options) *Client {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	return &Client{
		svc:         svc,
		concurrency: opts.Concurrency,
		metrics:     opts.Metrics,
		logger:      logging.WithComponent(opts.Logger, "gmail"),
	}
}

// ListMessages returns up to limit messages of the inbox listing, starting
// at pageToken.
func (c *Client) ListMessages(ctx context.Context, userID string, limit int, pageToken string) (page mailbox.Page, err error) {
	ctx, span := instrumentation.StartMailboxSpan(ctx, instrumentation.BackendGmail, instrumentation.OperationList)
	start := time.Now()
	defer func() {
		c.metrics.RecordMailboxOperation(ctx, instrumentation.BackendGmail, instrumentation.OperationList, instrumentation.StatusOf(err), time.Since(start))
		instrumentation.EndSpan(span, err)
	}()

	logger := c.logger.With(logging.Operation(instrumentation.OperationList), logging.UserHash(userID))

	call := c.svc.Users.Messages.List(apiUser).MaxResults(int64(limit)).Context(ctx)
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}
	res, err := call.Do()
	if err != nil {
		return mailbox.Page{}, fmt.Errorf("failed to list messages: %w", err)
	}

	slots := make([]*mailbox.Record, len(res.Messages))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, ref := range res.Messages {
		g.Go(func() error {
			msg, err := c.svc.Users.Messages.Get(apiUser, ref.Id).Format("full").Context(gctx).Do()
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				logger.Warn("skipping message that could not be fetched", "message_id", ref.Id, logging.Err(err))
				return nil
			}
			rec := ToRecord(msg)
			slots[i] = &rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return mailbox.Page{}, fmt.Errorf("failed to fetch message details: %w", err)
	}

	records := make([]mailbox.Record, 0, len(slots))
	for _, rec := range slots {
		if rec != nil {
			records = append(records, *rec)
		}
	}

	logger.Debug("listed messages", logging.Count(len(records)), "has_more", res.NextPageToken != "")
	return mailbox.Page{Records: records, NextToken: res.NextPageToken}, nil
}

// Send delivers msg. A reply is threaded onto msg.SourceMessageID.
func (c *Client) Send(ctx context.Context, msg mailbox.OutgoingMessage) (ack mailbox.Ack, err error) {
	ctx, span := instrumentation.StartMailboxSpan(ctx, instrumentation.BackendGmail, instrumentation.OperationSend)
	start := time.Now()
	defer func() {
		c.metrics.RecordMailboxOperation(ctx, instrumentation.BackendGmail, instrumentation.OperationSend, instrumentation.StatusOf(err), time.Since(start))
		instrumentation.EndSpan(span, err)
	}()

	out := &gmail.Message{}
	var thread Threading
	if msg.IsReply() {
		src, err := c.svc.Users.Messages.Get(apiUser, msg.SourceMessageID).
			Format("metadata").
			MetadataHeaders("Message-ID", "References").
			Context(ctx).
			Do()
		if err != nil {
			return mailbox.Ack{}, fmt.Errorf("failed to read source message %s: %w", msg.SourceMessageID, err)
		}
		thread = ReplyThreading(HeaderValue(src, "Message-ID"), HeaderValue(src, "References"))
		out.ThreadId = src.ThreadId
	}

	raw, err := BuildRaw(msg, thread)
	if err != nil {
		return mailbox.Ack{}, err
	}
	out.Raw = EncodeRaw(raw)

	sent, err := c.svc.Users.Messages.Send(apiUser, out).Context(ctx).Do()
	if err != nil {
		return mailbox.Ack{}, fmt.Errorf("failed to send email: %w", err)
	}

	c.logger.Debug("message sent", logging.Domain(msg.To), "reply", msg.IsReply())
	return mailbox.Ack{MessageID: sent.Id, ThreadID: sent.ThreadId}, nil
}
