package imapmail

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sort"
	"strconv"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"

	"github.com/teemow/mailpilot/internal/instrumentation"
	"github.com/teemow/mailpilot/internal/logging"
	"github.com/teemow/mailpilot/internal/mailbox"
)

// Config holds the server coordinates and credentials.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	// Mailbox defaults to INBOX.
	Mailbox  string
	SMTPHost string
	SMTPPort int
	// From defaults to Username.
	From string
	// TLS overrides the TLS configuration of both connections.
	TLS *tls.Config
}

func (c Config) withDefaults() Config {
	if c.Port == 0 {
		c.Port = 993
	}
	if c.SMTPPort == 0 {
		c.SMTPPort = 465
	}
	if c.Mailbox == "" {
		c.Mailbox = "INBOX"
	}
	if c.From == "" {
		c.From = c.Username
	}
	return c
}

// imapSession is the subset of *client.Client used here.
type imapSession interface {
	Select(name string, readOnly bool) (*imap.MailboxStatus, error)
	UidSearch(criteria *imap.SearchCriteria) ([]uint32, error)
	UidFetch(seqset *imap.SeqSet, items []imap.FetchItem, ch chan *imap.Message) error
	Logout() error
}

// smtpSession is the subset of *smtp.Client used here.
type smtpSession interface {
	SendMail(from string, to []string, r io.Reader) error
	Quit() error
	Close() error
}

// Options configures a Client.
type Options struct {
	Metrics *instrumentation.Metrics
	Logger  *slog.Logger
}

// Client is an IMAP/SMTP mailbox backend.
type Client struct {
	cfg      Config
	dialIMAP func(ctx context.Context) (imapSession, error)
	dialSMTP func(ctx context.Context) (smtpSession, error)
	now      func() time.Time
	metrics  *instrumentation.Metrics
	logger   *slog.Logger
}

var _ mailbox.Mailbox = (*Client)(nil)

// New returns a Client for cfg. No connection is made until the first call.
func New(cfg Config, opts Options) *Client {
	c := &Client{
		cfg:     cfg.withDefaults(),
		now:     time.Now,
		metrics: opts.Metrics,
		logger:  logging.WithComponent(opts.Logger, "imap"),
	}
	c.dialIMAP = c.connectIMAP
	c.dialSMTP = c.connectSMTP
	return c
}

func (c *Client) tlsConfig(host string) *tls.Config {
	if c.cfg.TLS != nil {
		return c.cfg.TLS.Clone()
	}
	return &tls.Config{ServerName: host, MinVersion: tls.VersionTLS12}
}

func (c *Client) dialTLS(ctx context.Context, host string, port int) (net.Conn, error) {
	d := &tls.Dialer{Config: c.tlsConfig(host)}
	conn, err := d.DialContext(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return nil, err
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	return conn, nil
}

func (c *Client) connectIMAP(ctx context.Context) (imapSession, error) {
	conn, err := c.dialTLS(ctx, c.cfg.Host, c.cfg.Port)
	if err != nil {
		return nil, fmt.Errorf("IMAP dial failed: %w", err)
	}
	ic, err := client.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("IMAP greeting failed: %w", err)
	}
	if err := ic.Login(c.cfg.Username, c.cfg.Password); err != nil {
		_ = ic.Logout()
		return nil, fmt.Errorf("IMAP login failed: %w", err)
	}
	return ic, nil
}

func (c *Client) connectSMTP(ctx context.Context) (smtpSession, error) {
	conn, err := c.dialTLS(ctx, c.cfg.SMTPHost, c.cfg.SMTPPort)
	if err != nil {
		return nil, fmt.Errorf("SMTP TLS dial failed: %w", err)
	}
	sc := smtp.NewClient(conn)
	if err := sc.Auth(sasl.NewPlainClient("", c.cfg.Username, c.cfg.Password)); err != nil {
		sc.Close()
		return nil, fmt.Errorf("SMTP auth failed: %w", err)
	}
	return sc, nil
}

// ListMessages returns the newest limit messages below pageToken.
func (c *Client) ListMessages(ctx context.Context, userID string, limit int, pageToken string) (page mailbox.Page, err error) {
	ctx, span := instrumentation.StartMailboxSpan(ctx, instrumentation.BackendIMAP, instrumentation.OperationList)
	start := time.Now()
	defer func() {
		c.metrics.RecordMailboxOperation(ctx, instrumentation.BackendIMAP, instrumentation.OperationList, instrumentation.StatusOf(err), time.Since(start))
		instrumentation.EndSpan(span, err)
	}()

	below, err := ParseToken(pageToken)
	if err != nil {
		return mailbox.Page{}, err
	}
	if below == 1 {
		return mailbox.Page{Records: []mailbox.Record{}}, nil
	}

	session, err := c.dialIMAP(ctx)
	if err != nil {
		return mailbox.Page{}, err
	}
	defer session.Logout()

	if _, err := session.Select(c.cfg.Mailbox, true); err != nil {
		return mailbox.Page{}, fmt.Errorf("selecting %s failed: %w", c.cfg.Mailbox, err)
	}

	criteria := imap.NewSearchCriteria()
	if below > 1 {
		criteria.Uid = new(imap.SeqSet)
		criteria.Uid.AddRange(1, below-1)
	}
	uids, err := session.UidSearch(criteria)
	if err != nil {
		return mailbox.Page{}, fmt.Errorf("searching %s failed: %w", c.cfg.Mailbox, err)
	}

	selected, next := newestPage(uids, below, limit)
	if len(selected) == 0 {
		return mailbox.Page{Records: []mailbox.Record{}}, nil
	}

	messages, err := fetch(session, selected, true)
	if err != nil {
		return mailbox.Page{}, err
	}

	records := make([]mailbox.Record, 0, len(messages))
	for _, uid := range selected {
		msg, ok := messages[uid]
		if !ok {
			c.logger.Warn("server returned no data for message", "uid", uid)
			continue
		}
		rec, err := toRecord(msg)
		if err != nil {
			c.logger.Warn("skipping message that could not be parsed", "uid", uid, logging.Err(err))
			continue
		}
		records = append(records, rec)
	}

	c.logger.Debug("listed messages", logging.UserHash(userID), logging.Count(len(records)), "has_more", next != "")
	return mailbox.Page{Records: records, NextToken: next}, nil
}

// newestPage picks the limit highest UIDs below the bound, newest first, and
// the token of the following page.
func newestPage(uids []uint32, below uint32, limit int) ([]uint32, string) {
	sorted := make([]uint32, 0, len(uids))
	for _, uid := range uids {
		// Servers answer "n:*" searches with the highest UID even when it is
		// below n, so the bound is enforced here too.
		if below == 0 || uid < below {
			sorted = append(sorted, uid)
		}
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] > sorted[j] })

	if limit <= 0 || len(sorted) <= limit {
		return sorted, ""
	}
	page := sorted[:limit]
	return page, FormatToken(page[len(page)-1])
}

// fetch retrieves envelopes, and bodies when withBody is set, keyed by UID.
func fetch(session imapSession, uids []uint32, withBody bool) (map[uint32]*imap.Message, error) {
	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uids...)

	items := []imap.FetchItem{imap.FetchUid, imap.FetchEnvelope}
	if withBody {
		items = append(items, bodySection.FetchItem())
	}

	ch := make(chan *imap.Message, len(uids)+8)
	done := make(chan error, 1)
	go func() {
		done <- session.UidFetch(seqSet, items, ch)
	}()

	out := make(map[uint32]*imap.Message, len(uids))
	for msg := range ch {
		out[msg.Uid] = msg
	}
	if err := <-done; err != nil {
		return nil, fmt.Errorf("fetching messages failed: %w", err)
	}
	return out, nil
}

// Send delivers msg over SMTP. Replies carry the source Message-Id in
// In-Reply-To and References.
func (c *Client) Send(ctx context.Context, msg mailbox.OutgoingMessage) (ack mailbox.Ack, err error) {
	ctx, span := instrumentation.StartMailboxSpan(ctx, instrumentation.BackendIMAP, instrumentation.OperationSend)
	start := time.Now()
	defer func() {
		c.metrics.RecordMailboxOperation(ctx, instrumentation.BackendIMAP, instrumentation.OperationSend, instrumentation.StatusOf(err), time.Since(start))
		instrumentation.EndSpan(span, err)
	}()

	var inReplyTo string
	if msg.IsReply() {
		inReplyTo, err = c.sourceMessageID(ctx, msg.SourceMessageID)
		if err != nil {
			return mailbox.Ack{}, err
		}
	}

	out, err := BuildMessage(c.cfg.From, msg, inReplyTo, c.now())
	if err != nil {
		return mailbox.Ack{}, err
	}

	session, err := c.dialSMTP(ctx)
	if err != nil {
		return mailbox.Ack{}, err
	}
	defer session.Close()

	if err := session.SendMail(out.From, out.Recipients, out.Reader()); err != nil {
		return mailbox.Ack{}, fmt.Errorf("SMTP delivery failed: %w", err)
	}
	if err := session.Quit(); err != nil {
		c.logger.Debug("SMTP quit failed", logging.Err(err))
	}

	c.logger.Debug("message sent", logging.Domain(out.Recipients[0]), "reply", msg.IsReply())
	return mailbox.Ack{MessageID: out.MessageID}, nil
}

func (c *Client) sourceMessageID(ctx context.Context, id string) (string, error) {
	uid, err := strconv.ParseUint(id, 10, 32)
	if err != nil || uid == 0 {
		return "", fmt.Errorf("invalid message id %q", id)
	}

	session, err := c.dialIMAP(ctx)
	if err != nil {
		return "", err
	}
	defer session.Logout()

	if _, err := session.Select(c.cfg.Mailbox, true); err != nil {
		return "", fmt.Errorf("selecting %s failed: %w", c.cfg.Mailbox, err)
	}
	messages, err := fetch(session, []uint32{uint32(uid)}, false)
	if err != nil {
		return "", err
	}
	src, ok := messages[uint32(uid)]
	if !ok {
		return "", fmt.Errorf("source message %s not found", id)
	}
	if src.Envelope == nil {
		return "", nil
	}
	return src.Envelope.MessageId, nil
}
