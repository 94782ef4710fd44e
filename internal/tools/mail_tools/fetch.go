package mail_tools

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/teemow/mailpilot/internal/categorize"
	"github.com/teemow/mailpilot/internal/llm"
	"github.com/teemow/mailpilot/internal/logging"
	"github.com/teemow/mailpilot/internal/mailbox"
	"github.com/teemow/mailpilot/internal/tools/common"
)

// FetchToolName is the capability name offered to the model.
const FetchToolName = "fetchEmails"

const (
	// DefaultFetchLimit is used when no limit is given.
	DefaultFetchLimit = 10
	// MaxFetchLimit is the largest page a single call may request.
	MaxFetchLimit = 500
)

// RecordStore receives the raw records of each non-empty fetch.
type RecordStore interface {
	Set(records []mailbox.Record)
}

// Categorizer groups records by category.
type Categorizer interface {
	Categorize(ctx context.Context, records []mailbox.Record) categorize.Batch
}

// FetchArgs are the decoded fetchEmails arguments.
type FetchArgs struct {
	UserID    string
	Limit     int
	PageToken *string
}

// Token returns the page token, or "" for the first page.
func (a FetchArgs) Token() string {
	if a.PageToken == nil {
		return ""
	}
	return *a.PageToken
}

// DecodeFetchArgs validates raw arguments.
func DecodeFetchArgs(args map[string]any) (FetchArgs, error) {
	var out FetchArgs
	var err error

	if out.UserID, err = common.RequiredString(args, "userId"); err != nil {
		return FetchArgs{}, common.Invalid(FetchToolName, "%v", err)
	}

	out.Limit, err = common.OptionalInt(args, "limit", DefaultFetchLimit)
	if errors.Is(err, common.ErrOutOfRange) {
		return FetchArgs{}, common.Invalid(FetchToolName, "limit must be at most %d", MaxFetchLimit)
	}
	if err != nil {
		return FetchArgs{}, common.Invalid(FetchToolName, "%v", err)
	}
	if out.Limit <= 0 {
		out.Limit = DefaultFetchLimit
	}
	if out.Limit > MaxFetchLimit {
		return FetchArgs{}, common.Invalid(FetchToolName, "limit must be at most %d", MaxFetchLimit)
	}

	token, err := common.OptionalString(args, "pageToken")
	if err != nil {
		return FetchArgs{}, common.Invalid(FetchToolName, "%v", err)
	}
	if token != "" {
		out.PageToken = &token
	}
	return out, nil
}

// Fetch implements fetchEmails.
type Fetch struct {
	mailbox    mailbox.Mailbox
	store      RecordStore
	classifier Categorizer
	logger     *slog.Logger
}

// NewFetch returns the fetchEmails capability.
func NewFetch(mb mailbox.Mailbox, store RecordStore, classifier Categorizer, logger *slog.Logger) *Fetch {
	return &Fetch{
		mailbox:    mb,
		store:      store,
		classifier: classifier,
		logger:     logging.WithTool(logger, FetchToolName),
	}
}

// Definition describes fetchEmails to the model.
func (f *Fetch) Definition() llm.ToolDefinition {
	return llm.ToolDefinition{
		Name:        FetchToolName,
		Description: "Fetch emails with pagination support. Returns categorized JSON and a nextPageToken if more emails exist.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"userId": map[string]any{
					"type":        "string",
					"description": "The user identifier. Must be passed by the user.",
				},
				"limit": map[string]any{
					"type":        "number",
					"description": "The number of emails to fetch, typically 10.",
				},
				"pageToken": map[string]any{
					"type":        []any{"string", "null"},
					"description": "The token for the next page of results, provided in a previous tool output.",
				},
			},
			"required": []string{"userId"},
		},
	}
}

// Execute lists, stores and categorizes one page.
func (f *Fetch) Execute(ctx context.Context, raw map[string]any) common.Result {
	args, err := DecodeFetchArgs(raw)
	if err != nil {
		return validationResult(err)
	}

	f.logger.Debug("fetching emails",
		"limit", args.Limit,
		"page_token", logging.SanitizeToken(args.Token()),
		logging.UserHash(args.UserID))

	page, err := f.mailbox.ListMessages(ctx, args.UserID, args.Limit, args.Token())
	if err != nil {
		f.logger.Warn("listing failed", logging.Err(err))
		return common.Errorf("Failed to fetch emails. Error: %v", err)
	}
	if len(page.Records) == 0 {
		return common.TextResult("No emails found.")
	}

	f.store.Set(page.Records)
	batch := f.classifier.Categorize(ctx, page.Records)

	out, err := json.MarshalIndent(batch, "", "  ")
	if err != nil {
		return common.Errorf("Failed to fetch emails. Error: %v", err)
	}

	text := string(out)
	if page.HasMore() {
		text += "\n\n" + mailbox.FormatPageToken(page.NextToken)
	}
	f.logger.Debug("fetched emails", logging.Count(len(page.Records)), "has_more", page.HasMore())
	return common.TextResult(text)
}

func validationResult(err error) common.Result {
	var ve *common.ValidationError
	if errors.As(err, &ve) {
		return ve.Result()
	}
	return common.ErrorResult("Error: " + err.Error())
}
