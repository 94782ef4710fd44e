// Package categorize sorts fetched records into six fixed categories and
// attaches a short summary to each.
//
// Small batches go to a JSON-constrained model call when one is
// configured; large batches and setups without a model use keyword rules.
// The model's answer is reconciled against the input so every record ends
// up in exactly one category even when the answer is partial.
package categorize

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/teemow/mailpilot/internal/instrumentation"
	"github.com/teemow/mailpilot/internal/llm"
	"github.com/teemow/mailpilot/internal/logging"
	"github.com/teemow/mailpilot/internal/mailbox"
)

// DefaultMaxGenerativeBatch is the largest batch sent to the model.
const DefaultMaxGenerativeBatch = 50

// Path is the categorization strategy for a batch.
type Path int

const (
	RulePath Path = iota
	GenerativePath
)

func (p Path) String() string {
	if p == GenerativePath {
		return "generative"
	}
	return "rules"
}

// Options configures a Classifier.
type Options struct {
	// MaxGenerativeBatch defaults to DefaultMaxGenerativeBatch.
	MaxGenerativeBatch int
	Metrics            *instrumentation.Metrics
	Logger             *slog.Logger
}

// Classifier categorizes batches of records.
type Classifier struct {
	gen     llm.JSONGenerator
	maxGen  int
	metrics *instrumentation.Metrics
	logger  *slog.Logger
}

// New returns a Classifier. gen may be nil.
func New(gen llm.JSONGenerator, opts Options) *Classifier {
	if opts.MaxGenerativeBatch <= 0 {
		opts.MaxGenerativeBatch = DefaultMaxGenerativeBatch
	}
	return &Classifier{
		gen:     gen,
		maxGen:  opts.MaxGenerativeBatch,
		metrics: opts.Metrics,
		logger:  logging.WithComponent(opts.Logger, "categorize"),
	}
}

// ChoosePath picks the rule path when no generator is available or the
// batch is larger than max.
func ChoosePath(hasGenerator bool, n, max int) Path {
	if !hasGenerator || n > max {
		return RulePath
	}
	return GenerativePath
}

// Categorize returns records grouped by category. It never fails.
func (c *Classifier) Categorize(ctx context.Context, records []mailbox.Record) Batch {
	path := ChoosePath(c.gen != nil, len(records), c.maxGen)
	c.logger.Debug("categorizing records", logging.Count(len(records)), "path", path.String())

	if path == RulePath || len(records) == 0 {
		return ByRules(records)
	}

	batch, err := c.generative(ctx, records)
	if err != nil {
		c.logger.Warn("generative categorization failed, using rules", logging.Err(err))
		c.metrics.RecordFallback(ctx, instrumentation.ComponentCategorize)
		return ByRules(records)
	}
	return batch
}

const systemPrompt = `You are an assistant that classifies emails and writes short summaries.
Review the provided JSON list of emails and return a single JSON object with exactly these keys: "Job Alerts", "Newsletters", "Promotions", "Personal", "Work", "Others".
Each key maps to an array of objects {"id": <email id>, "summary": <1-2 line plain text summary>}.
Place every email in exactly one category and use the ids exactly as given.`

type modelInput struct {
	ID      string `json:"id"`
	Subject string `json:"subject"`
	From    string `json:"from"`
	Snippet string `json:"snippet"`
}

type assignment struct {
	ID      string `json:"id"`
	Summary string `json:"summary"`
}

func (c *Classifier) generative(ctx context.Context, records []mailbox.Record) (Batch, error) {
	inputs := make([]modelInput, len(records))
	for i, r := range records {
		inputs[i] = modelInput{ID: r.ID, Subject: r.Subject, From: r.From, Snippet: r.Snippet}
	}
	user, err := json.MarshalIndent(inputs, "", "  ")
	if err != nil {
		return Batch{}, err
	}

	text, err := c.gen.GenerateJSON(ctx, systemPrompt, string(user), ResponseSchema())
	if err != nil {
		return Batch{}, err
	}
	return Reconcile(records, text)
}

// ResponseSchema is the JSON schema the model answer must follow.
func ResponseSchema() map[string]any {
	item := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"id":      map[string]any{"type": "string"},
			"summary": map[string]any{"type": "string", "description": "A 1-2 line plain text summary of the email."},
		},
		"required": []string{"id", "summary"},
	}
	props := make(map[string]any, len(Categories))
	for _, cat := range Categories {
		props[cat] = map[string]any{"type": "array", "items": item}
	}
	return map[string]any{
		"type":             "object",
		"properties":       props,
		"required":         append([]string(nil), Categories...),
		"propertyOrdering": append([]string(nil), Categories...),
	}
}

// Reconcile maps a model answer back onto records. Unknown categories,
// unknown ids and repeated ids are ignored; records the answer missed are
// placed by the rules. It fails when the answer is unusable or assigns
// nothing.
func Reconcile(records []mailbox.Record, text string) (Batch, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Batch{}, errEmptyAnswer
	}

	var answer map[string][]assignment
	if err := json.Unmarshal([]byte(text), &answer); err != nil {
		return Batch{}, &answerError{err: err}
	}

	byID := make(map[string]int, len(records))
	for i, r := range records {
		if _, dup := byID[r.ID]; !dup {
			byID[r.ID] = i
		}
	}

	category := make([]string, len(records))
	summary := make([]string, len(records))
	assigned := 0
	for _, cat := range Categories {
		for _, a := range answer[cat] {
			i, ok := byID[strings.TrimSpace(a.ID)]
			if !ok || category[i] != "" {
				continue
			}
			category[i] = cat
			summary[i] = strings.TrimSpace(a.Summary)
			assigned++
		}
	}
	if assigned == 0 {
		return Batch{}, errNoAssignments
	}

	b := NewBatch()
	for i, r := range records {
		if category[i] == "" {
			category[i] = RuleCategory(r)
		}
		r.Summary = summary[i]
		if r.Summary == "" {
			r.Summary = RuleSummary(r.Snippet)
		}
		b.Add(category[i], r)
	}
	return b, nil
}
