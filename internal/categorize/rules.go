package categorize

import (
	"strings"

	"github.com/teemow/mailpilot/internal/mailbox"
)

// SummaryLength is how much of the snippet a rule-based summary keeps.
const SummaryLength = 100

// NoContent summarizes a record without a snippet.
const NoContent = "No content available"

type rule struct {
	category string
	subject  []string
	from     []string
	snippet  []string
}

// Rules are checked in order; the first match wins.
var rules = []rule{
	{category: JobAlerts, subject: []string{"job", "career", "hiring"}, from: []string{"jobs", "career", "linkedin"}},
	{category: Newsletters, subject: []string{"newsletter", "digest", "weekly"}, from: []string{"newsletter", "digest"}},
	{category: Promotions, subject: []string{"sale", "offer", "discount", "promo"}, snippet: []string{"unsubscribe"}},
	{category: Work, subject: []string{"meeting", "project"}, from: []string{"work", "team", "project"}},
	{category: Personal, from: []string{"gmail.com", "yahoo.com", "hotmail.com"}},
}

// RuleCategory returns the keyword-rule category of r.
func RuleCategory(r mailbox.Record) string {
	subject := strings.ToLower(r.Subject)
	from := strings.ToLower(r.From)
	snippet := strings.ToLower(r.Snippet)

	for _, rl := range rules {
		if containsAny(subject, rl.subject) || containsAny(from, rl.from) || containsAny(snippet, rl.snippet) {
			return rl.category
		}
	}
	return Others
}

// RuleSummary truncates the snippet to SummaryLength characters.
func RuleSummary(snippet string) string {
	if snippet == "" {
		return NoContent
	}
	runes := []rune(snippet)
	if len(runes) <= SummaryLength {
		return snippet
	}
	return string(runes[:SummaryLength]) + "..."
}

// ByRules categorizes every record with the keyword rules.
func ByRules(records []mailbox.Record) Batch {
	b := NewBatch()
	for _, r := range records {
		r.Summary = RuleSummary(r.Snippet)
		b.Add(RuleCategory(r), r)
	}
	return b
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
