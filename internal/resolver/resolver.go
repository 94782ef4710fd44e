package resolver

import (
	"fmt"
	"sort"
	"strings"

	"github.com/teemow/mailpilot/internal/mailbox"
)

// Source supplies the records to resolve against. *memory.Store satisfies it.
type Source interface {
	Get() []mailbox.Record
}

// Field names a record field that contributed to a score.
type Field string

const (
	FieldID      Field = "id"
	FieldFrom    Field = "from"
	FieldSubject Field = "subject"
	FieldSnippet Field = "snippet"
)

// Kind is the outcome of a resolution.
type Kind int

const (
	NotFound Kind = iota
	Unique
	Ambiguous
)

func (k Kind) String() string {
	switch k {
	case Unique:
		return "unique"
	case Ambiguous:
		return "ambiguous"
	default:
		return "not_found"
	}
}

// Weights are the per-field scores and the factor by which the best
// candidate must beat the second to win outright.
type Weights struct {
	ID       int
	From     int
	Subject  int
	Snippet  int
	Decisive float64
	// MaxCandidates bounds the listing reported for an ambiguous query.
	MaxCandidates int
}

// DefaultWeights returns the standard scoring.
func DefaultWeights() Weights {
	return Weights{
		ID:            100,
		From:          50,
		Subject:       30,
		Snippet:       10,
		Decisive:      1.5,
		MaxCandidates: 3,
	}
}

// Candidate is a scored record.
type Candidate struct {
	Record mailbox.Record
	Score  int
	// Fields lists each distinct field that matched, in first-match order.
	Fields []Field

	idMatch bool
	order   int
}

// Result is the outcome of Resolve. Record is set only for Unique;
// Candidates is set for Ambiguous and holds at most MaxCandidates entries,
// while Total counts every matching record.
type Result struct {
	Kind       Kind
	Record     mailbox.Record
	Candidates []Candidate
	Total      int
}

// Message renders the user-facing text for a NotFound or Ambiguous result.
// It returns "" for a Unique result.
func (r Result) Message(query string) string {
	switch r.Kind {
	case NotFound:
		return fmt.Sprintf("Error: The email matching %q could not be found in the recent context.", query)
	case Ambiguous:
		var b strings.Builder
		total := r.Total
		if total < len(r.Candidates) {
			total = len(r.Candidates)
		}
		fmt.Fprintf(&b, "Found %d emails matching %q. Please use a more specific phrase or the unique ID.", total, query)
		for _, c := range r.Candidates {
			fmt.Fprintf(&b, "\n- ID: %s | Subject: %s | From: %s", c.Record.ID, c.Record.Subject, c.Record.From)
		}
		return b.String()
	default:
		return ""
	}
}

// Resolver scores records from a Source.
type Resolver struct {
	source  Source
	weights Weights
}

// New returns a Resolver using DefaultWeights.
func New(source Source) *Resolver {
	return NewWithWeights(source, DefaultWeights())
}

// NewWithWeights returns a Resolver with custom scoring.
func NewWithWeights(source Source, w Weights) *Resolver {
	if w.MaxCandidates <= 0 {
		w.MaxCandidates = DefaultWeights().MaxCandidates
	}
	return &Resolver{source: source, weights: w}
}

// Resolve matches query against the current records. It does not modify
// the source.
func (r *Resolver) Resolve(query string) Result {
	identifiers := ParseIdentifiers(query)
	if len(identifiers) == 0 {
		return Result{Kind: NotFound}
	}

	var candidates []Candidate
	for i, rec := range r.source.Get() {
		c := r.score(rec, identifiers)
		if c.Score == 0 {
			continue
		}
		c.order = i
		candidates = append(candidates, c)
	}

	switch len(candidates) {
	case 0:
		return Result{Kind: NotFound}
	case 1:
		return Result{Kind: Unique, Record: candidates[0].Record}
	}

	if c, ok := soleIDMatch(candidates); ok {
		return Result{Kind: Unique, Record: c.Record}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if len(a.Fields) != len(b.Fields) {
			return len(a.Fields) > len(b.Fields)
		}
		return a.order < b.order
	})

	top, second := candidates[0], candidates[1]
	if float64(top.Score) > r.weights.Decisive*float64(second.Score) {
		return Result{Kind: Unique, Record: top.Record}
	}

	total := len(candidates)
	if total > r.weights.MaxCandidates {
		candidates = candidates[:r.weights.MaxCandidates]
	}
	return Result{Kind: Ambiguous, Candidates: candidates, Total: total}
}

func (r *Resolver) score(rec mailbox.Record, identifiers []string) Candidate {
	c := Candidate{Record: rec}
	id := strings.ToLower(rec.ID)
	from := strings.ToLower(rec.From)
	subject := strings.ToLower(rec.Subject)
	snippet := strings.ToLower(rec.Snippet)

	for _, ident := range identifiers {
		if id == ident {
			c.Score += r.weights.ID
			c.idMatch = true
			c.addField(FieldID)
		}
		if strings.Contains(from, ident) {
			c.Score += r.weights.From
			c.addField(FieldFrom)
		}
		if strings.Contains(subject, ident) {
			c.Score += r.weights.Subject
			c.addField(FieldSubject)
		}
		if strings.Contains(snippet, ident) {
			c.Score += r.weights.Snippet
			c.addField(FieldSnippet)
		}
	}
	return c
}

func (c *Candidate) addField(f Field) {
	for _, existing := range c.Fields {
		if existing == f {
			return
		}
	}
	c.Fields = append(c.Fields, f)
}

func soleIDMatch(candidates []Candidate) (Candidate, bool) {
	var (
		match Candidate
		n     int
	)
	for _, c := range candidates {
		if c.idMatch {
			match = c
			n++
		}
	}
	return match, n == 1
}

// ParseIdentifiers splits a query on commas into unique, trimmed,
// lower-cased identifiers.
func ParseIdentifiers(query string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, part := range strings.Split(query, ",") {
		ident := strings.ToLower(strings.TrimSpace(part))
		if ident == "" || seen[ident] {
			continue
		}
		seen[ident] = true
		out = append(out, ident)
	}
	return out
}
