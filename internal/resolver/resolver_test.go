package resolver

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/mailpilot/internal/mailbox"
)

type staticSource []mailbox.Record

func (s staticSource) Get() []mailbox.Record { return append([]mailbox.Record(nil), s...) }

var scenario = staticSource{
	{ID: "1", From: "Alice <a@x.com>", Subject: "Weekly digest"},
	{ID: "2", From: "Bob <b@x.com>", Subject: "Project update"},
}

func TestParseIdentifiers(t *testing.T) {
	got := ParseIdentifiers(" Alice@X.com, project update,, ,alice@x.com ")
	want := []string{"alice@x.com", "project update"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseIdentifiers() mismatch (-want +got):\n%s", diff)
	}
	assert.Empty(t, ParseIdentifiers(" , ,"))
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name   string
		source staticSource
		query  string
		kind   Kind
		wantID string
		wantN  int
	}{
		{
			name:   "sole subject match",
			source: scenario,
			query:  "project",
			kind:   Unique,
			wantID: "2",
		},
		{
			name:   "sender beats subject decisively",
			source: scenario,
			query:  "a@x.com, update",
			kind:   Unique,
			wantID: "1",
		},
		{
			name:   "shared domain is ambiguous",
			source: scenario,
			query:  "x.com",
			kind:   Ambiguous,
			wantN:  2,
		},
		{
			name:   "no match",
			source: scenario,
			query:  "invoice",
			kind:   NotFound,
		},
		{
			name:   "empty query",
			source: scenario,
			query:  " , ",
			kind:   NotFound,
		},
		{
			name:   "empty source",
			source: nil,
			query:  "alice",
			kind:   NotFound,
		},
		{
			name: "exact id is authoritative",
			source: staticSource{
				{ID: "abc", From: "x@example.com", Subject: "abc abc"},
				{ID: "zzz", From: "abc@example.com", Subject: "abc", Snippet: "abc"},
			},
			query:  "ABC",
			kind:   Unique,
			wantID: "abc",
		},
		{
			name: "id beats subject-only match",
			source: staticSource{
				{ID: "m2", Subject: "about m1"},
				{ID: "m1", Subject: "hello"},
			},
			query:  "m1",
			kind:   Unique,
			wantID: "m1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := New(tt.source).Resolve(tt.query)
			require.Equal(t, tt.kind, res.Kind, "kind")
			switch tt.kind {
			case Unique:
				assert.Equal(t, tt.wantID, res.Record.ID)
				assert.Empty(t, res.Candidates)
			case Ambiguous:
				assert.Len(t, res.Candidates, tt.wantN)
			}
		})
	}
}

func TestResolve_AmbiguousOrderingAndCap(t *testing.T) {
	source := staticSource{
		{ID: "1", From: "team@corp.com", Subject: "Lunch", Snippet: "team lunch"},
		{ID: "2", From: "team@corp.com", Subject: "Team lunch", Snippet: "team offsite"},
		{ID: "3", From: "hr@corp.com", Subject: "Team"},
		{ID: "4", From: "team@corp.com", Subject: "Hello"},
		{ID: "5", From: "someone@corp.com", Snippet: "the team"},
	}

	res := New(source).Resolve("team")
	require.Equal(t, Ambiguous, res.Kind)
	require.Len(t, res.Candidates, 3)
	assert.Equal(t, 5, res.Total)
	assert.True(t, strings.HasPrefix(res.Message("team"), `Found 5 emails matching "team".`))
	assert.Equal(t, 3, strings.Count(res.Message("team"), "\n- ID: "))

	// 2 scores 90, not decisively above 1 at 60; 4 follows at 50.
	ids := []string{res.Candidates[0].Record.ID, res.Candidates[1].Record.ID, res.Candidates[2].Record.ID}
	assert.Equal(t, []string{"2", "1", "4"}, ids)
	assert.Equal(t, 90, res.Candidates[0].Score)
	assert.Equal(t, 60, res.Candidates[1].Score)
	assert.Equal(t, []Field{FieldFrom, FieldSubject, FieldSnippet}, res.Candidates[0].Fields)
}

func TestResolve_TieBrokenByFieldCount(t *testing.T) {
	// Both score 60, the second through two distinct fields.
	source := staticSource{
		{ID: "1", Subject: "alpha beta"},
		{ID: "2", Subject: "alpha", Snippet: "beta"},
	}
	w := DefaultWeights()
	w.Subject = 30
	w.Snippet = 30

	res := NewWithWeights(source, w).Resolve("alpha, beta")
	require.Equal(t, Ambiguous, res.Kind)
	assert.Equal(t, "2", res.Candidates[0].Record.ID)
	assert.Equal(t, "1", res.Candidates[1].Record.ID)
}

func TestResolve_Deterministic(t *testing.T) {
	r := New(scenario)
	first := r.Resolve("x.com")
	for i := 0; i < 10; i++ {
		if diff := cmp.Diff(first, r.Resolve("x.com"), cmp.AllowUnexported(Candidate{})); diff != "" {
			t.Fatalf("Resolve() not deterministic (-first +again):\n%s", diff)
		}
	}
}

func TestResult_Message(t *testing.T) {
	notFound := Result{Kind: NotFound}.Message("invoice")
	assert.Equal(t, `Error: The email matching "invoice" could not be found in the recent context.`, notFound)

	amb := New(scenario).Resolve("x.com")
	msg := amb.Message("x.com")
	assert.True(t, strings.HasPrefix(msg, `Found 2 emails matching "x.com". Please use a more specific phrase or the unique ID.`))
	assert.Contains(t, msg, "Subject: Weekly digest")
	assert.Contains(t, msg, "From: Bob <b@x.com>")

	assert.Empty(t, Result{Kind: Unique}.Message("x"))
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "unique", Unique.String())
	assert.Equal(t, "ambiguous", Ambiguous.String())
	assert.Equal(t, "not_found", NotFound.String())
}
