package mail_tools

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/mailpilot/internal/categorize"
	"github.com/teemow/mailpilot/internal/mailbox"
	"github.com/teemow/mailpilot/internal/memory"
)

var inbox = []mailbox.Record{
	{ID: "1", From: "Alice <a@x.com>", Subject: "Weekly digest", Snippet: "top stories", Links: []string{"https://x.com/1"}, Permalink: "https://mail.google.com/mail/u/0/#inbox/1"},
	{ID: "2", From: "Bob <b@x.com>", Subject: "Project update", Snippet: "status"},
}

func TestDecodeFetchArgs(t *testing.T) {
	tests := []struct {
		name      string
		args      map[string]any
		wantLimit int
		wantToken string
		wantErr   string
	}{
		{name: "defaults", args: map[string]any{"userId": "me"}, wantLimit: 10},
		{name: "explicit", args: map[string]any{"userId": "me", "limit": 25.0, "pageToken": "abc"}, wantLimit: 25, wantToken: "abc"},
		{name: "null token", args: map[string]any{"userId": "me", "pageToken": nil}, wantLimit: 10},
		{name: "zero limit", args: map[string]any{"userId": "me", "limit": 0.0}, wantLimit: 10},
		{name: "missing user", args: map[string]any{}, wantErr: "invalid arguments for fetchEmails: userId is required"},
		{name: "too many", args: map[string]any{"userId": "me", "limit": 501.0}, wantErr: "limit must be at most 500"},
		{name: "huge limit", args: map[string]any{"userId": "me", "limit": 1e300}, wantErr: "limit must be at most 500"},
		{name: "huge negative limit", args: map[string]any{"userId": "me", "limit": -1e300}, wantErr: "limit must be at most 500"},
		{name: "bad limit", args: map[string]any{"userId": "me", "limit": "lots"}, wantErr: "limit must be a number"},
		{name: "bad token", args: map[string]any{"userId": "me", "pageToken": 5.0}, wantErr: "pageToken must be a string"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeFetchArgs(tt.args)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantLimit, got.Limit)
			assert.Equal(t, tt.wantToken, got.Token())
		})
	}
}

func newFetch(mb *fakeMailbox) (*Fetch, *memory.Store) {
	store := memory.New(nil)
	return NewFetch(mb, store, categorize.New(nil, categorize.Options{}), nil), store
}

func TestFetch_Execute(t *testing.T) {
	mb := &fakeMailbox{page: mailbox.Page{Records: inbox, NextToken: "XYZ"}}
	f, store := newFetch(mb)

	res := f.Execute(context.Background(), map[string]any{"userId": "me", "pageToken": "prev"})
	require.False(t, res.IsError, res.Text)

	require.Len(t, mb.lists, 1)
	assert.Equal(t, listCall{userID: "me", limit: 10, token: "prev"}, mb.lists[0])
	assert.Equal(t, 2, store.Len())

	assert.True(t, strings.HasSuffix(res.Text, "\n\n---NEXT_PAGE_TOKEN_START---XYZ---NEXT_PAGE_TOKEN_END---"))
	token, ok := mailbox.ParsePageToken(res.Text)
	require.True(t, ok)
	assert.Equal(t, "XYZ", token)

	jsonPart := res.Text[:strings.Index(res.Text, "\n\n"+mailbox.TokenStart)]
	var decoded map[string][]mailbox.Record
	require.NoError(t, json.Unmarshal([]byte(jsonPart), &decoded))
	assert.Len(t, decoded, 6)
	require.Len(t, decoded[categorize.Newsletters], 1)
	assert.Equal(t, "top stories", decoded[categorize.Newsletters][0].Summary)
	assert.Equal(t, "https://mail.google.com/mail/u/0/#inbox/1", decoded[categorize.Newsletters][0].Permalink)
	assert.Len(t, decoded[categorize.Work], 1)
}

func TestFetch_StoresRawRecords(t *testing.T) {
	mb := &fakeMailbox{page: mailbox.Page{Records: inbox}}
	f, store := newFetch(mb)

	res := f.Execute(context.Background(), map[string]any{"userId": "me"})
	require.False(t, res.IsError)
	assert.NotContains(t, res.Text, mailbox.TokenStart)

	for _, r := range store.Get() {
		assert.Empty(t, r.Summary, "store holds records before categorization")
	}
}

func TestFetch_NoEmailsLeavesCache(t *testing.T) {
	mb := &fakeMailbox{}
	f, store := newFetch(mb)
	store.Set(inbox)

	res := f.Execute(context.Background(), map[string]any{"userId": "me"})
	assert.Equal(t, "No emails found.", res.Text)
	assert.False(t, res.IsError)
	assert.Equal(t, 2, store.Len())
}

func TestFetch_ListError(t *testing.T) {
	mb := &fakeMailbox{listErr: errors.New("token expired")}
	f, store := newFetch(mb)

	res := f.Execute(context.Background(), map[string]any{"userId": "me"})
	assert.True(t, res.IsError)
	assert.Equal(t, "Failed to fetch emails. Error: token expired", res.Text)
	assert.Equal(t, 0, store.Len())
}

func TestFetch_InvalidArgsNoSideEffects(t *testing.T) {
	mb := &fakeMailbox{page: mailbox.Page{Records: inbox}}
	f, _ := newFetch(mb)

	res := f.Execute(context.Background(), map[string]any{"limit": 5.0})
	assert.True(t, res.IsError)
	assert.Equal(t, "Error: invalid arguments for fetchEmails: userId is required", res.Text)
	assert.Empty(t, mb.lists)
}

func TestFetch_Definition(t *testing.T) {
	def := (&Fetch{}).Definition()
	assert.Equal(t, "fetchEmails", def.Name)
	assert.Equal(t, []string{"userId"}, def.InputSchema["required"])
}
