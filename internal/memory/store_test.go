package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/mailpilot/internal/mailbox"
)

func TestStore_SetDropsEmptyIDs(t *testing.T) {
	s := New(nil)
	s.Set([]mailbox.Record{
		{ID: "a", Subject: "first"},
		{ID: "  ", Subject: "blank"},
		{ID: "", Subject: "missing"},
		{ID: "b", Subject: "second"},
	})

	got := s.Get()
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "b", got[1].ID)
	assert.Equal(t, 2, s.Len())
}

func TestStore_SetReplaces(t *testing.T) {
	s := New(nil)
	s.Set([]mailbox.Record{{ID: "a"}, {ID: "b"}})
	s.Set([]mailbox.Record{{ID: "c"}})

	got := s.Get()
	require.Len(t, got, 1)
	assert.Equal(t, "c", got[0].ID)

	_, ok := s.FindByID("a")
	assert.False(t, ok)
}

func TestStore_GetReturnsCopy(t *testing.T) {
	s := New(nil)
	s.Set([]mailbox.Record{{ID: "a", Subject: "orig", Links: []string{"https://x"}}})

	got := s.Get()
	got[0].Subject = "changed"
	got[0].Links[0] = "https://y"

	again := s.Get()
	assert.Equal(t, "orig", again[0].Subject)
	assert.Equal(t, "https://x", again[0].Links[0])
}

func TestStore_Empty(t *testing.T) {
	s := New(nil)
	assert.Empty(t, s.Get())
	assert.Equal(t, 0, s.Len())

	_, ok := s.FindByID("a")
	assert.False(t, ok)
}

func TestStore_FindByID(t *testing.T) {
	s := New(nil)
	s.Set([]mailbox.Record{{ID: "a", From: "x@example.com"}, {ID: "b"}})

	r, ok := s.FindByID("a")
	require.True(t, ok)
	assert.Equal(t, "x@example.com", r.From)
}
