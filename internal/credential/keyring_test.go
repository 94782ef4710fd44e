package credential

import (
	"errors"
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_RoundTrip(t *testing.T) {
	s := New(keyring.NewArrayKeyring(nil))

	require.NoError(t, s.Set(GeminiAPIKey, "secret-value"))

	got, err := s.Get(GeminiAPIKey)
	require.NoError(t, err)
	assert.Equal(t, "secret-value", got)

	require.NoError(t, s.Delete(GeminiAPIKey))
	_, err = s.Get(GeminiAPIKey)
	assert.True(t, errors.Is(err, ErrNotFound), "got %v", err)
}

func TestStore_GetMissing(t *testing.T) {
	s := New(keyring.NewArrayKeyring(nil))

	_, err := s.Get(IMAPPassword)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), IMAPPassword)
}

func TestStore_SetUnknownKey(t *testing.T) {
	s := New(keyring.NewArrayKeyring(nil))

	err := s.Set("github-token", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown credential")
}

func TestIsKnown(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{GeminiAPIKey, true},
		{IMAPPassword, true},
		{"", false},
		{"other", false},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, IsKnown(tt.key))
		})
	}
}
