// Package credential keeps mailpilot secrets in the OS keyring.
package credential

import (
	"errors"
	"fmt"

	"github.com/99designs/keyring"
)

const serviceName = "mailpilot"

// Well-known secret keys.
const (
	GeminiAPIKey = "gemini-api-key"
	IMAPPassword = "imap-password"
)

// Keys lists the secrets mailpilot reads from the keyring.
var Keys = []string{GeminiAPIKey, IMAPPassword}

// ErrNotFound is returned when the keyring has no item for a key.
var ErrNotFound = errors.New("credential not found")

// Store reads and writes secrets in a keyring.
type Store struct {
	ring keyring.Keyring
}

// Open opens the platform keyring, falling back to an encrypted file under
// ~/.config/mailpilot/credentials.
func Open() (*Store, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/mailpilot/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("mailpilot-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return New(ring), nil
}

// New wraps an already opened keyring.
func New(ring keyring.Keyring) *Store {
	return &Store{ring: ring}
}

// Get retrieves a secret. A missing key yields an error wrapping ErrNotFound.
func (s *Store) Get(key string) (string, error) {
	item, err := s.ring.Get(key)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", fmt.Errorf("getting credential %q: %w", key, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", key, err)
	}
	return string(item.Data), nil
}

// Set stores a secret.
func (s *Store) Set(key, value string) error {
	if !IsKnown(key) {
		return fmt.Errorf("unknown credential %q (known: %v)", key, Keys)
	}
	if err := s.ring.Set(keyring.Item{Key: key, Data: []byte(value), Label: "mailpilot " + key}); err != nil {
		return fmt.Errorf("setting credential %q: %w", key, err)
	}
	return nil
}

// Delete removes a secret.
func (s *Store) Delete(key string) error {
	if err := s.ring.Remove(key); err != nil {
		return fmt.Errorf("deleting credential %q: %w", key, err)
	}
	return nil
}

// IsKnown reports whether key is one of Keys.
func IsKnown(key string) bool {
	for _, k := range Keys {
		if k == key {
			return true
		}
	}
	return false
}
