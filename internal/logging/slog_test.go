package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestWithHelpersAcceptNil(t *testing.T) {
	if WithComponent(nil, "agent") == nil {
		t.Error("WithComponent returned nil")
	}
	if WithOperation(nil, "list") == nil {
		t.Error("WithOperation returned nil")
	}
	if WithTool(slog.Default(), "fetchEmails") == nil {
		t.Error("WithTool returned nil")
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		debug     bool
		wantDebug bool
	}{
		{"info level", false, false},
		{"debug level", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := New(&buf, tt.debug)
			logger.Debug("hidden or not")
			got := strings.Contains(buf.String(), "hidden or not")
			if got != tt.wantDebug {
				t.Errorf("debug line written = %v, want %v", got, tt.wantDebug)
			}
		})
	}
}

func TestAttrs(t *testing.T) {
	tests := []struct {
		name    string
		attr    slog.Attr
		wantKey string
		wantVal string
	}{
		{"operation", Operation("list"), KeyOperation, "list"},
		{"backend", Backend("imap"), KeyBackend, "imap"},
		{"tool", Tool("sendEmail"), KeyTool, "sendEmail"},
		{"turn", Turn("abc"), KeyTurn, "abc"},
		{"count", Count(3), KeyCount, "3"},
		{"attempt", Attempt(2), KeyAttempt, "2"},
		{"status", Status(StatusSuccess), KeyStatus, "success"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.attr.Key != tt.wantKey {
				t.Errorf("key = %q, want %q", tt.attr.Key, tt.wantKey)
			}
			if tt.attr.Value.String() != tt.wantVal {
				t.Errorf("value = %q, want %q", tt.attr.Value.String(), tt.wantVal)
			}
		})
	}
}

func TestErr(t *testing.T) {
	attr := Err(errors.New("boom"))
	if attr.Key != KeyError || attr.Value.String() != "boom" {
		t.Errorf("Err = %v, want error=boom", attr)
	}

	// nil yields an empty group that slog omits
	attr = Err(nil)
	if attr.Key != "" {
		t.Errorf("Err(nil) key = %q, want empty", attr.Key)
	}
}

func TestAnonymizeEmail(t *testing.T) {
	if got := AnonymizeEmail(""); got != "" {
		t.Errorf("AnonymizeEmail(\"\") = %q, want empty", got)
	}

	got := AnonymizeEmail("jane@example.com")
	if len(got) != 21 || !strings.HasPrefix(got, "user:") {
		t.Errorf("AnonymizeEmail = %q, want user: + 16 hex chars", got)
	}

	if AnonymizeEmail("Jane@Example.com ") != got {
		t.Error("AnonymizeEmail should normalize case and whitespace")
	}
	if AnonymizeEmail("other@example.com") == got {
		t.Error("different emails should produce different hashes")
	}
}

func TestUserHash(t *testing.T) {
	attr := UserHash("jane@example.com")
	if attr.Key != KeyUserHash {
		t.Errorf("UserHash key = %q, want %q", attr.Key, KeyUserHash)
	}
}

func TestSanitizeToken(t *testing.T) {
	tests := []struct {
		token    string
		expected string
	}{
		{"", "<empty>"},
		{"abc123", "[token:6 chars]"},
		{"a_very_long_token_string", "[token:24 chars]"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := SanitizeToken(tt.token); got != tt.expected {
				t.Errorf("SanitizeToken(%q) = %q, want %q", tt.token, got, tt.expected)
			}
		})
	}
}

func TestExtractDomain(t *testing.T) {
	tests := []struct {
		email    string
		expected string
	}{
		{"jane@example.com", "example.com"},
		{"Jane Doe <jane@example.com>", "example.com"},
		{"invalid", ""},
		{"", ""},
		{"user@", ""},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			if got := ExtractDomain(tt.email); got != tt.expected {
				t.Errorf("ExtractDomain(%q) = %q, want %q", tt.email, got, tt.expected)
			}
		})
	}
}

func TestDomain(t *testing.T) {
	attr := Domain("jane@example.com")
	if attr.Key != "user_domain" || attr.Value.String() != "example.com" {
		t.Errorf("Domain = %v", attr)
	}
}
