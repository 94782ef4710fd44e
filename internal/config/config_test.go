package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"GEMINI_API_KEY", "GOOGLE_API_KEY", "MAILPILOT_MODEL_API_KEY", "MAILPILOT_BACKEND", "MAILPILOT_USER_ID", "MAILPILOT_IMAP_HOST"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, BackendGmail, cfg.Backend)
	assert.Equal(t, "me", cfg.UserID)
	assert.Equal(t, "gemini-2.5-flash", cfg.Model.Dispatcher)
	assert.Equal(t, "gemini-2.5-flash-lite", cfg.Model.Synthesis)
	assert.Equal(t, 8, cfg.Model.MaxRounds)
	assert.Equal(t, 50, cfg.Categorize.MaxGenerativeBatch)
	assert.Equal(t, 993, cfg.IMAP.Port)
	assert.Equal(t, "INBOX", cfg.IMAP.Mailbox)
	assert.Equal(t, "default", cfg.Gmail.Account)
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `backend: imap
compose:
  signature: Jane
imap:
  host: imap.example.com
  username: jane@example.com
  smtp_host: smtp.example.com
categorize:
  max_generative_batch: 20
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, BackendIMAP, cfg.Backend)
	assert.Equal(t, "Jane", cfg.Compose.Signature)
	assert.Equal(t, "imap.example.com", cfg.IMAP.Host)
	assert.Equal(t, "jane@example.com", cfg.IMAP.From, "from defaults to username")
	assert.Equal(t, 20, cfg.Categorize.MaxGenerativeBatch)
	assert.Equal(t, 465, cfg.IMAP.SMTPPort)
}

func TestLoad_InvalidYAML(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backend: [unterminated"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config")
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("MAILPILOT_BACKEND", "imap")
	t.Setenv("MAILPILOT_IMAP_HOST", "imap.env.example")
	t.Setenv("GEMINI_API_KEY", "from-env")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, BackendIMAP, cfg.Backend)
	assert.Equal(t, "imap.env.example", cfg.IMAP.Host)
	assert.Equal(t, "from-env", cfg.Model.APIKey)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		errContains string
	}{
		{
			name:        "gmail without credentials",
			mutate:      func(c *Config) {},
			errContains: "gmail.credentials_file",
		},
		{
			name:   "gmail ok",
			mutate: func(c *Config) { c.Gmail.CredentialsFile = "client.json" },
		},
		{
			name:        "imap missing fields",
			mutate:      func(c *Config) { c.Backend = BackendIMAP; c.IMAP.Host = "imap.example.com" },
			errContains: "imap.username, imap.password, imap.smtp_host",
		},
		{
			name: "imap ok",
			mutate: func(c *Config) {
				c.Backend = BackendIMAP
				c.IMAP.Host = "imap.example.com"
				c.IMAP.Username = "u"
				c.IMAP.Password = "p"
				c.IMAP.SMTPHost = "smtp.example.com"
			},
		},
		{
			name:        "unknown backend",
			mutate:      func(c *Config) { c.Backend = "pop3" },
			errContains: `unknown backend "pop3"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.errContains == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}

type mapSecrets map[string]string

func (m mapSecrets) Get(key string) (string, error) {
	v, ok := m[key]
	if !ok {
		return "", errors.New("not found")
	}
	return v, nil
}

func TestResolveSecrets(t *testing.T) {
	secrets := mapSecrets{SecretModelAPIKey: "ring-key", SecretIMAPPassword: "ring-pass"}

	cfg := &Config{Backend: BackendIMAP}
	cfg.ResolveSecrets(secrets)
	assert.Equal(t, "ring-key", cfg.Model.APIKey)
	assert.Equal(t, "ring-pass", cfg.IMAP.Password)

	explicit := &Config{Backend: BackendGmail, Model: ModelConfig{APIKey: "explicit"}}
	explicit.ResolveSecrets(secrets)
	assert.Equal(t, "explicit", explicit.Model.APIKey)
	assert.Empty(t, explicit.IMAP.Password, "imap password only resolved for the imap backend")

	missing := &Config{Backend: BackendIMAP}
	missing.ResolveSecrets(mapSecrets{})
	assert.Empty(t, missing.Model.APIKey)

	(&Config{}).ResolveSecrets(nil)
}
