// Package config loads mailpilot settings from a YAML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Backends a user can select.
const (
	BackendGmail = "gmail"
	BackendIMAP  = "imap"
)

// EnvPrefix prefixes environment overrides, e.g. MAILPILOT_BACKEND.
const EnvPrefix = "MAILPILOT"

// ModelConfig holds the language-model settings.
type ModelConfig struct {
	APIKey         string `mapstructure:"api_key" yaml:"api_key"`
	Dispatcher     string `mapstructure:"dispatcher" yaml:"dispatcher"`
	Synthesis      string `mapstructure:"synthesis" yaml:"synthesis"`
	Classification string `mapstructure:"classification" yaml:"classification"`
	MaxRounds      int    `mapstructure:"max_rounds" yaml:"max_rounds"`
}

// ComposeConfig holds reply-writing settings.
type ComposeConfig struct {
	// Signature is the sign-off name added to generated bodies.
	Signature string `mapstructure:"signature" yaml:"signature"`
}

// CategorizeConfig holds classifier settings.
type CategorizeConfig struct {
	MaxGenerativeBatch int `mapstructure:"max_generative_batch" yaml:"max_generative_batch"`
}

// GmailConfig holds Gmail API settings.
type GmailConfig struct {
	// CredentialsFile is the OAuth client-secret JSON downloaded from the
	// Google Cloud console.
	CredentialsFile string `mapstructure:"credentials_file" yaml:"credentials_file"`
	Account         string `mapstructure:"account" yaml:"account"`
}

// IMAPConfig holds IMAP and SMTP settings.
type IMAPConfig struct {
	Host     string `mapstructure:"host" yaml:"host"`
	Port     int    `mapstructure:"port" yaml:"port"`
	Username string `mapstructure:"username" yaml:"username"`
	Password string `mapstructure:"password" yaml:"password"`
	Mailbox  string `mapstructure:"mailbox" yaml:"mailbox"`
	SMTPHost string `mapstructure:"smtp_host" yaml:"smtp_host"`
	SMTPPort int    `mapstructure:"smtp_port" yaml:"smtp_port"`
	// From defaults to Username.
	From string `mapstructure:"from" yaml:"from"`
}

// Config is the top-level application configuration.
type Config struct {
	Backend     string           `mapstructure:"backend" yaml:"backend"`
	UserID      string           `mapstructure:"user_id" yaml:"user_id"`
	Model       ModelConfig      `mapstructure:"model" yaml:"model"`
	Compose     ComposeConfig    `mapstructure:"compose" yaml:"compose"`
	Categorize  CategorizeConfig `mapstructure:"categorize" yaml:"categorize"`
	Gmail       GmailConfig      `mapstructure:"gmail" yaml:"gmail"`
	IMAP        IMAPConfig       `mapstructure:"imap" yaml:"imap"`
	MetricsAddr string           `mapstructure:"metrics_addr" yaml:"metrics_addr"`
}

var defaults = map[string]any{
	"backend":                         BackendGmail,
	"user_id":                         "me",
	"model.api_key":                   "",
	"model.dispatcher":                "gemini-2.5-flash",
	"model.synthesis":                 "gemini-2.5-flash-lite",
	"model.classification":            "gemini-2.5-flash-lite",
	"model.max_rounds":                8,
	"compose.signature":               "",
	"categorize.max_generative_batch": 50,
	"gmail.credentials_file":          "",
	"gmail.account":                   "default",
	"imap.host":                       "",
	"imap.port":                       993,
	"imap.username":                   "",
	"imap.password":                   "",
	"imap.mailbox":                    "INBOX",
	"imap.smtp_host":                  "",
	"imap.smtp_port":                  465,
	"imap.from":                       "",
	"metrics_addr":                    "",
}

// DefaultConfigPath returns ~/.config/mailpilot/config.yaml.
func DefaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(dir, "mailpilot", "config.yaml")
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		// defaults alone always decode
		panic(err)
	}
	return cfg
}

// Load reads the YAML file at path, applies MAILPILOT_* environment
// overrides and fills defaults. A missing file is not an error. An empty
// path skips the file.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("model.api_key", EnvPrefix+"_MODEL_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY"); err != nil {
		return nil, fmt.Errorf("binding api key environment: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil && !isNotExist(err) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if cfg.IMAP.From == "" {
		cfg.IMAP.From = cfg.IMAP.Username
	}
	return cfg, nil
}

func isNotExist(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)
}

// Validate checks the settings the selected backend needs.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendGmail:
		if c.Gmail.CredentialsFile == "" {
			return errors.New("gmail.credentials_file is required for the gmail backend")
		}
	case BackendIMAP:
		var missing []string
		if c.IMAP.Host == "" {
			missing = append(missing, "imap.host")
		}
		if c.IMAP.Username == "" {
			missing = append(missing, "imap.username")
		}
		if c.IMAP.Password == "" {
			missing = append(missing, "imap.password")
		}
		if c.IMAP.SMTPHost == "" {
			missing = append(missing, "imap.smtp_host")
		}
		if len(missing) > 0 {
			return fmt.Errorf("missing settings for the imap backend: %s", strings.Join(missing, ", "))
		}
	default:
		return fmt.Errorf("unknown backend %q (want %s or %s)", c.Backend, BackendGmail, BackendIMAP)
	}
	return nil
}

// SecretGetter reads a named secret, for example from the OS keyring.
type SecretGetter interface {
	Get(key string) (string, error)
}

// Secret keys looked up by ResolveSecrets.
const (
	SecretModelAPIKey  = "gemini-api-key"
	SecretIMAPPassword = "imap-password"
)

// ResolveSecrets fills secrets left empty by the file and the environment
// from secrets. Lookup failures leave the field empty.
func (c *Config) ResolveSecrets(secrets SecretGetter) {
	if secrets == nil {
		return
	}
	fill := func(dst *string, key string) {
		if *dst != "" {
			return
		}
		if v, err := secrets.Get(key); err == nil {
			*dst = v
		}
	}
	fill(&c.Model.APIKey, SecretModelAPIKey)
	if c.Backend == BackendIMAP {
		fill(&c.IMAP.Password, SecretIMAPPassword)
	}
}
