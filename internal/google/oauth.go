package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmail "google.golang.org/api/gmail/v1"
)

// Scopes are the permissions mailpilot requests: reading and sending mail.
var Scopes = []string{
	gmail.GmailReadonlyScope,
	gmail.GmailSendScope,
}

// ErrNoToken is returned when no token has been saved for an account.
var ErrNoToken = errors.New("no Google OAuth token found, run 'mailpilot auth url' first")

var accountNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

func validateAccountName(account string) error {
	if account == "" {
		return fmt.Errorf("account name cannot be empty")
	}
	if !accountNamePattern.MatchString(account) {
		return fmt.Errorf("invalid account name %q: only letters, digits, hyphens and underscores are allowed", account)
	}
	return nil
}

// LoadConfig reads an OAuth client-secret JSON file.
func LoadConfig(credentialsFile string) (*oauth2.Config, error) {
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read OAuth client file: %w", err)
	}
	conf, err := google.ConfigFromJSON(data, Scopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse OAuth client file: %w", err)
	}
	return conf, nil
}

// DefaultTokenDir returns <user cache dir>/mailpilot.
func DefaultTokenDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "mailpilot")
}

// Auth manages the token of one named account.
type Auth struct {
	config  *oauth2.Config
	account string
	dir     string
}

// NewAuth returns an Auth storing tokens in dir. An empty dir means
// DefaultTokenDir.
func NewAuth(config *oauth2.Config, account, dir string) (*Auth, error) {
	if config == nil {
		return nil, fmt.Errorf("oauth config is required")
	}
	if err := validateAccountName(account); err != nil {
		return nil, err
	}
	if dir == "" {
		dir = DefaultTokenDir()
	}
	return &Auth{config: config, account: account, dir: dir}, nil
}

// TokenPath returns the token file of the account.
func (a *Auth) TokenPath() string {
	return filepath.Join(a.dir, "google-"+a.account+".token")
}

// HasToken reports whether a token file exists.
func (a *Auth) HasToken() bool {
	_, err := os.Stat(a.TokenPath())
	return err == nil
}

// AuthCodeURL returns the consent URL. Offline access is requested so the
// token carries a refresh token.
func (a *Auth) AuthCodeURL() string {
	return a.config.AuthCodeURL("mailpilot", oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// Exchange trades an authorization code for a token and saves it.
func (a *Auth) Exchange(ctx context.Context, code string) error {
	tok, err := a.config.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("failed to exchange auth code: %w", err)
	}
	return a.saveToken(tok)
}

// TokenSource returns a refreshing token source for the saved token.
func (a *Auth) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	tok, err := a.loadToken()
	if err != nil {
		return nil, err
	}
	return &persistingTokenSource{
		base: a.config.TokenSource(ctx, tok),
		last: tok,
		save: a.saveToken,
	}, nil
}

// HTTPClient returns an authenticated client. HTTP/2 is disabled, the Gmail
// API occasionally resets long-lived HTTP/2 streams.
func (a *Auth) HTTPClient(ctx context.Context) (*http.Client, error) {
	ts, err := a.TokenSource(ctx)
	if err != nil {
		return nil, err
	}
	client := oauth2.NewClient(ctx, ts)
	if transport, ok := client.Transport.(*oauth2.Transport); ok {
		transport.Base = &http.Transport{
			Proxy:             http.ProxyFromEnvironment,
			ForceAttemptHTTP2: false,
		}
	}
	return client, nil
}

func (a *Auth) loadToken() (*oauth2.Token, error) {
	data, err := os.ReadFile(a.TokenPath())
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoToken
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("invalid token file %s: %w", a.TokenPath(), err)
	}
	if tok.AccessToken == "" && tok.RefreshToken == "" {
		return nil, fmt.Errorf("invalid token file %s: no access or refresh token", a.TokenPath())
	}
	return &tok, nil
}

func (a *Auth) saveToken(tok *oauth2.Token) error {
	if err := os.MkdirAll(a.dir, 0o700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}
	data, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	if err := os.WriteFile(a.TokenPath(), data, 0o600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

// persistingTokenSource writes refreshed tokens back to disk.
type persistingTokenSource struct {
	mu   sync.Mutex
	base oauth2.TokenSource
	last *oauth2.Token
	save func(*oauth2.Token) error
}

func (s *persistingTokenSource) Token() (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tok, err := s.base.Token()
	if err != nil {
		return nil, err
	}
	if s.last == nil || tok.AccessToken != s.last.AccessToken {
		if err := s.save(tok); err != nil {
			return nil, err
		}
		s.last = tok
	}
	return tok, nil
}
