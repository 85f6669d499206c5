package google

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmail "google.golang.org/api/gmail/v1"

	"github.com/teemow/gmailsend/internal/logging"
)

// ErrMissingCredentials indicates the OAuth client credentials file
// could not be read. This is a configuration problem, not an auth one.
var ErrMissingCredentials = errors.New("credentials file not found")

// ErrAuthorization indicates the refresh or authorization exchange with
// Google failed.
var ErrAuthorization = errors.New("authorization failed")

// DefaultScopes is the scope set requested during authorization.
// Full Gmail access includes send.
var DefaultScopes = []string{gmail.MailGoogleComScope}

// refreshFunc exchanges an expired token carrying a refresh token for a
// fresh one.
type refreshFunc func(ctx context.Context, conf *oauth2.Config, tok *oauth2.Token) (*oauth2.Token, error)

// authorizeFunc runs a full authorization flow and returns a new token.
type authorizeFunc func(ctx context.Context, conf *oauth2.Config) (*oauth2.Token, error)

// Manager produces valid OAuth tokens for the Gmail API, caching them in
// a token file across runs.
type Manager struct {
	credentialsFile string
	tokenFile       string
	scopes          []string
	logger          *slog.Logger

	// Prompt I/O for the interactive flow.
	authIn  io.Reader
	authOut io.Writer

	// Injection points for tests.
	refresh   refreshFunc
	authorize authorizeFunc
}

// Option configures a Manager.
type Option func(*Manager)

// WithScopes overrides the OAuth scopes requested during authorization.
func WithScopes(scopes ...string) Option {
	return func(m *Manager) {
		m.scopes = scopes
	}
}

// WithLogger sets the logger used by the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithAuthPrompt redirects the interactive flow's prompt and code input.
func WithAuthPrompt(in io.Reader, out io.Writer) Option {
	return func(m *Manager) {
		m.authIn = in
		m.authOut = out
	}
}

// withRefresh replaces the token refresh call. Test seam.
func withRefresh(fn refreshFunc) Option {
	return func(m *Manager) {
		m.refresh = fn
	}
}

// withAuthorize replaces the interactive authorization flow. Test seam.
func withAuthorize(fn authorizeFunc) Option {
	return func(m *Manager) {
		m.authorize = fn
	}
}

// NewManager creates a token Manager reading the OAuth client definition
// from credentialsFile and caching tokens in tokenFile.
func NewManager(credentialsFile, tokenFile string, opts ...Option) *Manager {
	m := &Manager{
		credentialsFile: credentialsFile,
		tokenFile:       tokenFile,
		scopes:          DefaultScopes,
		logger:          slog.Default(),
		authIn:          os.Stdin,
		authOut:         os.Stderr,
	}
	m.refresh = defaultRefresh
	m.authorize = m.promptAuthorize
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// TokenFile returns the path the Manager caches tokens in.
func (m *Manager) TokenFile() string {
	return m.tokenFile
}

// Config parses the credentials file into the OAuth2 client config used
// to build authenticated HTTP clients.
func (m *Manager) Config() (*oauth2.Config, error) {
	return m.oauthConfig()
}

// Token returns a valid, unexpired OAuth token.
//
// A cached unexpired token is returned as-is without touching the
// network. An expired token with a refresh token is refreshed exactly
// once and persisted. Anything else falls through to the interactive
// authorization flow. Errors propagate to the caller; nothing retries.
func (m *Manager) Token(ctx context.Context) (*oauth2.Token, error) {
	tok := loadToken(m.tokenFile)

	if tok != nil && tok.Valid() {
		m.logger.Debug("using cached token", logging.File(m.tokenFile))
		return tok, nil
	}

	if tok != nil && tok.RefreshToken != "" {
		return m.refreshToken(ctx, tok)
	}

	return m.Authorize(ctx)
}

// Authorize runs the full authorization flow regardless of any cached
// token and persists the result. Used by the auth command and as the
// fallback when no cached token is usable.
func (m *Manager) Authorize(ctx context.Context) (*oauth2.Token, error) {
	conf, err := m.oauthConfig()
	if err != nil {
		return nil, err
	}

	m.logger.Info("starting interactive authorization",
		logging.Operation("authorize"))

	tok, err := m.authorize(ctx, conf)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthorization, err)
	}

	if err := saveToken(m.tokenFile, tok); err != nil {
		return nil, err
	}

	m.logger.Info("authorization complete",
		logging.Operation("authorize"), logging.Status(logging.StatusSuccess))
	return tok, nil
}

// refreshToken performs a single refresh and persists the new token.
func (m *Manager) refreshToken(ctx context.Context, tok *oauth2.Token) (*oauth2.Token, error) {
	conf, err := m.oauthConfig()
	if err != nil {
		return nil, err
	}

	m.logger.Debug("refreshing expired token", logging.File(m.tokenFile))

	fresh, err := m.refresh(ctx, conf, tok)
	if err != nil {
		return nil, fmt.Errorf("%w: token refresh: %v", ErrAuthorization, err)
	}

	if err := saveToken(m.tokenFile, fresh); err != nil {
		return nil, err
	}
	return fresh, nil
}

// oauthConfig parses the credentials file into an OAuth2 config.
func (m *Manager) oauthConfig() (*oauth2.Config, error) {
	data, err := os.ReadFile(m.credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMissingCredentials, m.credentialsFile, err)
	}

	conf, err := google.ConfigFromJSON(data, m.scopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse credentials file %s: %w", m.credentialsFile, err)
	}
	return conf, nil
}

// defaultRefresh asks the oauth2 TokenSource for a token; with an
// expired base token this performs exactly one refresh round-trip.
func defaultRefresh(ctx context.Context, conf *oauth2.Config, tok *oauth2.Token) (*oauth2.Token, error) {
	return conf.TokenSource(ctx, tok).Token()
}

// promptAuthorize prints the authorization URL, reads the resulting code
// and exchanges it for a token.
func (m *Manager) promptAuthorize(ctx context.Context, conf *oauth2.Config) (*oauth2.Token, error) {
	if conf.RedirectURL == "" {
		conf.RedirectURL = "urn:ietf:wg:oauth:2.0:oob"
	}

	fmt.Fprintf(m.authOut, "Visit the following URL to authorize gmailsend:\n\n%s\n\nEnter the authorization code: ",
		conf.AuthCodeURL("state", oauth2.AccessTypeOffline))

	code, err := bufio.NewReader(m.authIn).ReadString('\n')
	if err != nil && code == "" {
		return nil, fmt.Errorf("failed to read authorization code: %w", err)
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, fmt.Errorf("empty authorization code")
	}

	tok, err := conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange auth code: %w", err)
	}
	return tok, nil
}
