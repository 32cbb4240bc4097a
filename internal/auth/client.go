// Package auth implements the OAuth2 authorization code flow with PKCE
// against a loopback redirect, plus the optional service-token exchange.
package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/pkg/browser"
	"golang.org/x/oauth2"
)

// DefaultTimeout bounds a whole authorization attempt.
const DefaultTimeout = 120 * time.Second

// Config describes one OAuth2 provider.
type Config struct {
	ClientID string
	AuthURL  string
	TokenURL string
	Scopes   []string

	// AuthParams are added to the authorization URL, e.g. a provider hint.
	AuthParams map[string]string

	// Timeout overrides DefaultTimeout when positive.
	Timeout time.Duration
}

// BrowserOpener opens a URL in the user's browser.
type BrowserOpener func(url string) error

// Client runs authorization attempts. At most one attempt should be in
// flight per process.
type Client struct {
	config     Config
	logger     *slog.Logger
	httpClient *http.Client
	open       BrowserOpener
	out        io.Writer
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the client used for the token request.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBrowserOpener replaces the system browser launcher.
func WithBrowserOpener(open BrowserOpener) Option {
	return func(c *Client) {
		c.open = open
	}
}

// WithOutput sets where user-facing fallback instructions are printed.
func WithOutput(w io.Writer) Option {
	return func(c *Client) {
		c.out = w
	}
}

// NewClient creates a Client for the given provider.
func NewClient(cfg Config, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		config:     cfg,
		logger:     logger,
		httpClient: http.DefaultClient,
		open:       OpenBrowser,
		out:        io.Discard,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OpenBrowser launches the system browser without letting the launcher write
// to the terminal.
func OpenBrowser(url string) error {
	browser.Stdout = io.Discard
	browser.Stderr = io.Discard
	return browser.OpenURL(url)
}

// Authorize runs one full attempt: bind the listener, build the URL, start
// serving, open the browser, then wait for the exchanged token.
func (c *Client) Authorize(ctx context.Context) (*oauth2.Token, error) {
	server, err := Listen(c.logger)
	if err != nil {
		return nil, err
	}
	defer func() { _ = server.Close() }()

	pkce, err := NewPKCE()
	if err != nil {
		return nil, err
	}

	oauthConfig := c.oauthConfig(server.RedirectURI())
	authURL := oauthConfig.AuthCodeURL(pkce.State, c.authOptions(pkce)...)

	exchange := func(ctx context.Context, code string) (*oauth2.Token, error) {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
		token, err := oauthConfig.Exchange(ctx, code, oauth2.VerifierOption(pkce.Verifier))
		if err != nil {
			return nil, tokenError(err)
		}
		return token, nil
	}

	if err := server.Serve(pkce.State, exchange); err != nil {
		return nil, err
	}

	c.logger.Debug("waiting for authorization callback", "redirect_uri", server.RedirectURI())
	if err := c.open(authURL); err != nil {
		c.logger.Debug("failed to open browser", "error", err)
		_, _ = fmt.Fprintf(c.out, "Could not open a browser. Open this URL to continue:\n\n  %s\n\n", authURL)
	}

	return server.Wait(ctx, c.timeout())
}

func (c *Client) oauthConfig(redirectURI string) *oauth2.Config {
	return &oauth2.Config{
		ClientID: c.config.ClientID,
		Endpoint: oauth2.Endpoint{
			AuthURL:   c.config.AuthURL,
			TokenURL:  c.config.TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
		RedirectURL: redirectURI,
		Scopes:      c.config.Scopes,
	}
}

func (c *Client) authOptions(pkce *PKCE) []oauth2.AuthCodeOption {
	opts := []oauth2.AuthCodeOption{oauth2.S256ChallengeOption(pkce.Verifier)}
	for k, v := range c.config.AuthParams {
		opts = append(opts, oauth2.SetAuthURLParam(k, v))
	}
	return opts
}

func (c *Client) timeout() time.Duration {
	if c.config.Timeout > 0 {
		return c.config.Timeout
	}
	return DefaultTimeout
}

func tokenError(err error) error {
	var retrieveErr *oauth2.RetrieveError
	if !errors.As(err, &retrieveErr) {
		return fmt.Errorf("token exchange failed: %w", err)
	}

	code := retrieveErr.ErrorCode
	if code == "" && retrieveErr.Response != nil {
		code = fmt.Sprintf("http_%d", retrieveErr.Response.StatusCode)
	}
	return &TokenError{
		Code:        code,
		Description: retrieveErr.ErrorDescription,
		Err:         err,
	}
}
