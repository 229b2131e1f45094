package basic

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// DefaultBaseURL is the Basic API host used when none is configured.
const DefaultBaseURL = "https://api.basic.tech"

// TokenSupplier returns a currently valid access token for one request.
// The default supplier is bound to the client's Auth session and refreshes
// transparently; tests can inject their own via WithTokenSupplier.
type TokenSupplier func(ctx context.Context) (string, error)

// Config carries the project-level settings for a Client.
type Config struct {
	// Schema declares the project's collections. Required; validated at
	// construction. Its ProjectID doubles as the OAuth client id.
	Schema *Schema

	// RedirectURL is where the identity provider sends the user back after
	// authorization: a deep link on native platforms, a route on web.
	RedirectURL string

	// BaseURL overrides the API host. Defaults to DefaultBaseURL.
	BaseURL string

	// Scopes requested at login. Defaults to DefaultScopes().
	Scopes []string
}

// Client is the entry point of the SDK: it owns the auth session and hands
// out per-collection clients bound to it.
type Client struct {
	baseURL    string
	schema     *Schema
	store      SecretStore
	httpClient *http.Client
	tokens     TokenSupplier
	logger     *slog.Logger
	now        func() time.Time

	auth *Auth
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for every API call
// (for timeouts, TLS config, proxies).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTokenSupplier overrides the token source used by collection clients.
// Intended for tests; production clients use the Auth session.
func WithTokenSupplier(ts TokenSupplier) Option {
	return func(c *Client) {
		c.tokens = ts
	}
}

// WithLogger sets the structured logger for diagnostic output.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithClock overrides the time source used for token expiry decisions.
// Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// New creates a Client for a project. The schema is validated here, before
// any network activity; a malformed schema fails construction.
func New(cfg Config, store SecretStore, opts ...Option) (*Client, error) {
	if store == nil {
		return nil, validationErrorf("secret store is required")
	}
	if err := cfg.Schema.Validate(); err != nil {
		return nil, err
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, validationErrorf("invalid base URL %q", baseURL)
	}
	baseURL = fmt.Sprintf("%s://%s", u.Scheme, u.Host)

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = DefaultScopes()
	}

	c := &Client{
		baseURL:    baseURL,
		schema:     cfg.Schema,
		store:      store,
		httpClient: &http.Client{},
		logger:     slog.Default(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.auth = newAuth(authConfig{
		baseURL:     baseURL,
		clientID:    cfg.Schema.ProjectID,
		redirectURL: cfg.RedirectURL,
		scopes:      scopes,
		store:       store,
		httpClient:  c.httpClient,
		logger:      c.logger,
		now:         c.now,
	})
	if c.tokens == nil {
		c.tokens = c.auth.Token
	}

	return c, nil
}

// Auth returns the client's session manager.
func (c *Client) Auth() *Auth { return c.auth }

// BaseURL returns the normalized API host this client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

// Collection returns a client for one named collection. The name must be
// declared in the schema.
func (c *Client) Collection(name string) (*Collection, error) {
	table, err := c.schema.Table(name)
	if err != nil {
		return nil, err
	}
	return &Collection{
		name:       name,
		table:      table,
		url:        fmt.Sprintf("%s/account/%s/db/%s", c.baseURL, c.schema.ProjectID, name),
		httpClient: c.httpClient,
		tokens:     c.tokens,
		logger:     c.logger,
	}, nil
}

// HTTPClient returns an *http.Client whose transport injects the session's
// bearer token into every request, for calling Basic endpoints directly.
func (c *Client) HTTPClient() *http.Client {
	return &http.Client{
		Transport: &AuthTransport{Base: c.httpClient.Transport, Source: c.tokens},
		Timeout:   c.httpClient.Timeout,
	}
}
