package ghapi

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/fivetwenty-io/ghapi/internal/constants"
)

// Static errors for err113 compliance.
var (
	ErrConfigRequired     = errors.New("config is required")
	ErrInvalidBaseURL     = errors.New("base URL must be an absolute http(s) URL")
	ErrInvalidPerPage     = errors.New("per_page must be between 1 and 100")
	ErrNegativeDuration   = errors.New("durations must not be negative")
	ErrMissingTokenSource = errors.New("token source is required")
)

// Credential produces the Authorization header value for a request. An
// empty value means the request is sent without authentication.
type Credential interface {
	Authorization(ctx context.Context) (string, error)
}

// BasicAuth authenticates with a username and password.
type BasicAuth struct {
	Username string
	Password string
}

// Authorization implements Credential.
func (b BasicAuth) Authorization(context.Context) (string, error) {
	raw := b.Username + ":" + b.Password

	return "Basic " + base64.StdEncoding.EncodeToString([]byte(raw)), nil
}

// TokenAuth authenticates with a personal access or OAuth token.
type TokenAuth struct {
	Token string
}

// Authorization implements Credential.
func (t TokenAuth) Authorization(context.Context) (string, error) {
	return "token " + t.Token, nil
}

// NoAuth sends requests anonymously.
type NoAuth struct{}

// Authorization implements Credential.
func (NoAuth) Authorization(context.Context) (string, error) {
	return "", nil
}

// ContextTokenSource is an oauth2.TokenSource whose exchange can run under
// the context of the request being authorized. Implementations reuse tokens
// themselves.
type ContextTokenSource interface {
	oauth2.TokenSource
	TokenContext(ctx context.Context) (*oauth2.Token, error)
}

// TokenSourceAuth authenticates with tokens minted by an oauth2.TokenSource,
// such as a GitHub App installation token source. Tokens are reused until
// they expire.
type TokenSourceAuth struct {
	source oauth2.TokenSource
	scoped ContextTokenSource
}

// NewTokenSourceAuth wraps source in an oauth2.ReuseTokenSource. A
// ContextTokenSource is used as is, so exchanges follow the request context.
func NewTokenSourceAuth(source oauth2.TokenSource) (*TokenSourceAuth, error) {
	if source == nil {
		return nil, ErrMissingTokenSource
	}

	if scoped, ok := source.(ContextTokenSource); ok {
		return &TokenSourceAuth{source: scoped, scoped: scoped}, nil
	}

	return &TokenSourceAuth{source: oauth2.ReuseTokenSource(nil, source)}, nil
}

// Authorization implements Credential.
func (t *TokenSourceAuth) Authorization(ctx context.Context) (string, error) {
	var (
		token *oauth2.Token
		err   error
	)

	if t.scoped != nil {
		token, err = t.scoped.TokenContext(ctx)
	} else {
		token, err = t.source.Token()
	}

	if err != nil {
		return "", fmt.Errorf("obtaining installation token: %w", err)
	}

	return "token " + token.AccessToken, nil
}

// Config holds client configuration. It is built once and treated as
// read-only after the client is constructed; use Clone and WithCredential to
// derive a variant.
type Config struct {
	// BaseURL is the API root. Defaults to https://api.github.com.
	BaseURL string
	// Credential authenticates requests. nil sends requests anonymously.
	Credential Credential
	// Accept is the default media type. Requests may override it.
	Accept string
	// PerPage is the page size applied to list calls that set none.
	PerPage int
	// Timeout bounds a single HTTP exchange.
	Timeout time.Duration
	// RetryOnRateLimit makes the client wait for the rate limit reset and
	// retry once. Off by default.
	RetryOnRateLimit bool
	// MaxRateLimitWait caps the wait when RetryOnRateLimit is set.
	MaxRateLimitWait time.Duration
	// RetryMax is the number of transport retries for connection failures
	// and 5xx responses. Zero disables retries.
	RetryMax int
	// RetryWaitMin and RetryWaitMax bound the transport retry backoff.
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	// UserAgent overrides the default User-Agent header.
	UserAgent string
	// Logger receives debug request/response lines.
	Logger Logger
	// Debug enables request/response logging when a Logger is provided.
	Debug bool
	// Interceptors run around every request.
	Interceptors *InterceptorChain
}

// DefaultConfig returns a config pointing at the public API with no
// credential.
func DefaultConfig() *Config {
	config := &Config{}
	config.applyDefaults()

	return config
}

// Clone returns a shallow copy. The interceptor chain and logger are shared.
func (c *Config) Clone() *Config {
	clone := *c

	return &clone
}

// WithCredential returns a copy of c using credential.
func (c *Config) WithCredential(credential Credential) *Config {
	clone := c.Clone()
	clone.Credential = credential

	return clone
}

// Normalize fills defaults and validates the config in place.
func (c *Config) Normalize() error {
	c.applyDefaults()

	return c.Validate()
}

// Validate checks the config for values the client cannot work with.
func (c *Config) Validate() error {
	parsed, err := url.Parse(c.BaseURL)
	if err != nil || !parsed.IsAbs() || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return fmt.Errorf("%w: %q", ErrInvalidBaseURL, c.BaseURL)
	}

	if c.PerPage < 1 || c.PerPage > constants.MaxPerPage {
		return fmt.Errorf("%w: %d", ErrInvalidPerPage, c.PerPage)
	}

	if c.Timeout < 0 || c.MaxRateLimitWait < 0 || c.RetryWaitMin < 0 || c.RetryWaitMax < 0 {
		return ErrNegativeDuration
	}

	return nil
}

func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = constants.DefaultBaseURL
	}

	c.BaseURL = strings.TrimSuffix(c.BaseURL, "/")

	if c.Credential == nil {
		c.Credential = NoAuth{}
	}

	if c.Accept == "" {
		c.Accept = constants.DefaultMediaType
	}

	if c.PerPage == 0 {
		c.PerPage = constants.DefaultPerPage
	}

	if c.Timeout == 0 {
		c.Timeout = constants.DefaultHTTPTimeout
	}

	if c.MaxRateLimitWait == 0 {
		c.MaxRateLimitWait = constants.DefaultMaxRateLimitWait
	}

	if c.RetryWaitMin == 0 {
		c.RetryWaitMin = constants.DefaultRetryWaitMin
	}

	if c.RetryWaitMax == 0 {
		c.RetryWaitMax = constants.DefaultRetryWaitMax
	}

	if c.UserAgent == "" {
		c.UserAgent = constants.DefaultUserAgent
	}

	if c.Logger == nil {
		c.Logger = NoopLogger{}
	}
}
