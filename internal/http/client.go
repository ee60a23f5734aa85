// Package http sends GitHub API requests. It applies authentication and
// content negotiation headers, runs the interceptor chain, and returns the
// raw envelope of every received response. Only exchanges that produce no
// response fail, with a *ghapi.TransportError.
package http

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/fivetwenty-io/ghapi/internal/constants"
	"github.com/fivetwenty-io/ghapi/pkg/ghapi"
	"github.com/fivetwenty-io/ghapi/pkg/schema"
)

// Static errors for err113 compliance.
var (
	ErrConfigRequired = errors.New("http client config is required")
	ErrEmptyMethod    = errors.New("request method is required")
)

// Client is the request dispatcher. It holds no per-call state and is safe
// for concurrent use.
type Client struct {
	baseURL      *url.URL
	credential   ghapi.Credential
	accept       string
	userAgent    string
	timeout      time.Duration
	logger       ghapi.Logger
	debug        bool
	interceptors *ghapi.InterceptorChain

	httpClient *http.Client
	retryMax   int
	waitMin    time.Duration
	waitMax    time.Duration

	following  *retryablehttp.Client
	noRedirect *retryablehttp.Client
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(logger ghapi.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithDebug enables request/response logging.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithRetryMax sets the number of transport retries.
func WithRetryMax(retryMax int) Option {
	return func(c *Client) {
		c.retryMax = retryMax
	}
}

// WithRetryWait sets the retry backoff bounds.
func WithRetryWait(waitMin, waitMax time.Duration) Option {
	return func(c *Client) {
		c.waitMin = waitMin
		c.waitMax = waitMax
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithInterceptors sets the interceptor chain.
func WithInterceptors(chain *ghapi.InterceptorChain) Option {
	return func(c *Client) {
		c.interceptors = chain
	}
}

// NewClient creates a dispatcher from a normalized config. Options override
// the matching config values.
func NewClient(config *ghapi.Config, opts ...Option) (*Client, error) {
	if config == nil {
		return nil, ErrConfigRequired
	}

	baseURL, err := url.Parse(config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}

	client := &Client{
		baseURL:      baseURL,
		credential:   config.Credential,
		accept:       config.Accept,
		userAgent:    config.UserAgent,
		timeout:      config.Timeout,
		logger:       config.Logger,
		debug:        config.Debug,
		interceptors: config.Interceptors,
		retryMax:     config.RetryMax,
		waitMin:      config.RetryWaitMin,
		waitMax:      config.RetryWaitMax,
	}

	for _, opt := range opts {
		opt(client)
	}

	if client.credential == nil {
		client.credential = ghapi.NoAuth{}
	}

	if client.logger == nil {
		client.logger = ghapi.NoopLogger{}
	}

	if client.accept == "" {
		client.accept = constants.DefaultMediaType
	}

	if client.userAgent == "" {
		client.userAgent = constants.DefaultUserAgent
	}

	if client.httpClient == nil {
		client.httpClient = &http.Client{}
	}

	client.following = client.newRetryClient(client.httpClient)

	noRedirect := *client.httpClient
	noRedirect.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	client.noRedirect = client.newRetryClient(&noRedirect)

	return client, nil
}

func (c *Client) newRetryClient(httpClient *http.Client) *retryablehttp.Client {
	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient = httpClient
	retryClient.RetryMax = c.retryMax
	retryClient.RetryWaitMin = c.waitMin
	retryClient.RetryWaitMax = c.waitMax
	retryClient.CheckRetry = checkRetry
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retryClient.Logger = nil

	if c.debug {
		retryClient.Logger = &leveledLogger{logger: c.logger}
	}

	return retryClient
}

// BaseURL returns the API root.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Send performs one request. Every received response is returned, whatever
// its status.
func (c *Client) Send(ctx context.Context, req *ghapi.Request) (*ghapi.Response, error) {
	if req.Method == "" {
		return nil, ErrEmptyMethod
	}

	// Interceptors may modify the request; keep the caller's copy intact.
	req = req.Clone()

	err := c.interceptors.ExecuteRequestInterceptors(ctx, req)
	if err != nil {
		return nil, err
	}

	target := c.resolveURL(req)

	if c.timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	httpReq, err := c.buildRequest(ctx, req, target)
	if err != nil {
		return nil, err
	}

	if c.debug {
		c.logger.Debug("sending request", map[string]interface{}{
			"method": req.Method,
			"url":    target,
		})
	}

	start := time.Now()

	httpClient := c.following
	if req.NoRedirect {
		httpClient = c.noRedirect
	}

	httpResp, err := httpClient.Do(httpReq)
	if err != nil {
		transportErr := &ghapi.TransportError{
			Kind:   classifyTransport(err),
			Method: req.Method,
			URL:    target,
			Err:    err,
		}

		_ = c.interceptors.ExecuteResponseInterceptors(ctx, req, &ghapi.Response{URL: target, Error: transportErr})

		return nil, transportErr
	}

	resp, err := readResponse(httpResp, target)
	if err != nil {
		return nil, &ghapi.TransportError{Kind: classifyTransport(err), Method: req.Method, URL: target, Err: err}
	}

	if c.debug {
		c.logger.Debug("received response", map[string]interface{}{
			"method":      req.Method,
			"url":         resp.URL,
			"status_code": resp.StatusCode,
			"duration":    time.Since(start).String(),
		})
	}

	err = c.interceptors.ExecuteResponseInterceptors(ctx, req, resp)
	if err != nil {
		return nil, err
	}

	return resp, nil
}

func (c *Client) resolveURL(req *ghapi.Request) string {
	var target *url.URL

	parsed, err := url.Parse(req.Path)
	if err == nil && parsed.IsAbs() {
		target = parsed
	} else {
		path, rawQuery, _ := strings.Cut(req.Path, "?")

		joined := *c.baseURL
		joined.Path = strings.TrimSuffix(joined.Path, "/") + "/" + strings.TrimPrefix(path, "/")
		joined.RawPath = ""
		joined.RawQuery = rawQuery
		target = &joined
	}

	if query := req.Query.Encode(); query != "" {
		if target.RawQuery != "" {
			target.RawQuery += "&" + query
		} else {
			target.RawQuery = query
		}
	}

	return target.String()
}

func (c *Client) buildRequest(ctx context.Context, req *ghapi.Request, target string) (*retryablehttp.Request, error) {
	var body []byte

	if req.Body != nil {
		switch raw := req.Body.(type) {
		case []byte:
			body = raw
		default:
			encoded, err := schema.Marshal(req.Body)
			if err != nil {
				return nil, fmt.Errorf("encoding request body: %w", err)
			}

			body = encoded
		}
	}

	var reader any
	if body != nil {
		reader = body
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, req.Method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	for key, values := range req.Headers {
		if strings.EqualFold(key, constants.HeaderAuthorization) {
			continue
		}

		for _, value := range values {
			httpReq.Header.Add(key, value)
		}
	}

	if httpReq.Header.Get(constants.HeaderAccept) == "" {
		httpReq.Header.Set(constants.HeaderAccept, c.accept)
	}

	httpReq.Header.Set(constants.HeaderAPIVersion, constants.APIVersion)
	httpReq.Header.Set(constants.HeaderUserAgent, c.userAgent)

	if body != nil {
		httpReq.Header.Set(constants.HeaderContentType, constants.JSONContentType)
	}

	authorization, err := c.credential.Authorization(ctx)
	if err != nil {
		return nil, fmt.Errorf("authorizing request: %w", err)
	}

	if authorization != "" {
		httpReq.Header.Set(constants.HeaderAuthorization, authorization)
	}

	return httpReq, nil
}

func readResponse(httpResp *http.Response, target string) (*ghapi.Response, error) {
	defer func() { _ = httpResp.Body.Close() }()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	finalURL := target
	if httpResp.Request != nil && httpResp.Request.URL != nil {
		finalURL = httpResp.Request.URL.String()
	}

	return &ghapi.Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       body,
		URL:        finalURL,
	}, nil
}

// checkRetry retries connection failures and 5xx responses. Everything else,
// including rate limits, is left to the caller.
func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	if err != nil {
		return classifyTransport(err) == ghapi.TransportConnect, nil
	}

	return resp.StatusCode >= http.StatusInternalServerError && resp.StatusCode != http.StatusNotImplemented, nil
}

func classifyTransport(err error) ghapi.TransportKind {
	if errors.Is(err, context.Canceled) {
		return ghapi.TransportCanceled
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ghapi.TransportTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ghapi.TransportTimeout
	}

	var (
		verifyErr    *tls.CertificateVerificationError
		recordErr    tls.RecordHeaderError
		authorityErr x509.UnknownAuthorityError
		hostnameErr  x509.HostnameError
		invalidErr   x509.CertificateInvalidError
	)

	if errors.As(err, &verifyErr) || errors.As(err, &recordErr) || errors.As(err, &authorityErr) ||
		errors.As(err, &hostnameErr) || errors.As(err, &invalidErr) {
		return ghapi.TransportTLS
	}

	return ghapi.TransportConnect
}

// leveledLogger adapts ghapi.Logger to retryablehttp.LeveledLogger.
type leveledLogger struct {
	logger ghapi.Logger
}

func (l *leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, fields(keysAndValues))
}

func (l *leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Info(msg, fields(keysAndValues))
}

func (l *leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, fields(keysAndValues))
}

func (l *leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn(msg, fields(keysAndValues))
}

func fields(keysAndValues []interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(keysAndValues)/2)

	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key := fmt.Sprint(keysAndValues[i])
		out[key] = keysAndValues[i+1]
	}

	return out
}
