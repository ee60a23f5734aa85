package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	ghhttp "github.com/fivetwenty-io/ghapi/internal/http"
	"github.com/fivetwenty-io/ghapi/pkg/ghapi"
	"github.com/fivetwenty-io/ghapi/pkg/schema"
)

// Static errors for err113 compliance.
var (
	ErrConfigRequired = errors.New("config is required")
	ErrBodyNotObject  = errors.New("request body must encode to a JSON object to merge parameters")
)

// Client implements the ghapi.Client interface.
type Client struct {
	dispatcher *ghhttp.Client
	config     *ghapi.Config
	logger     ghapi.Logger

	// Resource clients
	repositories ghapi.RepositoriesClient
	users        ghapi.UsersClient
	events       ghapi.EventsClient
	migrations   ghapi.MigrationsClient
	deployKeys   ghapi.DeployKeysClient
	discussions  ghapi.DiscussionsClient
	rateLimit    ghapi.RateLimitClient
}

// New creates a GitHub API client. The config is copied and normalized; later
// changes to it have no effect on the client.
func New(config *ghapi.Config, opts ...ghhttp.Option) (*Client, error) {
	if config == nil {
		return nil, ErrConfigRequired
	}

	config = config.Clone()

	err := config.Normalize()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	dispatcher, err := ghhttp.NewClient(config, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating dispatcher: %w", err)
	}

	client := &Client{
		dispatcher: dispatcher,
		config:     config,
		logger:     config.Logger,
	}

	client.initializeResourceClients()

	return client, nil
}

func (c *Client) initializeResourceClients() {
	c.repositories = NewRepositoriesClient(c)
	c.users = NewUsersClient(c)
	c.events = NewEventsClient(c)
	c.migrations = NewMigrationsClient(c)
	c.deployKeys = NewDeployKeysClient(c)
	c.discussions = NewDiscussionsClient(c)
	c.rateLimit = NewRateLimitClient(c)
}

// Config implements ghapi.CoreClient.Config.
func (c *Client) Config() *ghapi.Config {
	return c.config.Clone()
}

// Resource client accessors

// Repositories implements ghapi.Client.Repositories.
func (c *Client) Repositories() ghapi.RepositoriesClient {
	return c.repositories
}

// Users implements ghapi.Client.Users.
func (c *Client) Users() ghapi.UsersClient {
	return c.users
}

// Events implements ghapi.Client.Events.
func (c *Client) Events() ghapi.EventsClient {
	return c.events
}

// Migrations implements ghapi.Client.Migrations.
func (c *Client) Migrations() ghapi.MigrationsClient {
	return c.migrations
}

// DeployKeys implements ghapi.Client.DeployKeys.
func (c *Client) DeployKeys() ghapi.DeployKeysClient {
	return c.deployKeys
}

// Discussions implements ghapi.Client.Discussions.
func (c *Client) Discussions() ghapi.DiscussionsClient {
	return c.discussions
}

// RateLimit implements ghapi.Client.RateLimit.
func (c *Client) RateLimit() ghapi.RateLimitClient {
	return c.rateLimit
}

// Do implements ghapi.CoreClient.Do.
func (c *Client) Do(ctx context.Context, method, path string, opts *ghapi.RequestOptions, out any) error {
	req, err := c.newRequest(method, path, opts)
	if err != nil {
		return err
	}

	resp, err := c.execute(ctx, req)
	if err != nil {
		return err
	}

	return decode(resp, out)
}

// Get implements ghapi.CoreClient.Get.
func (c *Client) Get(ctx context.Context, path string, opts *ghapi.RequestOptions, out any) error {
	return c.Do(ctx, http.MethodGet, path, opts, out)
}

// Post implements ghapi.CoreClient.Post.
func (c *Client) Post(ctx context.Context, path string, opts *ghapi.RequestOptions, out any) error {
	return c.Do(ctx, http.MethodPost, path, opts, out)
}

// Put implements ghapi.CoreClient.Put.
func (c *Client) Put(ctx context.Context, path string, opts *ghapi.RequestOptions, out any) error {
	return c.Do(ctx, http.MethodPut, path, opts, out)
}

// Patch implements ghapi.CoreClient.Patch.
func (c *Client) Patch(ctx context.Context, path string, opts *ghapi.RequestOptions, out any) error {
	return c.Do(ctx, http.MethodPatch, path, opts, out)
}

// Delete implements ghapi.CoreClient.Delete.
func (c *Client) Delete(ctx context.Context, path string, opts *ghapi.RequestOptions, out any) error {
	return c.Do(ctx, http.MethodDelete, path, opts, out)
}

// Boolean implements ghapi.CoreClient.Boolean.
func (c *Client) Boolean(ctx context.Context, method, path string, opts *ghapi.RequestOptions, falseKinds ...ghapi.ErrorKind) (bool, error) {
	if len(falseKinds) == 0 {
		falseKinds = []ghapi.ErrorKind{ghapi.KindNotFound}
	}

	req, err := c.newRequest(method, path, opts)
	if err != nil {
		return false, err
	}

	_, err = c.execute(ctx, req)
	if err == nil {
		return true, nil
	}

	kind, ok := ghapi.KindOf(err)
	if ok {
		for _, falseKind := range falseKinds {
			if kind == falseKind {
				return false, nil
			}
		}
	}

	return false, err
}

// Send implements ghapi.Sender. It dispatches req and, when rate limit
// retries are enabled, waits for the reset and sends it once more. The
// response is returned unclassified.
func (c *Client) Send(ctx context.Context, req *ghapi.Request) (*ghapi.Response, error) {
	resp, err := c.dispatcher.Send(ctx, req)
	if err != nil || !c.config.RetryOnRateLimit {
		return resp, err
	}

	var apiErr *ghapi.APIError
	if !errors.As(ghapi.Classify(req, resp), &apiErr) || apiErr.Kind != ghapi.KindRateLimited {
		return resp, nil
	}

	if apiErr.ResetAt.IsZero() {
		return resp, nil
	}

	wait := max(time.Until(apiErr.ResetAt), 0)
	if wait > c.config.MaxRateLimitWait {
		c.logger.Warn("rate limit reset too far away, not retrying", map[string]interface{}{
			"reset_at": apiErr.ResetAt,
			"max_wait": c.config.MaxRateLimitWait.String(),
		})

		return resp, nil
	}

	c.logger.Info("rate limited, waiting for reset", map[string]interface{}{
		"method": req.Method,
		"path":   req.Path,
		"wait":   wait.String(),
	})

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil, &ghapi.TransportError{Kind: ghapi.TransportCanceled, Method: req.Method, URL: resp.URL, Err: ctx.Err()}
	case <-timer.C:
	}

	resp, err = c.dispatcher.Send(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("retrying after rate limit: %w", err)
	}

	return resp, nil
}

// execute sends req and classifies the response.
func (c *Client) execute(ctx context.Context, req *ghapi.Request) (*ghapi.Response, error) {
	resp, err := c.Send(ctx, req)
	if err != nil {
		return nil, err
	}

	err = ghapi.Classify(req, resp)
	if err != nil {
		return resp, err
	}

	return resp, nil
}

func (c *Client) newRequest(method, path string, opts *ghapi.RequestOptions) (*ghapi.Request, error) {
	if opts == nil {
		opts = &ghapi.RequestOptions{}
	}

	req := &ghapi.Request{
		Method:     method,
		Path:       path,
		Headers:    opts.Headers.Clone(),
		RepoSlug:   opts.RepoSlug,
		NoRedirect: opts.NoRedirect,
		Body:       opts.Body,
	}

	if opts.Accept != "" {
		if req.Headers == nil {
			req.Headers = make(http.Header)
		}

		req.Headers.Set("Accept", opts.Accept)
	}

	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		if opts.Params.Len() > 0 {
			body, err := mergeBody(opts.Body, opts.Params)
			if err != nil {
				return nil, err
			}

			req.Body = body
		}
	default:
		if opts.Params.Len() > 0 {
			req.Query = opts.Params.Clone()
		}
	}

	return req, nil
}

// mergeBody encodes body and sets params over its members.
func mergeBody(body any, params *ghapi.Params) (*schema.Object, error) {
	object := schema.NewObject()

	if body != nil {
		encoded, err := schema.Encode(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}

		switch tree := encoded.(type) {
		case *schema.Object:
			object = tree
		case nil:
		default:
			return nil, fmt.Errorf("%w: got %T", ErrBodyNotObject, body)
		}
	}

	for _, key := range params.Keys() {
		value, _ := params.Get(key)

		encoded, err := schema.Encode(value)
		if err != nil {
			return nil, fmt.Errorf("encoding parameter %q: %w", key, err)
		}

		object.Set(key, encoded)
	}

	return object, nil
}

func decode(resp *ghapi.Response, out any) error {
	if out == nil || len(resp.Body) == 0 {
		return nil
	}

	err := schema.Unmarshal(resp.Body, out)
	if err != nil {
		return &ghapi.DecodeError{Model: fmt.Sprintf("%T", out), URL: resp.URL, Err: err}
	}

	return nil
}

// Paginate lists the collection at path. Parameters go to the query string
// and the configured page size applies unless they set per_page.
func Paginate[T any](ctx context.Context, c *Client, path string, opts *ghapi.RequestOptions, model string) *ghapi.PaginationIterator[T] {
	req, err := c.newRequest(http.MethodGet, path, opts)
	if err != nil {
		return ghapi.FailedIterator[T](err)
	}

	return ghapi.NewPaginationIterator[T](ctx, c, req, &ghapi.PaginateOptions{
		PerPage: c.config.PerPage,
		Model:   model,
	})
}
