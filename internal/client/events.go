package client

import (
	"context"
	"fmt"

	"github.com/fivetwenty-io/ghapi/pkg/ghapi"
)

// EventsClient implements ghapi.EventsClient.
type EventsClient struct {
	core *Client
}

// NewEventsClient creates a new events client.
func NewEventsClient(core *Client) *EventsClient {
	return &EventsClient{
		core: core,
	}
}

func (c *EventsClient) list(ctx context.Context, path string, opts *ghapi.RequestOptions) *ghapi.PaginationIterator[ghapi.Event] {
	return Paginate[ghapi.Event](ctx, c.core, path, opts, ghapi.SchemaEvent)
}

// ListPublic implements ghapi.EventsClient.ListPublic.
func (c *EventsClient) ListPublic(ctx context.Context, params *ghapi.Params) *ghapi.PaginationIterator[ghapi.Event] {
	return c.list(ctx, "events", &ghapi.RequestOptions{Params: params})
}

// ListForRepository implements ghapi.EventsClient.ListForRepository.
func (c *EventsClient) ListForRepository(ctx context.Context, ref ghapi.Ref, params *ghapi.Params) *ghapi.PaginationIterator[ghapi.Event] {
	path, opts, err := repoTarget(ref, "events")
	if err != nil {
		return ghapi.FailedIterator[ghapi.Event](fmt.Errorf("listing repository events: %w", err))
	}

	opts.Params = params

	return c.list(ctx, path, opts)
}

// ListForUser implements ghapi.EventsClient.ListForUser.
func (c *EventsClient) ListForUser(ctx context.Context, login string, params *ghapi.Params) *ghapi.PaginationIterator[ghapi.Event] {
	return c.list(ctx, joinPath("users", login, "events"), &ghapi.RequestOptions{Params: params})
}

// ListPublicForUser implements ghapi.EventsClient.ListPublicForUser.
func (c *EventsClient) ListPublicForUser(ctx context.Context, login string, params *ghapi.Params) *ghapi.PaginationIterator[ghapi.Event] {
	return c.list(ctx, joinPath("users", login, "events", "public"), &ghapi.RequestOptions{Params: params})
}

// ListForOrganization implements ghapi.EventsClient.ListForOrganization.
func (c *EventsClient) ListForOrganization(ctx context.Context, org string, params *ghapi.Params) *ghapi.PaginationIterator[ghapi.Event] {
	return c.list(ctx, joinPath("orgs", org, "events"), &ghapi.RequestOptions{Params: params})
}

// ListReceived implements ghapi.EventsClient.ListReceived.
func (c *EventsClient) ListReceived(ctx context.Context, login string, params *ghapi.Params) *ghapi.PaginationIterator[ghapi.Event] {
	return c.list(ctx, joinPath("users", login, "received_events"), &ghapi.RequestOptions{Params: params})
}
