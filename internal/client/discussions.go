package client

import (
	"context"
	"fmt"
	"strconv"

	"github.com/fivetwenty-io/ghapi/internal/constants"
	"github.com/fivetwenty-io/ghapi/pkg/ghapi"
)

// DiscussionsClient implements ghapi.DiscussionsClient.
type DiscussionsClient struct {
	core *Client
}

// NewDiscussionsClient creates a new discussions client.
func NewDiscussionsClient(core *Client) *DiscussionsClient {
	return &DiscussionsClient{
		core: core,
	}
}

func discussionPath(org, team string, number ...int) string {
	path := joinPath("orgs", org, "teams", team, "discussions")
	for _, n := range number {
		path = joinPath(path, strconv.Itoa(n))
	}

	return path
}

func discussionOptions(body any, params *ghapi.Params) *ghapi.RequestOptions {
	return &ghapi.RequestOptions{
		Accept: constants.DiscussionsMediaType,
		Body:   body,
		Params: params,
	}
}

// List implements ghapi.DiscussionsClient.List.
func (c *DiscussionsClient) List(ctx context.Context, org, team string, params *ghapi.Params) *ghapi.PaginationIterator[ghapi.TeamDiscussion] {
	return Paginate[ghapi.TeamDiscussion](ctx, c.core, discussionPath(org, team), discussionOptions(nil, params), ghapi.SchemaTeamDiscussion)
}

// Get implements ghapi.DiscussionsClient.Get.
func (c *DiscussionsClient) Get(ctx context.Context, org, team string, number int) (*ghapi.TeamDiscussion, error) {
	var discussion ghapi.TeamDiscussion

	err := c.core.Get(ctx, discussionPath(org, team, number), discussionOptions(nil, nil), &discussion)
	if err != nil {
		return nil, fmt.Errorf("getting discussion: %w", err)
	}

	return &discussion, nil
}

// Create implements ghapi.DiscussionsClient.Create.
func (c *DiscussionsClient) Create(ctx context.Context, org, team string, request *ghapi.DiscussionCreateRequest) (*ghapi.TeamDiscussion, error) {
	var discussion ghapi.TeamDiscussion

	err := c.core.Post(ctx, discussionPath(org, team), discussionOptions(request, nil), &discussion)
	if err != nil {
		return nil, fmt.Errorf("creating discussion: %w", err)
	}

	return &discussion, nil
}

// Update implements ghapi.DiscussionsClient.Update.
func (c *DiscussionsClient) Update(ctx context.Context, org, team string, number int, request *ghapi.DiscussionUpdateRequest) (*ghapi.TeamDiscussion, error) {
	var discussion ghapi.TeamDiscussion

	err := c.core.Patch(ctx, discussionPath(org, team, number), discussionOptions(request, nil), &discussion)
	if err != nil {
		return nil, fmt.Errorf("updating discussion: %w", err)
	}

	return &discussion, nil
}

// Delete implements ghapi.DiscussionsClient.Delete.
func (c *DiscussionsClient) Delete(ctx context.Context, org, team string, number int) error {
	err := c.core.Delete(ctx, discussionPath(org, team, number), discussionOptions(nil, nil), nil)
	if err != nil {
		return fmt.Errorf("deleting discussion: %w", err)
	}

	return nil
}
