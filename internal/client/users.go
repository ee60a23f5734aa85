package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/fivetwenty-io/ghapi/pkg/ghapi"
)

// UsersClient implements ghapi.UsersClient.
type UsersClient struct {
	core *Client
}

// NewUsersClient creates a new users client.
func NewUsersClient(core *Client) *UsersClient {
	return &UsersClient{
		core: core,
	}
}

// userPath resolves ref under users/, or returns "user" for the zero Ref.
func userPath(ref ghapi.Ref, segments ...string) (string, error) {
	if ref.IsZero() {
		return joinPath("user", segments...), nil
	}

	path, err := ghapi.ResolvePath(ref, ghapi.UserBase)
	if err != nil {
		return "", err
	}

	return joinPath(path, segments...), nil
}

// Get implements ghapi.UsersClient.Get. The zero Ref gets the
// authenticated user.
func (c *UsersClient) Get(ctx context.Context, ref ghapi.Ref) (*ghapi.User, error) {
	path, err := userPath(ref)
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}

	var user ghapi.User

	err = c.core.Get(ctx, path, nil, &user)
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}

	return &user, nil
}

// Authenticated implements ghapi.UsersClient.Authenticated.
func (c *UsersClient) Authenticated(ctx context.Context) (*ghapi.User, error) {
	return c.Get(ctx, ghapi.Ref{})
}

// ListFollowers implements ghapi.UsersClient.ListFollowers.
func (c *UsersClient) ListFollowers(ctx context.Context, ref ghapi.Ref, params *ghapi.Params) *ghapi.PaginationIterator[ghapi.User] {
	path, err := userPath(ref, "followers")
	if err != nil {
		return ghapi.FailedIterator[ghapi.User](fmt.Errorf("listing followers: %w", err))
	}

	return Paginate[ghapi.User](ctx, c.core, path, &ghapi.RequestOptions{Params: params}, ghapi.SchemaUser)
}

// ListFollowing implements ghapi.UsersClient.ListFollowing.
func (c *UsersClient) ListFollowing(ctx context.Context, ref ghapi.Ref, params *ghapi.Params) *ghapi.PaginationIterator[ghapi.User] {
	path, err := userPath(ref, "following")
	if err != nil {
		return ghapi.FailedIterator[ghapi.User](fmt.Errorf("listing following: %w", err))
	}

	return Paginate[ghapi.User](ctx, c.core, path, &ghapi.RequestOptions{Params: params}, ghapi.SchemaUser)
}

// Follows implements ghapi.UsersClient.Follows.
func (c *UsersClient) Follows(ctx context.Context, user ghapi.Ref, target string) (bool, error) {
	path, err := userPath(user, "following", target)
	if err != nil {
		return false, fmt.Errorf("checking follow: %w", err)
	}

	follows, err := c.core.Boolean(ctx, http.MethodGet, path, nil)
	if err != nil {
		return false, fmt.Errorf("checking follow: %w", err)
	}

	return follows, nil
}
