package client

import (
	"context"
	"fmt"
	"strconv"

	"github.com/fivetwenty-io/ghapi/pkg/ghapi"
)

// DeployKeysClient implements ghapi.DeployKeysClient.
type DeployKeysClient struct {
	core *Client
}

// NewDeployKeysClient creates a new deploy keys client.
func NewDeployKeysClient(core *Client) *DeployKeysClient {
	return &DeployKeysClient{
		core: core,
	}
}

// List implements ghapi.DeployKeysClient.List.
func (c *DeployKeysClient) List(ctx context.Context, repo ghapi.Ref, params *ghapi.Params) *ghapi.PaginationIterator[ghapi.DeployKey] {
	path, opts, err := repoTarget(repo, "keys")
	if err != nil {
		return ghapi.FailedIterator[ghapi.DeployKey](fmt.Errorf("listing deploy keys: %w", err))
	}

	opts.Params = params

	return Paginate[ghapi.DeployKey](ctx, c.core, path, opts, ghapi.SchemaDeployKey)
}

// Get implements ghapi.DeployKeysClient.Get.
func (c *DeployKeysClient) Get(ctx context.Context, repo ghapi.Ref, id int64) (*ghapi.DeployKey, error) {
	path, opts, err := repoTarget(repo, "keys", strconv.FormatInt(id, 10))
	if err != nil {
		return nil, fmt.Errorf("getting deploy key: %w", err)
	}

	var key ghapi.DeployKey

	err = c.core.Get(ctx, path, opts, &key)
	if err != nil {
		return nil, fmt.Errorf("getting deploy key: %w", err)
	}

	return &key, nil
}

// Add implements ghapi.DeployKeysClient.Add.
func (c *DeployKeysClient) Add(ctx context.Context, repo ghapi.Ref, title, key string, readOnly bool) (*ghapi.DeployKey, error) {
	path, opts, err := repoTarget(repo, "keys")
	if err != nil {
		return nil, fmt.Errorf("adding deploy key: %w", err)
	}

	opts.Body = &ghapi.DeployKeyRequest{
		Title:    title,
		Key:      key,
		ReadOnly: readOnly,
	}

	var added ghapi.DeployKey

	err = c.core.Post(ctx, path, opts, &added)
	if err != nil {
		return nil, fmt.Errorf("adding deploy key: %w", err)
	}

	return &added, nil
}

// Remove implements ghapi.DeployKeysClient.Remove.
func (c *DeployKeysClient) Remove(ctx context.Context, repo ghapi.Ref, id int64) error {
	path, opts, err := repoTarget(repo, "keys", strconv.FormatInt(id, 10))
	if err != nil {
		return fmt.Errorf("removing deploy key: %w", err)
	}

	err = c.core.Delete(ctx, path, opts, nil)
	if err != nil {
		return fmt.Errorf("removing deploy key: %w", err)
	}

	return nil
}
