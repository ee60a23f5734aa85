package client

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/fivetwenty-io/ghapi/internal/constants"
	"github.com/fivetwenty-io/ghapi/pkg/ghapi"
)

// RepositoriesClient implements ghapi.RepositoriesClient.
type RepositoriesClient struct {
	core *Client
}

// NewRepositoriesClient creates a new repositories client.
func NewRepositoriesClient(core *Client) *RepositoriesClient {
	return &RepositoriesClient{
		core: core,
	}
}

// repoTarget resolves ref under repos/ or repositories/ and appends
// segments. Name references also carry their slug so that a 404 can be
// told apart from a malformed name.
func repoTarget(ref ghapi.Ref, segments ...string) (string, *ghapi.RequestOptions, error) {
	path, err := ghapi.ResolvePath(ref, ghapi.RepositoryBase)
	if err != nil {
		return "", nil, err
	}

	opts := &ghapi.RequestOptions{}
	if slug, ok := ghapi.RepoSlug(ref); ok {
		opts.RepoSlug = slug
	}

	return joinPath(path, segments...), opts, nil
}

// repoFullName returns "owner/name" for endpoints that have no id form.
func repoFullName(ref ghapi.Ref) (string, error) {
	path, err := ghapi.ResolvePath(ref, ghapi.RepositoryBase)
	if err != nil {
		return "", err
	}

	name, ok := strings.CutPrefix(path, ghapi.RepositoryBase.Name+"/")
	if !ok {
		return "", fmt.Errorf("%w: %s needs an owner/name reference", ghapi.ErrInvalidReference, ref)
	}

	return name, nil
}

func joinPath(base string, segments ...string) string {
	if len(segments) == 0 {
		return base
	}

	return base + "/" + strings.Join(segments, "/")
}

// Get implements ghapi.RepositoriesClient.Get.
func (c *RepositoriesClient) Get(ctx context.Context, ref ghapi.Ref) (*ghapi.Repository, error) {
	path, opts, err := repoTarget(ref)
	if err != nil {
		return nil, fmt.Errorf("getting repository: %w", err)
	}

	var repo ghapi.Repository

	err = c.core.Get(ctx, path, opts, &repo)
	if err != nil {
		return nil, fmt.Errorf("getting repository: %w", err)
	}

	return &repo, nil
}

// Exists implements ghapi.RepositoriesClient.Exists.
func (c *RepositoriesClient) Exists(ctx context.Context, ref ghapi.Ref) (bool, error) {
	path, opts, err := repoTarget(ref)
	if err != nil {
		return false, fmt.Errorf("checking repository: %w", err)
	}

	exists, err := c.core.Boolean(ctx, http.MethodGet, path, opts, ghapi.KindNotFound, ghapi.KindInvalidRepository)
	if err != nil {
		return false, fmt.Errorf("checking repository: %w", err)
	}

	return exists, nil
}

// ExistsAll implements ghapi.RepositoriesClient.ExistsAll.
func (c *RepositoriesClient) ExistsAll(ctx context.Context, refs []ghapi.Ref) ([]bool, error) {
	results := make([]bool, len(refs))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(constants.DefaultConcurrencyLimit)

	for i, ref := range refs {
		group.Go(func() error {
			exists, err := c.Exists(groupCtx, ref)
			if err != nil {
				return fmt.Errorf("%s: %w", ref, err)
			}

			results[i] = exists

			return nil
		})
	}

	err := group.Wait()
	if err != nil {
		return nil, err
	}

	return results, nil
}

// ListForUser implements ghapi.RepositoriesClient.ListForUser.
func (c *RepositoriesClient) ListForUser(ctx context.Context, login string, params *ghapi.Params) *ghapi.PaginationIterator[ghapi.Repository] {
	return Paginate[ghapi.Repository](ctx, c.core, joinPath("users", login, "repos"), &ghapi.RequestOptions{Params: params}, ghapi.SchemaRepository)
}

// ListForOrg implements ghapi.RepositoriesClient.ListForOrg.
func (c *RepositoriesClient) ListForOrg(ctx context.Context, org string, params *ghapi.Params) *ghapi.PaginationIterator[ghapi.Repository] {
	return Paginate[ghapi.Repository](ctx, c.core, joinPath("orgs", org, "repos"), &ghapi.RequestOptions{Params: params}, ghapi.SchemaRepository)
}

// ListForAuthenticatedUser implements ghapi.RepositoriesClient.ListForAuthenticatedUser.
func (c *RepositoriesClient) ListForAuthenticatedUser(ctx context.Context, params *ghapi.Params) *ghapi.PaginationIterator[ghapi.Repository] {
	return Paginate[ghapi.Repository](ctx, c.core, "user/repos", &ghapi.RequestOptions{Params: params}, ghapi.SchemaRepository)
}

// Create implements ghapi.RepositoriesClient.Create.
func (c *RepositoriesClient) Create(ctx context.Context, org string, request *ghapi.RepositoryCreateRequest) (*ghapi.Repository, error) {
	path := "user/repos"
	if org != "" {
		path = joinPath("orgs", org, "repos")
	}

	var repo ghapi.Repository

	err := c.core.Post(ctx, path, &ghapi.RequestOptions{Body: request}, &repo)
	if err != nil {
		return nil, fmt.Errorf("creating repository: %w", err)
	}

	return &repo, nil
}

// Edit implements ghapi.RepositoriesClient.Edit.
func (c *RepositoriesClient) Edit(ctx context.Context, ref ghapi.Ref, request *ghapi.RepositoryEditRequest) (*ghapi.Repository, error) {
	path, opts, err := repoTarget(ref)
	if err != nil {
		return nil, fmt.Errorf("editing repository: %w", err)
	}

	opts.Body = request

	var repo ghapi.Repository

	err = c.core.Patch(ctx, path, opts, &repo)
	if err != nil {
		return nil, fmt.Errorf("editing repository: %w", err)
	}

	return &repo, nil
}

// Delete implements ghapi.RepositoriesClient.Delete.
func (c *RepositoriesClient) Delete(ctx context.Context, ref ghapi.Ref) error {
	path, opts, err := repoTarget(ref)
	if err != nil {
		return fmt.Errorf("deleting repository: %w", err)
	}

	err = c.core.Delete(ctx, path, opts, nil)
	if err != nil {
		return fmt.Errorf("deleting repository: %w", err)
	}

	return nil
}

// Star implements ghapi.RepositoriesClient.Star.
func (c *RepositoriesClient) Star(ctx context.Context, ref ghapi.Ref) error {
	name, err := repoFullName(ref)
	if err != nil {
		return fmt.Errorf("starring repository: %w", err)
	}

	err = c.core.Put(ctx, joinPath("user/starred", name), &ghapi.RequestOptions{RepoSlug: name}, nil)
	if err != nil {
		return fmt.Errorf("starring repository: %w", err)
	}

	return nil
}

// Unstar implements ghapi.RepositoriesClient.Unstar.
func (c *RepositoriesClient) Unstar(ctx context.Context, ref ghapi.Ref) error {
	name, err := repoFullName(ref)
	if err != nil {
		return fmt.Errorf("unstarring repository: %w", err)
	}

	err = c.core.Delete(ctx, joinPath("user/starred", name), &ghapi.RequestOptions{RepoSlug: name}, nil)
	if err != nil {
		return fmt.Errorf("unstarring repository: %w", err)
	}

	return nil
}

// IsStarred implements ghapi.RepositoriesClient.IsStarred.
func (c *RepositoriesClient) IsStarred(ctx context.Context, ref ghapi.Ref) (bool, error) {
	name, err := repoFullName(ref)
	if err != nil {
		return false, fmt.Errorf("checking star: %w", err)
	}

	starred, err := c.core.Boolean(ctx, http.MethodGet, joinPath("user/starred", name), nil)
	if err != nil {
		return false, fmt.Errorf("checking star: %w", err)
	}

	return starred, nil
}

// ListCollaborators implements ghapi.RepositoriesClient.ListCollaborators.
func (c *RepositoriesClient) ListCollaborators(ctx context.Context, ref ghapi.Ref, params *ghapi.Params) *ghapi.PaginationIterator[ghapi.Collaborator] {
	path, opts, err := repoTarget(ref, "collaborators")
	if err != nil {
		return ghapi.FailedIterator[ghapi.Collaborator](fmt.Errorf("listing collaborators: %w", err))
	}

	opts.Params = params

	return Paginate[ghapi.Collaborator](ctx, c.core, path, opts, ghapi.SchemaCollaborator)
}

// IsCollaborator implements ghapi.RepositoriesClient.IsCollaborator.
func (c *RepositoriesClient) IsCollaborator(ctx context.Context, ref ghapi.Ref, login string) (bool, error) {
	path, opts, err := repoTarget(ref, "collaborators", login)
	if err != nil {
		return false, fmt.Errorf("checking collaborator: %w", err)
	}

	isCollaborator, err := c.core.Boolean(ctx, http.MethodGet, path, opts)
	if err != nil {
		return false, fmt.Errorf("checking collaborator: %w", err)
	}

	return isCollaborator, nil
}
