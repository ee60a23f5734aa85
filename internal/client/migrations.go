package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/fivetwenty-io/ghapi/internal/constants"
	"github.com/fivetwenty-io/ghapi/pkg/ghapi"
)

// ErrNoArchiveLocation is returned when the archive endpoint answers without
// a redirect to the download.
var ErrNoArchiveLocation = errors.New("archive response has no location")

// MigrationsClient implements ghapi.MigrationsClient.
type MigrationsClient struct {
	core *Client
}

// NewMigrationsClient creates a new migrations client.
func NewMigrationsClient(core *Client) *MigrationsClient {
	return &MigrationsClient{
		core: core,
	}
}

func orgMigrationPath(org string, segments ...string) string {
	return joinPath(joinPath("orgs", org, "migrations"), segments...)
}

func userMigrationPath(segments ...string) string {
	return joinPath("user/migrations", segments...)
}

func migrationID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func (c *MigrationsClient) options(body any, params *ghapi.Params) *ghapi.RequestOptions {
	return &ghapi.RequestOptions{
		Accept: constants.MigrationsMediaType,
		Body:   body,
		Params: params,
	}
}

func (c *MigrationsClient) start(ctx context.Context, path string, repositories []string, opts any) (*ghapi.Migration, error) {
	if repositories == nil {
		repositories = []string{}
	}

	var migration ghapi.Migration

	err := c.core.Post(ctx, path, c.options(opts, ghapi.NewParams().Set("repositories", repositories)), &migration)
	if err != nil {
		return nil, fmt.Errorf("starting migration: %w", err)
	}

	return &migration, nil
}

func (c *MigrationsClient) status(ctx context.Context, path string) (*ghapi.Migration, error) {
	var migration ghapi.Migration

	err := c.core.Get(ctx, path, c.options(nil, nil), &migration)
	if err != nil {
		return nil, fmt.Errorf("getting migration status: %w", err)
	}

	return &migration, nil
}

// archiveURL asks for the archive without following the redirect and
// returns its target.
func (c *MigrationsClient) archiveURL(ctx context.Context, path string) (string, error) {
	opts := c.options(nil, nil)
	opts.NoRedirect = true

	req, err := c.core.newRequest(http.MethodGet, path, opts)
	if err != nil {
		return "", fmt.Errorf("getting archive url: %w", err)
	}

	resp, err := c.core.execute(ctx, req)
	if err != nil {
		return "", fmt.Errorf("getting archive url: %w", err)
	}

	location := resp.Header.Get("Location")
	if location == "" {
		return "", fmt.Errorf("getting archive url: %w (status %d)", ErrNoArchiveLocation, resp.StatusCode)
	}

	return location, nil
}

func (c *MigrationsClient) remove(ctx context.Context, path, action string) error {
	err := c.core.Delete(ctx, path, c.options(nil, nil), nil)
	if err != nil {
		return fmt.Errorf("%s: %w", action, err)
	}

	return nil
}

// Start implements ghapi.MigrationsClient.Start.
func (c *MigrationsClient) Start(ctx context.Context, org string, repositories []string, opts *ghapi.MigrationOptions) (*ghapi.Migration, error) {
	if opts == nil {
		opts = &ghapi.MigrationOptions{}
	}

	return c.start(ctx, orgMigrationPath(org), repositories, opts)
}

// List implements ghapi.MigrationsClient.List.
func (c *MigrationsClient) List(ctx context.Context, org string, params *ghapi.Params) *ghapi.PaginationIterator[ghapi.Migration] {
	return Paginate[ghapi.Migration](ctx, c.core, orgMigrationPath(org), c.options(nil, params), ghapi.SchemaMigration)
}

// Status implements ghapi.MigrationsClient.Status.
func (c *MigrationsClient) Status(ctx context.Context, org string, id int64) (*ghapi.Migration, error) {
	return c.status(ctx, orgMigrationPath(org, migrationID(id)))
}

// ArchiveURL implements ghapi.MigrationsClient.ArchiveURL.
func (c *MigrationsClient) ArchiveURL(ctx context.Context, org string, id int64) (string, error) {
	return c.archiveURL(ctx, orgMigrationPath(org, migrationID(id), "archive"))
}

// DeleteArchive implements ghapi.MigrationsClient.DeleteArchive.
func (c *MigrationsClient) DeleteArchive(ctx context.Context, org string, id int64) error {
	return c.remove(ctx, orgMigrationPath(org, migrationID(id), "archive"), "deleting migration archive")
}

// UnlockRepository implements ghapi.MigrationsClient.UnlockRepository.
func (c *MigrationsClient) UnlockRepository(ctx context.Context, org string, id int64, repo string) error {
	return c.remove(ctx, orgMigrationPath(org, migrationID(id), "repos", repo, "lock"), "unlocking repository")
}

// StartUser implements ghapi.MigrationsClient.StartUser.
func (c *MigrationsClient) StartUser(ctx context.Context, repositories []string, opts *ghapi.UserMigrationOptions) (*ghapi.Migration, error) {
	if opts == nil {
		opts = &ghapi.UserMigrationOptions{}
	}

	return c.start(ctx, userMigrationPath(), repositories, opts)
}

// ListUser implements ghapi.MigrationsClient.ListUser.
func (c *MigrationsClient) ListUser(ctx context.Context, params *ghapi.Params) *ghapi.PaginationIterator[ghapi.Migration] {
	return Paginate[ghapi.Migration](ctx, c.core, userMigrationPath(), c.options(nil, params), ghapi.SchemaMigration)
}

// UserStatus implements ghapi.MigrationsClient.UserStatus.
func (c *MigrationsClient) UserStatus(ctx context.Context, id int64) (*ghapi.Migration, error) {
	return c.status(ctx, userMigrationPath(migrationID(id)))
}

// UserArchiveURL implements ghapi.MigrationsClient.UserArchiveURL.
func (c *MigrationsClient) UserArchiveURL(ctx context.Context, id int64) (string, error) {
	return c.archiveURL(ctx, userMigrationPath(migrationID(id), "archive"))
}

// DeleteUserArchive implements ghapi.MigrationsClient.DeleteUserArchive.
func (c *MigrationsClient) DeleteUserArchive(ctx context.Context, id int64) error {
	return c.remove(ctx, userMigrationPath(migrationID(id), "archive"), "deleting migration archive")
}

// UnlockUserRepository implements ghapi.MigrationsClient.UnlockUserRepository.
func (c *MigrationsClient) UnlockUserRepository(ctx context.Context, id int64, repo string) error {
	return c.remove(ctx, userMigrationPath(migrationID(id), "repos", repo, "lock"), "unlocking repository")
}
