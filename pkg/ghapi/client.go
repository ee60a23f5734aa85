package ghapi

import (
	"context"

	"github.com/fivetwenty-io/ghapi/pkg/schema"
)

// Type identifiers of the registered model schemas.
const (
	SchemaRepository     = "repository"
	SchemaCollaborator   = "collaborator"
	SchemaUser           = "user"
	SchemaEvent          = "event"
	SchemaMigration      = "migration"
	SchemaDeployKey      = "deploy-key"
	SchemaTeamDiscussion = "team-discussion"
	SchemaRateLimits     = "rate-limits"
)

//nolint:gochecknoinits // Models register their schemas once.
func init() {
	schema.MustRegister[Repository](SchemaRepository)
	schema.MustRegister[Collaborator](SchemaCollaborator)
	schema.MustRegister[User](SchemaUser)
	schema.MustRegister[Event](SchemaEvent)
	schema.MustRegister[Migration](SchemaMigration)
	schema.MustRegister[DeployKey](SchemaDeployKey)
	schema.MustRegister[TeamDiscussion](SchemaTeamDiscussion)
	schema.MustRegister[RateLimits](SchemaRateLimits)
}

// ResourceClients provides access to the resource-specific clients.
type ResourceClients interface {
	Repositories() RepositoriesClient
	Users() UsersClient
	Events() EventsClient
	Migrations() MigrationsClient
	DeployKeys() DeployKeysClient
	Discussions() DiscussionsClient
	RateLimit() RateLimitClient
}

// CoreClient exposes the generic verbs every resource client is built on.
// out is decoded through the schema codec; pass nil to ignore the body.
type CoreClient interface {
	Do(ctx context.Context, method, path string, opts *RequestOptions, out any) error
	Get(ctx context.Context, path string, opts *RequestOptions, out any) error
	Post(ctx context.Context, path string, opts *RequestOptions, out any) error
	Put(ctx context.Context, path string, opts *RequestOptions, out any) error
	Patch(ctx context.Context, path string, opts *RequestOptions, out any) error
	Delete(ctx context.Context, path string, opts *RequestOptions, out any) error
	// Boolean maps a 2xx response to true and the listed error kinds
	// (KindNotFound when none are given) to false.
	Boolean(ctx context.Context, method, path string, opts *RequestOptions, falseKinds ...ErrorKind) (bool, error)
	// Config returns a copy of the client configuration.
	Config() *Config
}

// Client is the GitHub API client.
type Client interface {
	ResourceClients
	CoreClient
}
