package ghapi

import (
	"context"
	"time"

	"github.com/fivetwenty-io/ghapi/pkg/schema"
)

// Repository represents a GitHub repository.
type Repository struct {
	ID               int64                          `json:"id"                 yaml:"id"`
	NodeID           schema.Optional[string]        `json:"node_id"            yaml:"node_id"`
	Name             string                         `json:"name"               yaml:"name"`
	FullName         string                         `json:"full_name"          yaml:"full_name"`
	Owner            User                           `json:"owner"              yaml:"owner"`
	Private          bool                           `json:"private"            yaml:"private"`
	Fork             bool                           `json:"fork"               yaml:"fork"`
	Archived         bool                           `json:"archived"           yaml:"archived"`
	Description      schema.Optional[string]        `json:"description"        yaml:"description"`
	Homepage         schema.Optional[string]        `json:"homepage"           yaml:"homepage"`
	HTMLURL          string                         `json:"html_url"           yaml:"html_url"`
	URL              string                         `json:"url"                yaml:"url"`
	CloneURL         schema.Optional[string]        `json:"clone_url"          yaml:"clone_url"`
	DefaultBranch    schema.Optional[string]        `json:"default_branch"     yaml:"default_branch"`
	Language         schema.Optional[string]        `json:"language"           yaml:"language"`
	Visibility       schema.Optional[string]        `json:"visibility"         yaml:"visibility"`
	StargazersCount  schema.Optional[int]           `json:"stargazers_count"   yaml:"stargazers_count"`
	WatchersCount    schema.Optional[int]           `json:"watchers_count"     yaml:"watchers_count"`
	ForksCount       schema.Optional[int]           `json:"forks_count"        yaml:"forks_count"`
	OpenIssuesCount  schema.Optional[int]           `json:"open_issues_count"  yaml:"open_issues_count"`
	Topics           []string                       `json:"topics"             yaml:"topics"             schema:"optional"`
	Permissions      schema.Optional[Permissions]   `json:"permissions"        yaml:"permissions"`
	CreatedAt        schema.Optional[time.Time]     `json:"created_at"         yaml:"created_at"`
	UpdatedAt        schema.Optional[time.Time]     `json:"updated_at"         yaml:"updated_at"`
	PushedAt         schema.Optional[time.Time]     `json:"pushed_at"          yaml:"pushed_at"`
}

// GetFullName returns "owner/name".
func (r Repository) GetFullName() string {
	return r.FullName
}

// GetID returns the repository id.
func (r Repository) GetID() int64 {
	return r.ID
}

// Permissions are the caller's rights on a repository.
type Permissions struct {
	Admin    bool `json:"admin"    yaml:"admin"`
	Maintain bool `json:"maintain" yaml:"maintain"`
	Push     bool `json:"push"     yaml:"push"`
	Triage   bool `json:"triage"   yaml:"triage"`
	Pull     bool `json:"pull"     yaml:"pull"`
}

// Collaborator is a user with access to a repository.
type Collaborator struct {
	User

	Permissions schema.Optional[Permissions] `json:"permissions" yaml:"permissions"`
	RoleName    schema.Optional[string]      `json:"role_name"   yaml:"role_name"`
}

// RepositoryCreateRequest is the body for creating a repository.
type RepositoryCreateRequest struct {
	Name        string                  `json:"name"         yaml:"name"`
	Description schema.Optional[string] `json:"description"  yaml:"description"`
	Homepage    schema.Optional[string] `json:"homepage"     yaml:"homepage"`
	Private     schema.Optional[bool]   `json:"private"      yaml:"private"`
	HasIssues   schema.Optional[bool]   `json:"has_issues"   yaml:"has_issues"`
	HasWiki     schema.Optional[bool]   `json:"has_wiki"     yaml:"has_wiki"`
	AutoInit    schema.Optional[bool]   `json:"auto_init"    yaml:"auto_init"`
	TeamID      schema.Optional[int64]  `json:"team_id"      yaml:"team_id"`
}

// RepositoryEditRequest is the body for editing a repository. Absent fields
// are left unchanged.
type RepositoryEditRequest struct {
	Name          schema.Optional[string] `json:"name"           yaml:"name"`
	Description   schema.Optional[string] `json:"description"    yaml:"description"`
	Homepage      schema.Optional[string] `json:"homepage"       yaml:"homepage"`
	Private       schema.Optional[bool]   `json:"private"        yaml:"private"`
	DefaultBranch schema.Optional[string] `json:"default_branch" yaml:"default_branch"`
	Archived      schema.Optional[bool]   `json:"archived"       yaml:"archived"`
}

// RepositoriesClient defines operations on repositories.
type RepositoriesClient interface {
	Get(ctx context.Context, ref Ref) (*Repository, error)
	// Exists reports false for a missing or malformed repository and
	// returns every other error.
	Exists(ctx context.Context, ref Ref) (bool, error)
	// ExistsAll checks refs concurrently. Results follow input order.
	ExistsAll(ctx context.Context, refs []Ref) ([]bool, error)
	ListForUser(ctx context.Context, login string, params *Params) *PaginationIterator[Repository]
	ListForOrg(ctx context.Context, org string, params *Params) *PaginationIterator[Repository]
	ListForAuthenticatedUser(ctx context.Context, params *Params) *PaginationIterator[Repository]
	// Create creates a repository under org, or under the authenticated
	// user when org is empty.
	Create(ctx context.Context, org string, request *RepositoryCreateRequest) (*Repository, error)
	Edit(ctx context.Context, ref Ref, request *RepositoryEditRequest) (*Repository, error)
	Delete(ctx context.Context, ref Ref) error
	Star(ctx context.Context, ref Ref) error
	Unstar(ctx context.Context, ref Ref) error
	IsStarred(ctx context.Context, ref Ref) (bool, error)
	ListCollaborators(ctx context.Context, ref Ref, params *Params) *PaginationIterator[Collaborator]
	IsCollaborator(ctx context.Context, ref Ref, login string) (bool, error)
}
