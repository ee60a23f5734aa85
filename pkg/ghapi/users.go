package ghapi

import (
	"context"
	"time"

	"github.com/fivetwenty-io/ghapi/pkg/schema"
)

// User represents a GitHub account. List endpoints return only the summary
// fields, so the profile fields are optional.
type User struct {
	Login       string                     `json:"login"        yaml:"login"`
	ID          int64                      `json:"id"           yaml:"id"`
	NodeID      schema.Optional[string]    `json:"node_id"      yaml:"node_id"`
	Type        schema.Optional[string]    `json:"type"         yaml:"type"`
	SiteAdmin   bool                       `json:"site_admin"   yaml:"site_admin"`
	AvatarURL   schema.Optional[string]    `json:"avatar_url"   yaml:"avatar_url"`
	HTMLURL     schema.Optional[string]    `json:"html_url"     yaml:"html_url"`
	Name        schema.Optional[string]    `json:"name"         yaml:"name"`
	Company     schema.Optional[string]    `json:"company"      yaml:"company"`
	Blog        schema.Optional[string]    `json:"blog"         yaml:"blog"`
	Location    schema.Optional[string]    `json:"location"     yaml:"location"`
	Email       schema.Optional[string]    `json:"email"        yaml:"email"`
	Bio         schema.Optional[string]    `json:"bio"          yaml:"bio"`
	PublicRepos schema.Optional[int]       `json:"public_repos" yaml:"public_repos"`
	Followers   schema.Optional[int]       `json:"followers"    yaml:"followers"`
	Following   schema.Optional[int]       `json:"following"    yaml:"following"`
	CreatedAt   schema.Optional[time.Time] `json:"created_at"   yaml:"created_at"`
}

// GetLogin returns the account login.
func (u User) GetLogin() string {
	return u.Login
}

// GetID returns the account id.
func (u User) GetID() int64 {
	return u.ID
}

// UsersClient defines operations on users. A zero Ref means the
// authenticated user.
type UsersClient interface {
	Get(ctx context.Context, ref Ref) (*User, error)
	Authenticated(ctx context.Context) (*User, error)
	ListFollowers(ctx context.Context, ref Ref, params *Params) *PaginationIterator[User]
	ListFollowing(ctx context.Context, ref Ref, params *Params) *PaginationIterator[User]
	// Follows reports whether user follows target.
	Follows(ctx context.Context, user Ref, target string) (bool, error)
}
