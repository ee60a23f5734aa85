package ghapi

import (
	"context"
	"time"

	"github.com/fivetwenty-io/ghapi/pkg/schema"
)

// TeamDiscussion is a post on a team's discussion board.
type TeamDiscussion struct {
	Number        int                        `json:"number"         yaml:"number"`
	NodeID        schema.Optional[string]    `json:"node_id"        yaml:"node_id"`
	Title         string                     `json:"title"          yaml:"title"`
	Body          string                     `json:"body"           yaml:"body"`
	Author        schema.Optional[User]      `json:"author"         yaml:"author"`
	Private       bool                       `json:"private"        yaml:"private"`
	Pinned        bool                       `json:"pinned"         yaml:"pinned"`
	CommentsCount schema.Optional[int]       `json:"comments_count" yaml:"comments_count"`
	URL           string                     `json:"url"            yaml:"url"`
	HTMLURL       schema.Optional[string]    `json:"html_url"       yaml:"html_url"`
	CreatedAt     schema.Optional[time.Time] `json:"created_at"     yaml:"created_at"`
	UpdatedAt     schema.Optional[time.Time] `json:"updated_at"     yaml:"updated_at"`
}

// DiscussionCreateRequest is the body for starting a discussion.
type DiscussionCreateRequest struct {
	Title   string                `json:"title"   yaml:"title"`
	Body    string                `json:"body"    yaml:"body"`
	Private schema.Optional[bool] `json:"private" yaml:"private"`
}

// DiscussionUpdateRequest is the body for editing a discussion. Absent
// fields are left unchanged.
type DiscussionUpdateRequest struct {
	Title schema.Optional[string] `json:"title" yaml:"title"`
	Body  schema.Optional[string] `json:"body"  yaml:"body"`
}

// DiscussionsClient manages team discussions, addressed by organisation
// login and team slug.
type DiscussionsClient interface {
	List(ctx context.Context, org, team string, params *Params) *PaginationIterator[TeamDiscussion]
	Get(ctx context.Context, org, team string, number int) (*TeamDiscussion, error)
	Create(ctx context.Context, org, team string, request *DiscussionCreateRequest) (*TeamDiscussion, error)
	Update(ctx context.Context, org, team string, number int, request *DiscussionUpdateRequest) (*TeamDiscussion, error)
	Delete(ctx context.Context, org, team string, number int) error
}
