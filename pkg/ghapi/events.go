package ghapi

import (
	"context"
	"time"

	"github.com/fivetwenty-io/ghapi/pkg/schema"
)

// Event is an entry of an activity feed.
type Event struct {
	ID        string                       `json:"id"         yaml:"id"`
	Type      string                       `json:"type"       yaml:"type"`
	Actor     EventActor                   `json:"actor"      yaml:"actor"`
	Repo      EventRepo                    `json:"repo"       yaml:"repo"`
	Org       schema.Optional[EventActor]  `json:"org"        yaml:"org"`
	Public    bool                         `json:"public"     yaml:"public"`
	Payload   map[string]any               `json:"payload"    yaml:"payload"    schema:"optional"`
	CreatedAt time.Time                    `json:"created_at" yaml:"created_at"`
}

// EventActor is the account or organisation an event refers to.
type EventActor struct {
	ID           int64                   `json:"id"            yaml:"id"`
	Login        string                  `json:"login"         yaml:"login"`
	DisplayLogin schema.Optional[string] `json:"display_login" yaml:"display_login"`
	URL          string                  `json:"url"           yaml:"url"`
	AvatarURL    schema.Optional[string] `json:"avatar_url"    yaml:"avatar_url"`
}

// GetLogin returns the actor login.
func (a EventActor) GetLogin() string {
	return a.Login
}

// EventRepo is the repository an event happened in.
type EventRepo struct {
	ID   int64  `json:"id"   yaml:"id"`
	Name string `json:"name" yaml:"name"`
	URL  string `json:"url"  yaml:"url"`
}

// GetFullName returns "owner/name".
func (r EventRepo) GetFullName() string {
	return r.Name
}

// GetID returns the repository id.
func (r EventRepo) GetID() int64 {
	return r.ID
}

// EventsClient lists activity feeds.
type EventsClient interface {
	ListPublic(ctx context.Context, params *Params) *PaginationIterator[Event]
	ListForRepository(ctx context.Context, ref Ref, params *Params) *PaginationIterator[Event]
	// ListForUser includes private events when authenticated as that user.
	ListForUser(ctx context.Context, login string, params *Params) *PaginationIterator[Event]
	ListPublicForUser(ctx context.Context, login string, params *Params) *PaginationIterator[Event]
	ListForOrganization(ctx context.Context, org string, params *Params) *PaginationIterator[Event]
	ListReceived(ctx context.Context, login string, params *Params) *PaginationIterator[Event]
}
