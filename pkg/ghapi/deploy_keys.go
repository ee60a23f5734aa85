package ghapi

import (
	"context"
	"time"

	"github.com/fivetwenty-io/ghapi/pkg/schema"
)

// DeployKey is an SSH key granting access to a single repository.
type DeployKey struct {
	ID        int64                      `json:"id"         yaml:"id"`
	Key       string                     `json:"key"        yaml:"key"`
	URL       string                     `json:"url"        yaml:"url"`
	Title     string                     `json:"title"      yaml:"title"`
	Verified  bool                       `json:"verified"   yaml:"verified"`
	ReadOnly  bool                       `json:"read_only"  yaml:"read_only"`
	AddedBy   schema.Optional[string]    `json:"added_by"   yaml:"added_by"`
	CreatedAt schema.Optional[time.Time] `json:"created_at" yaml:"created_at"`
	LastUsed  schema.Optional[time.Time] `json:"last_used"  yaml:"last_used"`
}

// GetID returns the key id.
func (k DeployKey) GetID() int64 {
	return k.ID
}

// DeployKeyRequest is the body for adding a deploy key.
type DeployKeyRequest struct {
	Title    string `json:"title"     yaml:"title"`
	Key      string `json:"key"       yaml:"key"`
	ReadOnly bool   `json:"read_only" yaml:"read_only"`
}

// DeployKeysClient manages repository deploy keys.
type DeployKeysClient interface {
	List(ctx context.Context, repo Ref, params *Params) *PaginationIterator[DeployKey]
	Get(ctx context.Context, repo Ref, id int64) (*DeployKey, error)
	Add(ctx context.Context, repo Ref, title, key string, readOnly bool) (*DeployKey, error)
	Remove(ctx context.Context, repo Ref, id int64) error
}
