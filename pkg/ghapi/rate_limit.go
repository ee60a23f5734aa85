package ghapi

import (
	"context"
	"time"

	"github.com/fivetwenty-io/ghapi/pkg/schema"
)

// RateLimitResource is the budget of one API resource family. Reset is in
// unix seconds on the wire.
type RateLimitResource struct {
	Limit     int                     `json:"limit"     yaml:"limit"`
	Remaining int                     `json:"remaining" yaml:"remaining"`
	Used      int                     `json:"used"      yaml:"used"`
	Reset     int64                   `json:"reset"     yaml:"reset"`
	Resource  schema.Optional[string] `json:"resource"  yaml:"resource"`
}

// ResetTime returns Reset as a time.
func (r RateLimitResource) ResetTime() time.Time {
	return time.Unix(r.Reset, 0)
}

// RateLimits is the /rate_limit response.
type RateLimits struct {
	Resources map[string]RateLimitResource `json:"resources" yaml:"resources"`
	Rate      RateLimitResource            `json:"rate"      yaml:"rate"`
}

// Core returns the budget for the core REST API.
func (r RateLimits) Core() RateLimitResource {
	if core, ok := r.Resources["core"]; ok {
		return core
	}

	return r.Rate
}

// RateLimitClient reads the caller's rate limit status. The call itself does
// not count against the limit.
type RateLimitClient interface {
	Get(ctx context.Context) (*RateLimits, error)
}
