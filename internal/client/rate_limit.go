package client

import (
	"context"
	"fmt"

	"github.com/fivetwenty-io/ghapi/pkg/ghapi"
)

// RateLimitClient implements ghapi.RateLimitClient.
type RateLimitClient struct {
	core *Client
}

// NewRateLimitClient creates a new rate limit client.
func NewRateLimitClient(core *Client) *RateLimitClient {
	return &RateLimitClient{
		core: core,
	}
}

// Get implements ghapi.RateLimitClient.Get.
func (c *RateLimitClient) Get(ctx context.Context) (*ghapi.RateLimits, error) {
	var limits ghapi.RateLimits

	err := c.core.Get(ctx, "rate_limit", nil, &limits)
	if err != nil {
		return nil, fmt.Errorf("getting rate limit: %w", err)
	}

	return &limits, nil
}
