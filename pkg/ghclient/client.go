// Package ghclient provides the main entry point for creating GitHub API clients
package ghclient

import (
	"context"
	"fmt"
	"strings"

	"github.com/fivetwenty-io/ghapi/internal/auth"
	"github.com/fivetwenty-io/ghapi/internal/client"
	"github.com/fivetwenty-io/ghapi/pkg/ghapi"
)

// New creates a GitHub API client from config. The config is copied; an
// endpoint given without a scheme is taken as https.
func New(ctx context.Context, config *ghapi.Config) (ghapi.Client, error) {
	if config == nil {
		return nil, ghapi.ErrConfigRequired
	}

	err := ctx.Err()
	if err != nil {
		return nil, fmt.Errorf("creating client: %w", err)
	}

	config = config.Clone()
	config.BaseURL = normalizeEndpoint(config.BaseURL)

	c, err := client.New(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create new client: %w", err)
	}

	return c, nil
}

func normalizeEndpoint(endpoint string) string {
	endpoint = strings.TrimSuffix(strings.TrimSpace(endpoint), "/")
	if endpoint == "" {
		return ""
	}

	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		endpoint = "https://" + endpoint
	}

	return endpoint
}

// NewAnonymous creates an unauthenticated client for api.github.com.
func NewAnonymous(ctx context.Context) (ghapi.Client, error) {
	return New(ctx, &ghapi.Config{})
}

// NewWithToken creates a client for api.github.com using a personal access
// or OAuth token.
func NewWithToken(ctx context.Context, token string) (ghapi.Client, error) {
	return New(ctx, &ghapi.Config{
		Credential: ghapi.TokenAuth{Token: token},
	})
}

// NewWithBasicAuth creates a client for api.github.com using username and
// password.
func NewWithBasicAuth(ctx context.Context, username, password string) (ghapi.Client, error) {
	return New(ctx, &ghapi.Config{
		Credential: ghapi.BasicAuth{Username: username, Password: password},
	})
}

// NewWithEndpoint creates a token client for a GitHub Enterprise endpoint
// such as "github.example.com/api/v3".
func NewWithEndpoint(ctx context.Context, endpoint, token string) (ghapi.Client, error) {
	return New(ctx, &ghapi.Config{
		BaseURL:    endpoint,
		Credential: ghapi.TokenAuth{Token: token},
	})
}

// App creates a client authenticated as the GitHub App itself, for the
// app/* endpoints. Each request carries a freshly signed JWT.
func App(ctx context.Context, config *ghapi.Config, appID int64, privateKeyPEM []byte) (ghapi.Client, error) {
	if config == nil {
		return nil, ghapi.ErrConfigRequired
	}

	signer, err := auth.NewAppSigner(appID, privateKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("creating app signer: %w", err)
	}

	return New(ctx, config.WithCredential(signer))
}

// AppInstallation creates a client authenticated as one installation of a
// GitHub App. Installation tokens are exchanged on first use and renewed
// shortly before they expire. Each exchange runs under the context of the
// request that needs the token; ctx only guards construction.
func AppInstallation(ctx context.Context, config *ghapi.Config, appID int64, privateKeyPEM []byte, installationID int64) (ghapi.Client, error) {
	if config == nil {
		return nil, ghapi.ErrConfigRequired
	}

	config = config.Clone()
	config.BaseURL = normalizeEndpoint(config.BaseURL)

	signer, err := auth.NewAppSigner(appID, privateKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("creating app signer: %w", err)
	}

	source, err := auth.NewInstallationTokenSource(config, signer, installationID)
	if err != nil {
		return nil, fmt.Errorf("creating installation token source: %w", err)
	}

	credential, err := ghapi.NewTokenSourceAuth(source)
	if err != nil {
		return nil, fmt.Errorf("creating installation credential: %w", err)
	}

	return New(ctx, config.WithCredential(credential))
}
