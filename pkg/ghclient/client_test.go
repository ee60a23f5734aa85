package ghclient_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/ghapi/pkg/ghapi"
	"github.com/fivetwenty-io/ghapi/pkg/ghclient"
)

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("requires config", func(t *testing.T) {
		t.Parallel()

		_, err := ghclient.New(context.Background(), nil)
		require.ErrorIs(t, err, ghapi.ErrConfigRequired)
	})

	t.Run("adds https to bare endpoints", func(t *testing.T) {
		t.Parallel()

		client, err := ghclient.New(context.Background(), &ghapi.Config{BaseURL: "github.example.com/api/v3/"})
		require.NoError(t, err)
		assert.Equal(t, "https://github.example.com/api/v3", client.Config().BaseURL)
	})

	t.Run("does not modify the caller's config", func(t *testing.T) {
		t.Parallel()

		config := &ghapi.Config{BaseURL: "github.example.com"}
		_, err := ghclient.New(context.Background(), config)
		require.NoError(t, err)
		assert.Equal(t, "github.example.com", config.BaseURL)
	})

	t.Run("canceled context", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := ghclient.New(ctx, &ghapi.Config{})
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestConvenienceConstructors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	anonymous, err := ghclient.NewAnonymous(ctx)
	require.NoError(t, err)
	assert.Equal(t, "https://api.github.com", anonymous.Config().BaseURL)
	assert.Equal(t, ghapi.NoAuth{}, anonymous.Config().Credential)

	token, err := ghclient.NewWithToken(ctx, "ghp_test")
	require.NoError(t, err)
	assert.Equal(t, ghapi.TokenAuth{Token: "ghp_test"}, token.Config().Credential)

	basic, err := ghclient.NewWithBasicAuth(ctx, "octocat", "secret")
	require.NoError(t, err)
	assert.Equal(t, ghapi.BasicAuth{Username: "octocat", Password: "secret"}, basic.Config().Credential)

	enterprise, err := ghclient.NewWithEndpoint(ctx, "github.example.com/api/v3", "ghp_test")
	require.NoError(t, err)
	assert.Equal(t, "https://github.example.com/api/v3", enterprise.Config().BaseURL)
}

func testKeyPEM(t *testing.T) []byte {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	return pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestAppInstallation(t *testing.T) {
	t.Parallel()

	var (
		mu         sync.Mutex
		exchanges  int
		authHeader []string
	)

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		mu.Lock()
		defer mu.Unlock()

		writer.Header().Set("Content-Type", "application/json")

		switch request.URL.Path {
		case "/app/installations/99/access_tokens":
			exchanges++

			assert.True(t, strings.HasPrefix(request.Header.Get("Authorization"), "Bearer "))
			writer.WriteHeader(http.StatusCreated)
			_, _ = writer.Write([]byte(`{"token":"ghs_installation","expires_at":"` + time.Now().Add(time.Hour).UTC().Format(time.RFC3339) + `"}`))
		case "/repos/octocat/hello":
			authHeader = append(authHeader, request.Header.Get("Authorization"))
			_, _ = writer.Write([]byte(`{"id":1,"name":"hello","full_name":"octocat/hello","owner":{"login":"octocat","id":1},"html_url":"https://github.com/octocat/hello","url":"https://api.github.com/repos/octocat/hello"}`))
		default:
			writer.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	buildCtx, cancel := context.WithCancel(context.Background())

	client, err := ghclient.AppInstallation(buildCtx, &ghapi.Config{BaseURL: server.URL}, 12345, testKeyPEM(t), 99)
	require.NoError(t, err)

	// Token exchanges must not depend on the construction context.
	cancel()

	for range 3 {
		repo, err := client.Repositories().Get(context.Background(), ghapi.RefName("octocat/hello"))
		require.NoError(t, err)
		assert.Equal(t, int64(1), repo.ID)
	}

	mu.Lock()
	defer mu.Unlock()

	assert.Equal(t, 1, exchanges)
	require.Len(t, authHeader, 3)

	for _, header := range authHeader {
		assert.Equal(t, "token ghs_installation", header)
	}
}

func TestAppInstallation_InvalidKey(t *testing.T) {
	t.Parallel()

	_, err := ghclient.AppInstallation(context.Background(), &ghapi.Config{}, 12345, []byte("not a key"), 99)
	require.Error(t, err)

	_, err = ghclient.AppInstallation(context.Background(), nil, 12345, testKeyPEM(t), 99)
	require.ErrorIs(t, err, ghapi.ErrConfigRequired)
}

func TestApp_SignsEachRequest(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		assert.True(t, strings.HasPrefix(request.Header.Get("Authorization"), "Bearer "))
		writer.Header().Set("Content-Type", "application/json")
		_, _ = writer.Write([]byte(`{"login":"my-app[bot]","id":7}`))
	}))
	defer server.Close()

	client, err := ghclient.App(context.Background(), &ghapi.Config{BaseURL: server.URL}, 12345, testKeyPEM(t))
	require.NoError(t, err)

	var body map[string]any

	err = client.Get(context.Background(), "app", nil, &body)
	require.NoError(t, err)
	assert.Equal(t, "my-app[bot]", body["login"])
}
