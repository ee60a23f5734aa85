package commands_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/ghapi/cmd/ghapi/commands"
	"github.com/fivetwenty-io/ghapi/internal/constants"
)

// findSubcommand finds a subcommand by name within a cobra command.
func findSubcommand(cmd *cobra.Command, name string) *cobra.Command {
	for _, c := range cmd.Commands() {
		if c.Name() == name {
			return c
		}
	}

	return nil
}

func subcommandNames(cmd *cobra.Command) []string {
	names := make([]string, 0, len(cmd.Commands()))
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}

	return names
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestCommandTree(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		cmd         *cobra.Command
		use         string
		subcommands []string
	}{
		{
			name:        "repos",
			cmd:         commands.NewReposCommand(),
			use:         "repos",
			subcommands: []string{"get", "exists", "list", "create", "edit", "delete", "star", "unstar", "starred", "collaborators"},
		},
		{
			name:        "users",
			cmd:         commands.NewUsersCommand(),
			use:         "users",
			subcommands: []string{"get", "me", "followers", "following", "follows"},
		},
		{
			name:        "events",
			cmd:         commands.NewEventsCommand(),
			use:         "events",
			subcommands: []string{"list", "relay"},
		},
		{
			name:        "migrations",
			cmd:         commands.NewMigrationsCommand(),
			use:         "migrations",
			subcommands: []string{"start", "list", "status", "archive-url", "delete-archive", "unlock"},
		},
		{
			name:        "deploy keys",
			cmd:         commands.NewDeployKeysCommand(),
			use:         "deploy-keys",
			subcommands: []string{"list", "get", "add", "remove"},
		},
		{
			name:        "discussions",
			cmd:         commands.NewDiscussionsCommand(),
			use:         "discussions",
			subcommands: []string{"list", "get", "create", "update", "delete"},
		},
		{
			name:        "config",
			cmd:         commands.NewConfigCommand(),
			use:         "config",
			subcommands: []string{"show", "set", "set-token", "path"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.use, tt.cmd.Use)
			assert.NotEmpty(t, tt.cmd.Short)
			assert.ElementsMatch(t, tt.subcommands, subcommandNames(tt.cmd))
		})
	}
}

func TestEventsRelayFlags(t *testing.T) {
	t.Parallel()

	relay := findSubcommand(commands.NewEventsCommand(), "relay")
	require.NotNil(t, relay)

	for _, flag := range []string{"repo", "user", "org", "received", "limit", "interval", "once", "nats-url", "subject"} {
		assert.NotNil(t, relay.Flags().Lookup(flag), flag)
	}

	assert.Equal(t, constants.DefaultRelaySubject, relay.Flags().Lookup("subject").DefValue)
}

// fakeAPI serves canned JSON per path and records request paths.
type fakeAPI struct {
	mu     sync.Mutex
	paths  []string
	bodies map[string]string
}

func newFakeAPI(t *testing.T, bodies map[string]string) (*fakeAPI, *httptest.Server) {
	t.Helper()

	api := &fakeAPI{bodies: bodies}
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		api.mu.Lock()
		api.paths = append(api.paths, request.URL.Path)
		api.mu.Unlock()

		writer.Header().Set("Content-Type", "application/json")

		body, ok := api.bodies[request.URL.Path]
		if !ok {
			writer.WriteHeader(http.StatusNotFound)
			_, _ = writer.Write([]byte(`{"message":"Not Found"}`))

			return
		}

		_, _ = writer.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	return api, server
}

func (a *fakeAPI) requested() []string {
	a.mu.Lock()
	defer a.mu.Unlock()

	return append([]string(nil), a.paths...)
}

// useViper points the global configuration at the fake server. Tests that
// call it must not run in parallel.
func useViper(t *testing.T, settings map[string]any) {
	t.Helper()

	viper.Reset()
	t.Cleanup(viper.Reset)

	for key, value := range settings {
		viper.Set(key, value)
	}
}

func execute(t *testing.T, cmd *cobra.Command, stdin string, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer

	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	err := cmd.Execute()

	return out.String(), err
}

const repoBody = `{"id":1296269,"name":"hello","full_name":"octocat/hello","owner":{"login":"octocat","id":1},` +
	`"private":false,"html_url":"https://github.com/octocat/hello","url":"https://api.github.com/repos/octocat/hello",` +
	`"stargazers_count":80,"language":"Go"}`

func TestReposGet_JSON(t *testing.T) {
	_, server := newFakeAPI(t, map[string]string{"/repos/octocat/hello": repoBody})
	useViper(t, map[string]any{"api": server.URL, "output": "json", "token": "ghp_test"})

	out, err := execute(t, commands.NewReposCommand(), "", "get", "octocat/hello")
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "octocat/hello", decoded["full_name"])
	assert.InDelta(t, 80, decoded["stargazers_count"], 0)
}

func TestReposGet_Table(t *testing.T) {
	_, server := newFakeAPI(t, map[string]string{"/repos/octocat/hello": repoBody})
	useViper(t, map[string]any{"api": server.URL, "output": "table"})

	out, err := execute(t, commands.NewReposCommand(), "", "get", "octocat/hello")
	require.NoError(t, err)
	assert.Contains(t, out, "octocat/hello")
	assert.Contains(t, out, "Go")
	assert.Contains(t, out, commands.NotAvailable)
}

func TestReposExists(t *testing.T) {
	_, server := newFakeAPI(t, map[string]string{"/repos/octocat/hello": repoBody})
	useViper(t, map[string]any{"api": server.URL, "output": "json"})

	out, err := execute(t, commands.NewReposCommand(), "", "exists", "octocat/hello", "octocat/missing", "not a repo")
	require.NoError(t, err)

	var decoded map[string]bool
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, map[string]bool{"octocat/hello": true, "octocat/missing": false, "not a repo": false}, decoded)
}

func TestReposDelete_RequiresForce(t *testing.T) {
	api, server := newFakeAPI(t, nil)
	useViper(t, map[string]any{"api": server.URL, "token": "ghp_test"})

	_, err := execute(t, commands.NewReposCommand(), "", "delete", "octocat/hello")
	require.ErrorIs(t, err, constants.ErrConfirmationRequired)
	assert.Empty(t, api.requested())
}

func TestUsersMe_RequiresCredential(t *testing.T) {
	_, server := newFakeAPI(t, nil)
	useViper(t, map[string]any{"api": server.URL})

	_, err := execute(t, commands.NewUsersCommand(), "", "me")
	require.ErrorIs(t, err, constants.ErrNoTokenConfigured)
}

func TestEventsList_Repository(t *testing.T) {
	api, server := newFakeAPI(t, map[string]string{
		"/repos/octocat/hello/events": `[{"id":"1","type":"WatchEvent","actor":{"id":1,"login":"hubot","url":"u"},` +
			`"repo":{"id":2,"name":"octocat/hello","url":"u"},"public":true,"created_at":"2024-01-02T03:04:05Z"}]`,
	})
	useViper(t, map[string]any{"api": server.URL, "output": "yaml"})

	out, err := execute(t, commands.NewEventsCommand(), "", "list", "--repo", "octocat/hello")
	require.NoError(t, err)

	var decoded []map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "WatchEvent", decoded[0]["type"])
	assert.Equal(t, []string{"/repos/octocat/hello/events"}, api.requested())
}

func TestRateLimit_Table(t *testing.T) {
	_, server := newFakeAPI(t, map[string]string{
		"/rate_limit": `{"resources":{"core":{"limit":5000,"remaining":4999,"used":1,"reset":1700000000},` +
			`"search":{"limit":30,"remaining":30,"used":0,"reset":1700000000}},` +
			`"rate":{"limit":5000,"remaining":4999,"used":1,"reset":1700000000}}`,
	})
	useViper(t, map[string]any{"api": server.URL})

	out, err := execute(t, commands.NewRateLimitCommand(), "")
	require.NoError(t, err)
	assert.Contains(t, out, "core")
	assert.Contains(t, out, "4999")
	assert.Less(t, strings.Index(out, "core"), strings.Index(out, "search"))
}

func TestInvalidOutputFormat(t *testing.T) {
	_, server := newFakeAPI(t, map[string]string{"/repos/octocat/hello": repoBody})
	useViper(t, map[string]any{"api": server.URL, "output": "xml"})

	_, err := execute(t, commands.NewReposCommand(), "", "get", "octocat/hello")
	require.ErrorIs(t, err, constants.ErrInvalidOutputFormat)
}

func TestInvalidID(t *testing.T) {
	useViper(t, nil)

	_, err := execute(t, commands.NewMigrationsCommand(), "", "status", "abc", "--org", "github")
	require.ErrorIs(t, err, constants.ErrInvalidID)
}

func TestConfigSetToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ghapi", "config.yml")
	useViper(t, map[string]any{"api": "https://github.example.com/api/v3"})
	viper.SetConfigFile(path)

	_, err := execute(t, commands.NewConfigCommand(), "ghp_secret\n", "set-token")
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(constants.ConfigFilePerm), info.Mode().Perm())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var saved commands.Config
	require.NoError(t, yaml.Unmarshal(data, &saved))
	assert.Equal(t, "ghp_secret", saved.Token)
	assert.Equal(t, "https://github.example.com/api/v3", saved.API)

	_, err = execute(t, commands.NewConfigCommand(), "\n", "set-token")
	require.ErrorIs(t, err, constants.ErrEmptyToken)
}

func TestConfigSet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	useViper(t, nil)
	viper.SetConfigFile(path)

	_, err := execute(t, commands.NewConfigCommand(), "", "set", "per_page", "100")
	require.NoError(t, err)

	_, err = execute(t, commands.NewConfigCommand(), "", "set", "per_page", "101")
	require.ErrorIs(t, err, constants.ErrInvalidConfigValue)

	_, err = execute(t, commands.NewConfigCommand(), "", "set", "colour", "blue")
	require.ErrorIs(t, err, constants.ErrUnknownConfigKey)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "per_page: 100")
}

func TestConfigShow_MasksToken(t *testing.T) {
	useViper(t, map[string]any{"token": "ghp_secret", "output": "json"})

	out, err := execute(t, commands.NewConfigCommand(), "", "show")
	require.NoError(t, err)
	assert.NotContains(t, out, "ghp_secret")
	assert.Contains(t, out, `"token": "***"`)
}

func TestVersion(t *testing.T) {
	useViper(t, map[string]any{"output": "json"})

	out, err := execute(t, commands.NewVersionCommand("1.2.3", "abc123", "2024-01-01"), "")
	require.NoError(t, err)

	var decoded map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "1.2.3", decoded["version"])
	assert.Equal(t, "abc123", decoded["commit"])
}
