package client_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/fivetwenty-io/ghapi/internal/client"
	"github.com/fivetwenty-io/ghapi/pkg/ghapi"
)

// recordedRequest is what the fake server saw.
type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Accept string
	Body   string
}

// fakeResponse is a canned reply.
type fakeResponse struct {
	Status int
	Body   string
	Header map[string]string
}

// fakeGitHub serves canned responses keyed by "METHOD /path". Unknown
// routes get a 404 with the usual error envelope.
type fakeGitHub struct {
	server *httptest.Server

	mu       sync.Mutex
	routes   map[string][]fakeResponse
	received []recordedRequest
}

func newFakeGitHub(t *testing.T) *fakeGitHub {
	t.Helper()

	fake := &fakeGitHub{routes: make(map[string][]fakeResponse)}
	fake.server = httptest.NewServer(http.HandlerFunc(fake.serve))
	t.Cleanup(fake.server.Close)

	return fake
}

// on queues responses for a route. The last one repeats.
func (f *fakeGitHub) on(method, path string, responses ...fakeResponse) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.routes[method+" "+path] = append(f.routes[method+" "+path], responses...)
}

func (f *fakeGitHub) reply(method, path string, status int, body string) {
	f.on(method, path, fakeResponse{Status: status, Body: body})
}

func (f *fakeGitHub) requests() []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]recordedRequest(nil), f.received...)
}

func (f *fakeGitHub) serve(writer http.ResponseWriter, request *http.Request) {
	body, _ := io.ReadAll(request.Body)

	f.mu.Lock()
	f.received = append(f.received, recordedRequest{
		Method: request.Method,
		Path:   request.URL.Path,
		Query:  request.URL.RawQuery,
		Accept: request.Header.Get("Accept"),
		Body:   string(body),
	})

	key := request.Method + " " + request.URL.Path
	queue := f.routes[key]

	response := fakeResponse{Status: http.StatusNotFound, Body: `{"message":"Not Found"}`}
	if len(queue) > 0 {
		response = queue[0]
		if len(queue) > 1 {
			f.routes[key] = queue[1:]
		}
	}
	f.mu.Unlock()

	for name, value := range response.Header {
		writer.Header().Set(name, value)
	}

	if response.Body != "" {
		writer.Header().Set("Content-Type", "application/json")
	}

	writer.WriteHeader(response.Status)
	_, _ = io.WriteString(writer, response.Body)
}

func (f *fakeGitHub) client(t *testing.T, configure ...func(*ghapi.Config)) *Client {
	t.Helper()

	config := &ghapi.Config{
		BaseURL:    f.server.URL,
		Credential: ghapi.TokenAuth{Token: "test-token"},
	}

	for _, apply := range configure {
		apply(config)
	}

	client, err := New(config)
	require.NoError(t, err)

	return client
}

// Fixtures.

func userJSON(login string, id int64) string {
	return fmt.Sprintf(`{"login":%q,"id":%d,"site_admin":false}`, login, id)
}

func repoJSON(fullName string, id int64) string {
	return fmt.Sprintf(
		`{"id":%d,"name":"repo","full_name":%q,"owner":%s,"private":false,"html_url":"https://github.com/%s","url":"https://api.github.com/repos/%s"}`,
		id, fullName, userJSON("octocat", 1), fullName, fullName,
	)
}

func eventJSON(id, kind string) string {
	return fmt.Sprintf(
		`{"id":%q,"type":%q,"actor":{"id":1,"login":"octocat","url":"https://api.github.com/users/octocat"},"repo":{"id":7,"name":"octocat/hello","url":"https://api.github.com/repos/octocat/hello"},"public":true,"payload":{},"created_at":"2024-01-02T03:04:05Z"}`,
		id, kind,
	)
}

func migrationJSON(id int64, state string) string {
	return fmt.Sprintf(
		`{"id":%d,"guid":"0b989ba4","state":%q,"lock_repositories":true,"exclude_attachments":false,"exclude_releases":false,"url":"https://api.github.com/orgs/octo-org/migrations/%d"}`,
		id, state, id,
	)
}

func deployKeyJSON(id int64, title string) string {
	return fmt.Sprintf(
		`{"id":%d,"key":"ssh-rsa AAAA","url":"https://api.github.com/repos/octocat/hello/keys/%d","title":%q,"verified":true,"read_only":true}`,
		id, id, title,
	)
}

func discussionJSON(number int, title string) string {
	return fmt.Sprintf(
		`{"number":%d,"title":%q,"body":"hi","private":false,"pinned":false,"url":"https://api.github.com/teams/1/discussions/%d"}`,
		number, title, number,
	)
}

func array(items ...string) string {
	out := "["
	for i, item := range items {
		if i > 0 {
			out += ","
		}

		out += item
	}

	return out + "]"
}

// operationTest is a table entry for a single-call operation.
type operationTest struct {
	Name     string
	Method   string
	Path     string
	Status   int
	Response string
	Call     func(context.Context, *Client) (any, error)
	WantErr  bool
	WantKind ghapi.ErrorKind
	Check    func(t *testing.T, result any, req recordedRequest)
}

// runOperationTests serves each entry from a fresh fake and checks the
// request line and outcome.
func runOperationTests(t *testing.T, tests []operationTest) {
	t.Helper()

	for _, testCase := range tests {
		t.Run(testCase.Name, func(t *testing.T) {
			t.Parallel()

			fake := newFakeGitHub(t)
			fake.reply(testCase.Method, testCase.Path, testCase.Status, testCase.Response)

			result, err := testCase.Call(context.Background(), fake.client(t))

			requests := fake.requests()
			require.Len(t, requests, 1)
			assert.Equal(t, testCase.Method, requests[0].Method)
			assert.Equal(t, testCase.Path, requests[0].Path)

			if testCase.WantErr {
				require.Error(t, err)

				if testCase.WantKind != 0 {
					kind, ok := ghapi.KindOf(err)
					require.True(t, ok, "expected an API error, got %v", err)
					assert.Equal(t, testCase.WantKind, kind)
				}

				return
			}

			require.NoError(t, err)

			if testCase.Check != nil {
				testCase.Check(t, result, requests[0])
			}
		})
	}
}
