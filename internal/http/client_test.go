package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ghhttp "github.com/fivetwenty-io/ghapi/internal/http"
	"github.com/fivetwenty-io/ghapi/pkg/ghapi"
	"github.com/fivetwenty-io/ghapi/pkg/schema"
)

// MockLogger for testing.
type MockLogger struct {
	mu   sync.Mutex
	logs []map[string]interface{}
}

func (l *MockLogger) record(level, msg string, fields map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.logs = append(l.logs, map[string]interface{}{"level": level, "msg": msg, "fields": fields})
}

func (l *MockLogger) Debug(msg string, fields map[string]interface{}) { l.record("debug", msg, fields) }
func (l *MockLogger) Info(msg string, fields map[string]interface{})  { l.record("info", msg, fields) }
func (l *MockLogger) Warn(msg string, fields map[string]interface{})  { l.record("warn", msg, fields) }
func (l *MockLogger) Error(msg string, fields map[string]interface{}) { l.record("error", msg, fields) }

func (l *MockLogger) messages() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]string, 0, len(l.logs))
	for _, entry := range l.logs {
		msg, _ := entry["msg"].(string)
		out = append(out, msg)
	}

	return out
}

func newClient(t *testing.T, baseURL string, credential ghapi.Credential, opts ...ghhttp.Option) *ghhttp.Client {
	t.Helper()

	config := &ghapi.Config{BaseURL: baseURL, Credential: credential}
	require.NoError(t, config.Normalize())

	client, err := ghhttp.NewClient(config, opts...)
	require.NoError(t, err)

	return client
}

type createBody struct {
	Name        string                  `json:"name"`
	Description schema.Optional[string] `json:"description"`
	Private     schema.Optional[bool]   `json:"private"`
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestClient_Send(t *testing.T) {
	t.Parallel()

	t.Run("successful request", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "/repos/octo/hello", request.URL.Path)
			assert.Equal(t, http.MethodGet, request.Method)
			assert.Equal(t, "token test-token", request.Header.Get("Authorization"))
			assert.Equal(t, "application/vnd.github.v3+json", request.Header.Get("Accept"))
			assert.Equal(t, "2022-11-28", request.Header.Get("X-GitHub-Api-Version"))
			assert.Equal(t, "ghapi-go", request.Header.Get("User-Agent"))
			assert.Empty(t, request.Header.Get("Content-Type"))

			writer.Header().Set("X-Custom", "yes")
			_ = json.NewEncoder(writer).Encode(map[string]string{"full_name": "octo/hello"})
		}))
		defer server.Close()

		client := newClient(t, server.URL, ghapi.TokenAuth{Token: "test-token"})

		resp, err := client.Send(context.Background(), &ghapi.Request{Method: http.MethodGet, Path: "repos/octo/hello"})
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "yes", resp.Header.Get("x-custom"))
		assert.JSONEq(t, `{"full_name":"octo/hello"}`, string(resp.Body))
		assert.Equal(t, server.URL+"/repos/octo/hello", resp.URL)
	})

	t.Run("query parameters keep insertion order", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "type=owner&sort=updated&per_page=2&q=a+b", request.URL.RawQuery)
			writer.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := newClient(t, server.URL, nil)

		query := ghapi.NewParams().WithType("owner").WithSort("updated").WithPerPage(2).Set("q", "a b")

		resp, err := client.Send(context.Background(), &ghapi.Request{Method: http.MethodGet, Path: "/user/repos", Query: query})
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("body is encoded through the schema codec", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, http.MethodPost, request.Method)
			assert.Equal(t, "application/json", request.Header.Get("Content-Type"))

			body, err := io.ReadAll(request.Body)
			assert.NoError(t, err)
			assert.Equal(t, `{"name":"demo","private":true}`, string(body))

			writer.WriteHeader(http.StatusCreated)
		}))
		defer server.Close()

		client := newClient(t, server.URL, nil)

		resp, err := client.Send(context.Background(), &ghapi.Request{
			Method: http.MethodPost,
			Path:   "user/repos",
			Body:   createBody{Name: "demo", Private: schema.Some(true)},
		})
		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
	})

	t.Run("basic auth and no auth", func(t *testing.T) {
		t.Parallel()

		var seen []string

		var mu sync.Mutex

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			mu.Lock()
			seen = append(seen, request.Header.Get("Authorization"))
			mu.Unlock()
			assert.LessOrEqual(t, len(request.Header.Values("Authorization")), 1)
			writer.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		basic := newClient(t, server.URL, ghapi.BasicAuth{Username: "user", Password: "pass"})
		_, err := basic.Send(context.Background(), &ghapi.Request{
			Method:  http.MethodGet,
			Path:    "user",
			Headers: http.Header{"Authorization": []string{"token smuggled"}},
		})
		require.NoError(t, err)

		anonymous := newClient(t, server.URL, nil)
		_, err = anonymous.Send(context.Background(), &ghapi.Request{Method: http.MethodGet, Path: "user"})
		require.NoError(t, err)

		assert.Equal(t, []string{"Basic dXNlcjpwYXNz", ""}, seen)
	})

	t.Run("error statuses are returned as envelopes", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			writer.WriteHeader(http.StatusNotFound)
			_, _ = writer.Write([]byte(`{"message":"Not Found"}`))
		}))
		defer server.Close()

		client := newClient(t, server.URL, nil)

		resp, err := client.Send(context.Background(), &ghapi.Request{Method: http.MethodGet, Path: "repos/a/b"})
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.JSONEq(t, `{"message":"Not Found"}`, string(resp.Body))
	})

	t.Run("accept header can be overridden", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "application/vnd.github.wyandotte-preview+json", request.Header.Get("Accept"))
			writer.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := newClient(t, server.URL, nil)

		_, err := client.Send(context.Background(), &ghapi.Request{
			Method:  http.MethodGet,
			Path:    "orgs/o/migrations",
			Headers: http.Header{"Accept": []string{"application/vnd.github.wyandotte-preview+json"}},
		})
		require.NoError(t, err)
	})

	t.Run("absolute URLs are used verbatim", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "/repositories/1/events", request.URL.Path)
			assert.Equal(t, "page=2&per_page=2", request.URL.RawQuery)
			writer.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := newClient(t, "https://api.github.invalid", nil)

		_, err := client.Send(context.Background(), &ghapi.Request{
			Method: http.MethodGet,
			Path:   server.URL + "/repositories/1/events?page=2&per_page=2",
		})
		require.NoError(t, err)
	})

	t.Run("base URL path prefix is kept", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "/api/v3/rate_limit", request.URL.Path)
			writer.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := newClient(t, server.URL+"/api/v3/", nil)

		_, err := client.Send(context.Background(), &ghapi.Request{Method: http.MethodGet, Path: "rate_limit"})
		require.NoError(t, err)
	})

	t.Run("redirects can be returned instead of followed", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			http.Redirect(writer, request, "https://archives.example.com/a.tar.gz", http.StatusFound)
		}))
		defer server.Close()

		client := newClient(t, server.URL, nil)

		resp, err := client.Send(context.Background(), &ghapi.Request{
			Method:     http.MethodGet,
			Path:       "orgs/o/migrations/1/archive",
			NoRedirect: true,
		})
		require.NoError(t, err)
		assert.Equal(t, http.StatusFound, resp.StatusCode)
		assert.Equal(t, "https://archives.example.com/a.tar.gz", resp.Header.Get("Location"))
	})

	t.Run("with debug logging", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			writer.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		logger := &MockLogger{}
		client := newClient(t, server.URL, nil, ghhttp.WithLogger(logger), ghhttp.WithDebug(true))

		_, err := client.Send(context.Background(), &ghapi.Request{Method: http.MethodGet, Path: "zen"})
		require.NoError(t, err)

		messages := logger.messages()
		assert.Contains(t, messages, "sending request")
		assert.Contains(t, messages, "received response")
	})

	t.Run("missing method", func(t *testing.T) {
		t.Parallel()

		client := newClient(t, "https://api.github.invalid", nil)

		_, err := client.Send(context.Background(), &ghapi.Request{Path: "zen"})
		require.ErrorIs(t, err, ghhttp.ErrEmptyMethod)
	})
}

func TestClient_TransportErrors(t *testing.T) {
	t.Parallel()

	t.Run("connection refused", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		baseURL := server.URL
		server.Close()

		client := newClient(t, baseURL, nil)

		_, err := client.Send(context.Background(), &ghapi.Request{Method: http.MethodGet, Path: "zen"})
		require.Error(t, err)

		var transportErr *ghapi.TransportError
		require.True(t, errors.As(err, &transportErr))
		assert.Equal(t, ghapi.TransportConnect, transportErr.Kind)
	})

	t.Run("timeout", func(t *testing.T) {
		t.Parallel()

		release := make(chan struct{})
		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			select {
			case <-release:
			case <-request.Context().Done():
			}
		}))
		defer server.Close()
		defer close(release)

		client := newClient(t, server.URL, nil, ghhttp.WithTimeout(50*time.Millisecond))

		_, err := client.Send(context.Background(), &ghapi.Request{Method: http.MethodGet, Path: "zen"})

		var transportErr *ghapi.TransportError
		require.ErrorAs(t, err, &transportErr)
		assert.Equal(t, ghapi.TransportTimeout, transportErr.Kind)
		assert.True(t, transportErr.Timeout())
	})

	t.Run("canceled context", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			writer.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := newClient(t, server.URL, nil)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := client.Send(ctx, &ghapi.Request{Method: http.MethodGet, Path: "zen"})

		var transportErr *ghapi.TransportError
		require.ErrorAs(t, err, &transportErr)
		assert.Equal(t, ghapi.TransportCanceled, transportErr.Kind)
	})
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestClient_RetryLogic(t *testing.T) {
	t.Parallel()

	t.Run("retries on 5xx errors when enabled", func(t *testing.T) {
		t.Parallel()

		var attempts atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			if attempts.Add(1) < 3 {
				writer.WriteHeader(http.StatusInternalServerError)

				return
			}

			writer.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := newClient(t, server.URL, nil,
			ghhttp.WithRetryMax(3),
			ghhttp.WithRetryWait(10*time.Millisecond, 100*time.Millisecond),
		)

		resp, err := client.Send(context.Background(), &ghapi.Request{Method: http.MethodGet, Path: "zen"})
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, int32(3), attempts.Load())
	})

	t.Run("no retries by default", func(t *testing.T) {
		t.Parallel()

		var attempts atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			attempts.Add(1)
			writer.WriteHeader(http.StatusBadGateway)
			_, _ = writer.Write([]byte(`{"message":"bad gateway"}`))
		}))
		defer server.Close()

		client := newClient(t, server.URL, nil)

		resp, err := client.Send(context.Background(), &ghapi.Request{Method: http.MethodGet, Path: "zen"})
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
		assert.JSONEq(t, `{"message":"bad gateway"}`, string(resp.Body))
		assert.Equal(t, int32(1), attempts.Load())
	})

	t.Run("does not retry rate limits or client errors", func(t *testing.T) {
		t.Parallel()

		var attempts atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			attempts.Add(1)
			writer.WriteHeader(http.StatusTooManyRequests)
		}))
		defer server.Close()

		client := newClient(t, server.URL, nil,
			ghhttp.WithRetryMax(3),
			ghhttp.WithRetryWait(10*time.Millisecond, 100*time.Millisecond),
		)

		resp, err := client.Send(context.Background(), &ghapi.Request{Method: http.MethodGet, Path: "zen"})
		require.NoError(t, err)
		assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
		assert.Equal(t, int32(1), attempts.Load())
	})
}

func TestClient_Interceptors(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, "intercepted", request.Header.Get("X-Trace"))
		writer.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	var order []string

	chain := ghapi.NewInterceptorChain()
	chain.AddRequestInterceptor(ghapi.HeaderInterceptor(map[string]string{"X-Trace": "intercepted"}))
	chain.AddRequestInterceptor(func(ctx context.Context, req *ghapi.Request) error {
		order = append(order, "request")

		return nil
	})
	chain.AddResponseInterceptor(func(ctx context.Context, req *ghapi.Request, resp *ghapi.Response) error {
		order = append(order, "response")
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		return nil
	})

	client := newClient(t, server.URL, nil, ghhttp.WithInterceptors(chain))

	original := &ghapi.Request{Method: http.MethodGet, Path: "zen"}

	_, err := client.Send(context.Background(), original)
	require.NoError(t, err)
	assert.Equal(t, []string{"request", "response"}, order)
	assert.Nil(t, original.Headers, "caller's request must not be modified")
}

func TestClient_TokenSourceCredential(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, "token ghs_installation", request.Header.Get("Authorization"))
		writer.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	credential := ghapi.TokenAuth{Token: "ghs_installation"}
	client := newClient(t, server.URL, credential)

	_, err := client.Send(context.Background(), &ghapi.Request{Method: http.MethodGet, Path: "installation/repositories"})
	require.NoError(t, err)
}
