package ghapi_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fivetwenty-io/ghapi/pkg/ghapi"
)

func TestParseLinks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		header   string
		expected map[string]string
	}{
		{
			name:     "empty",
			header:   "",
			expected: map[string]string{},
		},
		{
			name: "github pagination",
			header: `<https://api.github.com/user/repos?page=3&per_page=100>; rel="next", ` +
				`<https://api.github.com/user/repos?page=50&per_page=100>; rel="last"`,
			expected: map[string]string{
				"next": "https://api.github.com/user/repos?page=3&per_page=100",
				"last": "https://api.github.com/user/repos?page=50&per_page=100",
			},
		},
		{
			name:   "comma inside url",
			header: `<https://api.github.com/search?q=a,b&page=2>; rel="next"`,
			expected: map[string]string{
				"next": "https://api.github.com/search?q=a,b&page=2",
			},
		},
		{
			name:   "unquoted and multiple relations",
			header: `<https://x/1>; rel=first, <https://x/2>; rel="prev previous"`,
			expected: map[string]string{
				"first":    "https://x/1",
				"prev":     "https://x/2",
				"previous": "https://x/2",
			},
		},
		{
			name:   "malformed entries are skipped",
			header: `garbage, <>; rel="next", <https://x/3>; title="no rel", <https://x/4>; rel="next"`,
			expected: map[string]string{
				"next": "https://x/4",
			},
		},
		{
			name:   "first url wins",
			header: `<https://x/a>; rel="next", <https://x/b>; rel="next"`,
			expected: map[string]string{
				"next": "https://x/a",
			},
		},
		{
			name:     "unterminated",
			header:   `<https://x/a; rel="next"`,
			expected: map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, ghapi.ParseLinks(tt.header))
		})
	}
}

func TestNextURL(t *testing.T) {
	t.Parallel()

	header := http.Header{}

	_, ok := ghapi.NextURL(header)
	assert.False(t, ok)

	header.Set("Link", `<https://api.github.com/repositories/1/events?page=2>; rel="next"`)

	next, ok := ghapi.NextURL(header)
	assert.True(t, ok)
	assert.Equal(t, "https://api.github.com/repositories/1/events?page=2", next)

	header.Set("Link", `<https://api.github.com/repositories/1/events?page=1>; rel="prev"`)

	_, ok = ghapi.NextURL(header)
	assert.False(t, ok)
}
