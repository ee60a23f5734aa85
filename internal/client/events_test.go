package client_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/fivetwenty-io/ghapi/internal/client"
	"github.com/fivetwenty-io/ghapi/pkg/ghapi"
)

func TestEventsClient_Paths(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		path string
		list func(context.Context, *Client) *ghapi.PaginationIterator[ghapi.Event]
	}{
		{
			name: "public",
			path: "/events",
			list: func(ctx context.Context, c *Client) *ghapi.PaginationIterator[ghapi.Event] {
				return c.Events().ListPublic(ctx, nil)
			},
		},
		{
			name: "repository",
			path: "/repos/octocat/hello/events",
			list: func(ctx context.Context, c *Client) *ghapi.PaginationIterator[ghapi.Event] {
				return c.Events().ListForRepository(ctx, ghapi.RefName("octocat/hello"), nil)
			},
		},
		{
			name: "repository by id",
			path: "/repositories/7/events",
			list: func(ctx context.Context, c *Client) *ghapi.PaginationIterator[ghapi.Event] {
				return c.Events().ListForRepository(ctx, ghapi.RefID(7), nil)
			},
		},
		{
			name: "user",
			path: "/users/octocat/events",
			list: func(ctx context.Context, c *Client) *ghapi.PaginationIterator[ghapi.Event] {
				return c.Events().ListForUser(ctx, "octocat", nil)
			},
		},
		{
			name: "user public",
			path: "/users/octocat/events/public",
			list: func(ctx context.Context, c *Client) *ghapi.PaginationIterator[ghapi.Event] {
				return c.Events().ListPublicForUser(ctx, "octocat", nil)
			},
		},
		{
			name: "organization",
			path: "/orgs/octo-org/events",
			list: func(ctx context.Context, c *Client) *ghapi.PaginationIterator[ghapi.Event] {
				return c.Events().ListForOrganization(ctx, "octo-org", nil)
			},
		},
		{
			name: "received",
			path: "/users/octocat/received_events",
			list: func(ctx context.Context, c *Client) *ghapi.PaginationIterator[ghapi.Event] {
				return c.Events().ListReceived(ctx, "octocat", nil)
			},
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			fake := newFakeGitHub(t)
			fake.reply(http.MethodGet, testCase.path, http.StatusOK, array(eventJSON("1", "PushEvent"), eventJSON("2", "WatchEvent")))

			events, err := testCase.list(context.Background(), fake.client(t)).All()
			require.NoError(t, err)
			require.Len(t, events, 2)
			assert.Equal(t, "WatchEvent", events[1].Type)
			assert.Equal(t, "octocat/hello", events[0].Repo.Name)
			assert.Equal(t, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), events[0].CreatedAt.UTC())
		})
	}
}

func TestEventsClient_LazyPaging(t *testing.T) {
	t.Parallel()

	fake := newFakeGitHub(t)
	fake.on(http.MethodGet, "/events", fakeResponse{
		Status: http.StatusOK,
		Body:   array(eventJSON("1", "PushEvent")),
		Header: map[string]string{"Link": `<` + fake.server.URL + `/events?page=2>; rel="next"`},
	})

	iterator := fake.client(t).Events().ListPublic(context.Background(), nil)
	assert.Empty(t, fake.requests())

	event, err := iterator.Next()
	require.NoError(t, err)
	assert.Equal(t, "1", event.ID)
	assert.Len(t, fake.requests(), 1)
}
