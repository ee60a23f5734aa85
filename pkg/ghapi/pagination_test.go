package ghapi_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/ghapi/pkg/ghapi"
)

type item struct {
	ID   int64  `json:"id"`
	Name string `json:"name" schema:"optional"`
}

// pageSender serves canned pages keyed by request path and records every
// request it receives.
type pageSender struct {
	pages    map[string]*ghapi.Response
	requests []*ghapi.Request
	err      error
}

func (s *pageSender) Send(_ context.Context, req *ghapi.Request) (*ghapi.Response, error) {
	s.requests = append(s.requests, req)

	if s.err != nil {
		return nil, s.err
	}

	resp, ok := s.pages[req.Path]
	if !ok {
		return &ghapi.Response{StatusCode: http.StatusNotFound, Header: http.Header{}, Body: []byte(`{"message":"Not Found"}`)}, nil
	}

	return resp, nil
}

func page(body, next string) *ghapi.Response {
	header := http.Header{}
	if next != "" {
		header.Set("Link", fmt.Sprintf(`<%s>; rel="next", <https://api.example/last>; rel="last"`, next))
	}

	return &ghapi.Response{StatusCode: http.StatusOK, Header: header, Body: []byte(body), URL: "https://api.example"}
}

func threePages() *pageSender {
	return &pageSender{pages: map[string]*ghapi.Response{
		"orgs/o/repos":             page(`[{"id":1,"name":"a"},{"id":2,"name":"b"}]`, "https://api.example/p2"),
		"https://api.example/p2":   page(`[{"id":3,"name":"c"},{"id":4,"name":"d"}]`, "https://api.example/p3"),
		"https://api.example/p3":   page(`[{"id":5,"name":"e"}]`, ""),
		"https://api.example/last": page(`[]`, ""),
	}}
}

func TestPaginationIterator_All(t *testing.T) {
	t.Parallel()

	sender := threePages()
	iterator := ghapi.NewPaginationIterator[item](context.Background(), sender, &ghapi.Request{Path: "orgs/o/repos"}, nil)

	items, err := iterator.All()
	require.NoError(t, err)
	require.Len(t, items, 5)

	for i, it := range items {
		assert.Equal(t, int64(i+1), it.ID)
	}

	assert.Len(t, sender.requests, 3)
	assert.Equal(t, 3, iterator.PagesFetched())
	assert.Equal(t, http.MethodGet, sender.requests[0].Method)
	assert.Equal(t, "https://api.example/p2", sender.requests[1].Path)

	_, err = iterator.Next()
	require.ErrorIs(t, err, ghapi.ErrNoMoreItems)
	assert.Len(t, sender.requests, 3)
}

func TestPaginationIterator_Lazy(t *testing.T) {
	t.Parallel()

	sender := threePages()
	iterator := ghapi.NewPaginationIterator[item](context.Background(), sender, &ghapi.Request{Path: "orgs/o/repos"}, nil)

	assert.Empty(t, sender.requests, "no request before the first pull")

	first, err := iterator.Next()
	require.NoError(t, err)
	assert.Equal(t, "a", first.Name)

	second, err := iterator.Next()
	require.NoError(t, err)
	assert.Equal(t, "b", second.Name)

	assert.Len(t, sender.requests, 1)
}

func TestPaginationIterator_RangeBreak(t *testing.T) {
	t.Parallel()

	sender := threePages()
	iterator := ghapi.NewPaginationIterator[item](context.Background(), sender, &ghapi.Request{Path: "orgs/o/repos"}, nil)

	var names []string

	for it, err := range iterator.Items() {
		require.NoError(t, err)

		names = append(names, it.Name)
		if len(names) == 3 {
			break
		}
	}

	assert.Equal(t, []string{"a", "b", "c"}, names)
	assert.Len(t, sender.requests, 2)
}

func TestPaginationIterator_NextPage(t *testing.T) {
	t.Parallel()

	sender := threePages()
	iterator := ghapi.NewPaginationIterator[item](context.Background(), sender, &ghapi.Request{Path: "orgs/o/repos"}, nil)

	first, err := iterator.Next()
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.ID)

	rest, err := iterator.NextPage()
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, int64(2), rest[0].ID)
	assert.Len(t, sender.requests, 1)

	second, err := iterator.NextPage()
	require.NoError(t, err)
	assert.Len(t, second, 2)

	third, err := iterator.NextPage()
	require.NoError(t, err)
	assert.Len(t, third, 1)

	_, err = iterator.NextPage()
	require.ErrorIs(t, err, ghapi.ErrNoMoreItems)
	assert.Len(t, sender.requests, 3)
}

func TestPaginationIterator_DecodeFailureKeepsEarlierItems(t *testing.T) {
	t.Parallel()

	sender := threePages()
	sender.pages["https://api.example/p2"] = page(`[{"id":"three","name":"c"}]`, "https://api.example/p3")

	iterator := ghapi.NewPaginationIterator[item](context.Background(), sender, &ghapi.Request{Path: "orgs/o/repos"}, &ghapi.PaginateOptions{Model: "item"})

	items, err := iterator.All()
	require.ErrorIs(t, err, ghapi.ErrDecode)
	assert.Len(t, items, 2)

	var decodeErr *ghapi.DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, "item", decodeErr.Model)

	// The failure is reported once; the iterator is then exhausted.
	assert.False(t, iterator.HasNext())
	assert.Len(t, sender.requests, 2)
}

func TestPaginationIterator_NextPageAfterHasNextReportsDecodeFailure(t *testing.T) {
	t.Parallel()

	sender := &pageSender{pages: map[string]*ghapi.Response{
		"orgs/o/repos":           page(`[{"id":1}]`, "https://api.example/p2"),
		"https://api.example/p2": page(`[{"name":"no id"}]`, ""),
	}}
	iterator := ghapi.NewPaginationIterator[item](context.Background(), sender, &ghapi.Request{Path: "orgs/o/repos"}, nil)

	var (
		pages [][]item
		err   error
	)

	for iterator.HasNext() {
		var current []item

		current, err = iterator.NextPage()
		if err != nil {
			break
		}

		pages = append(pages, current)
	}

	require.ErrorIs(t, err, ghapi.ErrDecode)
	assert.NotErrorIs(t, err, ghapi.ErrNoMoreItems)
	require.Len(t, pages, 1)
	assert.Equal(t, int64(1), pages[0][0].ID)
	assert.Len(t, sender.requests, 2)

	assert.False(t, iterator.HasNext())

	_, err = iterator.NextPage()
	require.ErrorIs(t, err, ghapi.ErrNoMoreItems)
	assert.Len(t, sender.requests, 2)
}

func TestPaginationIterator_ErrorResponse(t *testing.T) {
	t.Parallel()

	sender := &pageSender{pages: map[string]*ghapi.Response{}}
	iterator := ghapi.NewPaginationIterator[item](context.Background(), sender, &ghapi.Request{Path: "orgs/missing/repos"}, nil)

	require.True(t, iterator.HasNext())

	_, err := iterator.Next()
	assert.True(t, ghapi.IsNotFound(err))

	assert.False(t, iterator.HasNext())
}

func TestPaginationIterator_TransportError(t *testing.T) {
	t.Parallel()

	boom := errors.New("connection refused")
	sender := &pageSender{err: boom}
	iterator := ghapi.NewPaginationIterator[item](context.Background(), sender, &ghapi.Request{Path: "orgs/o/repos"}, nil)

	count := 0
	err := iterator.ForEach(func(item) error {
		count++

		return nil
	})
	require.ErrorIs(t, err, boom)
	assert.Zero(t, count)
}

func TestPaginationIterator_EmptyPages(t *testing.T) {
	t.Parallel()

	sender := &pageSender{pages: map[string]*ghapi.Response{
		"events":                 page(`[]`, "https://api.example/e2"),
		"https://api.example/e2": page(`[{"id":9}]`, ""),
	}}
	iterator := ghapi.NewPaginationIterator[item](context.Background(), sender, &ghapi.Request{Path: "events"}, nil)

	require.True(t, iterator.HasNext())
	assert.Len(t, sender.requests, 2)

	got, err := iterator.Next()
	require.NoError(t, err)
	assert.Equal(t, int64(9), got.ID)
	assert.False(t, iterator.HasNext())
	assert.Len(t, sender.requests, 2)

	empty := &pageSender{pages: map[string]*ghapi.Response{"events": page(`[]`, "")}}
	iterator = ghapi.NewPaginationIterator[item](context.Background(), empty, &ghapi.Request{Path: "events"}, nil)
	assert.False(t, iterator.HasNext())
}

func TestPaginationIterator_ItemsKey(t *testing.T) {
	t.Parallel()

	sender := &pageSender{pages: map[string]*ghapi.Response{
		"installation/repositories": page(`{"total_count":2,"repositories":[{"id":1},{"id":2}]}`, ""),
	}}
	iterator := ghapi.NewPaginationIterator[item](context.Background(), sender,
		&ghapi.Request{Path: "installation/repositories"}, &ghapi.PaginateOptions{ItemsKey: "repositories"})

	items, err := iterator.All()
	require.NoError(t, err)
	assert.Len(t, items, 2)

	missing := &pageSender{pages: map[string]*ghapi.Response{
		"installation/repositories": page(`{"total_count":0}`, ""),
	}}
	iterator = ghapi.NewPaginationIterator[item](context.Background(), missing,
		&ghapi.Request{Path: "installation/repositories"}, &ghapi.PaginateOptions{ItemsKey: "repositories"})

	_, err = iterator.All()
	require.ErrorIs(t, err, ghapi.ErrItemsKeyMissing)
}

func TestPaginationIterator_PerPage(t *testing.T) {
	t.Parallel()

	t.Run("applied when absent", func(t *testing.T) {
		t.Parallel()

		sender := threePages()
		iterator := ghapi.NewPaginationIterator[item](context.Background(), sender,
			&ghapi.Request{Path: "orgs/o/repos", Query: ghapi.NewParams().WithType("public")}, &ghapi.PaginateOptions{PerPage: 50})

		_, err := iterator.Next()
		require.NoError(t, err)
		assert.Equal(t, "type=public&per_page=50", sender.requests[0].Query.Encode())
	})

	t.Run("caller value wins", func(t *testing.T) {
		t.Parallel()

		sender := threePages()
		query := ghapi.NewParams().WithPerPage(2)
		iterator := ghapi.NewPaginationIterator[item](context.Background(), sender,
			&ghapi.Request{Path: "orgs/o/repos", Query: query}, &ghapi.PaginateOptions{PerPage: 50})

		_, err := iterator.Next()
		require.NoError(t, err)
		assert.Equal(t, "per_page=2", sender.requests[0].Query.Encode())
		assert.Equal(t, "per_page=2", query.Encode())
	})

	t.Run("next links are followed verbatim", func(t *testing.T) {
		t.Parallel()

		sender := threePages()
		iterator := ghapi.NewPaginationIterator[item](context.Background(), sender,
			&ghapi.Request{Path: "orgs/o/repos", RepoSlug: "o/r", Headers: http.Header{"Accept": []string{"x"}}}, &ghapi.PaginateOptions{PerPage: 2})

		_, err := iterator.All()
		require.NoError(t, err)
		require.Len(t, sender.requests, 3)
		assert.Nil(t, sender.requests[1].Query)
		assert.Equal(t, "o/r", sender.requests[1].RepoSlug)
		assert.Equal(t, "x", sender.requests[2].Headers.Get("Accept"))
	})
}
