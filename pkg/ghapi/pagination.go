package ghapi

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"strconv"

	"github.com/fivetwenty-io/ghapi/pkg/schema"
)

// ErrNoMoreItems is returned by Next once the sequence is exhausted.
var ErrNoMoreItems = errors.New("no more items")

// ErrItemsKeyMissing is returned when a wrapped page lacks its item array.
var ErrItemsKeyMissing = errors.New("page body has no items member")

// Sender performs one HTTP exchange. The dispatcher implements it.
type Sender interface {
	Send(ctx context.Context, req *Request) (*Response, error)
}

// PaginateOptions tunes a PaginationIterator.
type PaginateOptions struct {
	// PerPage is applied to the first request unless it already has a
	// per_page parameter.
	PerPage int
	// ItemsKey names the member holding the item array for wrapped
	// responses such as {"total_count": 3, "items": [...]}. Empty means the
	// body is the array.
	ItemsKey string
	// Model names the item type in decode errors.
	Model string
}

// PaginationIterator walks a paginated collection one page at a time,
// following rel="next" links. It is lazy and forward-only: a page is
// requested only when the buffered items run out, and abandoning the
// iterator issues no further requests.
type PaginationIterator[T any] struct {
	ctx      context.Context
	sender   Sender
	next     *Request
	itemsKey string
	model    string

	buffer []T
	pos    int
	err    error
	pages  int
}

// NewPaginationIterator prepares an iterator over the collection returned
// by req. No request is sent until the first pull.
func NewPaginationIterator[T any](ctx context.Context, sender Sender, req *Request, opts *PaginateOptions) *PaginationIterator[T] {
	if opts == nil {
		opts = &PaginateOptions{}
	}

	first := req.Clone()
	if first.Method == "" {
		first.Method = http.MethodGet
	}

	if opts.PerPage > 0 && !first.Query.Has("per_page") {
		if first.Query == nil {
			first.Query = NewParams()
		}

		first.Query.Set("per_page", opts.PerPage)
	}

	model := opts.Model
	if model == "" {
		var zero T
		model = fmt.Sprintf("%T", zero)
	}

	return &PaginationIterator[T]{
		ctx:      ctx,
		sender:   sender,
		next:     first,
		itemsKey: opts.ItemsKey,
		model:    model,
	}
}

// FailedIterator returns an iterator that yields err once and sends no
// requests. List operations use it when the request cannot be built.
func FailedIterator[T any](err error) *PaginationIterator[T] {
	return &PaginationIterator[T]{ctx: context.Background(), err: err}
}

// HasNext reports whether Next will return an item or a pending error. It
// fetches pages only while the buffer is empty and a next link exists.
// Empty pages that still carry a next link are skipped within the same
// call, so one HasNext may send more than one request.
func (p *PaginationIterator[T]) HasNext() bool {
	p.fill()

	return p.pos < len(p.buffer) || p.err != nil
}

// Next returns the next item.
func (p *PaginationIterator[T]) Next() (T, error) {
	var zero T

	p.fill()

	if p.pos < len(p.buffer) {
		item := p.buffer[p.pos]
		p.pos++

		return item, nil
	}

	if p.err != nil {
		err := p.err
		p.err = nil
		p.next = nil

		return zero, err
	}

	return zero, ErrNoMoreItems
}

// NextPage returns the unread rest of the current page, or fetches exactly
// one more page.
func (p *PaginationIterator[T]) NextPage() ([]T, error) {
	if p.pos < len(p.buffer) {
		page := p.buffer[p.pos:]
		p.pos = len(p.buffer)

		return page, nil
	}

	// HasNext may have fetched a page that failed.
	if p.err != nil {
		err := p.err
		p.err = nil
		p.next = nil

		return nil, err
	}

	if p.next == nil {
		return nil, ErrNoMoreItems
	}

	p.fetch()

	if p.err != nil {
		err := p.err
		p.err = nil
		p.next = nil

		return nil, err
	}

	page := p.buffer
	p.pos = len(p.buffer)

	return page, nil
}

// All drains the iterator. Items read before a failure are returned along
// with the error.
func (p *PaginationIterator[T]) All() ([]T, error) {
	var items []T

	for p.HasNext() {
		item, err := p.Next()
		if err != nil {
			return items, err
		}

		items = append(items, item)
	}

	return items, nil
}

// ForEach calls fn for every item, stopping at the first error.
func (p *PaginationIterator[T]) ForEach(fn func(T) error) error {
	for p.HasNext() {
		item, err := p.Next()
		if err != nil {
			return err
		}

		err = fn(item)
		if err != nil {
			return err
		}
	}

	return nil
}

// Items adapts the iterator to range-over-func. Breaking out of the loop
// stops further requests.
func (p *PaginationIterator[T]) Items() iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for p.HasNext() {
			item, err := p.Next()
			if !yield(item, err) || err != nil {
				return
			}
		}
	}
}

// PagesFetched returns the number of requests sent so far.
func (p *PaginationIterator[T]) PagesFetched() int {
	return p.pages
}

func (p *PaginationIterator[T]) fill() {
	for p.pos >= len(p.buffer) && p.next != nil && p.err == nil {
		p.fetch()
	}
}

func (p *PaginationIterator[T]) fetch() {
	req := p.next
	p.next = nil
	p.buffer = nil
	p.pos = 0
	p.pages++

	resp, err := p.sender.Send(p.ctx, req)
	if err != nil {
		p.err = fmt.Errorf("fetching page %d: %w", p.pages, err)

		return
	}

	err = Classify(req, resp)
	if err != nil {
		p.err = fmt.Errorf("fetching page %d: %w", p.pages, err)

		return
	}

	items, err := p.decode(resp)
	if err != nil {
		p.err = err

		return
	}

	p.buffer = items

	if nextURL, ok := NextURL(resp.Header); ok {
		p.next = &Request{
			Method:   http.MethodGet,
			Path:     nextURL,
			Headers:  req.Headers.Clone(),
			RepoSlug: req.RepoSlug,
		}
	}
}

func (p *PaginationIterator[T]) decode(resp *Response) ([]T, error) {
	tree, err := schema.Parse(resp.Body)
	if err != nil {
		return nil, &DecodeError{Model: p.model, URL: resp.URL, Err: err}
	}

	if p.itemsKey != "" {
		object, ok := tree.(map[string]any)
		if !ok {
			return nil, &DecodeError{Model: p.model, URL: resp.URL, Err: ErrItemsKeyMissing}
		}

		tree, ok = object[p.itemsKey]
		if !ok {
			return nil, &DecodeError{Model: p.model, URL: resp.URL, Err: fmt.Errorf("%w: %s", ErrItemsKeyMissing, strconv.Quote(p.itemsKey))}
		}
	}

	if tree == nil {
		return nil, nil
	}

	items, err := schema.DecodeAs[[]T](tree)
	if err != nil {
		return nil, &DecodeError{Model: p.model, URL: resp.URL, Err: err}
	}

	return items, nil
}
