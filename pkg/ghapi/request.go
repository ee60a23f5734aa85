package ghapi

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Request describes one API call. Path is either relative to the base URL
// ("repos/owner/name") or an absolute URL taken from a Link header. The
// dispatcher works on a copy, so a Request can be reused across retries.
type Request struct {
	Method  string
	Path    string
	Query   *Params
	Body    any
	Headers http.Header
	// RepoSlug is the raw "owner/name" the path was built from, when the
	// call targets a repository by name. The classifier uses it to tell a
	// malformed name from a missing repository.
	RepoSlug string
	// NoRedirect returns 3xx responses instead of following them.
	NoRedirect bool
	// Metadata is scratch space for interceptors.
	Metadata map[string]interface{}
}

// Clone returns a copy whose headers, query and metadata can be modified
// without touching r.
func (r *Request) Clone() *Request {
	clone := *r
	clone.Headers = r.Headers.Clone()

	if r.Query != nil {
		clone.Query = r.Query.Clone()
	}

	if r.Metadata != nil {
		clone.Metadata = make(map[string]interface{}, len(r.Metadata))
		for key, value := range r.Metadata {
			clone.Metadata[key] = value
		}
	}

	return &clone
}

// Response is the raw outcome of one HTTP exchange.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	// URL is the final request URL.
	URL string
	// Error is set only on the response handed to response interceptors
	// when the exchange failed before a response arrived.
	Error error
}

// IsSuccess reports a 2xx status.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Params is an ordered set of parameters. Keys are unique and keep the
// position of their first Set. GET and DELETE calls send them as the query
// string, POST, PUT and PATCH calls as body members.
type Params struct {
	keys   []string
	values map[string]any
}

// NewParams creates an empty parameter set.
func NewParams() *Params {
	return &Params{values: make(map[string]any)}
}

// Set stores value under key and returns p for chaining.
func (p *Params) Set(key string, value any) *Params {
	if _, ok := p.values[key]; !ok {
		p.keys = append(p.keys, key)
	}

	p.values[key] = value

	return p
}

// Get returns the raw value stored under key.
func (p *Params) Get(key string) (any, bool) {
	if p == nil {
		return nil, false
	}

	value, ok := p.values[key]

	return value, ok
}

// Has reports whether key is set.
func (p *Params) Has(key string) bool {
	_, ok := p.Get(key)

	return ok
}

// Del removes key.
func (p *Params) Del(key string) {
	if _, ok := p.values[key]; !ok {
		return
	}

	delete(p.values, key)

	for i, k := range p.keys {
		if k == key {
			p.keys = append(p.keys[:i], p.keys[i+1:]...)

			break
		}
	}
}

// Keys returns parameter names in insertion order.
func (p *Params) Keys() []string {
	if p == nil {
		return nil
	}

	return append([]string(nil), p.keys...)
}

// Len returns the number of parameters.
func (p *Params) Len() int {
	if p == nil {
		return 0
	}

	return len(p.keys)
}

// Clone returns an independent copy.
func (p *Params) Clone() *Params {
	clone := NewParams()
	if p == nil {
		return clone
	}

	for _, key := range p.keys {
		clone.Set(key, p.values[key])
	}

	return clone
}

// Encode renders the parameters as a query string in insertion order.
func (p *Params) Encode() string {
	if p.Len() == 0 {
		return ""
	}

	var builder strings.Builder

	for i, key := range p.keys {
		if i > 0 {
			builder.WriteByte('&')
		}

		builder.WriteString(url.QueryEscape(key))
		builder.WriteByte('=')
		builder.WriteString(url.QueryEscape(formatParam(p.values[key])))
	}

	return builder.String()
}

// WithPerPage sets the page size.
func (p *Params) WithPerPage(perPage int) *Params {
	return p.Set("per_page", perPage)
}

// WithPage sets the page number.
func (p *Params) WithPage(page int) *Params {
	return p.Set("page", page)
}

// WithSort sets the sort key.
func (p *Params) WithSort(sort string) *Params {
	return p.Set("sort", sort)
}

// WithDirection sets the sort direction ("asc" or "desc").
func (p *Params) WithDirection(direction string) *Params {
	return p.Set("direction", direction)
}

// WithType sets the type filter used by repository listings.
func (p *Params) WithType(kind string) *Params {
	return p.Set("type", kind)
}

// WithSince sets a lower time bound.
func (p *Params) WithSince(since time.Time) *Params {
	return p.Set("since", since)
}

func formatParam(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case time.Time:
		return v.UTC().Format(time.RFC3339)
	case []string:
		return strings.Join(v, ",")
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// RequestOptions carries per-call inputs for the facade verbs.
type RequestOptions struct {
	// Params go to the query string for GET and DELETE and are merged over
	// Body for POST, PUT and PATCH.
	Params *Params
	// Body is encoded through the schema codec.
	Body any
	// Accept overrides the configured media type, for preview APIs.
	Accept string
	// Headers are added to the request.
	Headers http.Header
	// RepoSlug marks the call as targeting a repository by name.
	RepoSlug string
	// NoRedirect returns 3xx responses instead of following them.
	NoRedirect bool
}
