package ghapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fivetwenty-io/ghapi/internal/constants"
)

// ErrorKind classifies a non-2xx response.
type ErrorKind int

const (
	KindInvalidRepository ErrorKind = iota + 1
	KindNotFound
	KindUnauthorized
	KindOneTimePasswordRequired
	KindForbidden
	KindRateLimited
	KindConflict
	KindUnprocessableEntity
	KindClientError
	KindServerError
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidRepository:
		return "invalid repository"
	case KindNotFound:
		return "not found"
	case KindUnauthorized:
		return "unauthorized"
	case KindOneTimePasswordRequired:
		return "one-time password required"
	case KindForbidden:
		return "forbidden"
	case KindRateLimited:
		return "rate limited"
	case KindConflict:
		return "conflict"
	case KindUnprocessableEntity:
		return "unprocessable entity"
	case KindClientError:
		return "client error"
	case KindServerError:
		return "server error"
	default:
		return "unknown error"
	}
}

// FieldError is one validation failure from a 422 body.
type FieldError struct {
	Resource string `json:"resource,omitempty" yaml:"resource,omitempty"`
	Field    string `json:"field,omitempty"    yaml:"field,omitempty"`
	Code     string `json:"code,omitempty"     yaml:"code,omitempty"`
	Message  string `json:"message,omitempty"  yaml:"message,omitempty"`
}

func (e FieldError) String() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.Resource != "":
		return fmt.Sprintf("%s.%s: %s", e.Resource, e.Field, e.Code)
	default:
		return fmt.Sprintf("%s: %s", e.Field, e.Code)
	}
}

// APIError is a classified error response.
type APIError struct {
	Kind             ErrorKind
	StatusCode       int
	Method           string
	URL              string
	Message          string
	DocumentationURL string
	Errors           []FieldError
	// ResetAt is when a rate limit lifts. Set for KindRateLimited only.
	ResetAt time.Time
}

// Error implements the error interface.
func (e *APIError) Error() string {
	var builder strings.Builder

	if e.Method != "" || e.URL != "" {
		fmt.Fprintf(&builder, "%s %s: ", e.Method, e.URL)
	}

	fmt.Fprintf(&builder, "%d %s", e.StatusCode, e.Kind)

	if e.Message != "" {
		builder.WriteString(": " + e.Message)
	}

	if len(e.Errors) > 0 {
		details := make([]string, 0, len(e.Errors))
		for _, fieldErr := range e.Errors {
			details = append(details, fieldErr.String())
		}

		builder.WriteString(" [" + strings.Join(details, "; ") + "]")
	}

	if e.Kind == KindRateLimited && !e.ResetAt.IsZero() {
		builder.WriteString(" (resets at " + e.ResetAt.UTC().Format(time.RFC3339) + ")")
	}

	return builder.String()
}

// Is matches another *APIError by kind, so errors.Is(err, ErrNotFound)
// works for any not-found response.
func (e *APIError) Is(target error) bool {
	var other *APIError
	if !errors.As(target, &other) {
		return false
	}

	return other.Kind == e.Kind
}

// Common error kinds for errors.Is.
var (
	ErrInvalidRepository       = &APIError{Kind: KindInvalidRepository}
	ErrNotFound                = &APIError{Kind: KindNotFound}
	ErrUnauthorized            = &APIError{Kind: KindUnauthorized}
	ErrOneTimePasswordRequired = &APIError{Kind: KindOneTimePasswordRequired}
	ErrForbidden               = &APIError{Kind: KindForbidden}
	ErrRateLimited             = &APIError{Kind: KindRateLimited}
	ErrConflict                = &APIError{Kind: KindConflict}
	ErrUnprocessableEntity     = &APIError{Kind: KindUnprocessableEntity}
	ErrClientError             = &APIError{Kind: KindClientError}
	ErrServerError             = &APIError{Kind: KindServerError}
)

// TransportKind classifies a failed exchange.
type TransportKind int

const (
	TransportConnect TransportKind = iota + 1
	TransportTimeout
	TransportTLS
	TransportCanceled
)

func (k TransportKind) String() string {
	switch k {
	case TransportConnect:
		return "connect"
	case TransportTimeout:
		return "timeout"
	case TransportTLS:
		return "tls"
	case TransportCanceled:
		return "canceled"
	default:
		return "transport"
	}
}

// TransportError is returned when no response was received.
type TransportError struct {
	Kind   TransportKind
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %s error: %v", e.Method, e.URL, e.Kind, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the exchange timed out.
func (e *TransportError) Timeout() bool {
	return e.Kind == TransportTimeout
}

// ErrDecode matches any *DecodeError.
var ErrDecode = errors.New("decoding response")

// DecodeError reports a successful response whose body did not match the
// declared model. It is distinct from every upstream error.
type DecodeError struct {
	Model string
	URL   string
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding %s from %s: %v", e.Model, e.URL, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Is matches ErrDecode.
func (e *DecodeError) Is(target error) bool {
	return target == ErrDecode //nolint:errorlint // sentinel identity
}

// KindOf returns the kind of an *APIError anywhere in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind, true
	}

	return 0, false
}

// IsNotFound checks if the error is a not found error.
func IsNotFound(err error) bool {
	return hasKind(err, KindNotFound)
}

// IsInvalidRepository checks if the error is an invalid repository error.
func IsInvalidRepository(err error) bool {
	return hasKind(err, KindInvalidRepository)
}

// IsUnauthorized checks if the error is an unauthorized error.
func IsUnauthorized(err error) bool {
	return hasKind(err, KindUnauthorized) || hasKind(err, KindOneTimePasswordRequired)
}

// IsForbidden checks if the error is a forbidden error.
func IsForbidden(err error) bool {
	return hasKind(err, KindForbidden)
}

// IsRateLimited checks if the error is a rate limit error.
func IsRateLimited(err error) bool {
	return hasKind(err, KindRateLimited)
}

// IsUnprocessable checks if the error is a validation error.
func IsUnprocessable(err error) bool {
	return hasKind(err, KindUnprocessableEntity)
}

// IsServerError checks if the error is a 5xx error.
func IsServerError(err error) bool {
	return hasKind(err, KindServerError)
}

func hasKind(err error, kind ErrorKind) bool {
	got, ok := KindOf(err)

	return ok && got == kind
}

// Classify maps a response to nil for 2xx or a typed *APIError. It never
// fails on a malformed error body; the detail is left empty instead.
//
//nolint:cyclop // Mapping table.
func Classify(req *Request, resp *Response) error {
	if resp.IsSuccess() || resp.StatusCode < 400 {
		return nil
	}

	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		URL:        resp.URL,
	}

	if req != nil {
		apiErr.Method = req.Method
	}

	parseErrorBody(resp.Body, apiErr)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		apiErr.Kind = KindNotFound
		if req != nil && req.RepoSlug != "" && !ValidRepositorySlug(req.RepoSlug) {
			apiErr.Kind = KindInvalidRepository
		}

	case resp.StatusCode == http.StatusUnauthorized:
		apiErr.Kind = KindUnauthorized
		if strings.HasPrefix(strings.ToLower(resp.Header.Get(constants.HeaderOTP)), "required") {
			apiErr.Kind = KindOneTimePasswordRequired
		}

	case isRateLimited(resp, apiErr.Message):
		apiErr.Kind = KindRateLimited
		apiErr.ResetAt = resetTime(resp.Header, time.Now())

	case resp.StatusCode == http.StatusForbidden:
		apiErr.Kind = KindForbidden

	case resp.StatusCode == http.StatusConflict:
		apiErr.Kind = KindConflict

	case resp.StatusCode == http.StatusUnprocessableEntity:
		apiErr.Kind = KindUnprocessableEntity

	case resp.StatusCode < 500:
		apiErr.Kind = KindClientError

	default:
		apiErr.Kind = KindServerError
	}

	return apiErr
}

func isRateLimited(resp *Response, message string) bool {
	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		return true
	case http.StatusForbidden:
		if resp.Header.Get(constants.HeaderRateLimitRemaining) == "0" {
			return true
		}

		lower := strings.ToLower(message)

		return strings.Contains(lower, "rate limit") || strings.Contains(lower, "abuse")
	default:
		return false
	}
}

// resetTime reads X-RateLimit-Reset (unix seconds), falling back to
// Retry-After (seconds from now).
func resetTime(header http.Header, now time.Time) time.Time {
	if reset, err := strconv.ParseInt(header.Get(constants.HeaderRateLimitReset), 10, 64); err == nil && reset > 0 {
		return time.Unix(reset, 0)
	}

	if seconds, err := strconv.Atoi(header.Get(constants.HeaderRetryAfter)); err == nil && seconds >= 0 {
		return now.Add(time.Duration(seconds) * time.Second)
	}

	return time.Time{}
}

// parseErrorBody fills the detail fields member by member, so one
// mis-shaped member does not discard the others.
func parseErrorBody(body []byte, apiErr *APIError) {
	var members map[string]json.RawMessage

	err := json.Unmarshal(body, &members)
	if err != nil {
		return
	}

	var text string
	if json.Unmarshal(members["message"], &text) == nil {
		apiErr.Message = text
	}

	text = ""
	if json.Unmarshal(members["documentation_url"], &text) == nil {
		apiErr.DocumentationURL = text
	}

	raw, ok := members["errors"]
	if !ok {
		return
	}

	var items []json.RawMessage
	if json.Unmarshal(raw, &items) != nil {
		// A bare string instead of a list.
		if json.Unmarshal(raw, &text) == nil && text != "" {
			apiErr.Errors = append(apiErr.Errors, FieldError{Message: text})
		}

		return
	}

	for _, item := range items {
		apiErr.Errors = appendFieldError(apiErr.Errors, item)
	}
}

func appendFieldError(errs []FieldError, raw json.RawMessage) []FieldError {
	var fieldErr FieldError
	if json.Unmarshal(raw, &fieldErr) == nil {
		return append(errs, fieldErr)
	}

	// Some endpoints report plain strings.
	var message string
	if json.Unmarshal(raw, &message) == nil {
		return append(errs, FieldError{Message: message})
	}

	return errs
}

// Rate is the rate limit state reported in response headers.
type Rate struct {
	Limit     int       `json:"limit"     yaml:"limit"`
	Remaining int       `json:"remaining" yaml:"remaining"`
	Used      int       `json:"used"      yaml:"used"`
	Reset     time.Time `json:"reset"     yaml:"reset"`
	Resource  string    `json:"resource"  yaml:"resource"`
}

// RateFromHeader parses the X-RateLimit-* headers. It reports false when
// the response carried none.
func RateFromHeader(header http.Header) (Rate, bool) {
	limit, err := strconv.Atoi(header.Get(constants.HeaderRateLimitLimit))
	if err != nil {
		return Rate{}, false
	}

	rate := Rate{
		Limit:    limit,
		Resource: header.Get(constants.HeaderRateLimitResource),
	}

	rate.Remaining, _ = strconv.Atoi(header.Get(constants.HeaderRateLimitRemaining))
	rate.Used, _ = strconv.Atoi(header.Get(constants.HeaderRateLimitUsed))

	if reset, err := strconv.ParseInt(header.Get(constants.HeaderRateLimitReset), 10, 64); err == nil {
		rate.Reset = time.Unix(reset, 0)
	}

	return rate, true
}
