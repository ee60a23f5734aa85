package constants

import "time"

// API endpoints and media types.
const (
	// DefaultBaseURL is the public GitHub v3 API root.
	DefaultBaseURL = "https://api.github.com"

	// DefaultMediaType is the stable v3 media type.
	DefaultMediaType = "application/vnd.github.v3+json"

	// APIVersion pins the REST API version header.
	APIVersion = "2022-11-28"

	// JSONContentType is sent with every request carrying a body.
	JSONContentType = "application/json"

	// DefaultUserAgent identifies the client when the caller sets none.
	DefaultUserAgent = "ghapi-go"

	// MigrationsMediaType enables the migrations API on older GitHub
	// Enterprise Server releases.
	MigrationsMediaType = "application/vnd.github.wyandotte-preview+json"

	// DiscussionsMediaType enables team discussions on older GitHub
	// Enterprise Server releases.
	DiscussionsMediaType = "application/vnd.github.echo-preview+json"
)

// Header names.
const (
	HeaderAccept             = "Accept"
	HeaderAuthorization      = "Authorization"
	HeaderContentType        = "Content-Type"
	HeaderUserAgent          = "User-Agent"
	HeaderAPIVersion         = "X-GitHub-Api-Version"
	HeaderOTP                = "X-GitHub-OTP"
	HeaderLink               = "Link"
	HeaderRetryAfter         = "Retry-After"
	HeaderRateLimitLimit     = "X-RateLimit-Limit"
	HeaderRateLimitRemaining = "X-RateLimit-Remaining"
	HeaderRateLimitReset     = "X-RateLimit-Reset"
	HeaderRateLimitUsed      = "X-RateLimit-Used"
	HeaderRateLimitResource  = "X-RateLimit-Resource"
)

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration directories.
	ConfigDirPerm = 0750

	// ConfigFilePerm is the permission for configuration files.
	ConfigFilePerm = 0600
)

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout is the default per-request timeout.
	DefaultHTTPTimeout = 30 * time.Second

	// ShortHTTPTimeout is used for quick operations such as token exchange.
	ShortHTTPTimeout = 10 * time.Second
)

// Retry limits.
const (
	// DefaultRetryMax is the default number of transport retries. Retries
	// are opt-in.
	DefaultRetryMax = 0

	// DefaultRetryWaitMin is the minimum backoff between transport retries.
	DefaultRetryWaitMin = 1 * time.Second

	// DefaultRetryWaitMax is the maximum backoff between transport retries.
	DefaultRetryWaitMax = 10 * time.Second

	// DefaultMaxRateLimitWait bounds how long the facade sleeps for a rate
	// limit reset before giving up.
	DefaultMaxRateLimitWait = 2 * time.Minute
)

// Pagination.
const (
	// DefaultPerPage is the page size sent when a list call sets none.
	DefaultPerPage = 30

	// MaxPerPage is the largest page size GitHub accepts.
	MaxPerPage = 100
)

// Concurrency limits.
const (
	// DefaultConcurrencyLimit limits concurrent existence checks.
	DefaultConcurrencyLimit = 4
)

// Migrations.
const (
	// DefaultMigrationPollInterval is the wait between status checks while
	// an export runs.
	DefaultMigrationPollInterval = 10 * time.Second
)

// Event relay.
const (
	// DefaultRelaySubject prefixes the subjects events are published on.
	DefaultRelaySubject = "github.events"

	// DefaultNATSURL is used when no server is configured.
	DefaultNATSURL = "nats://127.0.0.1:4222"

	// DefaultPollInterval is the wait between polls of an event feed, the
	// default X-Poll-Interval.
	DefaultPollInterval = 60 * time.Second

	// RelaySeenCapacity bounds the event ids remembered across polls.
	RelaySeenCapacity = 1000

	// NATSConnectTimeout bounds the initial NATS connection.
	NATSConnectTimeout = 5 * time.Second

	// NATSMaxReconnects is the number of reconnect attempts before the
	// connection is given up.
	NATSMaxReconnects = 10
)

// Circuit breaker defaults.
const (
	// CircuitBreakerThreshold is the number of failures that opens the breaker.
	CircuitBreakerThreshold = 5

	// CircuitBreakerTimeout is how long the breaker stays open.
	CircuitBreakerTimeout = 30 * time.Second

	// CircuitBreakerSuccessThreshold is the number of half-open successes
	// that close the breaker again.
	CircuitBreakerSuccessThreshold = 2
)

// GitHub App authentication.
const (
	// AppJWTBackdate is subtracted from iat to absorb clock drift.
	AppJWTBackdate = 60 * time.Second

	// AppJWTLifetime is the JWT validity window; GitHub caps it at 10 minutes.
	AppJWTLifetime = 10 * time.Minute

	// InstallationTokenRefreshMargin renews installation tokens this long
	// before they expire.
	InstallationTokenRefreshMargin = 5 * time.Minute
)

// Output formats understood by the CLI.
const (
	FormatJSON  = "json"
	FormatYAML  = "yaml"
	FormatTable = "table"
)
