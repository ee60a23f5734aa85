package constants

import "errors"

// Configuration errors.
var (
	ErrNoTokenConfigured = errors.New("no token configured, use 'ghapi config set-token' or GHAPI_TOKEN")
	ErrUnknownConfigKey  = errors.New("unknown configuration key")
	ErrEmptyToken        = errors.New("token must not be empty")
)

// GitHub App errors.
var (
	ErrInvalidPrivateKey   = errors.New("invalid GitHub App private key")
	ErrTokenExchangeFailed = errors.New("installation token exchange failed")
	ErrMissingAppID        = errors.New("GitHub App ID is required")
	ErrMissingInstallation = errors.New("installation ID is required")
)

// Relay errors.
var (
	ErrPublisherRequired = errors.New("publisher is required")
	ErrSubjectRequired   = errors.New("subject is required")
)

// CLI argument errors.
var (
	ErrInvalidOutputFormat  = errors.New("invalid output format")
	ErrInvalidID            = errors.New("invalid numeric ID")
	ErrAppKeyRequired       = errors.New("--app-key is required with --app-id")
	ErrInvalidConfigValue   = errors.New("invalid configuration value")
	ErrConfirmationRequired = errors.New("confirmation required")
)
