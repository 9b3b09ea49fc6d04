package config

import "errors"

// Configuration validation errors.
// These are package-level sentinel errors so callers can use errors.Is
// for programmatic handling while keeping human-readable messages.
var (
	// ErrNoStorageRoot is returned when the storage root is empty.
	ErrNoStorageRoot = errors.New("no storage root: provide a directory for mirror output")

	// ErrInvalidTimeout is returned when a request timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidInterval is returned when a pacing interval is negative.
	// Zero intervals are valid; they disable the pause.
	ErrInvalidInterval = errors.New("invalid interval: must be non-negative")

	// ErrInvalidRetryLimit is returned when the retry limit is not positive.
	// A limit of zero would quarantine every page on its first failure.
	ErrInvalidRetryLimit = errors.New("invalid retry limit: must be positive")

	// ErrInvalidInlineLimit is returned when the inline size threshold is
	// not positive.
	ErrInvalidInlineLimit = errors.New("invalid inline limit: must be positive")

	// ErrNoEndpoint is returned when an API endpoint URL is empty.
	ErrNoEndpoint = errors.New("no endpoint: both info and changes endpoint URLs are required")
)
