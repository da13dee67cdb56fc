package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages. Using errors.New() here rather than fmt.Errorf()
// because we don't need to include dynamic values in these messages.
var (
	// ErrNoStartURL is returned when no seed URL is specified.
	// This error occurs when the positional argument is missing.
	ErrNoStartURL = errors.New("no start URL specified: provide the documentation site's entry page")

	// ErrInvalidTimeout is returned when the per-page timeout is not positive.
	// A timeout of zero or negative would fail every page navigation.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidConcurrency is returned when the concurrency is not positive.
	// A concurrency of zero would mean no browser tabs, so no crawling.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrInvalidMaxPages is returned when the page ceiling is negative.
	// Use 0 for an unlimited crawl.
	ErrInvalidMaxPages = errors.New("invalid max pages: must be non-negative")

	// ErrInvalidDelay is returned when the inter-batch delay is negative.
	// A negative delay is invalid; use 0 for no delay between batches.
	ErrInvalidDelay = errors.New("invalid delay: must be non-negative")

	// ErrInvalidMaxImageWidth is returned when the image width ceiling is
	// negative. Use 0 to disable image scaling.
	ErrInvalidMaxImageWidth = errors.New("invalid max image width: must be non-negative")

	// ErrInvalidFormat is returned when the output format is not one of
	// "markdown", "json", or "both".
	ErrInvalidFormat = errors.New("invalid format: must be markdown, json, or both")
)
