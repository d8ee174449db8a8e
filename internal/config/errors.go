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
	// ErrNoUnitName is returned when the procurement-unit search criterion
	// is empty. The portal requires a criterion to run a query.
	ErrNoUnitName = errors.New("no unit name specified: provide a procurement unit search term")

	// ErrInvalidMaxPages is returned when the page cap is negative.
	// Use 0 to crawl every page the site reports.
	ErrInvalidMaxPages = errors.New("invalid max pages: must be non-negative")

	// ErrInvalidFlushEvery is returned when the checkpoint interval is not
	// positive. A zero interval would divide by zero in the page loop.
	ErrInvalidFlushEvery = errors.New("invalid flush interval: must be positive")

	// ErrInvalidCaptchaRetries is returned when the retry bound is negative.
	// Use 0 to retry until the operator gives up.
	ErrInvalidCaptchaRetries = errors.New("invalid captcha retries: must be non-negative")

	// ErrInvalidDelay is returned when any politeness or settle delay is
	// negative. Use 0 to disable a delay.
	ErrInvalidDelay = errors.New("invalid delay: must be non-negative")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")
)
