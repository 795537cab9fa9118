package config

import "errors"

// Configuration validation errors returned by Config.Validate.
var (
	// ErrNoURL is returned when no seed URL was given.
	ErrNoURL = errors.New("no target specified: provide a URL with --url")

	// ErrInvalidURL is returned when the seed URL has no host.
	ErrInvalidURL = errors.New("invalid target URL")

	// ErrInvalidDepth is returned when the maximum depth is below 1.
	ErrInvalidDepth = errors.New("invalid depth: must be at least 1")

	// ErrInvalidThreads is returned when the worker count is below 1.
	ErrInvalidThreads = errors.New("invalid threads: must be at least 1")

	// ErrInvalidQuiescence is returned when the quiescence timeout is not positive.
	ErrInvalidQuiescence = errors.New("invalid quiescence timeout: must be positive")

	// ErrInvalidTimeout is returned when a request timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidMaxBodySize is returned when the body size limit is not positive.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be positive")

	// ErrNoSignatureSource is returned when neither a signature file nor a
	// signature URL is configured.
	ErrNoSignatureSource = errors.New("no signature source: set --signatures or --signature-url")

	// ErrNoCategory is returned when the signature category is empty.
	ErrNoCategory = errors.New("no signature category specified")

	// ErrConflictingReportFormats is returned when both --json and
	// --markdown are specified.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")
)
