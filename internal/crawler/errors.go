package crawler

import "errors"

var (
	// ErrInvalidSeed is returned by Engine.Run when the seed URL is not an
	// absolute http or https URL.
	ErrInvalidSeed = errors.New("seed URL must be an absolute http or https URL")

	// ErrNotHTML is returned by the classifier when a body cannot be parsed
	// as a document at all.
	ErrNotHTML = errors.New("content could not be parsed as HTML")

	errNotHTTP = errors.New("not an http or https URL")
)
