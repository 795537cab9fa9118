package signature

import "errors"

// Errors returned while loading a signature set. Any of them aborts the scan
// before crawling starts.
var (
	// ErrSourceUnavailable is returned when the signature source could not be
	// retrieved: a transport error or a non-200 response.
	ErrSourceUnavailable = errors.New("signature source unavailable")

	// ErrCategoryMissing is returned when the document has no "categories"
	// object or the requested category key is absent.
	ErrCategoryMissing = errors.New("signature category missing")

	// ErrEmptySet is returned when the category exists but yields no domains.
	ErrEmptySet = errors.New("signature set is empty")
)
