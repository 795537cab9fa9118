package model

// FetchResult holds a successfully retrieved resource.
// A FetchResult is only ever created for an HTTP 200 response; its body is
// capped at the fetcher's maximum body size. Failed retrievals produce no
// FetchResult at all.
type FetchResult struct {
	// URL is the URL that was requested.
	URL string `json:"url"`

	// FinalURL is the URL after redirects. It equals URL when no redirect
	// happened.
	FinalURL string `json:"final_url"`

	// Status is the HTTP status code. Always 200.
	Status int `json:"status"`

	// ContentType is the value of the Content-Type response header.
	ContentType string `json:"content_type,omitempty"`

	// Body is the response body decoded to UTF-8.
	Body string `json:"-"`

	// Depth is the depth of the CrawlTarget that produced this result.
	Depth int `json:"depth"`
}
