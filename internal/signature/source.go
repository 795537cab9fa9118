package signature

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

const (
	// DefaultSourceURL is the Disconnect blacklist maintained by Mozilla.
	DefaultSourceURL = "https://raw.githubusercontent.com/mozilla-services/shavar-prod-lists/master/disconnect-blacklist.json"

	// DefaultCategory is the category key that lists cryptomining domains.
	DefaultCategory = "Cryptomining"

	// defaultSourceTimeout bounds the one-time download of the list.
	defaultSourceTimeout = 30 * time.Second

	// maxSourceSize caps the list download. The real document is well under 1MB.
	maxSourceSize = 16 * 1024 * 1024
)

// Parse reads a Disconnect-format document from r and returns the domains
// listed under category.
func Parse(r io.Reader, category string) (*Set, error) {
	var doc struct {
		Categories map[string][]map[string]map[string]json.RawMessage `json:"categories"`
	}
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode signature document: %w", err)
	}
	if doc.Categories == nil {
		return nil, fmt.Errorf("%w: no categories object", ErrCategoryMissing)
	}

	entries, ok := doc.Categories[category]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrCategoryMissing, category)
	}

	domains := make([]string, 0)
	for _, org := range entries {
		for _, sites := range org {
			for _, raw := range sites {
				var list []string
				if err := json.Unmarshal(raw, &list); err != nil {
					// Flags like "performance": "true" share the map with
					// the domain lists.
					continue
				}
				domains = append(domains, list...)
			}
		}
	}

	set := NewSet(domains...)
	if set.Len() == 0 {
		return nil, fmt.Errorf("%w: category %q", ErrEmptySet, category)
	}
	return set, nil
}

// LoadFile loads a signature set from a local Disconnect-format file.
func LoadFile(path, category string) (*Set, error) {
	f, err := os.Open(path) //nolint:gosec // User-provided signature path is intentional
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}
	defer f.Close()

	return Parse(f, category)
}

// Fetcher downloads the signature list over HTTP.
type Fetcher struct {
	client    *http.Client
	url       string
	category  string
	userAgent string
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithHTTPClient sets the HTTP client used for the download.
func WithHTTPClient(client *http.Client) FetcherOption {
	return func(f *Fetcher) {
		if client != nil {
			f.client = client
		}
	}
}

// WithSourceURL overrides DefaultSourceURL.
func WithSourceURL(url string) FetcherOption {
	return func(f *Fetcher) {
		if url != "" {
			f.url = url
		}
	}
}

// WithCategory overrides DefaultCategory.
func WithCategory(category string) FetcherOption {
	return func(f *Fetcher) {
		if category != "" {
			f.category = category
		}
	}
}

// WithUserAgent sets the User-Agent header of the download request.
func WithUserAgent(ua string) FetcherOption {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// NewFetcher creates a Fetcher for the default Mozilla list.
func NewFetcher(opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		client:   &http.Client{Timeout: defaultSourceTimeout},
		url:      DefaultSourceURL,
		category: DefaultCategory,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// URL returns the source URL.
func (f *Fetcher) URL() string {
	return f.url
}

// Fetch downloads and parses the signature list.
// Any transport error or non-200 status is reported as ErrSourceUnavailable.
func (f *Fetcher) Fetch(ctx context.Context) (*Set, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status %d from %s", ErrSourceUnavailable, resp.StatusCode, f.url)
	}

	return Parse(io.LimitReader(resp.Body, maxSourceSize), f.category)
}
