package crawler

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/purell"
)

// normalizeFlags are the purell rules that decide when two URLs are the same
// page for deduplication.
const normalizeFlags = purell.FlagLowercaseScheme |
	purell.FlagLowercaseHost |
	purell.FlagUppercaseEscapes |
	purell.FlagDecodeUnnecessaryEscapes |
	purell.FlagEncodeNecessaryEscapes |
	purell.FlagRemoveEmptyQuerySeparator |
	purell.FlagRemoveDotSegments |
	purell.FlagRemoveDuplicateSlashes |
	purell.FlagSortQuery |
	purell.FlagRemoveEmptyPortSeparator |
	purell.FlagRemoveUnnecessaryHostDots |
	purell.FlagRemoveDefaultPort |
	purell.FlagRemoveFragment

// urlKey returns the deduplication key of rawURL.
// ok is false when rawURL is not an absolute http or https URL.
func urlKey(rawURL string) (key string, ok bool) {
	u, err := url.Parse(rawURL)
	if err != nil || !isHTTP(u) {
		return "", false
	}

	// http://example.com and http://example.com/ are the same page.
	if u.Path == "" {
		u.Path = "/"
		u.RawPath = ""
	}

	return purell.NormalizeURL(u, normalizeFlags), true
}

// isHTTP reports whether u is an absolute http(s) URL with a host.
func isHTTP(u *url.URL) bool {
	scheme := strings.ToLower(u.Scheme)
	return (scheme == "http" || scheme == "https") && u.Host != ""
}

// SiteRoot returns the scheme and host of seedURL as a URL with path "/".
// Every link and script reference found during a crawl is resolved against
// this root rather than against the page it was found on.
func SiteRoot(seedURL string) (*url.URL, error) {
	u, err := url.Parse(seedURL)
	if err != nil {
		return nil, err
	}
	if !isHTTP(u) {
		return nil, &url.Error{Op: "parse", URL: seedURL, Err: errNotHTTP}
	}
	return &url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/"}, nil
}

// skippedSchemes are reference prefixes that never point at a fetchable page.
var skippedSchemes = []string{"javascript:", "mailto:", "tel:", "data:"}

// resolve resolves ref against root. ok is false when ref is empty, a bare
// fragment, uses a skipped scheme, or does not resolve to an http(s) URL.
func resolve(root *url.URL, ref string) (string, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" || strings.HasPrefix(ref, "#") {
		return "", false
	}

	lower := strings.ToLower(ref)
	for _, prefix := range skippedSchemes {
		if strings.HasPrefix(lower, prefix) {
			return "", false
		}
	}

	u, err := url.Parse(ref)
	if err != nil {
		return "", false
	}

	abs := root.ResolveReference(u)
	if !isHTTP(abs) {
		return "", false
	}
	return abs.String(), true
}
