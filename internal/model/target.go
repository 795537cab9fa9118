package model

// CrawlTarget is a URL waiting to be fetched together with its distance
// from the seed URL. The seed has depth 1.
//
// CrawlTarget is a value type; once created it is never modified.
type CrawlTarget struct {
	// URL is the absolute URL to fetch.
	URL string `json:"url"`

	// Depth is the number of link hops from the seed, starting at 1.
	// Remote scripts inherit the depth of the page that referenced them.
	Depth int `json:"depth"`
}

// NewCrawlTarget creates a CrawlTarget.
func NewCrawlTarget(url string, depth int) CrawlTarget {
	return CrawlTarget{URL: url, Depth: depth}
}
