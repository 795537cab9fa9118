// Package model defines the data structures shared by the crawl engine,
// the report writers and the history database.
//
// This package contains the following main types:
//   - CrawlTarget: A URL and its depth, the unit of crawl work
//   - FetchResult: A successfully retrieved resource
//   - ClassificationEvent: The verdict for one script
//   - Summary and ScanReport: The outcome of a crawl run
//
// The types are serializable to JSON for report output and database storage.
package model
