// Package crawler implements the concurrent crawl engine of coinhunter.
//
// # Architecture
//
// A crawl is driven by a single dispatcher, the Engine, which owns a
// Frontier of pending CrawlTargets. The dispatcher takes one target at a
// time, marks it visited and hands it to a bounded pool of workers. Each
// worker fetches the URL with the Fetcher, classifies the response with the
// Classifier and offers newly discovered targets back to the Frontier.
//
//	seed ──> Frontier ──Take──> Engine ──> worker: Fetch ─> Classify
//	            ^                                              │
//	            └───────────────── Offer(children) ────────────┘
//
// # Components
//
//   - Frontier: FIFO of pending targets, deduplicated against the set of
//     visited URLs. The only shared mutable state of a crawl.
//   - Fetcher: bounded-timeout GET that returns a result only for HTTP 200.
//   - Classifier: extracts scripts and links and matches scripts against
//     the signature set.
//   - Engine: dispatch loop, worker pool and termination detection.
//   - Sink: receives classification events and progress milestones.
//
// # Termination
//
// The crawl ends when the Frontier stays empty for the quiescence timeout
// and no task is in flight, or when the context is cancelled. A cancelled
// crawl still returns its partial Summary.
//
// # Usage
//
//	root, _ := crawler.SiteRoot(seedURL)
//	fetcher := crawler.NewFetcher(crawler.WithTimeout(30 * time.Second))
//	engine := crawler.NewEngine(fetcher, crawler.NewClassifier(set, root),
//		crawler.WithMaxDepth(3),
//		crawler.WithThreads(5),
//	)
//	summary, err := engine.Run(ctx, seedURL)
package crawler
