package model

import (
	"time"
)

// Summary holds the counters of one crawl run.
type Summary struct {
	// Target is the seed URL of the run.
	Target string `json:"target"`

	// MaxDepth and Threads are the limits the run was started with.
	MaxDepth int `json:"max_depth"`
	Threads  int `json:"threads"`

	// PagesVisited is the number of distinct URLs dispatched for fetching.
	PagesVisited int `json:"pages_visited"`

	// MatchesFound is the number of matched ClassificationEvents.
	MatchesFound int `json:"matches_found"`

	// StartedAt and FinishedAt bound the run.
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// Interrupted is true when the run was cancelled before the frontier
	// drained. Counters then hold partial results.
	Interrupted bool `json:"interrupted"`
}

// Duration returns how long the run took.
func (s Summary) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// ScanReport is the final output of a scan: the run summary plus every
// matched classification event collected by the reporting sink.
type ScanReport struct {
	Summary

	// SignatureCount is the size of the signature set used for the run.
	SignatureCount int `json:"signature_count"`

	// Findings holds the matched events in the order they were emitted.
	Findings []ClassificationEvent `json:"findings"`
}

// NewScanReport creates a ScanReport from a finished run.
func NewScanReport(summary Summary, signatureCount int, findings []ClassificationEvent) *ScanReport {
	if findings == nil {
		findings = make([]ClassificationEvent, 0)
	}
	return &ScanReport{
		Summary:        summary,
		SignatureCount: signatureCount,
		Findings:       findings,
	}
}

// HasFindings reports whether any matched event was recorded.
func (r *ScanReport) HasFindings() bool {
	return len(r.Findings) > 0
}

// CountByKind returns the number of findings of the given kind.
func (r *ScanReport) CountByKind(kind ScriptKind) int {
	count := 0
	for _, f := range r.Findings {
		if f.Kind == kind {
			count++
		}
	}
	return count
}

// FindingsByKind returns the findings of the given kind in emission order.
func (r *ScanReport) FindingsByKind(kind ScriptKind) []ClassificationEvent {
	result := make([]ClassificationEvent, 0)
	for _, f := range r.Findings {
		if f.Kind == kind {
			result = append(result, f)
		}
	}
	return result
}

// SignatureHits counts how often each signature domain matched.
func (r *ScanReport) SignatureHits() map[string]int {
	hits := make(map[string]int)
	for _, f := range r.Findings {
		for _, sig := range f.Signatures {
			hits[sig]++
		}
	}
	return hits
}
