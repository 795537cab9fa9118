package crawler

import (
	"log/slog"
	"sync"

	"github.com/nao1215/coinhunter/internal/model"
)

// Sink receives the output of a crawl while it runs.
// Event may be called from several workers at once; implementations must be
// safe for concurrent use. Milestone is called from the dispatcher only.
type Sink interface {
	// Event receives every classification event.
	Event(ev model.ClassificationEvent)

	// Milestone is called every time the number of visited pages reaches a
	// multiple of the milestone interval.
	Milestone(pagesVisited int)
}

// LogSink writes events and milestones to a slog.Logger.
// Matched events are logged at WARN, unmatched at DEBUG, milestones at INFO.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a LogSink. A nil logger means slog.Default().
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

// Event implements Sink.
func (s *LogSink) Event(ev model.ClassificationEvent) {
	if !ev.Matched {
		s.logger.Debug("script clean",
			"source", ev.SourceURL,
			"script", ev.ScriptLocator,
			"kind", ev.Kind.String(),
			"depth", ev.Depth,
		)
		return
	}

	msg := "found cryptomining script"
	if ev.Kind == model.ScriptRemote {
		msg = "found link to remote cryptojacking provider"
	}
	s.logger.Warn(msg,
		"source", ev.SourceURL,
		"script", ev.ScriptLocator,
		"kind", ev.Kind.String(),
		"signatures", ev.Signatures,
		"depth", ev.Depth,
	)
}

// Milestone implements Sink.
func (s *LogSink) Milestone(pagesVisited int) {
	s.logger.Info("pages scanned", "pages", pagesVisited)
}

// CollectingSink keeps matched events for the final report.
type CollectingSink struct {
	mu       sync.Mutex
	findings []model.ClassificationEvent
}

// NewCollectingSink creates an empty CollectingSink.
func NewCollectingSink() *CollectingSink {
	return &CollectingSink{
		findings: make([]model.ClassificationEvent, 0),
	}
}

// Event implements Sink. Unmatched events are dropped.
func (s *CollectingSink) Event(ev model.ClassificationEvent) {
	if !ev.Matched {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.findings = append(s.findings, ev)
}

// Milestone implements Sink.
func (s *CollectingSink) Milestone(int) {}

// Findings returns a copy of the collected matched events in arrival order.
func (s *CollectingSink) Findings() []model.ClassificationEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.ClassificationEvent, len(s.findings))
	copy(out, s.findings)
	return out
}

// multiSink fans out to several sinks.
type multiSink []Sink

// MultiSink returns a Sink that forwards to every given sink in order.
func MultiSink(sinks ...Sink) Sink {
	return multiSink(sinks)
}

func (m multiSink) Event(ev model.ClassificationEvent) {
	for _, s := range m {
		s.Event(ev)
	}
}

func (m multiSink) Milestone(pagesVisited int) {
	for _, s := range m {
		s.Milestone(pagesVisited)
	}
}
