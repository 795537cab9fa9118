package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/coinhunter/internal/model"
)

const (
	// DefaultMaxDepth is the deepest level crawled; the seed is level 1.
	DefaultMaxDepth = 3

	// DefaultThreads is the number of concurrent fetch/classify workers.
	DefaultThreads = 5

	// DefaultQuiescence is how long the frontier must stay empty before the
	// crawl is considered finished.
	DefaultQuiescence = 60 * time.Second

	// DefaultMilestoneInterval is the number of visited pages between two
	// progress milestones.
	DefaultMilestoneInterval = 100
)

// PageFetcher retrieves a target. *Fetcher implements it.
type PageFetcher interface {
	Fetch(ctx context.Context, target model.CrawlTarget) (*model.FetchResult, bool)
}

// PageClassifier classifies a fetched resource. *Classifier implements it.
type PageClassifier interface {
	Classify(result *model.FetchResult) (Classification, error)
}

// Engine runs a crawl: it owns the Frontier, dispatches work onto a bounded
// pool and decides when the crawl is over.
type Engine struct {
	fetcher    PageFetcher
	classifier PageClassifier
	sink       Sink
	logger     *slog.Logger

	maxDepth          int
	threads           int
	quiescence        time.Duration
	milestoneInterval int
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithMaxDepth sets the deepest level crawled. The seed is level 1.
func WithMaxDepth(depth int) EngineOption {
	return func(e *Engine) {
		if depth > 0 {
			e.maxDepth = depth
		}
	}
}

// WithThreads sets the number of concurrent workers.
func WithThreads(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.threads = n
		}
	}
}

// WithQuiescence sets how long an empty frontier is waited on before the
// crawl may finish.
func WithQuiescence(d time.Duration) EngineOption {
	return func(e *Engine) {
		if d > 0 {
			e.quiescence = d
		}
	}
}

// WithMilestoneInterval sets how many visited pages lie between milestones.
func WithMilestoneInterval(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.milestoneInterval = n
		}
	}
}

// WithSink sets the receiver of events and milestones.
func WithSink(s Sink) EngineOption {
	return func(e *Engine) {
		e.sink = s
	}
}

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// NewEngine creates an Engine.
func NewEngine(fetcher PageFetcher, classifier PageClassifier, opts ...EngineOption) *Engine {
	e := &Engine{
		fetcher:           fetcher,
		classifier:        classifier,
		maxDepth:          DefaultMaxDepth,
		threads:           DefaultThreads,
		quiescence:        DefaultQuiescence,
		milestoneInterval: DefaultMilestoneInterval,
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.sink == nil {
		e.sink = NewLogSink(e.logger)
	}

	return e
}

// Run crawls from seedURL until the frontier has been empty for the
// quiescence timeout with no task in flight, or until ctx is cancelled.
//
// Cancellation is not an error: Run waits for in-flight tasks and returns the
// partial Summary with Interrupted set. The only error is an invalid seed.
func (e *Engine) Run(ctx context.Context, seedURL string) (model.Summary, error) {
	if _, err := SiteRoot(seedURL); err != nil {
		return model.Summary{}, fmt.Errorf("%w: %s", ErrInvalidSeed, seedURL)
	}

	summary := model.Summary{
		Target:    seedURL,
		MaxDepth:  e.maxDepth,
		Threads:   e.threads,
		StartedAt: time.Now(),
	}

	frontier := NewFrontier(e.maxDepth)
	frontier.Offer(model.NewCrawlTarget(seedURL, 1))

	var (
		g        errgroup.Group
		inFlight atomic.Int64
		matches  atomic.Int64
		pages    int
	)
	g.SetLimit(e.threads)

	e.logger.Debug("crawl started",
		"seed", seedURL,
		"max_depth", e.maxDepth,
		"threads", e.threads,
		"quiescence", e.quiescence,
	)

	for {
		target, ok := frontier.Take(ctx, e.quiescence)
		if !ok {
			if ctx.Err() != nil {
				summary.Interrupted = true
				break
			}
			// Running tasks may still offer children.
			if inFlight.Load() == 0 && frontier.Len() == 0 {
				break
			}
			continue
		}

		if target.Depth > e.maxDepth {
			continue
		}
		if !frontier.MarkVisited(target.URL) {
			continue
		}

		pages++
		if pages%e.milestoneInterval == 0 {
			e.sink.Milestone(pages)
		}

		inFlight.Add(1)
		g.Go(func() error {
			defer inFlight.Add(-1)
			matches.Add(int64(e.process(ctx, frontier, target)))
			return nil
		})

		if ctx.Err() != nil {
			summary.Interrupted = true
			break
		}
	}

	_ = g.Wait() //nolint:errcheck // tasks never return errors

	summary.PagesVisited = frontier.VisitedCount()
	summary.MatchesFound = int(matches.Load())
	summary.FinishedAt = time.Now()

	e.logger.Debug("crawl finished",
		"pages", summary.PagesVisited,
		"matches", summary.MatchesFound,
		"interrupted", summary.Interrupted,
		"duration", summary.Duration(),
	)

	return summary, nil
}

// process fetches and classifies one target, forwards its events to the sink
// and offers its children to the frontier. It returns the number of matched
// events. Panics and errors stop at this boundary.
func (e *Engine) process(ctx context.Context, frontier *Frontier, target model.CrawlTarget) (matched int) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("task panicked",
				"url", target.URL,
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()),
			)
		}
	}()

	e.logger.Debug("scraping URL", "url", target.URL, "depth", target.Depth)

	result, ok := e.fetcher.Fetch(ctx, target)
	if !ok {
		return 0
	}

	cls, err := e.classifier.Classify(result)
	if err != nil {
		e.logger.Warn("classification failed", "url", target.URL, "error", err)
		return 0
	}

	for _, ev := range cls.Events {
		e.sink.Event(ev)
		if ev.Matched {
			matched++
		}
	}
	for _, child := range cls.Children {
		frontier.Offer(child)
	}

	return matched
}
