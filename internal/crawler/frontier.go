package crawler

import (
	"context"
	"sync"
	"time"

	"github.com/nao1215/coinhunter/internal/model"
)

// Frontier holds the CrawlTargets waiting to be fetched.
//
// Targets are kept in FIFO order. Every target is keyed by its normalized
// URL; a key is either pending (queued or taken but not yet visited) or
// visited, and a visited key is never admitted again. All state lives behind
// one mutex so membership checks and insertions are atomic.
type Frontier struct {
	maxDepth int

	mu      sync.Mutex
	queue   []model.CrawlTarget
	pending map[string]struct{}
	visited map[string]struct{}

	// ready carries at most one wake-up signal for a blocked Take.
	ready chan struct{}
}

// NewFrontier creates an empty Frontier that admits targets with
// 1 <= depth <= maxDepth.
func NewFrontier(maxDepth int) *Frontier {
	return &Frontier{
		maxDepth: maxDepth,
		queue:    make([]model.CrawlTarget, 0),
		pending:  make(map[string]struct{}),
		visited:  make(map[string]struct{}),
		ready:    make(chan struct{}, 1),
	}
}

// Offer adds target to the frontier. It returns false and does nothing when
// the depth is out of range, the URL is not http(s), or the URL is already
// pending or visited. Offer is safe for concurrent use.
func (f *Frontier) Offer(target model.CrawlTarget) bool {
	if target.Depth < 1 || target.Depth > f.maxDepth {
		return false
	}
	key, ok := urlKey(target.URL)
	if !ok {
		return false
	}

	f.mu.Lock()
	if _, seen := f.visited[key]; seen {
		f.mu.Unlock()
		return false
	}
	if _, queued := f.pending[key]; queued {
		f.mu.Unlock()
		return false
	}
	f.pending[key] = struct{}{}
	f.queue = append(f.queue, target)
	f.mu.Unlock()

	select {
	case f.ready <- struct{}{}:
	default:
	}
	return true
}

// Take removes and returns the oldest pending target. It blocks until a
// target is available, timeout elapses or ctx is done. In the last two cases
// it returns false.
//
// A taken target stays pending until MarkVisited is called for it.
func (f *Frontier) Take(ctx context.Context, timeout time.Duration) (model.CrawlTarget, bool) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		if target, ok := f.pop(); ok {
			return target, true
		}

		select {
		case <-f.ready:
		case <-timer.C:
			// An Offer may have raced with the timer.
			return f.pop()
		case <-ctx.Done():
			return model.CrawlTarget{}, false
		}
	}
}

func (f *Frontier) pop() (model.CrawlTarget, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.queue) == 0 {
		return model.CrawlTarget{}, false
	}
	target := f.queue[0]
	f.queue[0] = model.CrawlTarget{}
	f.queue = f.queue[1:]
	return target, true
}

// MarkVisited moves rawURL from pending to visited. It returns false when the
// URL was already visited or is not an http(s) URL, so that of two callers
// marking the same URL only one succeeds.
func (f *Frontier) MarkVisited(rawURL string) bool {
	key, ok := urlKey(rawURL)
	if !ok {
		return false
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, seen := f.visited[key]; seen {
		return false
	}
	delete(f.pending, key)
	f.visited[key] = struct{}{}
	return true
}

// Visited reports whether rawURL has been marked visited.
func (f *Frontier) Visited(rawURL string) bool {
	key, ok := urlKey(rawURL)
	if !ok {
		return false
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	_, seen := f.visited[key]
	return seen
}

// Len returns the number of queued targets.
func (f *Frontier) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queue)
}

// VisitedCount returns the number of visited URLs.
func (f *Frontier) VisitedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.visited)
}
