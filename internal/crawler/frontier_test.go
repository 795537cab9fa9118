package crawler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nao1215/coinhunter/internal/model"
)

func TestFrontierOffer(t *testing.T) {
	t.Parallel()

	t.Run("enforces depth bounds", func(t *testing.T) {
		t.Parallel()

		f := NewFrontier(3)
		if f.Offer(model.NewCrawlTarget("http://example.com/zero", 0)) {
			t.Error("depth 0 should be rejected")
		}
		if f.Offer(model.NewCrawlTarget("http://example.com/four", 4)) {
			t.Error("depth above max should be rejected")
		}
		if !f.Offer(model.NewCrawlTarget("http://example.com/three", 3)) {
			t.Error("depth equal to max should be accepted")
		}
		if f.Len() != 1 {
			t.Errorf("expected 1 queued target, got %d", f.Len())
		}
	})

	t.Run("rejects non-http URLs", func(t *testing.T) {
		t.Parallel()

		f := NewFrontier(3)
		if f.Offer(model.NewCrawlTarget("mailto:a@example.com", 1)) {
			t.Error("mailto should be rejected")
		}
		if f.Offer(model.NewCrawlTarget("/relative", 1)) {
			t.Error("relative URL should be rejected")
		}
	})

	t.Run("deduplicates pending and visited", func(t *testing.T) {
		t.Parallel()

		f := NewFrontier(3)
		if !f.Offer(model.NewCrawlTarget("http://example.com/", 1)) {
			t.Fatal("first offer should succeed")
		}
		if f.Offer(model.NewCrawlTarget("http://EXAMPLE.com", 2)) {
			t.Error("equivalent pending URL should be rejected")
		}

		target, ok := f.Take(context.Background(), time.Second)
		if !ok {
			t.Fatal("expected a target")
		}
		if f.Offer(model.NewCrawlTarget("http://example.com/", 1)) {
			t.Error("taken but unvisited URL should still be pending")
		}
		if !f.MarkVisited(target.URL) {
			t.Fatal("MarkVisited should succeed once")
		}
		if f.Offer(model.NewCrawlTarget("http://example.com/#frag", 1)) {
			t.Error("visited URL should never be admitted again")
		}
		if !f.Visited("http://example.com") {
			t.Error("expected URL to be visited")
		}
	})
}

func TestFrontierTake(t *testing.T) {
	t.Parallel()

	t.Run("returns targets in FIFO order", func(t *testing.T) {
		t.Parallel()

		f := NewFrontier(5)
		for i := range 3 {
			f.Offer(model.NewCrawlTarget(fmt.Sprintf("http://example.com/%d", i), 1))
		}
		for i := range 3 {
			target, ok := f.Take(context.Background(), time.Second)
			if !ok {
				t.Fatalf("expected target %d", i)
			}
			want := fmt.Sprintf("http://example.com/%d", i)
			if target.URL != want {
				t.Errorf("expected %s, got %s", want, target.URL)
			}
		}
	})

	t.Run("times out when empty", func(t *testing.T) {
		t.Parallel()

		f := NewFrontier(3)
		start := time.Now()
		_, ok := f.Take(context.Background(), 50*time.Millisecond)
		if ok {
			t.Error("expected timeout on empty frontier")
		}
		if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
			t.Errorf("Take returned after %v, before the timeout", elapsed)
		}
	})

	t.Run("wakes up on offer", func(t *testing.T) {
		t.Parallel()

		f := NewFrontier(3)
		go func() {
			time.Sleep(20 * time.Millisecond)
			f.Offer(model.NewCrawlTarget("http://example.com/late", 2))
		}()

		target, ok := f.Take(context.Background(), 5*time.Second)
		if !ok {
			t.Fatal("expected target after offer")
		}
		if target.URL != "http://example.com/late" || target.Depth != 2 {
			t.Errorf("unexpected target %+v", target)
		}
	})

	t.Run("returns on context cancellation", func(t *testing.T) {
		t.Parallel()

		f := NewFrontier(3)
		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			time.Sleep(20 * time.Millisecond)
			cancel()
		}()

		start := time.Now()
		if _, ok := f.Take(ctx, 10*time.Second); ok {
			t.Error("expected no target after cancellation")
		}
		if time.Since(start) > 5*time.Second {
			t.Error("Take did not return promptly after cancellation")
		}
	})
}

func TestFrontierMarkVisited(t *testing.T) {
	t.Parallel()

	t.Run("only one concurrent caller wins", func(t *testing.T) {
		t.Parallel()

		f := NewFrontier(3)
		f.Offer(model.NewCrawlTarget("http://example.com/race", 1))

		var (
			wg   sync.WaitGroup
			wins atomic.Int32
		)
		for range 50 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if f.MarkVisited("http://example.com/race") {
					wins.Add(1)
				}
			}()
		}
		wg.Wait()

		if wins.Load() != 1 {
			t.Errorf("expected exactly 1 winner, got %d", wins.Load())
		}
		if f.VisitedCount() != 1 {
			t.Errorf("expected 1 visited URL, got %d", f.VisitedCount())
		}
	})

	t.Run("concurrent offers admit each URL once", func(t *testing.T) {
		t.Parallel()

		f := NewFrontier(3)
		var (
			wg       sync.WaitGroup
			admitted atomic.Int32
		)
		for i := range 100 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				u := fmt.Sprintf("http://example.com/%d", i%10)
				if f.Offer(model.NewCrawlTarget(u, 1)) {
					admitted.Add(1)
				}
			}()
		}
		wg.Wait()

		if admitted.Load() != 10 {
			t.Errorf("expected 10 admitted URLs, got %d", admitted.Load())
		}
		if f.Len() != 10 {
			t.Errorf("expected 10 queued targets, got %d", f.Len())
		}
	})

	t.Run("rejects non-http", func(t *testing.T) {
		t.Parallel()

		f := NewFrontier(3)
		if f.MarkVisited("not a url") {
			t.Error("expected false for invalid URL")
		}
	})
}
