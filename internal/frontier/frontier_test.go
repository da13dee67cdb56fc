package frontier

import (
	"fmt"
	"net/url"
	"testing"
)

// TestFrontier tests queue discipline and the page ceiling.
func TestFrontier(t *testing.T) {
	t.Parallel()

	origin, _ := url.Parse("https://docs.example.io/")

	t.Run("seed enqueues the normalized start URL", func(t *testing.T) {
		t.Parallel()

		f := New(origin, 10)
		norm, ok := f.Seed("https://docs.example.io/guide/#intro")
		if !ok {
			t.Fatal("expected seed to be accepted")
		}
		if norm != "https://docs.example.io/guide" {
			t.Errorf("unexpected normalized seed: %q", norm)
		}
		if f.PendingCount() != 1 {
			t.Errorf("expected 1 pending, got %d", f.PendingCount())
		}
	})

	t.Run("seed rejects cross-origin URL", func(t *testing.T) {
		t.Parallel()

		f := New(origin, 10)
		if _, ok := f.Seed("https://other.example.io/"); ok {
			t.Error("expected cross-origin seed to be rejected")
		}
	})

	t.Run("next batch marks visited before return", func(t *testing.T) {
		t.Parallel()

		f := New(origin, 10)
		f.Enqueue([]string{
			"https://docs.example.io/a",
			"https://docs.example.io/b",
			"https://docs.example.io/c",
		})

		batch := f.NextBatch(2)
		if len(batch) != 2 {
			t.Fatalf("expected batch of 2, got %d", len(batch))
		}
		if f.VisitedCount() != 2 {
			t.Errorf("expected 2 visited, got %d", f.VisitedCount())
		}

		// A dequeued URL must never re-enter the queue.
		if n := f.Enqueue([]string{"https://docs.example.io/a"}); n != 0 {
			t.Errorf("expected re-enqueue of visited URL to add 0, added %d", n)
		}
	})

	t.Run("enqueue dedups pending URLs", func(t *testing.T) {
		t.Parallel()

		f := New(origin, 10)
		f.Enqueue([]string{"https://docs.example.io/a"})
		if n := f.Enqueue([]string{"https://docs.example.io/a"}); n != 0 {
			t.Errorf("expected duplicate to add 0, added %d", n)
		}
		if f.PendingCount() != 1 {
			t.Errorf("expected 1 pending, got %d", f.PendingCount())
		}
	})

	t.Run("ceiling caps visited plus pending", func(t *testing.T) {
		t.Parallel()

		f := New(origin, 3)
		var urls []string
		for i := 0; i < 10; i++ {
			urls = append(urls, fmt.Sprintf("https://docs.example.io/p%d", i))
		}
		added := f.Enqueue(urls)
		if added != 3 {
			t.Fatalf("expected 3 added under ceiling, got %d", added)
		}

		f.NextBatch(3)
		if n := f.Enqueue([]string{"https://docs.example.io/late"}); n != 0 {
			t.Errorf("expected ceiling to block enqueue, added %d", n)
		}
		if !f.Exhausted() {
			t.Error("expected frontier to be exhausted at ceiling")
		}
	})

	t.Run("zero ceiling means unlimited", func(t *testing.T) {
		t.Parallel()

		f := New(origin, 0)
		var urls []string
		for i := 0; i < 500; i++ {
			urls = append(urls, fmt.Sprintf("https://docs.example.io/p%d", i))
		}
		if added := f.Enqueue(urls); added != 500 {
			t.Errorf("expected all 500 added, got %d", added)
		}
	})

	t.Run("ignore patterns filter by path prefix", func(t *testing.T) {
		t.Parallel()

		f := New(origin, 0, WithIgnorePatterns([]string{"/legacy/", "/v1/"}))
		added := f.Enqueue([]string{
			"https://docs.example.io/guide/intro",
			"https://docs.example.io/legacy/old-page",
			"https://docs.example.io/v1/reference",
		})
		if added != 1 {
			t.Errorf("expected 1 added, got %d", added)
		}
		batch := f.NextBatch(10)
		if len(batch) != 1 || batch[0] != "https://docs.example.io/guide/intro" {
			t.Errorf("unexpected queue contents: %v", batch)
		}
	})

	t.Run("snapshot restore round trip", func(t *testing.T) {
		t.Parallel()

		f := New(origin, 10)
		f.Enqueue([]string{
			"https://docs.example.io/a",
			"https://docs.example.io/b",
		})
		f.NextBatch(1)

		visited, pending := f.Snapshot()

		g := New(origin, 10)
		g.Restore(visited, pending)
		if g.VisitedCount() != 1 || g.PendingCount() != 1 {
			t.Fatalf("restore mismatch: visited=%d pending=%d", g.VisitedCount(), g.PendingCount())
		}
		batch := g.NextBatch(10)
		if len(batch) != 1 || batch[0] != "https://docs.example.io/b" {
			t.Errorf("unexpected restored queue: %v", batch)
		}
	})
}
