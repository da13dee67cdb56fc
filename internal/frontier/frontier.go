package frontier

import (
	"net/url"
	"strings"
	"sync"
)

// Frontier owns the crawl's visited set and pending queue, and enforces the
// page-count ceiling. URLs enter already normalized; the Frontier never
// hands out a URL twice in one run.
type Frontier struct {
	// origin is the seed's origin, used to filter discovered links.
	origin *url.URL

	// maxPages caps visited + pending so a run never exceeds the ceiling.
	// Zero means unlimited.
	maxPages int

	// visited contains URLs that have been dequeued for fetching. A URL is
	// marked visited when dequeued, before the fetch starts, so it can never
	// be re-enqueued by a sibling in the same batch.
	visited map[string]struct{}

	// queued tracks membership of the pending queue for O(1) dedup.
	queue  []string
	queued map[string]struct{}

	// ignore holds extra path prefixes to skip, from per-site config.
	ignore []string

	mu sync.Mutex
}

// Option configures a Frontier.
type Option func(*Frontier)

// WithIgnorePatterns adds URL path prefixes to skip, on top of the
// built-in filters.
func WithIgnorePatterns(patterns []string) Option {
	return func(f *Frontier) {
		f.ignore = append(f.ignore, patterns...)
	}
}

// New creates a Frontier for the given seed origin and page ceiling.
func New(origin *url.URL, maxPages int, opts ...Option) *Frontier {
	f := &Frontier{
		origin:   origin,
		maxPages: maxPages,
		visited:  make(map[string]struct{}),
		queued:   make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Seed normalizes the seed URL and enqueues it. It returns the normalized
// form, or false when the seed itself is malformed or not crawlable.
func (f *Frontier) Seed(rawURL string) (string, bool) {
	norm, ok := Normalize(rawURL, nil)
	if !ok || !ShouldCrawl(norm, f.origin) {
		return "", false
	}
	f.Enqueue([]string{norm})
	return norm, true
}

// NextBatch removes and returns up to n URLs from the queue, marking each
// visited before it is returned. Fetching failures do not un-mark a URL:
// a page that fails is skipped, not retried within the run.
func (f *Frontier) NextBatch(n int) []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	if n > len(f.queue) {
		n = len(f.queue)
	}
	if n <= 0 {
		return nil
	}

	batch := make([]string, n)
	copy(batch, f.queue[:n])
	f.queue = f.queue[n:]
	for _, u := range batch {
		delete(f.queued, u)
		f.visited[u] = struct{}{}
	}
	return batch
}

// Enqueue adds already-normalized URLs to the pending queue, skipping
// anything visited, already queued, or rejected by ShouldCrawl. The queue is
// capped so that pending + visited never exceeds maxPages. It returns the
// number of URLs actually added.
func (f *Frontier) Enqueue(urls []string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	added := 0
	for _, u := range urls {
		if f.maxPages > 0 && len(f.visited)+len(f.queue) >= f.maxPages {
			break
		}
		if _, seen := f.visited[u]; seen {
			continue
		}
		if _, pending := f.queued[u]; pending {
			continue
		}
		if !ShouldCrawl(u, f.origin) {
			continue
		}
		if f.ignored(u) {
			continue
		}
		f.queue = append(f.queue, u)
		f.queued[u] = struct{}{}
		added++
	}
	return added
}

// ignored reports whether the URL's path matches a configured ignore
// prefix. Called with the lock held.
func (f *Frontier) ignored(u string) bool {
	if len(f.ignore) == 0 {
		return false
	}
	parsed, err := url.Parse(u)
	if err != nil {
		return false
	}
	for _, prefix := range f.ignore {
		if prefix != "" && strings.HasPrefix(parsed.Path, prefix) {
			return true
		}
	}
	return false
}

// Exhausted reports whether the crawl is done: the queue is empty or the
// page ceiling has been reached.
func (f *Frontier) Exhausted() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.queue) == 0 {
		return true
	}
	return f.maxPages > 0 && len(f.visited) >= f.maxPages
}

// VisitedCount returns the number of URLs dequeued so far.
func (f *Frontier) VisitedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.visited)
}

// PendingCount returns the current queue length.
func (f *Frontier) PendingCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queue)
}

// Snapshot returns copies of the visited set and pending queue for
// persistence. The queue copy preserves order so a resumed run continues
// where the interrupted one stopped.
func (f *Frontier) Snapshot() (visited []string, pending []string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	visited = make([]string, 0, len(f.visited))
	for u := range f.visited {
		visited = append(visited, u)
	}
	pending = make([]string, len(f.queue))
	copy(pending, f.queue)
	return visited, pending
}

// Restore replaces the frontier state with a previously persisted snapshot.
// Used by --resume before the first batch is scheduled.
func (f *Frontier) Restore(visited []string, pending []string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.visited = make(map[string]struct{}, len(visited))
	for _, u := range visited {
		f.visited[u] = struct{}{}
	}
	f.queue = f.queue[:0]
	f.queued = make(map[string]struct{}, len(pending))
	for _, u := range pending {
		if _, seen := f.visited[u]; seen {
			continue
		}
		if _, dup := f.queued[u]; dup {
			continue
		}
		f.queue = append(f.queue, u)
		f.queued[u] = struct{}{}
	}
}
