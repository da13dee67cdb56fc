// Package frontier manages the crawl frontier: URL normalization and
// filtering, the visited set, and the pending queue.
//
// # Normalization
//
// Equivalent URLs must compare equal before deduplication can work. The
// rules are deliberately small: resolve against the page's base URL, strip
// the fragment, and trim a single trailing slash (the root path keeps its
// slash). Anything that fails to parse is reported as undiscoverable rather
// than as an error, because malformed hrefs are routine on real pages.
//
// # Filtering
//
// ShouldCrawl is a pure predicate with no side effects. It is used both to
// decide whether a discovered link is enqueued and whether the crawl should
// ever have started at a given seed. Only same-origin pages pass; static
// assets, API endpoints, and search/underscore paths are rejected.
//
// # Discipline
//
// The Frontier's visited set and queue are mutated only by the scheduler
// between batches, never concurrently from within a batch. The mutex exists
// so that read-only accessors (counts, snapshots) are safe from other
// goroutines, not to support concurrent writers.
package frontier
