package model

import "time"

// CrawlSummary aggregates the outcome of one crawl run. It is finalized once
// when the run ends (queue exhausted, page ceiling reached, or cancellation)
// and persisted alongside the output tree.
//
// A completed run always produces a summary, including partial runs: counts
// of both successes and errors are reported so a partial crawl is a normal,
// visible outcome rather than a surprise.
type CrawlSummary struct {
	// StartURL is the normalized seed URL.
	StartURL string `json:"start_url"`

	// OutputDir is the root of the output tree.
	OutputDir string `json:"output_dir"`

	// PagesScraped counts pages successfully fetched, converted, and written.
	PagesScraped int `json:"pages_scraped"`

	// Errors counts pages that failed to fetch or process. Failed pages are
	// skipped, not retried.
	Errors int `json:"errors"`

	// AssetsDownloaded counts unique assets downloaded to the shared
	// assets directory.
	AssetsDownloaded int `json:"assets_downloaded"`

	// StartedAt is when the run began.
	StartedAt time.Time `json:"started_at"`

	// Duration is the total wall-clock time of the run.
	Duration time.Duration `json:"-"`

	// DurationSeconds mirrors Duration for the JSON summary file.
	DurationSeconds float64 `json:"duration_seconds"`

	// Interrupted reports whether the run ended early due to cancellation.
	Interrupted bool `json:"interrupted,omitempty"`

	// Pages lists the written pages for the index document, in completion
	// order (no ordering is guaranteed across pages of the same batch).
	Pages []PageSummary `json:"pages"`
}

// PageSummary is one line of the run index: a crawled page and where its
// output file landed relative to the output root.
type PageSummary struct {
	URL   string `json:"url"`
	Title string `json:"title"`
	Path  string `json:"path"`
}

// Finalize computes the derived fields just before the summary is written.
func (s *CrawlSummary) Finalize() {
	s.Duration = time.Since(s.StartedAt)
	s.DurationSeconds = s.Duration.Seconds()
}
