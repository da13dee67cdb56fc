package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rokuosan/docmirror/internal/assets"
	"github.com/rokuosan/docmirror/internal/browser"
	"github.com/rokuosan/docmirror/internal/database"
	"github.com/rokuosan/docmirror/internal/extract"
	"github.com/rokuosan/docmirror/internal/frontier"
	"github.com/rokuosan/docmirror/internal/model"
	"github.com/rokuosan/docmirror/internal/writer"
)

// Crawler owns one crawl run: the frontier, the batch fan-out, and the
// run summary. Frontier mutation happens only between batches plus the
// thread-safe Enqueue; the asset store handles its own concurrency.
//
// Design decision: We use errgroup.SetLimit rather than a worker pool
// because it's simpler and errgroup handles the concurrency correctly.
// Each page gets its own goroutine, but only 'concurrency' goroutines
// run simultaneously.
type Crawler struct {
	frontier *frontier.Frontier
	fetcher  browser.Fetcher
	writer   writer.Writer

	// store deduplicates asset downloads; nil disables them.
	store *assets.Store

	// extractor is shared across pages; it is stateless.
	extractor *extract.Extractor

	// db checkpoints the frontier after each batch for --resume.
	// Nil disables persistence.
	db *database.CrawlDB

	concurrency   int
	delay         time.Duration
	maxImageWidth int
	pathSuffix    string
	outputDir     string

	logger *slog.Logger

	mu      sync.Mutex
	summary model.CrawlSummary
}

// CrawlerOption configures a Crawler.
type CrawlerOption func(*Crawler)

// WithAssetStore enables asset downloads through the given store.
func WithAssetStore(store *assets.Store) CrawlerOption {
	return func(c *Crawler) {
		c.store = store
	}
}

// WithDatabase enables frontier checkpointing for resumable runs.
func WithDatabase(db *database.CrawlDB) CrawlerOption {
	return func(c *Crawler) {
		c.db = db
	}
}

// WithConcurrency sets the batch size. Values below one are ignored.
func WithConcurrency(n int) CrawlerOption {
	return func(c *Crawler) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithDelay sets the politeness pause between batches.
func WithDelay(delay time.Duration) CrawlerOption {
	return func(c *Crawler) {
		c.delay = delay
	}
}

// WithMaxImageWidth sets the image scaling ceiling.
func WithMaxImageWidth(width int) CrawlerOption {
	return func(c *Crawler) {
		c.maxImageWidth = width
	}
}

// WithPathSuffix sets the primary page file extension (".md" or ".json").
func WithPathSuffix(suffix string) CrawlerOption {
	return func(c *Crawler) {
		c.pathSuffix = suffix
	}
}

// WithContentSelector pins the extraction container, from per-site config.
func WithContentSelector(selector string) CrawlerOption {
	return func(c *Crawler) {
		c.extractor = &extract.Extractor{ContentSelector: selector}
	}
}

// WithLogger sets the run logger.
func WithLogger(logger *slog.Logger) CrawlerOption {
	return func(c *Crawler) {
		c.logger = logger
	}
}

// NewCrawler assembles a crawl over the given frontier, fetcher, and writer.
func NewCrawler(f *frontier.Frontier, fetcher browser.Fetcher, w writer.Writer, outputDir string, opts ...CrawlerOption) *Crawler {
	c := &Crawler{
		frontier:    f,
		fetcher:     fetcher,
		writer:      w,
		extractor:   &extract.Extractor{},
		concurrency: 4,
		pathSuffix:  ".md",
		outputDir:   outputDir,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run executes the crawl until the frontier is exhausted, the page ceiling
// is reached, or ctx is cancelled. It always returns a finalized summary,
// partial runs included; the error is non-nil only for failures writing
// the summary itself.
func (c *Crawler) Run(ctx context.Context, startURL string) (*model.CrawlSummary, error) {
	c.summary = model.CrawlSummary{
		StartURL:  startURL,
		OutputDir: c.outputDir,
		StartedAt: time.Now().UTC(),
	}

	c.logger.Info("crawl started",
		"start_url", startURL,
		"concurrency", c.concurrency,
	)

	for !c.frontier.Exhausted() {
		if ctx.Err() != nil {
			c.markInterrupted(ctx)
			break
		}

		batch := c.frontier.NextBatch(c.concurrency)
		if len(batch) == 0 {
			break
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(c.concurrency)
		for _, pageURL := range batch {
			pageURL := pageURL
			g.Go(func() error {
				c.processPage(gctx, pageURL)
				// Page failures are counted, not propagated: one dead
				// page must not cancel its siblings.
				return nil
			})
		}
		_ = g.Wait() //nolint:errcheck // goroutines never return errors

		c.checkpoint(ctx)

		if c.delay > 0 && !c.frontier.Exhausted() {
			select {
			case <-ctx.Done():
				c.markInterrupted(ctx)
			case <-time.After(c.delay):
			}
		}
	}

	return c.finish(ctx)
}

// processPage runs one page through the per-page pipeline and feeds its
// discovered links back into the frontier.
func (c *Crawler) processPage(ctx context.Context, pageURL string) {
	state := &PageState{URL: pageURL}
	p := NewPipeline(c.logger,
		&FetchStep{Fetcher: c.fetcher},
		&ExtractStep{Extractor: c.extractor},
		&ConvertStep{
			MaxImageWidth: c.maxImageWidth,
			Store:         c.store,
			PathSuffix:    c.pathSuffix,
		},
		&WriteStep{Writer: c.writer},
	)

	if err := p.Execute(ctx, state); err != nil {
		c.logger.Warn("page failed", "url", pageURL, "error", err)
		c.mu.Lock()
		c.summary.Errors++
		c.mu.Unlock()
		return
	}

	added := c.enqueueDiscovered(state.Page)

	c.mu.Lock()
	c.summary.PagesScraped++
	c.summary.Pages = append(c.summary.Pages, model.PageSummary{
		URL:   pageURL,
		Title: state.Document.Title,
		Path:  state.OutputPath,
	})
	c.mu.Unlock()

	c.logger.Info("page written",
		"url", pageURL,
		"path", state.OutputPath,
		"links_enqueued", added,
	)
}

// enqueueDiscovered normalizes the page's harvested links and offers them
// to the frontier, which applies the crawl filters and the page ceiling.
func (c *Crawler) enqueueDiscovered(page *model.Page) int {
	if page == nil || len(page.Links) == 0 {
		return 0
	}
	candidates := make([]string, 0, len(page.Links))
	for _, link := range page.Links {
		if norm, ok := frontier.Normalize(link, nil); ok {
			candidates = append(candidates, norm)
		}
	}
	return c.frontier.Enqueue(candidates)
}

// checkpoint persists the frontier and asset ledger between batches so an
// interrupted run can resume without re-fetching.
func (c *Crawler) checkpoint(ctx context.Context) {
	if c.db == nil {
		return
	}
	visited, pending := c.frontier.Snapshot()
	snap := &database.Snapshot{
		StartURL:  c.summary.StartURL,
		OutputDir: c.outputDir,
		Visited:   visited,
		Pending:   pending,
	}
	if c.store != nil {
		snap.Assets = c.store.Records()
	}
	// Checkpoint with a background-derived context: the snapshot is most
	// valuable exactly when ctx has just been cancelled.
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := c.db.SaveSnapshot(saveCtx, snap); err != nil {
		c.logger.Warn("checkpoint failed", "error", err)
	}
}

func (c *Crawler) markInterrupted(ctx context.Context) {
	c.mu.Lock()
	c.summary.Interrupted = true
	c.mu.Unlock()
	c.logger.Warn("crawl interrupted", "reason", ctx.Err())
}

// finish finalizes counters, writes the run summary, and clears the resume
// snapshot when the run completed on its own.
func (c *Crawler) finish(ctx context.Context) (*model.CrawlSummary, error) {
	c.mu.Lock()
	if c.store != nil {
		c.summary.AssetsDownloaded = c.store.DownloadedCount()
	}
	c.summary.Finalize()
	summary := c.summary
	c.mu.Unlock()

	if c.db != nil {
		if summary.Interrupted {
			c.checkpoint(ctx)
		} else {
			cleanCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
			defer cancel()
			if err := c.db.DeleteSnapshot(cleanCtx, summary.StartURL); err != nil {
				c.logger.Warn("snapshot cleanup failed", "error", err)
			}
		}
	}

	if err := c.writer.WriteSummary(&summary); err != nil {
		return &summary, err
	}

	c.logger.Info("crawl finished",
		"pages", summary.PagesScraped,
		"errors", summary.Errors,
		"assets", summary.AssetsDownloaded,
		"duration", summary.Duration.Round(time.Millisecond),
		"interrupted", summary.Interrupted,
	)
	return &summary, nil
}
