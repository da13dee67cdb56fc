package browser

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/rokuosan/docmirror/internal/model"
)

// Fetcher fetches one rendered page.
//
// Design decision: The pipeline depends on this interface, not on Browser,
// so tests drive the full crawl loop with a fake fetcher and never need a
// Chrome binary.
type Fetcher interface {
	// FetchPage navigates to pageURL in an isolated tab and returns the
	// rendered document, its outbound links, and measured image sizes.
	FetchPage(ctx context.Context, pageURL string) (*model.Page, error)
}

// linkHarvestJS collects every outbound anchor on the page as an absolute
// URL. This runs against the full document before any content stripping:
// navigation and sidebar links are exactly where most of a docs site's
// structure is discoverable.
const linkHarvestJS = `
(() => {
	const links = Array.from(document.querySelectorAll('a[href]'));
	return links.map(a => a.href).filter(href =>
		href &&
		!href.startsWith('javascript:') &&
		!href.startsWith('mailto:') &&
		!href.startsWith('tel:')
	);
})()
`

// imageSizeJS measures the natural dimensions of every loaded image.
// naturalWidth is zero for images that failed to load or have not decoded;
// those are filtered out so the converter falls back to unsized references.
const imageSizeJS = `
(() => {
	return Array.from(document.images)
		.map(img => ({
			src: img.currentSrc || img.src,
			width: img.naturalWidth,
			height: img.naturalHeight,
		}))
		.filter(i => i.src && i.width > 0 && i.height > 0);
})()
`

// Browser drives one shared headless Chrome process.
type Browser struct {
	allocCtx      context.Context
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc

	// timeout bounds one page fetch end to end: navigation, rendering,
	// and DOM evaluation.
	timeout time.Duration

	// userAgent overrides the browser's default when non-empty.
	userAgent string

	logger *slog.Logger
}

// Option configures a Browser.
type Option func(*Browser)

// WithTimeout sets the per-page fetch deadline.
func WithTimeout(timeout time.Duration) Option {
	return func(b *Browser) {
		b.timeout = timeout
	}
}

// WithUserAgent overrides the browser's User-Agent.
func WithUserAgent(ua string) Option {
	return func(b *Browser) {
		b.userAgent = ua
	}
}

// WithLogger sets the logger for fetch diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Browser) {
		b.logger = logger
	}
}

// New creates a Browser backed by a single headless Chrome process.
// The process starts lazily on the first fetch; Close releases it.
func New(opts ...Option) *Browser {
	b := &Browser{
		timeout: 30 * time.Second,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Headless,
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		// A desktop viewport so docs sites render their full layout, not
		// the mobile hamburger variant with content collapsed.
		chromedp.WindowSize(1366, 900),
	)
	if b.userAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(b.userAgent))
	}

	b.allocCtx, b.allocCancel = chromedp.NewExecAllocator(context.Background(), allocOpts...)
	b.browserCtx, b.browserCancel = chromedp.NewContext(b.allocCtx)
	return b
}

// Close shuts down the Chrome process. Safe to call more than once.
func (b *Browser) Close() {
	b.browserCancel()
	b.allocCancel()
}

// FetchPage implements Fetcher. Each call opens a fresh tab sharing the one
// Chrome process, navigates with the configured deadline, waits for the
// body to be ready, and harvests the rendered document.
//
// A navigation failure fails the whole fetch. Title, link, and image
// harvesting failures degrade instead: the page's HTML is the load-bearing
// result, the rest improves it.
func (b *Browser) FetchPage(ctx context.Context, pageURL string) (*model.Page, error) {
	tabCtx, cancelTab := chromedp.NewContext(b.browserCtx)
	defer cancelTab()

	runCtx, cancelTimeout := context.WithTimeout(tabCtx, b.timeout)
	defer cancelTimeout()

	// Stop early when the crawl itself is cancelled.
	go func() {
		select {
		case <-ctx.Done():
			cancelTab()
		case <-runCtx.Done():
		}
	}()

	if err := chromedp.Run(runCtx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body"),
	); err != nil {
		return nil, fmt.Errorf("navigate %s: %w", pageURL, err)
	}

	page := &model.Page{URL: pageURL}

	if err := chromedp.Run(runCtx, chromedp.Title(&page.Title)); err != nil {
		b.logger.Debug("title harvest failed", "url", pageURL, "error", err)
	}

	var pageHTML string
	if err := chromedp.Run(runCtx, chromedp.OuterHTML("html", &pageHTML)); err != nil {
		return nil, fmt.Errorf("read document %s: %w", pageURL, err)
	}
	page.HTML = pageHTML

	var links []string
	if err := chromedp.Run(runCtx, chromedp.Evaluate(linkHarvestJS, &links)); err != nil {
		b.logger.Debug("link harvest failed", "url", pageURL, "error", err)
	}
	page.Links = links

	var sizes []struct {
		Src    string `json:"src"`
		Width  int    `json:"width"`
		Height int    `json:"height"`
	}
	if err := chromedp.Run(runCtx, chromedp.Evaluate(imageSizeJS, &sizes)); err != nil {
		b.logger.Debug("image measurement failed", "url", pageURL, "error", err)
	}
	if len(sizes) > 0 {
		page.ImageSizes = make(map[string]model.ImageSize, len(sizes))
		for _, s := range sizes {
			page.ImageSizes[s.Src] = model.ImageSize{Width: s.Width, Height: s.Height}
		}
	}

	return page, nil
}
