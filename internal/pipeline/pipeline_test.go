package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/rokuosan/docmirror/internal/frontier"
	"github.com/rokuosan/docmirror/internal/model"
	"github.com/rokuosan/docmirror/internal/writer"
)

// fakeFetcher serves a fixed site map without a browser. It records every
// fetched URL and can be told to fail specific pages.
type fakeFetcher struct {
	mu      sync.Mutex
	pages   map[string]*model.Page
	fail    map[string]bool
	fetched []string
}

func (f *fakeFetcher) FetchPage(_ context.Context, pageURL string) (*model.Page, error) {
	f.mu.Lock()
	f.fetched = append(f.fetched, pageURL)
	f.mu.Unlock()

	if f.fail[pageURL] {
		return nil, errors.New("net::ERR_CONNECTION_REFUSED")
	}
	page, ok := f.pages[pageURL]
	if !ok {
		return nil, fmt.Errorf("no fixture for %s", pageURL)
	}
	return page, nil
}

func (f *fakeFetcher) fetchCount(pageURL string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, u := range f.fetched {
		if u == pageURL {
			n++
		}
	}
	return n
}

func fixturePageHTML(title string) string {
	return fmt.Sprintf(`<html><head><title>%s</title></head>
<body>
<nav><a href="https://docs.example.io/guide/b">Nav B</a></nav>
<main>
<h1>%s</h1>
<p>Body of %s.</p>
</main>
</body></html>`, title, title, title)
}

// fixtureSite is a five-page site: the seed A links to B and C, B links to
// D, and E exists but is never referenced.
func fixtureSite() map[string]*model.Page {
	mk := func(u, title string, links ...string) *model.Page {
		return &model.Page{
			URL:   u,
			Title: title,
			HTML:  fixturePageHTML(title),
			Links: links,
		}
	}
	return map[string]*model.Page{
		"https://docs.example.io/guide/a": mk("https://docs.example.io/guide/a", "Page A",
			"https://docs.example.io/guide/b", "https://docs.example.io/guide/c"),
		"https://docs.example.io/guide/b": mk("https://docs.example.io/guide/b", "Page B",
			"https://docs.example.io/guide/d"),
		"https://docs.example.io/guide/c": mk("https://docs.example.io/guide/c", "Page C"),
		"https://docs.example.io/guide/d": mk("https://docs.example.io/guide/d", "Page D"),
		"https://docs.example.io/guide/e": mk("https://docs.example.io/guide/e", "Page E"),
	}
}

func newTestCrawler(t *testing.T, fetcher *fakeFetcher, maxPages int, opts ...CrawlerOption) (*Crawler, *frontier.Frontier, string) {
	t.Helper()

	origin, err := url.Parse("https://docs.example.io/")
	if err != nil {
		t.Fatal(err)
	}
	f := frontier.New(origin, maxPages)

	dir := t.TempDir()
	w := writer.NewMarkdownWriter(dir)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	base := []CrawlerOption{
		WithConcurrency(2),
		WithLogger(logger),
	}
	c := NewCrawler(f, fetcher, w, dir, append(base, opts...)...)
	return c, f, dir
}

func markdownFiles(t *testing.T, dir string) []string {
	t.Helper()
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".md") {
			return nil
		}
		if filepath.Base(path) == "README.md" {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		t.Fatalf("walk output dir: %v", err)
	}
	return files
}

func TestCrawlerRun_PageCeiling(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{pages: fixtureSite()}
	c, f, dir := newTestCrawler(t, fetcher, 3)

	seed, ok := f.Seed("https://docs.example.io/guide/a")
	if !ok {
		t.Fatal("Seed() rejected the fixture seed")
	}

	summary, err := c.Run(context.Background(), seed)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if summary.PagesScraped != 3 {
		t.Errorf("PagesScraped = %d, want 3", summary.PagesScraped)
	}
	if summary.Errors != 0 {
		t.Errorf("Errors = %d, want 0", summary.Errors)
	}
	if summary.Interrupted {
		t.Error("Interrupted = true, want false")
	}

	files := markdownFiles(t, dir)
	if len(files) != 3 {
		t.Errorf("output files = %v, want exactly 3", files)
	}

	// Page E is unreachable from the seed and must never be fetched.
	if got := fetcher.fetchCount("https://docs.example.io/guide/e"); got != 0 {
		t.Errorf("unreachable page fetched %d times", got)
	}

	// No page is fetched twice, even when multiple pages link to it.
	for u := range fetcher.pages {
		if got := fetcher.fetchCount(u); got > 1 {
			t.Errorf("%s fetched %d times", u, got)
		}
	}
}

func TestCrawlerRun_WritesSummary(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{pages: fixtureSite()}
	c, f, dir := newTestCrawler(t, fetcher, 0)

	seed, _ := f.Seed("https://docs.example.io/guide/c")
	summary, err := c.Run(context.Background(), seed)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if summary.PagesScraped != 1 {
		t.Fatalf("PagesScraped = %d, want 1", summary.PagesScraped)
	}
	if len(summary.Pages) != 1 {
		t.Fatalf("Pages = %v, want one entry", summary.Pages)
	}
	if summary.Pages[0].Title != "Page C" {
		t.Errorf("Pages[0].Title = %q, want %q", summary.Pages[0].Title, "Page C")
	}
	if summary.Pages[0].Path != "guide/c.md" {
		t.Errorf("Pages[0].Path = %q, want %q", summary.Pages[0].Path, "guide/c.md")
	}
	if summary.Duration < 0 {
		t.Errorf("Duration = %v, want non-negative", summary.Duration)
	}

	readme, err := os.ReadFile(filepath.Join(dir, "README.md"))
	if err != nil {
		t.Fatalf("README.md not written: %v", err)
	}
	if !strings.Contains(string(readme), "[Page C](guide/c.md)") {
		t.Errorf("README.md missing page link:\n%s", readme)
	}

	page, err := os.ReadFile(filepath.Join(dir, "guide", "c.md"))
	if err != nil {
		t.Fatalf("page file not written: %v", err)
	}
	if !strings.Contains(string(page), "Body of Page C.") {
		t.Errorf("page file missing converted body:\n%s", page)
	}
}

func TestCrawlerRun_FailedPageContinues(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{
		pages: fixtureSite(),
		fail:  map[string]bool{"https://docs.example.io/guide/b": true},
	}
	c, f, dir := newTestCrawler(t, fetcher, 0)

	seed, _ := f.Seed("https://docs.example.io/guide/a")
	summary, err := c.Run(context.Background(), seed)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	// A and C succeed; B fails and takes its outlink to D with it.
	if summary.PagesScraped != 2 {
		t.Errorf("PagesScraped = %d, want 2", summary.PagesScraped)
	}
	if summary.Errors != 1 {
		t.Errorf("Errors = %d, want 1", summary.Errors)
	}

	files := markdownFiles(t, dir)
	if len(files) != 2 {
		t.Errorf("output files = %v, want 2", files)
	}
}

func TestCrawlerRun_Cancellation(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{pages: fixtureSite()}
	c, f, dir := newTestCrawler(t, fetcher, 0)

	seed, _ := f.Seed("https://docs.example.io/guide/a")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := c.Run(ctx, seed)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !summary.Interrupted {
		t.Error("Interrupted = false, want true after cancellation")
	}
	if summary.PagesScraped != 0 {
		t.Errorf("PagesScraped = %d, want 0", summary.PagesScraped)
	}

	// A partial run still flushes the summary document.
	if _, err := os.Stat(filepath.Join(dir, "README.md")); err != nil {
		t.Errorf("README.md not written after cancellation: %v", err)
	}
}

func TestPipelineExecute_StopsOnFirstError(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{pages: map[string]*model.Page{}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	ran := false
	p := NewPipeline(logger,
		&FetchStep{Fetcher: fetcher},
		stepFunc(func(_ context.Context, _ *PageState) error {
			ran = true
			return nil
		}),
	)

	state := &PageState{URL: "https://docs.example.io/missing"}
	err := p.Execute(context.Background(), state)
	if err == nil {
		t.Fatal("Execute() error = nil, want fetch failure")
	}
	if !strings.Contains(err.Error(), "fetch:") {
		t.Errorf("error %q does not name the failing step", err)
	}
	if ran {
		t.Error("later step ran after an earlier step failed")
	}
}

type stepFunc func(ctx context.Context, state *PageState) error

func (f stepFunc) Do(ctx context.Context, state *PageState) error { return f(ctx, state) }
func (f stepFunc) Name() string                                   { return "probe" }
