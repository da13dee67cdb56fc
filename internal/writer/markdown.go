package writer

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/markdown"

	"github.com/rokuosan/docmirror/internal/model"
)

// MarkdownWriter writes one Markdown file per page plus a README.md index.
// Page files carry a title header and a metadata blockquote (source URL and
// fetch time) above the converted body, the front-matter contract consumed
// by downstream ingestion.
type MarkdownWriter struct {
	// root is the output directory.
	root string
}

// NewMarkdownWriter creates a MarkdownWriter rooted at dir.
func NewMarkdownWriter(dir string) *MarkdownWriter {
	return &MarkdownWriter{root: dir}
}

// WritePage writes the page's Markdown file, creating parent directories
// as needed.
func (w *MarkdownWriter) WritePage(doc *model.PageDocument) (string, error) {
	rel := PathFor(doc.URL, ".md")
	full := filepath.Join(w.root, rel)
	if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
		return "", fmt.Errorf("create page directory: %w", err)
	}

	var sb strings.Builder
	title := doc.Title
	if title == "" {
		title = doc.URL
	}
	fmt.Fprintf(&sb, "# %s\n\n", title)
	fmt.Fprintf(&sb, "> Source: %s\n", doc.URL)
	fmt.Fprintf(&sb, "> Fetched: %s\n\n", doc.FetchedAt.UTC().Format(time.RFC3339))
	sb.WriteString(doc.Markdown)

	if err := os.WriteFile(full, []byte(sb.String()), 0o600); err != nil {
		return "", fmt.Errorf("write page file: %w", err)
	}
	return rel, nil
}

// WriteSummary writes the run index as README.md at the output root.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
func (w *MarkdownWriter) WriteSummary(summary *model.CrawlSummary) error {
	if err := os.MkdirAll(w.root, 0o750); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	f, err := os.Create(filepath.Join(w.root, "README.md"))
	if err != nil {
		return fmt.Errorf("create summary file: %w", err)
	}
	defer f.Close() //nolint:errcheck // double close on the error path is harmless

	md := markdown.NewMarkdown(f)

	md.H1("Documentation Mirror")
	md.PlainText("")
	md.PlainTextf("Mirror of %s, one Markdown file per page. Shared images", summary.StartURL)
	md.PlainTextf("live in `%s/`, named `{basename}_{hash}{ext}` and referenced", AssetsDirName)
	md.PlainText("relative to each page, so the tree is self-contained.")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Start URL", "`" + summary.StartURL + "`"},
			{"Pages scraped", strconv.Itoa(summary.PagesScraped)},
			{"Errors", strconv.Itoa(summary.Errors)},
			{"Assets downloaded", strconv.Itoa(summary.AssetsDownloaded)},
			{"Started", summary.StartedAt.UTC().Format("2006-01-02 15:04:05 MST")},
			{"Duration", summary.Duration.Round(time.Millisecond).String()},
		},
	})
	md.PlainText("")

	if summary.Interrupted {
		md.Warningf("Run was interrupted; this mirror is partial. Re-run with %s to continue.", "`--resume`")
		md.PlainText("")
	}

	if len(summary.Pages) > 0 {
		md.H2("Pages")
		md.PlainText("")
		items := make([]string, 0, len(summary.Pages))
		for _, page := range summary.Pages {
			title := page.Title
			if title == "" {
				title = page.URL
			}
			items = append(items, fmt.Sprintf("[%s](%s)", title, filepath.ToSlash(page.Path)))
		}
		md.BulletList(items...)
		md.PlainText("")
	}

	if err := md.Build(); err != nil {
		return fmt.Errorf("write summary file: %w", err)
	}
	return f.Close()
}
