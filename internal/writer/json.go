package writer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rokuosan/docmirror/internal/model"
)

// SummaryFileName is the JSON run summary at the output root.
const SummaryFileName = "scraping_summary.json"

// JSONWriter writes one JSON document per page plus a machine-readable run
// summary. The per-page document carries the structured extraction result,
// which downstream ingestion prefers over re-parsing Markdown.
type JSONWriter struct {
	// root is the output directory.
	root string
}

// NewJSONWriter creates a JSONWriter rooted at dir.
func NewJSONWriter(dir string) *JSONWriter {
	return &JSONWriter{root: dir}
}

// WritePage writes the page's JSON file, creating parent directories as
// needed.
func (w *JSONWriter) WritePage(doc *model.PageDocument) (string, error) {
	rel := PathFor(doc.URL, ".json")
	full := filepath.Join(w.root, rel)
	if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
		return "", fmt.Errorf("create page directory: %w", err)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal page document: %w", err)
	}
	if err := os.WriteFile(full, append(data, '\n'), 0o600); err != nil {
		return "", fmt.Errorf("write page file: %w", err)
	}
	return rel, nil
}

// WriteSummary writes scraping_summary.json at the output root.
func (w *JSONWriter) WriteSummary(summary *model.CrawlSummary) error {
	if err := os.MkdirAll(w.root, 0o750); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	path := filepath.Join(w.root, SummaryFileName)
	if err := os.WriteFile(path, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("write summary file: %w", err)
	}
	return nil
}
