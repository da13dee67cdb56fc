package writer

import (
	"github.com/rokuosan/docmirror/internal/model"
)

// Writer persists crawl output in one representation.
//
// Design decision: We use an interface so the pipeline never knows which
// representation it feeds. The JSON, Markdown, and combined outputs of the
// original tool are the same pipeline with different writers, not three
// pipelines.
type Writer interface {
	// WritePage persists one converted page and returns the path of the
	// written file relative to the output root, for the run index.
	WritePage(doc *model.PageDocument) (string, error)

	// WriteSummary persists the run-level index exactly once, at the end
	// of the run. It is called even for partial runs.
	WriteSummary(summary *model.CrawlSummary) error
}

// MultiWriter fans pages and the summary out to several Writers, used for
// the "both" output format.
//
// Design decision: We implement this as a separate type rather than
// using io.MultiWriter because our Writer interface is different
// from io.Writer - we write documents, not raw bytes.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// WritePage writes the page through every writer. The first writer's path
// represents the page in the run index. Stops on first error.
func (m *MultiWriter) WritePage(doc *model.PageDocument) (string, error) {
	var first string
	for i, w := range m.writers {
		path, err := w.WritePage(doc)
		if err != nil {
			return first, err
		}
		if i == 0 {
			first = path
		}
	}
	return first, nil
}

// WriteSummary writes the summary through every writer.
func (m *MultiWriter) WriteSummary(summary *model.CrawlSummary) error {
	for _, w := range m.writers {
		if err := w.WriteSummary(summary); err != nil {
			return err
		}
	}
	return nil
}
