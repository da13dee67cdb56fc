package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/rokuosan/docmirror/internal/assets"
	"github.com/rokuosan/docmirror/internal/browser"
	"github.com/rokuosan/docmirror/internal/convert"
	"github.com/rokuosan/docmirror/internal/extract"
	"github.com/rokuosan/docmirror/internal/model"
	"github.com/rokuosan/docmirror/internal/writer"
)

// PageState accumulates one page's processing as it moves through the
// steps. Each page gets a fresh PageState; nothing here is shared across
// pages.
type PageState struct {
	// URL is the normalized URL being processed.
	URL string

	// Page is the raw fetch result, set by the fetch step.
	Page *model.Page

	// Content is the structured extraction result, set by the extract step.
	Content *model.ExtractedContent

	// Document is the writable page, set by the convert step.
	Document *model.PageDocument

	// OutputPath is the written file's path relative to the output root,
	// set by the write step.
	OutputPath string
}

// Step is one stage of per-page processing. Steps run in sequence over a
// shared PageState; an error aborts the page, not the run.
//
// Design decision: We use an interface rather than function types because:
// 1. It allows steps to carry configuration state
// 2. It provides a Name() method for logging and debugging
// 3. It's more extensible for future features (e.g., retries per step)
type Step interface {
	// Do executes the step against the accumulated page state.
	Do(ctx context.Context, state *PageState) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline executes steps in order for one page.
type Pipeline struct {
	steps  []Step
	logger *slog.Logger
}

// NewPipeline creates a per-page pipeline over the given steps.
func NewPipeline(logger *slog.Logger, steps ...Step) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{steps: steps, logger: logger}
}

// Execute runs all steps in sequence, stopping at the first failure.
// Cancellation is checked between steps; steps handle their own timeouts.
func (p *Pipeline) Execute(ctx context.Context, state *PageState) error {
	for _, step := range p.steps {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := step.Do(ctx, state); err != nil {
			return fmt.Errorf("%s: %w", step.Name(), err)
		}
		p.logger.Debug("step completed", "step", step.Name(), "url", state.URL)
	}
	return nil
}

// FetchStep loads the page through the headless browser.
type FetchStep struct {
	// Fetcher acquires rendered pages. An interface so tests drive the
	// pipeline without Chrome.
	Fetcher browser.Fetcher
}

// Name implements Step.
func (s *FetchStep) Name() string { return "fetch" }

// Do implements Step.
func (s *FetchStep) Do(ctx context.Context, state *PageState) error {
	page, err := s.Fetcher.FetchPage(ctx, state.URL)
	if err != nil {
		return err
	}
	state.Page = page
	return nil
}

// ExtractStep pulls structured content out of the fetched page.
type ExtractStep struct {
	Extractor *extract.Extractor
}

// Name implements Step.
func (s *ExtractStep) Name() string { return "extract" }

// Do implements Step.
func (s *ExtractStep) Do(_ context.Context, state *PageState) error {
	content, err := s.Extractor.Extract(state.Page)
	if err != nil {
		return err
	}
	state.Content = content
	return nil
}

// ConvertStep renders the extracted content as Markdown and assembles the
// writable document. When a Store is present, image references resolve
// through it and are rewritten to paths relative to the page's output file.
type ConvertStep struct {
	// MaxImageWidth is the scaling ceiling passed to the converter.
	MaxImageWidth int

	// Store deduplicates and downloads image assets. Nil leaves remote
	// image URLs in place.
	Store *assets.Store

	// PathSuffix is the primary output extension (".md" or ".json"),
	// used to compute the page path that asset references are relative to.
	PathSuffix string
}

// Name implements Step.
func (s *ConvertStep) Name() string { return "convert" }

// Do implements Step.
func (s *ConvertStep) Do(_ context.Context, state *PageState) error {
	base, err := url.Parse(state.URL)
	if err != nil {
		return fmt.Errorf("parse page URL: %w", err)
	}

	pagePath := writer.PathFor(state.URL, s.PathSuffix)

	conv := &convert.Converter{
		BaseURL:       base,
		MaxImageWidth: s.MaxImageWidth,
		ImageSizes:    state.Page.ImageSizes,
	}
	if s.Store != nil {
		conv.ResolveAsset = func(sourceURL string) (string, bool) {
			rec := s.Store.Resolve(sourceURL)
			return writer.AssetRelPath(pagePath, rec.LocalFilename), true
		}
	}

	markdown, err := conv.ToMarkdown(state.Content.ContentHTML)
	if err != nil {
		return err
	}

	state.Document = &model.PageDocument{
		URL:       state.URL,
		Title:     state.Content.Title,
		Markdown:  markdown,
		Content:   state.Content,
		FetchedAt: time.Now().UTC(),
	}
	return nil
}

// WriteStep persists the document through the configured writer.
type WriteStep struct {
	Writer writer.Writer
}

// Name implements Step.
func (s *WriteStep) Name() string { return "write" }

// Do implements Step.
func (s *WriteStep) Do(_ context.Context, state *PageState) error {
	path, err := s.Writer.WritePage(state.Document)
	if err != nil {
		return err
	}
	state.OutputPath = path
	return nil
}
