package model

import "time"

// Page is the raw result of fetching a single URL through the headless
// browser. It is transient: produced by a fetch, consumed immediately by the
// extractor, then discarded.
type Page struct {
	// URL is the normalized URL that was fetched.
	URL string `json:"url"`

	// Title is the document title reported by the browser.
	Title string `json:"title"`

	// HTML is the full serialized document after rendering.
	HTML string `json:"-"`

	// Links contains every outbound <a href> on the page, resolved to
	// absolute form by the browser. Link discovery scans the whole document,
	// before any content stripping, so navigation elements still contribute
	// crawl candidates.
	Links []string `json:"links,omitempty"`

	// ImageSizes maps absolute image source URLs to their natural
	// dimensions as reported by the rendered page. Images that were not
	// loaded (or are not yet decoded) are absent from the map.
	ImageSizes map[string]ImageSize `json:"-"`
}

// ImageSize holds the natural dimensions of a rendered image in pixels.
type ImageSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// ExtractedContent is the structured content pulled from one page's main
// content region. It is owned exclusively by the pipeline instance
// processing that page and is never shared across pages.
type ExtractedContent struct {
	// Title is the page title, preferring the content's first heading over
	// the document title when both exist.
	Title string `json:"title"`

	// ContentHTML is the inner HTML of the selected content container after
	// non-content elements have been removed.
	ContentHTML string `json:"content_html"`

	// Headings lists the document headings in document order.
	Headings []Heading `json:"headings,omitempty"`

	// Links lists anchors found inside the content region.
	Links []Link `json:"links,omitempty"`

	// Images lists images found inside the content region, merged with the
	// natural dimensions observed by the browser.
	Images []Image `json:"images,omitempty"`

	// CodeBlocks lists fenced code blocks with their declared language.
	CodeBlocks []CodeBlock `json:"code_blocks,omitempty"`
}

// Heading is a single h1..h6 element.
type Heading struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
	ID    string `json:"id,omitempty"`
}

// Link is an anchor inside the content region.
type Link struct {
	Text  string `json:"text"`
	Href  string `json:"href"`
	Title string `json:"title,omitempty"`
}

// Image is an image reference inside the content region.
// NaturalWidth and NaturalHeight are zero when the browser could not
// determine the rendered dimensions.
type Image struct {
	Src           string `json:"src"`
	Alt           string `json:"alt,omitempty"`
	Title         string `json:"title,omitempty"`
	NaturalWidth  int    `json:"natural_width,omitempty"`
	NaturalHeight int    `json:"natural_height,omitempty"`
}

// CodeBlock is a fenced code block. Language is empty for bare <pre><code>.
type CodeBlock struct {
	Language string `json:"language,omitempty"`
	Content  string `json:"content"`
}

// PageDocument is the unit handed to output writers: one crawled page,
// converted and ready to persist.
type PageDocument struct {
	// URL is the normalized source URL.
	URL string `json:"url"`

	// Title is the resolved page title.
	Title string `json:"title"`

	// Markdown is the converted body. Populated for the markdown writer;
	// the JSON writer serializes Content instead.
	Markdown string `json:"-"`

	// Content is the structured extraction result.
	Content *ExtractedContent `json:"content,omitempty"`

	// FetchedAt records when the page was fetched.
	FetchedAt time.Time `json:"fetched_at"`
}
