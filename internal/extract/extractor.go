package extract

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/rokuosan/docmirror/internal/model"
)

// containerSelectors is the ordered preference list for the main content
// container. The first selector with a match wins; the document body is the
// last resort. The class names cover the common documentation generators
// (Docusaurus, MkDocs, Sphinx, GitBook).
var containerSelectors = []string{
	"main",
	"article",
	".theme-doc-markdown",
	".markdown-body",
	".md-content",
	".docs-content",
	".document",
	".content",
	"#content",
	"[role=main]",
}

// denySelectors lists structural and non-content elements removed from the
// chosen container before harvesting. Removal happens on the parsed
// document, after the browser has already collected crawl links from the
// full page, so stripping navigation here loses no discovery fidelity.
var denySelectors = []string{
	"nav", "header", "footer", "aside",
	"script", "style", "noscript", "iframe", "form", "button",
	".nav", ".navbar", ".sidebar", ".menu", ".toc", ".table-of-contents",
	".breadcrumb", ".breadcrumbs", ".pagination", ".prev-next",
	".edit-page", ".edit-this-page", ".theme-edit-this-page",
	".ads", ".advertisement", ".banner", ".popup", ".modal",
	".cookie-banner", ".newsletter", ".announcement",
}

// Extractor turns a rendered page into structured content.
// The zero value uses the built-in container heuristics; set
// ContentSelector to pin the container for sites with unusual markup.
type Extractor struct {
	// ContentSelector, when non-empty, is tried before the built-in
	// container preference list. Populated from per-site configuration.
	ContentSelector string
}

// Extract parses the page HTML, chooses the content container, strips
// non-content elements, and harvests the title, headings, links, images,
// and code blocks along with the remaining inner HTML.
//
// Image dimensions come from the page record, measured in the browser,
// because parsed HTML rarely carries reliable width/height attributes.
func (e *Extractor) Extract(page *model.Page) (*model.ExtractedContent, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.HTML))
	if err != nil {
		return nil, fmt.Errorf("parse page HTML: %w", err)
	}

	base, err := url.Parse(page.URL)
	if err != nil {
		return nil, fmt.Errorf("parse page URL: %w", err)
	}

	container := e.findContainer(doc)
	container.Find(strings.Join(denySelectors, ", ")).Remove()

	content := &model.ExtractedContent{
		Title: pageTitle(page, doc),
	}

	container.Find("h1, h2, h3, h4, h5, h6").Each(func(_ int, s *goquery.Selection) {
		text := collapseSpace(s.Text())
		if text == "" {
			return
		}
		content.Headings = append(content.Headings, model.Heading{
			Level: headingLevel(goquery.NodeName(s)),
			Text:  text,
			ID:    s.AttrOr("id", ""),
		})
	})

	container.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, ok := resolveRef(base, s.AttrOr("href", ""))
		if !ok {
			return
		}
		content.Links = append(content.Links, model.Link{
			Text:  collapseSpace(s.Text()),
			Href:  href,
			Title: s.AttrOr("title", ""),
		})
	})

	container.Find("img[src]").Each(func(_ int, s *goquery.Selection) {
		src := s.AttrOr("src", "")
		if strings.HasPrefix(src, "data:") {
			return
		}
		abs, ok := resolveRef(base, src)
		if !ok {
			return
		}
		img := model.Image{
			Src:   abs,
			Alt:   s.AttrOr("alt", ""),
			Title: s.AttrOr("title", ""),
		}
		if size, known := page.ImageSizes[abs]; known {
			img.NaturalWidth = size.Width
			img.NaturalHeight = size.Height
		}
		content.Images = append(content.Images, img)
	})

	container.Find("pre").Each(func(_ int, s *goquery.Selection) {
		code := s.Find("code").First()
		language := ""
		source := s
		if code.Length() > 0 {
			source = code
			language = languageFromClass(code.AttrOr("class", ""))
		}
		text := strings.TrimRight(source.Text(), "\n")
		if text == "" {
			return
		}
		content.CodeBlocks = append(content.CodeBlocks, model.CodeBlock{
			Language: language,
			Content:  text,
		})
	})

	inner, err := container.Html()
	if err != nil {
		return nil, fmt.Errorf("serialize content container: %w", err)
	}
	content.ContentHTML = inner

	return content, nil
}

// findContainer returns the most specific content container present.
func (e *Extractor) findContainer(doc *goquery.Document) *goquery.Selection {
	if e.ContentSelector != "" {
		if s := doc.Find(e.ContentSelector).First(); s.Length() > 0 {
			return s
		}
	}
	for _, selector := range containerSelectors {
		if s := doc.Find(selector).First(); s.Length() > 0 {
			return s
		}
	}
	return doc.Find("body").First()
}

// pageTitle prefers the browser-observed title, falling back to the <title>
// element and then the first h1.
func pageTitle(page *model.Page, doc *goquery.Document) string {
	if t := collapseSpace(page.Title); t != "" {
		return t
	}
	if t := collapseSpace(doc.Find("title").First().Text()); t != "" {
		return t
	}
	return collapseSpace(doc.Find("h1").First().Text())
}

// headingLevel maps "h1".."h6" to 1..6.
func headingLevel(name string) int {
	if len(name) == 2 && name[0] == 'h' && name[1] >= '1' && name[1] <= '6' {
		return int(name[1] - '0')
	}
	return 0
}

// languageFromClass extracts X from the "language-X" convention used by
// highlight.js, Prism, and most documentation generators.
func languageFromClass(class string) string {
	for _, token := range strings.Fields(class) {
		if lang, ok := strings.CutPrefix(token, "language-"); ok {
			return lang
		}
		if lang, ok := strings.CutPrefix(token, "lang-"); ok {
			return lang
		}
	}
	return ""
}

// resolveRef resolves ref against the page URL, rejecting malformed
// references and non-HTTP schemes.
func resolveRef(base *url.URL, ref string) (string, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", false
	}
	u, err := url.Parse(ref)
	if err != nil {
		return "", false
	}
	abs := base.ResolveReference(u)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return "", false
	}
	return abs.String(), true
}

// collapseSpace trims and collapses all whitespace runs to single spaces.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
