package convert

import (
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/rokuosan/docmirror/internal/model"
)

// AssetResolver maps an absolute image URL to a local reference, typically
// a path relative to the output file. The second return value reports
// whether a local reference exists; when false the remote URL is kept.
type AssetResolver func(sourceURL string) (string, bool)

// Converter renders extracted content HTML as Markdown.
//
// A Converter is configured once per page and is safe to discard afterwards.
// It holds no I/O handles: asset downloads happen behind the AssetResolver
// callback, so conversion itself is a pure function of its inputs.
type Converter struct {
	// BaseURL is the page's URL, used to resolve relative links and image
	// sources to absolute URLs. Required.
	BaseURL *url.URL

	// MaxImageWidth is the width ceiling in pixels. Images with known
	// dimensions wider than this are emitted with explicit, proportionally
	// scaled width and height attributes. Zero disables scaling.
	MaxImageWidth int

	// ImageSizes maps absolute image URLs to their natural dimensions,
	// measured in the browser during extraction.
	ImageSizes map[string]model.ImageSize

	// ResolveAsset, when non-nil, rewrites image references to local asset
	// paths. Nil keeps remote URLs.
	ResolveAsset AssetResolver
}

// excessiveNewlines matches runs of three or more newlines left behind by
// nested block rendering.
var excessiveNewlines = regexp.MustCompile(`\n{3,}`)

// inlineSpace flattens source formatting whitespace inside text nodes.
var inlineSpace = strings.NewReplacer("\n", " ", "\r", " ", "\t", " ")

// ToMarkdown converts the extracted content HTML of one page to Markdown.
// It never fails on malformed markup; the html package repairs what it can
// and the renderer skips what it cannot represent. The only error case is
// an unreadable input stream, which cannot happen with a string reader but
// is kept in the signature for symmetry with the rest of the pipeline.
func (c *Converter) ToMarkdown(contentHTML string) (string, error) {
	doc, err := html.Parse(strings.NewReader(contentHTML))
	if err != nil {
		return "", fmt.Errorf("parse content HTML: %w", err)
	}

	body := findBody(doc)
	if body == nil {
		return "", nil
	}

	var sb strings.Builder
	for n := body.FirstChild; n != nil; n = n.NextSibling {
		c.renderBlock(&sb, n)
	}

	out := excessiveNewlines.ReplaceAllString(sb.String(), "\n\n")
	out = strings.TrimSpace(out)
	if out == "" {
		return "", nil
	}
	return out + "\n", nil
}

// findBody returns the <body> element html.Parse synthesizes around
// fragment input.
func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == atom.Body {
		return n
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if body := findBody(child); body != nil {
			return body
		}
	}
	return nil
}

// renderBlock renders one block-level node followed by a blank line.
// Container elements without a Markdown equivalent (div, section, figure)
// recurse so their children render at the same level.
func (c *Converter) renderBlock(sb *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		if text := collapseSpace(n.Data); text != "" {
			sb.WriteString(text)
			sb.WriteString("\n\n")
		}
		return
	case html.ElementNode:
		// handled below
	default:
		return
	}

	switch n.DataAtom {
	case atom.Script, atom.Style, atom.Noscript, atom.Template, atom.Iframe:
		// never content

	case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		level := int(n.Data[1] - '0')
		// Heading inner tags are stripped down to their text.
		if text := collapseSpace(textContent(n)); text != "" {
			sb.WriteString(strings.Repeat("#", level))
			sb.WriteString(" ")
			sb.WriteString(text)
			sb.WriteString("\n\n")
		}

	case atom.P:
		if text := strings.TrimSpace(c.renderInline(n)); text != "" {
			sb.WriteString(text)
			sb.WriteString("\n\n")
		}

	case atom.Ul:
		c.renderList(sb, n, 0, false)
		sb.WriteString("\n")

	case atom.Ol:
		c.renderList(sb, n, 0, true)
		sb.WriteString("\n")

	case atom.Pre:
		c.renderPre(sb, n)

	case atom.Blockquote:
		c.renderBlockquote(sb, n)

	case atom.Table:
		c.renderTable(sb, n)

	case atom.Img:
		if ref := c.renderImage(n); ref != "" {
			sb.WriteString(ref)
			sb.WriteString("\n\n")
		}

	case atom.Hr:
		sb.WriteString("---\n\n")

	case atom.Br:
		sb.WriteString("\n")

	case atom.A, atom.Code, atom.Strong, atom.B, atom.Em, atom.I,
		atom.Span, atom.Del, atom.S, atom.Sup, atom.Sub, atom.Small:
		// Inline element at block level: render as its own paragraph.
		if text := strings.TrimSpace(c.renderInline(n)); text != "" {
			sb.WriteString(text)
			sb.WriteString("\n\n")
		}

	default:
		// div, section, article, figure, details and anything unknown:
		// recurse so nested blocks still render.
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			c.renderBlock(sb, child)
		}
	}
}

// renderInline renders the children of an inline context (paragraph, list
// item, table cell) into a single line of Markdown.
func (c *Converter) renderInline(n *html.Node) string {
	var sb strings.Builder
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		c.renderInlineNode(&sb, child)
	}
	return collapseSpace(sb.String())
}

func (c *Converter) renderInlineNode(sb *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		// Source newlines are formatting, not content; only <br> may
		// introduce a line break in inline context.
		sb.WriteString(inlineSpace.Replace(n.Data))
		return
	case html.ElementNode:
		// handled below
	default:
		return
	}

	switch n.DataAtom {
	case atom.Script, atom.Style, atom.Noscript, atom.Template:
		// skip

	case atom.A:
		text := c.renderInline(n)
		href, ok := c.resolveURL(attr(n, "href"))
		switch {
		case ok && text != "":
			fmt.Fprintf(sb, "[%s](%s)", text, href)
		case ok:
			fmt.Fprintf(sb, "[%s](%s)", href, href)
		default:
			// Unresolvable target degrades to plain text.
			sb.WriteString(text)
		}

	case atom.Code:
		if content := textContent(n); content != "" {
			sb.WriteString("`")
			sb.WriteString(strings.ReplaceAll(content, "\n", " "))
			sb.WriteString("`")
		}

	case atom.Strong, atom.B:
		if text := c.renderInline(n); text != "" {
			fmt.Fprintf(sb, "**%s**", text)
		}

	case atom.Em, atom.I:
		if text := c.renderInline(n); text != "" {
			fmt.Fprintf(sb, "*%s*", text)
		}

	case atom.Del, atom.S:
		if text := c.renderInline(n); text != "" {
			fmt.Fprintf(sb, "~~%s~~", text)
		}

	case atom.Img:
		sb.WriteString(c.renderImage(n))

	case atom.Br:
		sb.WriteString("\n")

	default:
		sb.WriteString(c.renderInline(n))
	}
}

// renderList renders ul/ol trees, indenting nested lists two spaces per
// level. List item text renders inline; nested lists inside an item render
// beneath it.
func (c *Converter) renderList(sb *strings.Builder, list *html.Node, depth int, ordered bool) {
	indent := strings.Repeat("  ", depth)
	index := 1
	for li := list.FirstChild; li != nil; li = li.NextSibling {
		if li.Type != html.ElementNode || li.DataAtom != atom.Li {
			continue
		}

		// Item text first, excluding nested lists.
		var item strings.Builder
		for child := li.FirstChild; child != nil; child = child.NextSibling {
			if child.Type == html.ElementNode && (child.DataAtom == atom.Ul || child.DataAtom == atom.Ol) {
				continue
			}
			c.renderInlineNode(&item, child)
		}

		text := collapseSpace(item.String())
		if text != "" || hasNestedList(li) {
			if ordered {
				fmt.Fprintf(sb, "%s%d. %s\n", indent, index, text)
			} else {
				fmt.Fprintf(sb, "%s- %s\n", indent, text)
			}
			index++
		}

		// Then nested lists, one level deeper.
		for child := li.FirstChild; child != nil; child = child.NextSibling {
			if child.Type == html.ElementNode && child.DataAtom == atom.Ul {
				c.renderList(sb, child, depth+1, false)
			}
			if child.Type == html.ElementNode && child.DataAtom == atom.Ol {
				c.renderList(sb, child, depth+1, true)
			}
		}
	}
}

func hasNestedList(li *html.Node) bool {
	for child := li.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == html.ElementNode && (child.DataAtom == atom.Ul || child.DataAtom == atom.Ol) {
			return true
		}
	}
	return false
}

// renderPre renders <pre> blocks as fenced code. A nested
// <code class="language-X"> contributes the fence language; a bare block
// gets an unlabeled fence. Text inside pre is taken verbatim, entities
// already decoded by the parser.
func (c *Converter) renderPre(sb *strings.Builder, pre *html.Node) {
	source := pre
	language := ""
	for child := pre.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == html.ElementNode && child.DataAtom == atom.Code {
			source = child
			language = languageFromClass(attr(child, "class"))
			break
		}
	}

	content := strings.TrimRight(textContent(source), "\n")
	sb.WriteString("```")
	sb.WriteString(language)
	sb.WriteString("\n")
	sb.WriteString(content)
	sb.WriteString("\n```\n\n")
}

// languageFromClass extracts X from a "language-X" class token, the
// convention used by highlight.js, Prism, and most docs generators.
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

// renderBlockquote prefixes every rendered inner line with "> ".
func (c *Converter) renderBlockquote(sb *strings.Builder, quote *html.Node) {
	var inner strings.Builder
	for child := quote.FirstChild; child != nil; child = child.NextSibling {
		c.renderBlock(&inner, child)
	}

	text := strings.TrimSpace(excessiveNewlines.ReplaceAllString(inner.String(), "\n\n"))
	if text == "" {
		return
	}
	for _, line := range strings.Split(text, "\n") {
		sb.WriteString("> ")
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
}

// renderTable renders a table as a header row, a separator row sized to the
// header's column count, and data rows. Rows with too few cells are padded
// and rows with too many are truncated, so mismatched markup still yields
// valid Markdown. A table with no rows or an empty header renders nothing.
func (c *Converter) renderTable(sb *strings.Builder, table *html.Node) {
	var rows [][]string
	var collect func(n *html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Tr {
			var cells []string
			for cell := n.FirstChild; cell != nil; cell = cell.NextSibling {
				if cell.Type == html.ElementNode && (cell.DataAtom == atom.Th || cell.DataAtom == atom.Td) {
					cells = append(cells, strings.ReplaceAll(c.renderInline(cell), "|", `\|`))
				}
			}
			rows = append(rows, cells)
			return
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			collect(child)
		}
	}
	collect(table)

	if len(rows) == 0 || len(rows[0]) == 0 {
		return
	}

	cols := len(rows[0])
	writeRow := func(cells []string) {
		sb.WriteString("|")
		for i := 0; i < cols; i++ {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			sb.WriteString(" ")
			sb.WriteString(cell)
			sb.WriteString(" |")
		}
		sb.WriteString("\n")
	}

	writeRow(rows[0])
	sb.WriteString("|")
	for i := 0; i < cols; i++ {
		sb.WriteString(" --- |")
	}
	sb.WriteString("\n")
	for _, row := range rows[1:] {
		writeRow(row)
	}
	sb.WriteString("\n")
}

// renderImage renders one image reference. data: URLs and unresolvable
// sources render nothing. Images with known natural dimensions wider than
// MaxImageWidth are emitted as explicit sized tags so documentation
// screenshots fit the page; everything else is a plain Markdown image.
func (c *Converter) renderImage(img *html.Node) string {
	src := attr(img, "src")
	if src == "" || strings.HasPrefix(src, "data:") {
		return ""
	}

	abs, ok := c.resolveURL(src)
	if !ok {
		return ""
	}

	ref := abs
	if c.ResolveAsset != nil {
		if local, found := c.ResolveAsset(abs); found {
			ref = local
		}
	}

	alt := attr(img, "alt")
	if size, known := c.ImageSizes[abs]; known && size.Width > 0 && size.Height > 0 {
		width, height := ScaleToWidth(size.Width, size.Height, c.MaxImageWidth)
		return fmt.Sprintf(`<img src="%s" alt="%s" width="%d" height="%d" />`, ref, alt, width, height)
	}
	return fmt.Sprintf("![%s](%s)", alt, ref)
}

// ScaleToWidth scales dimensions proportionally so width does not exceed
// maxWidth. Dimensions at or under the ceiling, and a zero ceiling, pass
// through unchanged. Height is rounded to the nearest pixel.
func ScaleToWidth(width, height, maxWidth int) (int, int) {
	if maxWidth <= 0 || width <= maxWidth {
		return width, height
	}
	scaled := int(math.Round(float64(height) * float64(maxWidth) / float64(width)))
	return maxWidth, scaled
}

// resolveURL resolves ref against the page URL, returning false for
// malformed references or non-HTTP results.
func (c *Converter) resolveURL(ref string) (string, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", false
	}
	u, err := url.Parse(ref)
	if err != nil {
		return "", false
	}
	if c.BaseURL != nil {
		u = c.BaseURL.ResolveReference(u)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}
	return u.String(), true
}

// attr returns the value of the named attribute, or "".
func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

// textContent concatenates all descendant text nodes.
func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			return
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return sb.String()
}

// collapseSpace trims and collapses runs of whitespace to single spaces,
// preserving intentional newlines inserted by <br>.
func collapseSpace(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if fields := strings.Fields(line); len(fields) > 0 {
			out = append(out, strings.Join(fields, " "))
		}
	}
	return strings.Join(out, "\n")
}
