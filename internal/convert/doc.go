// Package convert transforms extracted page HTML into Markdown.
//
// The converter walks a parsed HTML tree and renders nodes by type:
// headings, paragraphs, lists, fenced and inline code, links, images,
// blockquotes, and tables. Walking real nodes instead of applying ordered
// string replacements keeps nested structures (lists inside lists, links
// inside table cells) correct without rule-ordering bugs.
//
// Conversion is best-effort and lossy: unknown elements contribute their
// text, malformed tables degrade to empty output, and unresolvable link
// targets degrade to plain text. It is also deterministic: the same HTML
// and image metadata always produce byte-identical Markdown, so page files
// are stable across runs.
package convert
