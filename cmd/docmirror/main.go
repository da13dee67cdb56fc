// Package main provides the entry point for the docmirror CLI.
//
// docmirror mirrors a documentation website into a local tree of Markdown
// files. Pages are rendered in a headless browser, stripped down to their
// main content, converted to Markdown, and written to a directory structure
// mirroring the site's URL paths. Shared images are downloaded once into a
// common assets directory.
//
// Usage:
//
//	docmirror crawl https://docs.example.io/
//	docmirror crawl --resume https://docs.example.io/
//
// See --help for all available options.
package main

// main is the entry point for docmirror.
func main() {
	Execute()
}
