// Package extract pulls structured content out of rendered documentation pages.
//
// Extraction has two concerns kept deliberately separate from crawling:
// choosing the main content container (docs themes wrap content in main,
// article, or a theme-specific class) and stripping the structural chrome
// around it (navigation, sidebars, breadcrumbs, edit links, ads). Link
// discovery for the crawl happens earlier, in the browser, over the whole
// document; stripping here only affects what gets rendered to Markdown.
package extract
