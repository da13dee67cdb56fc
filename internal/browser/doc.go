// Package browser acquires documentation pages through headless Chrome.
//
// Documentation sites are routinely single-page apps: the HTML a plain GET
// returns is an empty shell hydrated by JavaScript. Fetching through a real
// renderer (via chromedp) yields the DOM users actually see, and lets us
// measure the natural dimensions of images after layout, which static
// parsing cannot do.
//
// One Chrome process serves the whole run; each page fetch opens its own
// tab context with its own deadline, so a hung page costs one tab, not the
// browser.
package browser
