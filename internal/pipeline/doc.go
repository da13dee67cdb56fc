// Package pipeline drives the crawl: it owns the run loop that pops
// batches of URLs off the frontier, fans them out across browser tabs, and
// feeds each fetched page through the per-page steps (fetch, extract,
// convert, write).
//
// The per-page pipeline is a sequence of Steps sharing one PageState, so
// the Markdown and JSON outputs are the same pipeline with different
// writers rather than parallel implementations.
package pipeline
