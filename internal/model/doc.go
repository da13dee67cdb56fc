// Package model defines the core data structures shared across the crawl
// pipeline: fetched pages, extracted content, asset records, and the
// run-level crawl summary.
//
// Design decision: models live in their own package rather than next to the
// components that produce them because:
//  1. Every stage of the pipeline (fetch, extract, convert, write) consumes
//     them, and a shared package avoids import cycles
//  2. Writers serialize them to JSON, so the struct tags are part of the
//     output contract
//  3. Keeping them free of behavior makes the pipeline stages easy to test
package model
