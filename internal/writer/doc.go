// Package writer persists converted pages and the run summary.
//
// One crawl drives one Writer. The Markdown and JSON writers share the
// same URL-to-path mapping and differ only in the file they emit per page,
// so the pipeline stays format-agnostic and "both" is just both writers
// behind a MultiWriter.
package writer
