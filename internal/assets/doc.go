// Package assets deduplicates and downloads binary assets shared across a
// crawl. Every image referenced by any page resolves through one Store, so
// an asset referenced by fifty pages is fetched once and all fifty Markdown
// files point at the same local copy.
//
// Filenames are derived from the source URL (path basename plus an
// 8-hex-character hash of the full URL), so the mapping is deterministic
// across runs and collisions between same-named files from different
// directories are avoided.
package assets
