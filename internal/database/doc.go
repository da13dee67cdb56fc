// Package database persists crawl state to SQLite so interrupted runs can
// resume. One database holds one snapshot per seed URL: the frontier's
// visited set and pending queue, plus the asset ledger, written at
// checkpoints during the run and deleted when a run completes.
package database
