package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/rokuosan/docmirror/internal/model"
)

// DBFileName is the SQLite file created inside the database directory.
const DBFileName = "docmirror.db"

// CrawlDB provides SQLite-based storage for resumable crawl state.
//
// Design decision: We use a single database file holding one snapshot per
// seed URL rather than one file per run. Re-running the same seed resumes
// or replaces its snapshot, and unrelated sites never interfere.
type CrawlDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures CrawlDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	// This is recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Snapshot is the persisted state of one interrupted crawl.
type Snapshot struct {
	// StartURL is the normalized seed the snapshot belongs to.
	StartURL string

	// OutputDir is the output tree the interrupted run was writing into.
	OutputDir string

	// Visited holds every URL already dequeued for fetching.
	Visited []string

	// Pending holds the queue in order, so the resumed run continues where
	// the interrupted one stopped.
	Pending []string

	// Assets is the asset ledger, so resumed runs do not re-download.
	Assets []model.AssetRecord
}

// Open opens or creates a CrawlDB at the specified directory.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*CrawlDB, error) {
	dbPath := filepath.Join(dbDir, DBFileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (nothing to resume)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite connection string: mode=rw prevents creating new
	// files, mode=rwc allows creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer; a single pooled connection avoids
	// SQLITE_BUSY under checkpoint writes from the run loop.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cdb := &CrawlDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := cdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return cdb, nil
}

// Close closes the database connection.
func (cdb *CrawlDB) Close() error {
	return cdb.db.Close()
}

// Path returns the database file path, for log output.
func (cdb *CrawlDB) Path() string {
	return cdb.dbPath
}

// createTables creates the database schema if it doesn't exist.
func (cdb *CrawlDB) createTables() error {
	schema := `
	-- One session per seed URL
	CREATE TABLE IF NOT EXISTS sessions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		start_url TEXT NOT NULL UNIQUE,
		output_dir TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Frontier rows: visited URLs and the ordered pending queue
	CREATE TABLE IF NOT EXISTS frontier (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id INTEGER NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		url TEXT NOT NULL,
		state TEXT NOT NULL CHECK (state IN ('visited', 'pending')),
		position INTEGER NOT NULL DEFAULT 0,
		UNIQUE(session_id, url)
	);

	CREATE INDEX IF NOT EXISTS idx_frontier_session ON frontier(session_id, state, position);

	-- Asset ledger: which remote assets already exist locally
	CREATE TABLE IF NOT EXISTS assets (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id INTEGER NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		source_url TEXT NOT NULL,
		local_filename TEXT NOT NULL,
		local_path TEXT NOT NULL,
		downloaded INTEGER NOT NULL DEFAULT 0,
		UNIQUE(session_id, source_url)
	);
	`

	if _, err := cdb.db.ExecContext(context.Background(), "PRAGMA foreign_keys=ON"); err != nil {
		return err
	}
	_, err := cdb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveSnapshot replaces the stored snapshot for the seed URL. Called at
// checkpoints during a run; the whole write is one transaction so a crash
// mid-checkpoint leaves the previous snapshot intact.
func (cdb *CrawlDB) SaveSnapshot(ctx context.Context, snap *Snapshot) error {
	tx, err := cdb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO sessions (start_url, output_dir, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(start_url) DO UPDATE SET
			output_dir = excluded.output_dir,
			updated_at = CURRENT_TIMESTAMP
	`, snap.StartURL, snap.OutputDir); err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}

	var sessionID int64
	if err := tx.QueryRowContext(ctx,
		`SELECT id FROM sessions WHERE start_url = ?`, snap.StartURL,
	).Scan(&sessionID); err != nil {
		return fmt.Errorf("load session id: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM frontier WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("clear frontier: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM assets WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("clear assets: %w", err)
	}

	insertFrontier, err := tx.PrepareContext(ctx, `
		INSERT INTO frontier (session_id, url, state, position) VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare frontier insert: %w", err)
	}
	defer insertFrontier.Close() //nolint:errcheck // statement closed with tx

	for i, u := range snap.Visited {
		if _, err := insertFrontier.ExecContext(ctx, sessionID, u, "visited", i); err != nil {
			return fmt.Errorf("insert visited URL: %w", err)
		}
	}
	for i, u := range snap.Pending {
		if _, err := insertFrontier.ExecContext(ctx, sessionID, u, "pending", i); err != nil {
			return fmt.Errorf("insert pending URL: %w", err)
		}
	}

	insertAsset, err := tx.PrepareContext(ctx, `
		INSERT INTO assets (session_id, source_url, local_filename, local_path, downloaded)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare asset insert: %w", err)
	}
	defer insertAsset.Close() //nolint:errcheck // statement closed with tx

	for _, rec := range snap.Assets {
		downloaded := 0
		if rec.Downloaded {
			downloaded = 1
		}
		if _, err := insertAsset.ExecContext(ctx,
			sessionID, rec.SourceURL, rec.LocalFilename, rec.LocalPath, downloaded,
		); err != nil {
			return fmt.Errorf("insert asset record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot returns the stored snapshot for the seed URL, or nil when no
// interrupted run exists for it.
func (cdb *CrawlDB) LoadSnapshot(ctx context.Context, startURL string) (*Snapshot, error) {
	var sessionID int64
	snap := &Snapshot{StartURL: startURL}

	err := cdb.db.QueryRowContext(ctx,
		`SELECT id, output_dir FROM sessions WHERE start_url = ?`, startURL,
	).Scan(&sessionID, &snap.OutputDir)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	rows, err := cdb.db.QueryContext(ctx, `
		SELECT url, state FROM frontier
		WHERE session_id = ?
		ORDER BY state, position
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load frontier: %w", err)
	}
	defer rows.Close() //nolint:errcheck // read-only rows

	for rows.Next() {
		var u, state string
		if err := rows.Scan(&u, &state); err != nil {
			return nil, fmt.Errorf("scan frontier row: %w", err)
		}
		if state == "visited" {
			snap.Visited = append(snap.Visited, u)
		} else {
			snap.Pending = append(snap.Pending, u)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate frontier rows: %w", err)
	}

	assetRows, err := cdb.db.QueryContext(ctx, `
		SELECT source_url, local_filename, local_path, downloaded FROM assets
		WHERE session_id = ?
		ORDER BY source_url
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load assets: %w", err)
	}
	defer assetRows.Close() //nolint:errcheck // read-only rows

	for assetRows.Next() {
		var rec model.AssetRecord
		var downloaded int
		if err := assetRows.Scan(&rec.SourceURL, &rec.LocalFilename, &rec.LocalPath, &downloaded); err != nil {
			return nil, fmt.Errorf("scan asset row: %w", err)
		}
		rec.Downloaded = downloaded != 0
		snap.Assets = append(snap.Assets, rec)
	}
	if err := assetRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate asset rows: %w", err)
	}

	return snap, nil
}

// DeleteSnapshot removes the stored state for the seed URL. Called when a
// run completes so a later run starts fresh instead of resuming.
func (cdb *CrawlDB) DeleteSnapshot(ctx context.Context, startURL string) error {
	if _, err := cdb.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE start_url = ?`, startURL,
	); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
