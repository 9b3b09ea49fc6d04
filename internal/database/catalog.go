package database

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/cve-tools/cvemirror/internal/model"
)

// catalogFileName is the SQLite database file under the catalog directory.
const catalogFileName = "cvemirror.db"

// Catalog indexes processed records, runs and reference outcomes.
// It manages connection pooling and provides methods for the writes the
// crawl loop performs and the aggregates the status command reads.
type Catalog struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures Catalog behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging so status queries don't
	// block the crawl's writes.
	EnableWAL bool
}

// DefaultOptions returns the default catalog options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a Catalog under the specified directory.
// If CreateIfNotExists is false and the database doesn't exist, an error
// is returned; the status command uses this to distinguish "no catalog"
// from "empty catalog".
func Open(dir string, opts Options) (*Catalog, error) {
	dbPath := filepath.Join(dir, catalogFileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("catalog not found at %s", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check catalog path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create catalog directory: %w", err)
		}
	}

	// modernc.org/sqlite uses mode=rw to prevent creating new files and
	// mode=rwc to allow creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}

	// SQLite supports only one writer; the crawl is single-threaded
	// anyway, so a single connection avoids lock contention entirely.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	c := &Catalog{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := c.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return c, nil
}

// Close closes the database connection.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// createTables creates the catalog schema if it doesn't exist.
func (c *Catalog) createTables() error {
	schema := `
	-- Runs track bulk catch-up crawls and delta update cycles
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		mode TEXT NOT NULL,
		started_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		finished_at DATETIME,
		pages INTEGER DEFAULT 0,
		records INTEGER DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);

	-- Records track every identifier the mirror has persisted
	CREATE TABLE IF NOT EXISTS records (
		cve_id TEXT NOT NULL,
		mode TEXT NOT NULL,
		path TEXT NOT NULL,
		sha256 TEXT NOT NULL,
		run_id TEXT,
		fetched_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (cve_id, mode)
	);

	CREATE INDEX IF NOT EXISTS idx_records_run ON records(run_id);

	-- Reference entries track the outcome of every archive attempt
	CREATE TABLE IF NOT EXISTS reference_entries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		cve_id TEXT NOT NULL,
		url TEXT NOT NULL,
		kind TEXT NOT NULL,
		detail TEXT,
		run_id TEXT,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_refs_cve ON reference_entries(cve_id);
	CREATE INDEX IF NOT EXISTS idx_refs_kind ON reference_entries(kind);
	`

	_, err := c.db.ExecContext(context.Background(), schema)
	return err
}

// BeginRun records the start of a bulk or delta cycle.
// Kind is "bulk" or "delta".
func (c *Catalog) BeginRun(ctx context.Context, runID, kind string, mode model.Mode) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO runs (id, kind, mode) VALUES (?, ?, ?)`,
		runID, kind, mode.String())
	if err != nil {
		return fmt.Errorf("failed to begin run: %w", err)
	}
	return nil
}

// FinishRun records completion counts for a run.
func (c *Catalog) FinishRun(ctx context.Context, runID string, pages, records int) error {
	_, err := c.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = CURRENT_TIMESTAMP, pages = ?, records = ? WHERE id = ?`,
		pages, records, runID)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	return nil
}

// RecordPersisted upserts the catalog row for a persisted record.
// Re-persisting the same identifier updates the hash and timestamp,
// matching the store's overwrite-latest semantics.
func (c *Catalog) RecordPersisted(ctx context.Context, cveID string, mode model.Mode, path string, data []byte, runID string) error {
	sum := sha256.Sum256(data)

	query := `
	INSERT INTO records (cve_id, mode, path, sha256, run_id)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(cve_id, mode) DO UPDATE SET
		path = excluded.path,
		sha256 = excluded.sha256,
		run_id = excluded.run_id,
		fetched_at = CURRENT_TIMESTAMP
	`
	_, err := c.db.ExecContext(ctx, query,
		cveID, mode.String(), path, hex.EncodeToString(sum[:]), runID)
	if err != nil {
		return fmt.Errorf("failed to record %s: %w", cveID, err)
	}
	return nil
}

// RecordReferences inserts the archive outcome of each reference entry.
func (c *Catalog) RecordReferences(ctx context.Context, cveID string, entries []model.ReferenceEntry, runID string) error {
	if len(entries) == 0 {
		return nil
	}

	for _, e := range entries {
		detail := fmt.Sprint(e.Value())
		// Inline bodies can be large; the catalog keeps outcomes, not content.
		if e.Kind == model.ReferenceInline {
			detail = ""
		}
		_, err := c.db.ExecContext(ctx,
			`INSERT INTO reference_entries (cve_id, url, kind, detail, run_id) VALUES (?, ?, ?, ?, ?)`,
			cveID, e.URL, e.Kind.String(), detail, runID)
		if err != nil {
			return fmt.Errorf("failed to record reference for %s: %w", cveID, err)
		}
	}
	return nil
}

// Summarize aggregates the catalog for status reporting.
func (c *Catalog) Summarize(ctx context.Context) (*model.CatalogSummary, error) {
	summary := &model.CatalogSummary{
		ReferencesByKind: make(map[string]int),
	}

	if err := c.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM records`).Scan(&summary.Records); err != nil {
		return nil, fmt.Errorf("failed to count records: %w", err)
	}

	if err := c.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM runs`).Scan(&summary.Runs); err != nil {
		return nil, fmt.Errorf("failed to count runs: %w", err)
	}

	rows, err := c.db.QueryContext(ctx,
		`SELECT kind, COUNT(*) FROM reference_entries GROUP BY kind`)
	if err != nil {
		return nil, fmt.Errorf("failed to count references: %w", err)
	}
	defer rows.Close() //nolint:errcheck // read-only rows

	for rows.Next() {
		var kind string
		var count int
		if err := rows.Scan(&kind, &count); err != nil {
			return nil, fmt.Errorf("failed to scan reference counts: %w", err)
		}
		summary.ReferencesByKind[kind] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read reference counts: %w", err)
	}

	var lastRun sql.NullString
	if err := c.db.QueryRowContext(ctx,
		`SELECT started_at FROM runs ORDER BY started_at DESC LIMIT 1`).Scan(&lastRun); err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to read last run: %w", err)
	}
	if lastRun.Valid {
		summary.LastRunAt = lastRun.String
	}

	return summary, nil
}
