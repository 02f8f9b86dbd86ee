// Package history is a supplementary, non-authoritative ledger of pass
// statistics. It exists purely for operator observability; the id
// registry in internal/store remains the sole source of truth for
// whether a story has already been processed.
package history

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// Store wraps a SQLite-backed pass-history ledger.
type Store struct {
	db *sql.DB
}

// Open opens or creates a SQLite database at dbPath, enabling WAL mode
// for concurrent readers while a pass is recording.
func Open(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}

	escapedPath := strings.ReplaceAll(dbPath, " ", "%20")
	db, err := sql.Open("sqlite", "file:"+escapedPath+"?_time_format=sqlite")
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// PassRecord is one completed pass's summary, as recorded by
// internal/crawl after RunPass returns.
type PassRecord struct {
	ID           string
	StartedAt    time.Time
	EndedAt      time.Time
	StoriesSeen  int
	StoriesNew   int
	FetchSuccess int64
	FetchFailure int64
	BytesWritten int64
}

// RecordPass inserts one pass's statistics. A failure here is logged by
// the caller and never aborts or retries the pass it describes.
func (s *Store) RecordPass(ctx context.Context, r PassRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO passes (id, started_at, ended_at, stories_seen, stories_new, fetch_success, fetch_failure, bytes_written)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, r.ID, r.StartedAt.UTC(), r.EndedAt.UTC(), r.StoriesSeen, r.StoriesNew, r.FetchSuccess, r.FetchFailure, r.BytesWritten)
	return err
}

// RecentPasses returns up to limit most recent passes, newest first.
func (s *Store) RecentPasses(ctx context.Context, limit int) ([]PassRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, ended_at, stories_seen, stories_new, fetch_success, fetch_failure, bytes_written
		FROM passes
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []PassRecord
	for rows.Next() {
		var r PassRecord
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.EndedAt, &r.StoriesSeen, &r.StoriesNew, &r.FetchSuccess, &r.FetchFailure, &r.BytesWritten); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
