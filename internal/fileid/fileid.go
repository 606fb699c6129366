// Package fileid caches Telegram file IDs per audio file name, so each
// clip is uploaded to Telegram servers at most once. The cache is an
// optimization: a miss means the clip is re-uploaded, nothing more.
package fileid

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // SQLite driver registration
)

const busyTimeoutMillis = 5000

// Store persists file name -> Telegram file ID mappings in SQLite.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the cache database at the given path.
//
// The database is created with WAL mode, a 5 s busy timeout, and a single
// connection (SQLite serialises writes). The schema is applied
// idempotently.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("fileid: create directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("fileid: open %s: %w", path, err)
	}

	db.SetMaxOpenConns(1)

	ctx := context.Background()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("fileid: enable WAL: %w", err)
	}
	if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA busy_timeout=%d", busyTimeoutMillis)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("fileid: set busy_timeout: %w", err)
	}

	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS file_ids (
		name       TEXT PRIMARY KEY,
		file_id    TEXT NOT NULL,
		created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("fileid: create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the cached Telegram file ID for a file name, if any.
func (s *Store) Get(ctx context.Context, name string) (string, bool, error) {
	var id string
	err := s.db.QueryRowContext(ctx, "SELECT file_id FROM file_ids WHERE name = ?", name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("fileid: get %s: %w", name, err)
	}
	return id, true, nil
}

// Put stores or replaces the Telegram file ID for a file name.
func (s *Store) Put(ctx context.Context, name, id string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO file_ids (name, file_id) VALUES (?, ?)", name, id)
	if err != nil {
		return fmt.Errorf("fileid: put %s: %w", name, err)
	}
	return nil
}

// Len returns the number of cached file IDs.
func (s *Store) Len(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM file_ids").Scan(&count); err != nil {
		return 0, fmt.Errorf("fileid: count: %w", err)
	}
	return count, nil
}

// Clear removes every cached file ID. Used when Telegram invalidates the
// bot's uploads (e.g. after a token rotation).
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM file_ids"); err != nil {
		return fmt.Errorf("fileid: clear: %w", err)
	}
	return nil
}
