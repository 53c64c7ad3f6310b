package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Register driver
)

// DB wraps the sql.DB connection.
type DB struct {
	*sql.DB
}

// Init opens the database and runs migrations.
func Init(path string) (*DB, error) {
	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	// WAL lets the status API read while the session writer appends history
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=30000;"); err != nil {
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	d := &DB{db}
	// Enforce single connection to avoid SQLITE_BUSY errors during concurrent writes
	db.SetMaxOpenConns(1)

	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return d, nil
}

// PruneHistory removes play history rows older than the specified duration.
// It returns the number of rows removed.
func (d *DB) PruneHistory(olderThan time.Duration) (int64, error) {
	deadline := time.Now().Add(-olderThan).UnixMilli()
	res, err := d.Exec("DELETE FROM play_history WHERE played_at < ?", deadline)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (d *DB) migrate() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS play_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			type TEXT NOT NULL,
			sequence_index INTEGER,
			sequence TEXT,
			path TEXT,
			detail TEXT,
			played_at INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_play_history_played_at ON play_history (played_at);`,
		`CREATE TABLE IF NOT EXISTS persistent_state (
			key TEXT PRIMARY KEY,
			value TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
	}

	for _, q := range queries {
		if _, err := d.Exec(q); err != nil {
			return fmt.Errorf("exec error: %w query: %s", err, q)
		}
	}

	// Migration: Add type index for per-type stats if missing
	var idxCount int
	err := d.QueryRow("SELECT count(*) FROM sqlite_master WHERE type='index' AND name='idx_play_history_type'").Scan(&idxCount)
	if err == nil && idxCount == 0 {
		if _, err := d.Exec("CREATE INDEX idx_play_history_type ON play_history (type, path)"); err != nil {
			return fmt.Errorf("failed to add idx_play_history_type: %w", err)
		}
	}

	return nil
}
