package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

const createSnapshotsTable = `
	CREATE TABLE IF NOT EXISTS snapshots (
		key      TEXT PRIMARY KEY,
		data     BLOB NOT NULL,
		saved_at TIMESTAMP NOT NULL
	)
`

// SQLiteSnapshotStore keeps snapshots in a local SQLite file
type SQLiteSnapshotStore struct {
	db *sql.DB
}

// OpenSQLiteSnapshotStore opens (or creates) the database at dsn and ensures the schema
func OpenSQLiteSnapshotStore(ctx context.Context, dsn string) (*SQLiteSnapshotStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	store, err := NewSQLiteSnapshotStore(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// NewSQLiteSnapshotStore ensures the schema on an already open database
func NewSQLiteSnapshotStore(ctx context.Context, db *sql.DB) (*SQLiteSnapshotStore, error) {
	if _, err := db.ExecContext(ctx, createSnapshotsTable); err != nil {
		return nil, fmt.Errorf("failed to create snapshots table: %w", err)
	}
	return &SQLiteSnapshotStore{db: db}, nil
}

// Name identifies the store in logs
func (s *SQLiteSnapshotStore) Name() string { return "sqlite" }

// Save overwrites the snapshot under key
func (s *SQLiteSnapshotStore) Save(ctx context.Context, key string, data []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO snapshots (key, data, saved_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET data = excluded.data, saved_at = excluded.saved_at
	`, key, data, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save snapshot %s: %w", key, err)
	}
	return nil
}

// Load returns the snapshot under key
func (s *SQLiteSnapshotStore) Load(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM snapshots WHERE key = ?`, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("snapshot %s: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot %s: %w", key, err)
	}
	return data, nil
}

// Delete removes the snapshot under key
func (s *SQLiteSnapshotStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete snapshot %s: %w", key, err)
	}
	return nil
}

// Close closes the database
func (s *SQLiteSnapshotStore) Close() error {
	return s.db.Close()
}
