// SPDX-License-Identifier: MIT

// Package history persists resume positions per media item. The telemetry
// reporter writes through on every report; a mounting player reads the last
// position back to offer resume.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Pure Go driver
)

// ErrNotFound is returned when no position is recorded for a media id.
var ErrNotFound = errors.New("history: no position recorded")

const schemaVersion = 1

// Store is the SQLite-backed resume position store.
type Store struct {
	db *sql.DB
}

// Open initializes the store at dbPath, creating the schema on first use.
func Open(dbPath string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("history: open failed: %w", err)
	}
	db.SetMaxOpenConns(4)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("history: ping failed: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("history: migration failed: %w", err)
	}
	return s, nil
}

// Close releases the database.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	var current int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&current); err != nil {
		return err
	}
	if current >= schemaVersion {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	schema := `
	CREATE TABLE IF NOT EXISTS positions (
		media_id      TEXT PRIMARY KEY,
		position_sec  REAL NOT NULL,
		updated_at_ms INTEGER NOT NULL
	);`
	if _, err := tx.Exec(schema); err != nil {
		return err
	}
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return err
	}
	return tx.Commit()
}

// SavePosition upserts the last known position for mediaID.
func (s *Store) SavePosition(ctx context.Context, mediaID string, positionSec float64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO positions (media_id, position_sec, updated_at_ms)
		VALUES (?, ?, ?)
		ON CONFLICT (media_id) DO UPDATE SET
			position_sec = excluded.position_sec,
			updated_at_ms = excluded.updated_at_ms`,
		mediaID, positionSec, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("history: save position: %w", err)
	}
	return nil
}

// Position returns the last recorded position for mediaID.
func (s *Store) Position(ctx context.Context, mediaID string) (float64, error) {
	var pos float64
	err := s.db.QueryRowContext(ctx,
		"SELECT position_sec FROM positions WHERE media_id = ?", mediaID).Scan(&pos)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("history: read position: %w", err)
	}
	return pos, nil
}

// Forget removes the recorded position, e.g. after playback completed.
func (s *Store) Forget(ctx context.Context, mediaID string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM positions WHERE media_id = ?", mediaID); err != nil {
		return fmt.Errorf("history: forget position: %w", err)
	}
	return nil
}
