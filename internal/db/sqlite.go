package db

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	cserrors "github.com/manpreetbhatti/codesync/internal/errors"
	"github.com/manpreetbhatti/codesync/internal/logging"
)

const counterSchema = `
CREATE TABLE IF NOT EXISTS room_counters (
	id TEXT PRIMARY KEY,
	rooms INTEGER NOT NULL DEFAULT 0,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
`

type SQLite struct {
	db *sql.DB
	id string
}

func NewSQLite(dbPath, counterID string) (*SQLite, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, cserrors.StoreUnavailable("sqlite", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, cserrors.StoreUnavailable("sqlite", err)
	}

	// One writer at a time; concurrent upserts would otherwise hit SQLITE_BUSY
	db.SetMaxOpenConns(1)

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, cserrors.StoreUnavailable("sqlite", err)
	}

	if _, err := db.Exec(counterSchema); err != nil {
		db.Close()
		return nil, cserrors.StoreUnavailable("sqlite", err)
	}

	logging.NewLogger("db").WithField("path", dbPath).Info("Database initialized")
	return &SQLite{db: db, id: counterID}, nil
}

func (s *SQLite) Increment(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO room_counters (id, rooms, updated_at)
		VALUES (?, 1, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			rooms = rooms + 1,
			updated_at = CURRENT_TIMESTAMP
	`, s.id)
	return err
}

func (s *SQLite) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx,
		"SELECT rooms FROM room_counters WHERE id = ?",
		s.id,
	).Scan(&count)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return count, err
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
