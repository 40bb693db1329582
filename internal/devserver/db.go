// Package devserver is a development stand-in for the remote note store.
// It serves the same HTTP contract the client expects, persists notes in
// SQLite and answers the AI endpoints with deterministic fixtures.
package devserver

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/flock"
	_ "github.com/mattn/go-sqlite3"
)

// ErrLocked is returned by Open when another process holds the database.
var ErrLocked = errors.New("devserver: database is in use by another process")

const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS notes (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	title       TEXT NOT NULL,
	content     TEXT NOT NULL,
	category    TEXT,
	is_favorite INTEGER NOT NULL DEFAULT 0,
	is_archived INTEGER NOT NULL DEFAULT 0,
	created_at  DATETIME NOT NULL,
	updated_at  DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_notes_updated ON notes(updated_at DESC, created_at DESC);
`

// DB wraps a sql.DB with note operations.
type DB struct {
	conn *sql.DB
	lock *flock.Flock
	now  func() time.Time
}

// Open opens (or creates) the SQLite database at path and applies the
// schema. An exclusive lock on path+".lock" is held until Close.
func Open(ctx context.Context, path string) (*DB, error) {
	lock := flock.New(path + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("devserver: lock db: %w", err)
	}
	if !ok {
		return nil, ErrLocked
	}

	conn, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("devserver: open db: %w", err)
	}
	fail := func(step string, err error) (*DB, error) {
		conn.Close()
		_ = lock.Unlock()
		return nil, fmt.Errorf("devserver: %s: %w", step, err)
	}
	if err := conn.PingContext(ctx); err != nil {
		return fail("ping", err)
	}
	if _, err := conn.ExecContext(ctx, coreSchemaSQL); err != nil {
		return fail("apply core schema", err)
	}
	if err := initFTS(conn); err != nil {
		return fail("apply fts schema", err)
	}
	return &DB{conn: conn, lock: lock, now: func() time.Time { return time.Now().UTC() }}, nil
}

// Close closes the database and releases the lock.
func (db *DB) Close() error {
	err := db.conn.Close()
	if uerr := db.lock.Unlock(); err == nil {
		err = uerr
	}
	return err
}
