// Package catalog records what a publish run wrote and which pages link
// where, backed by SQLite. Stub pages are derived from it.
package catalog

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS documents (
	name      TEXT PRIMARY KEY COLLATE NOCASE,
	path      TEXT NOT NULL,
	kind      TEXT NOT NULL DEFAULT 'page',
	checksum  TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS links (
	source TEXT NOT NULL,
	target TEXT NOT NULL COLLATE NOCASE,
	UNIQUE(source, target)
);

CREATE INDEX IF NOT EXISTS idx_links_source ON links(source);
CREATE INDEX IF NOT EXISTS idx_links_target ON links(target);
`

// Document kinds.
const (
	KindPage     = "page"
	KindJournal  = "journal"
	KindFavorite = "favorite"
	KindStub     = "stub"
	KindSpecial  = "special"
)

// DB wraps a sql.DB with catalog operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the catalog at dsn and applies the schema.
// An empty dsn opens a private in-memory database.
func Open(dsn string) (*DB, error) {
	var conn *sql.DB
	var err error
	if dsn == "" || dsn == ":memory:" {
		conn, err = sql.Open("sqlite3", ":memory:?_foreign_keys=on")
		if err == nil {
			// Every pooled connection would see its own empty database.
			conn.SetMaxOpenConns(1)
		}
	} else {
		conn, err = sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	}
	if err != nil {
		return nil, fmt.Errorf("catalog: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("catalog: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("catalog: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
