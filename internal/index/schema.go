// Package index provides the SQLite-backed vault index: transactional note
// indexing, hybrid full-text search, and task queries, with optional FTS5.
package index

import (
	"database/sql"
	"fmt"
	"log/slog"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS notes (
	id      TEXT PRIMARY KEY,
	title   TEXT NOT NULL DEFAULT '' COLLATE NOCASE,
	created TEXT NOT NULL DEFAULT '',
	updated TEXT NOT NULL DEFAULT '',
	path    TEXT NOT NULL DEFAULT '',
	etag    TEXT NOT NULL DEFAULT '',
	preview TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS links (
	from_id  TEXT NOT NULL,
	to_id    TEXT NOT NULL DEFAULT '',
	to_title TEXT NOT NULL DEFAULT '',
	kind     TEXT NOT NULL,
	PRIMARY KEY (from_id, to_id, to_title, kind)
);

CREATE TABLE IF NOT EXISTS tags (
	note_id TEXT NOT NULL,
	tag     TEXT NOT NULL,
	PRIMARY KEY (note_id, tag)
);

CREATE TABLE IF NOT EXISTS note_props (
	note_id    TEXT NOT NULL,
	key        TEXT NOT NULL,
	value_type TEXT NOT NULL,
	value_text TEXT NOT NULL DEFAULT '',
	value_json TEXT NOT NULL DEFAULT '',
	ordinal    INTEGER NOT NULL DEFAULT 0,
	UNIQUE (note_id, ordinal)
);

CREATE TABLE IF NOT EXISTS tasks (
	task_id        TEXT PRIMARY KEY,
	note_id        TEXT NOT NULL,
	line_start     INTEGER NOT NULL,
	line_end       INTEGER NOT NULL,
	list_path      TEXT NOT NULL,
	indent         INTEGER NOT NULL DEFAULT 0,
	raw_text       TEXT NOT NULL DEFAULT '',
	text_norm      TEXT NOT NULL DEFAULT '',
	checked        INTEGER NOT NULL DEFAULT 0,
	status         TEXT NOT NULL DEFAULT 'todo',
	priority       INTEGER NOT NULL DEFAULT 0,
	due_date       TEXT NOT NULL DEFAULT '',
	scheduled_date TEXT NOT NULL DEFAULT '',
	tags           TEXT NOT NULL DEFAULT '[]',
	section        TEXT NOT NULL DEFAULT '',
	UNIQUE (note_id, list_path, line_start)
);

CREATE INDEX IF NOT EXISTS idx_links_from ON links(from_id);
CREATE INDEX IF NOT EXISTS idx_links_to ON links(to_id);
CREATE INDEX IF NOT EXISTS idx_links_title ON links(to_title);
CREATE INDEX IF NOT EXISTS idx_tags_tag ON tags(tag);
CREATE INDEX IF NOT EXISTS idx_props_note ON note_props(note_id);
CREATE INDEX IF NOT EXISTS idx_tasks_note ON tasks(note_id);
CREATE INDEX IF NOT EXISTS idx_tasks_checked ON tasks(checked);
`

// DB wraps a sql.DB with index-specific operations. Writes are serialized
// through mu: one writer at a time per root, readers go through WAL.
type DB struct {
	conn   *sql.DB
	logger *slog.Logger
	mu     sync.Mutex
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string, logger *slog.Logger) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("index: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: ping: %w", err)
	}
	if _, err := conn.Exec(coreSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply core schema: %w", err)
	}
	if err := initFTS(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply fts schema: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DB{conn: conn, logger: logger}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
