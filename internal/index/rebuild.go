package index

import (
	"fmt"
	"log/slog"

	"github.com/sorenblk/quarry/internal/parser"
	"github.com/sorenblk/quarry/internal/storage"
)

// Rebuild truncates the index and repopulates it from the vault in one
// transaction. Notes, tags, properties and tasks are written in a first
// pass; links run as a second pass over the same documents because title
// resolution needs the full corpus in place. Unreadable files are skipped,
// not fatal. Returns the number of notes indexed.
func (db *DB) Rebuild(store storage.Provider) (int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	metas, err := store.List("")
	if err != nil {
		return 0, fmt.Errorf("index: rebuild list: %w", err)
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return 0, fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, table := range []string{"tasks", "tags", "note_props", "links", "notes"} {
		if _, err := tx.Exec(`DELETE FROM ` + table); err != nil {
			return 0, fmt.Errorf("index: truncate %s: %w", table, err)
		}
	}
	ftsTruncate(tx)

	type parsed struct {
		id  string
		doc *parser.Document
	}
	docs := make([]parsed, 0, len(metas))

	for _, m := range metas {
		data, err := store.Read(m.Path)
		if err != nil {
			db.logger.Warn("rebuild: read failed",
				slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		doc := parser.ParseDocument(m.Path, string(data))
		if err := indexNoteTx(tx, m.Path, string(data), doc); err != nil {
			return 0, err
		}
		docs = append(docs, parsed{id: m.Path, doc: doc})
	}

	for _, p := range docs {
		if err := indexLinksTx(tx, p.id, p.doc.Links); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("index: rebuild commit: %w", err)
	}
	db.logger.Info("rebuild: done", slog.Int("notes", len(docs)))
	return len(docs), nil
}
