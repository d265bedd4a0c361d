//go:build sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/sorenblk/quarry/internal/models"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS notes_fts USING fts5(
			id UNINDEXED,
			title,
			content,
			tags,
			tokenize = 'unicode61 remove_diacritics 2'
		);
		CREATE VIRTUAL TABLE IF NOT EXISTS tasks_fts USING fts5(
			task_id UNINDEXED,
			note_id UNINDEXED,
			text,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsUpsertNote(tx *sql.Tx, id, title, content string, tags []string) error {
	_, _ = tx.Exec(`DELETE FROM notes_fts WHERE id = ?`, id)
	_, err := tx.Exec(`INSERT INTO notes_fts (id, title, content, tags) VALUES (?, ?, ?, ?)`,
		id, title, content, strings.Join(tags, " "))
	if err != nil {
		return fmt.Errorf("index: upsert note fts: %w", err)
	}
	return nil
}

func ftsDeleteNote(tx *sql.Tx, id string) {
	_, _ = tx.Exec(`DELETE FROM notes_fts WHERE id = ?`, id)
}

func ftsUpsertTask(tx *sql.Tx, t models.Task) error {
	_, err := tx.Exec(`INSERT INTO tasks_fts (task_id, note_id, text) VALUES (?, ?, ?)`,
		t.TaskID, t.NoteID, t.TextNorm)
	if err != nil {
		return fmt.Errorf("index: upsert task fts: %w", err)
	}
	return nil
}

func ftsDeleteTasks(tx *sql.Tx, noteID string) {
	_, _ = tx.Exec(`DELETE FROM tasks_fts WHERE note_id = ?`, noteID)
}

func ftsTruncate(tx *sql.Tx) {
	_, _ = tx.Exec(`DELETE FROM notes_fts`)
	_, _ = tx.Exec(`DELETE FROM tasks_fts`)
}

// keywordCandidates runs the full-text MATCH and returns note ids in BM25
// relevance order, AND-ed with the tag filter. Query tokens are quoted so
// user input cannot change the MATCH syntax.
func (db *DB) keywordCandidates(query string, tags []string, limit int) ([]string, error) {
	match := ftsMatchExpr(query)
	if match == "" {
		return nil, nil
	}

	sqlStr := `SELECT f.id FROM notes_fts f WHERE notes_fts MATCH ?`
	args := []any{match}
	if len(tags) > 0 {
		sqlStr += ` AND f.id IN (
			SELECT note_id FROM tags WHERE tag IN (` + placeholders(len(tags)) + `)
			GROUP BY note_id HAVING COUNT(DISTINCT tag) = ?)`
		for _, t := range tags {
			args = append(args, t)
		}
		args = append(args, len(tags))
	}
	sqlStr += ` ORDER BY rank LIMIT ?`
	args = append(args, limit)

	rows, err := db.conn.Query(sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("index: keyword search: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ftsMatchExpr builds an implicit-AND MATCH expression of quoted tokens.
func ftsMatchExpr(query string) string {
	var parts []string
	for _, tok := range strings.Fields(query) {
		tok = strings.ReplaceAll(tok, `"`, `""`)
		parts = append(parts, `"`+tok+`"`)
	}
	return strings.Join(parts, " ")
}
