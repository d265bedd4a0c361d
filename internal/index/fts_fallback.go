//go:build !sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/sorenblk/quarry/internal/models"
)

func initFTS(_ *sql.DB) error {
	// FTS5 not compiled in; keyword candidates come from a LIKE scan over
	// the notes table instead of a MATCH query.
	return nil
}

func ftsUpsertNote(_ *sql.Tx, _, _, _ string, _ []string) error { return nil }

func ftsDeleteNote(_ *sql.Tx, _ string) {}

func ftsUpsertTask(_ *sql.Tx, _ models.Task) error { return nil }

func ftsDeleteTasks(_ *sql.Tx, _ string) {}

func ftsTruncate(_ *sql.Tx) {}

// keywordCandidates approximates the full-text generator with AND-ed LIKE
// predicates over title and preview, most recently updated first.
func (db *DB) keywordCandidates(query string, tags []string, limit int) ([]string, error) {
	tokens := strings.Fields(strings.ToLower(query))
	if len(tokens) == 0 {
		return nil, nil
	}

	sqlStr := `SELECT id FROM notes WHERE 1=1`
	var args []any
	for _, tok := range tokens {
		sqlStr += ` AND (LOWER(title) LIKE ? OR LOWER(preview) LIKE ?)`
		like := "%" + tok + "%"
		args = append(args, like, like)
	}
	if len(tags) > 0 {
		sqlStr += ` AND id IN (
			SELECT note_id FROM tags WHERE tag IN (` + placeholders(len(tags)) + `)
			GROUP BY note_id HAVING COUNT(DISTINCT tag) = ?)`
		for _, t := range tags {
			args = append(args, t)
		}
		args = append(args, len(tags))
	}
	sqlStr += ` ORDER BY updated DESC, id LIMIT ?`
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
