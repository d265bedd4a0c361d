package index

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/sorenblk/quarry/internal/apperr"
	"github.com/sorenblk/quarry/internal/checksum"
	"github.com/sorenblk/quarry/internal/models"
	"github.com/sorenblk/quarry/internal/parser"
)

// IndexNote parses text and replaces every row derived from the note (note,
// FTS mirror, tags, properties, tasks, outgoing links) in one transaction.
// Bare wikilink titles are resolved against the corpus as it exists at call
// time: a unique case-insensitive title match becomes a resolved edge,
// anything else stays an unresolved wikilink edge.
func (db *DB) IndexNote(id, text string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	doc := parser.ParseDocument(id, text)
	if err := indexNoteTx(tx, id, text, doc); err != nil {
		return err
	}
	if err := indexLinksTx(tx, id, doc.Links); err != nil {
		return err
	}
	return tx.Commit()
}

// indexNoteTx writes everything derived from one note except its outgoing
// links. Rebuild calls it for every note in pass one; links run as a second
// pass so title resolution sees the complete corpus.
func indexNoteTx(tx *sql.Tx, id, text string, doc *parser.Document) error {
	now := time.Now().UTC().Format(time.RFC3339)
	created := doc.Created
	if created == "" {
		created = now
	}
	updated := doc.Updated
	if updated == "" {
		updated = now
	}
	etag := checksum.Sum([]byte(text))
	preview := parser.Preview(doc.Body)

	_, err := tx.Exec(`
		INSERT INTO notes (id, title, created, updated, path, etag, preview)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title   = excluded.title,
			created = excluded.created,
			updated = excluded.updated,
			path    = excluded.path,
			etag    = excluded.etag,
			preview = excluded.preview
	`, id, doc.Title, created, updated, id, etag, preview)
	if err != nil {
		return fmt.Errorf("index: upsert note: %w", err)
	}

	// The mirror indexes header and body together so structured metadata
	// is full-text searchable.
	content := doc.Body
	if doc.Header != "" {
		content = doc.Header + "\n" + doc.Body
	}
	if err := ftsUpsertNote(tx, id, doc.Title, content, doc.Tags); err != nil {
		return err
	}

	if _, err := tx.Exec(`DELETE FROM tags WHERE note_id = ?`, id); err != nil {
		return fmt.Errorf("index: clear tags: %w", err)
	}
	for _, tag := range doc.Tags {
		if _, err := tx.Exec(`INSERT OR IGNORE INTO tags (note_id, tag) VALUES (?, ?)`, id, tag); err != nil {
			return fmt.Errorf("index: insert tag: %w", err)
		}
	}

	if _, err := tx.Exec(`DELETE FROM note_props WHERE note_id = ?`, id); err != nil {
		return fmt.Errorf("index: clear props: %w", err)
	}
	for _, p := range doc.Properties {
		_, err := tx.Exec(`
			INSERT INTO note_props (note_id, key, value_type, value_text, value_json, ordinal)
			VALUES (?, ?, ?, ?, ?, ?)
		`, id, p.Key, p.ValueType, p.ValueText, p.ValueJSON, p.Ordinal)
		if err != nil {
			return fmt.Errorf("index: insert prop: %w", err)
		}
	}

	ftsDeleteTasks(tx, id)
	if _, err := tx.Exec(`DELETE FROM tasks WHERE note_id = ?`, id); err != nil {
		return fmt.Errorf("index: clear tasks: %w", err)
	}
	for _, t := range doc.Tasks {
		tagsJSON, _ := json.Marshal(nonNilTags(t.Tags))
		_, err := tx.Exec(`
			INSERT OR REPLACE INTO tasks
				(task_id, note_id, line_start, line_end, list_path, indent,
				 raw_text, text_norm, checked, status, priority,
				 due_date, scheduled_date, tags, section)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, t.TaskID, t.NoteID, t.LineStart, t.LineEnd, t.ListPath, t.Indent,
			t.RawText, t.TextNorm, t.Checked, t.Status, t.Priority,
			t.DueDate, t.ScheduledDate, string(tagsJSON), t.Section)
		if err != nil {
			return fmt.Errorf("index: insert task: %w", err)
		}
		if err := ftsUpsertTask(tx, t); err != nil {
			return err
		}
	}
	return nil
}

// indexLinksTx replaces the note's outgoing link edges.
func indexLinksTx(tx *sql.Tx, id string, refs parser.LinkRefs) error {
	if _, err := tx.Exec(`DELETE FROM links WHERE from_id = ?`, id); err != nil {
		return fmt.Errorf("index: clear links: %w", err)
	}

	for _, p := range sortedKeys(refs.Paths) {
		_, err := tx.Exec(`
			INSERT OR IGNORE INTO links (from_id, to_id, to_title, kind)
			VALUES (?, ?, '', ?)
		`, id, p, models.LinkKindFile)
		if err != nil {
			return fmt.Errorf("index: insert link: %w", err)
		}
	}

	for _, title := range sortedKeys(refs.Titles) {
		toID, resolved, err := resolveTitle(tx, title)
		if err != nil {
			return err
		}
		if resolved {
			_, err = tx.Exec(`
				INSERT OR IGNORE INTO links (from_id, to_id, to_title, kind)
				VALUES (?, ?, '', ?)
			`, id, toID, models.LinkKindNote)
		} else {
			_, err = tx.Exec(`
				INSERT OR IGNORE INTO links (from_id, to_id, to_title, kind)
				VALUES (?, '', ?, ?)
			`, id, title, models.LinkKindWikilink)
		}
		if err != nil {
			return fmt.Errorf("index: insert link: %w", err)
		}
	}
	return nil
}

// resolveTitle maps a bare title to a note id only when exactly one note
// carries that title case-insensitively. Zero or ambiguous matches leave
// the reference unresolved; this policy is load-bearing for backlinks.
func resolveTitle(tx *sql.Tx, title string) (string, bool, error) {
	rows, err := tx.Query(`SELECT id FROM notes WHERE title = ? COLLATE NOCASE LIMIT 2`, title)
	if err != nil {
		return "", false, fmt.Errorf("index: resolve title: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", false, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return "", false, err
	}
	if len(ids) == 1 {
		return ids[0], true, nil
	}
	return "", false, nil
}

// RemoveNote deletes the note and every row referencing it, including link
// edges where it is either endpoint.
func (db *DB) RemoveNote(id string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDeleteNote(tx, id)
	ftsDeleteTasks(tx, id)
	if _, err := tx.Exec(`DELETE FROM tasks WHERE note_id = ?`, id); err != nil {
		return fmt.Errorf("index: delete tasks: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM tags WHERE note_id = ?`, id); err != nil {
		return fmt.Errorf("index: delete tags: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM note_props WHERE note_id = ?`, id); err != nil {
		return fmt.Errorf("index: delete props: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM links WHERE from_id = ? OR to_id = ?`, id, id); err != nil {
		return fmt.Errorf("index: delete links: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM notes WHERE id = ?`, id); err != nil {
		return fmt.Errorf("index: delete note: %w", err)
	}
	return tx.Commit()
}

// GetNote returns one note row by id.
func (db *DB) GetNote(id string) (*models.Note, error) {
	var n models.Note
	err := db.conn.QueryRow(`
		SELECT id, title, created, updated, path, etag, preview
		FROM notes WHERE id = ?
	`, id).Scan(&n.ID, &n.Title, &n.Created, &n.Updated, &n.Path, &n.ETag, &n.Preview)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("index: get note: %w", err)
	}
	return &n, nil
}

// ListNotes returns paginated notes with an optional tag filter. sort is
// "title" or "updated" (default).
func (db *DB) ListNotes(limit, offset int, tag, sortBy string) ([]models.Note, int, error) {
	if limit <= 0 {
		limit = 50
	}
	where := ""
	args := []any{}
	if tag != "" {
		where = `WHERE EXISTS (SELECT 1 FROM tags t WHERE t.note_id = notes.id AND t.tag = ?)`
		args = append(args, tag)
	}

	var total int
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM notes `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("index: count notes: %w", err)
	}

	order := `ORDER BY updated DESC, id`
	if sortBy == "title" {
		order = `ORDER BY title COLLATE NOCASE, id`
	}
	rows, err := db.conn.Query(`
		SELECT id, title, created, updated, path, etag, preview
		FROM notes `+where+` `+order+` LIMIT ? OFFSET ?`,
		append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("index: list notes: %w", err)
	}
	defer rows.Close()

	notes, err := scanNotes(rows)
	if err != nil {
		return nil, 0, err
	}
	return notes, total, nil
}

// AllETags returns note id → etag for every indexed note.
func (db *DB) AllETags() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT id, etag FROM notes`)
	if err != nil {
		return nil, fmt.Errorf("index: all etags: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var id, etag string
		if err := rows.Scan(&id, &etag); err != nil {
			return nil, err
		}
		out[id] = etag
	}
	return out, rows.Err()
}

// Backlinks returns the notes holding a resolved edge into id, most
// recently updated first. Unresolved wikilink edges never appear here.
func (db *DB) Backlinks(id string) ([]models.Note, error) {
	rows, err := db.conn.Query(`
		SELECT DISTINCT n.id, n.title, n.created, n.updated, n.path, n.etag, n.preview
		FROM links l
		JOIN notes n ON n.id = l.from_id
		WHERE l.to_id = ?
		ORDER BY n.updated DESC, n.id
	`, id)
	if err != nil {
		return nil, fmt.Errorf("index: backlinks: %w", err)
	}
	defer rows.Close()
	return scanNotes(rows)
}

// TagsList returns tags with note counts, most used first.
func (db *DB) TagsList(limit int) ([]models.TagCount, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.conn.Query(`
		SELECT tag, COUNT(*) FROM tags
		GROUP BY tag
		ORDER BY COUNT(*) DESC, tag
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("index: tags list: %w", err)
	}
	defer rows.Close()

	var out []models.TagCount
	for rows.Next() {
		var tc models.TagCount
		if err := rows.Scan(&tc.Tag, &tc.Count); err != nil {
			return nil, err
		}
		out = append(out, tc)
	}
	return out, rows.Err()
}

// TagNotes returns the notes carrying tag, most recently updated first.
func (db *DB) TagNotes(tag string, limit int) ([]models.Note, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.conn.Query(`
		SELECT n.id, n.title, n.created, n.updated, n.path, n.etag, n.preview
		FROM tags t
		JOIN notes n ON n.id = t.note_id
		WHERE t.tag = ?
		ORDER BY n.updated DESC, n.id
		LIMIT ?
	`, tag, limit)
	if err != nil {
		return nil, fmt.Errorf("index: tag notes: %w", err)
	}
	defer rows.Close()
	return scanNotes(rows)
}

// NoteTags returns note id → tags for the given ids.
func (db *DB) NoteTags(ids []string) (map[string][]string, error) {
	out := make(map[string][]string, len(ids))
	for _, id := range ids {
		rows, err := db.conn.Query(`SELECT tag FROM tags WHERE note_id = ? ORDER BY tag`, id)
		if err != nil {
			return nil, fmt.Errorf("index: note tags: %w", err)
		}
		for rows.Next() {
			var tag string
			if err := rows.Scan(&tag); err != nil {
				rows.Close()
				return nil, err
			}
			out[id] = append(out[id], tag)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, err
		}
		rows.Close()
	}
	return out, nil
}

// NoteProperties returns the typed header fields of a note in header order.
func (db *DB) NoteProperties(id string) ([]models.Property, error) {
	rows, err := db.conn.Query(`
		SELECT note_id, key, value_type, value_text, value_json, ordinal
		FROM note_props WHERE note_id = ?
		ORDER BY ordinal
	`, id)
	if err != nil {
		return nil, fmt.Errorf("index: note props: %w", err)
	}
	defer rows.Close()

	var out []models.Property
	for rows.Next() {
		var p models.Property
		if err := rows.Scan(&p.NoteID, &p.Key, &p.ValueType, &p.ValueText, &p.ValueJSON, &p.Ordinal); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GraphNode is one vertex of the link graph.
type GraphNode struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// GraphEdge is one resolved directed edge of the link graph.
type GraphEdge struct {
	From string `json:"from"`
	To   string `json:"to"`
	Kind string `json:"kind"`
}

// Graph returns every note and every resolved link edge.
func (db *DB) Graph() ([]GraphNode, []GraphEdge, error) {
	rows, err := db.conn.Query(`SELECT id, title FROM notes ORDER BY id`)
	if err != nil {
		return nil, nil, fmt.Errorf("index: graph nodes: %w", err)
	}
	var nodes []GraphNode
	for rows.Next() {
		var n GraphNode
		if err := rows.Scan(&n.ID, &n.Title); err != nil {
			rows.Close()
			return nil, nil, err
		}
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, nil, err
	}
	rows.Close()

	rows, err = db.conn.Query(`
		SELECT from_id, to_id, kind FROM links
		WHERE to_id != ''
		ORDER BY from_id, to_id
	`)
	if err != nil {
		return nil, nil, fmt.Errorf("index: graph edges: %w", err)
	}
	defer rows.Close()
	var edges []GraphEdge
	for rows.Next() {
		var e GraphEdge
		if err := rows.Scan(&e.From, &e.To, &e.Kind); err != nil {
			return nil, nil, err
		}
		edges = append(edges, e)
	}
	return nodes, edges, rows.Err()
}

func scanNotes(rows *sql.Rows) ([]models.Note, error) {
	var out []models.Note
	for rows.Next() {
		var n models.Note
		if err := rows.Scan(&n.ID, &n.Title, &n.Created, &n.Updated, &n.Path, &n.ETag, &n.Preview); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func nonNilTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
