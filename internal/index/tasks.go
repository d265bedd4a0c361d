package index

import (
	"encoding/json"
	"fmt"

	"github.com/sorenblk/quarry/internal/apperr"
	"github.com/sorenblk/quarry/internal/models"
	"github.com/sorenblk/quarry/internal/parser"
)

// Task buckets.
const (
	BucketInbox    = "inbox"
	BucketToday    = "today"
	BucketUpcoming = "upcoming"
)

const defaultTaskLimit = 100

// TaskQuery selects one bucket of unchecked tasks. Today must be a valid
// YYYY-MM-DD date for the today and upcoming buckets.
type TaskQuery struct {
	Bucket string
	Today  string
	Limit  int
}

// Tasks returns the requested bucket:
//
//   - inbox: no due or scheduled date, by note recency then title then line
//   - today: scheduled or due on or before today, by effective date then
//     priority then title then line
//   - upcoming: effective date strictly after today, same ordering
//
// An unknown bucket or an invalid today date is a request error.
func (db *DB) Tasks(q TaskQuery) ([]models.Task, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = defaultTaskLimit
	}

	const taskCols = `t.task_id, t.note_id, t.line_start, t.line_end, t.list_path,
		t.indent, t.raw_text, t.text_norm, t.checked, t.status, t.priority,
		t.due_date, t.scheduled_date, t.tags, t.section`

	// Priority zero means unset and sorts after any explicit priority.
	const priorityOrder = `CASE WHEN t.priority = 0 THEN 4 ELSE t.priority END`

	var sqlStr string
	var args []any
	switch q.Bucket {
	case BucketInbox:
		sqlStr = `SELECT ` + taskCols + ` FROM tasks t
			JOIN notes n ON n.id = t.note_id
			WHERE t.checked = 0 AND t.due_date = '' AND t.scheduled_date = ''
			ORDER BY n.updated DESC, n.title COLLATE NOCASE, t.line_start
			LIMIT ?`
		args = []any{limit}

	case BucketToday:
		if !parser.ValidDate(q.Today) {
			return nil, fmt.Errorf("index: tasks today %q: %w", q.Today, apperr.ErrInvalidArgument)
		}
		sqlStr = `SELECT ` + taskCols + ` FROM tasks t
			JOIN notes n ON n.id = t.note_id
			WHERE t.checked = 0 AND (
				(t.scheduled_date != '' AND t.scheduled_date <= ?) OR
				(t.due_date != '' AND t.due_date <= ?))
			ORDER BY COALESCE(NULLIF(t.scheduled_date, ''), NULLIF(t.due_date, '')),
				` + priorityOrder + `, n.title COLLATE NOCASE, t.line_start
			LIMIT ?`
		args = []any{q.Today, q.Today, limit}

	case BucketUpcoming:
		if !parser.ValidDate(q.Today) {
			return nil, fmt.Errorf("index: tasks today %q: %w", q.Today, apperr.ErrInvalidArgument)
		}
		sqlStr = `SELECT ` + taskCols + ` FROM tasks t
			JOIN notes n ON n.id = t.note_id
			WHERE t.checked = 0 AND
				COALESCE(NULLIF(t.scheduled_date, ''), NULLIF(t.due_date, '')) > ?
			ORDER BY COALESCE(NULLIF(t.scheduled_date, ''), NULLIF(t.due_date, '')),
				` + priorityOrder + `, n.title COLLATE NOCASE, t.line_start
			LIMIT ?`
		args = []any{q.Today, limit}

	default:
		return nil, fmt.Errorf("index: task bucket %q: %w", q.Bucket, apperr.ErrInvalidArgument)
	}

	rows, err := db.conn.Query(sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("index: tasks query: %w", err)
	}
	defer rows.Close()

	var out []models.Task
	for rows.Next() {
		var t models.Task
		var tagsJSON string
		err := rows.Scan(&t.TaskID, &t.NoteID, &t.LineStart, &t.LineEnd, &t.ListPath,
			&t.Indent, &t.RawText, &t.TextNorm, &t.Checked, &t.Status, &t.Priority,
			&t.DueDate, &t.ScheduledDate, &tagsJSON, &t.Section)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(tagsJSON), &t.Tags); err != nil {
			t.Tags = nil
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// NoteTasks returns every task of one note in document order.
func (db *DB) NoteTasks(noteID string) ([]models.Task, error) {
	rows, err := db.conn.Query(`
		SELECT task_id, note_id, line_start, line_end, list_path, indent,
			raw_text, text_norm, checked, status, priority,
			due_date, scheduled_date, tags, section
		FROM tasks WHERE note_id = ?
		ORDER BY line_start
	`, noteID)
	if err != nil {
		return nil, fmt.Errorf("index: note tasks: %w", err)
	}
	defer rows.Close()

	var out []models.Task
	for rows.Next() {
		var t models.Task
		var tagsJSON string
		err := rows.Scan(&t.TaskID, &t.NoteID, &t.LineStart, &t.LineEnd, &t.ListPath,
			&t.Indent, &t.RawText, &t.TextNorm, &t.Checked, &t.Status, &t.Priority,
			&t.DueDate, &t.ScheduledDate, &tagsJSON, &t.Section)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(tagsJSON), &t.Tags); err != nil {
			t.Tags = nil
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
