// Package models defines the domain types for Quarry.
package models

import "time"

// Note represents one indexed vault document. ID is the document's relative
// path inside the vault and doubles as the primary key everywhere.
type Note struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Created string `json:"created"`
	Updated string `json:"updated"`
	Path    string `json:"path"`
	ETag    string `json:"etag"`
	Preview string `json:"preview"`
}

// NoteMetadata is a lightweight representation returned by list operations.
type NoteMetadata struct {
	Path      string    `json:"path"`
	ETag      string    `json:"etag"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Link kinds. A resolved edge carries ToID and an empty ToTitle; an
// unresolved bare-title edge carries ToTitle and an empty ToID.
const (
	LinkKindFile     = "file"     // resolved via an explicit relative path
	LinkKindNote     = "note"     // resolved via a unique title match
	LinkKindWikilink = "wikilink" // unresolved bare-title reference
)

// Link is a directed edge between notes.
type Link struct {
	FromID  string `json:"from_id"`
	ToID    string `json:"to_id,omitempty"`
	ToTitle string `json:"to_title,omitempty"`
	Kind    string `json:"kind"`
}

// Task status values. InProgress and Cancelled are reserved; the parser
// currently only emits Todo and Done.
const (
	TaskStatusTodo       = "todo"
	TaskStatusDone       = "done"
	TaskStatusInProgress = "in_progress"
	TaskStatusCancelled  = "cancelled"
)

// Task priorities extracted from marker tokens. Zero means unset.
const (
	PriorityNone   = 0
	PriorityHigh   = 1
	PriorityMedium = 2
	PriorityLow    = 3
)

// Task is one checkbox list item found in a note body.
type Task struct {
	TaskID        string   `json:"task_id"`
	NoteID        string   `json:"note_id"`
	LineStart     int      `json:"line_start"`
	LineEnd       int      `json:"line_end"`
	ListPath      string   `json:"list_path"`
	Indent        int      `json:"indent"`
	RawText       string   `json:"raw_text"`
	TextNorm      string   `json:"text_norm"`
	Checked       bool     `json:"checked"`
	Status        string   `json:"status"`
	Priority      int      `json:"priority"`
	DueDate       string   `json:"due_date,omitempty"`
	ScheduledDate string   `json:"scheduled_date,omitempty"`
	Tags          []string `json:"tags,omitempty"`
	Section       string   `json:"section,omitempty"`
}

// Property value types stored in note_props.value_type.
const (
	PropCheckbox = "checkbox"
	PropNumber   = "number"
	PropText     = "text"
	PropURL      = "url"
	PropDate     = "date"
	PropDatetime = "datetime"
	PropList     = "list"
	PropTags     = "tags"
	PropYAML     = "yaml"
)

// Property is one front-matter field flattened into a typed cell.
type Property struct {
	NoteID    string `json:"note_id"`
	Key       string `json:"key"`
	ValueType string `json:"value_type"`
	ValueText string `json:"value_text"`
	ValueJSON string `json:"value_json"`
	Ordinal   int    `json:"ordinal"`
}

// SearchHit is one ranked search result.
type SearchHit struct {
	ID      string  `json:"id"`
	Title   string  `json:"title"`
	Preview string  `json:"preview"`
	Score   float64 `json:"score"`
}

// TagCount pairs a tag with the number of notes carrying it.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}
