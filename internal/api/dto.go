package api

import (
	"github.com/sorenblk/quarry/internal/models"
	"github.com/sorenblk/quarry/internal/noteservice"
)

// CreateNoteRequest is the request body for creating a note.
type CreateNoteRequest struct {
	Path    string `json:"path" example:"notes/hello.md" validate:"required"`
	Content string `json:"content" example:"# Hello\nWorld" validate:"required"`
}

// UpdateNoteRequest is the request body for updating a note.
type UpdateNoteRequest struct {
	Content string `json:"content" example:"# Updated\nContent" validate:"required"`
}

// MutateTaskRequest is the request body for toggling or rescheduling a task.
// Nil pointer fields leave the corresponding part of the line untouched;
// an empty Scheduled or Due string clears that date.
type MutateTaskRequest struct {
	Path      string  `json:"path" example:"notes/todo.md" validate:"required"`
	Line      int     `json:"line" example:"7" validate:"required"`
	Checked   *bool   `json:"checked,omitempty"`
	Scheduled *string `json:"scheduled,omitempty" example:"2025-03-01"`
	Due       *string `json:"due,omitempty" example:"2025-03-15"`
}

// NoteDetail is the full note response type (aliased from the domain layer).
type NoteDetail = noteservice.NoteDetail

// NoteListItem is a lightweight item in a list response (aliased from the domain layer).
type NoteListItem = noteservice.NoteListItem

// NoteListResponse wraps paginated note listings.
type NoteListResponse struct {
	Notes []NoteListItem `json:"notes" validate:"required"`
	Total int            `json:"total" example:"42" validate:"required"`
}

// SearchResponse wraps ranked search results.
type SearchResponse struct {
	Results []models.SearchHit `json:"results" validate:"required"`
}

// BacklinksResponse wraps the notes linking into a note.
type BacklinksResponse struct {
	Backlinks []models.Note `json:"backlinks" validate:"required"`
}

// TagsResponse wraps tag counts.
type TagsResponse struct {
	Tags []models.TagCount `json:"tags" validate:"required"`
}

// TagNotesResponse wraps the notes carrying one tag.
type TagNotesResponse struct {
	Notes []models.Note `json:"notes" validate:"required"`
}

// TasksResponse wraps one bucket of tasks.
type TasksResponse struct {
	Tasks []models.Task `json:"tasks" validate:"required"`
}

// GraphNode is a node in the knowledge graph.
type GraphNode struct {
	ID    string `json:"id" example:"notes/hello.md" validate:"required"`
	Title string `json:"title,omitempty" example:"Hello"`
}

// GraphLink is an edge in the knowledge graph.
type GraphLink struct {
	Source string `json:"source" example:"notes/hello.md" validate:"required"`
	Target string `json:"target" example:"notes/world.md" validate:"required"`
}

// GraphResponse wraps the knowledge graph.
type GraphResponse struct {
	Nodes []GraphNode `json:"nodes" validate:"required"`
	Links []GraphLink `json:"links" validate:"required"`
}

// RebuildResponse reports how many notes a full rebuild indexed.
type RebuildResponse struct {
	Indexed int `json:"indexed" example:"128" validate:"required"`
}
