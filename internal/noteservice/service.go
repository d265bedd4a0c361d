// Package noteservice coordinates vault storage and the index: note CRUD
// with optimistic concurrency, search, tag and task queries, and safe
// in-place task mutation.
package noteservice

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/sorenblk/quarry/internal/apperr"
	"github.com/sorenblk/quarry/internal/checksum"
	"github.com/sorenblk/quarry/internal/index"
	"github.com/sorenblk/quarry/internal/models"
	"github.com/sorenblk/quarry/internal/parser"
	"github.com/sorenblk/quarry/internal/storage"
)

// NoteDetail is the full representation of a note.
type NoteDetail struct {
	Path       string            `json:"path"`
	Title      string            `json:"title"`
	Content    string            `json:"content"`
	ETag       string            `json:"etag"`
	Tags       []string          `json:"tags"`
	Properties []models.Property `json:"properties,omitempty"`
	Tasks      []models.Task     `json:"tasks,omitempty"`
	Backlinks  []models.Note     `json:"backlinks"`
}

// NoteListItem is a lightweight item in a list response.
type NoteListItem struct {
	Path    string   `json:"path"`
	Title   string   `json:"title"`
	ETag    string   `json:"etag"`
	Tags    []string `json:"tags"`
	Updated string   `json:"updated"`
}

// Service coordinates storage and index operations.
type Service struct {
	store storage.Provider
	db    *index.DB
}

// NewService creates a new note service.
func NewService(store storage.Provider, db *index.DB) *Service {
	return &Service{store: store, db: db}
}

// GetNote reads a note from storage, parses it, and enriches with backlinks.
func (s *Service) GetNote(_ context.Context, path string) (*NoteDetail, error) {
	data, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return s.buildNoteDetail(path, data)
}

// CreateNote writes a new note and indexes it.
func (s *Service) CreateNote(_ context.Context, path string, content []byte) (*NoteDetail, error) {
	if _, err := s.store.Read(path); err == nil {
		return nil, apperr.ErrAlreadyExists
	}
	if err := s.store.Write(path, content); err != nil {
		return nil, err
	}
	if err := s.db.IndexNote(path, string(content)); err != nil {
		return nil, err
	}
	return s.buildNoteDetail(path, content)
}

// UpdateNote writes updated content with optimistic concurrency.
func (s *Service) UpdateNote(_ context.Context, path string, content []byte, ifMatch string) (*NoteDetail, error) {
	existing, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	if ifMatch != "" && ifMatch != checksum.Sum(existing) {
		return nil, apperr.ErrConflict
	}
	if err := s.store.Write(path, content); err != nil {
		return nil, err
	}
	if err := s.db.IndexNote(path, string(content)); err != nil {
		return nil, err
	}
	return s.buildNoteDetail(path, content)
}

// DeleteNote removes a note from storage and index.
func (s *Service) DeleteNote(_ context.Context, path string) error {
	if err := s.store.Delete(path); err != nil {
		return err
	}
	return s.db.RemoveNote(path)
}

// ListNotes returns paginated notes with optional tag filter.
func (s *Service) ListNotes(_ context.Context, limit, offset int, tag, sort string) ([]NoteListItem, int, error) {
	notes, total, err := s.db.ListNotes(limit, offset, tag, sort)
	if err != nil {
		return nil, 0, err
	}
	ids := make([]string, len(notes))
	for i, n := range notes {
		ids[i] = n.ID
	}
	tags, err := s.db.NoteTags(ids)
	if err != nil {
		return nil, 0, err
	}
	items := make([]NoteListItem, len(notes))
	for i, n := range notes {
		items[i] = NoteListItem{
			Path:    n.Path,
			Title:   n.Title,
			ETag:    n.ETag,
			Tags:    nonNilSlice(tags[n.ID]),
			Updated: n.Updated,
		}
	}
	return items, total, nil
}

// Search runs a plain hybrid search.
func (s *Service) Search(_ context.Context, query string, limit int) ([]models.SearchHit, error) {
	return s.db.Search(query, limit)
}

// SearchAdvanced runs a hybrid search with tag filters and mode flags.
func (s *Service) SearchAdvanced(_ context.Context, q index.SearchQuery) ([]models.SearchHit, error) {
	return s.db.SearchAdvanced(q)
}

// Backlinks returns the notes linking into path.
func (s *Service) Backlinks(_ context.Context, path string) ([]models.Note, error) {
	return s.db.Backlinks(path)
}

// Tags returns tag counts, most used first.
func (s *Service) Tags(_ context.Context, limit int) ([]models.TagCount, error) {
	return s.db.TagsList(limit)
}

// TagNotes returns the notes carrying tag.
func (s *Service) TagNotes(_ context.Context, tag string, limit int) ([]models.Note, error) {
	return s.db.TagNotes(tag, limit)
}

// Tasks returns one bucket of unchecked tasks.
func (s *Service) Tasks(_ context.Context, q index.TaskQuery) ([]models.Task, error) {
	return s.db.Tasks(q)
}

// Graph returns all nodes and resolved edges for graph visualization.
func (s *Service) Graph(_ context.Context) ([]index.GraphNode, []index.GraphEdge, error) {
	return s.db.Graph()
}

// Rebuild drops and repopulates the whole index from the vault.
func (s *Service) Rebuild(_ context.Context) (int, error) {
	return s.db.Rebuild(s.store)
}

// MutateTask rewrites one task line of a note, persists the document
// atomically, and re-indexes it. line is 1-indexed into the full document.
func (s *Service) MutateTask(_ context.Context, path string, line int, patch parser.TaskPatch) (*NoteDetail, error) {
	data, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	updated, err := parser.MutateTaskLine(string(data), line, patch)
	if err != nil {
		if errors.Is(err, parser.ErrNotTask) {
			return nil, fmt.Errorf("noteservice: %s line %d: %w", path, line, apperr.ErrNotATask)
		}
		return nil, err
	}
	if err := s.store.Write(path, []byte(updated)); err != nil {
		return nil, err
	}
	if err := s.db.IndexNote(path, updated); err != nil {
		return nil, err
	}
	return s.buildNoteDetail(path, []byte(updated))
}

// buildNoteDetail constructs a NoteDetail from raw data without re-reading the file.
func (s *Service) buildNoteDetail(path string, data []byte) (*NoteDetail, error) {
	doc := parser.ParseDocument(path, string(data))
	bl, err := s.db.Backlinks(path)
	if err != nil {
		return nil, err
	}
	return &NoteDetail{
		Path:       path,
		Title:      doc.Title,
		Content:    string(data),
		ETag:       checksum.Sum(data),
		Tags:       nonNilSlice(doc.Tags),
		Properties: doc.Properties,
		Tasks:      doc.Tasks,
		Backlinks:  nonNilSlice(bl),
	}, nil
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
