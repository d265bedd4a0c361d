package index

import (
	"github.com/sorenblk/quarry/internal/models"
	"github.com/sorenblk/quarry/internal/storage"
)

// NoteIndex defines the interface for note indexing operations.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with mocks.
type NoteIndex interface {
	IndexNote(id, text string) error
	RemoveNote(id string) error
	GetNote(id string) (*models.Note, error)
	ListNotes(limit, offset int, tag, sort string) ([]models.Note, int, error)
	AllETags() (map[string]string, error)
	NoteTags(ids []string) (map[string][]string, error)
	NoteProperties(id string) ([]models.Property, error)
	Search(query string, limit int) ([]models.SearchHit, error)
	SearchAdvanced(q SearchQuery) ([]models.SearchHit, error)
	Backlinks(id string) ([]models.Note, error)
	TagsList(limit int) ([]models.TagCount, error)
	TagNotes(tag string, limit int) ([]models.Note, error)
	Tasks(q TaskQuery) ([]models.Task, error)
	NoteTasks(noteID string) ([]models.Task, error)
	Graph() ([]GraphNode, []GraphEdge, error)
	Rebuild(store storage.Provider) (int, error)
	Close() error
}

// Verify *DB satisfies NoteIndex at compile time.
var _ NoteIndex = (*DB)(nil)
