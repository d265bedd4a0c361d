package noteservice

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sorenblk/quarry/internal/apperr"
	"github.com/sorenblk/quarry/internal/index"
	"github.com/sorenblk/quarry/internal/parser"
	"github.com/sorenblk/quarry/internal/testutil"
)

func testService(t *testing.T) *Service {
	t.Helper()
	_, store := testutil.TestVault(t)
	db := testutil.TestDB(t)
	return NewService(store, db)
}

func TestCreateGetDelete(t *testing.T) {
	s := testService(t)
	ctx := context.Background()

	content := []byte("---\ntitle: First\ntags: [demo]\n---\nhello world\n")
	created, err := s.CreateNote(ctx, "first.md", content)
	if err != nil {
		t.Fatalf("CreateNote: %v", err)
	}
	if created.Title != "First" || len(created.Tags) != 1 {
		t.Errorf("created = %+v", created)
	}

	if _, err := s.CreateNote(ctx, "first.md", content); !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Errorf("duplicate create: %v, want ErrAlreadyExists", err)
	}

	got, err := s.GetNote(ctx, "first.md")
	if err != nil {
		t.Fatalf("GetNote: %v", err)
	}
	if got.Content != string(content) || got.ETag != created.ETag {
		t.Errorf("got = %+v", got)
	}

	if err := s.DeleteNote(ctx, "first.md"); err != nil {
		t.Fatalf("DeleteNote: %v", err)
	}
	if _, err := s.GetNote(ctx, "first.md"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("after delete: %v, want ErrNotFound", err)
	}
}

func TestUpdateNote_OptimisticConcurrency(t *testing.T) {
	s := testService(t)
	ctx := context.Background()

	created, err := s.CreateNote(ctx, "doc.md", []byte("v1\n"))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := s.UpdateNote(ctx, "doc.md", []byte("v2\n"), "stale-etag"); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("stale etag: %v, want ErrConflict", err)
	}

	updated, err := s.UpdateNote(ctx, "doc.md", []byte("v2\n"), created.ETag)
	if err != nil {
		t.Fatalf("UpdateNote: %v", err)
	}
	if updated.Content != "v2\n" {
		t.Errorf("content = %q", updated.Content)
	}
}

func TestSearchAndTags(t *testing.T) {
	s := testService(t)
	ctx := context.Background()

	_, _ = s.CreateNote(ctx, "a.md", []byte("---\ntags: [work]\n---\nquarterly planning\n"))
	_, _ = s.CreateNote(ctx, "b.md", []byte("---\ntags: [work, home]\n---\nother text\n"))

	hits, err := s.Search(ctx, "quarterly", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].ID != "a.md" {
		t.Errorf("hits = %+v", hits)
	}

	tags, err := s.Tags(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(tags) != 2 || tags[0].Tag != "work" {
		t.Errorf("tags = %+v", tags)
	}

	notes, err := s.TagNotes(ctx, "home", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(notes) != 1 || notes[0].ID != "b.md" {
		t.Errorf("TagNotes = %+v", notes)
	}
}

func TestMutateTask(t *testing.T) {
	s := testService(t)
	ctx := context.Background()

	_, err := s.CreateNote(ctx, "todo.md", []byte("# Chores\n\n- [ ] buy milk\n"))
	if err != nil {
		t.Fatal(err)
	}

	due := "2025-03-01"
	detail, err := s.MutateTask(ctx, "todo.md", 3, parser.TaskPatch{Due: &due})
	if err != nil {
		t.Fatalf("MutateTask: %v", err)
	}
	if !strings.Contains(detail.Content, "- [ ] buy milk 📅 2025-03-01") {
		t.Errorf("content = %q", detail.Content)
	}

	// The mutation must be persisted and re-indexed.
	got, err := s.GetNote(ctx, "todo.md")
	if err != nil {
		t.Fatal(err)
	}
	if got.Content != detail.Content {
		t.Error("mutation not persisted")
	}
	tasks, err := s.Tasks(ctx, index.TaskQuery{Bucket: index.BucketToday, Today: "2025-03-15"})
	if err != nil {
		t.Fatal(err)
	}
	if len(tasks) != 1 || tasks[0].DueDate != due {
		t.Errorf("tasks = %+v", tasks)
	}

	// Pointing the mutation at a non-task line is an error, not a rewrite.
	if _, err := s.MutateTask(ctx, "todo.md", 1, parser.TaskPatch{Due: &due}); !errors.Is(err, apperr.ErrNotATask) {
		t.Errorf("non-task line: %v, want ErrNotATask", err)
	}
}

func TestRebuild(t *testing.T) {
	s := testService(t)
	ctx := context.Background()

	_, _ = s.CreateNote(ctx, "one.md", []byte("first\n"))
	_, _ = s.CreateNote(ctx, "two.md", []byte("second\n"))

	count, err := s.Rebuild(ctx)
	if err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
}
