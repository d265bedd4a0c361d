package index

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sorenblk/quarry/internal/storage"
)

func rebuildVault(t *testing.T) (storage.Provider, *DB) {
	t.Helper()
	vaultDir := t.TempDir()

	files := map[string]string{
		// a.md references a title that only exists later in walk order;
		// resolution must wait for the full first pass.
		"a.md":           "---\ntitle: A\ntags: [alpha]\n---\nSee [[Zeta]] and [[sub/b.md]].\n- [ ] tracked task\n",
		"sub/b.md":       "---\ntitle: B\n---\nplain body\n",
		"z.md":           "---\ntitle: Zeta\n---\nlast in walk order\n",
		".hidden/x.md":   "should never be indexed\n",
		"notes/note.txt": "not a markdown file\n",
	}
	for rel, content := range files {
		full := filepath.Join(vaultDir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	store, err := storage.NewFS(vaultDir, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	return store, testDB(t)
}

func TestRebuild_TwoPassLinkResolution(t *testing.T) {
	store, db := rebuildVault(t)

	count, err := db.Rebuild(store)
	if err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	if count != 3 {
		t.Errorf("count = %d, want 3 (dot dirs and non-md skipped)", count)
	}

	// The bare-title link resolves even though z.md comes after a.md in
	// walk order.
	bl, err := db.Backlinks("z.md")
	if err != nil {
		t.Fatal(err)
	}
	if len(bl) != 1 || bl[0].ID != "a.md" {
		t.Errorf("Backlinks(z) = %+v, want [a.md]", bl)
	}

	bl, err = db.Backlinks("sub/b.md")
	if err != nil {
		t.Fatal(err)
	}
	if len(bl) != 1 || bl[0].ID != "a.md" {
		t.Errorf("Backlinks(sub/b) = %+v, want [a.md]", bl)
	}

	if _, err := db.GetNote(".hidden/x.md"); err == nil {
		t.Error("dot-dir file was indexed")
	}
}

func TestRebuild_ReplacesStaleState(t *testing.T) {
	store, db := rebuildVault(t)

	// Pre-populate with a note that no longer exists on disk.
	mustIndex(t, db, "ghost.md", "---\ntitle: Ghost\ntags: [spooky]\n---\n- [ ] haunt\n")

	if _, err := db.Rebuild(store); err != nil {
		t.Fatal(err)
	}

	if _, err := db.GetNote("ghost.md"); err == nil {
		t.Error("stale note survived rebuild")
	}
	for _, q := range []string{
		`SELECT count(*) FROM tasks WHERE note_id = 'ghost.md'`,
		`SELECT count(*) FROM tags WHERE note_id = 'ghost.md'`,
	} {
		var count int
		if err := db.conn.QueryRow(q).Scan(&count); err != nil {
			t.Fatal(err)
		}
		if count != 0 {
			t.Errorf("stale rows remain: %s", q)
		}
	}
}

func TestRebuild_MatchesPerNoteIndexing(t *testing.T) {
	store, db := rebuildVault(t)

	if _, err := db.Rebuild(store); err != nil {
		t.Fatal(err)
	}

	// Re-running every note individually (links resolve against the now
	// complete corpus) must not change any derived rows.
	type counts struct{ notes, links, tags, tasks int }
	snapshot := func() counts {
		var c counts
		_ = db.conn.QueryRow(`SELECT count(*) FROM notes`).Scan(&c.notes)
		_ = db.conn.QueryRow(`SELECT count(*) FROM links`).Scan(&c.links)
		_ = db.conn.QueryRow(`SELECT count(*) FROM tags`).Scan(&c.tags)
		_ = db.conn.QueryRow(`SELECT count(*) FROM tasks`).Scan(&c.tasks)
		return c
	}
	before := snapshot()

	metas, err := store.List("")
	if err != nil {
		t.Fatal(err)
	}
	for _, m := range metas {
		data, err := store.Read(m.Path)
		if err != nil {
			t.Fatal(err)
		}
		mustIndex(t, db, m.Path, string(data))
	}

	if after := snapshot(); after != before {
		t.Errorf("rows diverged: before %+v, after %+v", before, after)
	}
}

func TestRebuild_SurvivesUnreadableFile(t *testing.T) {
	vaultDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(vaultDir, "good.md"), []byte("# Good\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	// A dangling symlink reads as ENOENT and must not abort the walk.
	if err := os.Symlink(filepath.Join(vaultDir, "missing.md"), filepath.Join(vaultDir, "bad.md")); err != nil {
		t.Fatal(err)
	}
	store, err := storage.NewFS(vaultDir, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	db := testDB(t)

	count, err := db.Rebuild(store)
	if err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
	if _, err := db.GetNote("good.md"); err != nil {
		t.Errorf("GetNote(good.md): %v", err)
	}
}
