package index

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/sorenblk/quarry/internal/storage"
)

// watcherTestEnv sets up a vault dir, storage, and DB for watcher tests.
func watcherTestEnv(t *testing.T) (string, storage.Provider, *DB) {
	t.Helper()
	vaultDir := t.TempDir()
	store, err := storage.NewFS(vaultDir, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	return vaultDir, store, testDB(t)
}

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func indexed(db *DB, id string) bool {
	_, err := db.GetNote(id)
	return err == nil
}

func TestWatcher_NewFileIndexed(t *testing.T) {
	vaultDir, store, db := watcherTestEnv(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var events []string

	go Watch(ctx, db, store, vaultDir, 0, func(kind, path string) {
		mu.Lock()
		events = append(events, kind+":"+path)
		mu.Unlock()
	})

	time.Sleep(100 * time.Millisecond)

	_ = os.WriteFile(filepath.Join(vaultDir, "new.md"), []byte("# New"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return indexed(db, "new.md")
	}, "new file not indexed by watcher")

	eventually(t, 2*time.Second, 50*time.Millisecond, func() bool {
		mu.Lock()
		defer mu.Unlock()
		for _, e := range events {
			if e == "created:new.md" {
				return true
			}
		}
		return false
	}, "expected created:new.md callback")
}

func TestWatcher_DebounceCoalescesRewrites(t *testing.T) {
	vaultDir, store, db := watcherTestEnv(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	applied := 0

	go Watch(ctx, db, store, vaultDir, 150*time.Millisecond, func(kind, path string) {
		if path == "burst.md" {
			mu.Lock()
			applied++
			mu.Unlock()
		}
	})

	time.Sleep(100 * time.Millisecond)

	// Rapid rewrites inside one window must collapse into a single
	// re-index of the last content.
	target := filepath.Join(vaultDir, "burst.md")
	for i := 0; i < 5; i++ {
		_ = os.WriteFile(target, []byte("---\ntitle: Rev\n---\nrevision\n"), 0o644)
		time.Sleep(10 * time.Millisecond)
	}
	_ = os.WriteFile(target, []byte("---\ntitle: Final\n---\nfinal content\n"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		n, err := db.GetNote("burst.md")
		return err == nil && n.Title == "Final"
	}, "last write not indexed")

	mu.Lock()
	got := applied
	mu.Unlock()
	if got == 0 || got >= 6 {
		t.Errorf("applied %d times, want coalesced (1..5)", got)
	}
}

func TestWatcher_NewDirWatched(t *testing.T) {
	vaultDir, store, db := watcherTestEnv(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go Watch(ctx, db, store, vaultDir, 0, nil)

	time.Sleep(100 * time.Millisecond)

	subDir := filepath.Join(vaultDir, "subdir")
	_ = os.MkdirAll(subDir, 0o755)

	time.Sleep(200 * time.Millisecond)

	_ = os.WriteFile(filepath.Join(subDir, "deep.md"), []byte("# Deep"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return indexed(db, "subdir/deep.md")
	}, "file in new subdir not indexed by watcher")
}

func TestWatcher_DeleteRemovesFromIndex(t *testing.T) {
	vaultDir, store, db := watcherTestEnv(t)

	_ = os.WriteFile(filepath.Join(vaultDir, "del.md"), []byte("# Delete Me"), 0o644)
	if err := Sync(db, store); err != nil {
		t.Fatal(err)
	}
	if !indexed(db, "del.md") {
		t.Fatal("precondition: file should be indexed")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go Watch(ctx, db, store, vaultDir, 0, nil)
	time.Sleep(100 * time.Millisecond)

	_ = os.Remove(filepath.Join(vaultDir, "del.md"))

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return !indexed(db, "del.md")
	}, "deleted file still in index")
}

func TestWatcher_RenameReconciles(t *testing.T) {
	vaultDir, store, db := watcherTestEnv(t)

	_ = os.WriteFile(filepath.Join(vaultDir, "old.md"), []byte("# Rename"), 0o644)
	if err := Sync(db, store); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go Watch(ctx, db, store, vaultDir, 0, nil)
	time.Sleep(100 * time.Millisecond)

	_ = os.Rename(filepath.Join(vaultDir, "old.md"), filepath.Join(vaultDir, "renamed.md"))

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return !indexed(db, "old.md") && indexed(db, "renamed.md")
	}, "rename reconciliation failed: old path should be removed and new path indexed")
}

func TestSync_StaleEntriesRemoved(t *testing.T) {
	vaultDir, store, db := watcherTestEnv(t)

	_ = os.WriteFile(filepath.Join(vaultDir, "keep.md"), []byte("# Keep"), 0o644)
	_ = os.WriteFile(filepath.Join(vaultDir, "drop.md"), []byte("# Drop"), 0o644)
	if err := Sync(db, store); err != nil {
		t.Fatal(err)
	}
	if !indexed(db, "keep.md") || !indexed(db, "drop.md") {
		t.Fatal("precondition: both files indexed")
	}

	_ = os.Remove(filepath.Join(vaultDir, "drop.md"))
	if err := Sync(db, store); err != nil {
		t.Fatal(err)
	}
	if indexed(db, "drop.md") {
		t.Error("stale entry survived sync")
	}
	if !indexed(db, "keep.md") {
		t.Error("live entry removed by sync")
	}
}
