package index

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sorenblk/quarry/internal/storage"
)

// EventCallback is called after a watcher-driven index change.
// kind is one of "created", "updated", "deleted".
type EventCallback func(kind string, path string)

// DefaultDebounce is how long the watcher coalesces change events per path
// before re-indexing. Editor autosave storms collapse into one re-index.
const DefaultDebounce = 100 * time.Millisecond

// changeEvent is a normalized file-system change: a vault-relative path and
// whether it was a removal.
type changeEvent struct {
	rel    string
	remove bool
}

// Watch starts an fsnotify watcher on the vault root and processes file
// change events until ctx is cancelled. Events are pushed through a bounded
// channel into a per-path debounce loop: rapid rewrites of one file collapse
// into a single re-index, and a write and a delete for the same path within
// one window collapse to whichever arrived last. cb (if non-nil) fires after
// each applied index mutation.
//
// New directories created at runtime are added to the watch list. Rename
// events fire on the old path only, so a short reconciliation pass removes
// stale entries and picks up the new path.
func Watch(ctx context.Context, db *DB, store storage.Provider, vaultRoot string, debounce time.Duration, cb EventCallback) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, vaultRoot); err != nil {
		return err
	}

	db.logger.Info("watcher: started", slog.String("root", vaultRoot))

	changes := make(chan changeEvent, 256)
	done := make(chan struct{})
	go func() {
		defer close(done)
		debounceLoop(db, store, changes, debounce, cb)
	}()
	defer func() {
		close(changes)
		<-done
	}()

	// Rename reconciliation gets its own, slightly longer debounce.
	var reconcileTimer *time.Timer
	var reconcileCh <-chan time.Time
	scheduleReconcile := func() {
		if reconcileTimer == nil {
			reconcileTimer = time.NewTimer(2 * debounce)
			reconcileCh = reconcileTimer.C
		} else {
			reconcileTimer.Reset(2 * debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reconcileTimer != nil {
				reconcileTimer.Stop()
			}
			db.logger.Info("watcher: stopped")
			return nil

		case <-reconcileCh:
			reconcile(db, store, cb)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			absPath := ev.Name

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(absPath); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, absPath); addErr != nil {
						db.logger.Warn("watcher: add new dir failed",
							slog.String("path", absPath),
							slog.String("error", addErr.Error()))
					} else {
						db.logger.Debug("watcher: watching new dir", slog.String("path", absPath))
					}
					enqueueDirNotes(vaultRoot, absPath, changes)
					continue
				}
			}

			if !strings.HasSuffix(absPath, ".md") {
				continue
			}
			rel, relErr := filepath.Rel(vaultRoot, absPath)
			if relErr != nil {
				continue
			}
			rel = filepath.ToSlash(rel)

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				changes <- changeEvent{rel: rel}

			case ev.Op&fsnotify.Remove != 0:
				changes <- changeEvent{rel: rel, remove: true}

			case ev.Op&fsnotify.Rename != 0:
				// Rename fires on the old path only; the new path arrives
				// as a separate Create if it stays inside the vault.
				changes <- changeEvent{rel: rel, remove: true}
				scheduleReconcile()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			db.logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// debounceLoop coalesces change events per path: each event (re)arms that
// path's deadline, and only the last event observed within the window is
// applied. One timer tracks the earliest pending deadline.
// It exits when the changes channel closes, flushing whatever is pending so
// no observed write is lost on shutdown.
func debounceLoop(db *DB, store storage.Provider, changes <-chan changeEvent, debounce time.Duration, cb EventCallback) {
	type pendingChange struct {
		ev     changeEvent
		fireAt time.Time
	}
	pending := make(map[string]pendingChange)

	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	armed := false

	rearm := func() {
		if armed {
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			armed = false
		}
		var earliest time.Time
		for _, p := range pending {
			if earliest.IsZero() || p.fireAt.Before(earliest) {
				earliest = p.fireAt
			}
		}
		if !earliest.IsZero() {
			timer.Reset(time.Until(earliest))
			armed = true
		}
	}

	for {
		select {
		case ev, ok := <-changes:
			if !ok {
				for _, p := range pending {
					applyChange(db, store, p.ev, cb)
				}
				return
			}
			pending[ev.rel] = pendingChange{ev: ev, fireAt: time.Now().Add(debounce)}
			rearm()

		case now := <-timer.C:
			armed = false
			for rel, p := range pending {
				if p.fireAt.After(now) {
					continue
				}
				delete(pending, rel)
				applyChange(db, store, p.ev, cb)
			}
			rearm()
		}
	}
}

// applyChange performs one debounced index mutation.
func applyChange(db *DB, store storage.Provider, ev changeEvent, cb EventCallback) {
	if ev.remove {
		if err := db.RemoveNote(ev.rel); err != nil {
			db.logger.Warn("watcher: delete failed", slog.String("path", ev.rel), slog.String("error", err.Error()))
			return
		}
		db.logger.Debug("watcher: deleted", slog.String("path", ev.rel))
		if cb != nil {
			cb("deleted", ev.rel)
		}
		return
	}

	data, err := store.Read(ev.rel)
	if err != nil {
		// The file can be gone again by the time the window fires.
		if os.IsNotExist(err) {
			if delErr := db.RemoveNote(ev.rel); delErr == nil && cb != nil {
				cb("deleted", ev.rel)
			}
			return
		}
		db.logger.Warn("watcher: read failed", slog.String("path", ev.rel), slog.String("error", err.Error()))
		return
	}

	_, existed := indexedETag(db, ev.rel)
	if err := db.IndexNote(ev.rel, string(data)); err != nil {
		db.logger.Warn("watcher: index failed", slog.String("path", ev.rel), slog.String("error", err.Error()))
		return
	}
	kind := "updated"
	if !existed {
		kind = "created"
	}
	db.logger.Debug("watcher: indexed", slog.String("path", ev.rel), slog.String("op", kind))
	if cb != nil {
		cb(kind, ev.rel)
	}
}

func indexedETag(db *DB, id string) (string, bool) {
	n, err := db.GetNote(id)
	if err != nil {
		return "", false
	}
	return n.ETag, true
}

// reconcile does a lightweight sync using batch lookups: index entries with
// no file on disk are removed, and on-disk files that are missing or stale
// in the index are re-indexed.
func reconcile(db *DB, store storage.Provider, cb EventCallback) {
	etags, err := db.AllETags()
	if err != nil {
		db.logger.Warn("reconcile: all etags failed", slog.String("error", err.Error()))
		return
	}

	metas, err := store.List("")
	if err != nil {
		db.logger.Warn("reconcile: list failed", slog.String("error", err.Error()))
		return
	}

	disk := make(map[string]string, len(metas))
	for _, m := range metas {
		disk[m.Path] = m.ETag
	}

	for p := range etags {
		if _, ok := disk[p]; !ok {
			if delErr := db.RemoveNote(p); delErr == nil {
				db.logger.Debug("reconcile: removed stale", slog.String("path", p))
				if cb != nil {
					cb("deleted", p)
				}
			}
		}
	}

	for p, etag := range disk {
		if etags[p] == etag {
			continue
		}
		data, readErr := store.Read(p)
		if readErr != nil {
			continue
		}
		if idxErr := db.IndexNote(p, string(data)); idxErr == nil {
			db.logger.Debug("reconcile: indexed", slog.String("path", p))
			if cb != nil {
				cb("created", p)
			}
		}
	}
}

// enqueueDirNotes queues create events for any .md files already present in
// a newly created directory.
func enqueueDirNotes(vaultRoot, dirPath string, changes chan<- changeEvent) {
	_ = filepath.WalkDir(dirPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, ".md") {
			return nil
		}
		rel, relErr := filepath.Rel(vaultRoot, path)
		if relErr != nil {
			return nil
		}
		changes <- changeEvent{rel: filepath.ToSlash(rel)}
		return nil
	})
}

// addDirsRecursive adds root and all its subdirectories to the watcher,
// skipping dot-prefixed directories.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}
