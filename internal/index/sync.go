package index

import (
	"log/slog"

	"github.com/sorenblk/quarry/internal/storage"
)

// Sync walks the vault and brings the index up to date:
//   - new/changed files (etag mismatch) are parsed and re-indexed
//   - files removed from disk are deleted from the index
func Sync(db *DB, store storage.Provider) error {
	metas, err := store.List("")
	if err != nil {
		return err
	}

	etags, err := db.AllETags()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.Path] = struct{}{}

		if etags[m.Path] == m.ETag {
			continue
		}

		data, err := store.Read(m.Path)
		if err != nil {
			db.logger.Warn("sync: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		if err := db.IndexNote(m.Path, string(data)); err != nil {
			db.logger.Warn("sync: index failed", slog.String("path", m.Path), slog.String("error", err.Error()))
		} else {
			db.logger.Debug("sync: indexed", slog.String("path", m.Path))
		}
	}

	// Remove stale entries.
	for p := range etags {
		if _, ok := disk[p]; !ok {
			if err := db.RemoveNote(p); err != nil {
				db.logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			} else {
				db.logger.Debug("sync: removed stale", slog.String("path", p))
			}
		}
	}

	return nil
}
