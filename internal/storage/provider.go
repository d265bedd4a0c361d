// Package storage defines the vault file-system abstraction.
package storage

import "github.com/sorenblk/quarry/internal/models"

// Provider is the interface for vault file operations. All paths are
// relative to the vault root; implementations must reject escapes.
type Provider interface {
	// List returns metadata for every .md file under dir (relative to the
	// vault root), in deterministic case-insensitive path order. Path
	// components starting with '.' are skipped.
	List(dir string) ([]models.NoteMetadata, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path (temp file, fsync, rename).
	Write(path string, content []byte) error
	// Delete removes the file at path.
	Delete(path string) error
	// Move renames oldPath to newPath.
	Move(oldPath, newPath string) error
}
