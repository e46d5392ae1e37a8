package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/maruel/wcstore/internal/models"
)

// FileStore owns the on-disk layout of the data directory:
//
//	<root>/<collection>.json         live collection containers
//	<root>/drafts/<collection>.json  draft containers
//	<root>/announcement.json         site announcement
//	<root>/images/                   blobs
//	<root>/book/*.txt                book excerpt sources
type FileStore struct {
	rootDir string
}

// NewFileStore initializes a FileStore rooted at rootDir, creating the
// directories it needs.
func NewFileStore(rootDir string) (*FileStore, error) {
	abs, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root directory: %w", err)
	}
	fs := &FileStore{rootDir: abs}
	for _, dir := range []string{abs, fs.DraftsDir(), fs.ImagesDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil { //nolint:gosec // G301: data directories are world readable
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return fs, nil
}

// RootDir returns the data directory.
func (fs *FileStore) RootDir() string {
	return fs.rootDir
}

// CollectionPath returns the live container of c.
func (fs *FileStore) CollectionPath(c models.Collection) string {
	return filepath.Join(fs.rootDir, string(c)+".json")
}

// DraftsDir returns the directory holding draft containers.
func (fs *FileStore) DraftsDir() string {
	return filepath.Join(fs.rootDir, "drafts")
}

// DraftPath returns the draft container of c.
func (fs *FileStore) DraftPath(c models.Collection) string {
	return filepath.Join(fs.DraftsDir(), string(c)+".json")
}

// AnnouncementPath returns the announcement file.
func (fs *FileStore) AnnouncementPath() string {
	return filepath.Join(fs.rootDir, "announcement.json")
}

// ImagesDir returns the blob root.
func (fs *FileStore) ImagesDir() string {
	return filepath.Join(fs.rootDir, "images")
}

// BookDir returns the directory of book excerpt sources.
func (fs *FileStore) BookDir() string {
	return filepath.Join(fs.rootDir, "book")
}

// Rel returns path relative to the data directory with forward slashes, as
// recorded in the change history.
func (fs *FileStore) Rel(path string) string {
	rel, err := filepath.Rel(fs.rootDir, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
