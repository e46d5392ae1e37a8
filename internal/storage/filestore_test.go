package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/maruel/wcstore/internal/models"
)

func TestFileStoreLayout(t *testing.T) {
	tmpDir := t.TempDir()
	root := filepath.Join(tmpDir, "data")
	fs, err := NewFileStore(root)
	if err != nil {
		t.Fatalf("failed to create FileStore: %v", err)
	}
	for _, dir := range []string{root, fs.DraftsDir(), fs.ImagesDir()} {
		if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
			t.Errorf("%s not created: %v", dir, err)
		}
	}
	if _, err := os.Stat(fs.BookDir()); !os.IsNotExist(err) {
		t.Errorf("book directory should not be created: %v", err)
	}

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"collection", fs.Rel(fs.CollectionPath(models.Research)), "research.json"},
		{"draft", fs.Rel(fs.DraftPath(models.Shop)), "drafts/shop.json"},
		{"announcement", fs.Rel(fs.AnnouncementPath()), "announcement.json"},
		{"images", fs.Rel(fs.ImagesDir()), "images"},
		{"book", fs.Rel(fs.BookDir()), "book"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestNewFileStoreRelative(t *testing.T) {
	t.Chdir(t.TempDir())
	fs, err := NewFileStore("data")
	if err != nil {
		t.Fatal(err)
	}
	if !filepath.IsAbs(fs.RootDir()) {
		t.Errorf("RootDir() = %q, want an absolute path", fs.RootDir())
	}
}
