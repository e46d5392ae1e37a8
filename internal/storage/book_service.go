package storage

import (
	"bufio"
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// BookMaxLines bounds the excerpt returned by BookService.Excerpt.
const BookMaxLines = 100

// BookExcerpt is the scrolling text shown on the front page.
type BookExcerpt struct {
	Content    string `json:"content"`
	TotalLines int    `json:"total_lines"`
}

// BookService reads the excerpt sources under book/.
type BookService struct {
	fileStore *FileStore
}

// NewBookService creates a book service.
func NewBookService(fileStore *FileStore) *BookService {
	return &BookService{fileStore: fileStore}
}

// Excerpt joins with spaces the first BookMaxLines non-empty lines of the
// book/*.txt files, taken in name order. Unreadable files are skipped.
func (s *BookService) Excerpt(ctx context.Context) (*BookExcerpt, error) {
	files, err := filepath.Glob(filepath.Join(s.fileStore.BookDir(), "*.txt"))
	if err != nil {
		return nil, err
	}
	slices.Sort(files)
	var lines []string
	for _, f := range files {
		if len(lines) >= BookMaxLines {
			break
		}
		if lines, err = appendLines(lines, f); err != nil {
			slog.WarnContext(ctx, "Skipping book file", "file", filepath.Base(f), "err", err)
		}
	}
	return &BookExcerpt{Content: strings.Join(lines, " "), TotalLines: len(lines)}, nil
}

// appendLines appends the trimmed non-empty lines of path to lines until
// BookMaxLines is reached. Lines read before an error are kept.
func appendLines(lines []string, path string) ([]string, error) {
	f, err := os.Open(path) //nolint:gosec // G304: path comes from a glob of the book directory
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return lines, nil
		}
		return lines, err
	}
	defer func() { _ = f.Close() }()
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() && len(lines) < BookMaxLines {
		if l := strings.TrimSpace(sc.Text()); l != "" {
			lines = append(lines, l)
		}
	}
	return lines, sc.Err()
}
