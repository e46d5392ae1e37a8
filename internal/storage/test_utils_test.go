package storage

import (
	"context"
	"sync"
	"testing"
	"time"
)

// fakeRecorder keeps the messages it is asked to commit.
type fakeRecorder struct {
	mu    sync.Mutex
	msgs  []string
	files [][]string
	err   error
}

func (f *fakeRecorder) Commit(ctx context.Context, msg string, files ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, msg)
	f.files = append(f.files, files)
	return f.err
}

// stepClock returns a Clock that starts at a fixed instant and advances one
// second per call.
func stepClock() Clock {
	var mu sync.Mutex
	t := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now := t
		t = t.Add(time.Second)
		return now
	}
}

func newTestFileStore(t *testing.T) *FileStore {
	t.Helper()
	fs, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	return fs
}

func newTestDocuments(t *testing.T, rec Recorder) (*FileStore, *DocumentService) {
	t.Helper()
	fs := newTestFileStore(t)
	s := NewDocumentService(fs, rec)
	s.now = stepClock()
	return fs, s
}

func ptr[T any](v T) *T {
	return &v
}
