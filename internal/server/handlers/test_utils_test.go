package handlers

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"testing"

	"github.com/maruel/wcstore/internal/storage"
)

// fakeEncoder returns a fixed payload.
type fakeEncoder struct {
	out []byte
}

func (f *fakeEncoder) Encode(ctx context.Context, src []byte) ([]byte, error) {
	return f.out, nil
}

func newTestFileStore(t *testing.T) *storage.FileStore {
	t.Helper()
	fs, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	return fs
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 4, 3))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func ptr[T any](v T) *T {
	return &v
}
