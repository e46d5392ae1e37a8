package jsondb

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// locks maps a cleaned absolute path to its *sync.Mutex.
var locks sync.Map

func lockFor(path string) *sync.Mutex {
	mu, _ := locks.LoadOrStore(path, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

func absPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	return filepath.Clean(abs), nil
}

// WithLock runs fn while holding the exclusive lock for path.
func WithLock(path string, fn func() error) error {
	abs, err := absPath(path)
	if err != nil {
		return err
	}
	mu := lockFor(abs)
	mu.Lock()
	defer mu.Unlock()
	return fn()
}

// ReadRaw returns the bytes of path under its lock.
//
// A missing file is reported with an error matching fs.ErrNotExist.
func ReadRaw(path string) ([]byte, error) {
	var data []byte
	err := WithLock(path, func() error {
		var err error
		data, err = os.ReadFile(path) //nolint:gosec // G304: paths are built by the caller from a fixed layout
		return err
	})
	return data, err
}

// WriteRaw atomically replaces path with data under its lock.
func WriteRaw(path string, data []byte) error {
	return WithLock(path, func() error {
		return WriteFileAtomic(path, data, 0o644)
	})
}

// WriteFileAtomic writes data to a temporary file next to path, syncs it and
// renames it over path. It does not take the path lock.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil { //nolint:gosec // G301: data directories are world readable
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", path, err)
	}
	tmp := f.Name()
	cleanup := func(err error) error {
		_ = f.Close()
		return errors.Join(err, os.Remove(tmp))
	}
	if _, err := f.Write(data); err != nil {
		return cleanup(fmt.Errorf("failed to write %s: %w", tmp, err))
	}
	if err := f.Sync(); err != nil {
		return cleanup(fmt.Errorf("failed to sync %s: %w", tmp, err))
	}
	if err := f.Chmod(perm); err != nil {
		return cleanup(fmt.Errorf("failed to chmod %s: %w", tmp, err))
	}
	if err := f.Close(); err != nil {
		return errors.Join(fmt.Errorf("failed to close %s: %w", tmp, err), os.Remove(tmp))
	}
	if err := os.Rename(tmp, path); err != nil {
		return errors.Join(fmt.Errorf("failed to rename into %s: %w", path, err), os.Remove(tmp))
	}
	return nil
}

// Marshal encodes v as indented JSON without HTML escaping, newline terminated.
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func marshalCompact(v any) (json.RawMessage, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
