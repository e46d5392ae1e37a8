package jsondb

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// Container is a JSON object file whose list of T lives under a single key.
//
// Other top-level keys found in the file are carried over unchanged when the
// list is rewritten.
type Container[T any] struct {
	path string
	key  string
}

// NewContainer returns a Container for path with its list stored under key.
// The file is not touched until the first call.
func NewContainer[T any](path, key string) (*Container[T], error) {
	if key == "" {
		return nil, errors.New("container key cannot be empty")
	}
	abs, err := absPath(path)
	if err != nil {
		return nil, err
	}
	return &Container[T]{path: abs, key: key}, nil
}

// Path returns the absolute path of the backing file.
func (c *Container[T]) Path() string {
	return c.path
}

// Load returns all rows, creating the file with an empty list if it is absent.
func (c *Container[T]) Load() ([]T, error) {
	var rows []T
	err := WithLock(c.path, func() error {
		doc, err := c.readOrCreate()
		if err != nil {
			return err
		}
		rows, err = c.decodeRows(doc)
		return err
	})
	return rows, err
}

// Peek returns all rows without creating the file. A missing file yields no
// rows and no error.
func (c *Container[T]) Peek() ([]T, error) {
	var rows []T
	err := WithLock(c.path, func() error {
		doc, err := c.read()
		if errors.Is(err, fs.ErrNotExist) {
			rows = []T{}
			return nil
		}
		if err != nil {
			return err
		}
		rows, err = c.decodeRows(doc)
		return err
	})
	return rows, err
}

// Update runs fn over the current rows and persists what it returns, all
// under the file lock. If fn returns an error nothing is written and the error
// is returned as is.
func (c *Container[T]) Update(fn func(rows []T) ([]T, error)) error {
	return WithLock(c.path, func() error {
		doc, err := c.readOrCreate()
		if err != nil {
			return err
		}
		rows, err := c.decodeRows(doc)
		if err != nil {
			return err
		}
		rows, err = fn(rows)
		if err != nil {
			return err
		}
		return c.write(doc, rows)
	})
}

// Replace overwrites the list with rows.
func (c *Container[T]) Replace(rows []T) error {
	return c.Update(func([]T) ([]T, error) { return rows, nil })
}

func (c *Container[T]) read() (map[string]json.RawMessage, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return nil, err
	}
	doc := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", c.path, err)
	}
	return doc, nil
}

func (c *Container[T]) readOrCreate() (map[string]json.RawMessage, error) {
	doc, err := c.read()
	if errors.Is(err, fs.ErrNotExist) {
		doc = map[string]json.RawMessage{}
		if err := c.write(doc, []T{}); err != nil {
			return nil, err
		}
		return doc, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", c.path, err)
	}
	return doc, nil
}

func (c *Container[T]) decodeRows(doc map[string]json.RawMessage) ([]T, error) {
	raw, ok := doc[c.key]
	if !ok || string(raw) == "null" {
		return []T{}, nil
	}
	var rows []T
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode %q in %s: %w", c.key, c.path, err)
	}
	if rows == nil {
		rows = []T{}
	}
	return rows, nil
}

func (c *Container[T]) write(doc map[string]json.RawMessage, rows []T) error {
	if rows == nil {
		rows = []T{}
	}
	raw, err := marshalCompact(rows)
	if err != nil {
		return fmt.Errorf("failed to marshal rows: %w", err)
	}
	doc[c.key] = raw
	data, err := Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", c.path, err)
	}
	return WriteFileAtomic(c.path, data, 0o644)
}
