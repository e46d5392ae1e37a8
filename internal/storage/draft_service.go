package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"

	"github.com/maruel/wcstore/internal/jsondb"
	"github.com/maruel/wcstore/internal/models"
)

// emptyDraft is returned for a collection that has no saved draft.
var emptyDraft = json.RawMessage(`{"posts":[]}`)

// DraftService maintains one free-form draft container per collection and
// promotes it over the live container on publish.
type DraftService struct {
	fileStore *FileStore
	recorder  Recorder
}

// NewDraftService creates a draft service. recorder may be nil.
func NewDraftService(fileStore *FileStore, recorder Recorder) *DraftService {
	return &DraftService{fileStore: fileStore, recorder: recorder}
}

// GetDraft returns the saved draft of c byte for byte, or {"posts":[]} when
// none was saved.
func (s *DraftService) GetDraft(ctx context.Context, c models.Collection) (json.RawMessage, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: %q", models.ErrInvalidCollection, c)
	}
	data, err := jsondb.ReadRaw(s.fileStore.DraftPath(c))
	if errors.Is(err, fs.ErrNotExist) {
		return append(json.RawMessage(nil), emptyDraft...), nil
	}
	if err != nil {
		return nil, &models.StorageError{Op: "read draft " + string(c), Err: err}
	}
	return data, nil
}

// SaveDraft overwrites the draft of c with payload. The payload must be a JSON
// object; its content is otherwise unconstrained.
func (s *DraftService) SaveDraft(ctx context.Context, c models.Collection, payload json.RawMessage) error {
	if !c.Valid() {
		return fmt.Errorf("%w: %q", models.ErrInvalidCollection, c)
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(payload, &obj); err != nil || obj == nil {
		return fmt.Errorf("%w: draft must be a JSON object", models.ErrInvalidDocument)
	}
	path := s.fileStore.DraftPath(c)
	if err := jsondb.WriteRaw(path, payload); err != nil {
		return &models.StorageError{Op: "write draft " + string(c), Err: err}
	}
	record(ctx, s.recorder, fmt.Sprintf("save draft %s", c), s.fileStore.Rel(path))
	return nil
}

// Publish copies the draft of c verbatim over the live container. The draft is
// left in place.
//
// The draft is checked first with ValidateDraft; a draft that would not load
// as a collection is refused with models.ErrRejected and the live container is
// untouched.
func (s *DraftService) Publish(ctx context.Context, c models.Collection) error {
	if !c.Valid() {
		return fmt.Errorf("%w: %q", models.ErrInvalidCollection, c)
	}
	data, err := jsondb.ReadRaw(s.fileStore.DraftPath(c))
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("draft %s: %w", c, models.ErrNotFound)
	}
	if err != nil {
		return &models.StorageError{Op: "read draft " + string(c), Err: err}
	}
	if err := ValidateDraft(c, data); err != nil {
		return err
	}
	path := s.fileStore.CollectionPath(c)
	if err := jsondb.WriteRaw(path, data); err != nil {
		return &models.StorageError{Op: "publish draft " + string(c), Err: err}
	}
	record(ctx, s.recorder, fmt.Sprintf("publish %s", c), s.fileStore.Rel(path))
	return nil
}

// ValidateDraft checks that data can serve as the container of c:
// {"posts":[...]} where every item is a document with no unknown field, a
// unique non-empty id, a created_at, a type that is empty or c, and, if set, a
// known status. Items are later rewritten through models.Document, so a field
// it does not carry would be lost.
func ValidateDraft(c models.Collection, data []byte) error {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil || doc == nil {
		return fmt.Errorf("%w: draft is not a JSON object", models.ErrRejected)
	}
	raw, ok := doc[postsKey]
	if !ok {
		return fmt.Errorf("%w: draft has no %q list", models.ErrRejected, postsKey)
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return fmt.Errorf("%w: %q is not a list", models.ErrRejected, postsKey)
	}
	seen := make(map[string]bool, len(items))
	for i, item := range items {
		var d models.Document
		dec := json.NewDecoder(bytes.NewReader(item))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&d); err != nil {
			return fmt.Errorf("%w: item %d is not a document: %v", models.ErrRejected, i, err)
		}
		if d.ID == "" {
			return fmt.Errorf("%w: item %d has no id", models.ErrRejected, i)
		}
		if seen[d.ID] {
			return fmt.Errorf("%w: item %d duplicates id %q", models.ErrRejected, i, d.ID)
		}
		seen[d.ID] = true
		if d.CreatedAt == "" {
			return fmt.Errorf("%w: item %d has no created_at", models.ErrRejected, i)
		}
		if d.Collection != "" && d.Collection != c {
			return fmt.Errorf("%w: item %d has type %q, want %q", models.ErrRejected, i, d.Collection, c)
		}
		if d.Status != "" && !d.Status.Valid() {
			return fmt.Errorf("%w: item %d has unknown status %q", models.ErrRejected, i, d.Status)
		}
	}
	return nil
}
