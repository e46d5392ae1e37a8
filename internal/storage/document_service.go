package storage

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/maruel/ksid"
	"github.com/maruel/wcstore/internal/jsondb"
	"github.com/maruel/wcstore/internal/models"
)

// postsKey is the top-level key of collection and draft containers.
const postsKey = "posts"

// DocumentService implements CRUD over the collection containers.
//
// Every call re-reads the backing file; nothing is cached between calls.
type DocumentService struct {
	fileStore *FileStore
	recorder  Recorder
	now       Clock
}

// NewDocumentService creates a document service. recorder may be nil.
func NewDocumentService(fileStore *FileStore, recorder Recorder) *DocumentService {
	return &DocumentService{fileStore: fileStore, recorder: recorder, now: time.Now}
}

func (s *DocumentService) container(c models.Collection) (*jsondb.Container[models.Document], error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: %q", models.ErrInvalidCollection, c)
	}
	ct, err := jsondb.NewContainer[models.Document](s.fileStore.CollectionPath(c), postsKey)
	if err != nil {
		return nil, &models.StorageError{Op: "open collection " + string(c), Err: err}
	}
	return ct, nil
}

// ListAll returns every document of c in insertion order. The container is
// created empty if absent.
func (s *DocumentService) ListAll(ctx context.Context, c models.Collection) ([]models.Document, error) {
	ct, err := s.container(c)
	if err != nil {
		return nil, err
	}
	docs, err := ct.Load()
	if err != nil {
		return nil, &models.StorageError{Op: "read collection " + string(c), Err: err}
	}
	normalizeAll(c, docs)
	return docs, nil
}

// peek returns the documents of c without creating the container.
func (s *DocumentService) peek(c models.Collection) ([]models.Document, error) {
	ct, err := s.container(c)
	if err != nil {
		return nil, err
	}
	docs, err := ct.Peek()
	if err != nil {
		return nil, &models.StorageError{Op: "read collection " + string(c), Err: err}
	}
	normalizeAll(c, docs)
	return docs, nil
}

// ListPublished returns the published documents of c, newest first. A missing
// container yields no documents and is not created.
func (s *DocumentService) ListPublished(ctx context.Context, c models.Collection) ([]models.Document, error) {
	docs, err := s.peek(c)
	if err != nil {
		return nil, err
	}
	out := make([]models.Document, 0, len(docs))
	for _, d := range docs {
		if d.Status == models.StatusPublished {
			out = append(out, d)
		}
	}
	slices.SortStableFunc(out, func(a, b models.Document) int {
		return cmp.Compare(b.CreatedAt, a.CreatedAt)
	})
	return out, nil
}

// GetByID returns the document id of c.
func (s *DocumentService) GetByID(ctx context.Context, c models.Collection, id string) (*models.Document, error) {
	docs, err := s.peek(c)
	if err != nil {
		return nil, err
	}
	for i := range docs {
		if docs[i].ID == id {
			return &docs[i], nil
		}
	}
	return nil, fmt.Errorf("document %q in %s: %w", id, c, models.ErrNotFound)
}

// Create appends a new document built from p to c.
//
// The store assigns id, type, created_at and updated_at; whatever p carries for
// them is ignored. The body is required.
func (s *DocumentService) Create(ctx context.Context, c models.Collection, p *models.Patch) (*models.Document, error) {
	ct, err := s.container(c)
	if err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.Body == nil {
		return nil, fmt.Errorf("%w: content is required", models.ErrInvalidDocument)
	}
	now := FormatTime(s.now())
	doc := models.Document{
		ID:         ksid.NewID().String(),
		Collection: c,
		Status:     models.StatusPublished,
		Author:     models.DefaultAuthor,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	p.Apply(&doc)
	normalize(&doc)
	err = s.mutate(ct, c, func(docs []models.Document) ([]models.Document, error) {
		for _, d := range docs {
			if d.ID == doc.ID {
				return nil, fmt.Errorf("duplicate id %q", doc.ID)
			}
		}
		return append(docs, doc), nil
	})
	if err != nil {
		return nil, &models.StorageError{Op: "write collection " + string(c), Err: err}
	}
	record(ctx, s.recorder, fmt.Sprintf("create %s/%s", c, doc.ID), s.fileStore.Rel(ct.Path()))
	return &doc, nil
}

// Update overlays p onto the document id of c.
//
// id and created_at keep their stored values regardless of p; updated_at is
// refreshed.
func (s *DocumentService) Update(ctx context.Context, c models.Collection, id string, p *models.Patch) (*models.Document, error) {
	ct, err := s.container(c)
	if err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	var updated models.Document
	err = s.mutate(ct, c, func(docs []models.Document) ([]models.Document, error) {
		i := slices.IndexFunc(docs, func(d models.Document) bool { return d.ID == id })
		if i < 0 {
			return nil, models.ErrNotFound
		}
		doc := docs[i]
		p.Apply(&doc)
		doc.ID = docs[i].ID
		doc.CreatedAt = docs[i].CreatedAt
		doc.Collection = c
		doc.UpdatedAt = FormatTime(s.now())
		normalize(&doc)
		docs[i] = doc
		updated = doc
		return docs, nil
	})
	if err != nil {
		return nil, s.mutationError(c, id, err)
	}
	record(ctx, s.recorder, fmt.Sprintf("update %s/%s", c, id), s.fileStore.Rel(ct.Path()))
	return &updated, nil
}

// Delete removes the document id from c. It returns an error matching
// models.ErrNotFound, without touching the file, if no document has that id.
func (s *DocumentService) Delete(ctx context.Context, c models.Collection, id string) error {
	ct, err := s.container(c)
	if err != nil {
		return err
	}
	err = s.mutate(ct, c, func(docs []models.Document) ([]models.Document, error) {
		kept := slices.DeleteFunc(docs, func(d models.Document) bool { return d.ID == id })
		if len(kept) == len(docs) {
			return nil, models.ErrNotFound
		}
		return kept, nil
	})
	if err != nil {
		return s.mutationError(c, id, err)
	}
	record(ctx, s.recorder, fmt.Sprintf("delete %s/%s", c, id), s.fileStore.Rel(ct.Path()))
	return nil
}

// mutate runs fn under the container lock. Stored rows are normalized first so
// a rewrite never persists null lists or a foreign type.
func (s *DocumentService) mutate(ct *jsondb.Container[models.Document], c models.Collection, fn func([]models.Document) ([]models.Document, error)) error {
	return ct.Update(func(docs []models.Document) ([]models.Document, error) {
		normalizeAll(c, docs)
		return fn(docs)
	})
}

func (s *DocumentService) mutationError(c models.Collection, id string, err error) error {
	if errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("document %q in %s: %w", id, c, models.ErrNotFound)
	}
	return &models.StorageError{Op: "write collection " + string(c), Err: err}
}

// normalizeAll stamps c on every document and normalizes it.
func normalizeAll(c models.Collection, docs []models.Document) {
	for i := range docs {
		docs[i].Collection = c
		normalize(&docs[i])
	}
}

// normalize replaces nil slices so documents always encode arrays.
func normalize(d *models.Document) {
	if d.Images == nil {
		d.Images = []string{}
	}
	if d.Links == nil {
		d.Links = []models.Link{}
	}
}
