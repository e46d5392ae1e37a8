package handlers

import (
	"errors"
	"testing"

	"github.com/maruel/wcstore/internal/models"
	"github.com/maruel/wcstore/internal/storage"
)

func TestContentHandler(t *testing.T) {
	ctx := t.Context()
	h := NewContentHandler(storage.NewDocumentService(newTestFileStore(t), nil))

	created, err := h.Create(ctx, CreateRequest{
		Collection: models.Research,
		Patch:      models.Patch{Title: ptr("Notes"), Body: ptr("hello"), Status: ptr(models.StatusDraft)},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID == "" || created.Collection != models.Research || created.Status != models.StatusDraft {
		t.Fatalf("Create = %+v", created)
	}

	got, err := h.Get(ctx, DocumentRequest{Collection: models.Research, ID: created.ID})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Body != "hello" {
		t.Errorf("Body = %q, want %q", got.Body, "hello")
	}

	all, err := h.List(ctx, CollectionRequest{Collection: models.Research})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(*all) != 1 {
		t.Errorf("List returned %d documents, want 1", len(*all))
	}
	public, err := h.ListPublic(ctx, CollectionRequest{Collection: models.Research})
	if err != nil {
		t.Fatalf("ListPublic: %v", err)
	}
	if len(*public) != 0 {
		t.Errorf("ListPublic returned %d documents, want 0 for a draft", len(*public))
	}

	updated, err := h.Update(ctx, UpdateRequest{
		Collection: models.Research,
		ID:         created.ID,
		Patch:      models.Patch{Status: ptr(models.StatusPublished)},
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Status != models.StatusPublished || updated.CreatedAt != created.CreatedAt {
		t.Errorf("Update = %+v", updated)
	}
	public, err = h.ListPublic(ctx, CollectionRequest{Collection: models.Research})
	if err != nil {
		t.Fatalf("ListPublic: %v", err)
	}
	if len(*public) != 1 {
		t.Errorf("ListPublic returned %d documents, want 1", len(*public))
	}

	resp, err := h.Delete(ctx, DocumentRequest{Collection: models.Research, ID: created.ID})
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if !resp.Success {
		t.Error("Delete: Success = false")
	}
	if _, err := h.Delete(ctx, DocumentRequest{Collection: models.Research, ID: created.ID}); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("second Delete error = %v, want ErrNotFound", err)
	}
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name string
		req  interface{ ValidatePath() error }
		ok   bool
	}{
		{"collection", &CollectionRequest{Collection: "media"}, true},
		{"document", &DocumentRequest{Collection: "shop", ID: "x"}, true},
		{"create", &CreateRequest{Collection: "activity"}, true},
		{"update", &UpdateRequest{Collection: "research"}, true},
		{"draft", &SaveDraftRequest{Collection: "media"}, true},
		{"unknown", &CollectionRequest{Collection: "chat"}, false},
		{"empty", &DocumentRequest{}, false},
		{"case", &CreateRequest{Collection: "Research"}, false},
		{"traversal", &UpdateRequest{Collection: "../config"}, false},
		{"draft unknown", &SaveDraftRequest{Collection: "drafts"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.ValidatePath()
			if tt.ok && err != nil {
				t.Fatalf("ValidatePath() = %v", err)
			}
			if !tt.ok && !errors.Is(err, models.ErrInvalidCollection) {
				t.Fatalf("ValidatePath() = %v, want ErrInvalidCollection", err)
			}
		})
	}
}
