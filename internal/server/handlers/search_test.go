package handlers

import (
	"errors"
	"testing"

	"github.com/maruel/wcstore/internal/models"
	"github.com/maruel/wcstore/internal/storage"
)

func TestSearchHandler(t *testing.T) {
	ctx := t.Context()
	docs := storage.NewDocumentService(newTestFileStore(t), nil)
	h := NewSearchHandler(storage.NewSearchService(docs))

	if _, err := docs.Create(ctx, models.Media, &models.Patch{Title: ptr("Weird Core"), Body: ptr("a review")}); err != nil {
		t.Fatal(err)
	}
	if _, err := docs.Create(ctx, models.Shop, &models.Patch{Body: ptr("weirdcore shirt")}); err != nil {
		t.Fatal(err)
	}
	if _, err := docs.Create(ctx, models.Shop, &models.Patch{Body: ptr("weird draft"), Status: ptr(models.StatusDraft)}); err != nil {
		t.Fatal(err)
	}

	res, err := h.Search(ctx, SearchRequest{Q: "WEIRD"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.Total != 2 {
		t.Errorf("Total = %d, want 2", res.Total)
	}
	if hits := res.Hits[models.Media]; len(hits) != 1 || hits[0].Relevance != 10 {
		t.Errorf("media hits = %+v", hits)
	}
	if hits := res.Hits[models.Shop]; len(hits) != 1 || hits[0].Relevance != 1 {
		t.Errorf("shop hits = %+v", hits)
	}

	if _, err := h.Search(ctx, SearchRequest{}); !errors.Is(err, models.ErrInvalidDocument) {
		t.Errorf("Search(empty) = %v, want ErrInvalidDocument", err)
	}
}
