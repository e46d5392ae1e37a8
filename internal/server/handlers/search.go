package handlers

import (
	"context"

	"github.com/maruel/wcstore/internal/storage"
)

// SearchHandler handles search requests.
type SearchHandler struct {
	search *storage.SearchService
}

// NewSearchHandler creates a new search handler.
func NewSearchHandler(search *storage.SearchService) *SearchHandler {
	return &SearchHandler{search: search}
}

// SearchRequest is a keyword search across every collection.
type SearchRequest struct {
	Q string `query:"q"`
}

// Search returns the published documents matching the keyword, grouped by
// collection.
func (h *SearchHandler) Search(ctx context.Context, req SearchRequest) (*storage.SearchResults, error) {
	return h.search.Search(ctx, req.Q)
}
