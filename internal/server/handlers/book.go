package handlers

import (
	"context"

	"github.com/maruel/wcstore/internal/storage"
)

// BookHandler serves the book excerpt.
type BookHandler struct {
	book *storage.BookService
}

// NewBookHandler creates a new book handler.
func NewBookHandler(book *storage.BookService) *BookHandler {
	return &BookHandler{book: book}
}

// BookRequest is a request with no parameters.
type BookRequest struct{}

// Content returns the leading lines of the book.
func (h *BookHandler) Content(ctx context.Context, req BookRequest) (*storage.BookExcerpt, error) {
	return h.book.Excerpt(ctx)
}
