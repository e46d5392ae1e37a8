// Package handlers provides HTTP request handlers for the API.
package handlers

import (
	"context"
	"fmt"

	"github.com/maruel/wcstore/internal/models"
	"github.com/maruel/wcstore/internal/storage"
)

// ContentHandler handles document requests for the admin and the public
// listing.
type ContentHandler struct {
	documents *storage.DocumentService
}

// NewContentHandler creates a new content handler.
func NewContentHandler(documents *storage.DocumentService) *ContentHandler {
	return &ContentHandler{documents: documents}
}

// CollectionRequest addresses a whole collection.
type CollectionRequest struct {
	Collection models.Collection `path:"collection"`
}

// ValidatePath rejects unknown collection names before the body is read.
func (r *CollectionRequest) ValidatePath() error {
	_, err := models.ParseCollection(string(r.Collection))
	return err
}

// DocumentRequest addresses one document.
type DocumentRequest struct {
	Collection models.Collection `path:"collection"`
	ID         string            `path:"id"`
}

// ValidatePath rejects unknown collection names before the body is read.
func (r *DocumentRequest) ValidatePath() error {
	_, err := models.ParseCollection(string(r.Collection))
	return err
}

// CreateRequest is a request to create a document.
type CreateRequest struct {
	Collection models.Collection `path:"collection" json:"-"`
	models.Patch
}

// ValidatePath rejects unknown collection names before the body is read.
func (r *CreateRequest) ValidatePath() error {
	_, err := models.ParseCollection(string(r.Collection))
	return err
}

// UpdateRequest is a request to update a document.
type UpdateRequest struct {
	Collection models.Collection `path:"collection" json:"-"`
	ID         string            `path:"id" json:"-"`
	models.Patch
}

// ValidatePath rejects unknown collection names before the body is read.
func (r *UpdateRequest) ValidatePath() error {
	_, err := models.ParseCollection(string(r.Collection))
	return err
}

// MessageResponse acknowledges an operation that has no other result.
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// List returns every document of a collection, drafts included.
func (h *ContentHandler) List(ctx context.Context, req CollectionRequest) (*[]models.Document, error) {
	docs, err := h.documents.ListAll(ctx, req.Collection)
	if err != nil {
		return nil, err
	}
	return &docs, nil
}

// ListPublic returns the published documents of a collection, newest first.
func (h *ContentHandler) ListPublic(ctx context.Context, req CollectionRequest) (*[]models.Document, error) {
	docs, err := h.documents.ListPublished(ctx, req.Collection)
	if err != nil {
		return nil, err
	}
	return &docs, nil
}

// Get returns one document.
func (h *ContentHandler) Get(ctx context.Context, req DocumentRequest) (*models.Document, error) {
	return h.documents.GetByID(ctx, req.Collection, req.ID)
}

// Create adds a document to a collection.
func (h *ContentHandler) Create(ctx context.Context, req CreateRequest) (*models.Document, error) {
	return h.documents.Create(ctx, req.Collection, &req.Patch)
}

// Update overlays the request onto an existing document.
func (h *ContentHandler) Update(ctx context.Context, req UpdateRequest) (*models.Document, error) {
	return h.documents.Update(ctx, req.Collection, req.ID, &req.Patch)
}

// Delete removes a document.
func (h *ContentHandler) Delete(ctx context.Context, req DocumentRequest) (*MessageResponse, error) {
	if err := h.documents.Delete(ctx, req.Collection, req.ID); err != nil {
		return nil, err
	}
	return &MessageResponse{Success: true, Message: fmt.Sprintf("Deleted %s/%s", req.Collection, req.ID)}, nil
}
