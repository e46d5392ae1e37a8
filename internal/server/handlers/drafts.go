package handlers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/maruel/wcstore/internal/models"
	"github.com/maruel/wcstore/internal/storage"
)

// DraftHandler handles the draft/publish workflow.
type DraftHandler struct {
	drafts *storage.DraftService
}

// NewDraftHandler creates a new draft handler.
func NewDraftHandler(drafts *storage.DraftService) *DraftHandler {
	return &DraftHandler{drafts: drafts}
}

// SaveDraftRequest carries a draft payload verbatim.
type SaveDraftRequest struct {
	Collection models.Collection `path:"collection"`
	Payload    json.RawMessage   `body:"raw"`
}

// ValidatePath rejects unknown collection names before the body is read.
func (r *SaveDraftRequest) ValidatePath() error {
	_, err := models.ParseCollection(string(r.Collection))
	return err
}

// Get returns the saved draft byte for byte.
func (h *DraftHandler) Get(ctx context.Context, req CollectionRequest) (*json.RawMessage, error) {
	data, err := h.drafts.GetDraft(ctx, req.Collection)
	if err != nil {
		return nil, err
	}
	return &data, nil
}

// Save overwrites the draft of a collection.
func (h *DraftHandler) Save(ctx context.Context, req SaveDraftRequest) (*MessageResponse, error) {
	if err := h.drafts.SaveDraft(ctx, req.Collection, req.Payload); err != nil {
		return nil, err
	}
	return &MessageResponse{Success: true, Message: fmt.Sprintf("Draft %s saved", req.Collection)}, nil
}

// Publish replaces the live collection with its draft.
func (h *DraftHandler) Publish(ctx context.Context, req CollectionRequest) (*MessageResponse, error) {
	if err := h.drafts.Publish(ctx, req.Collection); err != nil {
		return nil, err
	}
	return &MessageResponse{Success: true, Message: fmt.Sprintf("Draft %s published", req.Collection)}, nil
}
