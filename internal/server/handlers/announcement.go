package handlers

import (
	"context"

	"github.com/maruel/wcstore/internal/models"
	"github.com/maruel/wcstore/internal/storage"
)

// AnnouncementHandler handles the site announcement.
type AnnouncementHandler struct {
	announcements *storage.AnnouncementService
}

// NewAnnouncementHandler creates a new announcement handler.
func NewAnnouncementHandler(announcements *storage.AnnouncementService) *AnnouncementHandler {
	return &AnnouncementHandler{announcements: announcements}
}

// AnnouncementRequest is a request with no parameters.
type AnnouncementRequest struct{}

// UpdateAnnouncementRequest replaces the announcement.
type UpdateAnnouncementRequest struct {
	Items  []models.AnnouncementItem `json:"items"`
	Status models.Status             `json:"status,omitempty"`
}

// Validate checks the items before anything is written.
func (r *UpdateAnnouncementRequest) Validate() error {
	return storage.ValidateAnnouncementItems(r.Items)
}

// AnnouncementResponse wraps the saved announcement.
type AnnouncementResponse struct {
	Success bool                 `json:"success"`
	Data    *models.Announcement `json:"data"`
}

// Get returns the public view of the announcement.
func (h *AnnouncementHandler) Get(ctx context.Context, req AnnouncementRequest) (*models.Announcement, error) {
	return h.announcements.Get(ctx), nil
}

// GetAdmin returns the announcement including draft items.
func (h *AnnouncementHandler) GetAdmin(ctx context.Context, req AnnouncementRequest) (*models.Announcement, error) {
	return h.announcements.GetAdmin(ctx), nil
}

// Update replaces the announcement.
func (h *AnnouncementHandler) Update(ctx context.Context, req UpdateAnnouncementRequest) (*AnnouncementResponse, error) {
	a, err := h.announcements.Save(ctx, req.Items, req.Status)
	if err != nil {
		return nil, err
	}
	return &AnnouncementResponse{Success: true, Data: a}, nil
}
