package handlers

import (
	"context"
	"fmt"

	"github.com/maruel/wcstore/internal/models"
	"github.com/maruel/wcstore/internal/storage/history"
)

// DefaultHistoryLimit is the number of commits returned when the request
// doesn't set one.
const DefaultHistoryLimit = 20

// HistoryHandler lists recorded changes of the data directory.
type HistoryHandler struct {
	repo *history.Repo
}

// NewHistoryHandler creates a new history handler. repo is nil when history
// is disabled.
func NewHistoryHandler(repo *history.Repo) *HistoryHandler {
	return &HistoryHandler{repo: repo}
}

// HistoryRequest filters the log by data-relative path.
type HistoryRequest struct {
	Path  string `query:"path"`
	Limit int    `query:"limit"`
}

// HistoryResponse lists commits, newest first.
type HistoryResponse struct {
	Commits []history.Commit `json:"commits"`
}

// List returns the most recent commits.
func (h *HistoryHandler) List(ctx context.Context, req HistoryRequest) (*HistoryResponse, error) {
	if h.repo == nil {
		return nil, fmt.Errorf("history is disabled: %w", models.ErrNotFound)
	}
	limit := req.Limit
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	commits, err := h.repo.Log(ctx, req.Path, min(limit, history.MaxLog))
	if err != nil {
		return nil, &models.StorageError{Op: "read history", Err: err}
	}
	if commits == nil {
		commits = []history.Commit{}
	}
	return &HistoryResponse{Commits: commits}, nil
}
