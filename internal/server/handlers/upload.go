package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"strings"

	apierrors "github.com/maruel/wcstore/internal/errors"
	"github.com/maruel/wcstore/internal/media"
	"github.com/maruel/wcstore/internal/models"
	"github.com/maruel/wcstore/internal/utils"
)

const (
	// MaxUploadBody bounds a multipart request: a full batch plus form
	// overhead.
	MaxUploadBody = (media.MaxBatch + 1) * media.MaxFileSize
	// multipartMemory is the part of the form kept in memory; the rest spills
	// to temporary files.
	multipartMemory = 32 << 20
)

// UploadHandler handles image uploads and deletions.
type UploadHandler struct {
	store *media.Store
}

// NewUploadHandler creates a new upload handler.
func NewUploadHandler(store *media.Store) *UploadHandler {
	return &UploadHandler{store: store}
}

// UploadResponse describes one stored image.
type UploadResponse struct {
	Success bool `json:"success"`
	*media.Result
}

// DeleteImageRequest names a stored image.
type DeleteImageRequest struct {
	Filename string `path:"filename"`
}

// UploadImage stores the image sent in the multipart field "file".
func (h *UploadHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !parseForm(ctx, w, r) {
		return
	}
	headers := r.MultipartForm.File["file"]
	if len(headers) == 0 {
		utils.RespondError(ctx, w, apierrors.BadRequest("missing file"))
		return
	}
	u, err := readUpload(headers[0])
	if err != nil {
		utils.RespondError(ctx, w, err)
		return
	}
	res, err := h.store.Ingest(ctx, u.Data, u.Filename)
	if err != nil {
		utils.RespondError(ctx, w, err)
		return
	}
	utils.RespondJSON(ctx, w, http.StatusOK, &UploadResponse{Success: true, Result: res})
}

// UploadImages stores every image sent in the multipart field "files".
func (h *UploadHandler) UploadImages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !parseForm(ctx, w, r) {
		return
	}
	headers := r.MultipartForm.File["files"]
	if len(headers) > media.MaxBatch {
		utils.RespondError(ctx, w, fmt.Errorf("%w: at most %d files per upload, got %d", models.ErrRejected, media.MaxBatch, len(headers)))
		return
	}
	uploads := make([]media.Upload, 0, len(headers))
	for _, fh := range headers {
		u, err := readUpload(fh)
		if err != nil {
			utils.RespondError(ctx, w, err)
			return
		}
		uploads = append(uploads, u)
	}
	res, err := h.store.IngestBatch(ctx, uploads)
	if err != nil {
		utils.RespondError(ctx, w, err)
		return
	}
	utils.RespondJSON(ctx, w, http.StatusOK, res)
}

// DeleteImage removes a stored image.
func (h *UploadHandler) DeleteImage(ctx context.Context, req DeleteImageRequest) (*MessageResponse, error) {
	if err := h.store.Delete(ctx, req.Filename); err != nil {
		return nil, err
	}
	return &MessageResponse{Success: true, Message: fmt.Sprintf("Deleted %s", req.Filename)}, nil
}

// parseForm reads the multipart body and reports whether the handler may
// proceed. The error response is sent otherwise.
func parseForm(ctx context.Context, w http.ResponseWriter, r *http.Request) bool {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBody)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		if mbe := (*http.MaxBytesError)(nil); errors.As(err, &mbe) {
			utils.RespondError(ctx, w, apierrors.TooLarge(mbe.Limit))
			return false
		}
		utils.RespondError(ctx, w, apierrors.BadRequest("invalid multipart form").Wrap(err))
		return false
	}
	return true
}

// readUpload reads one part, at most one byte past the size limit so that
// oversized files are refused by the ingestion checks.
func readUpload(fh *multipart.FileHeader) (media.Upload, error) {
	f, err := fh.Open()
	if err != nil {
		return media.Upload{}, &models.StorageError{Op: "read upload", Err: err}
	}
	defer func() {
		if err := f.Close(); err != nil {
			slog.Error("Failed to close uploaded file", "err", err)
		}
	}()
	data, err := io.ReadAll(io.LimitReader(f, media.MaxFileSize+1))
	if err != nil {
		return media.Upload{}, &models.StorageError{Op: "read upload", Err: err}
	}
	return media.Upload{Filename: fh.Filename, Data: data}, nil
}

// ServeImage serves a stored image. Stored names are never reused.
func (h *UploadHandler) ServeImage(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if name == "." || !fs.ValidPath(name) || strings.ContainsAny(name, `/\`) {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	http.ServeFileFS(w, r, os.DirFS(h.store.Root()), name)
}
