// Package media ingests uploaded images: it checks them, re-encodes them to
// WebP under a random name and stores them in a flat directory.
package media

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/maruel/wcstore/internal/jsondb"
	"github.com/maruel/wcstore/internal/metrics"
	"github.com/maruel/wcstore/internal/models"
	_ "golang.org/x/image/bmp"  // register BMP decoder
	_ "golang.org/x/image/tiff" // register TIFF decoder
	_ "golang.org/x/image/webp" // register WebP decoder
)

const (
	// MaxFileSize is the largest accepted upload.
	MaxFileSize = 10 << 20
	// MaxBatch is the largest number of files in one batch.
	MaxBatch = 20
	// MaxPixels caps decoded dimensions to avoid memory bombs.
	MaxPixels = 100_000_000
	// URLPrefix is where stored images are served.
	URLPrefix = "/media/images/"
	// Format is the canonical stored format.
	Format = "webp"
)

// allowedExt lists the accepted upload extensions.
var allowedExt = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".bmp":  true,
	".tiff": true,
}

// Encoder re-encodes an image to WebP, keeping alpha when present.
type Encoder interface {
	Encode(ctx context.Context, src []byte) ([]byte, error)
}

// Percent is a size reduction in percent. It is encoded as a string like
// "42.0%".
type Percent float64

// MarshalJSON implements json.Marshaler.
func (p Percent) MarshalJSON() ([]byte, error) {
	return json.Marshal(fmt.Sprintf("%.1f%%", float64(p)))
}

// Result describes one stored image.
type Result struct {
	URL              string  `json:"url"`
	Filename         string  `json:"filename"`
	OriginalFilename string  `json:"original_filename"`
	OriginalSize     int     `json:"original_size"`
	CompressedSize   int     `json:"compressed_size"`
	CompressionRatio Percent `json:"compression_ratio"`
	Format           string  `json:"format"`
}

// Upload is one file of a batch.
type Upload struct {
	Filename string
	Data     []byte
}

// ItemError reports why one file of a batch was not stored.
type ItemError struct {
	Filename string `json:"filename"`
	Error    string `json:"error"`
}

// BatchResult aggregates a batch. Success is true when at least one file was
// stored.
type BatchResult struct {
	Success      bool        `json:"success"`
	Uploaded     []Result    `json:"uploaded"`
	Errors       []ItemError `json:"errors"`
	Total        int         `json:"total"`
	SuccessCount int         `json:"success_count"`
	ErrorCount   int         `json:"error_count"`
}

// Store keeps the images in a single directory.
type Store struct {
	root string
	enc  Encoder
}

// NewStore returns a Store writing to root with enc, creating root if needed.
func NewStore(root string, enc Encoder) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil { //nolint:gosec // G301: served publicly
		return nil, fmt.Errorf("failed to create %s: %w", root, err)
	}
	return &Store{root: root, enc: enc}, nil
}

// Root returns the image directory.
func (s *Store) Root() string {
	return s.root
}

// Ingest validates data, re-encodes it and stores it under a new random name.
//
// Every validation happens before anything is written. The stored image may
// be larger than the original, in which case the ratio is negative.
func (s *Store) Ingest(ctx context.Context, data []byte, filename string) (*Result, error) {
	res, err := s.ingest(ctx, data, filename)
	if err != nil {
		metrics.IngestItems.WithLabelValues("rejected").Inc()
		return nil, err
	}
	metrics.IngestItems.WithLabelValues("ok").Inc()
	metrics.IngestBytes.WithLabelValues("original").Add(float64(res.OriginalSize))
	metrics.IngestBytes.WithLabelValues("stored").Add(float64(res.CompressedSize))
	return res, nil
}

func (s *Store) ingest(ctx context.Context, data []byte, filename string) (*Result, error) {
	if err := Check(data, filename); err != nil {
		return nil, err
	}
	out, err := s.enc.Encode(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to convert image: %w", models.ErrRejected, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: encoder produced no data", models.ErrRejected)
	}
	name := newName()
	if err := jsondb.WriteFileAtomic(filepath.Join(s.root, name), out, 0o644); err != nil {
		return nil, &models.StorageError{Op: "store image", Err: err}
	}
	slog.InfoContext(ctx, "Stored image", "name", name, "original", len(data), "stored", len(out))
	return &Result{
		URL:              URLPrefix + name,
		Filename:         name,
		OriginalFilename: filename,
		OriginalSize:     len(data),
		CompressedSize:   len(out),
		CompressionRatio: Percent((1 - float64(len(out))/float64(len(data))) * 100),
		Format:           Format,
	}, nil
}

// IngestBatch ingests each upload independently. More than MaxBatch uploads,
// or none, is refused before any processing.
func (s *Store) IngestBatch(ctx context.Context, uploads []Upload) (*BatchResult, error) {
	if len(uploads) == 0 {
		return nil, fmt.Errorf("%w: no files", models.ErrRejected)
	}
	if len(uploads) > MaxBatch {
		return nil, fmt.Errorf("%w: at most %d files per upload, got %d", models.ErrRejected, MaxBatch, len(uploads))
	}
	res := &BatchResult{Uploaded: []Result{}, Errors: []ItemError{}, Total: len(uploads)}
	for _, u := range uploads {
		r, err := s.Ingest(ctx, u.Data, u.Filename)
		if err != nil {
			res.Errors = append(res.Errors, ItemError{Filename: u.Filename, Error: models.PublicMessage(err)})
			continue
		}
		res.Uploaded = append(res.Uploaded, *r)
	}
	res.SuccessCount = len(res.Uploaded)
	res.ErrorCount = len(res.Errors)
	res.Success = res.SuccessCount > 0
	return res, nil
}

// Delete removes the stored image name. Names that contain a separator,
// escape the directory or do not exist are reported as models.ErrNotFound.
func (s *Store) Delete(ctx context.Context, name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("image %q: %w", name, models.ErrNotFound)
	}
	root, err := os.OpenRoot(s.root)
	if err != nil {
		return &models.StorageError{Op: "open image directory", Err: err}
	}
	defer func() { _ = root.Close() }()
	fi, err := root.Lstat(name)
	if err != nil || !fi.Mode().IsRegular() {
		return fmt.Errorf("image %q: %w", name, models.ErrNotFound)
	}
	if err := root.Remove(name); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("image %q: %w", name, models.ErrNotFound)
		}
		return &models.StorageError{Op: "delete image", Err: err}
	}
	slog.InfoContext(ctx, "Deleted image", "name", name)
	return nil
}

// Check validates an upload without decoding the pixels: extension, size,
// a recognizable header and the pixel count.
func Check(data []byte, filename string) error {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExt[ext] {
		return fmt.Errorf("%w: unsupported file type %q", models.ErrRejected, ext)
	}
	if len(data) == 0 {
		return fmt.Errorf("%w: empty file", models.ErrRejected)
	}
	if len(data) > MaxFileSize {
		return fmt.Errorf("%w: file exceeds %d bytes", models.ErrRejected, MaxFileSize)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: not a supported image", models.ErrRejected)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return fmt.Errorf("%w: image too large: %dx%d", models.ErrRejected, cfg.Width, cfg.Height)
	}
	return nil
}

// newName returns a random stored file name.
func newName() string {
	id := uuid.New()
	return hex.EncodeToString(id[:]) + "." + Format
}
