// Package vips encodes images to WebP with libvips.
package vips

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/davidbyttow/govips/v2/vips"
)

// Quality is the WebP quality used for every stored image.
const Quality = 90

// Startup initialises libvips. Call once before the first Encode.
// concurrency is the number of libvips worker threads, 0 for automatic.
func Startup(concurrency int) {
	vips.LoggingSettings(nil, vips.LogLevelWarning)
	vips.Startup(&vips.Config{
		ConcurrencyLevel: concurrency,
		MaxCacheSize:     100,
		MaxCacheMem:      50 << 20,
	})
	slog.Info("libvips started", "version", vips.Version)
}

// Shutdown releases libvips.
func Shutdown() {
	vips.Shutdown()
}

// Encoder implements media.Encoder.
type Encoder struct{}

// Encode loads src, applies the EXIF orientation, converts it to 8-bit sRGB
// and exports it as lossy WebP. Alpha is kept when present.
func (Encoder) Encode(ctx context.Context, src []byte) ([]byte, error) {
	img, err := vips.NewImageFromBuffer(src)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	defer img.Close()
	if err := img.AutoRotate(); err != nil {
		return nil, fmt.Errorf("autorotate: %w", err)
	}
	if err := img.ToColorSpace(vips.InterpretationSRGB); err != nil {
		return nil, fmt.Errorf("colorspace: %w", err)
	}
	if err := img.Cast(vips.BandFormatUchar); err != nil {
		return nil, fmt.Errorf("cast: %w", err)
	}
	params := vips.NewWebpExportParams()
	params.Quality = Quality
	params.Lossless = false
	params.ReductionEffort = 6
	params.StripMetadata = true
	buf, _, err := img.ExportWebp(params)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	return buf, nil
}
