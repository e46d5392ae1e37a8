package storage

import (
	"context"
	"log/slog"
)

// Recorder records a change to files of the data directory, e.g. as a git
// commit. Paths are relative to the data directory.
type Recorder interface {
	Commit(ctx context.Context, msg string, files ...string) error
}

// record commits files through r when one is configured. Failures are logged
// and otherwise ignored: the change itself already succeeded.
func record(ctx context.Context, r Recorder, msg string, files ...string) {
	if r == nil {
		return
	}
	if err := r.Commit(ctx, msg, files...); err != nil {
		slog.ErrorContext(ctx, "Failed to record change", "msg", msg, "err", err)
	}
}
