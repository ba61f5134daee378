// Package dest implements the two destination variants a transfer run can
// target: a local directory or an S3 bucket. The variant is selected once at
// startup and dispatched through the Writer interface, never re-checked per
// file.
package dest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ferryd/ferry/internal/config"
)

// Writer is the destination capability the engine drives.
type Writer interface {
	// ShouldSkip reports whether the entry already exists at the
	// destination and policy forbids overwriting it. An error here is
	// fatal to the run: it means the destination session itself is
	// unusable, not just this entry.
	ShouldSkip(ctx context.Context, name string) (bool, error)

	// Store moves the fetched temp file to its final destination. The
	// temp file remains owned by the caller; Store must not delete it
	// (local rename consumes it, which the caller tolerates).
	Store(ctx context.Context, tempPath, name string) error
}

// New builds the writer for the configured destination mode. Connectivity
// problems (such as an unreachable or missing bucket) surface here, before
// any entry is processed.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Writer, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.Destination.Mode() {
	case config.ModeS3:
		return NewS3Writer(ctx, cfg.Destination.S3, logger)
	case config.ModeLocal:
		return NewLocalWriter(cfg.Destination.Local.Path, logger)
	default:
		return nil, fmt.Errorf("unknown destination mode %q", cfg.Destination.Mode())
	}
}
