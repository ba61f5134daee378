package dest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ferryd/ferry/internal/safety"
)

// LocalWriter lands files in a directory on the local filesystem.
type LocalWriter struct {
	dir    string
	logger *slog.Logger
}

// NewLocalWriter creates a writer rooted at dir. The directory is created
// lazily on the first Store, matching a destination that may not exist yet.
func NewLocalWriter(dir string, logger *slog.Logger) (*LocalWriter, error) {
	if dir == "" {
		return nil, fmt.Errorf("local destination path is empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LocalWriter{dir: dir, logger: logger}, nil
}

// ShouldSkip always proceeds: local mode has no overwrite flag, so an
// existing file is replaced unconditionally. This is an intentional
// asymmetry with the S3 writer.
func (w *LocalWriter) ShouldSkip(ctx context.Context, name string) (bool, error) {
	return false, nil
}

// Store moves the temp file into the destination directory, creating parent
// directories as needed. Rename is tried first; when the temp dir is on a
// different filesystem it falls back to copy-and-remove.
func (w *LocalWriter) Store(ctx context.Context, tempPath, name string) error {
	target, err := safety.SafeJoinUnder(w.dir, name)
	if err != nil {
		return fmt.Errorf("resolving destination for %s: %w", name, err)
	}

	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("creating destination directory: %w", err)
	}

	if err := os.Rename(tempPath, target); err != nil {
		if err := copyFile(tempPath, target); err != nil {
			return fmt.Errorf("writing %s: %w", target, err)
		}
		_ = os.Remove(tempPath)
	}

	w.logger.Debug("stored file locally", "file", name, "path", target)
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		_ = os.Remove(dst)
		return err
	}
	return out.Close()
}
