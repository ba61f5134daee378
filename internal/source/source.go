// Package source provides clients for the file server the manifest entries
// are fetched from. Two protocols are supported behind one interface: SFTP
// (the default) and plain FTP.
package source

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/ferryd/ferry/internal/config"
)

// ErrNotFound indicates the named file does not exist on the source server.
// Callers use errors.Is to distinguish it from transport failures.
var ErrNotFound = errors.New("file not found on source")

// Client is one authenticated session against the source server, rooted at
// the configured remote directory. Implementations are not safe for
// concurrent use; the engine accesses the session sequentially.
type Client interface {
	// Stat checks that name exists in the remote directory.
	Stat(name string) error

	// Fetch streams the remote file's bytes into dst (binary mode).
	Fetch(name string, dst io.Writer) error

	// Delete removes the remote file.
	Delete(name string) error

	// List returns the names of regular files in the remote directory.
	List() ([]string, error)

	// Close terminates the session.
	Close() error
}

// Connect dials the source server per the configured protocol and resolves
// the remote directory. Any failure here is fatal to the run.
func Connect(cfg config.SourceConfig, logger *slog.Logger) (Client, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.Protocol {
	case config.ProtocolFTP:
		return dialFTP(cfg, logger)
	case config.ProtocolSFTP:
		return dialSFTP(cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported source protocol %q", cfg.Protocol)
	}
}
