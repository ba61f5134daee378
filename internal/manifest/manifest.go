// Package manifest reads the CSV file that drives a transfer run: one
// configurable column supplies the filenames, all other columns are ignored.
package manifest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/ferryd/ferry/internal/safety"
)

// Entry is one unit of work: a single filename from the manifest.
type Entry struct {
	Filename string
}

// List is the parsed manifest in file order.
type List struct {
	Entries []Entry

	// SkippedBlank counts rows whose filename cell was empty.
	SkippedBlank int

	// SkippedInvalid counts rows whose filename failed path validation.
	SkippedInvalid int
}

// Reader parses a CSV manifest. Read re-reads the file on every call, so the
// same Reader yields the same sequence as long as the file is unchanged.
type Reader struct {
	Path   string
	Column string

	logger *slog.Logger
}

// NewReader creates a manifest reader for the given CSV path and column name.
func NewReader(path, column string, logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{Path: path, Column: column, logger: logger}
}

// Read parses the manifest. A missing file or absent column is an error;
// there is nothing to recover per-file before entries exist.
func (r *Reader) Read() (*List, error) {
	f, err := os.Open(r.Path)
	if err != nil {
		return nil, fmt.Errorf("opening manifest %s: %w", r.Path, err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1 // ragged rows are tolerated, only the column matters
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("manifest %s is empty, expected a header row", r.Path)
		}
		return nil, fmt.Errorf("reading manifest header: %w", err)
	}

	col := -1
	for i, name := range header {
		if strings.TrimSpace(name) == r.Column {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, fmt.Errorf("column %q not found in manifest %s (available: %s)",
			r.Column, r.Path, strings.Join(header, ", "))
	}

	list := &List{}
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading manifest row: %w", err)
		}
		if col >= len(record) {
			list.SkippedBlank++
			continue
		}

		name := strings.TrimSpace(record[col])
		if name == "" {
			list.SkippedBlank++
			continue
		}

		clean, err := safety.CleanFilename(name)
		if err != nil {
			r.logger.Warn("skipping invalid manifest entry", "file", name, "error", err)
			list.SkippedInvalid++
			continue
		}

		list.Entries = append(list.Entries, Entry{Filename: clean})
	}

	r.logger.Info("manifest read",
		"path", r.Path,
		"entries", len(list.Entries),
		"skipped_blank", list.SkippedBlank,
		"skipped_invalid", list.SkippedInvalid,
	)
	return list, nil
}
