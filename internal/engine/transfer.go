// Package engine sequences the per-entry transfer pipeline: destination
// probe, source fetch into a scoped temp file, destination write, source
// cleanup, and run-level accounting.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/ferryd/ferry/internal/config"
	"github.com/ferryd/ferry/internal/dest"
	"github.com/ferryd/ferry/internal/manifest"
	"github.com/ferryd/ferry/internal/source"
	"github.com/ferryd/ferry/internal/store"
)

// Engine owns the run lifecycle. The source session and destination writer
// are established by the caller and used by exactly one entry at a time; no
// file is processed in parallel with another.
type Engine struct {
	src     source.Client
	dst     dest.Writer
	cfg     *config.Config
	logger  *slog.Logger
	journal *store.Store
}

// New creates an engine over an established source session and destination
// writer.
func New(src source.Client, dst dest.Writer, cfg *config.Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		src:    src,
		dst:    dst,
		cfg:    cfg,
		logger: logger,
	}
}

// SetJournal attaches the optional run-history journal.
func (e *Engine) SetJournal(j *store.Store) {
	e.journal = j
}

// Run processes every manifest entry in order and returns the run report.
// Per-entry failures are recorded and the loop continues; only a destination
// probe failure aborts, because it means every remaining entry would hit the
// same broken session. On abort the partial report is returned alongside the
// error so the entries already processed can still be summarized.
func (e *Engine) Run(ctx context.Context, list *manifest.List) (*Report, error) {
	report := NewReport(e.destinationLabel())
	report.TotalEntries = len(list.Entries)
	report.ManifestSkipped = list.SkippedBlank + list.SkippedInvalid

	tempDir, err := os.MkdirTemp("", "ferry-")
	if err != nil {
		return nil, fmt.Errorf("creating temp directory: %w", err)
	}
	defer os.RemoveAll(tempDir)

	e.logger.Info("starting transfer run",
		"entries", report.TotalEntries,
		"destination", report.Destination,
		"delete_after_transfer", e.cfg.DeleteAfterTransfer,
	)

	for _, entry := range list.Entries {
		res, fatal := e.processEntry(ctx, tempDir, entry.Filename)
		if fatal != nil {
			report.EndTime = time.Now()
			e.recordHistory(report)
			return report, fatal
		}

		report.Record(res)
		e.logResult(res)
	}

	report.EndTime = time.Now()
	e.recordHistory(report)
	return report, nil
}

// processEntry runs one file through the pipeline and converts every
// component error into a terminal outcome. The returned fatal error is
// non-nil only for destination probe failures.
func (e *Engine) processEntry(ctx context.Context, tempDir, name string) (Result, error) {
	e.logger.Info("processing", "file", name)

	skip, err := e.dst.ShouldSkip(ctx, name)
	if err != nil {
		return Result{}, fmt.Errorf("destination probe for %s: %w", name, err)
	}
	if skip {
		return Result{Filename: name, Outcome: OutcomeSkippedExisting}, nil
	}

	if err := e.src.Stat(name); err != nil {
		if errors.Is(err, source.ErrNotFound) {
			return Result{Filename: name, Outcome: OutcomeNotFound}, nil
		}
		return Result{Filename: name, Outcome: OutcomeFetchFailed, Reason: err}, nil
	}

	tempPath, err := e.fetchToTemp(tempDir, name)
	if tempPath != "" {
		// The temp file never outlives its entry, whatever happened
		// downstream. A successful local move already consumed it; the
		// ENOENT from that is harmless.
		defer os.Remove(tempPath)
	}
	if err != nil {
		if errors.Is(err, source.ErrNotFound) {
			return Result{Filename: name, Outcome: OutcomeNotFound}, nil
		}
		return Result{Filename: name, Outcome: OutcomeFetchFailed, Reason: err}, nil
	}

	if err := e.dst.Store(ctx, tempPath, name); err != nil {
		return Result{Filename: name, Outcome: OutcomeWriteFailed, Reason: err}, nil
	}

	// The destination copy is confirmed; only now may the source copy go.
	if !e.cfg.DeleteAfterTransfer {
		e.logger.Debug("source delete disabled, keeping remote file", "file", name)
		return Result{Filename: name, Outcome: OutcomeTransferred}, nil
	}

	if err := e.src.Delete(name); err != nil {
		return Result{Filename: name, Outcome: OutcomeCleanupFailed, Reason: err}, nil
	}

	return Result{Filename: name, Outcome: OutcomeTransferred}, nil
}

// fetchToTemp retrieves the remote file into a fresh temp file and returns
// its path. The path is returned even on failure so the caller can remove
// the partial file.
func (e *Engine) fetchToTemp(tempDir, name string) (string, error) {
	f, err := os.CreateTemp(tempDir, filepath.Base(name)+".*")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	tempPath := f.Name()

	if err := e.src.Fetch(name, f); err != nil {
		f.Close()
		return tempPath, err
	}

	if err := f.Close(); err != nil {
		return tempPath, fmt.Errorf("flushing temp file: %w", err)
	}
	return tempPath, nil
}

func (e *Engine) destinationLabel() string {
	if e.cfg.Destination.Mode() == config.ModeS3 {
		return fmt.Sprintf("s3://%s/%s", e.cfg.Destination.S3.Bucket, e.cfg.Destination.S3.Prefix)
	}
	return e.cfg.Destination.Local.Path
}

func (e *Engine) logResult(res Result) {
	switch res.Outcome {
	case OutcomeTransferred:
		e.logger.Info("transferred", "file", res.Filename)
	case OutcomeSkippedExisting:
		e.logger.Info("already at destination, skipped", "file", res.Filename)
	case OutcomeNotFound:
		e.logger.Warn("not found on source", "file", res.Filename)
	case OutcomeFetchFailed:
		e.logger.Error("fetch failed", "file", res.Filename, "error", res.Reason)
	case OutcomeWriteFailed:
		e.logger.Error("write failed", "file", res.Filename, "error", res.Reason)
	case OutcomeCleanupFailed:
		e.logger.Warn("transferred but source delete failed", "file", res.Filename, "error", res.Reason)
	}
}

// recordHistory appends the run to the journal when one is attached.
// Journal problems are logged and otherwise ignored; they never alter the
// run's outcome.
func (e *Engine) recordHistory(report *Report) {
	if e.journal == nil {
		return
	}

	run := &store.TransferRun{
		SourceHost:    e.cfg.Source.Host,
		Mode:          e.cfg.Destination.Mode(),
		StartTime:     report.StartTime,
		EndTime:       report.EndTime,
		Total:         report.TotalEntries,
		Transferred:   report.Transferred,
		SkippedExists: report.SkippedExisting,
		NotFound:      report.NotFound,
		FetchFailed:   report.FetchFailed,
		WriteFailed:   report.WriteFailed,
		CleanupFailed: report.CleanupFailed,
		ExitCode:      report.ExitCode(e.cfg.StrictCleanup),
	}

	if err := e.journal.RecordRun(run); err != nil {
		e.logger.Warn("failed to record run history", "error", err)
	}
}
