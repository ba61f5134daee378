package engine

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// Report is the run-level accounting: one counter per outcome kind plus the
// ordered succeeded/failed filename lists. It is built incrementally as
// entries complete and rendered exactly once at the end of the run.
type Report struct {
	Destination string
	StartTime   time.Time
	EndTime     time.Time

	// TotalEntries is the number of non-blank manifest entries.
	TotalEntries int

	// ManifestSkipped counts blank or invalid manifest rows that never
	// became entries.
	ManifestSkipped int

	Transferred     int
	SkippedExisting int
	NotFound        int
	FetchFailed     int
	WriteFailed     int
	CleanupFailed   int

	// Succeeded and Failed preserve manifest order. Entries whose only
	// problem was a source-delete failure appear in Succeeded: the data
	// is durable at the destination.
	Succeeded []string
	Failed    []string

	// CleanupFailures lists files transferred but not removed from the
	// source, so they can be reported distinctly from full successes.
	CleanupFailures []string
}

// NewReport starts an empty report with the clock running.
func NewReport(destination string) *Report {
	return &Report{
		Destination: destination,
		StartTime:   time.Now(),
	}
}

// Record folds one entry's result into the report.
func (r *Report) Record(res Result) {
	switch res.Outcome {
	case OutcomeTransferred:
		r.Transferred++
		r.Succeeded = append(r.Succeeded, res.Filename)
	case OutcomeCleanupFailed:
		r.Transferred++
		r.CleanupFailed++
		r.Succeeded = append(r.Succeeded, res.Filename)
		r.CleanupFailures = append(r.CleanupFailures, res.Filename)
	case OutcomeSkippedExisting:
		r.SkippedExisting++
	case OutcomeNotFound:
		r.NotFound++
		r.Failed = append(r.Failed, res.Filename)
	case OutcomeFetchFailed:
		r.FetchFailed++
		r.Failed = append(r.Failed, res.Filename)
	case OutcomeWriteFailed:
		r.WriteFailed++
		r.Failed = append(r.Failed, res.Filename)
	}
}

// FailureCount returns the number of entries in a failure category.
// Cleanup failures are excluded: destination durability outranks source
// tidiness.
func (r *Report) FailureCount() int {
	return r.NotFound + r.FetchFailed + r.WriteFailed
}

// ExitCode maps the report to a process exit code. With strictCleanup,
// cleanup failures also flip the code.
func (r *Report) ExitCode(strictCleanup bool) int {
	failures := r.FailureCount()
	if strictCleanup {
		failures += r.CleanupFailed
	}
	if failures > 0 {
		return 1
	}
	return 0
}

// WriteSummary renders the human-readable end-of-run report.
func (r *Report) WriteSummary(w io.Writer) {
	line := strings.Repeat("=", 60)

	fmt.Fprintf(w, "\n%s\n", line)
	fmt.Fprintf(w, "TRANSFER SUMMARY (%s)\n", r.Destination)
	fmt.Fprintf(w, "%s\n", line)
	fmt.Fprintf(w, "Files transferred:                %d\n", r.Transferred)
	fmt.Fprintf(w, "Not found on source:              %d\n", r.NotFound)
	fmt.Fprintf(w, "Fetch failures:                   %d\n", r.FetchFailed)
	fmt.Fprintf(w, "Write failures:                   %d\n", r.WriteFailed)
	fmt.Fprintf(w, "Source deletion failures:         %d\n", r.CleanupFailed)
	fmt.Fprintf(w, "Already at destination (skipped): %d\n", r.SkippedExisting)
	if r.ManifestSkipped > 0 {
		fmt.Fprintf(w, "Blank/invalid manifest rows:      %d\n", r.ManifestSkipped)
	}

	if len(r.Succeeded) > 0 {
		fmt.Fprintf(w, "\nSucceeded: %s\n", strings.Join(r.Succeeded, ", "))
	}
	if len(r.Failed) > 0 {
		fmt.Fprintf(w, "\nFailed: %s\n", strings.Join(r.Failed, ", "))
	}
	if len(r.CleanupFailures) > 0 {
		fmt.Fprintf(w, "\nTransferred but not removed from source: %s\n", strings.Join(r.CleanupFailures, ", "))
	}

	fmt.Fprintf(w, "\nCompleted in %s\n", r.EndTime.Sub(r.StartTime).Round(time.Millisecond))
}
