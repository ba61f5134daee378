package engine

// Outcome classifies what happened to one manifest entry. Every entry gets
// exactly one outcome per run; outcomes are terminal, there are no retries
// within a run.
type Outcome string

const (
	// OutcomeTransferred: fetched, written to the destination, and (when
	// enabled) removed from the source.
	OutcomeTransferred Outcome = "transferred"

	// OutcomeSkippedExisting: the destination already has the object and
	// overwrite is disabled.
	OutcomeSkippedExisting Outcome = "skipped_existing"

	// OutcomeNotFound: the file is absent from the source directory.
	OutcomeNotFound Outcome = "not_found"

	// OutcomeFetchFailed: a transport or protocol error while retrieving
	// the file from the source.
	OutcomeFetchFailed Outcome = "fetch_failed"

	// OutcomeWriteFailed: the destination write did not complete.
	OutcomeWriteFailed Outcome = "write_failed"

	// OutcomeCleanupFailed: the destination write succeeded but the
	// source delete did not. The file is durable at the destination, so
	// this still counts as a successful transfer.
	OutcomeCleanupFailed Outcome = "cleanup_failed"
)

// Result pairs a manifest entry with its terminal outcome.
type Result struct {
	Filename string
	Outcome  Outcome
	Reason   error // set for failure outcomes
}
