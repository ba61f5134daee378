package store

import "time"

// TransferRun records one completed transfer run in the history journal.
type TransferRun struct {
	ID            int64
	SourceHost    string
	Mode          string // "local" or "s3"
	StartTime     time.Time
	EndTime       time.Time
	Total         int
	Transferred   int
	SkippedExists int
	NotFound      int
	FetchFailed   int
	WriteFailed   int
	CleanupFailed int
	ExitCode      int
}
