package repositories

import (
	"context"
	"time"
)

// RunRecord summarizes one processing run for the run history.
type RunRecord struct {
	ID           string
	Profile      string
	InputFile    string
	StartedAt    time.Time
	FinishedAt   time.Time
	ItemsTotal   int
	ItemsOpen    int
	ItemsClosed  int
	ItemsPending int
}

// RunStateRepository tracks run bookkeeping: how many runs happened and which
// input files were already consumed, so re-feeding a directory is idempotent.
type RunStateRepository interface {
	// RunCount returns the number of recorded runs.
	RunCount(ctx context.Context) (int, error)

	// RecordRun appends a run to the history.
	RecordRun(ctx context.Context, run RunRecord) error

	// ProcessedFiles returns the set of input files already consumed.
	ProcessedFiles(ctx context.Context) (map[string]bool, error)

	// MarkProcessed records an input file as consumed.
	MarkProcessed(ctx context.Context, filename string) error
}
