package sqlite

import (
	"context"
	"fmt"

	"github.com/emmanuel-ch/Product-Trailer/pkg/domain/repositories"
)

// RunStateRepository persists the run history and the processed-file set.
type RunStateRepository struct {
	store *Store
}

// NewRunStateRepository creates a run-state repository over the store.
func NewRunStateRepository(store *Store) *RunStateRepository {
	return &RunStateRepository{store: store}
}

// Verify interface compliance
var _ repositories.RunStateRepository = (*RunStateRepository)(nil)

// RunCount returns the number of recorded runs.
func (r *RunStateRepository) RunCount(ctx context.Context) (int, error) {
	var n int
	err := r.store.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting runs: %w", err)
	}
	return n, nil
}

// RecordRun appends a run to the history.
func (r *RunStateRepository) RecordRun(ctx context.Context, run repositories.RunRecord) error {
	_, err := r.store.db.ExecContext(ctx, `INSERT INTO runs
		(id, profile, input_file, started_at, finished_at,
		 items_total, items_open, items_closed, items_pending)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Profile, run.InputFile,
		formatTime(run.StartedAt), formatTime(run.FinishedAt),
		run.ItemsTotal, run.ItemsOpen, run.ItemsClosed, run.ItemsPending)
	if err != nil {
		return fmt.Errorf("recording run %s: %w", run.ID, err)
	}
	return nil
}

// Runs returns the recorded run history, oldest first.
func (r *RunStateRepository) Runs(ctx context.Context) ([]repositories.RunRecord, error) {
	rows, err := r.store.db.QueryContext(ctx, `SELECT id, profile, input_file,
		started_at, finished_at, items_total, items_open, items_closed,
		items_pending FROM runs ORDER BY started_at, id`)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var out []repositories.RunRecord
	for rows.Next() {
		var (
			run                   repositories.RunRecord
			startedAt, finishedAt string
		)
		if err := rows.Scan(&run.ID, &run.Profile, &run.InputFile,
			&startedAt, &finishedAt, &run.ItemsTotal, &run.ItemsOpen,
			&run.ItemsClosed, &run.ItemsPending); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		if run.StartedAt, err = parseTime(startedAt); err != nil {
			return nil, fmt.Errorf("run %s: started_at: %w", run.ID, err)
		}
		if run.FinishedAt, err = parseTime(finishedAt); err != nil {
			return nil, fmt.Errorf("run %s: finished_at: %w", run.ID, err)
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

// ProcessedFiles returns the set of input files already consumed.
func (r *RunStateRepository) ProcessedFiles(ctx context.Context) (map[string]bool, error) {
	rows, err := r.store.db.QueryContext(ctx, `SELECT filename FROM processed_files`)
	if err != nil {
		return nil, fmt.Errorf("querying processed files: %w", err)
	}
	defer rows.Close()

	out := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning processed file: %w", err)
		}
		out[name] = true
	}
	return out, rows.Err()
}

// MarkProcessed records an input file as consumed. Re-marking is a no-op.
func (r *RunStateRepository) MarkProcessed(ctx context.Context, filename string) error {
	_, err := r.store.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO processed_files (filename) VALUES (?)`, filename)
	if err != nil {
		return fmt.Errorf("marking %s processed: %w", filename, err)
	}
	return nil
}
