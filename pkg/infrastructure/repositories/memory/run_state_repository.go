package memory

import (
	"context"
	"sync"

	"github.com/emmanuel-ch/Product-Trailer/pkg/domain/repositories"
)

// RunStateRepository keeps run bookkeeping in memory.
type RunStateRepository struct {
	mu        sync.RWMutex
	runs      []repositories.RunRecord
	processed map[string]bool
}

// NewRunStateRepository creates an empty in-memory run-state repository.
func NewRunStateRepository() *RunStateRepository {
	return &RunStateRepository{processed: make(map[string]bool)}
}

// Verify interface compliance
var _ repositories.RunStateRepository = (*RunStateRepository)(nil)

// RunCount returns the number of recorded runs.
func (r *RunStateRepository) RunCount(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.runs), nil
}

// RecordRun appends a run to the history.
func (r *RunStateRepository) RecordRun(ctx context.Context, run repositories.RunRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, run)
	return nil
}

// Runs returns the recorded run history.
func (r *RunStateRepository) Runs() []repositories.RunRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]repositories.RunRecord, len(r.runs))
	copy(out, r.runs)
	return out
}

// ProcessedFiles returns the set of input files already consumed.
func (r *RunStateRepository) ProcessedFiles(ctx context.Context) (map[string]bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]bool, len(r.processed))
	for k, v := range r.processed {
		out[k] = v
	}
	return out, nil
}

// MarkProcessed records an input file as consumed.
func (r *RunStateRepository) MarkProcessed(ctx context.Context, filename string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.processed[filename] = true
	return nil
}
