package tracking

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/emmanuel-ch/Product-Trailer/pkg/domain/entities"
)

// Task is one unit of tracking work: the items of one SKU together with that
// SKU's slice of the ledger. SKUs never match across each other, so tasks are
// fully independent.
type Task struct {
	SKU    entities.SKU
	Items  []*entities.TrackedItem
	Ledger *Ledger
}

// Result is the aggregated output of a scheduler run.
type Result struct {
	// Items holds every item after tracking: closed items passed through
	// first, then each task's output in task order.
	Items []*entities.TrackedItem
	// Ledgers holds each task's ledger with its final allocation state,
	// keyed by SKU, for the optional movement audit trail.
	Ledgers map[entities.SKU]*Ledger
}

// Scheduler partitions items and ledger lines by SKU and resolves the
// partitions on a bounded pool of workers. Output order is deterministic
// regardless of worker interleaving.
type Scheduler struct {
	workers int
	config  TrackerConfig
	logger  *zap.Logger
}

// NewScheduler creates a scheduler with one worker per CPU.
func NewScheduler(logger *zap.Logger) *Scheduler {
	return NewSchedulerWithConfig(logger, runtime.NumCPU(), DefaultTrackerConfig())
}

// NewSchedulerWithConfig creates a scheduler with a custom worker count and
// tracker configuration.
func NewSchedulerWithConfig(logger *zap.Logger, workers int, config TrackerConfig) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if workers < 1 {
		workers = 1
	}
	return &Scheduler{workers: workers, config: config, logger: logger}
}

// Partition splits the items and ledger lines into per-SKU tasks, ordered by
// SKU. Closed items need no tracking and are returned separately for
// pass-through. Ledger lines for SKUs without open items are dropped.
func (s *Scheduler) Partition(items []*entities.TrackedItem, lines []entities.MovementLine) ([]Task, []*entities.TrackedItem) {
	var done []*entities.TrackedItem
	todoBySKU := make(map[entities.SKU][]*entities.TrackedItem)
	for _, item := range items {
		if item.State == entities.Closed {
			done = append(done, item)
			continue
		}
		todoBySKU[item.SKU] = append(todoBySKU[item.SKU], item)
	}

	linesBySKU := make(map[entities.SKU][]entities.MovementLine)
	for _, line := range lines {
		if _, ok := todoBySKU[line.SKU]; ok {
			linesBySKU[line.SKU] = append(linesBySKU[line.SKU], line)
		}
	}

	skus := make([]entities.SKU, 0, len(todoBySKU))
	for sku := range todoBySKU {
		skus = append(skus, sku)
	}
	sort.Slice(skus, func(i, j int) bool { return skus[i] < skus[j] })

	tasks := make([]Task, 0, len(skus))
	for _, sku := range skus {
		tasks = append(tasks, Task{
			SKU:    sku,
			Items:  todoBySKU[sku],
			Ledger: NewLedger(linesBySKU[sku]),
		})
	}
	return tasks, done
}

// Run partitions the input and tracks every partition to completion. The
// first tracking error aborts the run.
func (s *Scheduler) Run(ctx context.Context, items []*entities.TrackedItem, lines []entities.MovementLine) (*Result, error) {
	tasks, done := s.Partition(items, lines)
	s.logger.Info("scheduling tracking tasks",
		zap.Int("tasks", len(tasks)),
		zap.Int("items", len(items)),
		zap.Int("movements", len(lines)),
		zap.Int("workers", s.workers))

	outputs := make([][]*entities.TrackedItem, len(tasks))
	jobs := make(chan int)

	var (
		wg       sync.WaitGroup
		errMu    sync.Mutex
		firstErr error
	)
	setErr := func(err error) {
		errMu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		errMu.Unlock()
	}

	for w := 0; w < s.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				task := tasks[idx]
				tracker := NewForwardTrackerWithConfig(task.Ledger, s.config)
				tracked, err := tracker.Track(task.Items)
				if err != nil {
					setErr(fmt.Errorf("sku %s: %w", task.SKU, err))
					continue
				}
				outputs[idx] = tracked
				s.logger.Debug("task complete",
					zap.String("sku", string(task.SKU)),
					zap.Int("items_in", len(task.Items)),
					zap.Int("items_out", len(tracked)))
			}
		}()
	}

	dispatch := func() error {
		defer close(jobs)
		for i := range tasks {
			if err := ctx.Err(); err != nil {
				return err
			}
			select {
			case jobs <- i:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	}
	ctxErr := dispatch()
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if ctxErr != nil {
		return nil, ctxErr
	}

	result := &Result{
		Items:   done,
		Ledgers: make(map[entities.SKU]*Ledger, len(tasks)),
	}
	for i, task := range tasks {
		result.Items = append(result.Items, outputs[i]...)
		result.Ledgers[task.SKU] = task.Ledger
	}
	return result, nil
}
