// Package services wires the tracking engine to its inputs and outputs: raw
// movement extracts on one side, the item and run-state repositories on the
// other.
package services

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/emmanuel-ch/Product-Trailer/pkg/domain/entities"
	"github.com/emmanuel-ch/Product-Trailer/pkg/domain/repositories"
	"github.com/emmanuel-ch/Product-Trailer/pkg/infrastructure/profile"
	"github.com/emmanuel-ch/Product-Trailer/pkg/tracking"
)

// MovementSource loads a raw movement extract into movement lines.
type MovementSource interface {
	Load(path string) ([]entities.MovementLine, error)
}

// RunSummary reports what one processed input file did to the item set.
type RunSummary struct {
	RunID        string
	InputFile    string
	ItemsNew     int
	ItemsTotal   int
	ItemsOpen    int
	ItemsClosed  int
	ItemsPending int
}

// TrackingService runs the full pipeline for one profile: load an extract,
// extract new items, route everything, persist the result.
type TrackingService struct {
	profile   *profile.Profile
	source    MovementSource
	items     repositories.ItemRepository
	runs      repositories.RunStateRepository
	scheduler *tracking.Scheduler
	logger    *zap.Logger
}

// NewTrackingService assembles the pipeline. A nil logger disables logging.
func NewTrackingService(
	p *profile.Profile,
	source MovementSource,
	items repositories.ItemRepository,
	runs repositories.RunStateRepository,
	scheduler *tracking.Scheduler,
	logger *zap.Logger,
) *TrackingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TrackingService{
		profile:   p,
		source:    source,
		items:     items,
		runs:      runs,
		scheduler: scheduler,
		logger:    logger,
	}
}

// ProcessDirectory processes every not-yet-consumed input file under dir
// matching the profile's file prefix, in lexical order. Feeding the same
// directory twice is a no-op.
func (s *TrackingService) ProcessDirectory(ctx context.Context, dir string) ([]RunSummary, error) {
	pattern := filepath.Join(dir, s.profile.Config.Input.FilePrefix+"*")
	candidates, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("globbing %s: %w", pattern, err)
	}
	processed, err := s.runs.ProcessedFiles(ctx)
	if err != nil {
		return nil, err
	}

	var todo []string
	for _, path := range candidates {
		if !processed[path] {
			todo = append(todo, path)
		}
	}
	sort.Strings(todo)

	s.logger.Info("scanning input directory",
		zap.String("dir", dir),
		zap.Int("candidates", len(candidates)),
		zap.Int("unprocessed", len(todo)))

	summaries := make([]RunSummary, 0, len(todo))
	for _, path := range todo {
		summary, err := s.ProcessFile(ctx, path)
		if err != nil {
			return summaries, fmt.Errorf("processing %s: %w", path, err)
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// ProcessFile runs the pipeline on one input file.
func (s *TrackingService) ProcessFile(ctx context.Context, path string) (RunSummary, error) {
	started := time.Now()
	runID := uuid.NewString()
	logger := s.logger.With(zap.String("run_id", runID), zap.String("file", path))

	lines, err := s.source.Load(path)
	if err != nil {
		return RunSummary{}, err
	}

	// The whole item set is carried over: closed items pass straight through
	// the scheduler and reappear in the saved snapshot.
	carried, err := s.items.FetchAll(ctx)
	if err != nil {
		return RunSummary{}, err
	}
	extracted := tracking.ExtractItems(lines, s.profile.Config.EntryPoint())
	fresh := dedupe(extracted, carried)

	logger.Info("extract loaded",
		zap.Int("movements", len(lines)),
		zap.Int("items_carried", len(carried)),
		zap.Int("items_new", len(fresh)),
		zap.Int("items_duplicate", len(extracted)-len(fresh)))

	result, err := s.scheduler.Run(ctx, append(carried, fresh...), lines)
	if err != nil {
		return RunSummary{}, err
	}

	if err := s.items.SaveItems(ctx, runID, result.Items); err != nil {
		return RunSummary{}, err
	}
	if s.profile.Config.Data.SaveMovements {
		if err := s.items.SaveMovements(ctx, runID, collectAllocations(result)); err != nil {
			return RunSummary{}, err
		}
	}
	if err := s.runs.MarkProcessed(ctx, path); err != nil {
		return RunSummary{}, err
	}

	summary := summarize(runID, path, result.Items)
	summary.ItemsNew = len(fresh)
	if err := s.runs.RecordRun(ctx, repositories.RunRecord{
		ID:           runID,
		Profile:      s.profile.Name,
		InputFile:    path,
		StartedAt:    started,
		FinishedAt:   time.Now(),
		ItemsTotal:   summary.ItemsTotal,
		ItemsOpen:    summary.ItemsOpen,
		ItemsClosed:  summary.ItemsClosed,
		ItemsPending: summary.ItemsPending,
	}); err != nil {
		return RunSummary{}, err
	}

	logger.Info("run complete",
		zap.Int("items_total", summary.ItemsTotal),
		zap.Int("items_open", summary.ItemsOpen),
		zap.Int("items_closed", summary.ItemsClosed),
		zap.Int("items_pending", summary.ItemsPending),
		zap.Duration("elapsed", time.Since(started)))
	return summary, nil
}

// dedupe drops extracted items whose id is already tracked. A product
// re-passing its entry point in a later extract would otherwise be registered
// twice.
func dedupe(extracted, carried []*entities.TrackedItem) []*entities.TrackedItem {
	known := make(map[string]struct{}, len(carried))
	for _, item := range carried {
		known[item.ID] = struct{}{}
	}
	out := make([]*entities.TrackedItem, 0, len(extracted))
	for _, item := range extracted {
		if _, dup := known[item.ID]; !dup {
			out = append(out, item)
		}
	}
	return out
}

func collectAllocations(result *tracking.Result) []entities.MovementAllocation {
	skus := make([]entities.SKU, 0, len(result.Ledgers))
	for sku := range result.Ledgers {
		skus = append(skus, sku)
	}
	sort.Slice(skus, func(i, j int) bool { return skus[i] < skus[j] })

	var out []entities.MovementAllocation
	for _, sku := range skus {
		out = append(out, result.Ledgers[sku].Allocations()...)
	}
	return out
}

func summarize(runID, path string, items []*entities.TrackedItem) RunSummary {
	summary := RunSummary{RunID: runID, InputFile: path, ItemsTotal: len(items)}
	for _, item := range items {
		switch item.State {
		case entities.Open:
			summary.ItemsOpen++
		case entities.Closed:
			summary.ItemsClosed++
		case entities.PendingReceipt:
			summary.ItemsPending++
		}
	}
	return summary
}
