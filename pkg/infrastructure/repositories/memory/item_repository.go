// Package memory provides in-memory repository implementations, used by tests
// and by runs that do not need persistence between invocations.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/emmanuel-ch/Product-Trailer/pkg/domain/entities"
	"github.com/emmanuel-ch/Product-Trailer/pkg/domain/repositories"
)

// ItemRepository keeps tracked items and the movement audit trail in memory.
type ItemRepository struct {
	mu        sync.RWMutex
	items     []*entities.TrackedItem
	movements []entities.MovementAllocation
}

// NewItemRepository creates an empty in-memory item repository.
func NewItemRepository() *ItemRepository {
	return &ItemRepository{}
}

// Verify interface compliance
var _ repositories.ItemRepository = (*ItemRepository)(nil)

// FetchAll returns every stored item, ordered by id.
func (r *ItemRepository) FetchAll(ctx context.Context) ([]*entities.TrackedItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*entities.TrackedItem, 0, len(r.items))
	for _, item := range r.items {
		out = append(out, item.Clone())
	}
	sortByID(out)
	return out, nil
}

// FetchActive returns the Open and PendingReceipt items, ordered by id.
func (r *ItemRepository) FetchActive(ctx context.Context) ([]*entities.TrackedItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*entities.TrackedItem
	for _, item := range r.items {
		if item.State != entities.Closed {
			out = append(out, item.Clone())
		}
	}
	sortByID(out)
	return out, nil
}

// SaveItems replaces the stored item set with the given snapshot.
func (r *ItemRepository) SaveItems(ctx context.Context, runID string, items []*entities.TrackedItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = make([]*entities.TrackedItem, 0, len(items))
	for _, item := range items {
		r.items = append(r.items, item.Clone())
	}
	return nil
}

// SaveMovements appends the run's ledger allocation state to the audit trail.
func (r *ItemRepository) SaveMovements(ctx context.Context, runID string, movements []entities.MovementAllocation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.movements = append(r.movements, movements...)
	return nil
}

// Movements returns the accumulated audit trail.
func (r *ItemRepository) Movements() []entities.MovementAllocation {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]entities.MovementAllocation, len(r.movements))
	copy(out, r.movements)
	return out
}

func sortByID(items []*entities.TrackedItem) {
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
}
