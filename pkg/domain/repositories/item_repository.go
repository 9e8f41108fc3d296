package repositories

import (
	"context"

	"github.com/emmanuel-ch/Product-Trailer/pkg/domain/entities"
)

// ItemRepository provides access to tracked items persisted between runs.
type ItemRepository interface {
	// FetchAll returns every persisted item, ordered by id.
	FetchAll(ctx context.Context) ([]*entities.TrackedItem, error)

	// FetchActive returns the items that still need tracking on the next run:
	// Open and PendingReceipt, ordered by id.
	FetchActive(ctx context.Context) ([]*entities.TrackedItem, error)

	// SaveItems replaces the persisted item set with the given snapshot.
	SaveItems(ctx context.Context, runID string, items []*entities.TrackedItem) error

	// SaveMovements appends the final allocation state of a run's ledger to
	// the movement audit trail.
	SaveMovements(ctx context.Context, runID string, movements []entities.MovementAllocation) error
}
