package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emmanuel-ch/Product-Trailer/pkg/domain/entities"
	"github.com/emmanuel-ch/Product-Trailer/pkg/domain/repositories"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func storedItem() *entities.TrackedItem {
	return &entities.TrackedItem{
		ID:        "_FR01/NA/C123456_632/2023-01-01_SKU-1:B1",
		Country:   "FR",
		SKU:       "SKU-1",
		Qty:       2,
		State:     entities.PendingReceipt,
		UnitValue: decimal.RequireFromString("12.50"),
		Brand:     "BrandA",
		Category:  "CatA",
		Waypoints: []entities.Waypoint{
			{Company: "FR01", Location: "NA", Counterparty: "C1", Batch: "B1"},
			{
				Date:         time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC),
				Company:      "FR01",
				Location:     "PO FROM W01, mvt 161",
				MovementCode: "PO-7",
				Batch:        "B1",
			},
		},
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	store, err = Open(path)
	require.NoError(t, err)
	assert.NoError(t, store.Close())
}

func TestItemRepositoryRoundTrip(t *testing.T) {
	store := openTestStore(t)
	repo := NewItemRepository(store)
	ctx := context.Background()

	want := storedItem()
	require.NoError(t, repo.SaveItems(ctx, "run-1", []*entities.TrackedItem{want}))

	got, err := repo.FetchAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, want.Equal(got[0]), "round trip must preserve the item")

	// The zero waypoint date survives as a zero time.
	assert.True(t, got[0].Waypoints[0].Date.IsZero())

	active, err := repo.FetchActive(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 1, "PendingReceipt counts as active")
}

func TestItemRepositorySnapshotReplaces(t *testing.T) {
	store := openTestStore(t)
	repo := NewItemRepository(store)
	ctx := context.Background()

	first := storedItem()
	require.NoError(t, repo.SaveItems(ctx, "run-1", []*entities.TrackedItem{first}))

	second := storedItem()
	second.ID = first.ID + ".0"
	second.State = entities.Closed
	require.NoError(t, repo.SaveItems(ctx, "run-2", []*entities.TrackedItem{second}))

	all, err := repo.FetchAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, second.ID, all[0].ID)

	active, err := repo.FetchActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestItemRepositoryMovementAuditTrail(t *testing.T) {
	store := openTestStore(t)
	repo := NewItemRepository(store)
	ctx := context.Background()

	line := entities.MovementLine{
		Date:         time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		Company:      "FR01",
		Country:      "FR",
		Document:     "D1",
		PO:           "PO-7",
		SpecialStock: "K",
		MovementCode: "632",
		Location:     "NA",
		Counterparty: "C1",
		Brand:        "BrandA",
		Category:     "CatA",
		SKU:          "SKU-1",
		Batch:        "B1",
		Qty:          -2,
		UnitValue:    decimal.RequireFromString("12.50"),
	}
	saved := []entities.MovementAllocation{
		{Line: line, Unallocated: 1, ItemIDs: []string{"item-a", "item-b"}},
	}
	require.NoError(t, repo.SaveMovements(ctx, "run-1", saved))

	got, err := repo.MovementsForRun(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "D1", got[0].Line.Document)
	assert.Equal(t, entities.PONumber("PO-7"), got[0].Line.PO)
	assert.EqualValues(t, 1, got[0].Unallocated)
	assert.Equal(t, []string{"item-a", "item-b"}, got[0].ItemIDs)
	assert.True(t, got[0].Line.UnitValue.Equal(line.UnitValue))

	missing, err := repo.MovementsForRun(ctx, "run-9")
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestRunStateRepositoryPersists(t *testing.T) {
	store := openTestStore(t)
	repo := NewRunStateRepository(store)
	ctx := context.Background()

	n, err := repo.RunCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	run := repositories.RunRecord{
		ID:           "run-1",
		Profile:      "default",
		InputFile:    "extract.csv",
		StartedAt:    time.Date(2023, 1, 1, 10, 0, 0, 0, time.UTC),
		FinishedAt:   time.Date(2023, 1, 1, 10, 0, 5, 0, time.UTC),
		ItemsTotal:   3,
		ItemsOpen:    1,
		ItemsClosed:  1,
		ItemsPending: 1,
	}
	require.NoError(t, repo.RecordRun(ctx, run))

	n, err = repo.RunCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	runs, err := repo.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, run, runs[0])

	require.NoError(t, repo.MarkProcessed(ctx, "extract.csv"))
	require.NoError(t, repo.MarkProcessed(ctx, "extract.csv"))
	processed, err := repo.ProcessedFiles(ctx)
	require.NoError(t, err)
	assert.Len(t, processed, 1)
	assert.True(t, processed["extract.csv"])
}
