package tracking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emmanuel-ch/Product-Trailer/pkg/domain/entities"
)

func track(t *testing.T, lines []entities.MovementLine, items ...*entities.TrackedItem) []*entities.TrackedItem {
	t.Helper()
	out, err := NewForwardTracker(NewLedger(lines)).Track(items)
	require.NoError(t, err)
	return out
}

func TestTrackEmptyLedgerReturnsItemsUntouched(t *testing.T) {
	item := seedItem("item-a", 1, seedWaypoint())
	out := track(t, nil, item)

	require.Len(t, out, 1)
	assert.Same(t, item, out[0])
}

func TestTrackSimpleTransfer(t *testing.T) {
	item := seedItem("item-a", 1, seedWaypoint())
	out := track(t, []entities.MovementLine{
		ml(day(1), "FR01", "D1", "", "632", "NA", "C1", "B1", -1),
		ml(day(1), "FR01", "D1", "", "632", "W01", "C1", "B1", 1),
	}, item)

	require.Len(t, out, 1)
	got := out[0]
	assert.Equal(t, "item-a", got.ID)
	assert.Equal(t, entities.Open, got.State)
	assert.EqualValues(t, 1, got.Qty)
	require.Len(t, got.Waypoints, 2)

	// The seed waypoint sheds its date and movement code on the first hop.
	assert.True(t, got.Waypoints[0].Date.IsZero())
	assert.Empty(t, got.Waypoints[0].MovementCode)
	assert.Equal(t, "C1", got.Waypoints[0].Counterparty)

	// Arrival outside consignment drops the counterparty.
	arrived := got.Waypoints[1]
	assert.Equal(t, "W01", arrived.Location)
	assert.Empty(t, arrived.Counterparty)
	assert.Equal(t, "632", arrived.MovementCode)
	assert.Equal(t, day(1), arrived.Date)
}

func TestTrackTwoTransfers(t *testing.T) {
	item := seedItem("item-a", 1, seedWaypoint())
	out := track(t, []entities.MovementLine{
		ml(day(1), "FR01", "D1", "", "632", "NA", "C1", "B1", -1),
		ml(day(1), "FR01", "D1", "", "632", "W01", "C1", "B1", 1),
		ml(day(2), "FR01", "D2", "", "641", "W01", "", "B1", -1),
		ml(day(2), "FR01", "D2", "", "641", "W02", "", "B1", 1),
	}, item)

	require.Len(t, out, 1)
	got := out[0]
	assert.Equal(t, entities.Open, got.State)
	require.Len(t, got.Waypoints, 3)
	assert.Equal(t, "W02", got.Waypoints[2].Location)
	assert.Equal(t, "641", got.Waypoints[2].MovementCode)
}

func TestTrackTransferToOtherBatch(t *testing.T) {
	// No increment carries the item's batch: the widened search matches the
	// same document under another batch.
	item := seedItem("item-a", 1, seedWaypoint())
	out := track(t, []entities.MovementLine{
		ml(day(1), "FR01", "D1", "", "632", "NA", "C1", "B1", -1),
		ml(day(1), "FR01", "D1", "", "632", "W01", "C1", "B2", 1),
	}, item)

	require.Len(t, out, 1)
	require.Len(t, out[0].Waypoints, 2)
	assert.Equal(t, "B2", out[0].Waypoints[1].Batch)
	assert.Equal(t, entities.Open, out[0].State)
}

func TestTrackBurntWhenNoIncrementFound(t *testing.T) {
	item := seedItem("item-a", 1, seedWaypoint())
	out := track(t, []entities.MovementLine{
		ml(day(1), "FR01", "D1", "", "632", "NA", "C1", "B1", -1),
	}, item)

	require.Len(t, out, 1)
	got := out[0]
	assert.Equal(t, entities.Closed, got.State)
	require.Len(t, got.Waypoints, 2)
	assert.Equal(t, "BURNT NA", got.Waypoints[1].Location)
	assert.Equal(t, "632", got.Waypoints[1].MovementCode)

	// A burnt hop keeps the seed waypoint intact.
	assert.Equal(t, day(1), got.Waypoints[0].Date)
	assert.Equal(t, "632", got.Waypoints[0].MovementCode)
}

func TestTrackCounterpartyChange(t *testing.T) {
	wpt := seedWaypoint()
	wpt.MovementCode = "956"
	item := seedItem("item-a", 1, wpt)

	out := track(t, []entities.MovementLine{
		ml(day(1), "FR01", "D1", "", "956", "NA", "C1", "B1", -1),
		ml(day(1), "FR01", "D2", "", "955", "NA", "C2", "B1", 1),
	}, item)

	require.Len(t, out, 1)
	got := out[0]
	assert.Equal(t, entities.Open, got.State)
	require.Len(t, got.Waypoints, 2)

	arrived := got.Waypoints[1]
	assert.Equal(t, "956/955", arrived.MovementCode)
	// Consignment arrival keeps the new counterparty.
	assert.Equal(t, "NA", arrived.Location)
	assert.Equal(t, "C2", arrived.Counterparty)
}

func TestTrackBatchChange(t *testing.T) {
	item := seedItem("item-a", 1, seedWaypoint())
	item.Waypoints = []entities.Waypoint{
		{Company: "FR01", Location: "NA", Counterparty: "C1", Batch: "B1"},
		{Date: day(1), Company: "FR01", Location: "W01", MovementCode: "632", Batch: "B1"},
	}

	out := track(t, []entities.MovementLine{
		ml(day(2), "FR01", "D1", "", "702", "W01", "", "B1", -1),
		ml(day(2), "FR01", "D2", "", "701", "W01", "", "B2", 1),
	}, item)

	require.Len(t, out, 1)
	got := out[0]
	require.Len(t, got.Waypoints, 3)
	assert.Equal(t, "702/701", got.Waypoints[2].MovementCode)
	assert.Equal(t, "B2", got.Waypoints[2].Batch)
	assert.Equal(t, "W01", got.Waypoints[2].Location)
}

func TestTrackPurchaseOrderMatchedInSameRun(t *testing.T) {
	item := seedItem("item-a", 1, seedWaypoint())
	out := track(t, []entities.MovementLine{
		ml(day(1), "FR01", "D1", "", "632", "NA", "C1", "B1", -1),
		ml(day(1), "FR01", "D1", "", "632", "W01", "C1", "B1", 1),
		ml(day(2), "FR01", "D2", "PO-7", "161", "W01", "", "B1", -1),
		ml(day(4), "FR02", "D3", "PO-7", "673", "W02", "", "B1", 1),
	}, item)

	require.Len(t, out, 1)
	got := out[0]
	assert.Equal(t, entities.Open, got.State)
	require.Len(t, got.Waypoints, 3)
	assert.Equal(t, "161/673", got.Waypoints[2].MovementCode)
	assert.Equal(t, "W02", got.Waypoints[2].Location)
	assert.Equal(t, day(4), got.Waypoints[2].Date)
}

func TestTrackPurchaseOrderWithoutReceiptParks(t *testing.T) {
	item := seedItem("item-a", 1, seedWaypoint())
	out := track(t, []entities.MovementLine{
		ml(day(1), "FR01", "D1", "", "632", "NA", "C1", "B1", -1),
		ml(day(1), "FR01", "D1", "", "632", "W01", "C1", "B1", 1),
		ml(day(2), "FR01", "D2", "PO-7", "161", "W01", "", "B1", -1),
	}, item)

	require.Len(t, out, 1)
	got := out[0]
	assert.Equal(t, entities.PendingReceipt, got.State)
	require.Len(t, got.Waypoints, 3)

	parked := got.Waypoints[2]
	assert.Equal(t, "PO FROM W01, mvt 161", parked.Location)
	// The movement-code slot carries the PO number for the retry.
	assert.Equal(t, "PO-7", parked.MovementCode)
	assert.Equal(t, day(2), parked.Date)
}

func TestTrackPendingReceiptResolvedOnLaterRun(t *testing.T) {
	item := seedItem("item-a", 1, seedWaypoint())
	item.State = entities.PendingReceipt
	item.Waypoints = []entities.Waypoint{
		{Company: "FR01", Location: "NA", Counterparty: "C1", Batch: "B1"},
		{Date: day(2), Company: "FR01", Location: "PO FROM W01, mvt 161", MovementCode: "PO-7", Batch: "B1"},
	}

	out := track(t, []entities.MovementLine{
		ml(day(5), "FR02", "D9", "PO-7", "673", "W02", "", "B1", 1),
	}, item)

	require.Len(t, out, 1)
	got := out[0]
	assert.Equal(t, entities.Open, got.State)
	require.Len(t, got.Waypoints, 3)
	assert.Equal(t, "W02", got.Waypoints[2].Location)
	assert.Equal(t, "PO/673", got.Waypoints[2].MovementCode)
}

func TestTrackPendingReceiptStillMissingStaysParked(t *testing.T) {
	item := seedItem("item-a", 1, seedWaypoint())
	item.State = entities.PendingReceipt
	item.Waypoints = []entities.Waypoint{
		{Company: "FR01", Location: "NA", Counterparty: "C1", Batch: "B1"},
		{Date: day(2), Company: "FR01", Location: "PO FROM W01, mvt 161", MovementCode: "PO-7", Batch: "B1"},
	}

	out := track(t, []entities.MovementLine{
		ml(day(5), "FR02", "D9", "PO-8", "673", "W02", "", "B1", 1),
	}, item)

	require.Len(t, out, 1)
	got := out[0]
	assert.Equal(t, entities.PendingReceipt, got.State)
	assert.Len(t, got.Waypoints, 2, "no duplicate parked waypoint")
}

func TestTrackReentrySuppressed(t *testing.T) {
	// A first-hop item whose entry point matches no decrement line is the
	// re-extraction of an already tracked product: it is dropped.
	item := seedItem("item-a", 1, seedWaypoint())
	out := track(t, []entities.MovementLine{
		ml(day(9), "FR09", "D1", "", "601", "W09", "", "B9", -1),
	}, item)

	assert.Empty(t, out)
}

func TestTrackLongRouteEndsBurnt(t *testing.T) {
	item := seedItem("item-a", 1, seedWaypoint())
	out := track(t, []entities.MovementLine{
		ml(day(1), "FR01", "D1", "", "632", "NA", "C1", "B1", -1),
		ml(day(1), "FR01", "D1", "", "632", "W01", "C1", "B1", 1),
		ml(day(2), "FR01", "D2", "", "641", "W01", "", "B1", -1),
		ml(day(2), "FR01", "D2", "", "641", "W02", "", "B1", 1),
		ml(day(3), "FR01", "D3", "", "601", "W02", "", "B1", -1),
	}, item)

	require.Len(t, out, 1)
	got := out[0]
	assert.Equal(t, entities.Closed, got.State)
	require.Len(t, got.Waypoints, 4)
	assert.Equal(t, "BURNT W02", got.Waypoints[3].Location)
}

func TestTrackSplitAcrossTwoDecrements(t *testing.T) {
	wpt := seedWaypoint()
	item := seedItem("item-a", 4, wpt)

	out := track(t, []entities.MovementLine{
		ml(day(1), "FR01", "D1", "", "632", "NA", "C1", "B1", -3),
		ml(day(1), "FR01", "D1", "", "632", "W01", "C1", "B1", 3),
		ml(day(1), "FR01", "D2", "", "632", "NA", "C1", "B1", -1),
	}, item)

	require.Len(t, out, 2)

	transferred := out[0]
	assert.Equal(t, "item-a.0", transferred.ID)
	assert.EqualValues(t, 3, transferred.Qty)
	assert.Equal(t, entities.Open, transferred.State)
	require.Len(t, transferred.Waypoints, 2)
	assert.Equal(t, "W01", transferred.Waypoints[1].Location)

	burnt := out[1]
	assert.Equal(t, "item-a.1", burnt.ID)
	assert.EqualValues(t, 1, burnt.Qty)
	assert.Equal(t, entities.Closed, burnt.State)
	require.Len(t, burnt.Waypoints, 2)
	assert.Equal(t, "BURNT NA", burnt.Waypoints[1].Location)
}

func TestTrackSplitAcrossTwoIncrements(t *testing.T) {
	item := seedItem("item-a", 2, seedWaypoint())
	out := track(t, []entities.MovementLine{
		ml(day(1), "FR01", "D1", "", "632", "NA", "C1", "B1", -2),
		ml(day(1), "FR01", "D1", "", "632", "W01", "C1", "B1", 1),
		ml(day(1), "FR01", "D1", "", "632", "W02", "C1", "B1", 1),
	}, item)

	require.Len(t, out, 2)
	assert.Equal(t, "item-a.0", out[0].ID)
	assert.Equal(t, "W01", out[0].Waypoints[1].Location)
	assert.Equal(t, "item-a.1", out[1].ID)
	assert.Equal(t, "W02", out[1].Waypoints[1].Location)
	for _, got := range out {
		assert.EqualValues(t, 1, got.Qty)
		assert.Equal(t, entities.Open, got.State)
	}
}

func TestTrackPartialIncrementBurnsRemainder(t *testing.T) {
	// 2 units left but only 1 arrived anywhere: the missing unit is burnt.
	item := seedItem("item-a", 2, seedWaypoint())
	out := track(t, []entities.MovementLine{
		ml(day(1), "FR01", "D1", "", "632", "NA", "C1", "B1", -2),
		ml(day(1), "FR01", "D1", "", "632", "W01", "C1", "B1", 1),
	}, item)

	require.Len(t, out, 2)
	assert.Equal(t, entities.Open, out[0].State)
	assert.Equal(t, "W01", out[0].Waypoints[1].Location)
	assert.Equal(t, entities.Closed, out[1].State)
	assert.Equal(t, "BURNT NA", out[1].Waypoints[1].Location)
}

func TestTrackDepthGuard(t *testing.T) {
	item := seedItem("item-a", 1, seedWaypoint())
	tracker := NewForwardTrackerWithConfig(NewLedger([]entities.MovementLine{
		ml(day(1), "FR01", "D1", "", "632", "NA", "C1", "B1", -1),
		ml(day(1), "FR01", "D1", "", "632", "W01", "C1", "B1", 1),
	}), TrackerConfig{MaxRouteDepth: 1})

	_, err := tracker.Track([]*entities.TrackedItem{item})
	require.ErrorIs(t, err, ErrRouteTooDeep)
}

func TestTrackAllocationsRecorded(t *testing.T) {
	ledger := NewLedger([]entities.MovementLine{
		ml(day(1), "FR01", "D1", "", "632", "NA", "C1", "B1", -1),
		ml(day(1), "FR01", "D1", "", "632", "W01", "C1", "B1", 1),
	})
	item := seedItem("item-a", 1, seedWaypoint())

	_, err := NewForwardTracker(ledger).Track([]*entities.TrackedItem{item})
	require.NoError(t, err)

	allocs := ledger.Allocations()
	require.Len(t, allocs, 2)
	for _, a := range allocs {
		assert.EqualValues(t, 0, a.Unallocated)
		assert.Equal(t, []string{"item-a"}, a.ItemIDs)
	}
}

func TestTrackDoesNotTravelBackInTime(t *testing.T) {
	item := seedItem("item-a", 1, seedWaypoint())
	item.Waypoints = []entities.Waypoint{
		{Company: "FR01", Location: "NA", Counterparty: "C1", Batch: "B1"},
		{Date: day(5), Company: "FR01", Location: "W01", MovementCode: "632", Batch: "B1"},
	}

	// The only decrement from W01 predates the item's arrival there.
	out := track(t, []entities.MovementLine{
		ml(day(3), "FR01", "D1", "", "641", "W01", "", "B1", -1),
	}, item)

	require.Len(t, out, 1)
	assert.Len(t, out[0].Waypoints, 2)
	assert.Equal(t, entities.Open, out[0].State)
}
