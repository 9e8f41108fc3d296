package entities

import (
	"strings"
	"time"
)

const (
	// ConsignmentLocation marks stock held at a customer rather than in a
	// storage location. Movements at this location keep their counterparty.
	ConsignmentLocation = "NA"

	// BurntPrefix marks a synthetic waypoint for quantity that could not be
	// matched to any later movement and is assumed consumed or lost.
	BurntPrefix = "BURNT "

	// AwaitingReceiptPrefix marks a synthetic waypoint for quantity that left
	// on a purchase order whose receipt line is not in the ledger yet.
	AwaitingReceiptPrefix = "PO FROM "
)

// Waypoint is one recorded location/event in an item's history. Position 0 is
// the entry point; each later position is the outcome of one hop.
type Waypoint struct {
	Date         time.Time
	Company      string
	Location     string
	Counterparty string
	MovementCode string
	Batch        string
}

// Equal reports field-wise equality. Dates compare by instant, not location.
func (w Waypoint) Equal(o Waypoint) bool {
	return w.Date.Equal(o.Date) &&
		w.Company == o.Company &&
		w.Location == o.Location &&
		w.Counterparty == o.Counterparty &&
		w.MovementCode == o.MovementCode &&
		w.Batch == o.Batch
}

// IsConsignment reports whether the waypoint sits at a consignment location.
func (w Waypoint) IsConsignment() bool {
	return w.Location == ConsignmentLocation
}

// AwaitingReceipt reports whether this is a synthetic "waiting for the PO
// receipt" waypoint. For those, the movement-code field carries the PO number.
func (w Waypoint) AwaitingReceipt() bool {
	return strings.HasPrefix(w.Location, AwaitingReceiptPrefix)
}

// Burnt reports whether this is a synthetic terminal waypoint.
func (w Waypoint) Burnt() bool {
	return strings.HasPrefix(w.Location, BurntPrefix)
}
