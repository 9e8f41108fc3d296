package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// PONumber identifies a purchase order. The zero value means the movement is
// not tied to any purchase order.
type PONumber string

// Valid reports whether the movement carries a real purchase-order reference.
func (p PONumber) Valid() bool {
	return p != ""
}

// MovementLine is one inventory-movement ledger entry. A negative quantity
// records stock leaving a location (decrement), a positive one records stock
// arriving (increment).
type MovementLine struct {
	Date         time.Time
	Company      string
	Country      string
	Document     string
	PO           PONumber
	SpecialStock string
	MovementCode string
	Location     string
	Counterparty string
	Brand        string
	Category     string
	SKU          SKU
	Batch        string
	Qty          Quantity
	UnitValue    decimal.Decimal
}

// IsDecrement reports whether the line removes stock from a location.
func (m MovementLine) IsDecrement() bool {
	return m.Qty < 0
}

// IsIncrement reports whether the line adds stock to a location.
func (m MovementLine) IsIncrement() bool {
	return m.Qty > 0
}

// AbsQty returns the unsigned quantity moved by the line.
func (m MovementLine) AbsQty() Quantity {
	if m.Qty < 0 {
		return -m.Qty
	}
	return m.Qty
}

// Waypoint builds the waypoint snapshot recorded when an item lands on this
// line's location.
func (m MovementLine) Waypoint() Waypoint {
	return Waypoint{
		Date:         m.Date,
		Company:      m.Company,
		Location:     m.Location,
		Counterparty: m.Counterparty,
		MovementCode: m.MovementCode,
		Batch:        m.Batch,
	}
}

// MovementAllocation is the audit-trail view of a ledger line after tracking:
// the line itself, the quantity no item claimed, and the ids of every item
// matched against it.
type MovementAllocation struct {
	Line        MovementLine
	Unallocated Quantity
	ItemIDs     []string
}
