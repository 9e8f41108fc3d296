package entities

import (
	"github.com/shopspring/decimal"
)

// SKU represents a unique product identifier
type SKU string

// Quantity represents an integer quantity value for discrete product units
type Quantity int64

// LifecycleState represents the tracking state of an item
type LifecycleState int

const (
	// Open means the item is still moving and will be fed to the tracker again.
	Open LifecycleState = iota
	// Closed means the item reached a terminal state (consumed, lost or sold).
	Closed
	// PendingReceipt means the item left on a purchase order whose receipt
	// side has not appeared in the ledger yet. It is retried on the next run.
	PendingReceipt
)

// String method for LifecycleState enum
func (s LifecycleState) String() string {
	switch s {
	case Open:
		return "Open"
	case Closed:
		return "Closed"
	case PendingReceipt:
		return "PendingReceipt"
	default:
		return "Unknown"
	}
}

// ParseLifecycleState converts a stored state name back to its enum value.
func ParseLifecycleState(s string) (LifecycleState, bool) {
	switch s {
	case "Open":
		return Open, true
	case "Closed":
		return Closed, true
	case "PendingReceipt":
		return PendingReceipt, true
	default:
		return Open, false
	}
}

// TrackedItem represents a traceable quantity of one SKU moving through the
// distribution network. Split children share the parent's waypoint history up
// to the split point and append a hierarchical ".n" or ".n.m" id suffix.
type TrackedItem struct {
	ID        string
	Country   string
	SKU       SKU
	Qty       Quantity
	State     LifecycleState
	Waypoints []Waypoint
	UnitValue decimal.Decimal
	Brand     string
	Category  string
}

// Clone returns a deep copy of the item. Waypoints are copied so that a split
// child can rewrite its own history without touching its siblings.
func (t *TrackedItem) Clone() *TrackedItem {
	c := *t
	c.Waypoints = make([]Waypoint, len(t.Waypoints))
	copy(c.Waypoints, t.Waypoints)
	return &c
}

// LastWaypoint returns the most recent waypoint. Waypoint histories are never
// empty: extraction seeds every item with its entry point.
func (t *TrackedItem) LastWaypoint() Waypoint {
	return t.Waypoints[len(t.Waypoints)-1]
}

// Equal reports whether two items are indistinguishable, including their full
// waypoint history. The tracker uses this to detect items that did not travel.
func (t *TrackedItem) Equal(o *TrackedItem) bool {
	if t.ID != o.ID || t.Country != o.Country || t.SKU != o.SKU ||
		t.Qty != o.Qty || t.State != o.State ||
		t.Brand != o.Brand || t.Category != o.Category {
		return false
	}
	if !t.UnitValue.Equal(o.UnitValue) {
		return false
	}
	if len(t.Waypoints) != len(o.Waypoints) {
		return false
	}
	for i := range t.Waypoints {
		if !t.Waypoints[i].Equal(o.Waypoints[i]) {
			return false
		}
	}
	return true
}
