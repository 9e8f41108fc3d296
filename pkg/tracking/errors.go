package tracking

import "errors"

var (
	// ErrOverAllocation reports that the quantity consumed across matched
	// decrement lines exceeded the item's quantity. This is a ledger or
	// algorithm defect and aborts the run instead of being clamped.
	ErrOverAllocation = errors.New("decrement coverage exceeds item quantity")

	// ErrLineOverdraw reports an attempt to allocate more of a ledger line
	// than its remaining unallocated quantity.
	ErrLineOverdraw = errors.New("allocation exceeds unallocated quantity")

	// ErrRouteTooDeep reports that route resolution exceeded the configured
	// depth limit, which indicates a pathological (circular) ledger.
	ErrRouteTooDeep = errors.New("route resolution exceeded depth limit")
)
