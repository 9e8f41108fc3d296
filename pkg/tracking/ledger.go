package tracking

import (
	"fmt"
	"sort"

	"github.com/emmanuel-ch/Product-Trailer/pkg/domain/entities"
)

// Ledger holds the movement lines of one run together with their allocation
// state. Lines are addressed by their position, which is stable for the whole
// run: matching rules scan in row order, so ties between otherwise identical
// lines always resolve to the earlier row.
//
// All allocation updates go through Allocate, which enforces the two ledger
// invariants centrally: the unallocated counter never goes negative, and an
// item id is recorded at most once per line.
type Ledger struct {
	lines       []entities.MovementLine
	unallocated []entities.Quantity
	allocatedTo []map[string]struct{}
}

// NewLedger wraps movement lines into a ledger, seeding every line's
// unallocated counter with its absolute quantity.
func NewLedger(lines []entities.MovementLine) *Ledger {
	l := &Ledger{
		lines:       lines,
		unallocated: make([]entities.Quantity, len(lines)),
		allocatedTo: make([]map[string]struct{}, len(lines)),
	}
	for i, line := range lines {
		l.unallocated[i] = line.AbsQty()
	}
	return l
}

// Len returns the number of lines in the ledger.
func (l *Ledger) Len() int {
	return len(l.lines)
}

// Line returns the movement line at position i.
func (l *Ledger) Line(i int) entities.MovementLine {
	return l.lines[i]
}

// Unallocated returns the quantity of line i not yet claimed by any item.
func (l *Ledger) Unallocated(i int) entities.Quantity {
	return l.unallocated[i]
}

// AllocatedTo reports whether line i was already matched against the item.
func (l *Ledger) AllocatedTo(i int, itemID string) bool {
	_, ok := l.allocatedTo[i][itemID]
	return ok
}

// Allocate consumes qty of line i on behalf of an item. The item id is added
// to the line's allocation set; adding it again is a no-op, so a line never
// counts the same item twice.
func (l *Ledger) Allocate(i int, itemID string, qty entities.Quantity) error {
	if qty <= 0 {
		return fmt.Errorf("line %d: allocation quantity must be positive, got %d", i, qty)
	}
	if qty > l.unallocated[i] {
		return fmt.Errorf("line %d: allocating %d of %d remaining: %w",
			i, qty, l.unallocated[i], ErrLineOverdraw)
	}
	l.unallocated[i] -= qty
	if l.allocatedTo[i] == nil {
		l.allocatedTo[i] = make(map[string]struct{})
	}
	l.allocatedTo[i][itemID] = struct{}{}
	return nil
}

// Allocations returns the final allocation state of every line, in row order,
// with item ids sorted for deterministic output.
func (l *Ledger) Allocations() []entities.MovementAllocation {
	out := make([]entities.MovementAllocation, len(l.lines))
	for i, line := range l.lines {
		ids := make([]string, 0, len(l.allocatedTo[i]))
		for id := range l.allocatedTo[i] {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		out[i] = entities.MovementAllocation{
			Line:        line,
			Unallocated: l.unallocated[i],
			ItemIDs:     ids,
		}
	}
	return out
}
