package tracking

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/emmanuel-ch/Product-Trailer/pkg/domain/entities"
)

// TrackerConfig holds tuning knobs for the forward tracker.
type TrackerConfig struct {
	// MaxRouteDepth caps hop recursion as a guard against circular ledgers.
	MaxRouteDepth int
}

// DefaultTrackerConfig returns the configuration used by production runs.
func DefaultTrackerConfig() TrackerConfig {
	return TrackerConfig{MaxRouteDepth: 1000}
}

// ForwardTracker resolves the route of every item of one SKU against that
// SKU's ledger slice. It mutates the ledger's allocation state as it matches
// lines, so items of the same SKU must be resolved sequentially.
type ForwardTracker struct {
	ledger *Ledger
	config TrackerConfig
}

// NewForwardTracker creates a tracker over one SKU's ledger slice.
func NewForwardTracker(ledger *Ledger) *ForwardTracker {
	return NewForwardTrackerWithConfig(ledger, DefaultTrackerConfig())
}

// NewForwardTrackerWithConfig creates a tracker with custom configuration.
func NewForwardTrackerWithConfig(ledger *Ledger, config TrackerConfig) *ForwardTracker {
	return &ForwardTracker{ledger: ledger, config: config}
}

// Track resolves every item to a terminal or pending state and returns the
// resulting items, including all split children. An empty ledger slice means
// nothing can have moved: the items come back untouched.
func (t *ForwardTracker) Track(items []*entities.TrackedItem) ([]*entities.TrackedItem, error) {
	if t.ledger.Len() == 0 {
		return items, nil
	}
	var out []*entities.TrackedItem
	for _, item := range items {
		routed, err := t.route(item, 0)
		if err != nil {
			return nil, err
		}
		out = append(out, routed...)
	}
	return out, nil
}

// route recursively advances an item hop by hop until it stops moving.
// Termination: each hop either yields no candidates, yields the unchanged
// item, or strictly consumes ledger quantity, and the ledger is finite.
func (t *ForwardTracker) route(item *entities.TrackedItem, depth int) ([]*entities.TrackedItem, error) {
	if depth >= t.config.MaxRouteDepth {
		return nil, fmt.Errorf("item %s: %w", item.ID, ErrRouteTooDeep)
	}
	hops, err := t.hop(item)
	if err != nil {
		return nil, err
	}
	if len(hops) == 0 {
		return nil, nil
	}
	if len(hops) == 1 && item.Equal(hops[0]) {
		// The item did not travel further.
		return []*entities.TrackedItem{item}, nil
	}
	var out []*entities.TrackedItem
	for _, h := range hops {
		routed, err := t.route(h, depth+1)
		if err != nil {
			return nil, err
		}
		out = append(out, routed...)
	}
	return out, nil
}

// hop computes one decrement+increment step for the item. It returns zero
// candidates when a first-hop item never moved (re-entry suppression), the
// unchanged item when it stopped moving, or the split children otherwise.
func (t *ForwardTracker) hop(item *entities.TrackedItem) ([]*entities.TrackedItem, error) {
	firstStep := len(item.Waypoints) == 1
	last := item.LastWaypoint()

	var decs []decrement
	if item.State == entities.PendingReceipt {
		// Retry the missing receipt side of the purchase order. The last
		// waypoint's movement-code field carries the PO number.
		decs = []decrement{{
			lineIdx:      -1,
			date:         last.Date,
			company:      last.Company,
			po:           entities.PONumber(last.MovementCode),
			code:         virtualPOCode,
			location:     last.Location,
			counterparty: last.Counterparty,
			batch:        last.Batch,
			available:    item.Qty,
		}}
	} else {
		decs = t.findDecrements(firstStep, last, item.ID)
	}

	if len(decs) == 0 {
		if firstStep {
			// The tracked product re-passed an entry point. The already
			// tracked item keeps the history; registering this one as well
			// would double count it.
			return nil, nil
		}
		return []*entities.TrackedItem{item}, nil
	}

	multiSplit := decs[0].available < item.Qty
	var children []*entities.TrackedItem
	covered := entities.Quantity(0)
	level1 := 0

	for _, dec := range decs {
		hopQty := item.Qty - covered
		if dec.available < hopQty {
			hopQty = dec.available
		}

		incs, err := t.resolveIncrements(dec, hopQty, item.ID)
		if err != nil {
			return nil, err
		}
		for i, inc := range incs {
			children = append(children, t.buildItem(item, dec, inc, splitSuffix(multiSplit, level1, i, len(incs))))
		}

		if !dec.synthetic() {
			if err := t.ledger.Allocate(dec.lineIdx, item.ID, hopQty); err != nil {
				return nil, err
			}
		}

		covered += hopQty
		if covered == item.Qty {
			break
		}
		if covered > item.Qty {
			return nil, fmt.Errorf("item %s: covered %d of %d: %w",
				item.ID, covered, item.Qty, ErrOverAllocation)
		}
		level1++
	}

	if covered < item.Qty {
		// No further decrement line was available for the remainder: it did
		// not move and continues unresolved into the next recursion.
		rest := item.Clone()
		rest.Qty = item.Qty - covered
		rest.ID += "." + strconv.Itoa(level1)
		children = append(children, rest)
	}
	return children, nil
}

// incKind classifies how a requested decrement quantity was resolved.
type incKind int

const (
	incTransfer incKind = iota
	incBurnt
	incPending
)

// increment is one resolved share of a decrement's quantity.
type increment struct {
	kind    incKind
	qty     entities.Quantity
	lineIdx int
}

// resolveIncrements finds where the quantity removed by dec landed. A fully
// unmatched decrement parks on the PO (when one is referenced) or burns;
// a partially matched one burns the uncovered remainder.
func (t *ForwardTracker) resolveIncrements(dec decrement, want entities.Quantity, itemID string) ([]increment, error) {
	matches := t.findIncrements(dec, false)
	if len(matches) == 0 {
		if dec.po.Valid() {
			return []increment{{kind: incPending, qty: want}}, nil
		}
		// Widen the search by dropping the batch filter before giving up.
		matches = t.findIncrements(dec, true)
		if len(matches) == 0 {
			return []increment{{kind: incBurnt, qty: want}}, nil
		}
	}

	covered := entities.Quantity(0)
	var out []increment
	for _, idx := range matches {
		take := want - covered
		if avail := t.ledger.Unallocated(idx); avail < take {
			take = avail
		}
		if err := t.ledger.Allocate(idx, itemID, take); err != nil {
			return nil, err
		}
		out = append(out, increment{kind: incTransfer, qty: take, lineIdx: idx})
		covered += take
		if covered >= want {
			break
		}
	}
	if covered < want {
		// Found e.g. 4 [+] for 5 [-]: assume the last unit was burnt.
		out = append(out, increment{kind: incBurnt, qty: want - covered})
	}
	return out, nil
}

// buildItem derives one split child from the parent item, the decrement that
// moved it and the increment share that resolves it.
func (t *ForwardTracker) buildItem(item *entities.TrackedItem, dec decrement, inc increment, suffix string) *entities.TrackedItem {
	child := item.Clone()

	switch inc.kind {
	case incBurnt:
		child.State = entities.Closed
		child.Waypoints = append(child.Waypoints, entities.Waypoint{
			Date:         dec.date,
			Company:      dec.company,
			Location:     entities.BurntPrefix + dec.location,
			Counterparty: dec.counterparty,
			MovementCode: dec.code,
			Batch:        dec.batch,
		})

	case incPending:
		if strings.HasPrefix(dec.location, entities.AwaitingReceiptPrefix) {
			// Already waiting on this PO from a previous run; do not stack
			// another identical waypoint.
			return child
		}
		child.State = entities.PendingReceipt
		child.Waypoints = append(child.Waypoints, entities.Waypoint{
			Date:         dec.date,
			Company:      dec.company,
			Location:     fmt.Sprintf("%s%s, mvt %s", entities.AwaitingReceiptPrefix, dec.location, dec.code),
			Counterparty: dec.counterparty,
			MovementCode: string(dec.po),
			Batch:        dec.batch,
		})

	case incTransfer:
		line := t.ledger.Line(inc.lineIdx)
		if len(child.Waypoints) == 1 {
			// First real hop: the seed waypoint's date and movement code were
			// only needed to find it.
			child.Waypoints[0].Date = time.Time{}
			child.Waypoints[0].MovementCode = ""
		}
		child.State = entities.Open
		wpt := line.Waypoint()
		if !wpt.IsConsignment() {
			wpt.Counterparty = ""
		}
		if dec.code != wpt.MovementCode {
			wpt.MovementCode = dec.code + "/" + wpt.MovementCode
		}
		child.Waypoints = append(child.Waypoints, wpt)
	}

	child.Qty = inc.qty
	if suffix != "" {
		child.ID += "." + suffix
	}
	return child
}

// splitSuffix assigns the hierarchical child-id suffix: a first-level index
// per decrement when several decrement lines were needed, and a second-level
// index per increment when a decrement resolved to several increments.
func splitSuffix(multiSplit bool, level1, idx, n int) string {
	if multiSplit {
		s := strconv.Itoa(level1)
		if n > 1 {
			s += "." + strconv.Itoa(idx)
		}
		return s
	}
	if n > 1 {
		return strconv.Itoa(idx)
	}
	return ""
}
