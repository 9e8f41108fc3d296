package tracking

import (
	"time"

	"github.com/emmanuel-ch/Product-Trailer/pkg/domain/entities"
)

// Movement codes with special increment pairing. A counterparty change books
// out with one code and back in with its partner on the same day; batch
// renumbering works the same way within one location.
const (
	counterpartyChangeOut = "956"
	counterpartyChangeIn  = "955"
	batchChangeOut        = "702"
	batchChangeIn         = "701"

	// virtualPOCode marks the synthetic decrement used to retry the missing
	// receipt side of a PendingReceipt item. It never touches the ledger.
	virtualPOCode = "PO"
)

// decrement is a matched "stock left here" candidate for one hop. It is either
// a real ledger line (lineIdx >= 0) or the synthetic PO retry (lineIdx == -1).
type decrement struct {
	lineIdx      int
	date         time.Time
	company      string
	document     string
	po           entities.PONumber
	code         string
	location     string
	counterparty string
	batch        string
	available    entities.Quantity
}

func (d decrement) synthetic() bool {
	return d.lineIdx < 0
}

// findDecrements returns the ledger lines that plausibly removed the item from
// its latest waypoint, in row order.
//
// On the item's first hop the match is strict: same date, location, company,
// batch, counterparty and movement code. On later hops the date relaxes to
// "on or after", the movement-code filter drops, lines already matched to this
// item are excluded, and the counterparty filter only applies while the item
// sits in consignment.
func (t *ForwardTracker) findDecrements(firstStep bool, wpt entities.Waypoint, itemID string) []decrement {
	var out []decrement
	for i := 0; i < t.ledger.Len(); i++ {
		line := t.ledger.Line(i)
		if line.Qty > -1 || t.ledger.Unallocated(i) < 1 {
			continue
		}
		if line.Company != wpt.Company || line.Location != wpt.Location || line.Batch != wpt.Batch {
			continue
		}
		if firstStep {
			if !line.Date.Equal(wpt.Date) {
				continue
			}
			if line.Counterparty != wpt.Counterparty || line.MovementCode != wpt.MovementCode {
				continue
			}
		} else {
			if line.Date.Before(wpt.Date) {
				continue
			}
			if t.ledger.AllocatedTo(i, itemID) {
				continue
			}
			if wpt.IsConsignment() && line.Counterparty != wpt.Counterparty {
				continue
			}
		}
		out = append(out, decrement{
			lineIdx:      i,
			date:         line.Date,
			company:      line.Company,
			document:     line.Document,
			po:           line.PO,
			code:         line.MovementCode,
			location:     line.Location,
			counterparty: line.Counterparty,
			batch:        line.Batch,
			available:    t.ledger.Unallocated(i),
		})
	}
	return out
}

// findIncrements returns the ledger lines where the quantity removed by the
// decrement plausibly reappeared, in row order. Rules are mutually exclusive
// and tried in fixed precedence: counterparty change, batch change, purchase
// order, then the standard same-document match. The noBatch variant is the
// widened last-chance search used only when the standard rule found nothing
// and the decrement carries no PO; it can match an increment sourced from an
// unrelated purchase order, a known ambiguity kept for reproducibility.
func (t *ForwardTracker) findIncrements(d decrement, noBatch bool) []int {
	var out []int
	for i := 0; i < t.ledger.Len(); i++ {
		line := t.ledger.Line(i)
		if line.Qty < 1 || t.ledger.Unallocated(i) < 1 {
			continue
		}
		switch {
		case d.code == counterpartyChangeOut:
			if !line.Date.Equal(d.date) || line.Company != d.company ||
				line.MovementCode != counterpartyChangeIn || line.Batch != d.batch {
				continue
			}
		case d.code == batchChangeOut:
			if !line.Date.Equal(d.date) || line.Company != d.company ||
				line.Location != d.location || line.Counterparty != d.counterparty ||
				line.MovementCode != batchChangeIn {
				continue
			}
		case d.po.Valid():
			if line.Date.Before(d.date) || line.Batch != d.batch || line.PO != d.po {
				continue
			}
		default:
			// A missing document id cannot satisfy the standard rule.
			if d.document == "" || line.Document != d.document {
				continue
			}
			if !line.Date.Equal(d.date) || line.Company != d.company ||
				line.Counterparty != d.counterparty || line.MovementCode != d.code {
				continue
			}
			if !noBatch && line.Batch != d.batch {
				continue
			}
		}
		out = append(out, i)
	}
	return out
}
