package tracking

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/emmanuel-ch/Product-Trailer/pkg/domain/entities"
)

// EntryPredicate decides whether a movement line starts the tracking of new
// product. It is supplied by the profile configuration.
type EntryPredicate func(entities.MovementLine) bool

// extractionKey is the identity tuple of a new tracked item. All entry-point
// lines sharing the tuple are folded into a single item.
type extractionKey struct {
	company      string
	location     string
	counterparty string
	code         string
	date         string
	sku          entities.SKU
	batch        string
}

type extractionGroup struct {
	first    entities.MovementLine
	qty      entities.Quantity
	valueSum decimal.Decimal
	count    int64
}

// ExtractItems creates one Open item per distinct identity tuple among the
// entry-point lines, with quantity equal to the summed absolute quantity of
// the tuple's lines and a single seed waypoint. Item ids are a pure function
// of the tuple, so re-running extraction on the same input is idempotent.
// The ledger itself is left untouched: entry-point lines stay matchable.
func ExtractItems(lines []entities.MovementLine, isEntryPoint EntryPredicate) []*entities.TrackedItem {
	groups := make(map[extractionKey]*extractionGroup)
	for _, line := range lines {
		if !isEntryPoint(line) {
			continue
		}
		key := extractionKey{
			company:      line.Company,
			location:     line.Location,
			counterparty: line.Counterparty,
			code:         line.MovementCode,
			date:         line.Date.Format("2006-01-02"),
			sku:          line.SKU,
			batch:        line.Batch,
		}
		g, ok := groups[key]
		if !ok {
			g = &extractionGroup{first: line}
			groups[key] = g
		}
		g.qty -= line.Qty
		g.valueSum = g.valueSum.Add(line.UnitValue)
		g.count++
	}

	items := make([]*entities.TrackedItem, 0, len(groups))
	for key, g := range groups {
		items = append(items, &entities.TrackedItem{
			ID:        itemID(g.first),
			Country:   g.first.Country,
			SKU:       key.sku,
			Qty:       g.qty,
			State:     entities.Open,
			UnitValue: g.valueSum.Div(decimal.NewFromInt(g.count)),
			Brand:     g.first.Brand,
			Category:  g.first.Category,
			Waypoints: []entities.Waypoint{{
				Date:         g.first.Date,
				Company:      key.company,
				Location:     key.location,
				Counterparty: key.counterparty,
				MovementCode: key.code,
				Batch:        key.batch,
			}},
		})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items
}

// itemID derives the deterministic item id from the identity tuple.
func itemID(l entities.MovementLine) string {
	return fmt.Sprintf("_%s/%s/%s_%s/%s_%s:%s",
		l.Company, l.Location, partialCounterparty(l.Counterparty),
		l.MovementCode, l.Date.Format("2006-01-02"), l.SKU, l.Batch)
}

// partialCounterparty shortens a counterparty id to its discriminating middle
// section, dropping the padded prefix of account numbers.
func partialCounterparty(s string) string {
	if len(s) <= 4 {
		return s
	}
	if len(s) > 11 {
		return s[4:11]
	}
	return s[4:]
}
