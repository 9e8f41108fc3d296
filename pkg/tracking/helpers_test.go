package tracking

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/emmanuel-ch/Product-Trailer/pkg/domain/entities"
)

// day returns midnight UTC of the given day in January 2023.
func day(d int) time.Time {
	return time.Date(2023, time.January, d, 0, 0, 0, 0, time.UTC)
}

// ml builds a movement line with the fields the matching rules look at.
func ml(date time.Time, company, doc, po, code, loc, cpty, batch string, qty int64) entities.MovementLine {
	return entities.MovementLine{
		Date:         date,
		Company:      company,
		Country:      "FR",
		Document:     doc,
		PO:           entities.PONumber(po),
		SpecialStock: "K",
		MovementCode: code,
		Location:     loc,
		Counterparty: cpty,
		SKU:          "SKU-1",
		Batch:        batch,
		Qty:          entities.Quantity(qty),
		UnitValue:    decimal.NewFromInt(10),
	}
}

// seedItem builds an item as extraction would seed it: one waypoint carrying
// the entry point.
func seedItem(id string, qty int64, wpt entities.Waypoint) *entities.TrackedItem {
	return &entities.TrackedItem{
		ID:        id,
		Country:   "FR",
		SKU:       "SKU-1",
		Qty:       entities.Quantity(qty),
		State:     entities.Open,
		UnitValue: decimal.NewFromInt(10),
		Waypoints: []entities.Waypoint{wpt},
	}
}
