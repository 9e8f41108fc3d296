package report

import (
	"fmt"
	"io"

	"github.com/emmanuel-ch/Product-Trailer/pkg/domain/entities"
)

// WriteText renders the items as a deterministic plain-text listing, one block
// per item with its full waypoint history. Dates that were cleared render as
// "-".
func WriteText(w io.Writer, items []*entities.TrackedItem) error {
	for i, item := range items {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "%s [%s] qty=%d sku=%s value=%s\n",
			item.ID, item.State, item.Qty, item.SKU, item.UnitValue.String()); err != nil {
			return err
		}
		for n, wpt := range item.Waypoints {
			date := "-"
			if !wpt.Date.IsZero() {
				date = wpt.Date.Format(dateFormat)
			}
			if _, err := fmt.Fprintf(w, "  %2d. %s  %s/%s  sold-to=%s  code=%s  batch=%s\n",
				n+1, date, wpt.Company, wpt.Location,
				orDash(wpt.Counterparty), orDash(wpt.MovementCode), orDash(wpt.Batch)); err != nil {
				return err
			}
		}
	}
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
