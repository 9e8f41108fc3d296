// Package report renders tracked items into the post-run reports: an Excel
// workbook for end users and a plain-text view for terminals and diffing.
package report

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/emmanuel-ch/Product-Trailer/pkg/domain/entities"
)

const dateFormat = "2006-01-02"

// consignmentReturnCodes are the movement codes counted as a consignment
// return in the summary sheet. "956/955" is the combined code of a
// counterparty change.
var consignmentReturnCodes = map[string]struct{}{
	"632":     {},
	"932":     {},
	"956/955": {},
}

// ExcelFileName is the deterministic report file name for a run number.
func ExcelFileName(runNumber int) string {
	return fmt.Sprintf("Tracked products -- run %d.xlsx", runNumber)
}

// WriteExcel writes the two-sheet report into dir and returns the file path.
// The Summary sheet has one row per item, the Details sheet one row per
// waypoint.
func WriteExcel(dir string, runNumber int, items []*entities.TrackedItem) (string, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := writeSummary(f, items); err != nil {
		return "", err
	}
	if err := writeDetails(f, items); err != nil {
		return "", err
	}

	path := filepath.Join(dir, ExcelFileName(runNumber))
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("saving report: %w", err)
	}
	return path, nil
}

func writeSummary(f *excelize.File, items []*entities.TrackedItem) error {
	const sheet = "Summary"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("renaming summary sheet: %w", err)
	}

	header := []any{"ID", "Country", "SKU", "Brand", "Category", "Qty",
		"Unit Value", "State", "Waypoints", "Last Date", "Last Location",
		"Consignment Returns"}
	if err := setRow(f, sheet, 1, header); err != nil {
		return err
	}

	for i, item := range items {
		last := item.LastWaypoint()
		row := []any{
			item.ID, item.Country, string(item.SKU), item.Brand, item.Category,
			int64(item.Qty), item.UnitValue.String(), item.State.String(),
			len(item.Waypoints), formatDate(last.Date), last.Location,
			countConsignmentReturns(item),
		}
		if err := setRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}
	return freezeHeader(f, sheet)
}

func writeDetails(f *excelize.File, items []*entities.TrackedItem) error {
	const sheet = "Details"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("creating details sheet: %w", err)
	}

	header := []any{"ID", "Waypoint No", "Landing Date", "Landing Code",
		"Location", "Counterparty", "Batch", "Departure Date"}
	if err := setRow(f, sheet, 1, header); err != nil {
		return err
	}

	rowNum := 2
	for _, item := range items {
		for n, w := range item.Waypoints {
			// The first waypoint is where tracking started, not a landing.
			landingDate, landingCode := formatDate(w.Date), w.MovementCode
			if n == 0 {
				landingDate, landingCode = "", ""
			}
			departure := ""
			if n+1 < len(item.Waypoints) {
				departure = formatDate(item.Waypoints[n+1].Date)
			}
			row := []any{item.ID, n + 1, landingDate, landingCode,
				w.Location, w.Counterparty, w.Batch, departure}
			if err := setRow(f, sheet, rowNum, row); err != nil {
				return err
			}
			rowNum++
		}
	}
	return freezeHeader(f, sheet)
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("writing %s row %d: %w", sheet, row, err)
	}
	return nil
}

func freezeHeader(f *excelize.File, sheet string) error {
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func countConsignmentReturns(item *entities.TrackedItem) int {
	n := 0
	for _, w := range item.Waypoints {
		if _, ok := consignmentReturnCodes[w.MovementCode]; ok {
			n++
		}
	}
	return n
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateFormat)
}
