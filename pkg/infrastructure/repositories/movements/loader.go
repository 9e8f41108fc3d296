// Package movements loads raw inventory-movement extracts from CSV or Excel
// files into movement lines ready for tracking.
package movements

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/emmanuel-ch/Product-Trailer/pkg/domain/entities"
)

// Extract column headers as exported by the ERP system.
const (
	colDate         = "Posting Date"
	colCompany      = "Company"
	colCountry      = "Country ISO Code"
	colDocument     = "Material Document Number"
	colPO           = "Purchase Order Document Number"
	colSpecialStock = "Special Stock Ind Code"
	colMovementCode = "Movement Type Code"
	colLocation     = "Storage Location Code"
	colCounterparty = "Sold to Customer"
	colMaterialType = "Material Type Code"
	colBrand        = "Brand"
	colCategory     = "Category"
	colSKU          = "Material"
	colBatch        = "Batch No"
	colQty          = "QTY"
	colUnitValue    = "Standard Price"
)

// noPO is the extract's placeholder for "no purchase order".
const noPO = "-2"

// naFill replaces empty location and special-stock cells. Consignment
// movements carry no storage location, which downstream matching reads as the
// consignment marker.
const naFill = "NA"

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"01-02-06", // excelize's default rendering of date-formatted cells
	"1/2/2006",
	"2.1.2006",
}

// Loader reads movement extracts and filters them to the configured material
// types.
type Loader struct {
	materialTypes map[string]struct{}
}

// NewLoader creates a loader keeping only lines of the given material types.
// An empty list keeps everything.
func NewLoader(materialTypes []string) *Loader {
	l := &Loader{}
	if len(materialTypes) > 0 {
		l.materialTypes = make(map[string]struct{}, len(materialTypes))
		for _, t := range materialTypes {
			l.materialTypes[t] = struct{}{}
		}
	}
	return l
}

// Load reads one extract file. The format is chosen by extension: .csv, or
// .xlsx/.xls via the spreadsheet reader. Lines come back sorted by posting
// date ascending and, within a date, by quantity descending, so decrements of
// a day are matched after the increments that can absorb them.
func (l *Loader) Load(path string) ([]entities.MovementLine, error) {
	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		rows, err = readCSV(path)
	case ".xlsx", ".xls":
		rows, err = readXLSX(path)
	default:
		return nil, fmt.Errorf("%s: unsupported file type", path)
	}
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: empty extract", path)
	}

	header, err := indexHeader(rows[0])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	lines := make([]entities.MovementLine, 0, len(rows)-1)
	for n, row := range rows[1:] {
		line, keep, err := l.parseRow(header, row)
		if err != nil {
			return nil, fmt.Errorf("%s: row %d: %w", path, n+2, err)
		}
		if keep {
			lines = append(lines, line)
		}
	}

	sort.SliceStable(lines, func(i, j int) bool {
		if !lines[i].Date.Equal(lines[j].Date) {
			return lines[i].Date.Before(lines[j].Date)
		}
		return lines[i].Qty > lines[j].Qty
	})
	return lines, nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return rows, nil
}

func readXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%s: no sheets", path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return rows, nil
}

type headerIndex map[string]int

func indexHeader(cells []string) (headerIndex, error) {
	idx := make(headerIndex, len(cells))
	for i, name := range cells {
		idx[strings.TrimSpace(name)] = i
	}
	required := []string{
		colDate, colCompany, colCountry, colDocument, colPO, colSpecialStock,
		colMovementCode, colLocation, colCounterparty, colSKU, colBatch, colQty,
	}
	for _, name := range required {
		if _, ok := idx[name]; !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}
	return idx, nil
}

func (idx headerIndex) get(row []string, name string) string {
	i, ok := idx[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func (l *Loader) parseRow(idx headerIndex, row []string) (entities.MovementLine, bool, error) {
	if l.materialTypes != nil {
		if _, ok := l.materialTypes[idx.get(row, colMaterialType)]; !ok {
			return entities.MovementLine{}, false, nil
		}
	}

	date, err := parseDate(idx.get(row, colDate))
	if err != nil {
		return entities.MovementLine{}, false, err
	}
	qty, err := strconv.ParseInt(idx.get(row, colQty), 10, 64)
	if err != nil {
		return entities.MovementLine{}, false, fmt.Errorf("quantity: %w", err)
	}

	value := decimal.Zero
	if raw := idx.get(row, colUnitValue); raw != "" {
		value, err = decimal.NewFromString(raw)
		if err != nil {
			return entities.MovementLine{}, false, fmt.Errorf("unit value: %w", err)
		}
	}

	po := idx.get(row, colPO)
	if po == noPO {
		po = ""
	}
	location := idx.get(row, colLocation)
	if location == "" {
		location = naFill
	}
	special := idx.get(row, colSpecialStock)
	if special == "" {
		special = naFill
	}

	return entities.MovementLine{
		Date:         date,
		Company:      idx.get(row, colCompany),
		Country:      idx.get(row, colCountry),
		Document:     idx.get(row, colDocument),
		PO:           entities.PONumber(po),
		SpecialStock: special,
		MovementCode: idx.get(row, colMovementCode),
		Location:     location,
		Counterparty: idx.get(row, colCounterparty),
		Brand:        idx.get(row, colBrand),
		Category:     idx.get(row, colCategory),
		SKU:          entities.SKU(idx.get(row, colSKU)),
		Batch:        idx.get(row, colBatch),
		Qty:          entities.Quantity(qty),
		UnitValue:    value,
	}, true, nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}
