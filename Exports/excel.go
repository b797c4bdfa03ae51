package Exports

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"Weighbridge/Models"

	"github.com/xuri/excelize/v2"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// ErrNoEntries is returned when an export is requested against an empty
// store; no workbook is produced.
var ErrNoEntries = errors.New("no entries to export")

const summarySheet = "All Entries"

var headers = []string{
	"Billing Date", "Token No.", "Item Name", "Farmer Name", "Village",
	"Vehicle No.", "Gross Wt", "Tare Wt", "Net Wt", "Net Wt (Ded.)",
	"Hamali", "Rate", "Gross Amount", "Net Amount",
}

var sheetNameSanitizer = regexp.MustCompile(`[\\/?*\[\]:; ]`)

// BuildWorkbook renders the full record set into a workbook: the summary
// sheet plus one sheet per distinct item name.
func BuildWorkbook(entries []Models.CottonEntry) (*excelize.File, error) {
	if len(entries) == 0 {
		return nil, ErrNoEntries
	}

	f := excelize.NewFile()
	index, err := f.NewSheet(summarySheet)
	if err != nil {
		return nil, fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := writeSheet(f, summarySheet, entries); err != nil {
		return nil, err
	}

	grouped := make(map[string][]Models.CottonEntry)
	for _, entry := range entries {
		name := entry.ItemName
		if name == "" {
			name = "Unknown Item"
		}
		grouped[name] = append(grouped[name], entry)
	}

	itemNames := maps.Keys(grouped)
	slices.Sort(itemNames)
	for _, itemName := range itemNames {
		sheet := sanitizeSheetName(itemName)
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, fmt.Errorf("error creating sheet %s: %w", sheet, err)
		}
		if err := writeSheet(f, sheet, grouped[itemName]); err != nil {
			return nil, err
		}
	}

	f.DeleteSheet("Sheet1")
	return f, nil
}

// WorkbookBuffer builds the workbook and serializes it for download.
func WorkbookBuffer(entries []Models.CottonEntry) (*bytes.Buffer, error) {
	f, err := BuildWorkbook(entries)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("error writing workbook to buffer: %w", err)
	}
	return &buf, nil
}

func writeSheet(f *excelize.File, sheet string, entries []Models.CottonEntry) error {
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, header)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6E6FA"}, Pattern: 1},
	})
	if err == nil {
		f.SetRowStyle(sheet, 1, 1, headerStyle)
	}

	for rowIndex, entry := range entries {
		values := []interface{}{
			entry.BillingDate,
			entry.TokenNo,
			entry.ItemName,
			entry.FarmerName,
			entry.Village,
			entry.VehicleNo,
			cellAmount(&entry.GrossWt),
			cellAmount(entry.TareWt),
			cellAmount(entry.NetWt),
			cellAmount(entry.NetWtAfterDeduction),
			cellAmount(entry.HamaliDeduction),
			cellAmount(entry.Rate),
			cellAmount(entry.GrossAmount),
			cellAmount(entry.NetAmount),
		}
		for colIndex, value := range values {
			cell, _ := excelize.CoordinatesToCellName(colIndex+1, rowIndex+2)
			f.SetCellValue(sheet, cell, value)
		}
	}

	last, _ := excelize.ColumnNumberToName(len(headers))
	f.SetColWidth(sheet, "A", last, 15)
	return nil
}

// cellAmount formats a figure to 2 decimals, leaving unset values blank so
// "not yet known" never reads as zero.
func cellAmount(v *float64) interface{} {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}

func sanitizeSheetName(name string) string {
	safe := sheetNameSanitizer.ReplaceAllString(name, "_")
	if len(safe) > 31 {
		safe = safe[:31]
	}
	return safe
}
