package export

import (
	"fmt"

	"github.com/paulmach/orb/encoding/wkt"
	"github.com/piwi3910/LotiSmart/internal/model"
	"github.com/xuri/excelize/v2"
)

const (
	lotsSheet    = "Lots"
	summarySheet = "Summary"
)

var scheduleHeaders = []string{"Lot", "Label", "Origin X", "Origin Y", "Side", "Area", "WKT"}

// ExportExcel writes the lot schedule to an .xlsx workbook: one row per lot on
// the "Lots" sheet and the run record on the "Summary" sheet. The WKT column
// lets the sheet be pasted straight into a GIS.
func ExportExcel(path string, lotSet model.LotSet, record model.RunRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", lotsSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}

	for i, h := range scheduleHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(lotsSheet, cell, h); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}
	if err := f.SetCellStyle(lotsSheet, "A1", "G1", bold); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	for i, lot := range lotSet.Lots {
		row := i + 2
		values := []any{
			lot.Number,
			lot.Label,
			lot.Square.Origin[0],
			lot.Square.Origin[1],
			lot.Square.Side,
			lot.Square.Area(),
			wkt.MarshalString(lot.Square.Polygon()),
		}
		for c, v := range values {
			cell, _ := excelize.CoordinatesToCellName(c+1, row)
			if err := f.SetCellValue(lotsSheet, cell, v); err != nil {
				return fmt.Errorf("failed to write lot %d: %w", lot.Number, err)
			}
		}
	}
	_ = f.SetColWidth(lotsSheet, "B", "F", 14)
	_ = f.SetColWidth(lotsSheet, "G", "G", 60)

	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("failed to add summary sheet: %w", err)
	}
	summary := [][2]any{
		{"Run ID", record.ID},
		{"Timestamp", record.Timestamp.Format("2006-01-02 15:04:05")},
		{"Source", record.Source},
		{"Minimum Lot Area", record.MinArea},
		{"Lot Count", record.LotCount},
		{"Lot Side", lotSet.Side},
		{"Total Lot Area", lotSet.TotalArea()},
		{"CRS", lotSet.CRS},
	}
	for i, kv := range summary {
		row := i + 1
		if err := f.SetCellValue(summarySheet, fmt.Sprintf("A%d", row), kv[0]); err != nil {
			return fmt.Errorf("failed to write summary: %w", err)
		}
		if err := f.SetCellValue(summarySheet, fmt.Sprintf("B%d", row), kv[1]); err != nil {
			return fmt.Errorf("failed to write summary: %w", err)
		}
	}
	_ = f.SetCellStyle(summarySheet, "A1", fmt.Sprintf("A%d", len(summary)), bold)
	_ = f.SetColWidth(summarySheet, "A", "A", 20)
	_ = f.SetColWidth(summarySheet, "B", "B", 40)

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}
