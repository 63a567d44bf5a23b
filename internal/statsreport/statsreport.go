// Package statsreport writes a per-inset bead-accounting workbook using
// github.com/xuri/excelize/v2, for offline QA of the widths and lengths
// the wall generator produced.
package statsreport

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/wsd07/CuraEngine/internal/bead"
)

const sheetName = "Wall Stats"

// Write renders lines to path as an .xlsx workbook with one row per
// extrusion line: its inset index, line number, closed flag, junction
// count, length, and minimum bead width (no maximum width column),
// followed by one totals row per inset bucket.
func Write(path string, lines []bead.VariableWidthLines) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	headers := []string{"Inset", "Line #", "Closed", "Junctions", "Length (mm)", "Min Width (mm)"}
	for col, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(sheetName, "A1", fmt.Sprintf("%c1", 'A'+len(headers)-1), headerStyle); err != nil {
		return fmt.Errorf("apply header style: %w", err)
	}

	row := 2
	totals := make(map[int]insetTotals)
	for _, vwl := range lines {
		for i, line := range vwl.Lines {
			if err := writeRow(f, row, vwl.InsetIdx, i+1, line); err != nil {
				return err
			}
			t := totals[vwl.InsetIdx]
			t.lineCount++
			t.totalLength += line.Length()
			totals[vwl.InsetIdx] = t
			row++
		}
	}

	row++
	cell, _ := excelize.CoordinatesToCellName(1, row)
	if err := f.SetCellValue(sheetName, cell, "Totals by inset"); err != nil {
		return err
	}
	row++
	for insetIdx := 0; insetIdx < maxInset(totals); insetIdx++ {
		t, ok := totals[insetIdx]
		if !ok {
			continue
		}
		a, _ := excelize.CoordinatesToCellName(1, row)
		b, _ := excelize.CoordinatesToCellName(2, row)
		c, _ := excelize.CoordinatesToCellName(3, row)
		if err := f.SetCellValue(sheetName, a, insetIdx); err != nil {
			return err
		}
		if err := f.SetCellValue(sheetName, b, t.lineCount); err != nil {
			return err
		}
		if err := f.SetCellValue(sheetName, c, t.totalLength/1000.0); err != nil {
			return err
		}
		row++
	}

	for col := 1; col <= len(headers); col++ {
		name, _ := excelize.ColumnNumberToName(col)
		if err := f.SetColWidth(sheetName, name, name, 14); err != nil {
			return err
		}
	}

	return f.SaveAs(path)
}

type insetTotals struct {
	lineCount   int
	totalLength float64
}

func maxInset(totals map[int]insetTotals) int {
	max := 0
	for k := range totals {
		if k > max {
			max = k
		}
	}
	return max + 1
}

func writeRow(f *excelize.File, row, insetIdx, lineNum int, line *bead.ExtrusionLine) error {
	values := []any{insetIdx, lineNum, line.IsClosed, len(line.Junctions), line.Length() / 1000.0, float64(line.MinWidth()) / 1000.0}
	for col, v := range values {
		cell, _ := excelize.CoordinatesToCellName(col+1, row)
		if err := f.SetCellValue(sheetName, cell, v); err != nil {
			return fmt.Errorf("write cell %s: %w", cell, err)
		}
	}
	return nil
}
