// Package report writes batch results to an XLSX workbook.
package report

import (
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/nokonoko1203/gsi-dem/pkg/gsidem/models"
)

// SheetName is the worksheet holding one row per input document.
const SheetName = "Tiles"

// Columns are the header cells of the report, in order.
var Columns = []string{
	"Source", "Status", "Mesh", "Width", "Height",
	"XMin", "YMax", "CellSizeX", "CellSizeY",
	"CRS", "NoData", "Outputs", "Error",
}

// Write saves s as an XLSX workbook at path.
func Write(path string, s *models.Summary) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return err
	}
	for i, h := range Columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(SheetName, cell, h); err != nil {
			return err
		}
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetRowStyle(SheetName, 1, 1, bold); err != nil {
		return err
	}

	for i, r := range s.Results {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(SheetName, cell, rowValues(r)); err != nil {
			return err
		}
	}

	lastCell, _ := excelize.CoordinatesToCellName(len(Columns), len(s.Results)+1)
	if err := f.AutoFilter(SheetName, "A1:"+lastCell, nil); err != nil {
		return err
	}
	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}

	if s.Merged != "" {
		cell, _ := excelize.CoordinatesToCellName(1, len(s.Results)+3)
		if err := f.SetSheetRow(SheetName, cell, &[]any{"Merged", s.Merged}); err != nil {
			return err
		}
	}
	return f.SaveAs(path)
}

func rowValues(r models.TileResult) *[]any {
	status := "ok"
	if !r.OK() {
		status = "failed"
	}
	row := []any{r.Source, status}
	if m := r.Metadata; m != nil {
		row = append(row, deref(m.MeshCode), m.Width, m.Height, m.XMin, m.YMax, m.CellSizeX, m.CellSizeY,
			deref(m.CRS))
		if m.NoDataValue != nil {
			row = append(row, *m.NoDataValue)
		} else {
			row = append(row, "")
		}
	} else {
		row = append(row, "", "", "", "", "", "", "", "", "")
	}
	row = append(row, strings.Join(r.Outputs, "\n"), r.Err)
	return &row
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
