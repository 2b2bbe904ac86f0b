package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Sheet is a titled table. Title and Meta rows are written above the header.
type Sheet struct {
	Name    string
	Title   string
	Meta    [][2]string
	Headers []string
	Rows    [][]interface{}
	Widths  map[int]float64 // 1-based column -> width
}

// WriteXLSX renders sheets into an xlsx workbook.
func WriteXLSX(sheets ...Sheet) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	titleStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}})
	if err != nil {
		return nil, fmt.Errorf("failed to create title style: %w", err)
	}

	for i, sheet := range sheets {
		index, err := f.NewSheet(sheet.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to create sheet %q: %w", sheet.Name, err)
		}
		if i == 0 {
			f.SetActiveSheet(index)
		}
		if err := writeSheet(f, sheet, headerStyle, titleStyle); err != nil {
			return nil, err
		}
	}

	if len(sheets) > 0 && sheets[0].Name != "Sheet1" {
		if err := f.DeleteSheet("Sheet1"); err != nil {
			return nil, fmt.Errorf("failed to delete default sheet: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, s Sheet, headerStyle, titleStyle int) error {
	row := 1

	if s.Title != "" {
		if err := f.SetCellValue(s.Name, "A1", s.Title); err != nil {
			return err
		}
		if err := f.SetCellStyle(s.Name, "A1", "A1", titleStyle); err != nil {
			return err
		}
		row = 2
	}

	for _, kv := range s.Meta {
		cell, _ := excelize.CoordinatesToCellName(1, row)
		values := []interface{}{kv[0], kv[1]}
		if err := f.SetSheetRow(s.Name, cell, &values); err != nil {
			return err
		}
		row++
	}
	if s.Title != "" || len(s.Meta) > 0 {
		row++
	}

	if len(s.Headers) > 0 {
		start, _ := excelize.CoordinatesToCellName(1, row)
		end, _ := excelize.CoordinatesToCellName(len(s.Headers), row)
		headers := make([]interface{}, len(s.Headers))
		for i, h := range s.Headers {
			headers[i] = h
		}
		if err := f.SetSheetRow(s.Name, start, &headers); err != nil {
			return err
		}
		if err := f.SetCellStyle(s.Name, start, end, headerStyle); err != nil {
			return err
		}
		row++
	}

	for _, values := range s.Rows {
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(s.Name, cell, &values); err != nil {
			return err
		}
		row++
	}

	for col, width := range s.Widths {
		name, err := excelize.ColumnNumberToName(col)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(s.Name, name, name, width); err != nil {
			return err
		}
	}

	return nil
}
