package output

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/vsinha/shelfwatch/pkg/application/dto"
)

// numericColumns are written as numbers so spreadsheets can sort and sum them
var numericColumns = map[string]bool{
	"quantity":               true,
	"movement_quantity":      true,
	"validity_quantity":      true,
	"shelf_life_days":        true,
	"deviation_days":         true,
	"deviation_percent":      true,
	"days_remaining":         true,
	"percent_life_remaining": true,
	"value":                  true,
	"percent":                true,
}

// NewWorkbook builds a workbook with one sheet per report section
func NewWorkbook(report *dto.Report) (*excelize.File, error) {
	f := excelize.NewFile()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#DDEBF7"}},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	tables := report.Tables()
	if len(tables) == 0 {
		tables = []dto.Table{{Name: "Summary", Header: []string{"indicator", "value", "percent"}}}
	}

	defaultSheet := f.GetSheetName(0)
	for i, table := range tables {
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, table.Name); err != nil {
				f.Close()
				return nil, err
			}
		} else if _, err := f.NewSheet(table.Name); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to create sheet %s: %w", table.Name, err)
		}

		if err := writeSheet(f, table, headerStyle); err != nil {
			f.Close()
			return nil, err
		}
	}
	f.SetActiveSheet(0)
	return f, nil
}

func writeSheet(f *excelize.File, table dto.Table, headerStyle int) error {
	header := make([]any, len(table.Header))
	for i, h := range table.Header {
		header[i] = h
	}
	if err := f.SetSheetRow(table.Name, "A1", &header); err != nil {
		return fmt.Errorf("failed to write %s header: %w", table.Name, err)
	}

	last, err := excelize.CoordinatesToCellName(len(table.Header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(table.Name, "A1", last, headerStyle); err != nil {
		return err
	}

	for r, row := range table.Rows {
		values := make([]any, len(row))
		for c, cell := range row {
			values[c] = cellValue(table.Header[c], cell)
		}
		start, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(table.Name, start, &values); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", table.Name, r+1, err)
		}
	}

	return f.SetPanes(table.Name, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func cellValue(column, cell string) any {
	if cell == "" || !numericColumns[column] {
		return cell
	}
	d, err := decimal.NewFromString(cell)
	if err != nil {
		return cell
	}
	f, _ := d.Float64()
	return f
}

// generateExcelOutput saves the workbook to the output directory, or streams
// it to the writer when no directory is given
func generateExcelOutput(report *dto.Report, config Config) error {
	f, err := NewWorkbook(report)
	if err != nil {
		return err
	}
	defer f.Close()

	if config.OutputDir == "" {
		return writeWorkbook(f, config.Writer)
	}

	filename, err := outputPath(config.OutputDir, ReportBaseName+".xlsx")
	if err != nil {
		return err
	}
	if err := f.SaveAs(filename); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	if config.Verbose {
		fmt.Fprintf(config.Writer, "💾 Workbook saved to: %s\n", filename)
	}
	return nil
}

func writeWorkbook(f *excelize.File, w io.Writer) error {
	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
