package ingest

import (
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/vsinha/shelfwatch/pkg/application/services/snapshot"
)

// LoadXLSX loads a table from a worksheet, the first one when sheet is empty.
// Raw cell values are read so dates arrive as serial day numbers regardless
// of the workbook's display format.
func (l *Loader) LoadXLSX(name, filename, sheet string) (*snapshot.Table, error) {
	f, err := excelize.OpenFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s workbook %s: %w", name, filename, err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook %s has no sheets", filename)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q of %s: %w", sheet, filename, err)
	}

	table, err := BuildTable(name, rows, l.parser)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	l.logger.Debug("table loaded",
		zap.String("table", name),
		zap.String("file", filename),
		zap.String("sheet", sheet),
		zap.Strings("columns", table.Columns),
		zap.Int("rows", table.Len()),
	)
	return table, nil
}
