package ingest

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vsinha/shelfwatch/pkg/application/services/snapshot"
)

// BuildTable converts a raw grid whose first non-empty row is the header into
// a typed snapshot table. Columns are renamed to the schema, unknown columns
// dropped and blank rows skipped.
func BuildTable(name string, grid [][]string, parser *CellParser) (*snapshot.Table, error) {
	schema, ok := snapshot.Schemas()[name]
	if !ok {
		return nil, fmt.Errorf("unknown table %q", name)
	}
	if parser == nil {
		parser = NewCellParser()
	}

	headerRow := -1
	for i, row := range grid {
		if !blankRow(row) {
			headerRow = i
			break
		}
	}
	if headerRow < 0 {
		return nil, fmt.Errorf("table %s has no header row", name)
	}

	resolved := ResolveHeaders(name, grid[headerRow])
	positions := make([]int, 0, len(resolved))
	for pos := range resolved {
		positions = append(positions, pos)
	}
	sort.Ints(positions)

	kinds := make(map[string]snapshot.Column, len(schema.Columns))
	for _, col := range schema.Columns {
		kinds[col.Name] = col
	}

	columns := make([]string, len(positions))
	for i, pos := range positions {
		columns[i] = resolved[pos]
	}
	table := snapshot.NewTable(name, columns...)

	for _, row := range grid[headerRow+1:] {
		if blankRow(row) {
			continue
		}
		cells := make([]any, len(positions))
		for i, pos := range positions {
			if pos < len(row) {
				cells[i] = parser.Parse(kinds[resolved[pos]], row[pos])
			}
		}
		table.AddRow(cells...)
	}
	return table, nil
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
