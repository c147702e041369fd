package snapshot

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vsinha/shelfwatch/pkg/domain/entities"
)

// Table is a typed table produced by an ingest adapter. Columns carry
// canonical names; cells hold string, decimal.Decimal, time.Time,
// entities.ShelfLife or nil.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]any
}

// NewTable creates an empty table with the given columns
func NewTable(name string, columns ...string) *Table {
	return &Table{Name: name, Columns: columns}
}

// AddRow appends a row; cells are matched to columns by position
func (t *Table) AddRow(cells ...any) *Table {
	t.Rows = append(t.Rows, cells)
	return t
}

// Len returns the number of rows
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Tables is one point-in-time set of source tables
type Tables struct {
	Movements *Table
	Validity  *Table
	Suppliers *Table
	Timeline  *Table // optional
}

// boundTable resolves schema columns to positions in a Table
type boundTable struct {
	table  *Table
	name   string
	schema Schema
	index  map[string]int
}

// cell returns the raw cell for a column, nil when the column or cell is absent
func (b *boundTable) cell(row []any, column string) any {
	pos, ok := b.index[column]
	if !ok || pos >= len(row) {
		return nil
	}
	return row[pos]
}

// cellError describes an invalid cell with a 1-based data row number
func (b *boundTable) cellError(rowIdx int, column string, format string, args ...any) string {
	return fmt.Sprintf("%s row %d column %s: %s", b.name, rowIdx+1, column, fmt.Sprintf(format, args...))
}

func (b *boundTable) stringCell(row []any, column string) (string, error) {
	switch v := b.cell(row, column).(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case int:
		return fmt.Sprintf("%d", v), nil
	case int64:
		return fmt.Sprintf("%d", v), nil
	case decimal.Decimal:
		return v.String(), nil
	default:
		return "", fmt.Errorf("expected text, got %T", v)
	}
}

func (b *boundTable) decimalCell(row []any, column string) (decimal.NullDecimal, error) {
	switch v := b.cell(row, column).(type) {
	case nil:
		return decimal.NullDecimal{}, nil
	case decimal.Decimal:
		return decimal.NewNullDecimal(v), nil
	case decimal.NullDecimal:
		return v, nil
	case int:
		return decimal.NewNullDecimal(decimal.NewFromInt(int64(v))), nil
	case int64:
		return decimal.NewNullDecimal(decimal.NewFromInt(v)), nil
	case float64:
		return decimal.NewNullDecimal(decimal.NewFromFloat(v)), nil
	default:
		return decimal.NullDecimal{}, fmt.Errorf("expected number, got %T", v)
	}
}

func (b *boundTable) dateCell(row []any, column string) (*time.Time, error) {
	switch v := b.cell(row, column).(type) {
	case nil:
		return nil, nil
	case time.Time:
		if v.IsZero() {
			return nil, nil
		}
		return entities.DatePtr(v), nil
	case *time.Time:
		if v == nil || v.IsZero() {
			return nil, nil
		}
		return entities.DatePtr(*v), nil
	default:
		return nil, fmt.Errorf("expected date, got %T", v)
	}
}

func (b *boundTable) shelfLifeCell(row []any, column string) (*entities.ShelfLife, error) {
	switch v := b.cell(row, column).(type) {
	case nil:
		return nil, nil
	case entities.ShelfLife:
		return &v, nil
	case *entities.ShelfLife:
		return v, nil
	default:
		return nil, fmt.Errorf("expected shelf life, got %T", v)
	}
}
