package snapshot

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/vsinha/shelfwatch/pkg/domain/entities"
)

const (
	fieldSep = "\x1f"
	rowSep   = "\x1e"
	tableSep = "\x1d"
)

// Identity derives a content key from the typed tables and load options.
// Cells are hashed in schema column order, so reordering the columns of a
// table keeps the identity; reordering rows changes it.
func Identity(tables Tables, options Options) string {
	d := xxhash.New()
	_, _ = d.WriteString("no-expiry-year=" + strconv.Itoa(options.NoExpiryYear) + tableSep)

	for _, entry := range []struct {
		table  *Table
		schema Schema
	}{
		{tables.Movements, MovementsSchema},
		{tables.Validity, ValiditySchema},
		{tables.Suppliers, SuppliersSchema},
		{tables.Timeline, TimelineSchema},
	} {
		_, _ = d.WriteString(entry.schema.Table + tableSep)
		if entry.table == nil {
			continue
		}

		index := make(map[string]int, len(entry.table.Columns))
		for i, name := range entry.table.Columns {
			name = strings.TrimSpace(name)
			if _, dup := index[name]; !dup {
				index[name] = i
			}
		}
		b := &boundTable{table: entry.table, schema: entry.schema, index: index}

		for _, row := range entry.table.Rows {
			for _, col := range entry.schema.Columns {
				_, _ = d.WriteString(canonical(b, row, col) + fieldSep)
			}
			_, _ = d.WriteString(rowSep)
		}
	}

	return fmt.Sprintf("%016x", d.Sum64())
}

// canonical renders a typed cell independent of its Go representation
func canonical(b *boundTable, row []any, col Column) string {
	switch col.Kind {
	case KindDecimal:
		if v, err := b.decimalCell(row, col.Name); err == nil && v.Valid {
			return v.Decimal.String()
		}
	case KindDate:
		if v, err := b.dateCell(row, col.Name); err == nil && v != nil {
			return v.Format(entities.DateLayout)
		}
	case KindShelfLife:
		if v, err := b.shelfLifeCell(row, col.Name); err == nil && v != nil {
			return v.String() + "=" + strconv.Itoa(v.Days)
		}
	default:
		if v, err := b.stringCell(row, col.Name); err == nil {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
