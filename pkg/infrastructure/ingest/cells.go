package ingest

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/vsinha/shelfwatch/pkg/application/services/snapshot"
	"github.com/vsinha/shelfwatch/pkg/domain/entities"
	"github.com/vsinha/shelfwatch/pkg/domain/services"
)

// DateLayouts are the textual date formats accepted in date columns
var DateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"02.01.2006",
	"2006-01-02 15:04:05",
	"02/01/2006 15:04:05",
	time.RFC3339,
}

// Spreadsheet exports render integer codes as floats
var trailingZeroFraction = regexp.MustCompile(`\.0+$`)

// codeColumns hold identifiers that must survive a float round trip
var codeColumns = map[string]bool{
	snapshot.ColMaterial:     true,
	snapshot.ColLot:          true,
	snapshot.ColPlant:        true,
	snapshot.ColDepot:        true,
	snapshot.ColMovementType: true,
}

// CellParser converts raw text cells into the typed values a snapshot schema expects
type CellParser struct {
	shelfLife *services.ShelfLifeParser
}

// NewCellParser creates a new cell parser
func NewCellParser() *CellParser {
	return &CellParser{shelfLife: services.NewShelfLifeParser()}
}

// Parse converts raw for a column of the given kind. Blank cells become nil.
// Text that cannot be converted is returned unchanged, so the snapshot's
// strict schema check reports it with its table, row and column.
func (p *CellParser) Parse(column snapshot.Column, raw string) any {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	switch column.Kind {
	case snapshot.KindString:
		if codeColumns[column.Name] {
			return trailingZeroFraction.ReplaceAllString(raw, "")
		}
		return raw
	case snapshot.KindDecimal:
		if d, err := ParseDecimal(raw); err == nil {
			return d
		}
	case snapshot.KindDate:
		if t, err := ParseDate(raw); err == nil {
			return t
		}
	case snapshot.KindShelfLife:
		if sl, err := p.shelfLife.Parse(raw); err == nil {
			return *sl
		}
	}
	return raw
}

// ParseDecimal reads numbers written with either decimal separator.
// When both separators appear the rightmost one is the decimal point.
func ParseDecimal(raw string) (decimal.Decimal, error) {
	s := strings.ReplaceAll(strings.TrimSpace(raw), " ", "")
	comma, dot := strings.LastIndex(s, ","), strings.LastIndex(s, ".")
	switch {
	case comma >= 0 && dot >= 0 && comma > dot:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case comma >= 0 && dot >= 0:
		s = strings.ReplaceAll(s, ",", "")
	case comma >= 0:
		s = strings.Replace(s, ",", ".", 1)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid number %q", raw)
	}
	return d, nil
}

// ParseDate reads a civil date from text or from an Excel serial day number
func ParseDate(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	for _, layout := range DateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return entities.Day(t), nil
		}
	}

	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 0 {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid date serial %q: %w", raw, err)
		}
		return entities.Day(t), nil
	}
	return time.Time{}, fmt.Errorf("invalid date %q", raw)
}
