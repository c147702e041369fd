package entities

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Day-count convention applied to every unit-tagged shelf life
const (
	DaysPerWeek  = 7
	DaysPerMonth = 30
	DaysPerYear  = 365
)

// DurationUnit is the unit a shelf life was declared in
type DurationUnit int

const (
	UnitDays DurationUnit = iota
	UnitWeeks
	UnitMonths
	UnitYears
)

// String method for DurationUnit enum
func (u DurationUnit) String() string {
	switch u {
	case UnitDays:
		return "days"
	case UnitWeeks:
		return "weeks"
	case UnitMonths:
		return "months"
	case UnitYears:
		return "years"
	default:
		return "unknown"
	}
}

// MarshalText renders the unit name
func (u DurationUnit) MarshalText() ([]byte, error) {
	return []byte(u.String()), nil
}

// DaysPerUnit returns the fixed day count of one unit
func (u DurationUnit) DaysPerUnit() int {
	switch u {
	case UnitWeeks:
		return DaysPerWeek
	case UnitMonths:
		return DaysPerMonth
	case UnitYears:
		return DaysPerYear
	default:
		return 1
	}
}

// ShelfLife is a unit-tagged duration together with its normalized day count
type ShelfLife struct {
	Value decimal.Decimal
	Unit  DurationUnit
	Days  int
}

// NewShelfLife creates a validated ShelfLife, rounding fractional days half away from zero
func NewShelfLife(value decimal.Decimal, unit DurationUnit) (*ShelfLife, error) {
	if unit < UnitDays || unit > UnitYears {
		return nil, fmt.Errorf("unsupported duration unit %d", int(unit))
	}
	if !value.IsPositive() {
		return nil, fmt.Errorf("shelf life must be positive, got %s %s", value.String(), unit)
	}

	days := value.Mul(decimal.NewFromInt(int64(unit.DaysPerUnit()))).Round(0).IntPart()
	if days <= 0 {
		return nil, fmt.Errorf("shelf life %s %s rounds to zero days", value.String(), unit)
	}

	return &ShelfLife{Value: value, Unit: unit, Days: int(days)}, nil
}

// String renders the declared value and unit
func (s ShelfLife) String() string {
	return fmt.Sprintf("%s %s", s.Value.String(), s.Unit)
}

// ShelfLifeSpec is a supplier's declared shelf life for a material
type ShelfLifeSpec struct {
	Material  MaterialCode
	Supplier  string
	ShelfLife ShelfLife
	AddedAt   *time.Time
	Row       int
}

// NewShelfLifeSpec creates a validated ShelfLifeSpec
func NewShelfLifeSpec(material MaterialCode, supplier string, shelfLife ShelfLife, addedAt *time.Time) (*ShelfLifeSpec, error) {
	if material == "" {
		return nil, fmt.Errorf("material code cannot be empty")
	}
	if shelfLife.Days <= 0 {
		return nil, fmt.Errorf("shelf life for material %s must be positive, got %d days", material, shelfLife.Days)
	}

	spec := &ShelfLifeSpec{
		Material:  material,
		Supplier:  supplier,
		ShelfLife: shelfLife,
	}
	if addedAt != nil {
		spec.AddedAt = DatePtr(*addedAt)
	}
	return spec, nil
}
