package entities

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// DeviationStatus classifies recorded expiry against expected expiry
type DeviationStatus int

const (
	DeviationUnknown DeviationStatus = iota
	WithinExpected
	DeviationAttention
	OutsideExpected
)

// String method for DeviationStatus enum
func (s DeviationStatus) String() string {
	switch s {
	case WithinExpected:
		return "WITHIN_EXPECTED"
	case DeviationAttention:
		return "ATTENTION"
	case OutsideExpected:
		return "OUTSIDE_EXPECTED"
	default:
		return "UNKNOWN"
	}
}

// MarshalText renders the status name
func (s DeviationStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// DeviationStatuses lists every deviation status in report order
func DeviationStatuses() []DeviationStatus {
	return []DeviationStatus{WithinExpected, DeviationAttention, OutsideExpected, DeviationUnknown}
}

// TemporalStatus classifies remaining shelf life
type TemporalStatus int

const (
	TemporalUnknown TemporalStatus = iota
	Good
	TemporalAttention
	Critical
	Expired
)

// String method for TemporalStatus enum
func (s TemporalStatus) String() string {
	switch s {
	case Good:
		return "GOOD"
	case TemporalAttention:
		return "ATTENTION"
	case Critical:
		return "CRITICAL"
	case Expired:
		return "EXPIRED"
	default:
		return "UNKNOWN"
	}
}

// MarshalText renders the status name
func (s TemporalStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Severity orders known statuses from GOOD (1) to EXPIRED (4); UNKNOWN is 0
func (s TemporalStatus) Severity() int {
	return int(s)
}

// IsCritical reports whether the status belongs to the critical-items view
func (s TemporalStatus) IsCritical() bool {
	return s == Expired || s == Critical || s == TemporalAttention
}

// TemporalStatuses lists every temporal status from most to least severe
func TemporalStatuses() []TemporalStatus {
	return []TemporalStatus{Expired, Critical, TemporalAttention, Good, TemporalUnknown}
}

// DivergenceKind is the reason a lot key failed reconciliation
type DivergenceKind int

const (
	MissingInValidity DivergenceKind = iota
	MissingInMovement
	QuantityMismatch
	DateConflict
)

// String method for DivergenceKind enum
func (k DivergenceKind) String() string {
	switch k {
	case MissingInValidity:
		return "MISSING_IN_VALIDITY"
	case MissingInMovement:
		return "MISSING_IN_MOVEMENT"
	case QuantityMismatch:
		return "QUANTITY_MISMATCH"
	case DateConflict:
		return "DATE_CONFLICT"
	default:
		return "UNKNOWN"
	}
}

// MarshalText renders the kind name
func (k DivergenceKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// DivergenceKinds lists every divergence kind
func DivergenceKinds() []DivergenceKind {
	return []DivergenceKind{MissingInValidity, MissingInMovement, QuantityMismatch, DateConflict}
}

// Category groups timeline entries for exclusion rules
type Category int

const (
	CategoryNormal Category = iota
	CategoryScrap
	CategoryLogisticsTransfer
)

// String method for Category enum
func (c Category) String() string {
	switch c {
	case CategoryNormal:
		return "NORMAL"
	case CategoryScrap:
		return "SCRAP"
	case CategoryLogisticsTransfer:
		return "LOGISTICS_TRANSFER"
	default:
		return "UNKNOWN"
	}
}

// MarshalText renders the category name
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText parses a category name
func (c *Category) UnmarshalText(text []byte) error {
	parsed, err := ParseCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseCategory parses a category name, ignoring case and separators
func ParseCategory(s string) (Category, error) {
	normalized := strings.ToUpper(strings.TrimSpace(s))
	normalized = strings.NewReplacer("-", "_", " ", "_").Replace(normalized)
	switch normalized {
	case "NORMAL":
		return CategoryNormal, nil
	case "SCRAP":
		return CategoryScrap, nil
	case "LOGISTICS_TRANSFER", "LOGISTICS", "TRANSFER":
		return CategoryLogisticsTransfer, nil
	default:
		return CategoryNormal, fmt.Errorf("unknown category %q", s)
	}
}

// CategorySet is a set of categories
type CategorySet map[Category]struct{}

// NewCategorySet creates a set holding the given categories
func NewCategorySet(categories ...Category) CategorySet {
	set := make(CategorySet, len(categories))
	for _, c := range categories {
		set[c] = struct{}{}
	}
	return set
}

// DefaultExcludedCategories returns the categories hidden from critical counts by default
func DefaultExcludedCategories() CategorySet {
	return NewCategorySet(CategoryScrap, CategoryLogisticsTransfer)
}

// Contains reports whether c is in the set
func (s CategorySet) Contains(c Category) bool {
	_, ok := s[c]
	return ok
}

// Sorted returns the members in enum order
func (s CategorySet) Sorted() []Category {
	out := make([]Category, 0, len(s))
	for c := range s {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// String renders the set as a comma separated list
func (s CategorySet) String() string {
	names := make([]string, 0, len(s))
	for _, c := range s.Sorted() {
		names = append(names, c.String())
	}
	return strings.Join(names, ",")
}

// MarshalJSON renders the set as a sorted list of names
func (s CategorySet) MarshalJSON() ([]byte, error) {
	names := make([]string, 0, len(s))
	for _, c := range s.Sorted() {
		names = append(names, c.String())
	}
	return json.Marshal(names)
}

// ProblemKind is a per-record data quality issue reported by the audit
type ProblemKind int

const (
	NoShelfLifeSpec ProblemKind = iota
	NoRecordedExpiry
	NoExpectedExpiry
	ProblemExpired
	DeviationOutside
)

// String method for ProblemKind enum
func (k ProblemKind) String() string {
	switch k {
	case NoShelfLifeSpec:
		return "NO_SHELF_LIFE_SPEC"
	case NoRecordedExpiry:
		return "NO_RECORDED_EXPIRY"
	case NoExpectedExpiry:
		return "NO_EXPECTED_EXPIRY"
	case ProblemExpired:
		return "EXPIRED"
	case DeviationOutside:
		return "DEVIATION_OUTSIDE"
	default:
		return "UNKNOWN"
	}
}

// MarshalText renders the problem name
func (k ProblemKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Description returns a human readable explanation of the problem
func (k ProblemKind) Description() string {
	switch k {
	case NoShelfLifeSpec:
		return "no shelf life registered for material"
	case NoRecordedExpiry:
		return "lot has no recorded expiry"
	case NoExpectedExpiry:
		return "expected expiry could not be calculated"
	case ProblemExpired:
		return "lot is past its expiry"
	case DeviationOutside:
		return "recorded expiry deviates beyond tolerance"
	default:
		return "unknown problem"
	}
}

// ProblemKinds lists every record problem kind
func ProblemKinds() []ProblemKind {
	return []ProblemKind{NoShelfLifeSpec, NoRecordedExpiry, NoExpectedExpiry, ProblemExpired, DeviationOutside}
}
