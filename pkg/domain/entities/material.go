package entities

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// MaterialCode represents a unique material identifier
type MaterialCode string

// Location is a storage position identified by plant and depot
type Location struct {
	Plant string `json:"plant"`
	Depot string `json:"depot"`
}

// String renders the location as plant/depot
func (l Location) String() string {
	return l.Plant + "/" + l.Depot
}

// ParseLocation parses a plant/depot pair
func ParseLocation(s string) (Location, error) {
	plant, depot, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok || strings.TrimSpace(plant) == "" || strings.TrimSpace(depot) == "" {
		return Location{}, fmt.Errorf("location %q must be written as plant/depot", s)
	}
	return Location{Plant: strings.TrimSpace(plant), Depot: strings.TrimSpace(depot)}, nil
}

// LotKey identifies a lot of a material across all sources
type LotKey struct {
	Material MaterialCode `json:"material"`
	Lot      string       `json:"lot"`
}

// String renders the key as material/lot
func (k LotKey) String() string {
	return string(k.Material) + "/" + k.Lot
}

// Compare orders lot keys by material then lot
func (k LotKey) Compare(other LotKey) int {
	if c := strings.Compare(string(k.Material), string(other.Material)); c != 0 {
		return c
	}
	return strings.Compare(k.Lot, other.Lot)
}

// RecordKey identifies a material record: a lot held at one location
type RecordKey struct {
	Material MaterialCode `json:"material"`
	Lot      string       `json:"lot"`
	Location Location     `json:"location"`
}

// LotKey drops the location from the key
func (k RecordKey) LotKey() LotKey {
	return LotKey{Material: k.Material, Lot: k.Lot}
}

// String renders the key as material/lot@plant/depot
func (k RecordKey) String() string {
	return k.LotKey().String() + "@" + k.Location.String()
}

// Compare orders record keys by material, lot, plant and depot
func (k RecordKey) Compare(other RecordKey) int {
	if c := k.LotKey().Compare(other.LotKey()); c != 0 {
		return c
	}
	if c := strings.Compare(k.Location.Plant, other.Location.Plant); c != 0 {
		return c
	}
	return strings.Compare(k.Location.Depot, other.Location.Depot)
}

// MovementRecord is one typed row of the stock movement table
type MovementRecord struct {
	Material        MaterialCode
	Description     string
	Lot             string
	Location        Location
	Quantity        decimal.Decimal
	Unit            string
	MovementType    string
	Supplier        string
	EntryDate       *time.Time
	ManufactureDate *time.Time
	Expiry          *time.Time
	Row             int
}

// Key returns the record key of the movement row
func (m MovementRecord) Key() RecordKey {
	return RecordKey{Material: m.Material, Lot: m.Lot, Location: m.Location}
}

// ValidityRecord is one typed row of the lot validity table
type ValidityRecord struct {
	Material        MaterialCode
	Lot             string
	Expiry          *time.Time
	NoExpiry        bool
	ManufactureDate *time.Time
	Quantity        decimal.NullDecimal
	Row             int
}

// Key returns the lot key of the validity row
func (v ValidityRecord) Key() LotKey {
	return LotKey{Material: v.Material, Lot: v.Lot}
}

// ExtractRecord is one typed row of the expiry timeline extract
type ExtractRecord struct {
	Material        MaterialCode
	Description     string
	Lot             string
	Location        Location
	Expiry          *time.Time
	NoExpiry        bool
	ManufactureDate *time.Time
	FreeForUse      decimal.Decimal
	Restricted      decimal.Decimal
	Row             int
}

// Key returns the record key of the extract row
func (e ExtractRecord) Key() RecordKey {
	return RecordKey{Material: e.Material, Lot: e.Lot, Location: e.Location}
}

// HasMovementType reports whether any movement folded into the record carries mt
func (m MaterialRecord) HasMovementType(mt string) bool {
	if mt == "" {
		return false
	}
	if m.MovementType == mt {
		return true
	}
	for _, seen := range m.MovementTypes {
		if seen == mt {
			return true
		}
	}
	return false
}

// MaterialRecord is the reconciled view of one lot at one location
type MaterialRecord struct {
	Key             RecordKey       `json:"key"`
	Description     string          `json:"description,omitempty"`
	Quantity        decimal.Decimal `json:"quantity"`
	Unit            string          `json:"unit,omitempty"`
	MovementType    string          `json:"movement_type,omitempty"`
	MovementTypes   []string        `json:"movement_types,omitempty"`
	EntryDate       *time.Time      `json:"entry_date,omitempty"`
	ManufactureDate *time.Time      `json:"manufacture_date,omitempty"`
	RecordedExpiry  *time.Time      `json:"recorded_expiry,omitempty"`
	NoExpiry        bool            `json:"no_expiry,omitempty"`
}
