package entities

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// ClassifiedRecord is a MaterialRecord with its expiry analysis
type ClassifiedRecord struct {
	MaterialRecord

	ShelfLifeDays        *int                `json:"shelf_life_days,omitempty"`
	ExpectedExpiry       *time.Time          `json:"expected_expiry,omitempty"`
	DeviationDays        *int                `json:"deviation_days,omitempty"`
	DeviationPercent     decimal.NullDecimal `json:"deviation_percent"`
	DeviationStatus      DeviationStatus     `json:"deviation_status"`
	AnalysisExpiry       *time.Time          `json:"analysis_expiry,omitempty"`
	DaysRemaining        *int                `json:"days_remaining,omitempty"`
	PercentLifeRemaining decimal.NullDecimal `json:"percent_life_remaining"`
	TemporalStatus       TemporalStatus      `json:"temporal_status"`
}

// RecordWarning is a per-record error collected during classification
type RecordWarning struct {
	Key RecordKey
	Err error
}

// Error implements error
func (w RecordWarning) Error() string {
	return w.Key.String() + ": " + w.Err.Error()
}

// Unwrap exposes the underlying error to errors.Is and errors.As
func (w RecordWarning) Unwrap() error {
	return w.Err
}

// MarshalJSON renders the key with the error message
func (w RecordWarning) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Key     RecordKey `json:"key"`
		Message string    `json:"message"`
	}{Key: w.Key, Message: w.Err.Error()})
}

// Divergence is a reconciliation failure between movement and validity data for one lot
type Divergence struct {
	Key              LotKey              `json:"key"`
	Kind             DivergenceKind      `json:"kind"`
	MovementQuantity decimal.NullDecimal `json:"movement_quantity"`
	ValidityQuantity decimal.NullDecimal `json:"validity_quantity"`
	MovementExpiry   *time.Time          `json:"movement_expiry,omitempty"`
	ValidityExpiry   *time.Time          `json:"validity_expiry,omitempty"`
	Detail           string              `json:"detail,omitempty"`
}

// TimelineEntry is a classified record tagged with its exclusion category
type TimelineEntry struct {
	ClassifiedRecord
	Category Category `json:"category"`
	Excluded bool     `json:"excluded"`
}

// StatusCounts counts entries per temporal status
type StatusCounts map[TemporalStatus]int

// Timeline is the chronological view of classified records
type Timeline struct {
	AsOf           time.Time        `json:"as_of"`
	Entries        []TimelineEntry  `json:"entries"`
	Counts         StatusCounts     `json:"counts"`
	ExcludedCounts map[Category]int `json:"excluded_counts"`
	Excluded       CategorySet      `json:"excluded_categories"`
}

// Visible returns the entries not hidden by the exclusion set
func (t *Timeline) Visible() []TimelineEntry {
	var visible []TimelineEntry
	for _, entry := range t.Entries {
		if !entry.Excluded {
			visible = append(visible, entry)
		}
	}
	return visible
}

// CriticalItems returns visible entries that are expired, critical or need attention
func (t *Timeline) CriticalItems() []TimelineEntry {
	var items []TimelineEntry
	for _, entry := range t.Entries {
		if !entry.Excluded && entry.TemporalStatus.IsCritical() {
			items = append(items, entry)
		}
	}
	return items
}

// RecordProblem is a data quality issue on a single classified record
type RecordProblem struct {
	Key    RecordKey   `json:"key"`
	Kind   ProblemKind `json:"kind"`
	Detail string      `json:"detail"`
}

// AuditReport bundles lot divergences with per-record problems
type AuditReport struct {
	Divergences []Divergence    `json:"divergences"`
	Problems    []RecordProblem `json:"problems"`
}

// Summary holds headline indicators for a snapshot
type Summary struct {
	AsOf          time.Time               `json:"as_of"`
	TotalRecords  int                     `json:"total_records"`
	TotalQuantity decimal.Decimal         `json:"total_quantity"`
	Deviation     map[DeviationStatus]int `json:"deviation"`
	Temporal      map[TemporalStatus]int  `json:"temporal"`
	Divergences   map[DivergenceKind]int  `json:"divergences"`
	Problems      map[ProblemKind]int     `json:"problems"`
	Warnings      int                     `json:"warnings"`
}

// Percent returns count as a percentage of all records, one decimal place
func (s Summary) Percent(count int) decimal.Decimal {
	if s.TotalRecords == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(count)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(s.TotalRecords))).
		Round(1)
}
