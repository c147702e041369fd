package dto

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/shelfwatch/pkg/domain/entities"
)

// Report represents the flattened result of one shelfwatch run.
// Dates are rendered as YYYY-MM-DD and decimals as plain strings so the
// same rows feed the text, JSON, CSV and XLSX outputs.
type Report struct {
	SnapshotID  string          `json:"snapshot_id"`
	AsOf        string          `json:"as_of"`
	Records     []MonitorRow    `json:"records,omitempty"`
	Warnings    []WarningRow    `json:"warnings,omitempty"`
	Divergences []DivergenceRow `json:"divergences,omitempty"`
	Problems    []ProblemRow    `json:"problems,omitempty"`
	Timeline    []TimelineRow   `json:"timeline,omitempty"`
	Excluded    []string        `json:"excluded_categories,omitempty"`
	Summary     []SummaryRow    `json:"summary,omitempty"`
}

// MonitorRow represents one classified record
type MonitorRow struct {
	Material             string `json:"material"`
	Description          string `json:"description"`
	Lot                  string `json:"lot"`
	Plant                string `json:"plant"`
	Depot                string `json:"depot"`
	Quantity             string `json:"quantity"`
	Unit                 string `json:"unit"`
	MovementType         string `json:"movement_type"`
	EntryDate            string `json:"entry_date"`
	ManufactureDate      string `json:"manufacture_date"`
	RecordedExpiry       string `json:"recorded_expiry"`
	ShelfLifeDays        string `json:"shelf_life_days"`
	ExpectedExpiry       string `json:"expected_expiry"`
	DeviationDays        string `json:"deviation_days"`
	DeviationPercent     string `json:"deviation_percent"`
	DeviationStatus      string `json:"deviation_status"`
	DaysRemaining        string `json:"days_remaining"`
	PercentLifeRemaining string `json:"percent_life_remaining"`
	TemporalStatus       string `json:"temporal_status"`
}

// WarningRow represents a per-record classification warning
type WarningRow struct {
	Record  string `json:"record"`
	Message string `json:"message"`
}

// DivergenceRow represents one movement/validity reconciliation failure
type DivergenceRow struct {
	Material         string `json:"material"`
	Lot              string `json:"lot"`
	Kind             string `json:"kind"`
	MovementQuantity string `json:"movement_quantity"`
	ValidityQuantity string `json:"validity_quantity"`
	MovementExpiry   string `json:"movement_expiry"`
	ValidityExpiry   string `json:"validity_expiry"`
	Detail           string `json:"detail"`
}

// ProblemRow represents a data quality problem on one record
type ProblemRow struct {
	Material string `json:"material"`
	Lot      string `json:"lot"`
	Plant    string `json:"plant"`
	Depot    string `json:"depot"`
	Kind     string `json:"kind"`
	Detail   string `json:"detail"`
}

// TimelineRow represents one timeline entry
type TimelineRow struct {
	Material             string `json:"material"`
	Description          string `json:"description"`
	Lot                  string `json:"lot"`
	Plant                string `json:"plant"`
	Depot                string `json:"depot"`
	Quantity             string `json:"quantity"`
	Expiry               string `json:"expiry"`
	DaysRemaining        string `json:"days_remaining"`
	PercentLifeRemaining string `json:"percent_life_remaining"`
	TemporalStatus       string `json:"temporal_status"`
	Category             string `json:"category"`
	Excluded             bool   `json:"excluded"`
}

// SummaryRow represents one headline indicator
type SummaryRow struct {
	Indicator string `json:"indicator"`
	Value     string `json:"value"`
	Percent   string `json:"percent,omitempty"`
}

// Table is a named header plus string rows, the common shape of every writer
type Table struct {
	Name   string
	Header []string
	Rows   [][]string
}

// NewReport creates an empty report for a snapshot evaluated on asOf
func NewReport(snapshotID string, asOf time.Time) *Report {
	return &Report{
		SnapshotID: snapshotID,
		AsOf:       asOf.Format(entities.DateLayout),
	}
}

// AddClassification appends classified records and their warnings
func (r *Report) AddClassification(records []entities.ClassifiedRecord, warnings []entities.RecordWarning) {
	for _, rec := range records {
		r.Records = append(r.Records, MonitorRow{
			Material:             string(rec.Key.Material),
			Description:          rec.Description,
			Lot:                  rec.Key.Lot,
			Plant:                rec.Key.Location.Plant,
			Depot:                rec.Key.Location.Depot,
			Quantity:             rec.Quantity.String(),
			Unit:                 rec.Unit,
			MovementType:         rec.MovementType,
			EntryDate:            entities.FormatDate(rec.EntryDate),
			ManufactureDate:      entities.FormatDate(rec.ManufactureDate),
			RecordedExpiry:       entities.FormatDate(rec.RecordedExpiry),
			ShelfLifeDays:        formatInt(rec.ShelfLifeDays),
			ExpectedExpiry:       entities.FormatDate(rec.ExpectedExpiry),
			DeviationDays:        formatInt(rec.DeviationDays),
			DeviationPercent:     FormatPercent(rec.DeviationPercent),
			DeviationStatus:      rec.DeviationStatus.String(),
			DaysRemaining:        formatInt(rec.DaysRemaining),
			PercentLifeRemaining: FormatPercent(rec.PercentLifeRemaining),
			TemporalStatus:       rec.TemporalStatus.String(),
		})
	}
	for _, w := range warnings {
		r.Warnings = append(r.Warnings, WarningRow{Record: w.Key.String(), Message: w.Err.Error()})
	}
}

// AddAudit appends divergences and record problems
func (r *Report) AddAudit(report *entities.AuditReport) {
	if report == nil {
		return
	}
	for _, d := range report.Divergences {
		r.Divergences = append(r.Divergences, DivergenceRow{
			Material:         string(d.Key.Material),
			Lot:              d.Key.Lot,
			Kind:             d.Kind.String(),
			MovementQuantity: formatNullDecimal(d.MovementQuantity),
			ValidityQuantity: formatNullDecimal(d.ValidityQuantity),
			MovementExpiry:   entities.FormatDate(d.MovementExpiry),
			ValidityExpiry:   entities.FormatDate(d.ValidityExpiry),
			Detail:           d.Detail,
		})
	}
	for _, p := range report.Problems {
		r.Problems = append(r.Problems, ProblemRow{
			Material: string(p.Key.Material),
			Lot:      p.Key.Lot,
			Plant:    p.Key.Location.Plant,
			Depot:    p.Key.Location.Depot,
			Kind:     p.Kind.String(),
			Detail:   p.Detail,
		})
	}
}

// AddTimeline appends timeline entries. Excluded entries are kept only when
// includeExcluded is set.
func (r *Report) AddTimeline(tl *entities.Timeline, includeExcluded bool) {
	if tl == nil {
		return
	}
	for _, category := range tl.Excluded.Sorted() {
		r.Excluded = append(r.Excluded, category.String())
	}
	for _, entry := range tl.Entries {
		if entry.Excluded && !includeExcluded {
			continue
		}
		expiry := entry.AnalysisExpiry
		if expiry == nil {
			expiry = entry.RecordedExpiry
		}
		r.Timeline = append(r.Timeline, TimelineRow{
			Material:             string(entry.Key.Material),
			Description:          entry.Description,
			Lot:                  entry.Key.Lot,
			Plant:                entry.Key.Location.Plant,
			Depot:                entry.Key.Location.Depot,
			Quantity:             entry.Quantity.String(),
			Expiry:               entities.FormatDate(expiry),
			DaysRemaining:        formatInt(entry.DaysRemaining),
			PercentLifeRemaining: FormatPercent(entry.PercentLifeRemaining),
			TemporalStatus:       entry.TemporalStatus.String(),
			Category:             entry.Category.String(),
			Excluded:             entry.Excluded,
		})
	}
}

// AddSummary appends headline indicators in a fixed order
func (r *Report) AddSummary(s *entities.Summary) {
	if s == nil {
		return
	}
	r.Summary = append(r.Summary,
		SummaryRow{Indicator: "records", Value: strconv.Itoa(s.TotalRecords)},
		SummaryRow{Indicator: "total_quantity", Value: s.TotalQuantity.String()},
		SummaryRow{Indicator: "warnings", Value: strconv.Itoa(s.Warnings)},
	)
	for _, status := range entities.DeviationStatuses() {
		count := s.Deviation[status]
		r.Summary = append(r.Summary, SummaryRow{
			Indicator: "deviation." + status.String(),
			Value:     strconv.Itoa(count),
			Percent:   s.Percent(count).StringFixed(1),
		})
	}
	for _, status := range entities.TemporalStatuses() {
		count := s.Temporal[status]
		r.Summary = append(r.Summary, SummaryRow{
			Indicator: "temporal." + status.String(),
			Value:     strconv.Itoa(count),
			Percent:   s.Percent(count).StringFixed(1),
		})
	}
	for _, kind := range entities.DivergenceKinds() {
		r.Summary = append(r.Summary, SummaryRow{
			Indicator: "divergence." + kind.String(),
			Value:     strconv.Itoa(s.Divergences[kind]),
		})
	}
	for _, kind := range entities.ProblemKinds() {
		r.Summary = append(r.Summary, SummaryRow{
			Indicator: "problem." + kind.String(),
			Value:     strconv.Itoa(s.Problems[kind]),
		})
	}
}

// Tables returns every non-empty section of the report as a Table, in the
// order Monitor, Warnings, Audit, Problems, Timeline, Summary
func (r *Report) Tables() []Table {
	var tables []Table

	if len(r.Records) > 0 {
		t := Table{Name: "Monitor", Header: []string{
			"material", "description", "lot", "plant", "depot", "quantity", "unit", "movement_type",
			"entry_date", "manufacture_date", "recorded_expiry", "shelf_life_days", "expected_expiry",
			"deviation_days", "deviation_percent", "deviation_status", "days_remaining",
			"percent_life_remaining", "temporal_status",
		}}
		for _, row := range r.Records {
			t.Rows = append(t.Rows, []string{
				row.Material, row.Description, row.Lot, row.Plant, row.Depot, row.Quantity, row.Unit, row.MovementType,
				row.EntryDate, row.ManufactureDate, row.RecordedExpiry, row.ShelfLifeDays, row.ExpectedExpiry,
				row.DeviationDays, row.DeviationPercent, row.DeviationStatus, row.DaysRemaining,
				row.PercentLifeRemaining, row.TemporalStatus,
			})
		}
		tables = append(tables, t)
	}

	if len(r.Warnings) > 0 {
		t := Table{Name: "Warnings", Header: []string{"record", "message"}}
		for _, row := range r.Warnings {
			t.Rows = append(t.Rows, []string{row.Record, row.Message})
		}
		tables = append(tables, t)
	}

	if len(r.Divergences) > 0 {
		t := Table{Name: "Audit", Header: []string{
			"material", "lot", "kind", "movement_quantity", "validity_quantity",
			"movement_expiry", "validity_expiry", "detail",
		}}
		for _, row := range r.Divergences {
			t.Rows = append(t.Rows, []string{
				row.Material, row.Lot, row.Kind, row.MovementQuantity, row.ValidityQuantity,
				row.MovementExpiry, row.ValidityExpiry, row.Detail,
			})
		}
		tables = append(tables, t)
	}

	if len(r.Problems) > 0 {
		t := Table{Name: "Problems", Header: []string{"material", "lot", "plant", "depot", "kind", "detail"}}
		for _, row := range r.Problems {
			t.Rows = append(t.Rows, []string{row.Material, row.Lot, row.Plant, row.Depot, row.Kind, row.Detail})
		}
		tables = append(tables, t)
	}

	if len(r.Timeline) > 0 {
		t := Table{Name: "Timeline", Header: []string{
			"material", "description", "lot", "plant", "depot", "quantity", "expiry",
			"days_remaining", "percent_life_remaining", "temporal_status", "category", "excluded",
		}}
		for _, row := range r.Timeline {
			t.Rows = append(t.Rows, []string{
				row.Material, row.Description, row.Lot, row.Plant, row.Depot, row.Quantity, row.Expiry,
				row.DaysRemaining, row.PercentLifeRemaining, row.TemporalStatus, row.Category,
				strconv.FormatBool(row.Excluded),
			})
		}
		tables = append(tables, t)
	}

	if len(r.Summary) > 0 {
		t := Table{Name: "Summary", Header: []string{"indicator", "value", "percent"}}
		for _, row := range r.Summary {
			t.Rows = append(t.Rows, []string{row.Indicator, row.Value, row.Percent})
		}
		tables = append(tables, t)
	}

	return tables
}

// FormatPercent renders a fraction as a percentage with one decimal place,
// or "" when the value is unknown
func FormatPercent(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.Mul(decimal.NewFromInt(100)).StringFixed(1)
}

func formatNullDecimal(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.String()
}

func formatInt(v *int) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%d", *v)
}
