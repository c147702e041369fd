package timeline

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/shelfwatch/pkg/domain/entities"
)

// Summarize computes headline indicators from a classified set and its audit
func Summarize(asOf time.Time, records []entities.ClassifiedRecord, report *entities.AuditReport, warnings int) *entities.Summary {
	summary := &entities.Summary{
		AsOf:          entities.Day(asOf),
		TotalRecords:  len(records),
		TotalQuantity: decimal.Zero,
		Deviation:     make(map[entities.DeviationStatus]int),
		Temporal:      make(map[entities.TemporalStatus]int),
		Divergences:   make(map[entities.DivergenceKind]int),
		Problems:      make(map[entities.ProblemKind]int),
		Warnings:      warnings,
	}

	for _, record := range records {
		summary.TotalQuantity = summary.TotalQuantity.Add(record.Quantity)
		summary.Deviation[record.DeviationStatus]++
		summary.Temporal[record.TemporalStatus]++
	}

	if report != nil {
		for _, d := range report.Divergences {
			summary.Divergences[d.Kind]++
		}
		for _, p := range report.Problems {
			summary.Problems[p.Kind]++
		}
	}
	return summary
}
