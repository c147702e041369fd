package timeline_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/shelfwatch/pkg/application/services/classification"
	"github.com/vsinha/shelfwatch/pkg/application/services/snapshot"
	"github.com/vsinha/shelfwatch/pkg/application/services/timeline"
	"github.com/vsinha/shelfwatch/pkg/domain/entities"
	"github.com/vsinha/shelfwatch/pkg/domain/services"
	testhelpers "github.com/vsinha/shelfwatch/pkg/infrastructure/testing"
)

func classify(t *testing.T, tables snapshot.Tables, extract bool) []entities.ClassifiedRecord {
	t.Helper()
	snap, err := snapshot.NewLoader(snapshot.DefaultOptions(), nil).Load(tables)
	require.NoError(t, err)
	svc, err := classification.NewService(classification.DefaultConfig(), nil)
	require.NoError(t, err)
	if extract {
		return svc.ClassifyExtract(snap, testhelpers.AsOf).Records
	}
	return svc.Classify(snap, testhelpers.AsOf).Records
}

func keys(entries []entities.TimelineEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, string(e.Key.Material)+"/"+e.Key.Lot)
	}
	return out
}

func newAggregator(t *testing.T) *timeline.Aggregator {
	t.Helper()
	agg, err := timeline.NewAggregator(services.DefaultCategoryRules())
	require.NoError(t, err)
	return agg
}

func TestBuild_FromMovementRecords(t *testing.T) {
	records := classify(t, testhelpers.BuildComplianceTables(), false)

	tl := newAggregator(t).Build(records, testhelpers.AsOf, entities.DefaultExcludedCategories())

	assert.Equal(t, []string{"M400/L9", "M100/L1", "M200/L55", "M500/L3"}, keys(tl.Entries))
	assert.Equal(t, entities.CategoryScrap, tl.Entries[0].Category)
	assert.True(t, tl.Entries[0].Excluded)

	assert.Equal(t, entities.StatusCounts{
		entities.TemporalAttention: 1,
		entities.Good:              1,
		entities.TemporalUnknown:   1,
	}, tl.Counts)
	assert.Equal(t, map[entities.Category]int{entities.CategoryScrap: 1}, tl.ExcludedCounts)
	assert.Equal(t, []string{"M100/L1"}, keys(tl.CriticalItems()))
}

func TestBuild_FromTimelineExtract(t *testing.T) {
	records := classify(t, testhelpers.BuildComplianceTablesWithExtract(), true)

	tl := newAggregator(t).Build(records, testhelpers.AsOf, entities.DefaultExcludedCategories())

	assert.Equal(t, []string{"M600/L2", "M400/L9", "M100/L8", "M100/L1", "M800/L5"}, keys(tl.Entries))
	assert.Equal(t, entities.StatusCounts{entities.TemporalAttention: 2, entities.TemporalUnknown: 1}, tl.Counts)
	assert.Equal(t, map[entities.Category]int{
		entities.CategoryScrap:             1,
		entities.CategoryLogisticsTransfer: 1,
	}, tl.ExcludedCounts)
	assert.Equal(t, []string{"M100/L8", "M100/L1"}, keys(tl.CriticalItems()))
	assert.Len(t, tl.Visible(), 3)
}

func TestApply_ChangingExclusionsKeepsEntries(t *testing.T) {
	records := classify(t, testhelpers.BuildComplianceTablesWithExtract(), true)
	categorized := newAggregator(t).Categorize(records)

	all := timeline.Apply(categorized, testhelpers.AsOf, entities.NewCategorySet())
	assert.Len(t, all.Entries, 5)
	assert.Empty(t, all.ExcludedCounts)
	assert.Equal(t, entities.StatusCounts{
		entities.Expired:           1,
		entities.Critical:          1,
		entities.TemporalAttention: 2,
		entities.TemporalUnknown:   1,
	}, all.Counts)
	assert.Equal(t, []string{"M600/L2", "M400/L9", "M100/L8", "M100/L1"}, keys(all.CriticalItems()))

	scrapOnly := timeline.Apply(categorized, testhelpers.AsOf, entities.NewCategorySet(entities.CategoryScrap))
	assert.Len(t, scrapOnly.Entries, 5, "exclusion never removes entries")
	assert.Equal(t, 1, scrapOnly.Counts[entities.Expired])
	assert.Equal(t, 0, scrapOnly.Counts[entities.Critical])

	// The categorized input is not mutated by Apply
	for _, entry := range categorized {
		assert.False(t, entry.Excluded)
	}
}

func TestCategorize_TieBreak(t *testing.T) {
	days := 10
	record := func(material entities.MaterialCode, lot, depot string) entities.ClassifiedRecord {
		return entities.ClassifiedRecord{
			MaterialRecord: entities.MaterialRecord{
				Key: entities.RecordKey{Material: material, Lot: lot, Location: entities.Location{Plant: "4400", Depot: depot}},
			},
			DaysRemaining: &days,
		}
	}

	entries := newAggregator(t).Categorize([]entities.ClassifiedRecord{
		record("M2", "A", "0001"),
		record("M1", "B", "0002"),
		record("M1", "B", "0001"),
		record("M1", "A", "0009"),
	})

	require.Len(t, entries, 4)
	assert.Equal(t, "0009", entries[0].Key.Location.Depot)
	assert.Equal(t, "0001", entries[1].Key.Location.Depot)
	assert.Equal(t, "0002", entries[2].Key.Location.Depot)
	assert.Equal(t, entities.MaterialCode("M2"), entries[3].Key.Material)
}

func TestSummarize(t *testing.T) {
	records := classify(t, testhelpers.BuildComplianceTables(), false)
	report := &entities.AuditReport{
		Divergences: []entities.Divergence{{Kind: entities.MissingInValidity}, {Kind: entities.QuantityMismatch}},
		Problems:    []entities.RecordProblem{{Kind: entities.NoRecordedExpiry}},
	}

	summary := timeline.Summarize(testhelpers.AsOf, records, report, 1)

	assert.Equal(t, 4, summary.TotalRecords)
	assert.True(t, summary.TotalQuantity.Equal(decimal.NewFromInt(190)))
	assert.Equal(t, 2, summary.Deviation[entities.DeviationUnknown])
	assert.Equal(t, 1, summary.Temporal[entities.Critical])
	assert.Equal(t, 1, summary.Divergences[entities.QuantityMismatch])
	assert.Equal(t, 1, summary.Problems[entities.NoRecordedExpiry])
	assert.True(t, summary.Percent(1).Equal(decimal.RequireFromString("25")))
}
