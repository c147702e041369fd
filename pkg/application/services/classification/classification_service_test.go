package classification_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/shelfwatch/pkg/application/services/classification"
	"github.com/vsinha/shelfwatch/pkg/application/services/snapshot"
	"github.com/vsinha/shelfwatch/pkg/domain/entities"
	testhelpers "github.com/vsinha/shelfwatch/pkg/infrastructure/testing"
)

func setup(t *testing.T, tables snapshot.Tables) (*classification.Service, *snapshot.Snapshot) {
	t.Helper()
	snap, err := snapshot.NewLoader(snapshot.DefaultOptions(), nil).Load(tables)
	require.NoError(t, err)
	svc, err := classification.NewService(classification.DefaultConfig(), nil)
	require.NoError(t, err)
	return svc, snap
}

func byMaterial(records []entities.ClassifiedRecord) map[string]entities.ClassifiedRecord {
	out := make(map[string]entities.ClassifiedRecord, len(records))
	for _, r := range records {
		out[string(r.Key.Material)+"/"+r.Key.Lot] = r
	}
	return out
}

func TestClassify_ComplianceScenario(t *testing.T) {
	svc, snap := setup(t, testhelpers.BuildComplianceTables())

	result := svc.Classify(snap, testhelpers.AsOf)
	require.Len(t, result.Records, 4)
	records := byMaterial(result.Records)

	m100 := records["M100/L1"]
	assert.Equal(t, 180, *m100.ShelfLifeDays)
	assert.Equal(t, testhelpers.Date(2024, 6, 29), *m100.ExpectedExpiry)
	assert.Equal(t, 16, *m100.DeviationDays)
	assert.Equal(t, entities.DeviationAttention, m100.DeviationStatus)
	assert.Equal(t, 44, *m100.DaysRemaining)
	assert.Equal(t, entities.TemporalAttention, m100.TemporalStatus)

	m200 := records["M200/L55"]
	assert.Equal(t, 360, *m200.ShelfLifeDays, "12 months at 30 days each")
	assert.Equal(t, testhelpers.Date(2025, 2, 24), *m200.ExpectedExpiry)
	assert.Equal(t, entities.DeviationUnknown, m200.DeviationStatus, "no recorded expiry is never compliance")
	assert.Equal(t, m200.ExpectedExpiry, m200.AnalysisExpiry, "expected expiry is the urgency fallback")
	assert.Equal(t, 268, *m200.DaysRemaining)
	assert.Equal(t, entities.Good, m200.TemporalStatus)

	m400 := records["M400/L9"]
	assert.Equal(t, entities.WithinExpected, m400.DeviationStatus)
	assert.Equal(t, 2, *m400.DaysRemaining)
	assert.Equal(t, entities.Critical, m400.TemporalStatus)

	m500 := records["M500/L3"]
	assert.Nil(t, m500.ShelfLifeDays)
	assert.Nil(t, m500.AnalysisExpiry, "no-expiry lots never fall back to an expected date")
	assert.Equal(t, entities.DeviationUnknown, m500.DeviationStatus)
	assert.Equal(t, entities.TemporalUnknown, m500.TemporalStatus)

	require.Len(t, result.Warnings, 1)
	assert.Equal(t, entities.MaterialCode("M500"), result.Warnings[0].Key.Material)
	assert.True(t, errors.Is(result.Warnings[0], entities.ErrSpecNotFound))
}

func TestClassify_PerRecordErrorsNeverAbortTheBatch(t *testing.T) {
	tables := testhelpers.BuildComplianceTables()
	// Ambiguous: two suppliers added the same day with different durations
	tables.Suppliers.
		AddRow("M900", "X", testhelpers.ShelfLife(100, entities.UnitDays), testhelpers.Date(2024, 1, 1)).
		AddRow("M900", "Y", testhelpers.ShelfLife(200, entities.UnitDays), testhelpers.Date(2024, 1, 1))
	tables.Movements.AddRow("M900", "Gel", "L1", "4400", "0001", testhelpers.Qty(1), "KG", "101", testhelpers.Date(2024, 1, 1), nil, nil)
	// Missing reference date: no entry or manufacture date
	tables.Movements.AddRow("M100", "Resin A", "L2", "4400", "0001", testhelpers.Qty(3), "KG", "101", nil, nil, nil)

	svc, snap := setup(t, tables)
	result := svc.Classify(snap, testhelpers.AsOf)

	require.Len(t, result.Records, 6, "every record is still classified")
	assert.Len(t, result.Warnings, 3)

	records := byMaterial(result.Records)
	assert.Equal(t, entities.DeviationUnknown, records["M900/L1"].DeviationStatus)
	assert.Equal(t, entities.DeviationUnknown, records["M100/L2"].DeviationStatus)
	assert.Nil(t, records["M100/L2"].ExpectedExpiry)

	var ambiguous *entities.AmbiguousSpecError
	var missingRef *entities.MissingReferenceDateError
	for _, w := range result.Warnings {
		switch w.Key.Material {
		case "M900":
			assert.True(t, errors.As(w, &ambiguous))
		case "M100":
			assert.True(t, errors.As(w, &missingRef))
		}
	}
}

func TestClassifyExtract_UsesRecordedExpiryAndFallbackBands(t *testing.T) {
	svc, snap := setup(t, testhelpers.BuildComplianceTablesWithExtract())

	result := svc.ClassifyExtract(snap, testhelpers.AsOf)
	require.Len(t, result.Records, 5)
	assert.Empty(t, result.Warnings)

	records := byMaterial(result.Records)
	assert.Equal(t, entities.TemporalAttention, records["M100/L8"].TemporalStatus, "19 of 180 days left")
	assert.True(t, records["M100/L8"].PercentLifeRemaining.Valid)
	assert.Equal(t, entities.Expired, records["M600/L2"].TemporalStatus)
	assert.Equal(t, -12, *records["M600/L2"].DaysRemaining)
	assert.False(t, records["M600/L2"].PercentLifeRemaining.Valid, "no spec means day bands")
	assert.Equal(t, entities.TemporalUnknown, records["M800/L5"].TemporalStatus)
}

func TestClassifyExtract_CarriesMovementTypesAtSameLocation(t *testing.T) {
	tables := testhelpers.BuildComplianceTablesWithExtract()
	tables.Movements.AddRow("M100", "Resin A", "L1", "4400", "0001", testhelpers.Qty(5), "KG", "551",
		testhelpers.Date(2024, 5, 20), nil, nil)
	tables.Movements.AddRow("M100", "Resin A", "L1", "4400", "0002", testhelpers.Qty(5), "KG", "311",
		testhelpers.Date(2024, 5, 21), nil, nil)
	svc, snap := setup(t, tables)

	records := byMaterial(svc.ClassifyExtract(snap, testhelpers.AsOf).Records)
	assert.Equal(t, []string{"101", "551"}, records["M100/L1"].MovementTypes)
	assert.Equal(t, []string{"551"}, records["M400/L9"].MovementTypes)
	assert.Empty(t, records["M100/L8"].MovementTypes)
}

func TestClassify_Deterministic(t *testing.T) {
	svc, snap := setup(t, testhelpers.BuildComplianceTables())

	first := svc.Classify(snap, testhelpers.AsOf)
	second := svc.Classify(snap, testhelpers.AsOf)
	assert.Equal(t, first.Records, second.Records)
}

func TestNewService_RejectsInvalidThresholds(t *testing.T) {
	cfg := classification.DefaultConfig()
	cfg.Urgency.Attention = cfg.Urgency.Critical.Neg()

	_, err := classification.NewService(cfg, nil)
	assert.Error(t, err)
}
