package audit_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/shelfwatch/pkg/application/services/audit"
	"github.com/vsinha/shelfwatch/pkg/application/services/classification"
	"github.com/vsinha/shelfwatch/pkg/application/services/snapshot"
	"github.com/vsinha/shelfwatch/pkg/domain/entities"
	"github.com/vsinha/shelfwatch/pkg/domain/repositories"
	testhelpers "github.com/vsinha/shelfwatch/pkg/infrastructure/testing"
)

func loadSnapshot(t *testing.T, tables snapshot.Tables) *snapshot.Snapshot {
	t.Helper()
	snap, err := snapshot.NewLoader(snapshot.DefaultOptions(), nil).Load(tables)
	require.NoError(t, err)
	return snap
}

func detect(t *testing.T, tables snapshot.Tables, tolerances audit.Tolerances) []entities.Divergence {
	t.Helper()
	detector, err := audit.NewDetector(tolerances, nil)
	require.NoError(t, err)
	divergences, err := detector.Detect(loadSnapshot(t, tables).Stock)
	require.NoError(t, err)
	return divergences
}

func TestDetect_ComplianceScenario(t *testing.T) {
	divergences := detect(t, testhelpers.BuildComplianceTablesWithExtract(), audit.DefaultTolerances())

	require.Len(t, divergences, 3)

	assert.Equal(t, entities.LotKey{Material: "M200", Lot: "L55"}, divergences[0].Key)
	assert.Equal(t, entities.MissingInValidity, divergences[0].Kind)
	assert.True(t, divergences[0].MovementQuantity.Decimal.Equal(decimal.NewFromInt(100)))

	assert.Equal(t, entities.LotKey{Material: "M300", Lot: "L7"}, divergences[1].Key)
	assert.Equal(t, entities.MissingInMovement, divergences[1].Kind)

	assert.Equal(t, entities.LotKey{Material: "M400", Lot: "L9"}, divergences[2].Key)
	assert.Equal(t, entities.QuantityMismatch, divergences[2].Kind)
	assert.Equal(t, "movement quantity 10 differs from validity quantity 12", divergences[2].Detail)
}

func TestDetect_SingleMissingInValidity(t *testing.T) {
	tables := snapshot.Tables{
		Movements: snapshot.NewTable(snapshot.TableMovements, testhelpers.MovementColumns...).
			AddRow("M1", "Item", "L55", "4400", "0001", testhelpers.Qty(100), "EA", "101", testhelpers.Date(2024, 1, 1), nil, nil),
		Validity:  snapshot.NewTable(snapshot.TableValidity, testhelpers.ValidityColumns...),
		Suppliers: snapshot.NewTable(snapshot.TableSuppliers, testhelpers.SupplierColumns...),
	}

	divergences := detect(t, tables, audit.DefaultTolerances())

	require.Len(t, divergences, 1)
	assert.Equal(t, entities.LotKey{Material: "M1", Lot: "L55"}, divergences[0].Key)
	assert.Equal(t, entities.MissingInValidity, divergences[0].Kind)
}

func TestDetect_QuantityTolerance(t *testing.T) {
	testCases := []struct {
		name       string
		validity   int64
		tolerances audit.Tolerances
		mismatch   bool
	}{
		{"exact match", 10, audit.DefaultTolerances(), false},
		{"any difference without tolerance", 11, audit.DefaultTolerances(), true},
		{"within absolute", 11, audit.Tolerances{QuantityAbsolute: decimal.NewFromInt(1)}, false},
		{"beyond absolute", 12, audit.Tolerances{QuantityAbsolute: decimal.NewFromInt(1)}, true},
		{"within relative", 11, audit.Tolerances{QuantityRelative: decimal.RequireFromString("0.1")}, false},
		{"beyond relative", 12, audit.Tolerances{QuantityRelative: decimal.RequireFromString("0.1")}, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tables := snapshot.Tables{
				Movements: snapshot.NewTable(snapshot.TableMovements, testhelpers.MovementColumns...).
					AddRow("M1", "Item", "L1", "4400", "0001", testhelpers.Qty(10), "EA", "101", testhelpers.Date(2024, 1, 1), nil, nil),
				Validity: snapshot.NewTable(snapshot.TableValidity, testhelpers.ValidityColumns...).
					AddRow("M1", "L1", testhelpers.Date(2025, 1, 1), testhelpers.Qty(tc.validity)),
				Suppliers: snapshot.NewTable(snapshot.TableSuppliers, testhelpers.SupplierColumns...),
			}

			divergences := detect(t, tables, tc.tolerances)
			if tc.mismatch {
				require.Len(t, divergences, 1)
				assert.Equal(t, entities.QuantityMismatch, divergences[0].Kind)
			} else {
				assert.Empty(t, divergences)
			}
		})
	}
}

func TestDetect_DateConflicts(t *testing.T) {
	base := func() snapshot.Tables {
		return snapshot.Tables{
			Movements: snapshot.NewTable(snapshot.TableMovements, testhelpers.MovementColumns...).
				AddRow("M1", "Item", "L1", "4400", "0001", testhelpers.Qty(10), "EA", "101",
					testhelpers.Date(2024, 1, 1), nil, testhelpers.Date(2025, 1, 10)),
			Validity: snapshot.NewTable(snapshot.TableValidity, testhelpers.ValidityColumns...).
				AddRow("M1", "L1", testhelpers.Date(2025, 1, 1), nil),
			Suppliers: snapshot.NewTable(snapshot.TableSuppliers, testhelpers.SupplierColumns...),
		}
	}

	// Movement expiry nine days after validity
	divergences := detect(t, base(), audit.DefaultTolerances())
	require.Len(t, divergences, 1)
	assert.Equal(t, entities.DateConflict, divergences[0].Kind)
	assert.Equal(t, testhelpers.Date(2025, 1, 10), *divergences[0].MovementExpiry)
	assert.Equal(t, testhelpers.Date(2025, 1, 1), *divergences[0].ValidityExpiry)

	assert.Empty(t, detect(t, base(), audit.Tolerances{DateDays: 9}), "inside the tolerance window")

	// Validity rows disagreeing among themselves
	tables := base()
	tables.Movements.Rows[0][10] = nil
	tables.Validity.AddRow("M1", "L1", testhelpers.Date(2025, 3, 1), nil)
	divergences = detect(t, tables, audit.Tolerances{DateDays: 30})
	require.Len(t, divergences, 1)
	assert.Equal(t, entities.DateConflict, divergences[0].Kind)
	assert.Contains(t, divergences[0].Detail, "validity records disagree")

	// Timeline extract stands in for a missing movement expiry
	tables = base()
	tables.Movements.Rows[0][10] = nil
	tables.Timeline = snapshot.NewTable(snapshot.TableTimeline, testhelpers.TimelineColumns...).
		AddRow("M1", "Item", "L1", "4400", "0001", testhelpers.Date(2024, 12, 1), nil, testhelpers.Qty(10), nil)
	divergences = detect(t, tables, audit.DefaultTolerances())
	require.Len(t, divergences, 1)
	assert.Equal(t, testhelpers.Date(2024, 12, 1), *divergences[0].MovementExpiry)
}

func TestDetect_Idempotent(t *testing.T) {
	snap := loadSnapshot(t, testhelpers.BuildComplianceTablesWithExtract())
	detector, err := audit.NewDetector(audit.DefaultTolerances(), nil)
	require.NoError(t, err)

	first, err := detector.Detect(snap.Stock)
	require.NoError(t, err)
	second, err := detector.Detect(snap.Stock)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

// phantomKeys reports a lot key that neither source holds
type phantomKeys struct {
	repositories.StockRepository
}

func (p phantomKeys) LotKeys() []entities.LotKey {
	return append(p.StockRepository.LotKeys(), entities.LotKey{Material: "GHOST", Lot: "X"})
}

func TestDetect_AuditJoinError(t *testing.T) {
	snap := loadSnapshot(t, testhelpers.BuildComplianceTables())
	detector, _ := audit.NewDetector(audit.DefaultTolerances(), nil)

	_, err := detector.Detect(phantomKeys{snap.Stock})

	var joinErr *entities.AuditJoinError
	require.True(t, errors.As(err, &joinErr))
	assert.Equal(t, entities.LotKey{Material: "GHOST", Lot: "X"}, joinErr.Key)
}

func TestNewDetector_RejectsNegativeTolerances(t *testing.T) {
	_, err := audit.NewDetector(audit.Tolerances{DateDays: -1}, nil)
	assert.Error(t, err)
	_, err = audit.NewDetector(audit.Tolerances{QuantityRelative: decimal.NewFromInt(-1)}, nil)
	assert.Error(t, err)
}

func TestProblems_ComplianceScenario(t *testing.T) {
	snap := loadSnapshot(t, testhelpers.BuildComplianceTables())
	svc, err := classification.NewService(classification.DefaultConfig(), nil)
	require.NoError(t, err)

	problems := audit.Problems(svc.Classify(snap, testhelpers.AsOf).Records)

	require.Len(t, problems, 1)
	assert.Equal(t, entities.MaterialCode("M200"), problems[0].Key.Material)
	assert.Equal(t, entities.NoRecordedExpiry, problems[0].Kind)
	assert.Equal(t, "lot has no recorded expiry, expected 2025-02-24", problems[0].Detail)
}

func TestProblems_FirstMatchOnly(t *testing.T) {
	days := func(n int) *int { return &n }
	recorded := testhelpers.Date(2024, 1, 1)
	expected := testhelpers.Date(2024, 6, 1)

	testCases := []struct {
		name     string
		record   entities.ClassifiedRecord
		expected entities.ProblemKind
	}{
		{
			name: "recorded expiry without spec",
			record: entities.ClassifiedRecord{
				MaterialRecord: entities.MaterialRecord{RecordedExpiry: &recorded},
				DaysRemaining:  days(-10),
			},
			expected: entities.NoShelfLifeSpec,
		},
		{
			name: "spec without reference date",
			record: entities.ClassifiedRecord{
				MaterialRecord: entities.MaterialRecord{RecordedExpiry: &recorded},
				ShelfLifeDays:  days(180),
			},
			expected: entities.NoExpectedExpiry,
		},
		{
			name: "expired beats deviation",
			record: entities.ClassifiedRecord{
				MaterialRecord:  entities.MaterialRecord{RecordedExpiry: &recorded},
				ShelfLifeDays:   days(180),
				ExpectedExpiry:  &expected,
				DeviationDays:   days(-152),
				DeviationStatus: entities.OutsideExpected,
				DaysRemaining:   days(-5),
			},
			expected: entities.ProblemExpired,
		},
		{
			name: "deviation outside",
			record: entities.ClassifiedRecord{
				MaterialRecord:   entities.MaterialRecord{RecordedExpiry: &recorded},
				ShelfLifeDays:    days(180),
				ExpectedExpiry:   &expected,
				DeviationDays:    days(-152),
				DeviationPercent: decimal.NewNullDecimal(decimal.RequireFromString("-0.8444")),
				DeviationStatus:  entities.OutsideExpected,
				DaysRemaining:    days(20),
			},
			expected: entities.DeviationOutside,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			problems := audit.Problems([]entities.ClassifiedRecord{tc.record})
			require.Len(t, problems, 1)
			assert.Equal(t, tc.expected, problems[0].Kind)
		})
	}

	noExpiry := entities.ClassifiedRecord{
		MaterialRecord: entities.MaterialRecord{NoExpiry: true},
		ShelfLifeDays:  days(180),
		ExpectedExpiry: &expected,
	}
	assert.Empty(t, audit.Problems([]entities.ClassifiedRecord{noExpiry}), "never-expiring lots are not missing an expiry")
}
