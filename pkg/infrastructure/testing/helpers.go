package testing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/shelfwatch/pkg/application/services/snapshot"
	"github.com/vsinha/shelfwatch/pkg/domain/entities"
)

// AsOf is the evaluation date used by the compliance scenario
var AsOf = entities.Date(2024, 6, 1)

// Date builds a civil date
func Date(year int, month time.Month, day int) time.Time {
	return entities.Date(year, month, day)
}

// Qty builds a decimal quantity
func Qty(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

// ShelfLife builds a unit-tagged shelf life, panicking on invalid input
func ShelfLife(value int64, unit entities.DurationUnit) entities.ShelfLife {
	sl, err := entities.NewShelfLife(decimal.NewFromInt(value), unit)
	if err != nil {
		panic(err)
	}
	return *sl
}

// MovementColumns is the column order used by MovementsTable
var MovementColumns = []string{
	snapshot.ColMaterial, snapshot.ColDescription, snapshot.ColLot, snapshot.ColPlant, snapshot.ColDepot,
	snapshot.ColQuantity, snapshot.ColUnit, snapshot.ColMovementType,
	snapshot.ColEntryDate, snapshot.ColManufactureDate, snapshot.ColExpiry,
}

// ValidityColumns is the column order used by ValidityTable
var ValidityColumns = []string{snapshot.ColMaterial, snapshot.ColLot, snapshot.ColExpiry, snapshot.ColQuantity}

// SupplierColumns is the column order used by SuppliersTable
var SupplierColumns = []string{snapshot.ColMaterial, snapshot.ColSupplier, snapshot.ColShelfLife, snapshot.ColAddedAt}

// TimelineColumns is the column order used by TimelineTable
var TimelineColumns = []string{
	snapshot.ColMaterial, snapshot.ColDescription, snapshot.ColLot, snapshot.ColPlant, snapshot.ColDepot,
	snapshot.ColExpiry, snapshot.ColManufactureDate, snapshot.ColFreeForUse, snapshot.ColRestricted,
}

// BuildComplianceTables builds the compliance scenario:
//
//	M100/L1  two movement rows folded to 75, made 2024-01-01, 180 day spec, recorded 2024-07-15
//	M200/L55 movement only, 12 month spec, no validity row
//	M300/L7  validity only
//	M400/L9  scrap depot 4400/9990, 90 day spec, quantity 10 against validity 12
//	M500/L3  no spec, validity expiry in the no-expiry year
func BuildComplianceTables() snapshot.Tables {
	movements := snapshot.NewTable(snapshot.TableMovements, MovementColumns...).
		AddRow("M100", "Resin A", "L1", "4400", "0001", Qty(50), "KG", "101", Date(2024, 1, 5), Date(2024, 1, 1), nil).
		AddRow("M100", "Resin A", "L1", "4400", "0001", Qty(25), "KG", "101", Date(2024, 1, 10), nil, nil).
		AddRow("M200", "Solvent B", "L55", "4400", "0001", Qty(100), "L", "101", Date(2024, 3, 1), nil, nil).
		AddRow("M400", "Adhesive D", "L9", "4400", "9990", Qty(10), "KG", "551", Date(2024, 3, 5), nil, nil).
		AddRow("M500", "Tape E", "L3", "4401", "0002", Qty(5), "RL", "101", Date(2024, 2, 1), nil, nil)

	validity := snapshot.NewTable(snapshot.TableValidity, ValidityColumns...).
		AddRow("M100", "L1", Date(2024, 7, 15), Qty(75)).
		AddRow("M300", "L7", Date(2024, 9, 1), Qty(20)).
		AddRow("M400", "L9", Date(2024, 6, 3), Qty(12)).
		AddRow("M500", "L3", Date(2070, 12, 31), nil)

	suppliers := snapshot.NewTable(snapshot.TableSuppliers, SupplierColumns...).
		AddRow("M100", "ACME", ShelfLife(180, entities.UnitDays), Date(2023, 1, 1)).
		AddRow("M200", "Chem Co", ShelfLife(12, entities.UnitMonths), nil).
		AddRow("M400", "Glue Ltd", ShelfLife(90, entities.UnitDays), nil)

	return snapshot.Tables{Movements: movements, Validity: validity, Suppliers: suppliers}
}

// BuildTimelineExtract builds an expiry extract for the compliance scenario:
//
//	M100/L1  4400/0001 2024-07-15
//	M400/L9  4400/9990 2024-06-03 (scrap)
//	M600/L2  4400/9998 2024-05-20 (logistics transfer, expired)
//	M700/L4  no free stock, dropped
//	M800/L5  no-expiry year
//	M100/L8  4400/0001 2024-06-20
func BuildTimelineExtract() *snapshot.Table {
	return snapshot.NewTable(snapshot.TableTimeline, TimelineColumns...).
		AddRow("M100", "Resin A", "L1", "4400", "0001", Date(2024, 7, 15), nil, Qty(75), Qty(0)).
		AddRow("M400", "Adhesive D", "L9", "4400", "9990", Date(2024, 6, 3), nil, Qty(10), Qty(0)).
		AddRow("M600", "Primer F", "L2", "4400", "9998", Date(2024, 5, 20), nil, Qty(3), Qty(0)).
		AddRow("M700", "Sealant G", "L4", "4401", "0002", Date(2024, 6, 5), nil, Qty(0), Qty(4)).
		AddRow("M800", "Wire H", "L5", "4400", "0003", Date(2070, 1, 1), nil, Qty(8), Qty(0)).
		AddRow("M100", "Resin A", "L8", "4400", "0001", Date(2024, 6, 20), nil, Qty(2), Qty(0))
}

// BuildComplianceTablesWithExtract returns the compliance scenario including the timeline extract
func BuildComplianceTablesWithExtract() snapshot.Tables {
	tables := BuildComplianceTables()
	tables.Timeline = BuildTimelineExtract()
	return tables
}
