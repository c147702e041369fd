package ingest_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/vsinha/shelfwatch/pkg/application/services/snapshot"
	"github.com/vsinha/shelfwatch/pkg/domain/entities"
	"github.com/vsinha/shelfwatch/pkg/infrastructure/ingest"
)

func TestResolveHeaders(t *testing.T) {
	tests := []struct {
		name    string
		table   string
		headers []string
		want    map[int]string
	}{
		{
			name:    "movement report in portuguese",
			table:   snapshot.TableMovements,
			headers: []string{"Data de entrada", "Depósito", "Material", "Descrição", "Lote", "Quantidade", "UM", "Movimento", "Planta"},
			want: map[int]string{
				0: snapshot.ColEntryDate, 1: snapshot.ColDepot, 2: snapshot.ColMaterial, 3: snapshot.ColDescription,
				4: snapshot.ColLot, 5: snapshot.ColQuantity, 6: snapshot.ColUnit, 7: snapshot.ColMovementType, 8: snapshot.ColPlant,
			},
		},
		{
			name:    "validity columns found by fragment",
			table:   snapshot.TableValidity,
			headers: []string{"Nº Material", "Lote Fornecedor", "Data Venc.", "Observação"},
			want:    map[int]string{0: snapshot.ColMaterial, 1: snapshot.ColLot, 2: snapshot.ColExpiry},
		},
		{
			name:    "expiry extract swaps material and description",
			table:   snapshot.TableTimeline,
			headers: []string{"Planta", "Depósito", "Material", "Material Number", "Batch", "Expiration Date", "Production Date", "Free for Use", "Restricted"},
			want: map[int]string{
				0: snapshot.ColPlant, 1: snapshot.ColDepot, 2: snapshot.ColDescription, 3: snapshot.ColMaterial, 4: snapshot.ColLot,
				5: snapshot.ColExpiry, 6: snapshot.ColManufactureDate, 7: snapshot.ColFreeForUse, 8: snapshot.ColRestricted,
			},
		},
		{
			name:    "canonical names",
			table:   snapshot.TableTimeline,
			headers: []string{"material", "lot", "plant", "depot", "expiry", "FREE_FOR_USE"},
			want: map[int]string{
				0: snapshot.ColMaterial, 1: snapshot.ColLot, 2: snapshot.ColPlant, 3: snapshot.ColDepot,
				4: snapshot.ColExpiry, 5: snapshot.ColFreeForUse,
			},
		},
		{
			name:    "supplier sheet",
			table:   snapshot.TableSuppliers,
			headers: []string{"Material", "Fornecedor", "Tempo de Validade"},
			want:    map[int]string{0: snapshot.ColMaterial, 1: snapshot.ColSupplier, 2: snapshot.ColShelfLife},
		},
		{
			name:    "first header claiming a column wins",
			table:   snapshot.TableMovements,
			headers: []string{"Material", "MATNR"},
			want:    map[int]string{0: snapshot.ColMaterial},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ingest.ResolveHeaders(tt.table, tt.headers))
		})
	}
}

func TestParseDecimal(t *testing.T) {
	tests := map[string]string{
		"75":       "75",
		"1,5":      "1.5",
		"1.234,50": "1234.5",
		"1,234.50": "1234.5",
		" -2 ":     "-2",
	}
	for raw, want := range tests {
		d, err := ingest.ParseDecimal(raw)
		require.NoError(t, err, raw)
		assert.True(t, d.Equal(decimal.RequireFromString(want)), "%q parsed as %s", raw, d)
	}

	_, err := ingest.ParseDecimal("many")
	assert.Error(t, err)
}

func TestParseDate(t *testing.T) {
	tests := map[string]time.Time{
		"2024-07-15":          entities.Date(2024, 7, 15),
		"15/07/2024":          entities.Date(2024, 7, 15),
		"15.07.2024":          entities.Date(2024, 7, 15),
		"2024-07-15 13:45:00": entities.Date(2024, 7, 15),
		"45292":               entities.Date(2024, 1, 1),
	}
	for raw, want := range tests {
		got, err := ingest.ParseDate(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}

	_, err := ingest.ParseDate("soon")
	assert.Error(t, err)
}

func TestCellParser(t *testing.T) {
	p := ingest.NewCellParser()
	col := func(name string, kind snapshot.Kind) snapshot.Column {
		return snapshot.Column{Name: name, Kind: kind}
	}

	assert.Nil(t, p.Parse(col(snapshot.ColQuantity, snapshot.KindDecimal), "  "))
	assert.Equal(t, "100234", p.Parse(col(snapshot.ColMaterial, snapshot.KindString), "100234.0"))
	assert.Equal(t, "Resin 2.0", p.Parse(col(snapshot.ColDescription, snapshot.KindString), "Resin 2.0"))
	assert.Equal(t, entities.Date(2024, 1, 5), p.Parse(col(snapshot.ColEntryDate, snapshot.KindDate), "05/01/2024"))

	sl, ok := p.Parse(col(snapshot.ColShelfLife, snapshot.KindShelfLife), "6 meses").(entities.ShelfLife)
	require.True(t, ok)
	assert.Equal(t, 180, sl.Days)

	// Unconvertible text is left for the snapshot to reject
	assert.Equal(t, "n/a", p.Parse(col(snapshot.ColQuantity, snapshot.KindDecimal), "n/a"))
}

func TestReadCSV_SemicolonsAndBOM(t *testing.T) {
	content := "\xEF\xBB\xBFMaterial;Lote;Data de Vencimento;Quantidade\n" +
		"M100.0;L1;15/07/2024;75,0\n" +
		";;;\n" +
		"M300;L7;01/09/2024;20\n"

	table, err := ingest.NewLoader(nil).ReadCSV(snapshot.TableValidity, strings.NewReader(content))
	require.NoError(t, err)

	assert.Equal(t, []string{snapshot.ColMaterial, snapshot.ColLot, snapshot.ColExpiry, snapshot.ColQuantity}, table.Columns)
	require.Equal(t, 2, table.Len())
	assert.Equal(t, "M100", table.Rows[0][0])
	assert.Equal(t, entities.Date(2024, 7, 15), table.Rows[0][2])
	assert.True(t, table.Rows[0][3].(decimal.Decimal).Equal(decimal.NewFromInt(75)))
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func TestLoadDir_CSVScenarioLoadsIntoSnapshot(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "movements.csv",
		"Data de entrada,Depósito,Material,Descrição,Lote,Quantidade,UM,Movimento,Planta\n"+
			"2024-01-05,0001,M100,Resin A,L1,50,KG,101,4400\n"+
			"2024-01-10,0001,M100,Resin A,L1,25,KG,101,4400\n")
	writeFile(t, dir, "validity.csv", "material,lote,vencimento\nM100,L1,2024-07-15\n")
	writeFile(t, dir, "suppliers.csv", "Material,Fornecedor,Tempo de Validade\nM100,ACME,180 dias\n")

	tables, err := ingest.NewLoader(nil).LoadDir(dir)
	require.NoError(t, err)
	assert.Nil(t, tables.Timeline)

	snap, err := snapshot.NewLoader(snapshot.DefaultOptions(), nil).Load(tables)
	require.NoError(t, err)
	records := snap.Records()
	require.Len(t, records, 1)
	assert.True(t, records[0].Quantity.Equal(decimal.NewFromInt(75)))
	assert.Equal(t, entities.Date(2024, 7, 15), *records[0].RecordedExpiry)
}

func TestLoadDir_MissingRequiredFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "movements.csv", "material\n")

	_, err := ingest.NewLoader(nil).LoadDir(dir)
	assert.ErrorContains(t, err, "validity")
}

func TestLoadXLSX_ReadsRawDates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "timeline.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	header := []any{"Planta", "Depósito", "Material", "Material Number", "Batch", "Expiration Date", "Production Date", "Free for Use", "Restricted"}
	require.NoError(t, f.SetSheetRow(sheet, "A1", &header))
	row := []any{"4400", "9998", "Primer F", 600123, "L2", time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC), nil, 3, 0}
	require.NoError(t, f.SetSheetRow(sheet, "A2", &row))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	table, err := ingest.NewLoader(nil).Load(snapshot.TableTimeline, path)
	require.NoError(t, err)
	require.Equal(t, 1, table.Len())

	values := make(map[string]any, len(table.Columns))
	for i, col := range table.Columns {
		values[col] = table.Rows[0][i]
	}
	assert.Equal(t, "600123", values[snapshot.ColMaterial])
	assert.Equal(t, "Primer F", values[snapshot.ColDescription])
	assert.Equal(t, entities.Date(2024, 5, 20), values[snapshot.ColExpiry])
	assert.Nil(t, values[snapshot.ColManufactureDate])
	assert.True(t, values[snapshot.ColFreeForUse].(decimal.Decimal).Equal(decimal.NewFromInt(3)))
}

func TestLoad_UnsupportedExtension(t *testing.T) {
	_, err := ingest.NewLoader(nil).Load(snapshot.TableMovements, "movements.json")
	assert.Error(t, err)
}
