package output

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/vsinha/shelfwatch/pkg/application/dto"
)

func sampleReport() *dto.Report {
	return &dto.Report{
		SnapshotID: "3f2a",
		AsOf:       "2024-06-01",
		Records: []dto.MonitorRow{{
			Material: "M100", Lot: "L1", Plant: "4400", Depot: "0001", Quantity: "75",
			ExpectedExpiry: "2024-06-29", DeviationDays: "16", DeviationPercent: "8.9",
			DeviationStatus: "ATTENTION", TemporalStatus: "GOOD",
		}},
		Divergences: []dto.DivergenceRow{{Material: "M200", Lot: "L55", Kind: "MISSING_IN_VALIDITY", MovementQuantity: "10"}},
		Timeline:    []dto.TimelineRow{{Material: "M100", Lot: "L1", Quantity: "75", TemporalStatus: "GOOD", Category: "NORMAL"}},
		Summary:     []dto.SummaryRow{{Indicator: "records", Value: "1"}},
	}
}

func TestGenerate_Text(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Generate(sampleReport(), Config{Format: "text", Writer: &buf}))

	out := buf.String()
	assert.Contains(t, out, "Snapshot: 3f2a")
	assert.Contains(t, out, "Monitor (1):")
	assert.Contains(t, out, "Audit (1):")
	assert.Contains(t, out, "MISSING_IN_VALIDITY")
	assert.NotContains(t, out, "Warnings")
}

func TestGenerate_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Generate(sampleReport(), Config{Format: "json", Writer: &buf}))

	var decoded dto.Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "8.9", decoded.Records[0].DeviationPercent)
}

func TestGenerate_CSVToDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Generate(sampleReport(), Config{Format: "csv", OutputDir: dir, Writer: &bytes.Buffer{}}))

	for _, name := range []string{"monitor.csv", "audit.csv", "timeline.csv", "summary.csv"} {
		assert.FileExists(t, filepath.Join(dir, name))
	}

	content, err := os.ReadFile(filepath.Join(dir, "audit.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "material,lot,kind"))
	assert.Equal(t, "M200,L55,MISSING_IN_VALIDITY,10,,,,", lines[1])
}

func TestGenerate_Excel(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Generate(sampleReport(), Config{Format: "xlsx", Writer: &buf}))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Monitor", "Audit", "Timeline", "Summary"}, f.GetSheetList())

	header, err := f.GetCellValue("Monitor", "A1")
	require.NoError(t, err)
	assert.Equal(t, "material", header)

	qty, err := f.GetCellValue("Monitor", "F2")
	require.NoError(t, err)
	assert.Equal(t, "75", qty)

	kind, err := f.GetCellValue("Audit", "C2")
	require.NoError(t, err)
	assert.Equal(t, "MISSING_IN_VALIDITY", kind)
}

func TestGenerate_UnsupportedFormat(t *testing.T) {
	err := Generate(sampleReport(), Config{Format: "pdf", Writer: &bytes.Buffer{}})
	assert.ErrorContains(t, err, "unsupported output format")
}
