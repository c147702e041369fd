package ingest

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/vsinha/shelfwatch/pkg/application/services/snapshot"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Loader handles loading source tables from CSV and XLSX files
type Loader struct {
	parser *CellParser
	logger *zap.Logger
}

// NewLoader creates a new file loader
func NewLoader(logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{parser: NewCellParser(), logger: logger}
}

// Load reads a table from a .csv or .xlsx file
func (l *Loader) Load(name, filename string) (*snapshot.Table, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".txt":
		return l.LoadCSV(name, filename)
	case ".xlsx", ".xlsm":
		return l.LoadXLSX(name, filename, "")
	default:
		return nil, fmt.Errorf("unsupported file type for %s table: %s", name, filename)
	}
}

// LoadCSV loads a table from a CSV file. The delimiter is detected from the
// header line among comma, semicolon and tab.
func (l *Loader) LoadCSV(name, filename string) (*snapshot.Table, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s file %s: %w", name, filename, err)
	}
	defer file.Close()

	table, err := l.ReadCSV(name, file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	l.logger.Debug("table loaded",
		zap.String("table", name),
		zap.String("file", filename),
		zap.Strings("columns", table.Columns),
		zap.Int("rows", table.Len()),
	)
	return table, nil
}

// ReadCSV reads a table from CSV content
func (l *Loader) ReadCSV(name string, r io.Reader) (*snapshot.Table, error) {
	buffered := bufio.NewReader(r)
	if prefix, err := buffered.Peek(len(utf8BOM)); err == nil && bytes.Equal(prefix, utf8BOM) {
		_, _ = buffered.Discard(len(utf8BOM))
	}

	firstLine, err := buffered.Peek(4096)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, fmt.Errorf("failed to read %s CSV: %w", name, err)
	}

	reader := csv.NewReader(buffered)
	reader.Comma = detectDelimiter(firstLine)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s CSV: %w", name, err)
	}

	if len(records) < 1 {
		return nil, fmt.Errorf("%s CSV must have a header row", name)
	}
	return BuildTable(name, records, l.parser)
}

// detectDelimiter picks the most frequent candidate on the first line
func detectDelimiter(sample []byte) rune {
	if i := bytes.IndexByte(sample, '\n'); i >= 0 {
		sample = sample[:i]
	}
	best, bestCount := ',', 0
	for _, candidate := range []rune{',', ';', '\t'} {
		if n := bytes.Count(sample, []byte(string(candidate))); n > bestCount {
			best, bestCount = candidate, n
		}
	}
	return best
}
