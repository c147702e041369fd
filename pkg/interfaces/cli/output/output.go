package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/vsinha/shelfwatch/pkg/application/dto"
)

// ReportBaseName is the file name stem used when writing to an output directory
const ReportBaseName = "shelfwatch_report"

// Config holds configuration for output generation
type Config struct {
	Format    string
	OutputDir string
	// Writer receives output when OutputDir is empty, os.Stdout when nil
	Writer  io.Writer
	Verbose bool
	Elapsed time.Duration
}

// Formats lists the supported output formats
func Formats() []string {
	return []string{"text", "json", "csv", "xlsx"}
}

// Generate creates output in the specified format
func Generate(report *dto.Report, config Config) error {
	if config.Writer == nil {
		config.Writer = os.Stdout
	}

	switch config.Format {
	case "", "text":
		return generateTextOutput(report, config)
	case "json":
		return generateJSONOutput(report, config)
	case "csv":
		return generateCSVOutput(report, config)
	case "xlsx":
		return generateExcelOutput(report, config)
	default:
		return fmt.Errorf("unsupported output format: %s (supported: %s)", config.Format, strings.Join(Formats(), ", "))
	}
}

// generateTextOutput creates human-readable text output
func generateTextOutput(report *dto.Report, config Config) error {
	if config.OutputDir == "" {
		return WriteText(config.Writer, report, config.Elapsed)
	}

	filename, err := outputPath(config.OutputDir, ReportBaseName+".txt")
	if err != nil {
		return err
	}
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create text file: %w", err)
	}
	defer file.Close()

	if err := WriteText(file, report, config.Elapsed); err != nil {
		return err
	}
	if config.Verbose {
		fmt.Fprintf(config.Writer, "💾 Results saved to: %s\n", filename)
	}
	return nil
}

// WriteText renders every section of the report as aligned columns
func WriteText(w io.Writer, report *dto.Report, elapsed time.Duration) error {
	fmt.Fprintf(w, "📊 Shelf-Life Compliance Report\n")
	fmt.Fprintf(w, "===============================\n\n")
	fmt.Fprintf(w, "Snapshot: %s\n", report.SnapshotID)
	fmt.Fprintf(w, "As of: %s\n", report.AsOf)
	if len(report.Excluded) > 0 {
		fmt.Fprintf(w, "Excluded categories: %s\n", strings.Join(report.Excluded, ", "))
	}
	if elapsed > 0 {
		fmt.Fprintf(w, "Analysis Time: %v\n", elapsed)
	}
	fmt.Fprintln(w)

	for _, table := range report.Tables() {
		fmt.Fprintf(w, "%s %s (%d):\n", sectionIcon(table.Name), table.Name, len(table.Rows))

		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, strings.Join(table.Header, "\t"))
		rule := make([]string, len(table.Header))
		for i, h := range table.Header {
			rule[i] = strings.Repeat("-", len(h))
		}
		fmt.Fprintln(tw, strings.Join(rule, "\t"))
		for _, row := range table.Rows {
			fmt.Fprintln(tw, strings.Join(row, "\t"))
		}
		if err := tw.Flush(); err != nil {
			return fmt.Errorf("failed to write %s section: %w", table.Name, err)
		}
		fmt.Fprintln(w)
	}
	return nil
}

// generateJSONOutput creates JSON output
func generateJSONOutput(report *dto.Report, config Config) error {
	jsonData, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if config.OutputDir == "" {
		_, err := fmt.Fprintln(config.Writer, string(jsonData))
		return err
	}

	filename, err := outputPath(config.OutputDir, ReportBaseName+".json")
	if err != nil {
		return err
	}
	if err := os.WriteFile(filename, jsonData, 0o644); err != nil {
		return fmt.Errorf("failed to write JSON file: %w", err)
	}
	if config.Verbose {
		fmt.Fprintf(config.Writer, "💾 JSON results saved to: %s\n", filename)
	}
	return nil
}

// generateCSVOutput writes one CSV file per report section, or every section
// to the writer separated by a blank line when no directory is given
func generateCSVOutput(report *dto.Report, config Config) error {
	tables := report.Tables()

	if config.OutputDir == "" {
		for i, table := range tables {
			if i > 0 {
				fmt.Fprintln(config.Writer)
			}
			if err := WriteCSV(config.Writer, table); err != nil {
				return err
			}
		}
		return nil
	}

	var written []string
	for _, table := range tables {
		filename, err := outputPath(config.OutputDir, strings.ToLower(table.Name)+".csv")
		if err != nil {
			return err
		}
		if err := writeCSVFile(filename, table); err != nil {
			return err
		}
		written = append(written, filename)
	}

	if config.Verbose {
		fmt.Fprintf(config.Writer, "💾 CSV results saved to:\n")
		for _, filename := range written {
			fmt.Fprintf(config.Writer, "  %s\n", filename)
		}
	}
	return nil
}

// WriteCSV writes a table with its header row
func WriteCSV(w io.Writer, table dto.Table) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(table.Header); err != nil {
		return fmt.Errorf("failed to write %s CSV header: %w", table.Name, err)
	}
	if err := writer.WriteAll(table.Rows); err != nil {
		return fmt.Errorf("failed to write %s CSV rows: %w", table.Name, err)
	}
	return nil
}

func writeCSVFile(filename string, table dto.Table) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()
	return WriteCSV(file, table)
}

// outputPath creates dir if needed and joins name onto it
func outputPath(dir, name string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	return filepath.Join(dir, name), nil
}

func sectionIcon(name string) string {
	switch name {
	case "Monitor":
		return "📋"
	case "Warnings", "Problems":
		return "⚠️ "
	case "Audit":
		return "🔍"
	case "Timeline":
		return "⏳"
	default:
		return "📈"
	}
}
