package commands

import (
	"context"
	"fmt"

	"github.com/vsinha/shelfwatch/pkg/application/dto"
)

// ReportCommand produces the full compliance report: monitor, audit,
// timeline and summary sections
type ReportCommand struct {
	config Config
}

// NewReportCommand creates a new report command with the given configuration
func NewReportCommand(config Config) *ReportCommand {
	return &ReportCommand{config: config}
}

// Execute runs the report command
func (c *ReportCommand) Execute(ctx context.Context) error {
	s, err := c.config.open()
	if err != nil {
		return err
	}

	if c.config.Verbose {
		fmt.Fprintln(c.config.writer(), "🔄 Running full analysis...")
	}
	analysis, err := s.analyze(ctx)
	if err != nil {
		return fmt.Errorf("error analysing snapshot: %w", err)
	}
	tl, err := s.monitor.BuildTimeline(ctx, s.snap, nil)
	if err != nil {
		return fmt.Errorf("error building timeline: %w", err)
	}
	summary, err := s.monitor.Summary(ctx, s.snap)
	if err != nil {
		return fmt.Errorf("error summarising snapshot: %w", err)
	}

	report := dto.NewReport(s.snap.ID, analysis.AsOf)
	report.AddClassification(analysis.Classification.Records, analysis.Classification.Warnings)
	report.AddAudit(analysis.Report)
	report.AddTimeline(tl, c.config.IncludeExcluded)
	report.AddSummary(summary)
	return s.finish(report)
}
