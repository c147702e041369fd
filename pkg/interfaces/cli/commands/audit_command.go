package commands

import (
	"context"
	"fmt"

	"github.com/vsinha/shelfwatch/pkg/application/dto"
)

// AuditCommand reconciles movement records against lot validity records
type AuditCommand struct {
	config Config
}

// NewAuditCommand creates a new audit command with the given configuration
func NewAuditCommand(config Config) *AuditCommand {
	return &AuditCommand{config: config}
}

// Execute runs the audit command
func (c *AuditCommand) Execute(ctx context.Context) error {
	s, err := c.config.open()
	if err != nil {
		return err
	}

	if c.config.Verbose {
		fmt.Fprintln(c.config.writer(), "🔍 Auditing movement against validity...")
	}
	analysis, err := s.analyze(ctx)
	if err != nil {
		return fmt.Errorf("error auditing snapshot: %w", err)
	}

	if c.config.Verbose {
		fmt.Fprintf(c.config.writer(), "✅ %d divergences, %d record problems\n\n",
			len(analysis.Report.Divergences), len(analysis.Report.Problems))
	}

	report := dto.NewReport(s.snap.ID, analysis.AsOf)
	report.AddAudit(analysis.Report)
	return s.finish(report)
}
