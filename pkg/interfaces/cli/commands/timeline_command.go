package commands

import (
	"context"
	"fmt"

	"github.com/vsinha/shelfwatch/pkg/application/dto"
)

// TimelineCommand lists lots in expiry order with exclusion categories applied
type TimelineCommand struct {
	config Config
}

// NewTimelineCommand creates a new timeline command with the given configuration
func NewTimelineCommand(config Config) *TimelineCommand {
	return &TimelineCommand{config: config}
}

// Execute runs the timeline command
func (c *TimelineCommand) Execute(ctx context.Context) error {
	s, err := c.config.open()
	if err != nil {
		return err
	}

	if c.config.Verbose {
		fmt.Fprintln(c.config.writer(), "⏳ Building expiry timeline...")
	}
	tl, err := s.monitor.BuildTimeline(ctx, s.snap, nil)
	if err != nil {
		return fmt.Errorf("error building timeline: %w", err)
	}

	if c.config.Verbose {
		fmt.Fprintf(c.config.writer(), "✅ %d entries, %d critical items (excluding %s)\n\n",
			len(tl.Entries), len(tl.CriticalItems()), tl.Excluded)
	}

	report := dto.NewReport(s.snap.ID, tl.AsOf)
	report.AddTimeline(tl, c.config.IncludeExcluded)
	return s.finish(report)
}
