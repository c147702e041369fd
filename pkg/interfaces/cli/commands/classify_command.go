package commands

import (
	"context"
	"fmt"

	"github.com/vsinha/shelfwatch/pkg/application/dto"
)

// ClassifyCommand classifies every material record of a scenario
type ClassifyCommand struct {
	config Config
}

// NewClassifyCommand creates a new classify command with the given configuration
func NewClassifyCommand(config Config) *ClassifyCommand {
	return &ClassifyCommand{config: config}
}

// Execute runs the classify command
func (c *ClassifyCommand) Execute(ctx context.Context) error {
	s, err := c.config.open()
	if err != nil {
		return err
	}

	if c.config.Verbose {
		fmt.Fprintln(c.config.writer(), "🔄 Classifying material records...")
	}
	result, err := s.monitor.Classify(ctx, s.snap)
	if err != nil {
		return fmt.Errorf("error classifying snapshot: %w", err)
	}
	analysis, err := s.analyze(ctx)
	if err != nil {
		return err
	}

	report := dto.NewReport(s.snap.ID, analysis.AsOf)
	report.AddClassification(result.Records, result.Warnings)
	return s.finish(report)
}
