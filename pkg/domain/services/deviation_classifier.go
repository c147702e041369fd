package services

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vsinha/shelfwatch/pkg/domain/entities"
)

// DeviationThresholds are the |deviation percent| band limits, as fractions
type DeviationThresholds struct {
	Attention decimal.Decimal
	Outside   decimal.Decimal
}

// DefaultDeviationThresholds returns attention at 5% and outside at 15%
func DefaultDeviationThresholds() DeviationThresholds {
	return DeviationThresholds{
		Attention: decimal.RequireFromString("0.05"),
		Outside:   decimal.RequireFromString("0.15"),
	}
}

// Validate checks 0 < attention <= outside
func (t DeviationThresholds) Validate() error {
	if !t.Attention.IsPositive() {
		return fmt.Errorf("deviation attention threshold must be positive, got %s", t.Attention)
	}
	if t.Outside.LessThan(t.Attention) {
		return fmt.Errorf("deviation outside threshold %s is below attention threshold %s", t.Outside, t.Attention)
	}
	return nil
}

// DeviationResult is the outcome of comparing recorded against expected expiry
type DeviationResult struct {
	Days    *int
	Percent decimal.NullDecimal
	Status  entities.DeviationStatus
}

// DeviationClassifier bands the deviation of recorded expiry from expected expiry
type DeviationClassifier struct {
	thresholds DeviationThresholds
}

// NewDeviationClassifier creates a validated deviation classifier
func NewDeviationClassifier(thresholds DeviationThresholds) (*DeviationClassifier, error) {
	if err := thresholds.Validate(); err != nil {
		return nil, err
	}
	return &DeviationClassifier{thresholds: thresholds}, nil
}

// ClassifyPercent bands a deviation percent; boundaries go to the stricter band
func (c *DeviationClassifier) ClassifyPercent(percent decimal.Decimal) entities.DeviationStatus {
	abs := percent.Abs()
	switch {
	case abs.GreaterThanOrEqual(c.thresholds.Outside):
		return entities.OutsideExpected
	case abs.GreaterThanOrEqual(c.thresholds.Attention):
		return entities.DeviationAttention
	default:
		return entities.WithinExpected
	}
}

// Classify compares recorded against expected expiry over a shelf life of shelfLifeDays.
// A missing recorded expiry yields UNKNOWN.
func (c *DeviationClassifier) Classify(recorded *time.Time, expected time.Time, shelfLifeDays int) DeviationResult {
	if recorded == nil || shelfLifeDays <= 0 {
		return DeviationResult{Status: entities.DeviationUnknown}
	}

	days := entities.DaysBetween(expected, *recorded)
	percent := decimal.NewFromInt(int64(days)).Div(decimal.NewFromInt(int64(shelfLifeDays)))

	return DeviationResult{
		Days:    &days,
		Percent: decimal.NewNullDecimal(percent),
		Status:  c.ClassifyPercent(percent),
	}
}
