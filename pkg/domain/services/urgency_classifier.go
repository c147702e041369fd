package services

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vsinha/shelfwatch/pkg/domain/entities"
)

// UrgencyThresholds are the percent-life-remaining band limits plus day bands
// used when no shelf life is known
type UrgencyThresholds struct {
	Critical              decimal.Decimal
	Attention             decimal.Decimal
	FallbackCriticalDays  int
	FallbackAttentionDays int
}

// DefaultUrgencyThresholds returns critical below 10%, attention below 25%,
// and day bands of 7 and 30 days
func DefaultUrgencyThresholds() UrgencyThresholds {
	return UrgencyThresholds{
		Critical:              decimal.RequireFromString("0.10"),
		Attention:             decimal.RequireFromString("0.25"),
		FallbackCriticalDays:  7,
		FallbackAttentionDays: 30,
	}
}

// Validate checks 0 < critical <= attention and ordered fallback day bands
func (t UrgencyThresholds) Validate() error {
	if !t.Critical.IsPositive() {
		return fmt.Errorf("urgency critical threshold must be positive, got %s", t.Critical)
	}
	if t.Attention.LessThan(t.Critical) {
		return fmt.Errorf("urgency attention threshold %s is below critical threshold %s", t.Attention, t.Critical)
	}
	if t.FallbackCriticalDays < 0 || t.FallbackAttentionDays < t.FallbackCriticalDays {
		return fmt.Errorf("fallback day bands must satisfy 0 <= critical (%d) <= attention (%d)",
			t.FallbackCriticalDays, t.FallbackAttentionDays)
	}
	return nil
}

// UrgencyResult is the remaining-life analysis of one expiry date
type UrgencyResult struct {
	DaysRemaining        *int
	PercentLifeRemaining decimal.NullDecimal
	Status               entities.TemporalStatus
}

// UrgencyClassifier bands remaining shelf life relative to "now"
type UrgencyClassifier struct {
	thresholds UrgencyThresholds
}

// NewUrgencyClassifier creates a validated urgency classifier
func NewUrgencyClassifier(thresholds UrgencyThresholds) (*UrgencyClassifier, error) {
	if err := thresholds.Validate(); err != nil {
		return nil, err
	}
	return &UrgencyClassifier{thresholds: thresholds}, nil
}

// ClassifyPercent bands a percent of life remaining for a lot not yet expired
func (c *UrgencyClassifier) ClassifyPercent(percent decimal.Decimal) entities.TemporalStatus {
	switch {
	case percent.IsNegative():
		return entities.Expired
	case percent.LessThan(c.thresholds.Critical):
		return entities.Critical
	case percent.LessThan(c.thresholds.Attention):
		return entities.TemporalAttention
	default:
		return entities.Good
	}
}

// ClassifyDays bands days remaining when the shelf life is unknown
func (c *UrgencyClassifier) ClassifyDays(days int) entities.TemporalStatus {
	switch {
	case days < 0:
		return entities.Expired
	case days <= c.thresholds.FallbackCriticalDays:
		return entities.Critical
	case days <= c.thresholds.FallbackAttentionDays:
		return entities.TemporalAttention
	default:
		return entities.Good
	}
}

// Classify computes urgency of an expiry at now. shelfLifeDays may be nil
// when no specification applies; a nil expiry yields UNKNOWN.
func (c *UrgencyClassifier) Classify(expiry *time.Time, shelfLifeDays *int, now time.Time) UrgencyResult {
	if expiry == nil {
		return UrgencyResult{Status: entities.TemporalUnknown}
	}

	days := entities.DaysBetween(now, *expiry)
	result := UrgencyResult{DaysRemaining: &days}

	if shelfLifeDays == nil || *shelfLifeDays <= 0 {
		result.Status = c.ClassifyDays(days)
		return result
	}

	percent := decimal.NewFromInt(int64(days)).Div(decimal.NewFromInt(int64(*shelfLifeDays)))
	result.PercentLifeRemaining = decimal.NewNullDecimal(percent)
	if days < 0 {
		result.Status = entities.Expired
	} else {
		result.Status = c.ClassifyPercent(percent)
	}
	return result
}
