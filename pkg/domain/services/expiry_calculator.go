package services

import (
	"fmt"
	"time"

	"github.com/vsinha/shelfwatch/pkg/domain/entities"
)

// ExpiryCalculator computes expected expiry dates from a resolved shelf life
type ExpiryCalculator struct{}

// NewExpiryCalculator creates a new expiry calculator
func NewExpiryCalculator() *ExpiryCalculator {
	return &ExpiryCalculator{}
}

// ReferenceDate returns the manufacture date when present, else the entry date
func (c *ExpiryCalculator) ReferenceDate(record entities.MaterialRecord) (time.Time, error) {
	switch {
	case record.ManufactureDate != nil:
		return entities.Day(*record.ManufactureDate), nil
	case record.EntryDate != nil:
		return entities.Day(*record.EntryDate), nil
	default:
		return time.Time{}, &entities.MissingReferenceDateError{Key: record.Key}
	}
}

// ExpectedExpiry adds the shelf life to a reference date.
// ExpectedExpiry(ref, d) - ref is exactly d days.
func (c *ExpiryCalculator) ExpectedExpiry(reference time.Time, shelfLifeDays int) time.Time {
	return entities.AddDays(reference, shelfLifeDays)
}

// Calculate resolves the reference date of a record and returns its expected expiry
func (c *ExpiryCalculator) Calculate(record entities.MaterialRecord, shelfLifeDays int) (time.Time, error) {
	if shelfLifeDays <= 0 {
		return time.Time{}, fmt.Errorf("record %s: shelf life must be positive, got %d days", record.Key, shelfLifeDays)
	}
	reference, err := c.ReferenceDate(record)
	if err != nil {
		return time.Time{}, err
	}
	return c.ExpectedExpiry(reference, shelfLifeDays), nil
}
