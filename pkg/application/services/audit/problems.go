package audit

import (
	"fmt"

	"github.com/vsinha/shelfwatch/pkg/domain/entities"
)

// Problems lists the data quality issue of each classified record.
// Only the first matching problem is reported per record, checked in order:
// missing spec, missing recorded expiry, missing expected expiry, expired,
// deviation outside tolerance. Lots declared as never expiring are not
// reported as missing a recorded expiry.
func Problems(records []entities.ClassifiedRecord) []entities.RecordProblem {
	var problems []entities.RecordProblem
	for _, record := range records {
		kind, detail, ok := problemOf(record)
		if !ok {
			continue
		}
		problems = append(problems, entities.RecordProblem{Key: record.Key, Kind: kind, Detail: detail})
	}
	return problems
}

func problemOf(r entities.ClassifiedRecord) (entities.ProblemKind, string, bool) {
	switch {
	case r.ShelfLifeDays == nil && (r.RecordedExpiry != nil || r.ExpectedExpiry != nil):
		return entities.NoShelfLifeSpec, entities.NoShelfLifeSpec.Description(), true

	case r.RecordedExpiry == nil && r.ExpectedExpiry != nil && !r.NoExpiry:
		return entities.NoRecordedExpiry,
			fmt.Sprintf("%s, expected %s", entities.NoRecordedExpiry.Description(), entities.FormatDate(r.ExpectedExpiry)), true

	case r.RecordedExpiry != nil && r.ExpectedExpiry == nil:
		return entities.NoExpectedExpiry, entities.NoExpectedExpiry.Description(), true

	case r.DaysRemaining != nil && *r.DaysRemaining < 0:
		return entities.ProblemExpired,
			fmt.Sprintf("expired %d days ago", -*r.DaysRemaining), true

	case r.DeviationStatus == entities.OutsideExpected:
		return entities.DeviationOutside,
			fmt.Sprintf("recorded expiry deviates %d days (%s%%)", *r.DeviationDays,
				r.DeviationPercent.Decimal.Shift(2).Round(1)), true

	default:
		return 0, "", false
	}
}
