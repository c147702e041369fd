package timeline

import (
	"sort"
	"time"

	"github.com/vsinha/shelfwatch/pkg/domain/entities"
	"github.com/vsinha/shelfwatch/pkg/domain/services"
)

// Aggregator builds chronological timelines from classified records
type Aggregator struct {
	categorizer *services.Categorizer
}

// NewAggregator creates an aggregator that categorizes with the given rules
func NewAggregator(rules []services.CategoryRule) (*Aggregator, error) {
	categorizer, err := services.NewCategorizer(rules)
	if err != nil {
		return nil, err
	}
	return &Aggregator{categorizer: categorizer}, nil
}

// Categorize tags every record with its category, sorted by ascending days
// remaining with unknown expiries last; ties go by material, lot, plant and depot.
// Exclusion is applied separately by Build or Apply.
func (a *Aggregator) Categorize(records []entities.ClassifiedRecord) []entities.TimelineEntry {
	entries := make([]entities.TimelineEntry, 0, len(records))
	for _, record := range records {
		entries = append(entries, entities.TimelineEntry{
			ClassifiedRecord: record,
			Category:         a.categorizer.Categorize(record.MaterialRecord),
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		di, dj := entries[i].DaysRemaining, entries[j].DaysRemaining
		switch {
		case di == nil && dj != nil:
			return false
		case di != nil && dj == nil:
			return true
		case di != nil && dj != nil && *di != *dj:
			return *di < *dj
		}
		return entries[i].Key.Compare(entries[j].Key) < 0
	})
	return entries
}

// Build categorizes records and applies the exclusion set
func (a *Aggregator) Build(records []entities.ClassifiedRecord, asOf time.Time, excluded entities.CategorySet) *entities.Timeline {
	return Apply(a.Categorize(records), asOf, excluded)
}

// Apply marks excluded entries and recomputes counts over the rest.
// Categorized entries are reused as is, so changing the exclusion set never
// reclassifies records.
func Apply(categorized []entities.TimelineEntry, asOf time.Time, excluded entities.CategorySet) *entities.Timeline {
	timeline := &entities.Timeline{
		AsOf:           entities.Day(asOf),
		Entries:        make([]entities.TimelineEntry, len(categorized)),
		Counts:         make(entities.StatusCounts),
		ExcludedCounts: make(map[entities.Category]int),
		Excluded:       entities.NewCategorySet(excluded.Sorted()...),
	}

	for i, entry := range categorized {
		entry.Excluded = excluded.Contains(entry.Category)
		timeline.Entries[i] = entry
		if entry.Excluded {
			timeline.ExcludedCounts[entry.Category]++
			continue
		}
		timeline.Counts[entry.TemporalStatus]++
	}
	return timeline
}
