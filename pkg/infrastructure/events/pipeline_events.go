package events

import (
	"time"

	"github.com/vsinha/shelfwatch/pkg/domain/entities"
)

const (
	SnapshotLoadedEvent          = "snapshot.loaded"
	ClassificationCompletedEvent = "classification.completed"
	AuditCompletedEvent          = "audit.completed"
	TimelineBuiltEvent           = "timeline.built"
)

// PipelineEventTypes lists every event a monitor publishes
func PipelineEventTypes() []string {
	return []string{
		SnapshotLoadedEvent,
		ClassificationCompletedEvent,
		AuditCompletedEvent,
		TimelineBuiltEvent,
	}
}

type SnapshotLoaded struct {
	SnapshotID string `json:"snapshot_id"`
	Movements  int    `json:"movements"`
	Validity   int    `json:"validity"`
	Suppliers  int    `json:"suppliers"`
	Timeline   int    `json:"timeline"`
	Records    int    `json:"records"`
}

type ClassificationCompleted struct {
	SnapshotID string                           `json:"snapshot_id"`
	AsOf       time.Time                        `json:"as_of"`
	Records    int                              `json:"records"`
	Warnings   int                              `json:"warnings"`
	Temporal   entities.StatusCounts            `json:"temporal"`
	Deviation  map[entities.DeviationStatus]int `json:"deviation"`
}

type AuditCompleted struct {
	SnapshotID  string                          `json:"snapshot_id"`
	AsOf        time.Time                       `json:"as_of"`
	Divergences map[entities.DivergenceKind]int `json:"divergences"`
	Problems    map[entities.ProblemKind]int    `json:"problems"`
}

type TimelineBuilt struct {
	SnapshotID    string                `json:"snapshot_id"`
	AsOf          time.Time             `json:"as_of"`
	Entries       int                   `json:"entries"`
	CriticalItems int                   `json:"critical_items"`
	Counts        entities.StatusCounts `json:"counts"`
	Excluded      []entities.Category   `json:"excluded_categories"`
}

func NewSnapshotLoadedEvent(data SnapshotLoaded) Event {
	return NewEvent(SnapshotLoadedEvent, data.SnapshotID, data)
}

func NewClassificationCompletedEvent(snapshotID string, asOf time.Time, records []entities.ClassifiedRecord, warnings int) Event {
	data := ClassificationCompleted{
		SnapshotID: snapshotID,
		AsOf:       asOf,
		Records:    len(records),
		Warnings:   warnings,
		Temporal:   make(entities.StatusCounts),
		Deviation:  make(map[entities.DeviationStatus]int),
	}
	for _, record := range records {
		data.Temporal[record.TemporalStatus]++
		data.Deviation[record.DeviationStatus]++
	}
	return NewEvent(ClassificationCompletedEvent, snapshotID, data)
}

func NewAuditCompletedEvent(snapshotID string, asOf time.Time, report *entities.AuditReport) Event {
	data := AuditCompleted{
		SnapshotID:  snapshotID,
		AsOf:        asOf,
		Divergences: make(map[entities.DivergenceKind]int),
		Problems:    make(map[entities.ProblemKind]int),
	}
	for _, d := range report.Divergences {
		data.Divergences[d.Kind]++
	}
	for _, p := range report.Problems {
		data.Problems[p.Kind]++
	}
	return NewEvent(AuditCompletedEvent, snapshotID, data)
}

func NewTimelineBuiltEvent(snapshotID string, timeline *entities.Timeline) Event {
	counts := make(entities.StatusCounts, len(timeline.Counts))
	for status, n := range timeline.Counts {
		counts[status] = n
	}
	return NewEvent(TimelineBuiltEvent, snapshotID, TimelineBuilt{
		SnapshotID:    snapshotID,
		AsOf:          timeline.AsOf,
		Entries:       len(timeline.Entries),
		CriticalItems: len(timeline.CriticalItems()),
		Counts:        counts,
		Excluded:      timeline.Excluded.Sorted(),
	})
}
