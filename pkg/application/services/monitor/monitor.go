package monitor

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/vsinha/shelfwatch/pkg/application/services/audit"
	"github.com/vsinha/shelfwatch/pkg/application/services/classification"
	"github.com/vsinha/shelfwatch/pkg/application/services/snapshot"
	"github.com/vsinha/shelfwatch/pkg/application/services/timeline"
	"github.com/vsinha/shelfwatch/pkg/domain/entities"
	"github.com/vsinha/shelfwatch/pkg/domain/services"
	"github.com/vsinha/shelfwatch/pkg/infrastructure/cache"
	"github.com/vsinha/shelfwatch/pkg/infrastructure/events"
)

// ClassificationResult is a classified set with its per-record warnings
type ClassificationResult = classification.Result

// Analysis is everything computed for one snapshot on one day.
// It is shared between callers and must be treated as read-only.
type Analysis struct {
	SnapshotID     string
	AsOf           time.Time
	Classification *ClassificationResult
	Report         *entities.AuditReport
	// Categorized are the timeline entries before exclusion
	Categorized []entities.TimelineEntry
	// TimelineWarnings are warnings from classifying the timeline extract
	TimelineWarnings []entities.RecordWarning
}

// Monitor coordinates snapshot loading, classification, audit and timeline
// aggregation behind a single-flight TTL cache
type Monitor struct {
	options    Options
	loader     *snapshot.Loader
	classifier *classification.Service
	detector   *audit.Detector
	aggregator *timeline.Aggregator
	cache      *cache.Coordinator[*Analysis]

	clock      func() time.Time
	logger     *zap.Logger
	events     events.EventStore
	registerer prometheus.Registerer
}

// NewMonitor creates a monitor, validating every threshold and rule up front
func NewMonitor(options Options, opts ...Option) (*Monitor, error) {
	if err := options.Validate(); err != nil {
		return nil, err
	}
	if options.CacheTTL == 0 {
		options.CacheTTL = cache.DefaultTTL
	}
	if options.NoExpiryYear == 0 {
		options.NoExpiryYear = entities.NoExpiryYear
	}
	if options.ExcludedCategories == nil {
		options.ExcludedCategories = entities.DefaultExcludedCategories()
	}
	if options.CategoryRules == nil {
		options.CategoryRules = services.DefaultCategoryRules()
	}

	m := &Monitor{
		options: options,
		clock:   time.Now,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}

	classifier, err := classification.NewService(classification.Config{
		Deviation:    options.Deviation,
		Urgency:      options.Urgency,
		NoExpiryYear: options.NoExpiryYear,
	}, m.logger)
	if err != nil {
		return nil, fmt.Errorf("invalid classification thresholds: %w", err)
	}

	detector, err := audit.NewDetector(options.Tolerances, m.logger)
	if err != nil {
		return nil, fmt.Errorf("invalid audit tolerances: %w", err)
	}

	aggregator, err := timeline.NewAggregator(options.CategoryRules)
	if err != nil {
		return nil, fmt.Errorf("invalid category rules: %w", err)
	}

	analyses, err := cache.NewCoordinator[*Analysis](cache.Config{
		Name: "analysis",
		TTL:  options.CacheTTL,
		Size: options.CacheSize,
	}, m.registerer, m.logger)
	if err != nil {
		return nil, err
	}

	m.loader = snapshot.NewLoader(snapshot.Options{NoExpiryYear: options.NoExpiryYear}, m.logger)
	m.classifier = classifier
	m.detector = detector
	m.aggregator = aggregator
	m.cache = analyses
	return m, nil
}

// Options returns the effective options
func (m *Monitor) Options() Options {
	return m.options
}

// LoadSnapshot validates typed tables into an immutable snapshot
func (m *Monitor) LoadSnapshot(tables snapshot.Tables) (*snapshot.Snapshot, error) {
	snap, err := m.loader.Load(tables)
	if err != nil {
		return nil, err
	}

	m.publish(events.NewSnapshotLoadedEvent(events.SnapshotLoaded{
		SnapshotID: snap.ID,
		Movements:  snap.Counts.Movements,
		Validity:   snap.Counts.Validity,
		Suppliers:  snap.Counts.Suppliers,
		Timeline:   snap.Counts.Timeline,
		Records:    snap.Counts.Records,
	}))
	return snap, nil
}

// Analyze returns the cached analysis of snap for today, computing it once
func (m *Monitor) Analyze(ctx context.Context, snap *snapshot.Snapshot) (*Analysis, error) {
	if snap == nil {
		return nil, errors.New("snapshot is nil")
	}
	now := entities.Day(m.clock())
	key := snap.ID + "@" + now.Format(entities.DateLayout)

	return m.cache.Get(ctx, key, func() (*Analysis, error) {
		return m.compute(snap, now)
	})
}

// Classify returns the classified records of snap with their warnings.
// The result is a copy; changing it leaves the cached analysis intact.
func (m *Monitor) Classify(ctx context.Context, snap *snapshot.Snapshot) (*ClassificationResult, error) {
	analysis, err := m.Analyze(ctx, snap)
	if err != nil {
		return nil, err
	}
	return &ClassificationResult{
		AsOf:     analysis.Classification.AsOf,
		Records:  slices.Clone(analysis.Classification.Records),
		Warnings: slices.Clone(analysis.Classification.Warnings),
	}, nil
}

// AuditDivergences returns a copy of the movement/validity divergences of snap
func (m *Monitor) AuditDivergences(ctx context.Context, snap *snapshot.Snapshot) ([]entities.Divergence, error) {
	analysis, err := m.Analyze(ctx, snap)
	if err != nil {
		return nil, err
	}
	return slices.Clone(analysis.Report.Divergences), nil
}

// Audit returns a copy of the divergences together with per-record problems
func (m *Monitor) Audit(ctx context.Context, snap *snapshot.Snapshot) (*entities.AuditReport, error) {
	analysis, err := m.Analyze(ctx, snap)
	if err != nil {
		return nil, err
	}
	return &entities.AuditReport{
		Divergences: slices.Clone(analysis.Report.Divergences),
		Problems:    slices.Clone(analysis.Report.Problems),
	}, nil
}

// BuildTimeline applies an exclusion set to the cached categorized entries.
// A nil set means the configured default exclusions.
func (m *Monitor) BuildTimeline(ctx context.Context, snap *snapshot.Snapshot, excluded entities.CategorySet) (*entities.Timeline, error) {
	analysis, err := m.Analyze(ctx, snap)
	if err != nil {
		return nil, err
	}
	if excluded == nil {
		excluded = m.options.ExcludedCategories
	}

	tl := timeline.Apply(analysis.Categorized, analysis.AsOf, excluded)
	m.publish(events.NewTimelineBuiltEvent(snap.ID, tl))
	return tl, nil
}

// Summary returns headline indicators for snap
func (m *Monitor) Summary(ctx context.Context, snap *snapshot.Snapshot) (*entities.Summary, error) {
	analysis, err := m.Analyze(ctx, snap)
	if err != nil {
		return nil, err
	}
	return timeline.Summarize(
		analysis.AsOf,
		analysis.Classification.Records,
		analysis.Report,
		len(analysis.Classification.Warnings),
	), nil
}

// Purge drops every cached analysis
func (m *Monitor) Purge() {
	m.cache.Purge()
}

// CacheLen returns the number of cached analyses
func (m *Monitor) CacheLen() int {
	return m.cache.Len()
}

func (m *Monitor) compute(snap *snapshot.Snapshot, now time.Time) (*Analysis, error) {
	start := time.Now()

	// Step 1: Classify reconciled movement records
	classified := m.classifier.Classify(snap, now)

	// Step 2: Audit movement against validity
	divergences, err := m.detector.Detect(snap.Stock)
	if err != nil {
		return nil, fmt.Errorf("audit of snapshot %s failed: %w", snap.ID, err)
	}
	report := &entities.AuditReport{
		Divergences: divergences,
		Problems:    audit.Problems(classified.Records),
	}

	// Step 3: Categorize the timeline source, the extract when present
	analysis := &Analysis{
		SnapshotID:     snap.ID,
		AsOf:           now,
		Classification: classified,
		Report:         report,
	}
	if snap.HasTimelineExtract() {
		extract := m.classifier.ClassifyExtract(snap, now)
		analysis.Categorized = m.aggregator.Categorize(extract.Records)
		analysis.TimelineWarnings = extract.Warnings
	} else {
		analysis.Categorized = m.aggregator.Categorize(classified.Records)
	}

	m.logger.Info("analysis computed",
		zap.String("snapshot_id", snap.ID),
		zap.Time("as_of", now),
		zap.Int("records", len(classified.Records)),
		zap.Int("warnings", len(classified.Warnings)),
		zap.Int("divergences", len(divergences)),
		zap.Int("problems", len(report.Problems)),
		zap.Int("timeline_entries", len(analysis.Categorized)),
		zap.Duration("duration", time.Since(start)),
	)

	m.publish(events.NewClassificationCompletedEvent(snap.ID, now, classified.Records, len(classified.Warnings)))
	m.publish(events.NewAuditCompletedEvent(snap.ID, now, report))
	return analysis, nil
}

func (m *Monitor) publish(event events.Event) {
	if m.events == nil {
		return
	}
	if err := m.events.AppendEvent(event.StreamID(), event); err != nil {
		m.logger.Warn("failed to publish event", zap.String("type", event.Type()), zap.Error(err))
	}
}
