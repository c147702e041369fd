package classification

import (
	"errors"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/vsinha/shelfwatch/pkg/application/services/snapshot"
	"github.com/vsinha/shelfwatch/pkg/domain/entities"
	"github.com/vsinha/shelfwatch/pkg/domain/repositories"
	"github.com/vsinha/shelfwatch/pkg/domain/services"
)

// Config holds the classifier thresholds
type Config struct {
	Deviation    services.DeviationThresholds
	Urgency      services.UrgencyThresholds
	NoExpiryYear int
}

// DefaultConfig returns the default thresholds and the 2070 no-expiry convention
func DefaultConfig() Config {
	return Config{
		Deviation:    services.DefaultDeviationThresholds(),
		Urgency:      services.DefaultUrgencyThresholds(),
		NoExpiryYear: entities.NoExpiryYear,
	}
}

// Result is a complete classified set with its per-record warnings
type Result struct {
	AsOf     time.Time                   `json:"as_of"`
	Records  []entities.ClassifiedRecord `json:"records"`
	Warnings []entities.RecordWarning    `json:"warnings"`
}

// Service classifies material records by deviation and urgency
type Service struct {
	calculator   *services.ExpiryCalculator
	deviation    *services.DeviationClassifier
	urgency      *services.UrgencyClassifier
	noExpiryYear int
	logger       *zap.Logger
}

// NewService creates a validated classification service
func NewService(config Config, logger *zap.Logger) (*Service, error) {
	deviation, err := services.NewDeviationClassifier(config.Deviation)
	if err != nil {
		return nil, err
	}
	urgency, err := services.NewUrgencyClassifier(config.Urgency)
	if err != nil {
		return nil, err
	}
	if config.NoExpiryYear == 0 {
		config.NoExpiryYear = entities.NoExpiryYear
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		calculator:   services.NewExpiryCalculator(),
		deviation:    deviation,
		urgency:      urgency,
		noExpiryYear: config.NoExpiryYear,
		logger:       logger,
	}, nil
}

// Classify classifies every reconciled record of a snapshot as of now.
// Per-record failures become warnings and never abort the batch.
func (s *Service) Classify(snap *snapshot.Snapshot, now time.Time) *Result {
	result := s.classifyRecords(snap.Specs, snap.Records(), now, false)
	s.logger.Debug("records classified",
		zap.String("snapshot_id", snap.ID),
		zap.Int("records", len(result.Records)),
		zap.Int("warnings", len(result.Warnings)),
	)
	return result
}

// ClassifyExtract classifies the timeline extract rows of a snapshot.
// Extract rows carry no entry date, so only ambiguous specifications are
// reported as warnings.
func (s *Service) ClassifyExtract(snap *snapshot.Snapshot, now time.Time) *Result {
	extract := snap.ExtractRecords()
	records := make([]entities.MaterialRecord, 0, len(extract))
	for _, row := range extract {
		records = append(records, entities.MaterialRecord{
			Key:             row.Key(),
			Description:     row.Description,
			Quantity:        row.FreeForUse,
			ManufactureDate: row.ManufactureDate,
			RecordedExpiry:  row.Expiry,
			NoExpiry:        row.NoExpiry,
			MovementTypes:   s.movementTypes(snap.Stock, row.Key()),
		})
	}

	result := s.classifyRecords(snap.Specs, records, now, true)
	s.logger.Debug("timeline extract classified",
		zap.String("snapshot_id", snap.ID),
		zap.Int("records", len(result.Records)),
	)
	return result
}

// movementTypes lists the distinct movement types booked for a record key
func (s *Service) movementTypes(stock repositories.StockRepository, key entities.RecordKey) []string {
	movements, err := stock.GetMovements(key.LotKey())
	if err != nil {
		s.logger.Warn("movement lookup failed", zap.Stringer("key", key), zap.Error(err))
		return nil
	}
	var types []string
	for _, m := range movements {
		if m.Key() != key || m.MovementType == "" || slices.Contains(types, m.MovementType) {
			continue
		}
		types = append(types, m.MovementType)
	}
	return types
}

func (s *Service) classifyRecords(specs repositories.ShelfLifeSpecRepository, records []entities.MaterialRecord, now time.Time, extract bool) *Result {
	resolver := services.NewShelfLifeResolver(specs)
	result := &Result{
		AsOf:    entities.Day(now),
		Records: make([]entities.ClassifiedRecord, 0, len(records)),
	}

	for _, record := range records {
		classified, errs := s.ClassifyRecord(resolver, record, now)
		result.Records = append(result.Records, classified)
		for _, err := range errs {
			if extract && !isAmbiguous(err) {
				continue
			}
			result.Warnings = append(result.Warnings, entities.RecordWarning{Key: record.Key, Err: err})
		}
	}
	return result
}

// ClassifyRecord computes the full expiry analysis of one record.
// The returned errors are the per-record problems met along the way.
func (s *Service) ClassifyRecord(resolver *services.ShelfLifeResolver, record entities.MaterialRecord, now time.Time) (entities.ClassifiedRecord, []error) {
	classified := entities.ClassifiedRecord{MaterialRecord: record}
	var errs []error

	// Step 1: Resolve the shelf life
	shelfLifeDays, err := resolver.ResolveDays(record.Key.Material)
	if err != nil {
		errs = append(errs, err)
	} else {
		classified.ShelfLifeDays = &shelfLifeDays
	}

	// Step 2: Expected expiry from the reference date
	if classified.ShelfLifeDays != nil {
		expected, err := s.calculator.Calculate(record, shelfLifeDays)
		switch {
		case err != nil:
			errs = append(errs, err)
		case expected.Year() != s.noExpiryYear:
			classified.ExpectedExpiry = &expected
		}
	}

	// Step 3: Deviation of recorded from expected
	classified.DeviationStatus = entities.DeviationUnknown
	if classified.ExpectedExpiry != nil {
		deviation := s.deviation.Classify(record.RecordedExpiry, *classified.ExpectedExpiry, shelfLifeDays)
		classified.DeviationDays = deviation.Days
		classified.DeviationPercent = deviation.Percent
		classified.DeviationStatus = deviation.Status
	}

	// Step 4: Urgency against the recorded expiry, else the expected one
	if !record.NoExpiry {
		if record.RecordedExpiry != nil {
			classified.AnalysisExpiry = record.RecordedExpiry
		} else {
			classified.AnalysisExpiry = classified.ExpectedExpiry
		}
	}
	urgency := s.urgency.Classify(classified.AnalysisExpiry, classified.ShelfLifeDays, now)
	classified.DaysRemaining = urgency.DaysRemaining
	classified.PercentLifeRemaining = urgency.PercentLifeRemaining
	classified.TemporalStatus = urgency.Status

	return classified, errs
}

func isAmbiguous(err error) bool {
	var ambiguous *entities.AmbiguousSpecError
	return errors.As(err, &ambiguous)
}
