package audit

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vsinha/shelfwatch/pkg/domain/entities"
	"github.com/vsinha/shelfwatch/pkg/domain/repositories"
)

// Tolerances bound how far movement and validity data may drift apart
type Tolerances struct {
	DateDays         int
	QuantityAbsolute decimal.Decimal
	QuantityRelative decimal.Decimal
}

// DefaultTolerances flags any date or quantity difference
func DefaultTolerances() Tolerances {
	return Tolerances{
		DateDays:         0,
		QuantityAbsolute: decimal.Zero,
		QuantityRelative: decimal.Zero,
	}
}

// Validate checks that every tolerance is non-negative
func (t Tolerances) Validate() error {
	if t.DateDays < 0 {
		return fmt.Errorf("date tolerance cannot be negative, got %d days", t.DateDays)
	}
	if t.QuantityAbsolute.IsNegative() {
		return fmt.Errorf("absolute quantity tolerance cannot be negative, got %s", t.QuantityAbsolute)
	}
	if t.QuantityRelative.IsNegative() {
		return fmt.Errorf("relative quantity tolerance cannot be negative, got %s", t.QuantityRelative)
	}
	return nil
}

// QuantitiesDiffer reports |qm - qv| > max(absolute, relative * max(|qm|, |qv|))
func (t Tolerances) QuantitiesDiffer(qm, qv decimal.Decimal) bool {
	allowed := decimal.Max(t.QuantityAbsolute, t.QuantityRelative.Mul(decimal.Max(qm.Abs(), qv.Abs())))
	return qm.Sub(qv).Abs().GreaterThan(allowed)
}

// DatesDiffer reports whether two dates are further apart than the tolerance window
func (t Tolerances) DatesDiffer(a, b time.Time) bool {
	diff := entities.DaysBetween(a, b)
	if diff < 0 {
		diff = -diff
	}
	return diff > t.DateDays
}

// Detector joins movement and validity rows by material and lot
type Detector struct {
	tolerances Tolerances
	logger     *zap.Logger
}

// NewDetector creates a validated divergence detector
func NewDetector(tolerances Tolerances, logger *zap.Logger) (*Detector, error) {
	if err := tolerances.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Detector{tolerances: tolerances, logger: logger}, nil
}

// lotSide is the aggregated view of one source for one lot key
type lotSide struct {
	present  bool
	quantity decimal.NullDecimal
	expiry   *time.Time
}

// Detect runs one full reconciliation pass over every lot key.
// The result is sorted by material, lot and kind; running it twice on the
// same repository yields the same divergences.
func (d *Detector) Detect(stock repositories.StockRepository) ([]entities.Divergence, error) {
	var divergences []entities.Divergence

	for _, key := range stock.LotKeys() {
		found, err := d.detectKey(stock, key)
		if err != nil {
			return nil, err
		}
		divergences = append(divergences, found...)
	}

	sort.SliceStable(divergences, func(i, j int) bool {
		if c := divergences[i].Key.Compare(divergences[j].Key); c != 0 {
			return c < 0
		}
		return divergences[i].Kind < divergences[j].Kind
	})

	d.logger.Debug("divergences detected", zap.Int("divergences", len(divergences)))
	return divergences, nil
}

func (d *Detector) detectKey(stock repositories.StockRepository, key entities.LotKey) ([]entities.Divergence, error) {
	movements, err := stock.GetMovements(key)
	if err != nil {
		return nil, fmt.Errorf("failed to get movements for %s: %w", key, err)
	}
	validity, err := stock.GetValidity(key)
	if err != nil {
		return nil, fmt.Errorf("failed to get validity for %s: %w", key, err)
	}

	movement := movementSide(movements)
	valid := validitySide(validity)

	// Step 1: Keys present on one side only
	switch {
	case !movement.present && !valid.present:
		return nil, &entities.AuditJoinError{Key: key}
	case !valid.present:
		return []entities.Divergence{{
			Key:              key,
			Kind:             entities.MissingInValidity,
			MovementQuantity: movement.quantity,
			MovementExpiry:   movement.expiry,
			Detail:           "lot has stock movements but no validity record",
		}}, nil
	case !movement.present:
		return []entities.Divergence{{
			Key:              key,
			Kind:             entities.MissingInMovement,
			ValidityQuantity: valid.quantity,
			ValidityExpiry:   valid.expiry,
			Detail:           "lot has a validity record but no stock movements",
		}}, nil
	}

	var divergences []entities.Divergence

	// Step 2: Quantities, when the validity side carries them
	if valid.quantity.Valid && d.tolerances.QuantitiesDiffer(movement.quantity.Decimal, valid.quantity.Decimal) {
		divergences = append(divergences, entities.Divergence{
			Key:              key,
			Kind:             entities.QuantityMismatch,
			MovementQuantity: movement.quantity,
			ValidityQuantity: valid.quantity,
			Detail: fmt.Sprintf("movement quantity %s differs from validity quantity %s",
				movement.quantity.Decimal, valid.quantity.Decimal),
		})
	}

	// Step 3: Dates, from the movement side or else the timeline extract
	movementExpiry := movement.expiry
	if movementExpiry == nil {
		extract, err := stock.GetExtract(key)
		if err != nil {
			return nil, fmt.Errorf("failed to get extract for %s: %w", key, err)
		}
		movementExpiry = latestExtractExpiry(extract)
	}
	if detail := d.dateConflict(movementExpiry, validity); detail != "" {
		divergences = append(divergences, entities.Divergence{
			Key:            key,
			Kind:           entities.DateConflict,
			MovementExpiry: movementExpiry,
			ValidityExpiry: valid.expiry,
			Detail:         detail,
		})
	}

	return divergences, nil
}

// dateConflict describes a date conflict, empty when dates agree within tolerance
func (d *Detector) dateConflict(movementExpiry *time.Time, validity []*entities.ValidityRecord) string {
	var earliest, latest *time.Time
	for _, v := range validity {
		if v.Expiry == nil {
			continue
		}
		if earliest == nil || v.Expiry.Before(*earliest) {
			earliest = v.Expiry
		}
		if latest == nil || v.Expiry.After(*latest) {
			latest = v.Expiry
		}
	}

	if earliest != nil && d.tolerances.DatesDiffer(*earliest, *latest) {
		return fmt.Sprintf("validity records disagree: %s to %s",
			earliest.Format(entities.DateLayout), latest.Format(entities.DateLayout))
	}
	if movementExpiry != nil && latest != nil && d.tolerances.DatesDiffer(*movementExpiry, *latest) {
		return fmt.Sprintf("movement expiry %s differs from validity expiry %s by %d days",
			movementExpiry.Format(entities.DateLayout), latest.Format(entities.DateLayout),
			entities.DaysBetween(*movementExpiry, *latest))
	}
	return ""
}

func movementSide(rows []*entities.MovementRecord) lotSide {
	side := lotSide{present: len(rows) > 0}
	if !side.present {
		return side
	}

	total := decimal.Zero
	for _, row := range rows {
		total = total.Add(row.Quantity)
		if row.Expiry != nil && (side.expiry == nil || row.Expiry.After(*side.expiry)) {
			side.expiry = row.Expiry
		}
	}
	side.quantity = decimal.NewNullDecimal(total)
	return side
}

func validitySide(rows []*entities.ValidityRecord) lotSide {
	side := lotSide{present: len(rows) > 0}

	total := decimal.Zero
	for _, row := range rows {
		if row.Quantity.Valid {
			total = total.Add(row.Quantity.Decimal)
			side.quantity = decimal.NewNullDecimal(total)
		}
		if row.Expiry != nil && (side.expiry == nil || row.Expiry.After(*side.expiry)) {
			side.expiry = row.Expiry
		}
	}
	return side
}

func latestExtractExpiry(rows []*entities.ExtractRecord) *time.Time {
	var latest *time.Time
	for _, row := range rows {
		if row.Expiry != nil && (latest == nil || row.Expiry.After(*latest)) {
			latest = row.Expiry
		}
	}
	return latest
}
