package snapshot

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vsinha/shelfwatch/pkg/domain/entities"
	"github.com/vsinha/shelfwatch/pkg/domain/repositories"
	"github.com/vsinha/shelfwatch/pkg/infrastructure/repositories/memory"
)

// Options control how typed tables are interpreted
type Options struct {
	NoExpiryYear int
}

// DefaultOptions returns the 2070 no-expiry convention
func DefaultOptions() Options {
	return Options{NoExpiryYear: entities.NoExpiryYear}
}

// RowCounts reports how many rows each table contributed
type RowCounts struct {
	Movements int `json:"movements"`
	Validity  int `json:"validity"`
	Suppliers int `json:"suppliers"`
	Timeline  int `json:"timeline"`
	Records   int `json:"records"`
}

// Snapshot is an immutable, validated set of source tables
type Snapshot struct {
	ID     string
	Counts RowCounts
	Specs  repositories.ShelfLifeSpecRepository
	Stock  repositories.StockRepository

	records     []entities.MaterialRecord
	extract     []entities.ExtractRecord
	hasTimeline bool
}

// Records returns a copy of the reconciled material records, sorted by key
func (s *Snapshot) Records() []entities.MaterialRecord {
	out := make([]entities.MaterialRecord, len(s.records))
	copy(out, s.records)
	return out
}

// ExtractRecords returns the timeline extract rows with free stock, in load order
func (s *Snapshot) ExtractRecords() []entities.ExtractRecord {
	out := make([]entities.ExtractRecord, len(s.extract))
	copy(out, s.extract)
	return out
}

// HasTimelineExtract reports whether the snapshot carries a timeline extract
func (s *Snapshot) HasTimelineExtract() bool {
	return s.hasTimeline
}

// Loader validates typed tables into snapshots
type Loader struct {
	options Options
	logger  *zap.Logger
}

// NewLoader creates a new snapshot loader
func NewLoader(options Options, logger *zap.Logger) *Loader {
	if options.NoExpiryYear == 0 {
		options.NoExpiryYear = entities.NoExpiryYear
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{options: options, logger: logger}
}

// parsed holds the typed rows of one load attempt
type parsed struct {
	movements []*entities.MovementRecord
	validity  []*entities.ValidityRecord
	specs     []*entities.ShelfLifeSpec
	extract   []*entities.ExtractRecord
}

// Load validates every table and builds a snapshot. Any missing column or
// invalid cell fails the whole load with an *entities.IngestError.
func (l *Loader) Load(tables Tables) (*Snapshot, error) {
	ingestErr := &entities.IngestError{}

	// Step 1: Bind columns and report every missing one
	movements := bind(tables.Movements, MovementsSchema, ingestErr)
	validity := bind(tables.Validity, ValiditySchema, ingestErr)
	suppliers := bind(tables.Suppliers, SuppliersSchema, ingestErr)
	var timeline *boundTable
	if tables.Timeline != nil {
		timeline = bind(tables.Timeline, TimelineSchema, ingestErr)
	}
	if ingestErr.HasIssues() {
		return nil, ingestErr
	}

	// Step 2: Type every row, collecting all invalid cells
	p := &parsed{}
	p.movements = l.parseMovements(movements, ingestErr)
	p.validity = l.parseValidity(validity, ingestErr)
	p.specs = l.parseSpecs(suppliers, ingestErr)
	if timeline != nil {
		p.extract = l.parseExtract(timeline, ingestErr)
	}
	if ingestErr.HasIssues() {
		return nil, ingestErr
	}

	// Step 3: Load repositories and fold movement rows into records
	specRepo := memory.NewShelfLifeSpecRepository(len(p.specs))
	if err := specRepo.LoadSpecs(p.specs); err != nil {
		return nil, fmt.Errorf("failed to load specs: %w", err)
	}
	stockRepo := memory.NewStockRepository()
	if err := stockRepo.LoadMovements(p.movements); err != nil {
		return nil, fmt.Errorf("failed to load movements: %w", err)
	}
	if err := stockRepo.LoadValidity(p.validity); err != nil {
		return nil, fmt.Errorf("failed to load validity: %w", err)
	}
	if err := stockRepo.LoadExtract(p.extract); err != nil {
		return nil, fmt.Errorf("failed to load timeline extract: %w", err)
	}

	snap := &Snapshot{
		ID:          Identity(tables, l.options),
		Specs:       specRepo,
		Stock:       stockRepo,
		records:     foldRecords(p.movements, p.validity),
		hasTimeline: timeline != nil,
	}
	for _, row := range p.extract {
		if row.FreeForUse.IsPositive() {
			snap.extract = append(snap.extract, *row)
		}
	}
	snap.Counts = RowCounts{
		Movements: len(p.movements),
		Validity:  len(p.validity),
		Suppliers: len(p.specs),
		Timeline:  len(snap.extract),
		Records:   len(snap.records),
	}

	l.logger.Info("snapshot loaded",
		zap.String("snapshot_id", snap.ID),
		zap.Int("movements", snap.Counts.Movements),
		zap.Int("validity", snap.Counts.Validity),
		zap.Int("suppliers", snap.Counts.Suppliers),
		zap.Int("timeline", snap.Counts.Timeline),
		zap.Int("records", snap.Counts.Records),
	)
	return snap, nil
}

// bind resolves a table against its schema, recording missing columns
func bind(table *Table, schema Schema, ingestErr *entities.IngestError) *boundTable {
	if table == nil {
		for _, name := range schema.Required() {
			ingestErr.AddMissing(schema.Table, name)
		}
		return nil
	}
	b := &boundTable{table: table, name: table.Name, schema: schema, index: make(map[string]int, len(table.Columns))}
	if b.name == "" {
		b.name = schema.Table
	}
	for i, name := range table.Columns {
		name = strings.TrimSpace(name)
		if _, dup := b.index[name]; dup && schema.Has(name) {
			ingestErr.AddProblem("%s: duplicate column %s", schema.Table, name)
			continue
		}
		b.index[name] = i
	}
	for _, name := range schema.Required() {
		if _, ok := b.index[name]; !ok {
			ingestErr.AddMissing(schema.Table, name)
		}
	}
	return b
}

// expiryCell reads an expiry column, mapping the no-expiry year to absent
func (l *Loader) expiryCell(b *boundTable, row []any) (*time.Time, bool, error) {
	expiry, err := b.dateCell(row, ColExpiry)
	if err != nil || expiry == nil {
		return nil, false, err
	}
	if expiry.Year() == l.options.NoExpiryYear {
		return nil, true, nil
	}
	return expiry, false, nil
}

// rowReader accumulates the first error per cell for one row
type rowReader struct {
	b         *boundTable
	row       []any
	rowIdx    int
	ingestErr *entities.IngestError
	ok        bool
}

func (r *rowReader) fail(column string, err error) {
	r.ingestErr.AddProblem("%s", r.b.cellError(r.rowIdx, column, "%v", err))
	r.ok = false
}

func (r *rowReader) text(column string) string {
	s, err := r.b.stringCell(r.row, column)
	if err != nil {
		r.fail(column, err)
	}
	return strings.TrimSpace(s)
}

func (r *rowReader) required(column string) string {
	s, err := r.b.stringCell(r.row, column)
	switch {
	case err != nil:
		r.fail(column, err)
	case strings.TrimSpace(s) == "":
		r.fail(column, fmt.Errorf("value is required"))
	}
	return strings.TrimSpace(s)
}

func (r *rowReader) number(column string) decimal.NullDecimal {
	d, err := r.b.decimalCell(r.row, column)
	if err != nil {
		r.fail(column, err)
	}
	return d
}

func (r *rowReader) date(column string) *time.Time {
	d, err := r.b.dateCell(r.row, column)
	if err != nil {
		r.fail(column, err)
	}
	return d
}

func newRowReader(b *boundTable, rowIdx int, ingestErr *entities.IngestError) *rowReader {
	return &rowReader{b: b, row: b.table.Rows[rowIdx], rowIdx: rowIdx, ingestErr: ingestErr, ok: true}
}

func (l *Loader) parseMovements(b *boundTable, ingestErr *entities.IngestError) []*entities.MovementRecord {
	rows := make([]*entities.MovementRecord, 0, len(b.table.Rows))
	for i := range b.table.Rows {
		r := newRowReader(b, i, ingestErr)
		m := &entities.MovementRecord{
			Material:        entities.MaterialCode(r.required(ColMaterial)),
			Lot:             r.required(ColLot),
			Location:        entities.Location{Plant: r.required(ColPlant), Depot: r.required(ColDepot)},
			Description:     r.text(ColDescription),
			Unit:            r.text(ColUnit),
			MovementType:    r.text(ColMovementType),
			Supplier:        r.text(ColSupplier),
			EntryDate:       r.date(ColEntryDate),
			ManufactureDate: r.date(ColManufactureDate),
			Row:             i + 1,
		}
		qty, err := b.decimalCell(b.table.Rows[i], ColQuantity)
		switch {
		case err != nil:
			r.fail(ColQuantity, err)
		case !qty.Valid:
			r.fail(ColQuantity, fmt.Errorf("value is required"))
		}
		m.Quantity = qty.Decimal

		expiry, _, err := l.expiryCell(b, b.table.Rows[i])
		if err != nil {
			r.fail(ColExpiry, err)
		}
		m.Expiry = expiry

		if r.ok {
			rows = append(rows, m)
		}
	}
	return rows
}

func (l *Loader) parseValidity(b *boundTable, ingestErr *entities.IngestError) []*entities.ValidityRecord {
	rows := make([]*entities.ValidityRecord, 0, len(b.table.Rows))
	for i := range b.table.Rows {
		r := newRowReader(b, i, ingestErr)
		v := &entities.ValidityRecord{
			Material:        entities.MaterialCode(r.required(ColMaterial)),
			Lot:             r.required(ColLot),
			ManufactureDate: r.date(ColManufactureDate),
			Quantity:        r.number(ColQuantity),
			Row:             i + 1,
		}
		expiry, noExpiry, err := l.expiryCell(b, b.table.Rows[i])
		if err != nil {
			r.fail(ColExpiry, err)
		}
		v.Expiry, v.NoExpiry = expiry, noExpiry

		if r.ok {
			rows = append(rows, v)
		}
	}
	return rows
}

func (l *Loader) parseSpecs(b *boundTable, ingestErr *entities.IngestError) []*entities.ShelfLifeSpec {
	specs := make([]*entities.ShelfLifeSpec, 0, len(b.table.Rows))
	for i := range b.table.Rows {
		r := newRowReader(b, i, ingestErr)
		material := entities.MaterialCode(r.required(ColMaterial))
		supplier := r.text(ColSupplier)
		addedAt := r.date(ColAddedAt)

		shelfLife, err := b.shelfLifeCell(b.table.Rows[i], ColShelfLife)
		if err != nil {
			r.fail(ColShelfLife, err)
		} else if shelfLife == nil {
			r.fail(ColShelfLife, fmt.Errorf("value is required"))
		}
		if !r.ok {
			continue
		}

		spec, err := entities.NewShelfLifeSpec(material, supplier, *shelfLife, addedAt)
		if err != nil {
			r.fail(ColShelfLife, err)
			continue
		}
		spec.Row = i + 1
		specs = append(specs, spec)
	}
	return specs
}

func (l *Loader) parseExtract(b *boundTable, ingestErr *entities.IngestError) []*entities.ExtractRecord {
	rows := make([]*entities.ExtractRecord, 0, len(b.table.Rows))
	for i := range b.table.Rows {
		r := newRowReader(b, i, ingestErr)
		e := &entities.ExtractRecord{
			Material:        entities.MaterialCode(r.required(ColMaterial)),
			Lot:             r.required(ColLot),
			Location:        entities.Location{Plant: r.required(ColPlant), Depot: r.required(ColDepot)},
			Description:     r.text(ColDescription),
			ManufactureDate: r.date(ColManufactureDate),
			FreeForUse:      r.number(ColFreeForUse).Decimal,
			Restricted:      r.number(ColRestricted).Decimal,
			Row:             i + 1,
		}
		expiry, noExpiry, err := l.expiryCell(b, b.table.Rows[i])
		if err != nil {
			r.fail(ColExpiry, err)
		}
		e.Expiry, e.NoExpiry = expiry, noExpiry

		if r.ok {
			rows = append(rows, e)
		}
	}
	return rows
}

// foldRecords merges movement rows per record key and attaches the latest
// validity expiry of each lot. MovementType is the earliest row's type and
// MovementTypes lists every distinct type in entry order.
func foldRecords(movements []*entities.MovementRecord, validity []*entities.ValidityRecord) []entities.MaterialRecord {
	grouped := make(map[entities.RecordKey][]*entities.MovementRecord)
	for _, m := range movements {
		grouped[m.Key()] = append(grouped[m.Key()], m)
	}

	type lotExpiry struct {
		expiry   *time.Time
		noExpiry bool
	}
	expiries := make(map[entities.LotKey]*lotExpiry)
	for _, v := range validity {
		e, ok := expiries[v.Key()]
		if !ok {
			e = &lotExpiry{}
			expiries[v.Key()] = e
		}
		if v.NoExpiry {
			e.noExpiry = true
		}
		if v.Expiry != nil && (e.expiry == nil || v.Expiry.After(*e.expiry)) {
			e.expiry = v.Expiry
		}
	}

	records := make([]entities.MaterialRecord, 0, len(grouped))
	for key, rows := range grouped {
		sort.SliceStable(rows, func(i, j int) bool {
			return earlier(rows[i].EntryDate, rows[j].EntryDate)
		})

		first := rows[0]
		record := entities.MaterialRecord{
			Key:          key,
			Description:  first.Description,
			Unit:         first.Unit,
			MovementType: first.MovementType,
		}
		for _, row := range rows {
			record.Quantity = record.Quantity.Add(row.Quantity)
			if earlier(row.EntryDate, record.EntryDate) {
				record.EntryDate = row.EntryDate
			}
			if earlier(row.ManufactureDate, record.ManufactureDate) {
				record.ManufactureDate = row.ManufactureDate
			}
			if record.Description == "" {
				record.Description = row.Description
			}
			if row.MovementType != "" && !record.HasMovementType(row.MovementType) {
				record.MovementTypes = append(record.MovementTypes, row.MovementType)
			}
		}

		if e, ok := expiries[key.LotKey()]; ok {
			record.RecordedExpiry = e.expiry
			record.NoExpiry = e.expiry == nil && e.noExpiry
		}
		records = append(records, record)
	}

	sort.Slice(records, func(i, j int) bool { return records[i].Key.Compare(records[j].Key) < 0 })
	return records
}

// earlier orders optional dates with absent dates last
func earlier(a, b *time.Time) bool {
	switch {
	case a == nil:
		return false
	case b == nil:
		return true
	default:
		return a.Before(*b)
	}
}
