package memory

import (
	"fmt"
	"sort"

	"github.com/vsinha/shelfwatch/pkg/domain/entities"
	"github.com/vsinha/shelfwatch/pkg/domain/repositories"
)

// StockRepository provides in-memory storage of movement, validity and extract rows
type StockRepository struct {
	movements []entities.MovementRecord
	validity  []entities.ValidityRecord
	extract   []entities.ExtractRecord

	movementIndex map[entities.LotKey][]int
	validityIndex map[entities.LotKey][]int
	extractIndex  map[entities.LotKey][]int
}

// NewStockRepository creates a new in-memory stock repository
func NewStockRepository() *StockRepository {
	return &StockRepository{
		movementIndex: make(map[entities.LotKey][]int),
		validityIndex: make(map[entities.LotKey][]int),
		extractIndex:  make(map[entities.LotKey][]int),
	}
}

// Verify interface compliance
var _ repositories.StockRepository = (*StockRepository)(nil)

// LoadMovements loads movement rows into the repository
func (r *StockRepository) LoadMovements(rows []*entities.MovementRecord) error {
	for _, row := range rows {
		if row == nil {
			return fmt.Errorf("cannot load nil movement record")
		}
		key := entities.LotKey{Material: row.Material, Lot: row.Lot}
		r.movementIndex[key] = append(r.movementIndex[key], len(r.movements))
		r.movements = append(r.movements, *row)
	}
	return nil
}

// LoadValidity loads validity rows into the repository
func (r *StockRepository) LoadValidity(rows []*entities.ValidityRecord) error {
	for _, row := range rows {
		if row == nil {
			return fmt.Errorf("cannot load nil validity record")
		}
		key := row.Key()
		r.validityIndex[key] = append(r.validityIndex[key], len(r.validity))
		r.validity = append(r.validity, *row)
	}
	return nil
}

// LoadExtract loads timeline extract rows into the repository
func (r *StockRepository) LoadExtract(rows []*entities.ExtractRecord) error {
	for _, row := range rows {
		if row == nil {
			return fmt.Errorf("cannot load nil extract record")
		}
		key := entities.LotKey{Material: row.Material, Lot: row.Lot}
		r.extractIndex[key] = append(r.extractIndex[key], len(r.extract))
		r.extract = append(r.extract, *row)
	}
	return nil
}

// GetMovements returns the movement rows for a lot, empty when none exist
func (r *StockRepository) GetMovements(key entities.LotKey) ([]*entities.MovementRecord, error) {
	rows := make([]*entities.MovementRecord, 0, len(r.movementIndex[key]))
	for _, i := range r.movementIndex[key] {
		rows = append(rows, &r.movements[i])
	}
	return rows, nil
}

// GetValidity returns the validity rows for a lot, empty when none exist
func (r *StockRepository) GetValidity(key entities.LotKey) ([]*entities.ValidityRecord, error) {
	rows := make([]*entities.ValidityRecord, 0, len(r.validityIndex[key]))
	for _, i := range r.validityIndex[key] {
		rows = append(rows, &r.validity[i])
	}
	return rows, nil
}

// GetExtract returns the extract rows for a lot, empty when none exist
func (r *StockRepository) GetExtract(key entities.LotKey) ([]*entities.ExtractRecord, error) {
	rows := make([]*entities.ExtractRecord, 0, len(r.extractIndex[key]))
	for _, i := range r.extractIndex[key] {
		rows = append(rows, &r.extract[i])
	}
	return rows, nil
}

// LotKeys returns the union of movement and validity lot keys, sorted
func (r *StockRepository) LotKeys() []entities.LotKey {
	seen := make(map[entities.LotKey]struct{}, len(r.movementIndex)+len(r.validityIndex))
	for key := range r.movementIndex {
		seen[key] = struct{}{}
	}
	for key := range r.validityIndex {
		seen[key] = struct{}{}
	}

	keys := make([]entities.LotKey, 0, len(seen))
	for key := range seen {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Compare(keys[j]) < 0 })
	return keys
}
