package repositories

import "github.com/vsinha/shelfwatch/pkg/domain/entities"

// StockRepository provides access to the lot-level rows of one snapshot
type StockRepository interface {
	GetMovements(key entities.LotKey) ([]*entities.MovementRecord, error)
	GetValidity(key entities.LotKey) ([]*entities.ValidityRecord, error)
	GetExtract(key entities.LotKey) ([]*entities.ExtractRecord, error)
	LotKeys() []entities.LotKey
	LoadMovements(rows []*entities.MovementRecord) error
	LoadValidity(rows []*entities.ValidityRecord) error
	LoadExtract(rows []*entities.ExtractRecord) error
}
