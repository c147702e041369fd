package repositories

import "github.com/vsinha/shelfwatch/pkg/domain/entities"

// ShelfLifeSpecRepository provides access to supplier shelf-life specifications
type ShelfLifeSpecRepository interface {
	GetSpecs(material entities.MaterialCode) ([]*entities.ShelfLifeSpec, error)
	LoadSpecs(specs []*entities.ShelfLifeSpec) error
}
