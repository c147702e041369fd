package memory

import (
	"fmt"

	"github.com/vsinha/shelfwatch/pkg/domain/entities"
	"github.com/vsinha/shelfwatch/pkg/domain/repositories"
)

// ShelfLifeSpecRepository provides in-memory shelf-life specification storage
type ShelfLifeSpecRepository struct {
	specs      []entities.ShelfLifeSpec
	byMaterial map[entities.MaterialCode][]int
}

// NewShelfLifeSpecRepository creates a new in-memory specification repository
func NewShelfLifeSpecRepository(expectedSpecs int) *ShelfLifeSpecRepository {
	return &ShelfLifeSpecRepository{
		specs:      make([]entities.ShelfLifeSpec, 0, expectedSpecs),
		byMaterial: make(map[entities.MaterialCode][]int, expectedSpecs),
	}
}

// Verify interface compliance
var _ repositories.ShelfLifeSpecRepository = (*ShelfLifeSpecRepository)(nil)

// LoadSpecs loads specifications into the repository
func (r *ShelfLifeSpecRepository) LoadSpecs(specs []*entities.ShelfLifeSpec) error {
	for _, spec := range specs {
		if spec == nil {
			return fmt.Errorf("cannot load nil shelf life spec")
		}
		r.AddSpec(*spec)
	}
	return nil
}

// AddSpec adds a specification to the repository
func (r *ShelfLifeSpecRepository) AddSpec(spec entities.ShelfLifeSpec) {
	r.byMaterial[spec.Material] = append(r.byMaterial[spec.Material], len(r.specs))
	r.specs = append(r.specs, spec)
}

// GetSpecs returns every specification declared for a material, in load order
func (r *ShelfLifeSpecRepository) GetSpecs(material entities.MaterialCode) ([]*entities.ShelfLifeSpec, error) {
	indexes, exists := r.byMaterial[material]
	if !exists {
		return nil, fmt.Errorf("material %s: %w", material, entities.ErrSpecNotFound)
	}

	specs := make([]*entities.ShelfLifeSpec, 0, len(indexes))
	for _, i := range indexes {
		specs = append(specs, &r.specs[i])
	}
	return specs, nil
}
