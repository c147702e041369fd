package services

import (
	"fmt"
	"sort"

	"github.com/vsinha/shelfwatch/pkg/domain/entities"
	"github.com/vsinha/shelfwatch/pkg/domain/repositories"
)

// ShelfLifeResolver resolves a material's nominal shelf life from supplier specifications
type ShelfLifeResolver struct {
	specRepo repositories.ShelfLifeSpecRepository
}

// NewShelfLifeResolver creates a resolver backed by a specification repository
func NewShelfLifeResolver(specRepo repositories.ShelfLifeSpecRepository) *ShelfLifeResolver {
	return &ShelfLifeResolver{specRepo: specRepo}
}

// Resolve returns the winning specification for a material.
// The most recently added specifications win; undated rows rank below dated ones.
// Winners that disagree on the day count fail with AmbiguousSpecError.
func (r *ShelfLifeResolver) Resolve(material entities.MaterialCode) (*entities.ShelfLifeSpec, error) {
	specs, err := r.specRepo.GetSpecs(material)
	if err != nil {
		return nil, err
	}
	if len(specs) == 0 {
		return nil, fmt.Errorf("material %s: %w", material, entities.ErrSpecNotFound)
	}

	// Step 1: Keep only the specs in the most recent rank
	winners := []*entities.ShelfLifeSpec{specs[0]}
	for _, spec := range specs[1:] {
		switch compareAddedAt(spec, winners[0]) {
		case 1:
			winners = []*entities.ShelfLifeSpec{spec}
		case 0:
			winners = append(winners, spec)
		}
	}

	// Step 2: Winners agreeing on the duration are not ambiguous
	for _, spec := range winners[1:] {
		if spec.ShelfLife.Days != winners[0].ShelfLife.Days {
			return nil, ambiguity(material, winners)
		}
	}

	return winners[0], nil
}

// ResolveDays returns the resolved shelf life in days
func (r *ShelfLifeResolver) ResolveDays(material entities.MaterialCode) (int, error) {
	spec, err := r.Resolve(material)
	if err != nil {
		return 0, err
	}
	return spec.ShelfLife.Days, nil
}

// compareAddedAt returns 1 when a ranks above b, -1 when below, 0 when tied
func compareAddedAt(a, b *entities.ShelfLifeSpec) int {
	switch {
	case a.AddedAt == nil && b.AddedAt == nil:
		return 0
	case a.AddedAt == nil:
		return -1
	case b.AddedAt == nil:
		return 1
	case a.AddedAt.After(*b.AddedAt):
		return 1
	case a.AddedAt.Before(*b.AddedAt):
		return -1
	default:
		return 0
	}
}

func ambiguity(material entities.MaterialCode, winners []*entities.ShelfLifeSpec) *entities.AmbiguousSpecError {
	sorted := make([]*entities.ShelfLifeSpec, len(winners))
	copy(sorted, winners)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Supplier < sorted[j].Supplier })

	err := &entities.AmbiguousSpecError{Material: material, AddedAt: sorted[0].AddedAt}
	for _, spec := range sorted {
		err.Suppliers = append(err.Suppliers, spec.Supplier)
		err.Days = append(err.Days, spec.ShelfLife.Days)
	}
	return err
}
