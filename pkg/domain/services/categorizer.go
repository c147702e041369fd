package services

import (
	"fmt"

	"github.com/vsinha/shelfwatch/pkg/domain/entities"
)

// CategoryRule assigns a category to records held at given locations or
// carrying given movement types
type CategoryRule struct {
	Category      entities.Category
	Locations     []entities.Location
	MovementTypes []string
}

// Matches reports whether the rule applies to a record. A movement type rule
// matches when any movement folded into the record carries that type.
func (r CategoryRule) Matches(record entities.MaterialRecord) bool {
	for _, loc := range r.Locations {
		if loc == record.Key.Location {
			return true
		}
	}
	for _, mt := range r.MovementTypes {
		if record.HasMovementType(mt) {
			return true
		}
	}
	return false
}

// DefaultCategoryRules returns the scrap and logistics transfer rules for plants 4400 and 4401
func DefaultCategoryRules() []CategoryRule {
	return []CategoryRule{
		{
			Category: entities.CategoryScrap,
			Locations: []entities.Location{
				{Plant: "4400", Depot: "9990"},
				{Plant: "4400", Depot: "9991"},
				{Plant: "4400", Depot: "9992"},
				{Plant: "4400", Depot: "9999"},
				{Plant: "4401", Depot: "9991"},
				{Plant: "4401", Depot: "9999"},
			},
			MovementTypes: []string{"551"},
		},
		{
			Category: entities.CategoryLogisticsTransfer,
			Locations: []entities.Location{
				{Plant: "4400", Depot: "9998"},
				{Plant: "4401", Depot: "9998"},
			},
		},
	}
}

// Categorizer evaluates category rules in order; the first match wins
type Categorizer struct {
	rules []CategoryRule
}

// NewCategorizer creates a categorizer from an ordered rule list
func NewCategorizer(rules []CategoryRule) (*Categorizer, error) {
	for i, rule := range rules {
		if rule.Category == entities.CategoryNormal {
			return nil, fmt.Errorf("rule %d: NORMAL is the fallback category and cannot be assigned by a rule", i)
		}
		if len(rule.Locations) == 0 && len(rule.MovementTypes) == 0 {
			return nil, fmt.Errorf("rule %d (%s) matches nothing", i, rule.Category)
		}
	}

	copied := make([]CategoryRule, len(rules))
	copy(copied, rules)
	return &Categorizer{rules: copied}, nil
}

// Categorize returns the category of a record, NORMAL when no rule matches
func (c *Categorizer) Categorize(record entities.MaterialRecord) entities.Category {
	for _, rule := range c.rules {
		if rule.Matches(record) {
			return rule.Category
		}
	}
	return entities.CategoryNormal
}
