package services

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/vsinha/shelfwatch/pkg/domain/entities"
)

// ShelfLifeParser turns free-text durations such as "12 meses" or "2 years" into unit-tagged values
type ShelfLifeParser struct {
	numberPattern *regexp.Regexp
	wordPattern   *regexp.Regexp
}

// NewShelfLifeParser creates a parser for Portuguese and English duration labels
func NewShelfLifeParser() *ShelfLifeParser {
	return &ShelfLifeParser{
		numberPattern: regexp.MustCompile(`[-+]?\d+(\.\d+)?`),
		wordPattern:   regexp.MustCompile(`[a-z]+`),
	}
}

// Parse reads a duration label. A bare number is read as days.
func (p *ShelfLifeParser) Parse(raw string) (*entities.ShelfLife, error) {
	s := strings.ReplaceAll(NormalizeLabel(raw), ",", ".")
	if s == "" {
		return nil, fmt.Errorf("empty shelf life")
	}

	number := p.numberPattern.FindString(s)
	if number == "" {
		return nil, fmt.Errorf("shelf life %q has no numeric value", raw)
	}
	value, err := decimal.NewFromString(number)
	if err != nil {
		return nil, fmt.Errorf("shelf life %q: %w", raw, err)
	}

	unit, err := p.unitOf(s)
	if err != nil {
		return nil, fmt.Errorf("shelf life %q: %w", raw, err)
	}

	return entities.NewShelfLife(value, unit)
}

// unitOf finds the first recognised unit word in a normalized label
func (p *ShelfLifeParser) unitOf(s string) (entities.DurationUnit, error) {
	words := p.wordPattern.FindAllString(s, -1)
	if len(words) == 0 {
		return entities.UnitDays, nil
	}

	for _, word := range words {
		if unit, ok := ParseDurationUnit(word); ok {
			return unit, nil
		}
	}
	return entities.UnitDays, fmt.Errorf("unrecognised unit %q", strings.Join(words, " "))
}

// ParseDurationUnit maps a normalized unit word to a DurationUnit
func ParseDurationUnit(word string) (entities.DurationUnit, bool) {
	switch {
	case word == "d" || strings.HasPrefix(word, "dia") || strings.HasPrefix(word, "day"):
		return entities.UnitDays, true
	case word == "w" || word == "sem" || strings.HasPrefix(word, "semana") || strings.HasPrefix(word, "week"):
		return entities.UnitWeeks, true
	case word == "m" || word == "mo" || strings.HasPrefix(word, "mes") || strings.HasPrefix(word, "month"):
		return entities.UnitMonths, true
	case word == "a" || word == "y" || word == "yr" || strings.HasPrefix(word, "ano") || strings.HasPrefix(word, "year"):
		return entities.UnitYears, true
	default:
		return entities.UnitDays, false
	}
}
