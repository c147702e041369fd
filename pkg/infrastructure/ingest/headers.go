package ingest

import (
	"slices"
	"strings"

	"github.com/vsinha/shelfwatch/pkg/application/services/snapshot"
	"github.com/vsinha/shelfwatch/pkg/domain/services"
)

// headerAliases maps normalized source headers to schema columns, per table.
// Exact aliases are tried before the substring fallbacks.
type headerAliases struct {
	exact    map[string]string
	contains []containsAlias
}

type containsAlias struct {
	fragment string
	column   string
}

var aliases = map[string]headerAliases{
	snapshot.TableMovements: {
		exact: map[string]string{
			"data de entrada":    snapshot.ColEntryDate,
			"entry date":         snapshot.ColEntryDate,
			"posting date":       snapshot.ColEntryDate,
			"deposito":           snapshot.ColDepot,
			"depot":              snapshot.ColDepot,
			"storage location":   snapshot.ColDepot,
			"material":           snapshot.ColMaterial,
			"matnr":              snapshot.ColMaterial,
			"descricao":          snapshot.ColDescription,
			"description":        snapshot.ColDescription,
			"texto breve":        snapshot.ColDescription,
			"lote":               snapshot.ColLot,
			"batch":              snapshot.ColLot,
			"lot":                snapshot.ColLot,
			"quantidade":         snapshot.ColQuantity,
			"quantity":           snapshot.ColQuantity,
			"qtd":                snapshot.ColQuantity,
			"um":                 snapshot.ColUnit,
			"unit":               snapshot.ColUnit,
			"unidade":            snapshot.ColUnit,
			"movimento":          snapshot.ColMovementType,
			"tipo de movimento":  snapshot.ColMovementType,
			"movement type":      snapshot.ColMovementType,
			"planta":             snapshot.ColPlant,
			"plant":              snapshot.ColPlant,
			"centro":             snapshot.ColPlant,
			"fornecedor":         snapshot.ColSupplier,
			"supplier":           snapshot.ColSupplier,
			"data de fabricacao": snapshot.ColManufactureDate,
			"manufacture date":   snapshot.ColManufactureDate,
			"production date":    snapshot.ColManufactureDate,
			"data de vencimento": snapshot.ColExpiry,
			"expiry":             snapshot.ColExpiry,
			"expiration date":    snapshot.ColExpiry,
		},
	},
	snapshot.TableValidity: {
		exact: map[string]string{
			"material": snapshot.ColMaterial,
			"lote":     snapshot.ColLot,
			"batch":    snapshot.ColLot,
		},
		contains: []containsAlias{
			{fragment: "lote", column: snapshot.ColLot},
			{fragment: "batch", column: snapshot.ColLot},
			{fragment: "material", column: snapshot.ColMaterial},
			{fragment: "matnr", column: snapshot.ColMaterial},
			{fragment: "fabric", column: snapshot.ColManufactureDate},
			{fragment: "produc", column: snapshot.ColManufactureDate},
			{fragment: "venc", column: snapshot.ColExpiry},
			{fragment: "valid", column: snapshot.ColExpiry},
			{fragment: "expir", column: snapshot.ColExpiry},
			{fragment: "quant", column: snapshot.ColQuantity},
			{fragment: "qtd", column: snapshot.ColQuantity},
		},
	},
	snapshot.TableSuppliers: {
		exact: map[string]string{
			"material":          snapshot.ColMaterial,
			"fornecedor":        snapshot.ColSupplier,
			"supplier":          snapshot.ColSupplier,
			"tempo de validade": snapshot.ColShelfLife,
			"shelf life":        snapshot.ColShelfLife,
			"validade":          snapshot.ColShelfLife,
			"data de inclusao":  snapshot.ColAddedAt,
			"adicionado em":     snapshot.ColAddedAt,
			"added at":          snapshot.ColAddedAt,
		},
	},
	snapshot.TableTimeline: {
		exact: map[string]string{
			"planta":          snapshot.ColPlant,
			"plant":           snapshot.ColPlant,
			"deposito":        snapshot.ColDepot,
			"depot":           snapshot.ColDepot,
			"material number": snapshot.ColMaterial,
			"batch":           snapshot.ColLot,
			"lote":            snapshot.ColLot,
			"expiration date": snapshot.ColExpiry,
			"production date": snapshot.ColManufactureDate,
			"free for use":    snapshot.ColFreeForUse,
			"restricted":      snapshot.ColRestricted,
		},
	},
}

// normalizeHeader folds case and accents and treats underscores as spaces
func normalizeHeader(header string) string {
	return services.NormalizeLabel(strings.ReplaceAll(header, "_", " "))
}

// ResolveHeaders maps header positions to schema columns for a table.
// Canonical column names always match; the first header claiming a column
// wins and unrecognised headers are dropped.
func ResolveHeaders(table string, headers []string) map[int]string {
	schema, ok := snapshot.Schemas()[table]
	if !ok {
		return nil
	}
	canonical := make(map[string]string, len(schema.Columns))
	for _, col := range schema.Columns {
		canonical[normalizeHeader(col.Name)] = col.Name
	}
	tableAliases := aliases[table]

	normalized := make([]string, len(headers))
	for pos, header := range headers {
		normalized[pos] = normalizeHeader(header)
	}

	// The SAP expiry extract names the code "Material Number" and the
	// description "Material"
	overrides := map[string]string{}
	if table == snapshot.TableTimeline && slices.Contains(normalized, "material number") {
		overrides["material"] = snapshot.ColDescription
	}

	resolved := make(map[int]string, len(headers))
	claimed := make(map[string]bool, len(headers))
	claim := func(pos int, column string) bool {
		if column == "" || claimed[column] {
			return false
		}
		claimed[column] = true
		resolved[pos] = column
		return true
	}

	// Exact matches first so a substring rule never steals a column
	pending := make([]int, 0, len(headers))
	for pos, h := range normalized {
		if h == "" {
			continue
		}
		if column, ok := overrides[h]; ok && claim(pos, column) {
			continue
		}
		if column, ok := canonical[h]; ok && claim(pos, column) {
			continue
		}
		if column, ok := tableAliases.exact[h]; ok && claim(pos, column) {
			continue
		}
		pending = append(pending, pos)
	}

	for _, pos := range pending {
		h := normalized[pos]
		for _, alias := range tableAliases.contains {
			if strings.Contains(h, alias.fragment) && claim(pos, alias.column) {
				break
			}
		}
	}
	return resolved
}
