package snapshot

// Table names
const (
	TableMovements = "movements"
	TableValidity  = "validity"
	TableSuppliers = "suppliers"
	TableTimeline  = "timeline"
)

// Canonical column names shared by every table
const (
	ColMaterial        = "material"
	ColDescription     = "description"
	ColLot             = "lot"
	ColPlant           = "plant"
	ColDepot           = "depot"
	ColQuantity        = "quantity"
	ColUnit            = "unit"
	ColMovementType    = "movement_type"
	ColSupplier        = "supplier"
	ColEntryDate       = "entry_date"
	ColManufactureDate = "manufacture_date"
	ColExpiry          = "expiry"
	ColShelfLife       = "shelf_life"
	ColAddedAt         = "added_at"
	ColFreeForUse      = "free_for_use"
	ColRestricted      = "restricted"
)

// Kind is the typed cell kind a column accepts
type Kind int

const (
	KindString Kind = iota
	KindDecimal
	KindDate
	KindShelfLife
)

// String method for Kind enum
func (k Kind) String() string {
	switch k {
	case KindString:
		return "text"
	case KindDecimal:
		return "number"
	case KindDate:
		return "date"
	case KindShelfLife:
		return "shelf life"
	default:
		return "unknown"
	}
}

// Column describes one schema column
type Column struct {
	Name     string
	Kind     Kind
	Required bool
}

// Schema is the strict column set of a source table
type Schema struct {
	Table   string
	Columns []Column
}

// Required returns the names of the required columns
func (s Schema) Required() []string {
	var names []string
	for _, c := range s.Columns {
		if c.Required {
			names = append(names, c.Name)
		}
	}
	return names
}

// Has reports whether the schema declares a column
func (s Schema) Has(name string) bool {
	for _, c := range s.Columns {
		if c.Name == name {
			return true
		}
	}
	return false
}

// MovementsSchema is the stock movement table
var MovementsSchema = Schema{
	Table: TableMovements,
	Columns: []Column{
		{Name: ColMaterial, Kind: KindString, Required: true},
		{Name: ColLot, Kind: KindString, Required: true},
		{Name: ColPlant, Kind: KindString, Required: true},
		{Name: ColDepot, Kind: KindString, Required: true},
		{Name: ColQuantity, Kind: KindDecimal, Required: true},
		{Name: ColEntryDate, Kind: KindDate, Required: true},
		{Name: ColDescription, Kind: KindString},
		{Name: ColUnit, Kind: KindString},
		{Name: ColMovementType, Kind: KindString},
		{Name: ColSupplier, Kind: KindString},
		{Name: ColManufactureDate, Kind: KindDate},
		{Name: ColExpiry, Kind: KindDate},
	},
}

// ValiditySchema is the lot validity table
var ValiditySchema = Schema{
	Table: TableValidity,
	Columns: []Column{
		{Name: ColMaterial, Kind: KindString, Required: true},
		{Name: ColLot, Kind: KindString, Required: true},
		{Name: ColExpiry, Kind: KindDate, Required: true},
		{Name: ColManufactureDate, Kind: KindDate},
		{Name: ColQuantity, Kind: KindDecimal},
	},
}

// SuppliersSchema is the supplier shelf-life specification table
var SuppliersSchema = Schema{
	Table: TableSuppliers,
	Columns: []Column{
		{Name: ColMaterial, Kind: KindString, Required: true},
		{Name: ColShelfLife, Kind: KindShelfLife, Required: true},
		{Name: ColSupplier, Kind: KindString},
		{Name: ColAddedAt, Kind: KindDate},
	},
}

// TimelineSchema is the optional expiry timeline extract
var TimelineSchema = Schema{
	Table: TableTimeline,
	Columns: []Column{
		{Name: ColMaterial, Kind: KindString, Required: true},
		{Name: ColLot, Kind: KindString, Required: true},
		{Name: ColPlant, Kind: KindString, Required: true},
		{Name: ColDepot, Kind: KindString, Required: true},
		{Name: ColExpiry, Kind: KindDate, Required: true},
		{Name: ColFreeForUse, Kind: KindDecimal, Required: true},
		{Name: ColDescription, Kind: KindString},
		{Name: ColManufactureDate, Kind: KindDate},
		{Name: ColRestricted, Kind: KindDecimal},
	},
}

// Schemas returns every schema keyed by table name
func Schemas() map[string]Schema {
	return map[string]Schema{
		TableMovements: MovementsSchema,
		TableValidity:  ValiditySchema,
		TableSuppliers: SuppliersSchema,
		TableTimeline:  TimelineSchema,
	}
}
