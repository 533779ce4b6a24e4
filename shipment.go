package shipmentcarbon

// Input columns recognised in a shipment table.
const (
	ColumnMode                   = "mode"
	ColumnDistanceKm             = "distance_km"
	ColumnWeightKg               = "weight_kg"
	ColumnMaterialType           = "material_type"
	ColumnManufacturingEnergyKWh = "manufacturing_energy_kwh"
	ColumnStage                  = "stage"
	ColumnOwnership              = "ownership"
)

// Computed columns appended to a shipment table.
const (
	ColumnTransportKgCO2     = "transport_kgCO2"
	ColumnMaterialKgCO2      = "material_kgCO2"
	ColumnManufacturingKgCO2 = "manufacturing_kgCO2"
	ColumnTotalKgCO2         = "total_kgCO2"
	ColumnScope              = "scope"
	ColumnScope1KgCO2        = "scope1_kgCO2"
	ColumnScope2KgCO2        = "scope2_kgCO2"
	ColumnScope3KgCO2        = "scope3_kgCO2"
)

// InputColumns lists the expected input columns in their canonical order.
var InputColumns = []string{
	ColumnMode,
	ColumnDistanceKm,
	ColumnWeightKg,
	ColumnMaterialType,
	ColumnManufacturingEnergyKWh,
	ColumnStage,
	ColumnOwnership,
}

// ComputedColumns lists the columns a pipeline run appends to every record.
var ComputedColumns = []string{
	ColumnTransportKgCO2,
	ColumnMaterialKgCO2,
	ColumnManufacturingKgCO2,
	ColumnTotalKgCO2,
	ColumnScope,
	ColumnScope1KgCO2,
	ColumnScope2KgCO2,
	ColumnScope3KgCO2,
}

// ShipmentRecord is one leg of a shipment as read from the input table.
type ShipmentRecord struct {
	// Mode is the transport category (truck, rail, ship, air, last_mile...)
	Mode string `json:"mode"`
	// DistanceKm travelled by the leg
	DistanceKm float64 `json:"distance_km"`
	// WeightKg of the cargo
	WeightKg float64 `json:"weight_kg"`
	// MaterialType of the cargo (metal, plastic, textile...)
	MaterialType string `json:"material_type"`
	// ManufacturingEnergyKWh consumed to produce the cargo
	ManufacturingEnergyKWh float64 `json:"manufacturing_energy_kwh"`
	// Stage is the logistics stage label (supplier_to_factory, owned_vehicle...)
	Stage string `json:"stage"`
	// Ownership optionally flags company owned transport
	Ownership string `json:"ownership"`
	// Extra holds unrecognised input columns, passed through untouched
	Extra map[string]string `json:"-"`
}

// ComputedRecord is a ShipmentRecord with its emissions and scope allocation.
type ComputedRecord struct {
	ShipmentRecord

	TransportKgCO2     float64 `json:"transport_kgCO2"`
	MaterialKgCO2      float64 `json:"material_kgCO2"`
	ManufacturingKgCO2 float64 `json:"manufacturing_kgCO2"`
	TotalKgCO2         float64 `json:"total_kgCO2"`

	// Scope is the informational GHG scope derived from the stage only. It is
	// not reconciled with the kg allocation below.
	Scope int `json:"scope"`

	Scope1KgCO2 float64 `json:"scope1_kgCO2"`
	Scope2KgCO2 float64 `json:"scope2_kgCO2"`
	Scope3KgCO2 float64 `json:"scope3_kgCO2"`
}

// Results is the computed table produced by one pipeline run.
type Results struct {
	// Preset applied during the run, empty when the active factors were used
	Preset  string
	Records []ComputedRecord
}

// ScopeTotals sums the scope allocation over a table.
type ScopeTotals struct {
	Scope1 float64 `json:"scope1_kgCO2"`
	Scope2 float64 `json:"scope2_kgCO2"`
	Scope3 float64 `json:"scope3_kgCO2"`
	Total  float64 `json:"total_kgCO2"`
}

// StageTotal is the total emissions of one logistics stage.
type StageTotal struct {
	Stage string  `json:"stage"`
	Kg    float64 `json:"kg"`
}

// Sensitivity is the outcome of running the same table under one preset.
type Sensitivity struct {
	Preset string `json:"preset"`
	ScopeTotals
}

// EmissionsSummary is the aggregate view over a computed table.
type EmissionsSummary struct {
	Total                float64        `json:"total_kgCO2"`
	Scopes               ScopeTotals    `json:"scope"`
	Stages               []StageTotal   `json:"stage_breakdown"`
	Hotspot              ComputedRecord `json:"hotspot"`
	Suggestion           string         `json:"suggestion"`
	ReductionShare       float64        `json:"reduction_share"`
	EstimatedReductionKg float64        `json:"estimated_reduction_kgCO2"`
}
