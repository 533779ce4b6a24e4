package emissions

import (
	"math"

	shipmentcarbon "github.com/lastlap/shipment-carbon"
	"github.com/lastlap/shipment-carbon/model/factors"
)

// DefaultScope is the informational scope of unmapped stages.
const DefaultScope = 3

// stageScopes maps logistics stages to their informational GHG scope.
var stageScopes = map[string]int{
	"on_site_combustion":            1,
	"owned_vehicle":                 1,
	"manufacturing":                 2,
	"warehouse_energy":              2,
	"supplier_to_factory":           3,
	"factory_to_domestic_port":      3,
	"domestic_port_to_foreign_port": 3,
	"foreign_port_to_warehouse":     3,
	"warehouse_to_retail_center":    3,
	"employee_commute":              3,
	"advertising":                   3,
}

var (
	directStages = map[string]bool{
		"on_site_combustion": true,
		"owned_vehicle":      true,
	}
	ownedMarkers = map[string]bool{
		"owned":         true,
		"company":       true,
		"company_owned": true,
		"own":           true,
	}
	ownedFleetModes = map[string]bool{
		"company_van":   true,
		"owned_van":     true,
		"company_truck": true,
	}
)

// StageScope returns the informational scope of a stage.
func StageScope(stage string) int {
	if scope, found := stageScopes[factors.Key(stage)]; found {
		return scope
	}
	return DefaultScope
}

// IsDirectTransport reports whether the transport of a record is company
// operated, and therefore scope 1.
func IsDirectTransport(record shipmentcarbon.ShipmentRecord) bool {
	return directStages[factors.Key(record.Stage)] ||
		ownedMarkers[factors.Key(record.Ownership)] ||
		ownedFleetModes[factors.Key(record.Mode)]
}

// Allocate computes the components of a record and splits its total into
// scopes. Scope 3 absorbs any drift so that the three scopes always sum to
// the total.
func Allocate(record shipmentcarbon.ShipmentRecord, f factors.Factors) shipmentcarbon.ComputedRecord {
	components := ComputeRow(record, f)

	computed := shipmentcarbon.ComputedRecord{
		ShipmentRecord:     record,
		TransportKgCO2:     components.Transport,
		MaterialKgCO2:      components.Material,
		ManufacturingKgCO2: components.Manufacturing,
		TotalKgCO2:         components.Total,
		Scope:              StageScope(record.Stage),
	}

	computed.Scope2KgCO2 = components.Manufacturing
	if IsDirectTransport(record) {
		computed.Scope1KgCO2 = components.Transport
	}
	computed.Scope3KgCO2 = math.Max(0, components.Material+(components.Transport-computed.Scope1KgCO2))

	Reconcile(&computed)
	return computed
}

// Reconcile moves the difference between the total and the scope sum into
// scope 3.
func Reconcile(record *shipmentcarbon.ComputedRecord) {
	diff := record.TotalKgCO2 - (record.Scope1KgCO2 + record.Scope2KgCO2 + record.Scope3KgCO2)
	record.Scope3KgCO2 += diff
}
