// Package emissions computes the emissions of shipment records and allocates
// them to GHG protocol scopes.
package emissions

import (
	shipmentcarbon "github.com/lastlap/shipment-carbon"
	"github.com/lastlap/shipment-carbon/model/factors"
)

// Components are the emissions of one record in kg CO2.
type Components struct {
	Transport     float64
	Material      float64
	Manufacturing float64
	Total         float64
}

// ComputeRow estimates the transport, material and manufacturing emissions
// of a record.
//
//	transport:     distance_km * weight_t * factor(mode) g/tkm, converted to kg
//	material:      factor(material_type) kg/kg * weight_kg
//	manufacturing: manufacturing_energy_kwh * grid kg/kWh
func ComputeRow(record shipmentcarbon.ShipmentRecord, f factors.Factors) Components {
	distance := shipmentcarbon.Finite(record.DistanceKm)
	weight := shipmentcarbon.Finite(record.WeightKg)
	energy := shipmentcarbon.Finite(record.ManufacturingEnergyKWh)

	transport := shipmentcarbon.Emissions(
		shipmentcarbon.TonneKm(distance, weight) * f.TransportFactor(record.Mode),
	).KgCO2eq()
	material := f.MaterialFactor(record.MaterialType) * weight
	manufacturing := energy * f.GridIntensity

	return Components{
		Transport:     transport,
		Material:      material,
		Manufacturing: manufacturing,
		Total:         transport + material + manufacturing,
	}
}
