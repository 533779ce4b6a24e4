package insight

import (
	"strings"

	shipmentcarbon "github.com/lastlap/shipment-carbon"
)

// longHaulTruckKm is the distance above which a truck leg is worth shifting.
const longHaulTruckKm = 500

const (
	SuggestionAirFreight = "High-impact: move air freight to sea/rail where possible for long distances."
	SuggestionLongHaul   = "High-distance trucking: consider shifting long legs to rail/ship or consolidate shipments."
	SuggestionRouting    = "Optimize routing and consolidate shipments to reduce transport emissions."
	SuggestionPlastic    = "Material hotspot: evaluate recycled plastic or redesign packaging to reduce plastic mass."
	SuggestionLowCarbon  = "Material hotspot: consider lower-carbon material or higher recycled content."
	SuggestionFood       = "Food product: review sourcing, refrigeration and waste to cut emissions."
	SuggestionMaterial   = "Material hotspot: consider alternative materials, recycled content, or weight reduction."
	SuggestionGeneral    = "General: optimize routing, consolidate shipments, and reduce material weight where feasible."
)

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Suggest returns a reduction advice for a hotspot record. Rules are
// evaluated in order and the first match wins: air freight and long
// trucking legs take precedence over material advice.
func Suggest(record shipmentcarbon.ComputedRecord) string {
	mode := normalize(record.Mode)
	materialType := normalize(record.MaterialType)
	transport := record.TransportKgCO2
	material := record.MaterialKgCO2

	switch {
	case mode == "air":
		return SuggestionAirFreight
	case mode == "truck" && record.DistanceKm > longHaulTruckKm:
		return SuggestionLongHaul
	case transport > material && (mode == "truck" || mode == "last_mile"):
		return SuggestionRouting
	case material >= transport:
		switch materialType {
		case "plastic":
			return SuggestionPlastic
		case "textile", "metal":
			return SuggestionLowCarbon
		case "food":
			return SuggestionFood
		}
		return SuggestionMaterial
	}

	return SuggestionGeneral
}

// ReductionShare returns the share of a hotspot total that can reasonably be
// cut.
func ReductionShare(record shipmentcarbon.ComputedRecord) float64 {
	switch mode := normalize(record.Mode); {
	case mode == "air":
		return 0.60
	case mode == "truck":
		return 0.30
	case record.MaterialKgCO2 > record.TotalKgCO2*0.4:
		return 0.25
	}
	return 0.10
}

// EstimateReduction returns the kg CO2 a hotspot record could save.
func EstimateReduction(record shipmentcarbon.ComputedRecord) float64 {
	return record.TotalKgCO2 * ReductionShare(record)
}
