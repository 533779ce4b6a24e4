package shipmentcarbon

import "math"

// Emissions in gCO2eq
type Emissions float64

func (e Emissions) KgCO2eq() float64 {
	return float64(e) / 1000
}

func (e Emissions) TCO2eq() float64 {
	return e.KgCO2eq() / 1000
}

// Tonnes converts a weight in kilograms to metric tonnes.
func Tonnes(weightKg float64) float64 {
	return weightKg / 1000
}

// TonneKm is the freight activity of moving weightKg over distanceKm.
func TonneKm(distanceKm, weightKg float64) float64 {
	return distanceKm * Tonnes(weightKg)
}

// Finite replaces NaN and infinite values by zero.
func Finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
