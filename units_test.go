package shipmentcarbon_test

import (
	"math"
	"testing"

	shipmentcarbon "github.com/lastlap/shipment-carbon"
	"github.com/stretchr/testify/assert"
)

func TestEmissionsConversions(t *testing.T) {
	e := shipmentcarbon.Emissions(250_000)
	assert.Equal(t, 250.0, e.KgCO2eq())
	assert.Equal(t, 0.25, e.TCO2eq())
}

func TestTonneKm(t *testing.T) {
	assert.Equal(t, 0.5, shipmentcarbon.Tonnes(500))
	assert.Equal(t, 500.0, shipmentcarbon.TonneKm(1000, 500))
	assert.Equal(t, 0.0, shipmentcarbon.TonneKm(0, 500))
}

func TestFinite(t *testing.T) {
	assert.Equal(t, 0.0, shipmentcarbon.Finite(math.NaN()))
	assert.Equal(t, 0.0, shipmentcarbon.Finite(math.Inf(1)))
	assert.Equal(t, 0.0, shipmentcarbon.Finite(math.Inf(-1)))
	assert.Equal(t, 1.5, shipmentcarbon.Finite(1.5))
}
