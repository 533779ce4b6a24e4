package emissions_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	shipmentcarbon "github.com/lastlap/shipment-carbon"
	"github.com/lastlap/shipment-carbon/model/emissions"
	"github.com/lastlap/shipment-carbon/model/factors"
	"github.com/lastlap/shipment-carbon/model/insight"
)

func testTable() []shipmentcarbon.ShipmentRecord {
	return []shipmentcarbon.ShipmentRecord{
		{Mode: "air", DistanceKm: 1000, WeightKg: 500, MaterialType: "metal", Stage: "supplier_to_factory"},
		{Mode: "truck", DistanceKm: 300, WeightKg: 2000, MaterialType: "plastic", Stage: "owned_vehicle", Extra: map[string]string{"sku": "A-1"}},
		{Mode: "ship", DistanceKm: 9000, WeightKg: 10000, MaterialType: "textile", ManufacturingEnergyKWh: 1200, Stage: "manufacturing"},
		{Mode: "blimp", DistanceKm: 100, WeightKg: 1000, MaterialType: "food", Stage: "warehouse_to_retail_center", Ownership: "company"},
	}
}

func TestPipelineRun(t *testing.T) {
	registry := factors.NewRegistry()
	pipeline := emissions.NewPipeline(registry)
	table := testTable()

	results, err := pipeline.Run(table, "")
	require.NoError(t, err)
	require.Len(t, results.Records, len(table))
	assert.Equal(t, "", results.Preset)

	for i, r := range results.Records {
		assert.Equal(t, table[i], r.ShipmentRecord)
		assert.InDelta(t, r.TransportKgCO2+r.MaterialKgCO2+r.ManufacturingKgCO2, r.TotalKgCO2, 1e-9)
		assert.InDelta(t, r.TotalKgCO2, r.Scope1KgCO2+r.Scope2KgCO2+r.Scope3KgCO2, 1e-9)
	}

	assert.InDelta(t, 3250.0, results.Records[0].TotalKgCO2, 1e-9)
	assert.Equal(t, "A-1", results.Records[1].Extra["sku"])
	assert.InDelta(t, results.Records[1].TransportKgCO2, results.Records[1].Scope1KgCO2, 1e-9)
	assert.InDelta(t, 6.2, results.Records[3].TransportKgCO2, 1e-9)
}

func TestPipelineRunWithPresetRestoresRegistry(t *testing.T) {
	registry := factors.NewRegistry()
	pipeline := emissions.NewPipeline(registry)
	before := registry.Factors()

	results, err := pipeline.Run(testTable(), "Electronics")
	require.NoError(t, err)
	assert.Equal(t, "Electronics", results.Preset)
	assert.InDelta(t, 250.0+8.5*500, results.Records[0].TotalKgCO2, 1e-9)

	assert.Equal(t, before, registry.Factors())
}

func TestPipelineRunUnknownPreset(t *testing.T) {
	registry := factors.NewRegistry()
	pipeline := emissions.NewPipeline(registry)
	before := registry.Factors()

	results, err := pipeline.Run(testTable(), "aerospace")
	assert.Nil(t, results)
	assert.ErrorIs(t, err, shipmentcarbon.ErrUnknownPreset)

	presetErr := new(shipmentcarbon.UnknownPresetError)
	assert.True(t, errors.As(err, &presetErr))
	assert.Equal(t, "aerospace", presetErr.Name)

	assert.Equal(t, before, registry.Factors())
}

func TestPipelineRunEmptyTable(t *testing.T) {
	pipeline := emissions.NewPipeline(factors.NewRegistry())

	results, err := pipeline.Run(nil, "apparel")
	require.NoError(t, err)
	assert.Empty(t, results.Records)

	_, err = insight.Hotspot(results)
	assert.ErrorIs(t, err, shipmentcarbon.ErrEmptyTable)
}

func TestCompareAll(t *testing.T) {
	registry := factors.NewRegistry()
	pipeline := emissions.NewPipeline(registry, emissions.WithSweepLimit(2))
	table := testTable()
	before := registry.Factors()

	primary, err := pipeline.Run(table, "")
	require.NoError(t, err)
	primaryTotals, err := insight.ByScope(primary)
	require.NoError(t, err)

	sweep, err := pipeline.CompareAll(context.Background(), table)
	require.NoError(t, err)
	require.Len(t, sweep, len(pipeline.ListPresets()))

	for i, preset := range pipeline.ListPresets() {
		assert.Equal(t, preset, sweep[i].Preset)

		single, err := pipeline.Run(table, preset)
		require.NoError(t, err)
		totals, err := insight.ByScope(single)
		require.NoError(t, err)
		assert.InDelta(t, totals.Total, sweep[i].Total, 1e-9, preset)
		assert.InDelta(t, sweep[i].Total, sweep[i].Scope1+sweep[i].Scope2+sweep[i].Scope3, 1e-6, preset)
	}

	assert.Equal(t, primaryTotals, sweep[0].ScopeTotals, "baseline sweep matches the untouched registry")

	again, err := insight.ByScope(primary)
	require.NoError(t, err)
	assert.Equal(t, primaryTotals, again)
	assert.Equal(t, before, registry.Factors())
}

func TestCompareAllCancelled(t *testing.T) {
	pipeline := emissions.NewPipeline(factors.NewRegistry())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := pipeline.CompareAll(ctx, testTable())
	assert.ErrorIs(t, err, context.Canceled)
}
