package shipmentcarbon

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeLabels(t *testing.T) {
	m := Metric{
		Name: "foo",
		Labels: map[string]string{
			"stage.name":     "owned_vehicle",
			"material/type":  "metal",
			"preset-name":    `a"b`,
			"warehouse zone": "",
		},
		Value: 1.0,
	}

	assert.Equal(t, map[string]string{
		"stage_name":     "owned_vehicle",
		"material_type":  "metal",
		"preset_name":    `a\"b`,
		"warehouse_zone": "",
	}, m.SanitizeLabels().Labels)
}

func TestMergeLabels(t *testing.T) {
	merged := MergeLabels(
		map[string]string{"preset": "baseline", "scope": "scope1"},
		map[string]string{"scope": "scope3", "stage": ""},
	)
	assert.Equal(t, map[string]string{"preset": "baseline", "scope": "scope3"}, merged)
}

func TestWriteMetrics(t *testing.T) {
	buf := new(bytes.Buffer)
	err := WriteMetrics(buf, []*Metric{
		{Name: "shipment_emissions_kgCO2", Labels: map[string]string{"scope": "total", "preset": "baseline"}, Value: 3250},
		nil,
		{Name: "shipment_emissions_kgCO2", Labels: map[string]string{"scope": "scope1", "preset": "baseline"}, Value: 250},
	})
	require.NoError(t, err)

	assert.Equal(t,
		"shipment_emissions_kgCO2{preset=\"baseline\",scope=\"scope1\"} 250.0000000000\n"+
			"shipment_emissions_kgCO2{preset=\"baseline\",scope=\"total\"} 3250.0000000000\n",
		buf.String())
}

func TestSummaryMetrics(t *testing.T) {
	summary := EmissionsSummary{
		Total:  10,
		Scopes: ScopeTotals{Scope1: 1, Scope2: 2, Scope3: 7, Total: 10},
		Stages: []StageTotal{{Stage: "owned_vehicle", Kg: 6}, {Stage: "manufacturing", Kg: 4}},
		Hotspot: ComputedRecord{
			ShipmentRecord: ShipmentRecord{Mode: "truck", Stage: "owned_vehicle"},
		},
		EstimatedReductionKg: 1.8,
	}

	metrics := SummaryMetrics("", summary)
	assert.Len(t, metrics, 7)

	values := make(map[string]float64)
	for _, m := range metrics {
		assert.Equal(t, "active", m.Labels["preset"])
		values[m.Name+"/"+m.Labels["scope"]+m.Labels["stage"]] = m.Value
	}
	assert.Equal(t, 1.0, values["shipment_emissions_kgCO2/scope1"])
	assert.Equal(t, 10.0, values["shipment_emissions_kgCO2/total"])
	assert.Equal(t, 4.0, values["shipment_stage_emissions_kgCO2/manufacturing"])
	assert.Equal(t, 1.8, values["shipment_estimated_reduction_kgCO2/owned_vehicle"])
}

func TestSensitivityMetrics(t *testing.T) {
	metrics := SensitivityMetrics([]Sensitivity{
		{Preset: "baseline", ScopeTotals: ScopeTotals{Total: 3}},
		{Preset: "apparel", ScopeTotals: ScopeTotals{Total: 5}},
	})
	assert.Len(t, metrics, 8)

	scopes := make(map[string]int)
	for _, m := range metrics {
		scopes[m.Labels["preset"]+"/"+m.Labels["scope"]]++
	}
	assert.Len(t, scopes, 8, "every metric carries its own label set")
}

func TestMetricClone(t *testing.T) {
	m := Metric{Name: "foo", Labels: map[string]string{"preset": "baseline"}, Value: 1}
	cloned := m.Clone()
	cloned.AddLabel("scope", "scope1")

	assert.Equal(t, map[string]string{"preset": "baseline"}, m.Labels)
	assert.Equal(t, map[string]string{"preset": "baseline", "scope": "scope1"}, cloned.Labels)
}
