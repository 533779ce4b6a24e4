package shipmentcarbon

import (
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"
	"strings"
)

// Metric holds one emissions measurement and its labels.
type Metric struct {
	Name   string
	Labels map[string]string
	Value  float64
}

// Clone return a deep copy of a metric.
func (m Metric) Clone() Metric {
	copiedLabel := make(map[string]string, len(m.Labels))
	maps.Copy(copiedLabel, m.Labels)
	return Metric{
		Name:   m.Name,
		Value:  m.Value,
		Labels: copiedLabel,
	}
}

func (m *Metric) AddLabel(key, value string) *Metric {
	m.Labels = MergeLabels(
		m.Labels,
		map[string]string{
			key: value,
		},
	)
	return m
}

func (m *Metric) SanitizeLabels() *Metric {
	newLabels := make(map[string]string)
	invalidChars := []string{".", "/", "-", ":", ";", " "}
	for label, value := range m.Labels {
		for _, char := range invalidChars {
			label = strings.ReplaceAll(label, char, "_")
		}
		newLabels[label] = strings.ReplaceAll(value, `"`, `\"`)
	}
	m.Labels = newLabels
	return m
}

// MergeLabels merges label sets from left to right, skipping empty values.
func MergeLabels(labels ...map[string]string) map[string]string {
	result := make(map[string]string)
	for _, l := range labels {
		for k, v := range l {
			if v == "" {
				continue
			}
			result[k] = v
		}
	}
	return result
}

// SummaryMetrics converts a summary into emissions metrics labelled with preset.
func SummaryMetrics(preset string, summary EmissionsSummary) []*Metric {
	if preset == "" {
		preset = "active"
	}
	base := map[string]string{"preset": preset}

	metrics := make([]*Metric, 0, 5+len(summary.Stages))
	scopeMetric := Metric{Name: "shipment_emissions_kgCO2", Labels: base}
	for scope, value := range map[string]float64{
		"scope1": summary.Scopes.Scope1,
		"scope2": summary.Scopes.Scope2,
		"scope3": summary.Scopes.Scope3,
		"total":  summary.Total,
	} {
		m := scopeMetric.Clone()
		m.Value = value
		metrics = append(metrics, m.AddLabel("scope", scope))
	}

	for _, stage := range summary.Stages {
		metrics = append(metrics, &Metric{
			Name:   "shipment_stage_emissions_kgCO2",
			Labels: MergeLabels(base, map[string]string{"stage": stage.Stage}),
			Value:  stage.Kg,
		})
	}

	metrics = append(metrics, &Metric{
		Name:   "shipment_estimated_reduction_kgCO2",
		Labels: MergeLabels(base, map[string]string{"mode": summary.Hotspot.Mode, "stage": summary.Hotspot.Stage}),
		Value:  summary.EstimatedReductionKg,
	})

	return metrics
}

// SensitivityMetrics converts a preset sweep into metrics.
func SensitivityMetrics(sweep []Sensitivity) []*Metric {
	metrics := make([]*Metric, 0, len(sweep)*4)
	for _, s := range sweep {
		presetMetric := Metric{Name: "shipment_sensitivity_kgCO2", Labels: map[string]string{"preset": s.Preset}}
		for scope, value := range map[string]float64{
			"scope1": s.Scope1,
			"scope2": s.Scope2,
			"scope3": s.Scope3,
			"total":  s.Total,
		} {
			m := presetMetric.Clone()
			m.Value = value
			metrics = append(metrics, m.AddLabel("scope", scope))
		}
	}
	return metrics
}

// WriteMetrics writes all metrics in the OpenMetrics text format. Lines are
// sorted so that the output is stable.
func WriteMetrics(w io.Writer, metrics []*Metric) error {
	lines := make([]string, 0, len(metrics))
	for _, metric := range metrics {
		if metric == nil {
			slog.Warn("discarding nil metric")
			continue
		}
		lines = append(lines, formatMetric(metric))
	}
	slices.SortFunc(lines, strings.Compare)

	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return fmt.Errorf("failed to write metric on writer: %w", err)
		}
	}
	return nil
}

func formatMetric(metric *Metric) string {
	metric = metric.SanitizeLabels()

	// sort labels in lexicographical order
	labels := make([]string, 0, len(metric.Labels))
	for labelName, labelValue := range metric.Labels {
		labels = append(labels, fmt.Sprintf(`%s="%s"`, labelName, labelValue))
	}
	slices.SortFunc(labels, strings.Compare)

	return fmt.Sprintf("%s{%s} %0.10f", metric.Name, strings.Join(labels, ","), metric.Value)
}
