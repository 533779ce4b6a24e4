package report

import (
	"fmt"
	"io"
	"text/tabwriter"

	shipmentcarbon "github.com/lastlap/shipment-carbon"
)

const tabwriterPadding = 2

// Text writes a plain text report of summary. sweep may be nil.
func Text(w io.Writer, preset string, records int, summary shipmentcarbon.EmissionsSummary, sweep []shipmentcarbon.Sensitivity) error {
	if preset == "" {
		preset = "active factors"
	}

	tw := tabwriter.NewWriter(w, 0, 0, tabwriterPadding, ' ', 0)

	fmt.Fprintf(tw, "Shipment emissions (%s)\n\n", preset)
	fmt.Fprintf(tw, "Records\t%d\n", records)
	fmt.Fprintf(tw, "Total\t%s\t(%s tCO2e)\n", FormatKg(summary.Total), FormatFloat(shipmentcarbon.Tonnes(summary.Total), 3))
	fmt.Fprintf(tw, "Scope 1\t%s\n", FormatKg(summary.Scopes.Scope1))
	fmt.Fprintf(tw, "Scope 2\t%s\n", FormatKg(summary.Scopes.Scope2))
	fmt.Fprintf(tw, "Scope 3\t%s\n", FormatKg(summary.Scopes.Scope3))

	if len(summary.Stages) > 0 {
		fmt.Fprintf(tw, "\nStage\tEmissions\n")
		for _, stage := range summary.Stages {
			name := stage.Stage
			if name == "" {
				name = "(none)"
			}
			fmt.Fprintf(tw, "%s\t%s\n", name, FormatKg(stage.Kg))
		}
	}

	hotspot := summary.Hotspot
	fmt.Fprintf(tw, "\nHotspot\tmode=%s material=%s stage=%s\t%s\n", hotspot.Mode, hotspot.MaterialType, hotspot.Stage, FormatKg(hotspot.TotalKgCO2))
	fmt.Fprintf(tw, "Suggestion\t%s\n", summary.Suggestion)
	fmt.Fprintf(tw, "Estimated reduction\t%s\t(%s of hotspot)\n", FormatKg(summary.EstimatedReductionKg), FormatPercent(summary.ReductionShare))

	if len(sweep) > 0 {
		fmt.Fprintf(tw, "\nPreset\tTotal\tScope 1\tScope 2\tScope 3\n")
		for _, s := range sweep {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", s.Preset,
				FormatFloat(s.Total, 2), FormatFloat(s.Scope1, 2), FormatFloat(s.Scope2, 2), FormatFloat(s.Scope3, 2))
		}
	}

	return tw.Flush()
}
