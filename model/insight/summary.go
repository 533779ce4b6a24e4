// Package insight aggregates computed shipment tables and points at the
// records worth reducing first.
package insight

import (
	"cmp"
	"slices"

	"gonum.org/v1/gonum/floats"

	shipmentcarbon "github.com/lastlap/shipment-carbon"
)

func column(results *shipmentcarbon.Results, value func(r shipmentcarbon.ComputedRecord) float64) []float64 {
	values := make([]float64, len(results.Records))
	for i, record := range results.Records {
		values[i] = value(record)
	}
	return values
}

func requireComputed(results *shipmentcarbon.Results, col string) error {
	if results == nil {
		return &shipmentcarbon.MissingColumnError{Column: col}
	}
	return nil
}

// Total returns the grand total emissions of a computed table.
func Total(results *shipmentcarbon.Results) (float64, error) {
	if err := requireComputed(results, shipmentcarbon.ColumnTotalKgCO2); err != nil {
		return 0, err
	}
	return floats.Sum(column(results, func(r shipmentcarbon.ComputedRecord) float64 { return r.TotalKgCO2 })), nil
}

// ByStage returns the total emissions of every stage, largest first.
func ByStage(results *shipmentcarbon.Results) ([]shipmentcarbon.StageTotal, error) {
	if err := requireComputed(results, shipmentcarbon.ColumnTotalKgCO2); err != nil {
		return nil, err
	}

	index := make(map[string]int)
	stages := make([]shipmentcarbon.StageTotal, 0)
	for _, record := range results.Records {
		i, found := index[record.Stage]
		if !found {
			i = len(stages)
			index[record.Stage] = i
			stages = append(stages, shipmentcarbon.StageTotal{Stage: record.Stage})
		}
		stages[i].Kg += record.TotalKgCO2
	}

	slices.SortStableFunc(stages, func(a, b shipmentcarbon.StageTotal) int {
		if c := cmp.Compare(b.Kg, a.Kg); c != 0 {
			return c
		}
		return cmp.Compare(a.Stage, b.Stage)
	})
	return stages, nil
}

// ByScope returns the scope totals of a computed table.
func ByScope(results *shipmentcarbon.Results) (shipmentcarbon.ScopeTotals, error) {
	if err := requireComputed(results, shipmentcarbon.ColumnScope1KgCO2); err != nil {
		return shipmentcarbon.ScopeTotals{}, err
	}

	return shipmentcarbon.ScopeTotals{
		Scope1: floats.Sum(column(results, func(r shipmentcarbon.ComputedRecord) float64 { return r.Scope1KgCO2 })),
		Scope2: floats.Sum(column(results, func(r shipmentcarbon.ComputedRecord) float64 { return r.Scope2KgCO2 })),
		Scope3: floats.Sum(column(results, func(r shipmentcarbon.ComputedRecord) float64 { return r.Scope3KgCO2 })),
		Total:  floats.Sum(column(results, func(r shipmentcarbon.ComputedRecord) float64 { return r.TotalKgCO2 })),
	}, nil
}

// Hotspot returns the record with the highest total emissions. The first one
// wins on ties.
func Hotspot(results *shipmentcarbon.Results) (shipmentcarbon.ComputedRecord, error) {
	if err := requireComputed(results, shipmentcarbon.ColumnTotalKgCO2); err != nil {
		return shipmentcarbon.ComputedRecord{}, err
	}
	if len(results.Records) == 0 {
		return shipmentcarbon.ComputedRecord{}, &shipmentcarbon.EmptyTableError{Operation: "hotspot"}
	}

	totals := column(results, func(r shipmentcarbon.ComputedRecord) float64 { return r.TotalKgCO2 })
	return results.Records[floats.MaxIdx(totals)], nil
}

// Summarize builds the full summary of a computed table.
func Summarize(results *shipmentcarbon.Results) (shipmentcarbon.EmissionsSummary, error) {
	scopes, err := ByScope(results)
	if err != nil {
		return shipmentcarbon.EmissionsSummary{}, err
	}

	stages, err := ByStage(results)
	if err != nil {
		return shipmentcarbon.EmissionsSummary{}, err
	}

	hotspot, err := Hotspot(results)
	if err != nil {
		return shipmentcarbon.EmissionsSummary{}, err
	}

	return shipmentcarbon.EmissionsSummary{
		Total:                scopes.Total,
		Scopes:               scopes,
		Stages:               stages,
		Hotspot:              hotspot,
		Suggestion:           Suggest(hotspot),
		ReductionShare:       ReductionShare(hotspot),
		EstimatedReductionKg: EstimateReduction(hotspot),
	}, nil
}
