package tabular

import (
	"encoding/csv"
	"fmt"
	"io"
	"slices"
	"strconv"

	shipmentcarbon "github.com/lastlap/shipment-carbon"
	"github.com/lastlap/shipment-carbon/model/factors"
)

// OutputColumns returns the header of a computed table: the input columns in
// their original order, the expected input columns the input lacked, then
// the computed columns. Known input columns are written with their canonical
// name.
func OutputColumns(inputColumns []string) []string {
	columns := make([]string, 0, len(inputColumns)+len(shipmentcarbon.InputColumns)+len(shipmentcarbon.ComputedColumns))
	seen := make(map[string]bool)
	for _, col := range inputColumns {
		if isComputed(col) || seen[factors.Key(col)] {
			continue
		}
		seen[factors.Key(col)] = true
		if slices.Contains(shipmentcarbon.InputColumns, factors.Key(col)) {
			col = factors.Key(col)
		}
		columns = append(columns, col)
	}
	for _, col := range shipmentcarbon.InputColumns {
		if !seen[col] {
			seen[col] = true
			columns = append(columns, col)
		}
	}
	return append(columns, shipmentcarbon.ComputedColumns...)
}

// Write encodes a computed table as CSV.
func Write(w io.Writer, inputColumns []string, results *shipmentcarbon.Results) error {
	if results == nil {
		return &shipmentcarbon.MissingColumnError{Column: shipmentcarbon.ColumnTotalKgCO2}
	}

	columns := OutputColumns(inputColumns)
	writer := csv.NewWriter(w)
	if err := writer.Write(columns); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	row := make([]string, len(columns))
	for _, record := range results.Records {
		values := Row(record)
		for i, col := range columns {
			row[i] = values[col]
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// Row returns the textual value of every column of a computed record,
// extra columns included.
func Row(record shipmentcarbon.ComputedRecord) map[string]string {
	values := make(map[string]string, len(record.Extra)+len(shipmentcarbon.InputColumns)+len(shipmentcarbon.ComputedColumns))
	for k, v := range record.Extra {
		values[k] = v
	}

	values[shipmentcarbon.ColumnMode] = record.Mode
	values[shipmentcarbon.ColumnDistanceKm] = formatFloat(record.DistanceKm)
	values[shipmentcarbon.ColumnWeightKg] = formatFloat(record.WeightKg)
	values[shipmentcarbon.ColumnMaterialType] = record.MaterialType
	values[shipmentcarbon.ColumnManufacturingEnergyKWh] = formatFloat(record.ManufacturingEnergyKWh)
	values[shipmentcarbon.ColumnStage] = record.Stage
	values[shipmentcarbon.ColumnOwnership] = record.Ownership

	values[shipmentcarbon.ColumnTransportKgCO2] = formatFloat(record.TransportKgCO2)
	values[shipmentcarbon.ColumnMaterialKgCO2] = formatFloat(record.MaterialKgCO2)
	values[shipmentcarbon.ColumnManufacturingKgCO2] = formatFloat(record.ManufacturingKgCO2)
	values[shipmentcarbon.ColumnTotalKgCO2] = formatFloat(record.TotalKgCO2)
	values[shipmentcarbon.ColumnScope] = strconv.Itoa(record.Scope)
	values[shipmentcarbon.ColumnScope1KgCO2] = formatFloat(record.Scope1KgCO2)
	values[shipmentcarbon.ColumnScope2KgCO2] = formatFloat(record.Scope2KgCO2)
	values[shipmentcarbon.ColumnScope3KgCO2] = formatFloat(record.Scope3KgCO2)

	return values
}

// RecordMap returns a computed record as a JSON friendly map.
func RecordMap(record shipmentcarbon.ComputedRecord) map[string]any {
	m := make(map[string]any, len(record.Extra)+len(shipmentcarbon.InputColumns)+len(shipmentcarbon.ComputedColumns))
	for k, v := range record.Extra {
		m[k] = v
	}
	m[shipmentcarbon.ColumnMode] = record.Mode
	m[shipmentcarbon.ColumnDistanceKm] = record.DistanceKm
	m[shipmentcarbon.ColumnWeightKg] = record.WeightKg
	m[shipmentcarbon.ColumnMaterialType] = record.MaterialType
	m[shipmentcarbon.ColumnManufacturingEnergyKWh] = record.ManufacturingEnergyKWh
	m[shipmentcarbon.ColumnStage] = record.Stage
	m[shipmentcarbon.ColumnOwnership] = record.Ownership
	m[shipmentcarbon.ColumnTransportKgCO2] = record.TransportKgCO2
	m[shipmentcarbon.ColumnMaterialKgCO2] = record.MaterialKgCO2
	m[shipmentcarbon.ColumnManufacturingKgCO2] = record.ManufacturingKgCO2
	m[shipmentcarbon.ColumnTotalKgCO2] = record.TotalKgCO2
	m[shipmentcarbon.ColumnScope] = record.Scope
	m[shipmentcarbon.ColumnScope1KgCO2] = record.Scope1KgCO2
	m[shipmentcarbon.ColumnScope2KgCO2] = record.Scope2KgCO2
	m[shipmentcarbon.ColumnScope3KgCO2] = record.Scope3KgCO2
	return m
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
