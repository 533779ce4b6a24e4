// Package tabular reads shipment tables from CSV and writes computed tables
// back to CSV.
package tabular

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	shipmentcarbon "github.com/lastlap/shipment-carbon"
	"github.com/lastlap/shipment-carbon/model/factors"
)

// Sheet is a decoded shipment table.
type Sheet struct {
	// Columns in input order, computed columns excluded
	Columns []string
	Records []shipmentcarbon.ShipmentRecord
}

// Read decodes a CSV shipment table. The first line is the header. Known
// columns are matched case-insensitively; unknown columns are kept in
// ShipmentRecord.Extra. Values that are not numbers read as 0.
func Read(r io.Reader) (*Sheet, error) {
	header, rows, err := readRows(r)
	if err != nil {
		return nil, err
	}

	sheet := &Sheet{
		Columns: make([]string, 0, len(header)),
		Records: make([]shipmentcarbon.ShipmentRecord, 0, len(rows)),
	}
	for _, name := range header {
		if !isComputed(name) {
			sheet.Columns = append(sheet.Columns, name)
		}
	}

	for _, row := range rows {
		sheet.Records = append(sheet.Records, decodeRecord(header, row))
	}

	return sheet, nil
}

// ReadResults decodes a CSV table previously written by Write.
func ReadResults(r io.Reader) (*shipmentcarbon.Results, error) {
	header, rows, err := readRows(r)
	if err != nil {
		return nil, err
	}

	for _, col := range shipmentcarbon.ComputedColumns {
		if !slices.ContainsFunc(header, func(h string) bool { return factors.Key(h) == strings.ToLower(col) }) {
			return nil, &shipmentcarbon.MissingColumnError{Column: col}
		}
	}

	results := &shipmentcarbon.Results{
		Records: make([]shipmentcarbon.ComputedRecord, 0, len(rows)),
	}
	for _, row := range rows {
		computed := shipmentcarbon.ComputedRecord{ShipmentRecord: decodeRecord(header, row)}
		for i, name := range header {
			value := cell(row, i)
			switch factors.Key(name) {
			case strings.ToLower(shipmentcarbon.ColumnTransportKgCO2):
				computed.TransportKgCO2 = ParseFloat(value)
			case strings.ToLower(shipmentcarbon.ColumnMaterialKgCO2):
				computed.MaterialKgCO2 = ParseFloat(value)
			case strings.ToLower(shipmentcarbon.ColumnManufacturingKgCO2):
				computed.ManufacturingKgCO2 = ParseFloat(value)
			case strings.ToLower(shipmentcarbon.ColumnTotalKgCO2):
				computed.TotalKgCO2 = ParseFloat(value)
			case shipmentcarbon.ColumnScope:
				computed.Scope = int(ParseFloat(value))
			case strings.ToLower(shipmentcarbon.ColumnScope1KgCO2):
				computed.Scope1KgCO2 = ParseFloat(value)
			case strings.ToLower(shipmentcarbon.ColumnScope2KgCO2):
				computed.Scope2KgCO2 = ParseFloat(value)
			case strings.ToLower(shipmentcarbon.ColumnScope3KgCO2):
				computed.Scope3KgCO2 = ParseFloat(value)
			}
		}
		results.Records = append(results.Records, computed)
	}

	return results, nil
}

func readRows(r io.Reader) (header []string, rows [][]string, err error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err = reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, errors.New("csv table has no header")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read csv header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read csv row: %w", err)
		}
		rows = append(rows, row)
	}

	return header, rows, nil
}

func decodeRecord(header []string, row []string) shipmentcarbon.ShipmentRecord {
	record := shipmentcarbon.ShipmentRecord{}
	for i, name := range header {
		value := cell(row, i)
		switch factors.Key(name) {
		case shipmentcarbon.ColumnMode:
			record.Mode = value
		case shipmentcarbon.ColumnDistanceKm:
			record.DistanceKm = ParseFloat(value)
		case shipmentcarbon.ColumnWeightKg:
			record.WeightKg = ParseFloat(value)
		case shipmentcarbon.ColumnMaterialType:
			record.MaterialType = value
		case shipmentcarbon.ColumnManufacturingEnergyKWh:
			record.ManufacturingEnergyKWh = ParseFloat(value)
		case shipmentcarbon.ColumnStage:
			record.Stage = value
		case shipmentcarbon.ColumnOwnership:
			record.Ownership = value
		default:
			if isComputed(name) {
				continue
			}
			if record.Extra == nil {
				record.Extra = make(map[string]string)
			}
			record.Extra[name] = value
		}
	}
	return record
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func isComputed(name string) bool {
	return slices.ContainsFunc(shipmentcarbon.ComputedColumns, func(col string) bool {
		return strings.EqualFold(col, strings.TrimSpace(name))
	})
}

// ParseFloat reads a number and returns 0 for anything that is not a finite number.
func ParseFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return shipmentcarbon.Finite(v)
}
