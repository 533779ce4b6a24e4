package factors

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	shipmentcarbon "github.com/lastlap/shipment-carbon"
)

// Overrides are factors merged on top of the registry.
type Overrides struct {
	EmissionFactors map[string]float64 `mapstructure:"emission_factors"`
	MaterialFactors map[string]float64 `mapstructure:"material_factors"`
	GridKgCO2PerKWh *float64           `mapstructure:"grid_kgco2_per_kwh"`
}

// DecodeOverrides coerces a key/value document into Overrides. Numbers given
// as strings are accepted.
func DecodeOverrides(source map[string]any) (Overrides, error) {
	overrides := Overrides{}
	if source == nil {
		return overrides, errors.New("no overrides document")
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.ComposeDecodeHookFunc(factorStringHook),
		WeaklyTypedInput: true,
		Result:           &overrides,
	})
	if err != nil {
		return overrides, fmt.Errorf("failed to create overrides decoder: %w", err)
	}

	if err := decoder.Decode(source); err != nil {
		return overrides, err
	}

	if overrides.EmissionFactors == nil && overrides.MaterialFactors == nil && overrides.GridKgCO2PerKWh == nil {
		return overrides, errors.New("document sets none of emission_factors, material_factors, grid_kgco2_per_kwh")
	}

	for k, v := range overrides.EmissionFactors {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return overrides, fmt.Errorf("emission factor %s is not a finite number", k)
		}
	}
	for k, v := range overrides.MaterialFactors {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return overrides, fmt.Errorf("material factor %s is not a finite number", k)
		}
	}
	if g := overrides.GridKgCO2PerKWh; g != nil && (math.IsNaN(*g) || math.IsInf(*g, 0)) {
		return overrides, errors.New("grid intensity is not a finite number")
	}

	return overrides, nil
}

// factorStringHook trims numbers given as strings and rejects blank ones,
// which weak decoding would otherwise read as 0.
func factorStringHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String {
		return data, nil
	}
	if to.Kind() == reflect.Ptr {
		to = to.Elem()
	}
	if to.Kind() != reflect.Float64 {
		return data, nil
	}

	value := strings.TrimSpace(reflect.ValueOf(data).String())
	if value == "" {
		return nil, errors.New("blank value is not a number")
	}
	return value, nil
}

// LoadOverrides merges transport factors, material factors and the grid
// intensity found in source. Known keys are replaced, unknown keys added.
// Nothing is merged when source cannot be fully coerced.
func (r *Registry) LoadOverrides(source map[string]any) error {
	return r.loadOverrides("document", source)
}

// LoadOverridesFrom decodes a YAML or JSON overrides document and merges it.
// name identifies the source in errors.
func (r *Registry) LoadOverridesFrom(reader io.Reader, name string) error {
	if reader == nil {
		return &shipmentcarbon.OverridesSourceError{Source: name, Err: errors.New("no reader")}
	}

	document := make(map[string]any)
	if err := yaml.NewDecoder(reader).Decode(&document); err != nil {
		if errors.Is(err, io.EOF) {
			err = errors.New("document is empty")
		}
		return &shipmentcarbon.OverridesSourceError{Source: name, Err: err}
	}

	return r.loadOverrides(name, document)
}

func (r *Registry) loadOverrides(name string, source map[string]any) error {
	overrides, err := DecodeOverrides(source)
	if err != nil {
		return &shipmentcarbon.OverridesSourceError{Source: name, Err: err}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.transport.Merge(overrides.EmissionFactors)
	r.materials.Merge(overrides.MaterialFactors)
	if overrides.GridKgCO2PerKWh != nil {
		r.gridIntensity = *overrides.GridKgCO2PerKWh
	}

	slog.Info("emission factor overrides loaded",
		"source", name,
		"transport", len(overrides.EmissionFactors),
		"materials", len(overrides.MaterialFactors),
		"grid", overrides.GridKgCO2PerKWh != nil,
	)
	return nil
}
