package factors

import (
	"bytes"
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/lastlap/shipment-carbon/internal/must"
)

//go:embed data/factors.yaml
var factorsYAML []byte

// Preset is a named, complete set of material factors tuned to an industry.
type Preset struct {
	Name      string `yaml:"name"`
	Materials Table  `yaml:"materials"`
}

// Defaults holds the factor tables a registry is seeded with.
type Defaults struct {
	Transport     Table    `yaml:"transport_g_per_tkm"`
	GridIntensity float64  `yaml:"grid_kgco2_per_kwh"`
	Presets       []Preset `yaml:"presets"`
}

// ParseDefaults decodes a factors document. The first preset is the baseline.
func ParseDefaults(document []byte) (Defaults, error) {
	defaults := Defaults{}
	decoder := yaml.NewDecoder(bytes.NewReader(document))
	decoder.KnownFields(true)
	if err := decoder.Decode(&defaults); err != nil {
		return Defaults{}, fmt.Errorf("failed to decode factors document: %w", err)
	}

	if len(defaults.Presets) == 0 {
		return Defaults{}, fmt.Errorf("factors document declares no preset")
	}

	seen := make(map[string]bool, len(defaults.Presets))
	for i, preset := range defaults.Presets {
		name := Key(preset.Name)
		if name == "" || seen[name] {
			return Defaults{}, fmt.Errorf("preset #%d has an empty or duplicated name %q", i, preset.Name)
		}
		seen[name] = true

		materials := make(Table, len(preset.Materials))
		materials.Merge(preset.Materials)
		defaults.Presets[i].Materials = materials
	}

	transport := make(Table, len(defaults.Transport))
	transport.Merge(defaults.Transport)
	defaults.Transport = transport

	return defaults, nil
}

// MustLoadDefaults decodes the embedded factors document and exits on failure.
func MustLoadDefaults() Defaults {
	defaults, err := ParseDefaults(factorsYAML)
	must.NoError(err, "document", "data/factors.yaml")
	must.Assert(defaults.Transport[DefaultMode] > 0, "embedded factors miss the default transport mode", "mode", DefaultMode)
	return defaults
}
