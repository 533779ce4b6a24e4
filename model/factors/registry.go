package factors

import (
	"log/slog"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/lithammer/fuzzysearch/fuzzy"

	shipmentcarbon "github.com/lastlap/shipment-carbon"
)

const (
	// DefaultMode is the transport mode used for unknown modes.
	DefaultMode = "truck"
	// DefaultModeFactor is used when DefaultMode itself has no factor (g CO2/tkm).
	DefaultModeFactor = 62.0
	// DefaultMaterial is the material used for unknown material types.
	DefaultMaterial = "other"
	// DefaultMaterialFactor is used when DefaultMaterial has no factor (kg CO2/kg).
	DefaultMaterialFactor = 1.0
)

// Factors is an immutable view of the registry handed to calculations.
type Factors struct {
	// Transport factors in g CO2 per tonne-km
	Transport Table `json:"transport_factors_g_per_tkm"`
	// Materials factors in kg CO2 per kg of material
	Materials Table `json:"material_factors_kg_per_kg"`
	// GridIntensity in kg CO2 per kWh
	GridIntensity float64 `json:"grid_kgco2_per_kwh"`
}

func (f Factors) TransportFactor(mode string) float64 {
	return f.Transport.Get(mode, DefaultMode, DefaultModeFactor)
}

func (f Factors) MaterialFactor(materialType string) float64 {
	return f.Materials.Get(materialType, DefaultMaterial, DefaultMaterialFactor)
}

// Snapshot is a saved material mapping, see Registry.Snapshot.
type Snapshot struct {
	materials Table
}

type RegistryOption func(r *Registry)

// WithDefaults seeds the registry with the given tables instead of the
// embedded ones.
func WithDefaults(defaults Defaults) RegistryOption {
	return func(r *Registry) {
		r.seed(defaults)
	}
}

// Registry holds the emission factors used by the pipeline. The material
// mapping can be swapped for an industry preset; every swap done through
// WithPreset is restored before the registry is released.
type Registry struct {
	mu            sync.Mutex
	transport     Table
	materials     Table
	gridIntensity float64
	presets       []Preset
}

// NewRegistry returns a registry seeded with the embedded baseline factors.
func NewRegistry(opts ...RegistryOption) *Registry {
	registry := new(Registry)
	for _, option := range opts {
		option(registry)
	}

	if registry.presets == nil {
		registry.seed(MustLoadDefaults())
	}

	return registry
}

func (r *Registry) seed(defaults Defaults) {
	r.transport = defaults.Transport.Clone()
	r.gridIntensity = defaults.GridIntensity
	r.presets = make([]Preset, 0, len(defaults.Presets))
	for _, preset := range defaults.Presets {
		r.presets = append(r.presets, Preset{Name: preset.Name, Materials: preset.Materials.Clone()})
	}
	r.materials = make(Table)
	if len(r.presets) > 0 {
		r.materials = r.presets[0].Materials.Clone()
	}
}

// Presets returns the preset names in declaration order.
func (r *Registry) Presets() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.presetNames()
}

func (r *Registry) presetNames() []string {
	names := make([]string, 0, len(r.presets))
	for _, preset := range r.presets {
		names = append(names, preset.Name)
	}
	return names
}

// ApplyPreset replaces the whole material mapping by the preset matching
// name case-insensitively. The mapping is left untouched on error.
func (r *Registry) ApplyPreset(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.applyPreset(name)
}

func (r *Registry) applyPreset(name string) error {
	preset, err := r.lookupPreset(name)
	if err != nil {
		return err
	}

	materials := make(Table, len(preset.Materials))
	materials.Merge(preset.Materials)
	r.materials = materials

	slog.Debug("material preset applied", "preset", preset.Name)
	return nil
}

func (r *Registry) lookupPreset(name string) (Preset, error) {
	for _, preset := range r.presets {
		if strings.EqualFold(preset.Name, strings.TrimSpace(name)) {
			return preset, nil
		}
	}

	names := r.presetNames()
	return Preset{}, &shipmentcarbon.UnknownPresetError{
		Name:        name,
		Available:   names,
		Suggestions: suggestPresets(name, names),
	}
}

// suggestPresets returns presets containing the letters of name in order, or
// within two edits of it, closest first.
func suggestPresets(name string, names []string) []string {
	name = Key(name)
	if name == "" {
		return nil
	}

	ranks := fuzzy.RankFindNormalizedFold(name, names)
	for i, candidate := range names {
		distance := fuzzy.LevenshteinDistance(name, strings.ToLower(candidate))
		if distance <= 2 {
			ranks = append(ranks, fuzzy.Rank{Source: name, Target: candidate, Distance: distance, OriginalIndex: i})
		}
	}
	sort.Stable(ranks)

	suggestions := make([]string, 0, len(ranks))
	for _, rank := range ranks {
		if !slices.Contains(suggestions, rank.Target) {
			suggestions = append(suggestions, rank.Target)
		}
	}
	return suggestions
}

// Snapshot captures the current material mapping.
func (r *Registry) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Snapshot{materials: r.materials.Clone()}
}

// Restore reinstates a material mapping captured by Snapshot.
func (r *Registry) Restore(snapshot Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.materials = snapshot.materials.Clone()
}

// Factors returns a copy of every factor currently in use.
func (r *Registry) Factors() Factors {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.factors()
}

func (r *Registry) factors() Factors {
	return Factors{
		Transport:     r.transport.Clone(),
		Materials:     r.materials.Clone(),
		GridIntensity: r.gridIntensity,
	}
}

// WithPreset calls fn with the factors of the named preset, or with the
// current factors when preset is empty. The material mapping is restored
// before WithPreset returns, whether applying the preset or fn failed.
// Calls are serialized.
func (r *Registry) WithPreset(preset string, fn func(f Factors) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	snapshot := r.materials.Clone()
	defer func() {
		r.materials = snapshot
	}()

	if preset != "" {
		if err := r.applyPreset(preset); err != nil {
			return err
		}
	}

	return fn(r.factors())
}
