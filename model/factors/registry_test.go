package factors

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	shipmentcarbon "github.com/lastlap/shipment-carbon"
)

func TestNewRegistryBaseline(t *testing.T) {
	registry := NewRegistry()
	f := registry.Factors()

	assert.Equal(t, 62.0, f.TransportFactor("truck"))
	assert.Equal(t, 500.0, f.TransportFactor("AIR"))
	assert.Equal(t, 6.0, f.MaterialFactor("metal"))
	assert.Equal(t, 0.233, f.GridIntensity)
	assert.Equal(t, []string{
		"baseline", "electronics", "apparel", "packaging", "food_beverage", "construction", "automotive",
	}, registry.Presets())
}

func TestFactorsFallback(t *testing.T) {
	f := NewRegistry().Factors()
	assert.Equal(t, 62.0, f.TransportFactor("blimp"))
	assert.Equal(t, 62.0, f.TransportFactor(""))
	assert.Equal(t, 1.0, f.MaterialFactor("unobtainium"))

	empty := Factors{Transport: Table{}, Materials: Table{}}
	assert.Equal(t, DefaultModeFactor, empty.TransportFactor("blimp"))
	assert.Equal(t, DefaultMaterialFactor, empty.MaterialFactor("unobtainium"))
}

func TestApplyPresetThenRestore(t *testing.T) {
	registry := NewRegistry()
	before := registry.Factors().Materials

	snapshot := registry.Snapshot()
	require.NoError(t, registry.ApplyPreset("Electronics"))
	assert.Equal(t, 8.5, registry.Factors().MaterialFactor("metal"))

	registry.Restore(snapshot)
	assert.Equal(t, before, registry.Factors().Materials)
}

func TestApplyPresetReplacesWholeMapping(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, registry.LoadOverrides(map[string]any{
		"material_factors": map[string]any{"wood": 0.4},
	}))
	assert.Equal(t, 0.4, registry.Factors().MaterialFactor("wood"))

	require.NoError(t, registry.ApplyPreset("apparel"))
	assert.Equal(t, 1.0, registry.Factors().MaterialFactor("wood"), "wood falls back to other")
	assert.Equal(t, 9.0, registry.Factors().MaterialFactor("textile"))
}

func TestApplyUnknownPreset(t *testing.T) {
	registry := NewRegistry()
	before := registry.Factors()

	err := registry.ApplyPreset("electronic")
	require.Error(t, err)
	assert.ErrorIs(t, err, shipmentcarbon.ErrUnknownPreset)

	presetErr := new(shipmentcarbon.UnknownPresetError)
	require.True(t, errors.As(err, &presetErr))
	assert.Equal(t, "electronic", presetErr.Name)
	assert.Contains(t, presetErr.Available, "automotive")
	assert.Equal(t, []string{"electronics"}, presetErr.Suggestions)
	assert.Contains(t, err.Error(), "did you mean electronics")

	assert.Equal(t, before, registry.Factors())
}

func TestSuggestPresets(t *testing.T) {
	names := []string{"baseline", "electronics", "apparel", "packaging", "food_beverage", "construction", "automotive"}
	assert.Equal(t, []string{"food_beverage"}, suggestPresets("food", names))
	assert.Equal(t, []string{"apparel"}, suggestPresets("aparel", names))
	assert.Empty(t, suggestPresets("zzz", names))
	assert.Empty(t, suggestPresets(" ", names))
}

func TestWithPresetRestores(t *testing.T) {
	registry := NewRegistry()
	before := registry.Factors()

	err := registry.WithPreset("construction", func(f Factors) error {
		assert.Equal(t, 9.0, f.MaterialFactor("metal"))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, before, registry.Factors())

	expected := errors.New("computation failed")
	err = registry.WithPreset("automotive", func(f Factors) error {
		return expected
	})
	assert.ErrorIs(t, err, expected)
	assert.Equal(t, before, registry.Factors())

	called := false
	err = registry.WithPreset("does-not-exist", func(f Factors) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, shipmentcarbon.ErrUnknownPreset)
	assert.False(t, called)
	assert.Equal(t, before, registry.Factors())
}

func TestWithPresetRestoresOnPanic(t *testing.T) {
	registry := NewRegistry()
	before := registry.Factors()

	assert.Panics(t, func() {
		_ = registry.WithPreset("packaging", func(f Factors) error {
			panic("boom")
		})
	})
	assert.Equal(t, before, registry.Factors())
}

func TestWithPresetConcurrent(t *testing.T) {
	registry := NewRegistry()
	presets := registry.Presets()

	wg := new(sync.WaitGroup)
	for i := 0; i < 50; i++ {
		preset := presets[i%len(presets)]
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = registry.WithPreset(preset, func(f Factors) error {
				expected := Table{}
				for _, p := range registry.presets {
					if p.Name == preset {
						expected = p.Materials
					}
				}
				assert.Equal(t, expected, f.Materials)
				return nil
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, 6.0, registry.Factors().MaterialFactor("metal"))
}

func TestWithDefaults(t *testing.T) {
	registry := NewRegistry(WithDefaults(Defaults{
		Transport:     Table{"rail": 10},
		GridIntensity: 0.5,
		Presets: []Preset{
			{Name: "tiny", Materials: Table{"metal": 2}},
		},
	}))

	f := registry.Factors()
	assert.Equal(t, []string{"tiny"}, registry.Presets())
	assert.Equal(t, DefaultModeFactor, f.TransportFactor("truck"))
	assert.Equal(t, 2.0, f.MaterialFactor("metal"))
	assert.Equal(t, 0.5, f.GridIntensity)
}
