package factors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMustLoadDefaults(t *testing.T) {
	defaults := MustLoadDefaults()

	assert.Len(t, defaults.Presets, 7)
	assert.Equal(t, "baseline", defaults.Presets[0].Name)
	assert.Equal(t, 12.0, defaults.Presets[4].Materials["food"])
	assert.Equal(t, 90.0, defaults.Transport["last_mile"])

	for _, preset := range defaults.Presets {
		assert.Len(t, preset.Materials, 7, preset.Name)
		assert.Equal(t, 1.0, preset.Materials["other"], preset.Name)
	}
}

func TestParseDefaults(t *testing.T) {
	defaults, err := ParseDefaults([]byte(`
transport_g_per_tkm: {Truck: 60}
grid_kgco2_per_kwh: 0.2
presets:
  - name: Custom
    materials: {Metal: 5}
`))
	require.NoError(t, err)
	assert.Equal(t, Table{"truck": 60}, defaults.Transport)
	assert.Equal(t, Table{"metal": 5}, defaults.Presets[0].Materials)

	_, err = ParseDefaults([]byte("grid_kgco2_per_kwh: 0.2\n"))
	assert.Error(t, err)

	_, err = ParseDefaults([]byte("presets:\n  - name: a\n  - name: A\n"))
	assert.Error(t, err)

	_, err = ParseDefaults([]byte("unknown_field: 1\npresets:\n  - name: a\n"))
	assert.Error(t, err)
}
