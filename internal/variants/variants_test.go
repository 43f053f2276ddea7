package variants_test

import (
	"testing"

	"github.com/kittycad/machine-api/internal/control"
	"github.com/kittycad/machine-api/internal/variants"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupKnownVariant(t *testing.T) {
	v, ok := variants.Lookup("Bambu Lab", "X1 Carbon")
	require.True(t, ok)
	assert.Equal(t, control.FDM, v.Type)
	assert.True(t, v.Volume.Present)
}

func TestLookupUnknownVariant(t *testing.T) {
	_, ok := variants.Lookup("Nope", "Nothing")
	assert.False(t, ok)
}

func TestSLAVariantHasEmptyHardwareConfiguration(t *testing.T) {
	v, ok := variants.Lookup("Formlabs", "Form 3")
	require.True(t, ok)
	cfg := v.HardwareConfiguration()
	assert.Equal(t, control.SLA, cfg.Type)
	assert.Empty(t, cfg.FDM.Filaments)
}

func TestFDMVariantHasDefaultFilament(t *testing.T) {
	v, ok := variants.Lookup("Prusa Research", "MK4")
	require.True(t, ok)
	cfg := v.HardwareConfiguration()
	require.Len(t, cfg.FDM.Filaments, 1)
	assert.Equal(t, control.PLA, cfg.FDM.Filaments[0].Kind)
	assert.Equal(t, 0.4, cfg.FDM.NozzleDiameterMM)
}
