package tracer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nereusmodel/ecosim/tracer"
)

func descriptors() []tracer.Descriptor {
	return []tracer.Descriptor{
		{Name: "phyto_biomass", Kind: tracer.KindBiomass, Units: "mg N/m3", NonNeg: true},
		{Name: "NH4", Kind: tracer.KindNutrient, Units: "mg N/m3", NonNeg: true},
	}
}

func TestStoreIndexResolution(t *testing.T) {
	s := tracer.NewStore(descriptors(), []int{2, 1})

	idx, ok := s.Index("NH4")
	require.True(t, ok)
	assert.Equal(t, 1, idx)

	_, ok = s.Index("does-not-exist")
	assert.False(t, ok)

	assert.Equal(t, 1, s.MustIndex("NH4"))
}

func TestStoreMustIndexPanicsOnUnknownName(t *testing.T) {
	s := tracer.NewStore(descriptors(), []int{1})
	assert.Panics(t, func() { s.MustIndex("unknown") })
}

func TestValueGetSetRoundTrips(t *testing.T) {
	s := tracer.NewStore(descriptors(), []int{2, 1})
	phytoIdx := s.MustIndex("phyto_biomass")

	s.At(phytoIdx, 0, 1).Set(42.5)
	assert.Equal(t, 42.5, s.At(phytoIdx, 0, 1).Get())
	// Other layers/boxes remain untouched.
	assert.Equal(t, 0.0, s.At(phytoIdx, 0, 0).Get())
	assert.Equal(t, 0.0, s.At(phytoIdx, 1, 0).Get())
}

func TestStoreShapePerBoxLayerCounts(t *testing.T) {
	// Box 0 has 2 layers, box 1 has 1 layer; a different layer count per
	// box is the "water columns may differ in depth" case NewStore's
	// doc comment calls out.
	s := tracer.NewStore(descriptors(), []int{2, 1})
	nh4 := s.MustIndex("NH4")

	assert.NotPanics(t, func() { s.At(nh4, 0, 1).Get() })
	assert.Panics(t, func() { s.At(nh4, 1, 1).Get() })
}
