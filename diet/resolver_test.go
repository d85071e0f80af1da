package diet_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nereusmodel/ecosim/diet"
	"github.com/nereusmodel/ecosim/spatial"
)

func TestPreferenceOfUnsetPairIsZero(t *testing.T) {
	pref := diet.NewPreference([][3]float64{
		{2, 0, 1.0},
		{2, 1, 0.5},
	})
	assert.Equal(t, 1.0, pref.Of(2, 0))
	assert.Equal(t, 0.5, pref.Of(2, 1))
	assert.Equal(t, 0.0, pref.Of(2, 99))
	assert.Equal(t, 0.0, pref.Of(99, 0))
}

func TestBuildDropsZeroPreferencePrey(t *testing.T) {
	pref := diet.NewPreference([][3]float64{{2, 0, 1.0}})
	raw := map[diet.PreyKey]float64{
		{PreyGroupIdx: 0, Habitat: spatial.HabitatWater}: 10,
		{PreyGroupIdx: 1, Habitat: spatial.HabitatWater}: 20, // no preference entry
	}
	table := diet.Build(raw, pref, 2, false, 0)
	assert.Len(t, table, 1)
	assert.Equal(t, 10.0, table[diet.PreyKey{PreyGroupIdx: 0, Habitat: spatial.HabitatWater}])
}

func TestBuildAttenuatesSedimentPreyForBenthicPredators(t *testing.T) {
	pref := diet.NewPreference([][3]float64{{0, 1, 1.0}})
	raw := map[diet.PreyKey]float64{
		{PreyGroupIdx: 1, Habitat: spatial.HabitatSediment}: 100,
	}
	table := diet.Build(raw, pref, 0, true, 10)
	got := table[diet.PreyKey{PreyGroupIdx: 1, Habitat: spatial.HabitatSediment}]
	assert.InDelta(t, 100*diet.BenthicDepthScalar(10), got, 1e-9)
}

func TestEatNoPreyYieldsZeroResult(t *testing.T) {
	res := diet.Eat(diet.Table{}, diet.EatParams{C: 1, MuMax: 1, KL: 1}, 10)
	assert.Equal(t, 0.0, res.GrazeLive)
	assert.Empty(t, res.Graze)
}

func TestEatSplitsIngestionProportionally(t *testing.T) {
	prey := diet.Table{
		{PreyGroupIdx: 0}: 30,
		{PreyGroupIdx: 1}: 10,
	}
	p := diet.EatParams{C: 1, MuMax: 0.5, KL: 5, Ht: 0, E1: 0.8}
	res := diet.Eat(prey, p, 100)

	assert.Greater(t, res.GrazeLive, 0.0)
	assert.InDelta(t, res.Graze[diet.PreyKey{PreyGroupIdx: 0}]*3, res.Graze[diet.PreyKey{PreyGroupIdx: 1}]*9, 1e-6)
	for key, g := range res.Graze {
		assert.InDelta(t, g*p.E1, res.CatchGraze[key], 1e-9)
	}
}

func TestEatNeverGrazesMoreThanAvailable(t *testing.T) {
	prey := diet.Table{{PreyGroupIdx: 0}: 1}
	p := diet.EatParams{C: 100, MuMax: 100, KL: 0.001, Ht: 0}
	res := diet.Eat(prey, p, 1000)
	assert.LessOrEqual(t, res.Graze[diet.PreyKey{PreyGroupIdx: 0}], 1.0)
}

func TestCrowdingCapsAtFullOccupancy(t *testing.T) {
	assert.Equal(t, 0.0, diet.Crowding(1.0, 100, 100))
	assert.Equal(t, 1.0, diet.Crowding(1.0, 0, 100))
	assert.Equal(t, 0.0, diet.Crowding(1.0, 50, 0))
}

func TestLinearCrowdingIsLessSevereThanQuadratic(t *testing.T) {
	mu, biomass, max := 1.0, 50.0, 100.0
	assert.Greater(t, diet.LinearCrowding(mu, biomass, max), diet.Crowding(mu, biomass, max))
}

func TestTrackedMortAccumulatesByKey(t *testing.T) {
	tm := map[string]float64{}
	diet.UpdateTrackedMort(tm, 0, 1, spatial.HabitatWater, 5)
	diet.UpdateTrackedMort(tm, 0, 1, spatial.HabitatWater, 2.5)
	assert.Equal(t, 7.5, tm[diet.TrackedMortKey(0, 1, spatial.HabitatWater)])
}
