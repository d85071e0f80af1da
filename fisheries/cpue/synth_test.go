package cpue_test

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nereusmodel/ecosim/fisheries"
	"github.com/nereusmodel/ecosim/fisheries/cpue"
)

func TestSynthesizeConservesAllocatedCatch(t *testing.T) {
	fleet := &fisheries.Fleet{Code: "F1", NeedsShots: true}
	allocated := map[string]map[int]map[int]float64{
		"F1": {0: {0: 5.0}},
	}
	effort := map[string]map[int]float64{
		"F1": {0: 2.0},
	}
	params := map[string]*cpue.FleetShotParams{
		"F1": {
			Fleet:           fleet,
			NegBinomCDF:     map[int][]float64{0: {0.3, 0.7, 1.0}},
			MinEffortCoefft: 0.01,
			MinEffortConst:  0.0,
			DiscardFraction: map[int]float64{0: 0.1},
		},
	}

	day, err := cpue.Synthesize(context.Background(), []*fisheries.Fleet{fleet}, allocated, effort, params, rand.New(rand.NewSource(7)))
	require.NoError(t, err)

	var total float64
	for _, s := range day.Shots {
		assert.Equal(t, "F1", s.FleetCode)
		assert.Equal(t, 0, s.BoxID)
		assert.Equal(t, 0, s.GroupIdx)
		assert.GreaterOrEqual(t, s.Size, 0.0)
		total += s.Size
	}
	total += day.Leftovers[0]
	assert.InDelta(t, 5.0, total, 1e-9)
}

func TestSynthesizeSkipsFleetsThatDoNotNeedShots(t *testing.T) {
	fleet := &fisheries.Fleet{Code: "F2", NeedsShots: false}
	allocated := map[string]map[int]map[int]float64{"F2": {0: {0: 10}}}
	day, err := cpue.Synthesize(context.Background(), []*fisheries.Fleet{fleet}, allocated, nil, map[string]*cpue.FleetShotParams{}, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	assert.Empty(t, day.Shots)
}
