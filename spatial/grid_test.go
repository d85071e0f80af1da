package spatial_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nereusmodel/ecosim/spatial"
)

func threeBoxLine() *spatial.Grid {
	boxes := []spatial.Box{
		{ID: 0, Type: spatial.Dynamic, Neighbors: []int{1}},
		{ID: 1, Type: spatial.Dynamic, Neighbors: []int{0, 2}},
		{ID: 2, Type: spatial.Boundary, Neighbors: []int{1}},
	}
	return spatial.NewGrid(boxes)
}

func TestVisitFishableSkipsBoundaryAndLand(t *testing.T) {
	grid := threeBoxLine()
	var seen []int
	grid.VisitFishable(func(b *spatial.Box) { seen = append(seen, b.ID) })
	assert.Equal(t, []int{0, 1}, seen)
}

func TestCheckNeighbourSymmetryPassesForSymmetricAdjacency(t *testing.T) {
	grid := threeBoxLine()
	assert.NoError(t, grid.CheckNeighbourSymmetry())
}

func TestCheckNeighbourSymmetryCatchesOneSidedAdjacency(t *testing.T) {
	boxes := []spatial.Box{
		{ID: 0, Neighbors: []int{1}},
		{ID: 1, Neighbors: []int{}}, // doesn't point back to 0
	}
	grid := spatial.NewGrid(boxes)
	assert.Error(t, grid.CheckNeighbourSymmetry())
}

func TestCheckNeighbourSymmetryCatchesOutOfRangeNeighbour(t *testing.T) {
	boxes := []spatial.Box{{ID: 0, Neighbors: []int{5}}}
	grid := spatial.NewGrid(boxes)
	assert.Error(t, grid.CheckNeighbourSymmetry())
}

func TestMostProductiveNeighbourPicksHighestAllowedScore(t *testing.T) {
	grid := threeBoxLine()
	box := grid.Box(1)
	scores := map[int]float64{0: 5, 2: 9}
	best := grid.MostProductiveNeighbour(box, func(id int) bool { return true }, func(id int) float64 { return scores[id] })
	assert.Equal(t, 2, best)
}

func TestMostProductiveNeighbourReturnsMinusOneWhenNoneAllowed(t *testing.T) {
	grid := threeBoxLine()
	box := grid.Box(1)
	best := grid.MostProductiveNeighbour(box, func(id int) bool { return false }, func(id int) float64 { return 1 })
	assert.Equal(t, -1, best)
}

func TestBoxLayerIndexOrdersWaterSedimentIceEpibenthic(t *testing.T) {
	b := &spatial.Box{
		Layers:        []spatial.Layer{{DzMeters: 10}, {DzMeters: 20}},
		HasSediment:   true,
		HasIce:        true,
		HasEpibenthic: true,
	}
	assert.Equal(t, 0, b.LayerIndex(spatial.HabitatWater, 0))
	assert.Equal(t, 1, b.LayerIndex(spatial.HabitatWater, 1))
	assert.Equal(t, 2, b.LayerIndex(spatial.HabitatSediment, 0))
	assert.Equal(t, 3, b.LayerIndex(spatial.HabitatIce, 0))
	assert.Equal(t, 4, b.LayerIndex(spatial.HabitatEpibenthic, 0))
}

func TestBoxTracerLayerSlotsCountsOptionalHabitats(t *testing.T) {
	b := &spatial.Box{Layers: []spatial.Layer{{DzMeters: 10}}, HasSediment: true}
	assert.Equal(t, 2, b.TracerLayerSlots())
}

func TestBoxDepthSumsLayers(t *testing.T) {
	b := &spatial.Box{Layers: []spatial.Layer{{DzMeters: 10}, {DzMeters: 15}}}
	assert.InDelta(t, 25, b.Depth(), 1e-9)
}

func TestBoxIsFishableOnlyForDynamicType(t *testing.T) {
	assert.True(t, (&spatial.Box{Type: spatial.Dynamic}).IsFishable())
	assert.False(t, (&spatial.Box{Type: spatial.Boundary}).IsFishable())
	assert.False(t, (&spatial.Box{Type: spatial.Land}).IsFishable())
}
