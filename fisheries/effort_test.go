package fisheries_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nereusmodel/ecosim/fisheries"
)

func TestConstantEffortSplitsEvenly(t *testing.T) {
	ctx := &fisheries.AllocationContext{Boxes: []int{1, 2, 3}}
	out := fisheries.ConstantEffort{}.Allocate(ctx)
	assert.Len(t, out, 3)
	for _, v := range out {
		assert.InDelta(t, 1.0/3.0, v, 1e-9)
	}
}

func TestCPUEProportionalEffortFavorsHigherCPUEBoxes(t *testing.T) {
	field := fisheries.NewEffortField()
	field.TempCPUE[1] = 10
	field.TempCPUE[2] = 30
	ctx := &fisheries.AllocationContext{Boxes: []int{1, 2}, Field: field}
	out := fisheries.CPUEProportionalEffort{}.Allocate(ctx)
	assert.InDelta(t, 0.25, out[1], 1e-9)
	assert.InDelta(t, 0.75, out[2], 1e-9)
}

func TestCPUEProportionalEffortFallsBackToEqualSharesWhenAllZero(t *testing.T) {
	field := fisheries.NewEffortField()
	ctx := &fisheries.AllocationContext{Boxes: []int{1, 2}, Field: field}
	out := fisheries.CPUEProportionalEffort{}.Allocate(ctx)
	assert.InDelta(t, 0.5, out[1], 1e-9)
	assert.InDelta(t, 0.5, out[2], 1e-9)
}

func TestDistanceToPortEffortFavorsCloserBoxes(t *testing.T) {
	ctx := &fisheries.AllocationContext{
		Boxes:       []int{1, 2},
		BoxDistance: map[int]float64{1: 1, 2: 4},
	}
	out := fisheries.DistanceToPortEffort{}.Allocate(ctx)
	assert.Greater(t, out[1], out[2])
}

func TestPreviousEffortWeightedEffortFullInertiaReproducesPrevious(t *testing.T) {
	field := fisheries.NewEffortField()
	field.OldEffort[1] = 3
	field.OldEffort[2] = 1
	ctx := &fisheries.AllocationContext{Boxes: []int{1, 2}, Field: field}
	out := fisheries.PreviousEffortWeightedEffort{Inertia: 1.0}.Allocate(ctx)
	assert.InDelta(t, 0.75, out[1], 1e-9)
	assert.InDelta(t, 0.25, out[2], 1e-9)
}

func TestCPUEScaledEffortBoundsStepByInertiaTerm(t *testing.T) {
	field := fisheries.NewEffortField()
	field.OldEffort[1] = 1
	field.OldEffort[2] = 0
	field.TempCPUE[1] = 1
	field.TempCPUE[2] = 100
	ctx := &fisheries.AllocationContext{
		Boxes:       []int{1, 2},
		Field:       field,
		BoxDistance: map[int]float64{1: 1, 2: 1},
		DistPeak:    10,
		Dt:          1,
	}
	m := fisheries.CPUEScaledEffort{SpeedBoat: 1} // maxStep = 1*1/10 = 0.1
	out := m.Allocate(ctx)
	// Previous distribution was box 1 = 1.0; even though box 2 now has
	// far higher CPUE, one step can only move 10% of the way there.
	assert.Greater(t, out[1], 0.8)
}

func TestApplyTestFishFillsUnusedEligibleBoxes(t *testing.T) {
	f := &fisheries.Fleet{IsTestFishEligible: true, EligibleBoxes: []int{1, 2}}
	shares := map[int]float64{1: 0.5}
	used := fisheries.ApplyTestFish(f, shares, 0.02, false)
	assert.True(t, used)
	assert.InDelta(t, 0.02, shares[2], 1e-9)
	assert.InDelta(t, 0.5, shares[1], 1e-9)
}

func TestApplyTestFishNoOpWhenIneligible(t *testing.T) {
	f := &fisheries.Fleet{IsTestFishEligible: false, EligibleBoxes: []int{1}}
	shares := map[int]float64{}
	used := fisheries.ApplyTestFish(f, shares, 0.02, false)
	assert.False(t, used)
	assert.Empty(t, shares)
}
