package management_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nereusmodel/ecosim/management"
)

func TestApplyCompanionTACWeakestLink(t *testing.T) {
	primary := management.TACRecord{GroupIdx: 0, Tonnes: 100}
	companions := []management.TACRecord{{GroupIdx: 1, Tonnes: 20}}
	ratios := map[int]float64{1: 0.5} // companion caught at half the primary's rate historically

	out := management.ApplyCompanionTAC(primary, companions, ratios, management.WeakestLink)

	// companion's implied primary-equivalent is 20/0.5 = 40, below the
	// primary's own 100t, so the weaker companion limits both.
	assert.InDelta(t, 40.0, out[0], 1e-9)
	assert.InDelta(t, 20.0, out[1], 1e-9)
}

func TestApplyCompanionTACStrongestLink(t *testing.T) {
	primary := management.TACRecord{GroupIdx: 0, Tonnes: 100}
	companions := []management.TACRecord{{GroupIdx: 1, Tonnes: 20}}
	ratios := map[int]float64{1: 0.5}

	out := management.ApplyCompanionTAC(primary, companions, ratios, management.StrongestLink)

	assert.InDelta(t, 100.0, out[0], 1e-9)
	assert.InDelta(t, 50.0, out[1], 1e-9)
}

func TestApplyCompanionTACIgnoresZeroRatio(t *testing.T) {
	primary := management.TACRecord{GroupIdx: 0, Tonnes: 100}
	companions := []management.TACRecord{{GroupIdx: 1, Tonnes: 20}}
	out := management.ApplyCompanionTAC(primary, companions, map[int]float64{}, management.WeakestLink)
	assert.InDelta(t, 100.0, out[0], 1e-9)
}

func TestApplyBasketTACSplitsByShare(t *testing.T) {
	shares := map[int]float64{1: 3, 2: 1}
	out := management.ApplyBasketTAC(400, shares)
	assert.InDelta(t, 300.0, out[1], 1e-9)
	assert.InDelta(t, 100.0, out[2], 1e-9)
}

func TestApplyBasketTACZeroTotalSharesYieldsEmpty(t *testing.T) {
	out := management.ApplyBasketTAC(400, map[int]float64{1: 0})
	assert.Empty(t, out)
}

func TestEvaluateMultiYearTACSkipsUntilPeriod(t *testing.T) {
	rec := management.TACRecord{YearsSinceReset: 1}
	d := management.EvaluateMultiYearTAC(rec, 3, false, 90)
	assert.True(t, d.Skip)
}

func TestEvaluateMultiYearTACBulkScalesAllocation(t *testing.T) {
	rec := management.TACRecord{YearsSinceReset: 3}
	d := management.EvaluateMultiYearTAC(rec, 3, true, 90)
	assert.False(t, d.Skip)
	assert.InDelta(t, 270.0, d.Allocation, 1e-9)
}

func TestEvaluateMultiYearTACAnnualPassesThrough(t *testing.T) {
	rec := management.TACRecord{}
	d := management.EvaluateMultiYearTAC(rec, 0, true, 90)
	assert.False(t, d.Skip)
	assert.InDelta(t, 90.0, d.Allocation, 1e-9)
}

func TestTACCheckClosesFleetOverMaxSpecies(t *testing.T) {
	taken := map[int]float64{0: 10, 1: 10, 2: 5}
	cap := map[int]float64{0: 5, 1: 5, 2: 5}
	scale, closed := management.TACCheck(taken, cap, 1)
	assert.Equal(t, 0.0, scale)
	assert.True(t, closed)
}

func TestTACCheckStaysOpenUnderThreshold(t *testing.T) {
	taken := map[int]float64{0: 10, 1: 1}
	cap := map[int]float64{0: 5, 1: 5}
	scale, closed := management.TACCheck(taken, cap, 1)
	assert.Equal(t, 1.0, scale)
	assert.False(t, closed)
}
