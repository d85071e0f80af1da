package management_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nereusmodel/ecosim/management"
)

func brokenStick() management.BrokenStick {
	return management.BrokenStick{
		BrefA: 100, BrefB: 60, BrefE: 30, Blim: 10,
		FRefA: 0.3,
	}
}

func TestTieredRuleBrokenStickStages(t *testing.T) {
	rule := management.TieredRule{Tier: management.Tier1, Points: brokenStick()}

	cases := []struct {
		name      string
		bCurr     float64
		wantExact *float64
	}{
		{"above BrefA holds FRefA", 150, f(0.3)},
		{"at BrefB holds FRefA", 60, f(0.3)},
		{"at Blim is closed", 10, f(0)},
		{"below Blim is closed", 5, f(0)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := rule.F(tc.bCurr)
			if tc.wantExact != nil {
				assert.InDelta(t, *tc.wantExact, got, 1e-9)
			}
		})
	}

	t.Run("ramps linearly between Blim and BrefB", func(t *testing.T) {
		mid := rule.F(35) // halfway between 10 and 60
		assert.InDelta(t, 0.3*0.5, mid, 1e-9)
	})
}

// TestTieredRuleBrokenStickE5Example reproduces the spec's worked E5
// example: BrefA=0.4*B0, BrefB=0.3*B0, Blim=0.2*B0, FrefA=0.25,
// Bcurr=0.25*B0 must yield FTARG = 0.25*(0.05/0.10) = 0.125.
func TestTieredRuleBrokenStickE5Example(t *testing.T) {
	const b0 = 1000.0
	points := management.BrokenStick{
		BrefA: 0.4 * b0, BrefB: 0.3 * b0, Blim: 0.2 * b0,
		FRefA: 0.25,
	}
	rule := management.TieredRule{Tier: management.Tier1, Points: points}
	got := rule.F(0.25 * b0)
	assert.InDelta(t, 0.125, got, 1e-9)
}

func TestTier13IsEscapementFormulation(t *testing.T) {
	rule := management.TieredRule{Tier: management.Tier13, Points: management.BrokenStick{BrefB: 100, Blim: 40}}
	assert.InDelta(t, 0.6, rule.F(0), 1e-9)
}

func TestTier13GuardsAgainstZeroBrefB(t *testing.T) {
	rule := management.TieredRule{Tier: management.Tier13, Points: management.BrokenStick{BrefB: 0, Blim: 40}}
	assert.Equal(t, 0.0, rule.F(0))
}

func TestTier14ClosesBelowBrefE(t *testing.T) {
	rule := management.TieredRule{Tier: management.Tier14, Points: management.BrokenStick{BrefB: 60, Blim: 10, BrefE: 30, FRefA: 0.4}}
	assert.Equal(t, 0.0, rule.F(20))  // above Blim's ramp zero but below BrefE: still closed
	assert.Greater(t, rule.F(40), 0.0) // above BrefE, below BrefB: ramping
	assert.Equal(t, 0.4, rule.F(60))
}

func TestTier9RescalesBySpinUpScale(t *testing.T) {
	points := brokenStick()
	points.SpinUpScale = 0.5
	rule := management.TieredRule{Tier: management.Tier9, Points: points}
	// above BrefA, brokenStickF returns FRefA; tier 9 then damps by
	// SpinUpScale.
	got := rule.F(150)
	assert.InDelta(t, 0.15, got, 1e-9) // FRefA(0.3) * 0.5
}

func TestTier9DefaultsSpinUpScaleToOne(t *testing.T) {
	points := brokenStick()
	rule := management.TieredRule{Tier: management.Tier9, Points: points}
	assert.InDelta(t, 0.3, rule.F(150), 1e-9)
}

func TestFScalePerSpeciesIsIdentity(t *testing.T) {
	inputs := []management.FScaleInput{{GroupIdx: 1}, {GroupIdx: 2}}
	out := management.FScale(management.FScalePerSpecies, inputs, nil, 0)
	assert.Equal(t, 1.0, out[1])
	assert.Equal(t, 1.0, out[2])
}

func TestFScaleEcosystemCapDeductsProportionally(t *testing.T) {
	inputs := []management.FScaleInput{
		{GroupIdx: 1, ProjectedCatch: 60, PreferenceWeight: 1},
		{GroupIdx: 2, ProjectedCatch: 40, PreferenceWeight: 1},
	}
	out := management.FScale(management.FScaleEcosystemCap, inputs, nil, 80)
	// total projected 100 against an 80t cap, excess 20 split evenly.
	assert.InDelta(t, (60-10.0)/60, out[1], 1e-9)
	assert.InDelta(t, (40-10.0)/40, out[2], 1e-9)
}

func TestFScaleEcosystemCapNoOpUnderCap(t *testing.T) {
	inputs := []management.FScaleInput{{GroupIdx: 1, ProjectedCatch: 10, PreferenceWeight: 1}}
	out := management.FScale(management.FScaleEcosystemCap, inputs, nil, 100)
	assert.Equal(t, 1.0, out[1])
}

func f(v float64) *float64 { return &v }
