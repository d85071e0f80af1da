package management

// Tier identifies which broken-stick control rule a stock's HCR uses
// (§4.5 "tiers 1-9, 13, 14").
type Tier int

const (
	Tier1 Tier = iota + 1
	Tier2
	Tier3
	Tier4
	Tier5
	Tier6
	Tier7
	Tier8
	Tier9
	Tier13 Tier = 13
	Tier14 Tier = 14
)

// BrokenStick holds the piecewise-linear break points shared by tiers 1-9
// (§4.5 "break points BrefA (upper), BrefB (middle), BrefE (cut-off),
// Blim (cut-off)"), grounded on
// original_source/atlantis/atmanage/atManageAnnual.c's Per_Sp_Frescale:
// F holds at FRefA at/above BrefB, ramps linearly down to 0 at Blim below
// that, and is fully closed below the tier's cut-off (Blim itself for
// tiers 1-9, BrefE for tier 14's truncated descending limb).
type BrokenStick struct {
	BrefA float64 // upper break point; F also holds at FRefA here (kept distinct from BrefB for reporting, per the source's separate branch)
	BrefB float64 // middle break point: F reaches FRefA here, ramping down below
	BrefE float64 // tier 14 cut-off: fishing closes below this biomass instead of Blim
	Blim  float64 // cut-off: the Blim->BrefB ramp's zero point

	FRefA float64 // target fishing-mortality reference, the broken stick's plateau value

	// SpinUpScale multiplies tier 9's broken-stick F, damping the harvest
	// rate during early spin-up years before an assessment series has
	// stabilized (§4.5 "tier 9 rescales vs FrefA for spin-up stability").
	// Zero behaves as 1 (no damping).
	SpinUpScale float64
}

// TieredRule evaluates F for one stock given its tier, break points, and
// current biomass estimate (§4.5).
type TieredRule struct {
	Tier   Tier
	Points BrokenStick
}

// F returns the fishing-mortality multiplier this tier's rule prescribes
// for the given current biomass estimate.
func (r TieredRule) F(bCurr float64) float64 {
	p := r.Points
	switch r.Tier {
	case Tier13:
		// Escapement formulation: F = 1 - Blim/BrefB.
		if p.BrefB <= 0 {
			return 0
		}
		f := 1 - p.Blim/p.BrefB
		if f < 0 {
			return 0
		}
		return f
	case Tier14:
		// Same ramp as tiers 1-9, but fishing closes below BrefE instead
		// of Blim.
		return rampF(p, bCurr, p.BrefE)
	case Tier9:
		return brokenStickF(p, bCurr) * maxNonZero(p.SpinUpScale, 1)
	default:
		return brokenStickF(p, bCurr)
	}
}

// brokenStickF implements the default tiers-1-9 ramp: closed below Blim.
func brokenStickF(p BrokenStick, bCurr float64) float64 {
	return rampF(p, bCurr, p.Blim)
}

// rampF is the piecewise-linear ramp shared by tiers 1-9 and 14: flat at
// FRefA at/above BrefB, linearly ramping from 0 at Blim up to FRefA at
// BrefB below that, and closed (F=0) at or below cutoff (Blim for the
// default case, BrefE for tier 14).
func rampF(p BrokenStick, bCurr, cutoff float64) float64 {
	switch {
	case bCurr >= p.BrefB:
		return p.FRefA
	case bCurr > cutoff:
		span := p.BrefB - p.Blim
		if span <= 0 {
			return p.FRefA
		}
		frac := (bCurr - p.Blim) / span
		return p.FRefA * frac
	default:
		return 0
	}
}

func maxNonZero(v, fallback float64) float64 {
	if v <= 0 {
		return fallback
	}
	return v
}

// FScaleMode selects one of the three F-only harvest control rule modes
// (§4.5 "F-only harvest control rule").
type FScaleMode int

const (
	FScalePerSpecies FScaleMode = iota
	FScalePerGuild
	FScaleEcosystemCap
)

// FScaleInput bundles the per-(species, fleet) projection data the F-only
// rescale needs.
type FScaleInput struct {
	GroupIdx       int
	FleetCode      string
	ProjectedCatch float64 // catch projected under single-species FRefA
	GuildGroupIdxs []int   // co-species guild, for FScalePerGuild
	PreferenceWeight float64 // inverse preference weight, for FScaleEcosystemCap
}

// FScale computes mFC_scale_id, the per-(species, fleet) F multiplier
// applied next year, for the requested mode (§4.5).
func FScale(mode FScaleMode, inputs []FScaleInput, guildF map[int]float64, ecosystemCapTonnes float64) map[int]float64 {
	out := make(map[int]float64, len(inputs))
	switch mode {
	case FScalePerSpecies:
		for _, in := range inputs {
			out[in.GroupIdx] = 1.0
		}
	case FScalePerGuild:
		sums := make(map[int]float64)
		counts := make(map[int]int)
		for _, in := range inputs {
			for _, g := range in.GuildGroupIdxs {
				sums[g] += guildF[in.GroupIdx]
				counts[g]++
			}
		}
		for _, in := range inputs {
			total := 0.0
			n := 0
			for _, g := range in.GuildGroupIdxs {
				total += sums[g]
				n += counts[g]
			}
			if n > 0 {
				out[in.GroupIdx] = total / float64(n)
			} else {
				out[in.GroupIdx] = 1.0
			}
		}
	case FScaleEcosystemCap:
		totalProjected := 0.0
		totalWeight := 0.0
		for _, in := range inputs {
			totalProjected += in.ProjectedCatch
			totalWeight += in.PreferenceWeight
		}
		if ecosystemCapTonnes <= 0 || totalProjected <= ecosystemCapTonnes || totalWeight <= 0 {
			for _, in := range inputs {
				out[in.GroupIdx] = 1.0
			}
			return out
		}
		excess := totalProjected - ecosystemCapTonnes
		for _, in := range inputs {
			share := in.PreferenceWeight / totalWeight
			deduction := excess * share
			if in.ProjectedCatch <= 0 {
				out[in.GroupIdx] = 1.0
				continue
			}
			scale := (in.ProjectedCatch - deduction) / in.ProjectedCatch
			if scale < 0 {
				scale = 0
			}
			out[in.GroupIdx] = scale
		}
	}
	return out
}
