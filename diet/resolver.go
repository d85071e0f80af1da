// Package diet implements the diet/predation resolver (§4.2): prey
// availability snapshots, the shared Eat() grazing function used by every
// consumer process variant, and tracked-mortality bookkeeping.
package diet

import (
	"fmt"
	"math"

	"github.com/nereusmodel/ecosim/spatial"
)

// PreyKey identifies one prey slot: a prey group, its cohort, and the
// habitat it was observed in (§4.2 "PREYinfo[prey, cohort, habitat]").
type PreyKey struct {
	PreyGroupIdx int
	CohortIdx    int
	Habitat      spatial.Habitat
}

// Table is a snapshot of available biomass-N (or numbers, for
// numbers-tracked prey) keyed by PreyKey, built once at box entry so every
// predator in the box sees the same prey field regardless of call order
// (§5 "diet resolver sees a consistent prey field").
type Table map[PreyKey]float64

// Preference is the static, read-only predator/prey affinity matrix
// (§9 "Cyclic predator/prey graph... store as a sparse (predator, prey) ->
// preference matrix").
type Preference struct {
	byPredator map[int]map[int]float64
}

// NewPreference builds a Preference matrix from (predatorIdx, preyIdx, pref)
// triples.
func NewPreference(entries [][3]float64) *Preference {
	p := &Preference{byPredator: make(map[int]map[int]float64)}
	for _, e := range entries {
		pred, prey, pref := int(e[0]), int(e[1]), e[2]
		if p.byPredator[pred] == nil {
			p.byPredator[pred] = make(map[int]float64)
		}
		p.byPredator[pred][prey] = pref
	}
	return p
}

// Of returns the diet preference of predatorIdx for preyIdx, 0 if unset.
func (p *Preference) Of(predatorIdx, preyIdx int) float64 {
	if m, ok := p.byPredator[predatorIdx]; ok {
		return m[preyIdx]
	}
	return 0
}

const depthAttenuationKDEP = 5.0 // KDEP, §4.2 benthic depth-scalar constant
const epsilon = 1e-12

// BenthicDepthScalar attenuates phytoplankton availability to benthic
// predators sitting in sediment, per §4.2: (O2depth - KDEP) / O2depth.
func BenthicDepthScalar(o2Depth float64) float64 {
	if o2Depth <= 0 {
		return 0
	}
	scalar := (o2Depth - depthAttenuationKDEP) / o2Depth
	if scalar < 0 {
		return 0
	}
	return scalar
}

// Build constructs the prey availability table for one predator call from
// the box's local water/sediment/ice/epibenthic tracer snapshot. raw
// supplies, for each (preyGroupIdx, cohortIdx, habitat) the predator's
// preference matrix names, the available biomass-N; it is the caller's
// (biology package's) responsibility to pull those values out of the
// tracer store snapshot once per box, not once per predator.
func Build(raw map[PreyKey]float64, pref *Preference, predatorIdx int, isBenthic bool, o2Depth float64) Table {
	t := make(Table, len(raw))
	scalar := 1.0
	if isBenthic {
		scalar = BenthicDepthScalar(o2Depth)
	}
	for key, avail := range raw {
		p := pref.Of(predatorIdx, key.PreyGroupIdx)
		if p <= 0 {
			continue
		}
		adj := avail * p
		if isBenthic && key.Habitat == spatial.HabitatSediment {
			adj *= scalar
		}
		t[key] = adj
	}
	return t
}

// EatParams bundles the Holling type-II grazing parameters shared by every
// consumer variant (§4.1 "{C, μ_max, KL, KU, vl, ht, E1..E4}").
type EatParams struct {
	C      float64 // clearance rate
	MuMax  float64 // max specific growth rate
	KL     float64 // half-saturation, lower
	KU     float64 // half-saturation, upper (crowding)
	Vl     float64 // vulnerability exponent
	Ht     float64 // handling time
	E1, E2, E3, E4 float64 // assimilation efficiencies per prey class
}

// Result is the outcome of one Eat() call: nitrogen grazed per prey slot
// (GrazeInfo) and the parallel catch-grazing table used for contaminant/
// atomic-ratio bookkeeping (CatchGrazeInfo), plus the summed live-prey
// consumption used later for predator growth (GrazeLive, §4.2).
type Result struct {
	Graze      Table
	CatchGraze Table
	GrazeLive  float64
}

// Eat implements the shared Holling type-II grazing function (§4.1, §4.2):
// gross ingestion per prey slot is clearance-rate-limited and saturates at
// MuMax, gated by total prey availability via a Michaelis-Menten form.
// CatchGrazeInfo mirrors Graze scaled by the assimilation efficiency E1,
// matching the original's use of catch-grazing for contaminant transfer
// bookkeeping distinct from the net growth accounting.
func Eat(prey Table, p EatParams, predatorBiomassN float64) Result {
	res := Result{Graze: make(Table, len(prey)), CatchGraze: make(Table, len(prey))}

	totalAvail := 0.0
	for _, a := range prey {
		totalAvail += a
	}
	if totalAvail <= 0 || predatorBiomassN <= 0 {
		return res
	}

	// Total ingestion rate, Holling type II with handling time.
	satFrac := totalAvail / (p.KL + totalAvail + epsilon)
	totalIngest := p.C * p.MuMax * predatorBiomassN * satFrac / (1 + p.Ht*totalAvail+epsilon)

	for key, avail := range prey {
		share := avail / (totalAvail + epsilon)
		grazed := totalIngest * share
		if grazed > avail {
			grazed = avail
		}
		res.Graze[key] = grazed
		res.CatchGraze[key] = grazed * p.E1
		res.GrazeLive += grazed
	}
	return res
}

// Crowding applies the ERSEM-style quadratic crowding cap to a raw growth
// rate, (1 - μ(x,sat))^2, where sat is the area-weighted carrying capacity
// for the group in this habitat (§4.1 Invertebrate consumers).
func Crowding(rawMu, biomass, areaWeightedMax float64) float64 {
	if areaWeightedMax <= 0 {
		return 0
	}
	frac := biomass / areaWeightedMax
	if frac > 1 {
		frac = 1
	}
	factor := math.Pow(1-frac, 2)
	return rawMu * factor
}

// LinearCrowding applies the simpler linear cap variant named as an
// alternative to the ERSEM quadratic form in §4.1.
func LinearCrowding(rawMu, biomass, areaWeightedMax float64) float64 {
	if areaWeightedMax <= 0 {
		return 0
	}
	frac := biomass / areaWeightedMax
	if frac > 1 {
		frac = 1
	}
	return rawMu * (1 - frac)
}

// TrackedMortKey builds the composite key used by UpdateTrackedMort and the
// flux accumulator's TrackedMort map (§4.2 "per (prey, prey-cohort,
// habitat)").
func TrackedMortKey(preyGroupIdx, cohortIdx int, h spatial.Habitat) string {
	return fmt.Sprintf("%d/%d/%d", preyGroupIdx, cohortIdx, h)
}

// UpdateTrackedMort accumulates mortality inflicted on (preyGroupIdx,
// cohortIdx) in habitat h into the box's tracked-mortality ledger (§4.2).
func UpdateTrackedMort(trackedMort map[string]float64, preyGroupIdx, cohortIdx int, h spatial.Habitat, amount float64) {
	trackedMort[TrackedMortKey(preyGroupIdx, cohortIdx, h)] += amount
}
