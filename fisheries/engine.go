package fisheries

import (
	"math"

	"github.com/nereusmodel/ecosim/biology"
	"github.com/nereusmodel/ecosim/spatial"
	"github.com/nereusmodel/ecosim/tracer"
)

// ManagementSignals bundles the per-fleet, per-box scalars the management
// engine computes ahead of the harvest step (§4.4 step 4: EFF_scale0..4,
// MPA activation, port share). Kept as plain data rather than an interface
// back into package management, so fisheries never imports management
// (management imports fisheries for TAC bookkeeping instead).
type ManagementSignals struct {
	// EffScale[fleetCode] is the product of EFF_scale0..4 for that fleet
	// today (stock-adaptive trigger, TAC check, PET trigger, prescribed
	// multiplier schedule, seasonal open/close).
	EffScale map[string]float64

	// MPAMultiplier[boxID] is 0 for a closed box, 1 otherwise (or a
	// fractional partial-closure scalar).
	MPAMultiplier map[int]float64

	// PortShare[boxID] is the distance/population-weighted port
	// contribution scalar for today.
	PortShare map[int]float64

	// FleetClosed marks fleets that have exceeded max_num_sp species over
	// TAC and must stop fishing entirely today.
	FleetClosed map[string]bool
}

// CatchRecord is one (box, group, cohort, fleet) catch outcome from step 8.
type CatchRecord struct {
	BoxID      int
	GroupIdx   int
	CohortIdx  int
	FleetCode  string
	Retained   float64
	Discarded  float64
}

// Engine drives the per-step harvest/effort sequence of §4.4.
type Engine struct {
	Grid   *spatial.Grid
	Fleets []*Fleet
	Fields map[string]*EffortField // by fleet code

	Cfg struct {
		EffortDisplacementThreshold float64
		TestFishEffort              float64
		AllowEffortDrop             bool
		FlagTACIncludeDiscard       bool
		BoatSpeedInertia            float64
	}

	// CumCatch[groupIdx][boxID] supports regional catch-share
	// normalisation (§4.4 step 2).
	CumCatch map[int]map[int]float64
	// LastCatch[groupIdx][fleetCode][boxID] feeds the recent-CPUE formula
	// (§4.4 step 3).
	LastCatch map[int]map[string]map[int]float64
	// TargetWeight[fleetCode][groupIdx] is target_weight[f,sp].
	TargetWeight map[string]map[int]float64
}

// NewEngine wires an Engine over a grid and fleet roster, allocating one
// EffortField per fleet.
func NewEngine(g *spatial.Grid, fleets []*Fleet) *Engine {
	e := &Engine{
		Grid:         g,
		Fleets:       fleets,
		Fields:       make(map[string]*EffortField, len(fleets)),
		CumCatch:     make(map[int]map[int]float64),
		LastCatch:    make(map[int]map[string]map[int]float64),
		TargetWeight: make(map[string]map[int]float64),
	}
	for _, f := range fleets {
		e.Fields[f.Code] = NewEffortField()
	}
	return e
}

// Step runs the full §4.4 per-step sequence: snapshot, regional
// distribution, recent CPUE, management pre-checks (supplied via sig),
// allocation, displacement, final scaling, then catch computation.
func (e *Engine) Step(reg *biology.Registry, store *tracer.Store, sig ManagementSignals,
	dayOfYear, quarterOfYear int, dt float64, cpueUsedToday map[string]bool) []CatchRecord {

	// Step 1: snapshot.
	for _, f := range e.Fleets {
		e.Fields[f.Code].Snapshot()
	}

	// Step 2: regional catch distribution. e.CumCatch already accumulates
	// per (group, box); callers that need a region's share (the HCR/
	// report layer) normalise directly off that map, so there's nothing
	// for the engine itself to mutate at this point in the sequence.

	// Step 3: per-box recent CPUE.
	for _, f := range e.Fleets {
		field := e.Fields[f.Code]
		for _, boxID := range f.EligibleBoxes {
			num := 0.0
			for groupIdx, byFleet := range e.LastCatch {
				tw := e.TargetWeight[f.Code][groupIdx]
				if tw <= 0 {
					continue
				}
				num += byFleet[f.Code][boxID] * tw
			}
			denom := field.OldEffort[boxID] + 1e-9
			field.TempCPUE[boxID] = num / denom
		}
	}

	// Step 4: management pre-checks are supplied via sig, already folded
	// into per-fleet EffScale/FleetClosed and per-box MPA/port share.

	// Step 5: allocate box effort per fleet's EffortModel.
	for _, f := range e.Fleets {
		field := e.Fields[f.Code]
		if sig.FleetClosed[f.Code] {
			continue
		}
		effScale := sig.EffScale[f.Code]
		if effScale <= 0 {
			continue
		}
		boxes := FishableBoxes(e.Grid, f)
		if len(boxes) == 0 {
			continue
		}

		portWeighted := make(map[int]float64, len(boxes))
		for _, b := range boxes {
			portWeighted[b] = sig.PortShare[b]
		}

		ctx := &AllocationContext{
			Fleet:             f,
			Field:             field,
			Boxes:             boxes,
			DayOfYear:         dayOfYear,
			QuarterOfYear:     quarterOfYear,
			TotalEffortTarget: effScale,
			DistPeak:          1,
			Dt:                dt,
		}
		shares := f.EffortModel.Allocate(ctx)

		usedCPUE := false
		for _, b := range boxes {
			mpa := mpaMultiplierFor(sig.MPAMultiplier, b)
			alloc := shares[b] * effScale * mpa * portWeighted[b]
			if alloc > 0 {
				field.Effort[b] += alloc
				usedCPUE = usedCPUE || field.TempCPUE[b] > 0
			}
		}
		if dayOfYear == 0 {
			field.TestFishUsedThisYear = false
		}
		if !usedCPUE && dayOfYear == 364 {
			field.TestFishUsedThisYear = ApplyTestFish(f, field.Effort, e.Cfg.TestFishEffort, field.TestFishUsedThisYear)
		}
	}

	// Step 6: displacement.
	for _, f := range e.Fleets {
		field := e.Fields[f.Code]
		for _, boxID := range f.EligibleBoxes {
			cpue := field.TempCPUE[boxID]
			if cpue >= e.Cfg.EffortDisplacementThreshold || field.Effort[boxID] <= 0 {
				continue
			}
			box := e.Grid.Box(boxID)
			if box == nil {
				continue
			}
			target := e.Grid.MostProductiveNeighbour(box, func(id int) bool {
				mpa := mpaMultiplierFor(sig.MPAMultiplier, id)
				return mpa != 0 && fleetAllows(f, id)
			}, func(id int) float64 {
				return field.TempCPUE[id]
			})
			if target < 0 {
				continue
			}
			displaced := field.Effort[boxID] * 0.5
			field.Effort[boxID] -= displaced
			field.GhostEffort[boxID] += displaced
			field.Effort[target] += displaced
		}
	}

	// Step 7: final effort scaling.
	for _, f := range e.Fleets {
		field := e.Fields[f.Code]
		total := 0.0
		for _, v := range field.Effort {
			total += v
		}
		oldTotal := 0.0
		for _, v := range field.OldEffort {
			oldTotal += v
		}
		if !e.Cfg.AllowEffortDrop && !f.AllowEffortDrop && total > 0 && total < oldTotal {
			scale := oldTotal / total
			for b := range field.Effort {
				field.Effort[b] *= scale
			}
			total = oldTotal
		}
		cap := f.Cap
		if cap > 0 && total > cap {
			scale := cap / total
			for b := range field.Effort {
				field.Effort[b] *= scale
			}
		}
		for b, v := range field.Effort {
			field.CumEffort[b] += v
		}
	}

	return e.computeCatch(reg, store, dt, sig.MPAMultiplier)
}

func fleetAllows(f *Fleet, boxID int) bool {
	for _, b := range f.EligibleBoxes {
		if b == boxID {
			return true
		}
	}
	return false
}

// mpaMultiplierFor resolves a box's MPA scalar: absent entries mean
// "open" (1); a present-but-zero entry means the box is fully closed and
// must collapse neither effort nor catch to "unset = open" (§3 MPA
// schedule, §4.4 step 8).
func mpaMultiplierFor(mpaMultiplier map[int]float64, boxID int) float64 {
	mpa, ok := mpaMultiplier[boxID]
	if !ok {
		return 1
	}
	return mpa
}

const defaultNaturalMortality = 0.2

// naturalMortality sources M for the Baranov catch equation from the
// group's own process parameters (§4.4 step 8), falling back to a
// default baseline for groups/kinds that don't carry one.
func naturalMortality(g *biology.FunctionalGroup) float64 {
	if p, ok := g.Params.(*biology.ConsumerParams); ok && p.LinearMortality > 0 {
		return p.LinearMortality
	}
	return defaultNaturalMortality
}

// computeCatch implements §4.4 step 8: Baranov-style catch for every
// (box, group, cohort, fleet) overlap, with F = effort · sel · q · mpa (q is
// the Selectivity's mFC); no mFC_scale or change_scale factor is applied.
func (e *Engine) computeCatch(reg *biology.Registry, store *tracer.Store, dt float64, mpaMultiplier map[int]float64) []CatchRecord {
	var out []CatchRecord
	reg.Visit(func(g *biology.FunctionalGroup) {
		if !g.IsFished {
			return
		}
		groupIdx := groupIndex(reg, g)
		mortalityM := naturalMortality(g)

		for _, f := range e.Fleets {
			field := e.Fields[f.Code]
			sel := selectivityFor(f, groupIdx)
			if sel == nil {
				continue
			}
			for boxID, effort := range field.Effort {
				if effort <= 0 {
					continue
				}
				box := e.Grid.Box(boxID)
				if box == nil {
					continue
				}
				mpa := mpaMultiplierFor(mpaMultiplier, boxID)
				if mpa <= 0 {
					continue
				}
				groupBiomass := store.At(g.BiomassIdx, boxID, box.LayerIndex(spatial.HabitatWater, 0)).Get()
				if groupBiomass <= 0 {
					continue
				}
				cohortBiomass := apportionBiomass(g, sel, groupBiomass)

				q := sel.Q
				if q <= 0 {
					q = 1
				}

				for ci, cohortSel := range sel.PerCohort {
					if cohortSel <= 0 || ci >= len(g.Cohorts) {
						continue
					}
					biomass := cohortBiomass[ci]
					if biomass <= 0 {
						continue
					}
					fMort := effort * cohortSel * q * mpa
					total := fMort + mortalityM
					fracCaught := (fMort / total) * (1 - math.Exp(-total*dt))
					caught := biomass * fracCaught
					discarded := caught * sel.DiscardFraction
					retained := caught - discarded

					if e.LastCatch[groupIdx] == nil {
						e.LastCatch[groupIdx] = make(map[string]map[int]float64)
					}
					if e.LastCatch[groupIdx][f.Code] == nil {
						e.LastCatch[groupIdx][f.Code] = make(map[int]float64)
					}
					e.LastCatch[groupIdx][f.Code][boxID] += retained

					if e.CumCatch[groupIdx] == nil {
						e.CumCatch[groupIdx] = make(map[int]float64)
					}
					e.CumCatch[groupIdx][boxID] += retained

					out = append(out, CatchRecord{
						BoxID: boxID, GroupIdx: groupIdx, CohortIdx: ci,
						FleetCode: f.Code, Retained: retained, Discarded: discarded,
					})
				}
			}
		}
	})
	return out
}

// apportionBiomass splits a group's single tracked biomass pool across
// the cohorts a fleet's selectivity curve actually catches, weighted by
// each cohort's share of numbers*mean-weight (falling back to an equal
// split when that's unavailable), so a multi-cohort group doesn't have
// its whole-group biomass counted once per cohort (§4.4 step 8).
func apportionBiomass(g *biology.FunctionalGroup, sel *Selectivity, total float64) map[int]float64 {
	weights := make(map[int]float64)
	sum := 0.0
	for ci, cohortSel := range sel.PerCohort {
		if cohortSel <= 0 || ci >= len(g.Cohorts) {
			continue
		}
		w := g.Cohorts[ci].Numbers * g.Cohorts[ci].MeanWgt
		weights[ci] = w
		sum += w
	}

	out := make(map[int]float64, len(weights))
	if len(weights) == 0 {
		return out
	}
	if sum > 0 {
		for ci, w := range weights {
			out[ci] = total * (w / sum)
		}
		return out
	}
	share := total / float64(len(weights))
	for ci := range weights {
		out[ci] = share
	}
	return out
}

func groupIndex(reg *biology.Registry, g *biology.FunctionalGroup) int {
	for i := range reg.Groups {
		if &reg.Groups[i] == g {
			return i
		}
	}
	return -1
}

func selectivityFor(f *Fleet, groupIdx int) *Selectivity {
	for i := range f.Selectivities {
		if f.Selectivities[i].GroupIdx == groupIdx {
			return &f.Selectivities[i]
		}
	}
	return nil
}
