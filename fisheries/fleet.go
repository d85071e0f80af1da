// Package fisheries implements the harvest/effort engine (§4.4): fleet
// catalogue, per-(box, fleet) effort fields, the eleven effort-model
// variants, and the per-step allocation/displacement/catch sequence.
package fisheries

import "github.com/nereusmodel/ecosim/spatial"

// Selectivity gives a fleet's per-cohort catchability for one species, a
// simple size/age selectivity curve sampled at cohort resolution.
type Selectivity struct {
	GroupIdx  int
	PerCohort []float64 // indexed by cohort; 0 = fully excluded, 1 = fully selected

	// Q is mFC, the fleet's catchability coefficient for this species
	// (§4.4 step 8 "F = mFC · mFC_scale · sel · mpa · change_scale").
	// <= 0 behaves as 1 (no catchability data configured).
	Q float64

	// DiscardFraction is the fraction of this (fleet, group) catch
	// discarded rather than retained, in [0, 1] (§3 Fleet invariant
	// "0 <= discardFraction <= 1").
	DiscardFraction float64
}

// Fleet is the static catalogue entry for one gear/fishery (§3 Fleet).
type Fleet struct {
	Code string

	// Regions/boxes this fleet is licensed to operate in.
	HomePortBoxID int
	EligibleBoxes []int

	Selectivities []Selectivity

	// EffortModel selects which of the eleven §4.4 step-5 variants this
	// fleet uses to distribute daily effort across its eligible boxes.
	EffortModel EffortModel

	// Cap bounds this fleet's summed effort for one step: when a step's
	// total exceeds it, every box's effort is scaled down pro rata (§4.4
	// step 7). CumEffort is not checked against it.
	Cap float64
	// AllowEffortDrop mirrors config.FisheriesConfig.AllowEffortDrop but
	// can be overridden per fleet.
	AllowEffortDrop bool

	// NeedsShots marks fleets the CPUE synthesiser (§4.6) must generate
	// shot-level records for (flagneed_shots_id).
	NeedsShots bool
	SubfleetFlexWeights []float64

	// IsTestFishEligible marks fleets that receive mEff_testfish once a
	// year in boxes that otherwise received no CPUE-driven effort.
	IsTestFishEligible bool

	// CompanionGroupIdxs/BasketGroupIdxs name this fleet's TAC-linked
	// species for the management engine's companion/basket rescaling
	// (§4.5).
	CompanionGroupIdxs []int
	BasketGroupIdxs    []int
}

// EffortField carries one fleet's per-box effort state across a step
// (§3 EffortField).
type EffortField struct {
	Effort      map[int]float64 // current day's effort, by box ID
	OldEffort   map[int]float64 // previous day's effort, snapshotted at step start
	CumEffort   map[int]float64 // year-to-date cumulative effort
	GhostEffort map[int]float64 // effort displaced out of each box (already moved to the neighbour)

	TempCPUE map[int]float64 // recent per-box CPUE estimate (§4.4 step 3)

	TestFishUsedThisYear bool
}

// NewEffortField allocates a zeroed EffortField.
func NewEffortField() *EffortField {
	return &EffortField{
		Effort:      make(map[int]float64),
		OldEffort:   make(map[int]float64),
		CumEffort:   make(map[int]float64),
		GhostEffort: make(map[int]float64),
		TempCPUE:    make(map[int]float64),
	}
}

// Snapshot performs §4.4 step 1: OldEffort <- Effort, then resets Effort
// and TempCPUE for the new day.
func (ef *EffortField) Snapshot() {
	for k := range ef.OldEffort {
		delete(ef.OldEffort, k)
	}
	for box, v := range ef.Effort {
		ef.OldEffort[box] = v
	}
	for k := range ef.Effort {
		delete(ef.Effort, k)
	}
	for k := range ef.TempCPUE {
		delete(ef.TempCPUE, k)
	}
	for k := range ef.GhostEffort {
		delete(ef.GhostEffort, k)
	}
}

// FishableBoxes filters a fleet's eligible boxes down to those the grid
// still considers fishable (not boundary/land, §2).
func FishableBoxes(g *spatial.Grid, f *Fleet) []int {
	out := make([]int, 0, len(f.EligibleBoxes))
	for _, id := range f.EligibleBoxes {
		if b := g.Box(id); b != nil && b.IsFishable() {
			out = append(out, id)
		}
	}
	return out
}
