// Package flux implements the per-box flux accumulator (§4.3): per-habitat
// scratch buffers for detritus/nutrient production and loss, global
// (diagnostic) copies, and atomic-ratio deltas, committed to the tracer
// store at step end under the non-negativity floor rule.
//
// Scratch buffers are allocated from an Arena, reset once per step, rather
// than heap-allocated per process-function call (§9 "per-step scratch
// allocation" design note).
package flux

import (
	"github.com/nereusmodel/ecosim/internal/ecolog"
	"github.com/nereusmodel/ecosim/spatial"
	"github.com/nereusmodel/ecosim/tracer"
)

// HabitatAccumulator holds the scratch flux tallies for one (box, habitat)
// during a step (§3 "Detritus/nutrient prod/loss" row).
type HabitatAccumulator struct {
	// Prod/Lost are keyed by tracer index, so any nutrient/detritus/
	// atomic-ratio tracer can accumulate without a fixed enum of names.
	Prod map[int]float64
	Lost map[int]float64

	// Global* are the diagnostic copies incremented only on the
	// it_count==1 pass (§4.1 "global iteration flag").
	GlobalProd map[int]float64
	GlobalLost map[int]float64

	// TrackedMort accumulates per (preyCode, cohortIdx) mortality inflicted
	// this step, keyed by a caller-defined composite key (§4.2
	// UpdateTrackedMort).
	TrackedMort map[string]float64

	// DebugInfo is a free-form scratch map for the per-process-function
	// diagnostics named in §4.1's output contract.
	DebugInfo map[string]float64
}

func newHabitatAccumulator() *HabitatAccumulator {
	return &HabitatAccumulator{
		Prod:        make(map[int]float64),
		Lost:        make(map[int]float64),
		GlobalProd:  make(map[int]float64),
		GlobalLost:  make(map[int]float64),
		TrackedMort: make(map[string]float64),
		DebugInfo:   make(map[string]float64),
	}
}

func (h *HabitatAccumulator) reset() {
	for k := range h.Prod {
		delete(h.Prod, k)
	}
	for k := range h.Lost {
		delete(h.Lost, k)
	}
	for k := range h.GlobalProd {
		delete(h.GlobalProd, k)
	}
	for k := range h.GlobalLost {
		delete(h.GlobalLost, k)
	}
	for k := range h.TrackedMort {
		delete(h.TrackedMort, k)
	}
	for k := range h.DebugInfo {
		delete(h.DebugInfo, k)
	}
}

// Arena is the per-step scratch allocator: every box/habitat's accumulator
// is allocated once and reused, Reset() clearing it at step start.
type Arena struct {
	perBox map[int]map[spatial.Habitat]*HabitatAccumulator
}

// NewArena builds an Arena for the given grid.
func NewArena(g *spatial.Grid) *Arena {
	a := &Arena{perBox: make(map[int]map[spatial.Habitat]*HabitatAccumulator, len(g.Boxes))}
	g.VisitBoxes(func(b *spatial.Box) {
		a.perBox[b.ID] = make(map[spatial.Habitat]*HabitatAccumulator)
	})
	return a
}

// For returns the accumulator for (boxID, habitat), lazily allocating it on
// first use and reusing it thereafter (arena semantics: allocate once, zero
// on Reset).
func (a *Arena) For(boxID int, h spatial.Habitat) *HabitatAccumulator {
	habitats := a.perBox[boxID]
	acc, ok := habitats[h]
	if !ok {
		acc = newHabitatAccumulator()
		habitats[h] = acc
	}
	return acc
}

// Reset clears every allocated accumulator for the next step, without
// freeing the underlying maps (arena reuse, §9).
func (a *Arena) Reset() {
	for _, habitats := range a.perBox {
		for _, acc := range habitats {
			acc.reset()
		}
	}
}

// AddProd records a production flux, and — on the global iteration pass —
// the diagnostic global copy (§4.1 two-pass iteration flag).
func (acc *HabitatAccumulator) AddProd(tracerIdx int, amount float64, isGlobalIteration bool) {
	acc.Prod[tracerIdx] += amount
	if isGlobalIteration {
		acc.GlobalProd[tracerIdx] += amount
	}
}

// AddLost records a loss flux, and on the global pass its diagnostic copy.
func (acc *HabitatAccumulator) AddLost(tracerIdx int, amount float64, isGlobalIteration bool) {
	acc.Lost[tracerIdx] += amount
	if isGlobalIteration {
		acc.GlobalLost[tracerIdx] += amount
	}
}

// TransferContaminant moves a proportional contaminant mass from a source
// biomass pool to a destination pool when nitrogen mass transfers between
// them via predation, lysis, or mortality-to-detritus (§4.3). srcContamConc
// is the contaminant concentration (mass per unit N) of the source; massN
// is the nitrogen mass transferred.
func TransferContaminant(destAcc *HabitatAccumulator, srcAcc *HabitatAccumulator, contamTracerIdx int, massN, srcContamConc float64, isGlobalIteration bool) {
	contamMass := massN * srcContamConc
	srcAcc.AddLost(contamTracerIdx, contamMass, isGlobalIteration)
	destAcc.AddProd(contamTracerIdx, contamMass, isGlobalIteration)
}

// Commit applies prod/loss deltas to the tracer store for one (box,
// habitat, water-layer) following new = old + (prod-loss)*dt, clamping
// negative outcomes to zero and logging a warning (§4.3, §7 Numerical clamp
// event).
func (a *Arena) Commit(store *tracer.Store, box *spatial.Box, h spatial.Habitat, waterLayerIdx int, dt float64, simTime float64, logger *ecolog.Logger) {
	acc := a.For(box.ID, h)
	layerIdx := box.LayerIndex(h, waterLayerIdx)

	seen := make(map[int]struct{}, len(acc.Prod)+len(acc.Lost))
	for idx := range acc.Prod {
		seen[idx] = struct{}{}
	}
	for idx := range acc.Lost {
		seen[idx] = struct{}{}
	}

	for tracerIdx := range seen {
		val := store.At(tracerIdx, box.ID, layerIdx)
		delta := (acc.Prod[tracerIdx] - acc.Lost[tracerIdx]) * dt
		proposed := val.Get() + delta
		clamped, didClamp := store.CommitFloor(tracerIdx, proposed)
		val.Set(clamped)
		if didClamp && logger != nil {
			logger.Clampf(simTime, box.ID, layerIdx, store.Descriptor(tracerIdx).Name,
				"proposed %.6g clamped to 0", proposed)
		}
	}
}
