package biology

import (
	"math/rand"

	"github.com/nereusmodel/ecosim/config"
	"github.com/nereusmodel/ecosim/diet"
	"github.com/nereusmodel/ecosim/flux"
	"github.com/nereusmodel/ecosim/spatial"
	"github.com/nereusmodel/ecosim/tracer"
)

// ProcessContext bundles everything a process function needs for one
// (box, layer, habitat, group) invocation (§4.1 "Inputs: box/layer context,
// local copies of required tracer values... scheduling flags").
type ProcessContext struct {
	Box     *spatial.Box
	LayerIdx int // water-layer index; meaningless for non-water habitats
	Habitat spatial.Habitat

	Store *tracer.Store
	Acc   *flux.HabitatAccumulator

	Dt float64
	// ItCount is the pass number within the step; IsGlobalIteration is true
	// on the single pass that owns diagnostic global flux tallies
	// (§4.1 "it_count == 1").
	ItCount           int
	IsGlobalIteration bool

	Cfg  *config.ScenarioConfig
	Pref *diet.Preference
	Rand *rand.Rand

	// PreyRaw is the unweighted prey-availability snapshot built once at box
	// entry (§4.2): biomass-N per (preyGroupIdx, cohortIdx, habitat),
	// before any predator's preference matrix is applied.
	PreyRaw map[diet.PreyKey]float64

	// O2Depth is the oxygen-penetration depth at this box, used by
	// diet.Build's benthic depth-scalar attenuation for sediment-feeding
	// predators (§4.2).
	O2Depth float64

	// PreyTable is the per-predator preference-weighted view of PreyRaw,
	// rebuilt by RunBox immediately before each grazing group's (invertebrate
	// consumer, coral, dinoflagellate) process function runs (§4.2 "every
	// predator in the box sees the same
	// prey field regardless of call order" — same raw field, predator-
	// specific weighting).
	PreyTable diet.Table

	// GroupBiomassIdx maps a functional-group registry index (as carried
	// by diet.PreyKey.PreyGroupIdx) to that group's biomass tracer handle,
	// so grazing bookkeeping can debit the right tracer without every
	// process function needing a Registry reference (§9 index-based
	// cross-referencing).
	GroupBiomassIdx []int
}

// ProcessFunc is the shared contract every group-kind variant implements
// (§4.1): it reads ctx's snapshotted tracer values, mutates ctx.Acc, and
// never touches the tracer store directly (writes are committed once per
// box after every group has run, §5).
type ProcessFunc func(ctx *ProcessContext, g *FunctionalGroup)

// Dispatcher holds the group-kind -> process-function table (§9 "the
// dispatcher is a table of function references indexed by kind. Avoid
// virtual hierarchies").
type Dispatcher struct {
	fns map[GroupKind]ProcessFunc
}

// NewDispatcher builds the standard dispatch table, wiring every variant
// named in §4.1.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{fns: map[GroupKind]ProcessFunc{
		KindPrimaryProducer:    ProcessPrimaryProducer,
		KindDinoflagellate:     ProcessDinoflagellate,
		KindPelagicBacteria:    ProcessPelagicBacteria,
		KindSedimentBacteria:   ProcessSedimentBacteria,
		KindInvertConsumer:     ProcessInvertConsumer,
		KindCoral:              ProcessCoral,
		KindDetritusLabile:     ProcessDetritusLabile,
		KindDetritusRefractory: ProcessDetritusRefractory,
		KindCarrion:            ProcessCarrion,
	}}
}

// ActivityGate implements the depth/activity gate common to every variant
// (§4.1 "a group acts only when its activity flag is set and
// -box.botz <= maxtotdepth and mindepth <= current_depth <= maxdepth").
func ActivityGate(g *FunctionalGroup, box *spatial.Box, currentDepth float64) bool {
	if !g.Active {
		return false
	}
	if -box.BotZ > g.MaxTotDepth && g.MaxTotDepth > 0 {
		return false
	}
	if g.MinDepth > 0 && currentDepth < g.MinDepth {
		return false
	}
	if g.MaxDepth > 0 && currentDepth > g.MaxDepth {
		return false
	}
	return true
}

// RunBox dispatches every group with non-zero affinity for ctx.Habitat
// against its process function, honoring the ordering rule in §4.1:
// primary producers and bacteria are processed before consumers within a
// box so that prey-pool *flux* updates are fresh, even though all tracer
// *reads* were snapshotted at box entry.
func (d *Dispatcher) RunBox(ctx *ProcessContext, reg *Registry) {
	order := []GroupKind{
		KindPrimaryProducer, KindDinoflagellate,
		KindPelagicBacteria, KindSedimentBacteria,
		KindDetritusLabile, KindDetritusRefractory, KindCarrion,
		KindInvertConsumer, KindCoral,
	}
	isBenthic := ctx.Habitat == spatial.HabitatSediment || ctx.Habitat == spatial.HabitatEpibenthic
	for _, kind := range order {
		fn, ok := d.fns[kind]
		if !ok {
			continue
		}
		for i := range reg.Groups {
			g := &reg.Groups[i]
			if g.Kind != kind {
				continue
			}
			if g.Affinity[ctx.Habitat] <= 0 {
				continue
			}
			if kind == KindInvertConsumer || kind == KindCoral || kind == KindDinoflagellate {
				ctx.PreyTable = diet.Build(ctx.PreyRaw, ctx.Pref, i, isBenthic, ctx.O2Depth)
			}
			fn(ctx, g)
		}
	}
}

// oxygenMortality implements the shared oxygen-driven linear-mortality
// addition applied before consumer activities are computed (§4.1 edge
// case: "mO * (1 - hO) is added to the group's linear mortality").
func oxygenMortality(mO, hO float64) float64 {
	return mO * (1 - hO)
}

// hollingLight computes the light-limitation factor hI(light) shared by
// phytoplankton/dinoflagellate/coral-symbiont growth, a simple saturating
// (Michaelis-Menten) response.
func hollingLight(light, kLight float64) float64 {
	if light <= 0 {
		return 0
	}
	return light / (kLight + light)
}

// liebigMin implements Liebig's-law multi-nutrient limitation: growth is
// capped by whichever nutrient is scarcest (§4.1 phytoplankton).
func liebigMin(factors ...float64) float64 {
	if len(factors) == 0 {
		return 0
	}
	m := factors[0]
	for _, f := range factors[1:] {
		if f < m {
			m = f
		}
	}
	if m < 0 {
		return 0
	}
	return m
}

// monod computes a single-nutrient Michaelis-Menten limitation term.
func monod(conc, halfSat float64) float64 {
	if conc <= 0 {
		return 0
	}
	return conc / (halfSat + conc)
}
