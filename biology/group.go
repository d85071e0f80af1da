// Package biology holds the functional-group catalogue (§2 Functional-group
// registry, §3 FunctionalGroup/Cohort) and the polymorphic process
// dispatcher (§4.1). Per §9's design note, group-kind dispatch uses a tagged
// variant (GroupKind) plus a table of process functions, not a virtual
// class hierarchy: each kind's parameter layout differs enough that
// composition reads cleaner than inheritance.
package biology

import "github.com/nereusmodel/ecosim/spatial"

// GroupKind tags which process-function variant a FunctionalGroup uses
// (§2 "kind (variant: primary producer, dinoflagellate, ...)").
type GroupKind int

const (
	KindPrimaryProducer GroupKind = iota
	KindDinoflagellate
	KindPelagicBacteria
	KindSedimentBacteria
	KindInvertConsumer // zooplankton, benthos, cephalopod, prawn, epibenthos, filter feeder
	KindCoral
	KindDetritusLabile
	KindDetritusRefractory
	KindCarrion
)

// AgeModel tags how a group tracks population structure (§2).
type AgeModel int

const (
	AgeSingleBiomass AgeModel = iota
	AgeStructuredBiomass
	AgeNumbersAge
)

// Stage is a cohort's life stage (§3 Cohort.stage).
type Stage int

const (
	StageJuvenile Stage = iota
	StageAdult
)

// Genotype is a per-cohort parameter overlay (SPEC_FULL.md §3, supplemented
// from original_source/atlantis/atecology/atGroupProcesses.c, which threads
// a genotype index through growth/mortality lookups for age-structured
// groups). Genotypes let two cohorts of the same group carry distinct
// growth-parameter sets, e.g. stock substructure within one species.
type Genotype struct {
	Code         string
	GrowthScalar float64 // multiplies the group's base growth rate
	MortScalar   float64 // multiplies the group's base linear mortality
}

// Cohort is one age/size class within a FunctionalGroup (§3 Cohort).
type Cohort struct {
	Index       int
	Stage       Stage
	MeanWgt     float64 // mean individual weight; > 0 if Numbers > 0
	Numbers     float64 // >= 0
	GenotypeIdx int
}

// HabitatAffinity gives a group's non-zero-affinity habitats, the
// dispatcher's filter for which (box, layer, habitat) triples a group
// participates in (§4.1 "iterates functional groups whose habitat affinity
// is non-zero").
type HabitatAffinity map[spatial.Habitat]float64

// FunctionalGroup is the static catalogue entry for one species/guild
// (§3 FunctionalGroup).
type FunctionalGroup struct {
	Code      string
	Kind      GroupKind
	AgeModel  AgeModel
	Cohorts   []Cohort
	Genotypes []Genotype
	NumStocks int

	Affinity HabitatAffinity

	// Depth/activity gate parameters (§4.1 common gate).
	Active     bool
	MinDepth   float64
	MaxDepth   float64
	MaxTotDepth float64

	// Management linkage flags (§3 invariant: isFished/isTAC/isImpacted
	// consistent with referenced fleets).
	IsFished   bool
	IsTAC      bool
	IsImpacted bool

	// Tracer handles, resolved once at init against the tracer.Store
	// (§9 index-based "pointers").
	BiomassIdx int
	NumbersIdx int
	StructNIdx int
	ResNIdx    int
	DetritusLabileIdx     int
	DetritusRefractoryIdx int

	// Params is the kind-specific parameter bundle (PhytoParams,
	// DinoParams, BacteriaParams, ConsumerParams, CoralParams,
	// DetritusParams, CarrionParams), type-asserted by the matching
	// process function.
	Params interface{}
}

// TotalNumbers returns the group's total numbers summed across cohorts.
func (g *FunctionalGroup) TotalNumbers() float64 {
	total := 0.0
	for _, c := range g.Cohorts {
		total += c.Numbers
	}
	return total
}

// Registry is the run-wide catalogue of functional groups, owned by the
// simulation context and passed by reference (§9 "Global tables of species
// parameters... re-architect as a single Registry object").
type Registry struct {
	Groups []FunctionalGroup
	byCode map[string]int
}

// NewRegistry builds a Registry from a group list.
func NewRegistry(groups []FunctionalGroup) *Registry {
	r := &Registry{Groups: groups, byCode: make(map[string]int, len(groups))}
	for i, g := range groups {
		r.byCode[g.Code] = i
	}
	return r
}

// ByCode resolves a group by its catalogue code.
func (r *Registry) ByCode(code string) (*FunctionalGroup, bool) {
	idx, ok := r.byCode[code]
	if !ok {
		return nil, false
	}
	return &r.Groups[idx], true
}

// Visit calls fn for every group in catalogue order (deterministic —
// §4.4 "species and fleets are processed in configured catalogue order").
func (r *Registry) Visit(fn func(g *FunctionalGroup)) {
	for i := range r.Groups {
		fn(&r.Groups[i])
	}
}
