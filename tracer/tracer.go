// Package tracer holds the single canonical numerical state of a run: every
// named scalar field (biomass, numbers, structural/reserve nitrogen,
// detritus, nutrients, oxygen, pH, light, contaminants, atomic-ratio
// tracers) at every box x layer. Per the concurrency model, the Store is the
// only mutable shared state in the simulation; all step-time writes are
// funnelled through flux commits, never written directly by process
// functions.
package tracer

import (
	"fmt"

	"github.com/nereusmodel/ecosim/tracer/atomicfloat"
)

// Kind classifies a tracer for unit and non-negativity policy purposes.
type Kind int

const (
	KindBiomass Kind = iota
	KindNumbers
	KindStructN
	KindResN
	KindDetritus
	KindNutrient
	KindGas
	KindLight
	KindContaminant
	KindRatio
)

// SumPolicy describes how a tracer's per-layer values aggregate to a
// box/column total (used by reporting and by budget checks).
type SumPolicy int

const (
	SumAdditive SumPolicy = iota
	SumConcentrationWeighted
)

// Descriptor is the static, catalogue-level definition of a tracer.
type Descriptor struct {
	Name       string
	Kind       Kind
	Units      string
	SumPolicy  SumPolicy
	NonNeg     bool // physically required to stay >= 0
}

// Value is the live, per-box-per-layer cell for one tracer. It is backed by
// an atomic float so the step loop (sole writer) and the live monitor
// (sole concurrent reader) never race without locks.
type Value struct {
	v *atomicfloat.Float64
}

func newValue(initial float64) Value {
	return Value{v: atomicfloat.New(initial)}
}

// Get reads the current value.
func (val Value) Get() float64 { return val.v.Load() }

// Set overwrites the current value (used only by the commit pass).
func (val Value) Set(x float64) { val.v.Store(x) }

// Store is the per-run tracer catalogue plus live value grid, indexed
// [tracerIndex][boxID][layerIndex].
type Store struct {
	descriptors []Descriptor
	index       map[string]int
	// values[tracerIdx][boxID][layerIdx]
	values [][][]Value
	// ClampWarnings counts numerical clamp events (§7 Numerical clamp event).
	ClampWarnings int
}

// NewStore builds an empty store for the given descriptors, sized to
// numBoxes boxes each with layersPerBox[boxID] layers (water columns may
// differ in depth; the sediment layer is modelled as an extra trailing
// layer by convention — see spatial.Box.LayerIndex).
func NewStore(descriptors []Descriptor, layersPerBox []int) *Store {
	s := &Store{
		descriptors: descriptors,
		index:       make(map[string]int, len(descriptors)),
		values:      make([][][]Value, len(descriptors)),
	}
	for i, d := range descriptors {
		s.index[d.Name] = i
		s.values[i] = make([][]Value, len(layersPerBox))
		for b, nLayers := range layersPerBox {
			s.values[i][b] = make([]Value, nLayers)
			for l := 0; l < nLayers; l++ {
				s.values[i][b][l] = newValue(0)
			}
		}
	}
	return s
}

// Index resolves a tracer name to its integer handle, the only stable
// reference kept by groups/cohorts/fleets per §9's index-based design note.
func (s *Store) Index(name string) (int, bool) {
	idx, ok := s.index[name]
	return idx, ok
}

// MustIndex is Index but panics on an unknown tracer name; reserved for
// init-time wiring where a missing tracer is a configuration error.
func (s *Store) MustIndex(name string) int {
	idx, ok := s.index[name]
	if !ok {
		panic(fmt.Sprintf("tracer: unknown tracer %q", name))
	}
	return idx
}

// At returns the live value cell for (tracer, box, layer).
func (s *Store) At(tracerIdx, boxID, layerIdx int) Value {
	return s.values[tracerIdx][boxID][layerIdx]
}

// Descriptor returns the static descriptor for a tracer index.
func (s *Store) Descriptor(tracerIdx int) Descriptor {
	return s.descriptors[tracerIdx]
}

// NumLayers reports how many layers box boxID carries for every tracer.
func (s *Store) NumLayers(boxID int) int {
	if len(s.values) == 0 {
		return 0
	}
	return len(s.values[0][boxID])
}

// CommitFloor clamps a post-flux value to zero when the tracer is physically
// non-negative and the computed value would go negative, incrementing the
// warning counter (§4.3, §7 Numerical clamp event). Returns the clamped
// value and whether a clamp occurred.
func (s *Store) CommitFloor(tracerIdx int, proposed float64) (float64, bool) {
	if s.descriptors[tracerIdx].NonNeg && proposed < 0 {
		s.ClampWarnings++
		return 0, true
	}
	return proposed, false
}
