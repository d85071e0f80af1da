// Package spatial implements the finite polygonal-box grid (§2 Spatial
// grid, §3 Box/Layer). Box adjacency is a sparse graph rather than the
// teacher's dense rectangular grid (niceyeti-tabular's grid_world.go states
// [x][y][vx][vy]); Grid.Visit* below plays the same traversal role the
// teacher's Visit/VisitXYStates helpers played over that dense array.
package spatial

// Type classifies a Box (§3 Box.type).
type Type int

const (
	Dynamic Type = iota
	Boundary
	Land
)

// Layer is one water-column slab of a Box, ordered 0 (deepest) to surface.
type Layer struct {
	// DzMeters is the layer thickness; must be > 0 for water layers (§3
	// invariant).
	DzMeters float64
}

// Habitat enumerates the per-box habitats the dispatcher visits (§4.1):
// water-column layers are visited individually, then sediment, then
// epibenthic, then optionally ice/land.
type Habitat int

const (
	HabitatWater Habitat = iota
	HabitatSediment
	HabitatEpibenthic
	HabitatIce
	HabitatLand
)

// Box is one polygon of the spatial grid.
type Box struct {
	ID       int
	Type     Type
	Area     float64 // m^2
	BotZ     float64 // bottom depth, negative convention (§4.1 gate uses -box.botz)
	RegionID int

	// Layers is the water-column stack, index 0 = deepest.
	Layers []Layer
	// HasSediment / HasIce / HasEpibenthic toggle the optional habitats
	// named in §2.
	HasSediment   bool
	HasIce        bool
	HasEpibenthic bool

	// Neighbors holds the IDs of adjacent boxes (sparse adjacency graph,
	// §2 "Neighbour adjacency is a sparse graph").
	Neighbors []int
}

// Depth returns the total water-column depth (sum of layer thicknesses),
// which must equal the box's nominal depth per the §3 invariant "Sum of
// layer Δz = depth".
func (b *Box) Depth() float64 {
	total := 0.0
	for _, l := range b.Layers {
		total += l.DzMeters
	}
	return total
}

// IsFishable reports whether harvest/effort activity can target this box at
// all (boundary and land boxes never are).
func (b *Box) IsFishable() bool {
	return b.Type == Dynamic
}

// TracerLayerSlots returns the total number of tracer-store layer slots
// this box occupies: its water layers, plus one trailing slot each for
// sediment/ice/epibenthic when present, in that fixed order. tracer.Store
// sizes its per-box layer dimension from this.
func (b *Box) TracerLayerSlots() int {
	n := len(b.Layers)
	if b.HasSediment {
		n++
	}
	if b.HasIce {
		n++
	}
	if b.HasEpibenthic {
		n++
	}
	return n
}

// LayerIndex maps a (habitat, water-layer-index) pair to the flat tracer
// layer slot used by tracer.Store. waterLayerIdx is ignored for non-water
// habitats.
func (b *Box) LayerIndex(h Habitat, waterLayerIdx int) int {
	if h == HabitatWater {
		return waterLayerIdx
	}
	idx := len(b.Layers)
	if h == HabitatSediment {
		return idx
	}
	if b.HasSediment {
		idx++
	}
	if h == HabitatIce {
		return idx
	}
	if b.HasIce {
		idx++
	}
	// HabitatEpibenthic (and HabitatLand, which shares the epibenthic slot
	// since land-based habitat processing is mutually exclusive with it in
	// practice)
	return idx
}

// LayerDepthRange returns the (top, bottom) depth below surface of layer
// index li, where li=0 is deepest. Used by the depth/activity gate in
// §4.1 (mindepth <= current_depth <= maxdepth).
func (b *Box) LayerDepthRange(li int) (top, bottom float64) {
	// layers are stored deepest-first; compute cumulative depth from the
	// surface downward.
	n := len(b.Layers)
	cum := 0.0
	for i := n - 1; i >= 0; i-- {
		next := cum + b.Layers[i].DzMeters
		if i == li {
			return cum, next
		}
		cum = next
	}
	return 0, 0
}
