package spatial

import "fmt"

// Grid is the static, run-wide collection of Boxes and their adjacency.
type Grid struct {
	Boxes []Box
}

// NewGrid builds a Grid from boxes, which must already carry fully
// populated Neighbors slices.
func NewGrid(boxes []Box) *Grid {
	return &Grid{Boxes: boxes}
}

// Box returns the box with the given ID (IDs are assumed dense, 0..N-1, per
// the index-based cross-referencing design note in §9).
func (g *Grid) Box(id int) *Box {
	return &g.Boxes[id]
}

// VisitBoxes calls fn for every box in ID order. This is the Grid-level
// analogue of the teacher's grid_world.Visit, which walked a dense
// [x][y][vx][vy]State array; here the traversal is a flat slice since
// adjacency, not a regular lattice, carries the spatial structure.
func (g *Grid) VisitBoxes(fn func(b *Box)) {
	for i := range g.Boxes {
		fn(&g.Boxes[i])
	}
}

// VisitFishable calls fn for every non-boundary, non-land box (§4.1 "For
// each box (non-boundary)...").
func (g *Grid) VisitFishable(fn func(b *Box)) {
	for i := range g.Boxes {
		if g.Boxes[i].IsFishable() {
			fn(&g.Boxes[i])
		}
	}
}

// CheckNeighbourSymmetry validates the §3 invariant that adjacency is
// symmetric: if A lists B as a neighbour, B must list A. Returns the first
// violation found, or nil.
func (g *Grid) CheckNeighbourSymmetry() error {
	for _, b := range g.Boxes {
		for _, nID := range b.Neighbors {
			if nID < 0 || nID >= len(g.Boxes) {
				return fmt.Errorf("spatial: box %d references out-of-range neighbour %d", b.ID, nID)
			}
			n := &g.Boxes[nID]
			found := false
			for _, back := range n.Neighbors {
				if back == b.ID {
					found = true
					break
				}
			}
			if !found {
				return fmt.Errorf("spatial: adjacency asymmetry: box %d -> %d but not %d -> %d", b.ID, nID, nID, b.ID)
			}
		}
	}
	return nil
}

// MostProductiveNeighbour selects the neighbour of box b that scores
// highest under score (e.g. stock-weighted CPUE), restricted to boxes for
// which allowed returns true (MPA- and stock-weighted choice, §4.4 step 6
// Displacement). Returns -1 if no neighbour qualifies.
func (g *Grid) MostProductiveNeighbour(b *Box, allowed func(id int) bool, score func(id int) float64) int {
	best := -1
	bestScore := 0.0
	for _, nID := range b.Neighbors {
		if !allowed(nID) {
			continue
		}
		s := score(nID)
		if best == -1 || s > bestScore {
			best = nID
			bestScore = s
		}
	}
	return best
}
