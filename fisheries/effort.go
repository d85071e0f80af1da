package fisheries

import "math"

// AllocationContext bundles the per-step inputs an EffortModel needs to
// distribute a fleet's daily effort across its eligible boxes (§4.4 step 5).
type AllocationContext struct {
	Fleet  *Fleet
	Field  *EffortField
	Boxes  []int // this fleet's fishable boxes

	// DayOfYear/QuarterOfYear support the constant-per-quarter and
	// seasonal-schedule variants.
	DayOfYear     int
	QuarterOfYear int

	// TotalEffortTarget is the scalar level to distribute (after
	// EFF_scale0..4 and MPA/port-share pre-checks have already reduced
	// it, §4.4 step 4).
	TotalEffortTarget float64

	// BoxBiomass/BoxDistance/BoxPopulation/BoxEconomicScore feed the
	// ideal-free, distance-to-port, recreational, and economic variants
	// respectively.
	BoxBiomass      map[int]float64
	BoxDistance     map[int]float64
	BoxPopulation   map[int]float64
	BoxEconomicScore map[int]float64

	// PrescribedArray feeds the array-prescribed and time-series-read
	// variants: a fixed per-box share for this day, read verbatim.
	PrescribedArray map[int]float64

	// DistPeak/Dt feed the CPUE-scaled inertia term
	// (speed_boat * Δt / DistPeak, §4.4 step 5).
	DistPeak float64
	Dt       float64
}

// EffortModel is the contract every §4.4 step-5 effort-attractor variant
// implements: given the allocation context, return a per-box effort share
// summing to (approximately) 1.
type EffortModel interface {
	Allocate(ctx *AllocationContext) map[int]float64
}

func equalShares(boxes []int) map[int]float64 {
	out := make(map[int]float64, len(boxes))
	if len(boxes) == 0 {
		return out
	}
	share := 1.0 / float64(len(boxes))
	for _, b := range boxes {
		out[b] = share
	}
	return out
}

func normalize(weights map[int]float64) map[int]float64 {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	out := make(map[int]float64, len(weights))
	if total <= 0 {
		return equalShares(keysOf(weights))
	}
	for b, w := range weights {
		out[b] = w / total
	}
	return out
}

func keysOf(m map[int]float64) []int {
	out := make([]int, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

// ConstantEffort distributes effort evenly across eligible boxes, ignoring
// all per-step signals (§4.4 step 5 "constant").
type ConstantEffort struct{}

func (ConstantEffort) Allocate(ctx *AllocationContext) map[int]float64 {
	return equalShares(ctx.Boxes)
}

// ConstantPerQuarterEffort distributes a fixed schedule that only varies by
// quarter of year (§4.4 step 5 "constant-per-quarter"); Shares[0..3] holds
// the per-box shares for quarters 1-4 (QuarterOfYear carries clock.QofY).
type ConstantPerQuarterEffort struct {
	Shares [4]map[int]float64
}

func (m ConstantPerQuarterEffort) Allocate(ctx *AllocationContext) map[int]float64 {
	q := ctx.QuarterOfYear - 1
	if q < 0 || q > 3 || m.Shares[q] == nil {
		return equalShares(ctx.Boxes)
	}
	return normalize(m.Shares[q])
}

// CPUEProportionalEffort distributes effort in proportion to each box's
// recent CPUE (§4.4 step 5 "CPUE-proportional").
type CPUEProportionalEffort struct{}

func (CPUEProportionalEffort) Allocate(ctx *AllocationContext) map[int]float64 {
	w := make(map[int]float64, len(ctx.Boxes))
	for _, b := range ctx.Boxes {
		w[b] = math.Max(ctx.Field.TempCPUE[b], 0)
	}
	return normalize(w)
}

// ArrayPrescribedEffort reads a fixed per-box share directly from
// configuration (§4.4 step 5 "array-prescribed").
type ArrayPrescribedEffort struct{}

func (ArrayPrescribedEffort) Allocate(ctx *AllocationContext) map[int]float64 {
	if len(ctx.PrescribedArray) == 0 {
		return equalShares(ctx.Boxes)
	}
	return normalize(ctx.PrescribedArray)
}

// PreviousEffortWeightedEffort biases allocation toward where the fleet
// fished the previous day (§4.4 step 5 "weighted by previous effort").
type PreviousEffortWeightedEffort struct {
	// Inertia in [0,1]: 1 reproduces the previous distribution exactly, 0
	// ignores it entirely in favor of equal shares.
	Inertia float64
}

func (m PreviousEffortWeightedEffort) Allocate(ctx *AllocationContext) map[int]float64 {
	prev := normalize(ctx.Field.OldEffort)
	eq := equalShares(ctx.Boxes)
	out := make(map[int]float64, len(ctx.Boxes))
	for _, b := range ctx.Boxes {
		out[b] = m.Inertia*prev[b] + (1-m.Inertia)*eq[b]
	}
	return normalize(out)
}

// DistanceToPortEffort favors boxes closer to the fleet's home port
// (§4.4 step 5 "distance-to-port").
type DistanceToPortEffort struct{}

func (DistanceToPortEffort) Allocate(ctx *AllocationContext) map[int]float64 {
	w := make(map[int]float64, len(ctx.Boxes))
	for _, b := range ctx.Boxes {
		d := ctx.BoxDistance[b]
		if d <= 0 {
			d = 1
		}
		w[b] = 1 / d
	}
	return normalize(w)
}

// RecreationalPopulationEffort scales effort by a per-box recreational
// participant population (§4.4 step 5 "recreational population-based").
type RecreationalPopulationEffort struct{}

func (RecreationalPopulationEffort) Allocate(ctx *AllocationContext) map[int]float64 {
	w := make(map[int]float64, len(ctx.Boxes))
	for _, b := range ctx.Boxes {
		w[b] = math.Max(ctx.BoxPopulation[b], 0)
	}
	return normalize(w)
}

// EconomicModelEffort distributes effort by a precomputed per-box economic
// attractiveness score (§4.4 step 5 "economic-model-driven").
type EconomicModelEffort struct{}

func (EconomicModelEffort) Allocate(ctx *AllocationContext) map[int]float64 {
	w := make(map[int]float64, len(ctx.Boxes))
	for _, b := range ctx.Boxes {
		w[b] = math.Max(ctx.BoxEconomicScore[b], 0)
	}
	return normalize(w)
}

// TimeSeriesReadEffort reads a fixed, externally forced per-box share for
// the day, identical in shape to ArrayPrescribedEffort but semantically
// distinct (a full time series rather than a single prescribed array,
// §4.4 step 5 "time-series read").
type TimeSeriesReadEffort struct{}

func (TimeSeriesReadEffort) Allocate(ctx *AllocationContext) map[int]float64 {
	if len(ctx.PrescribedArray) == 0 {
		return equalShares(ctx.Boxes)
	}
	return normalize(ctx.PrescribedArray)
}

// IdealFreeEffort distributes effort proportional to standing target
// biomass, the "ideal free distribution" variant (§4.4 step 5).
type IdealFreeEffort struct{}

func (IdealFreeEffort) Allocate(ctx *AllocationContext) map[int]float64 {
	w := make(map[int]float64, len(ctx.Boxes))
	for _, b := range ctx.Boxes {
		w[b] = math.Max(ctx.BoxBiomass[b], 0)
	}
	return normalize(w)
}

// CPUEScaledEffort is the compound port x CPUE variant with inertia toward
// the previous distribution, bounded by speed_boat*Δt/DistPeak (§4.4 step
// 5's most elaborate variant).
type CPUEScaledEffort struct {
	SpeedBoat float64 // speed_boat
}

func (m CPUEScaledEffort) Allocate(ctx *AllocationContext) map[int]float64 {
	port := make(map[int]float64, len(ctx.Boxes))
	for _, b := range ctx.Boxes {
		d := ctx.BoxDistance[b]
		if d <= 0 {
			d = 1
		}
		port[b] = (1 / d) * math.Max(ctx.Field.TempCPUE[b], epsilonEffort)
	}
	target := normalize(port)
	prev := normalize(ctx.Field.OldEffort)

	maxStep := 1.0
	if ctx.DistPeak > 0 {
		maxStep = m.SpeedBoat * ctx.Dt / ctx.DistPeak
	}
	if maxStep > 1 {
		maxStep = 1
	}
	if maxStep < 0 {
		maxStep = 0
	}

	out := make(map[int]float64, len(ctx.Boxes))
	for _, b := range ctx.Boxes {
		out[b] = prev[b] + maxStep*(target[b]-prev[b])
	}
	return normalize(out)
}

const epsilonEffort = 1e-9

// ApplyTestFish implements the exploratory-fishing rule (§4.4 step 5): once
// a year, eligible boxes that received no CPUE-driven effort get
// mEff_testfish.
func ApplyTestFish(f *Fleet, shares map[int]float64, testFishEffort float64, alreadyUsed bool) bool {
	if !f.IsTestFishEligible || alreadyUsed || testFishEffort <= 0 {
		return alreadyUsed
	}
	any := false
	for _, b := range f.EligibleBoxes {
		if shares[b] > 0 {
			continue
		}
		shares[b] = testFishEffort
		any = true
	}
	return any || alreadyUsed
}
