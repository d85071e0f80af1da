// Package cpue implements the shot-level CPUE synthesiser (§4.6): daily
// fleet catch is converted into stochastic shot records. Per fleet
// shot-generation is independent of every other fleet's and of the tracer
// store, so it is fanned out with channerics.Merge — one "worker" goroutine
// per fleet needing shots, one "estimator" goroutine serialising the day's
// shot list — mirroring the teacher's agent_worker/estimator shape in
// reinforcement/learning.go's alphaMonteCarloVanillaTrain, the only place
// in this codebase concurrency crosses a fleet boundary (§5).
package cpue

import (
	"context"
	"math"
	"math/rand"

	channerics "github.com/niceyeti/channerics/channels"
	"golang.org/x/sync/errgroup"

	"github.com/nereusmodel/ecosim/fisheries"
)

// Shot is one synthesised catch event (§4.6).
type Shot struct {
	FleetCode  string
	BoxID      int
	GroupIdx   int
	IsGuru     bool
	Size       float64
	Discards   float64
	Depth      float64
	Effort     float64
}

// FleetShotParams carries the per-fleet, per-species shot-generation
// parameters named in §4.6.
type FleetShotParams struct {
	Fleet *fisheries.Fleet

	MinShotLength     float64
	FishablePeriodDays float64
	MinEffortCoefft   float64
	MinEffortConst    float64

	// NegBinomCDF[groupIdx] is a pre-generated negative-binomial CDF, a
	// monotone slice sampled by a uniform draw to yield a shot size
	// (§4.6 "draw shot size from a pre-generated negative-binomial CDF
	// per species x guru").
	NegBinomCDF map[int][]float64

	DiscardFraction map[int]float64 // by box ID, today's discard fraction
	BoxDepth        map[int]float64
}

// DaySynthesis is the full output of one day's synthesis run: the
// generated shots plus the terminator "leftovers" row per species
// capturing catch not consumed by any shot (§4.6).
type DaySynthesis struct {
	Shots     []Shot
	Leftovers map[int]float64 // by groupIdx
}

// Synthesize fans shot generation for every fleet in fleets out over
// channerics.Merge, serializes the results through a single estimator
// goroutine, and returns once every worker has finished or ctx is
// cancelled. allocatedCatch[fleetCode][boxID][groupIdx] is the day's
// allocated catch to convert into shots.
func Synthesize(ctx context.Context, fleets []*fisheries.Fleet,
	allocatedCatch map[string]map[int]map[int]float64,
	effortByFleetBox map[string]map[int]float64,
	params map[string]*FleetShotParams, rng *rand.Rand) (DaySynthesis, error) {

	g, gctx := errgroup.WithContext(ctx)
	done := make(chan struct{})
	go func() {
		<-gctx.Done()
		close(done)
	}()

	workers := make([]<-chan Shot, 0, len(fleets))
	for _, f := range fleets {
		if !f.NeedsShots {
			continue
		}
		p, ok := params[f.Code]
		if !ok {
			continue
		}
		catch := allocatedCatch[f.Code]
		effort := effortByFleetBox[f.Code]
		// math/rand.Rand isn't goroutine-safe, and every fleet below runs
		// concurrently: draw each worker its own seeded sub-stream here,
		// sequentially off the shared rng in fixed fleet-catalogue order,
		// so the whole run stays bit-for-bit deterministic for a given
		// master seed (§5) without the workers ever touching rng directly.
		workerRng := rand.New(rand.NewSource(rng.Int63()))
		workers = append(workers, fleetWorker(done, f, p, catch, effort, workerRng))
	}

	shotsCh := channerics.Merge(done, workers...)

	result := DaySynthesis{Leftovers: make(map[int]float64)}
	remaining := cloneCatch(allocatedCatch)

	g.Go(func() error {
		for shot := range shotsCh {
			result.Shots = append(result.Shots, shot)
			if byBox, ok := remaining[shot.FleetCode]; ok {
				if byGroup, ok := byBox[shot.BoxID]; ok {
					byGroup[shot.GroupIdx] -= shot.Size
				}
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return result, err
	}

	for _, byBox := range remaining {
		for _, byGroup := range byBox {
			for groupIdx, leftover := range byGroup {
				if leftover > 0 {
					result.Leftovers[groupIdx] += leftover
				}
			}
		}
	}
	return result, nil
}

func cloneCatch(in map[string]map[int]map[int]float64) map[string]map[int]map[int]float64 {
	out := make(map[string]map[int]map[int]float64, len(in))
	for f, byBox := range in {
		out[f] = make(map[int]map[int]float64, len(byBox))
		for b, byGroup := range byBox {
			out[f][b] = make(map[int]float64, len(byGroup))
			for gIdx, v := range byGroup {
				out[f][b][gIdx] = v
			}
		}
	}
	return out
}

// fleetWorker generates shots for one fleet's allocated catch until every
// box/species combination is exhausted or done is closed. The number of
// shots follows from the allocation alone: p.MinShotLength and
// p.FishablePeriodDays are not consulted.
func fleetWorker(done <-chan struct{}, f *fisheries.Fleet, p *FleetShotParams,
	catch map[int]map[int]float64, effort map[int]float64, rng *rand.Rand) <-chan Shot {

	out := make(chan Shot)
	go func() {
		defer close(out)
		for boxID, byGroup := range catch {
			remainingEffort := effort[boxID]
			for groupIdx, total := range byGroup {
				remaining := total
				for remaining > 0 {
					select {
					case <-done:
						return
					default:
					}

					guru := drawGuru(f.SubfleetFlexWeights, rng)
					size := drawShotSize(p.NegBinomCDF[groupIdx], rng)
					if size > remaining {
						size = remaining
					}
					if size <= 0 {
						break
					}
					discardFrac := p.DiscardFraction[boxID]
					noisyDiscard := size * discardFrac * (1 + 0.1*(rng.Float64()*2-1))
					if noisyDiscard < 0 {
						noisyDiscard = 0
					}

					shotEffort := p.MinEffortCoefft*size + p.MinEffortConst + rng.NormFloat64()*0.05
					if shotEffort > remainingEffort {
						shotEffort = remainingEffort
					}
					if shotEffort < 0 {
						shotEffort = 0
					}
					remainingEffort -= shotEffort

					shot := Shot{
						FleetCode: f.Code,
						BoxID:     boxID,
						GroupIdx:  groupIdx,
						IsGuru:    guru,
						Size:      size,
						Discards:  noisyDiscard,
						Depth:     p.BoxDepth[boxID],
						Effort:    shotEffort,
					}
					select {
					case out <- shot:
					case <-done:
						return
					}
					remaining -= size
				}
			}
		}
	}()
	return out
}

// drawGuru selects whether this shot belongs to a "guru" (expert)
// subfleet, weighted by the fleet's configured subfleet flex-weights.
func drawGuru(weights []float64, rng *rand.Rand) bool {
	if len(weights) == 0 {
		return false
	}
	total := 0.0
	for _, w := range weights {
		total += w
	}
	if total <= 0 {
		return false
	}
	return rng.Float64() < weights[0]/total
}

// drawShotSize samples a shot size from a pre-generated negative-binomial
// CDF, jittered by a uniform sub-bin draw (§4.6).
func drawShotSize(cdf []float64, rng *rand.Rand) float64 {
	if len(cdf) == 0 {
		return 0
	}
	u := rng.Float64()
	idx := 0
	for idx < len(cdf) && cdf[idx] < u {
		idx++
	}
	if idx >= len(cdf) {
		idx = len(cdf) - 1
	}
	jitter := rng.Float64()
	return math.Max(0, float64(idx)+jitter)
}
