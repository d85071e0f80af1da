package biology

import "github.com/nereusmodel/ecosim/diet"

// CoralParams is the kind-specific parameter bundle for KindCoral (§4.1
// "Coral": symbiont photosynthesis scaled by space competition against
// turf/algae, heterotrophic feeding, and thermal-stress bleaching).
type CoralParams struct {
	Symbiont PhytoParams // photosynthetic component, as for phytoplankton

	// SpaceCompetition scales symbiont production down when turf/algae
	// groups occupy reef space (§4.1: "production scaled by space
	// competition vs turf/algae").
	TurfGroupIdx    int // registry index of the competing turf/algae group, -1 if none
	SpaceCompIdx    int // ambient tracer carrying the competitor's occupied-space fraction

	Eat diet.EatParams // heterotrophic feeding component

	// Bleaching: thermal stress above ThermalThreshold degrades the
	// symbiont fraction each step it persists, and recovers when stress
	// subsides (§4.1 "bleaching/recovery state (thermal stress)").
	ThermalStressIdx int // ambient tracer carrying local thermal stress
	ThermalThreshold float64
	BleachRate       float64
	RecoveryRate     float64

	// RugosityIdx is the tracer this group's structural complexity
	// contributes to; it gains GrazeLive*RugosityContribution whenever the
	// colony's heterotrophic intake is positive and is never debited here,
	// so neither bleaching nor colony mortality reduces it.
	RugosityIdx        int
	RugosityContribution float64
}

// symbiontFrac reads the live (non-bleached) symbiont fraction, carried
// as a ratio-kind tracer alongside the coral group's biomass.
//
// coral colonies don't die wholesale when bleached; SymbiontFrac modulates
// photosynthetic yield, not colony survival.
func symbiontFrac(ctx *ProcessContext, g *FunctionalGroup) float64 {
	if g.StructNIdx < 0 {
		return 1
	}
	return ctx.Store.At(g.StructNIdx, ctx.Box.ID, ctx.Box.LayerIndex(ctx.Habitat, ctx.LayerIdx)).Get()
}

// ProcessCoral implements §4.1's coral variant: symbiont photosynthesis
// (space-competition scaled and bleaching-modulated), heterotrophic
// feeding, and a rugosity contribution proportional to heterotrophic
// intake (GrazeLive).
func ProcessCoral(ctx *ProcessContext, g *FunctionalGroup) {
	p, ok := g.Params.(*CoralParams)
	if !ok {
		return
	}

	top, _ := ctx.Box.LayerDepthRange(ctx.LayerIdx)
	if !ActivityGate(g, ctx.Box, top) {
		return
	}

	biomass := ctx.Store.At(g.BiomassIdx, ctx.Box.ID, ctx.Box.LayerIndex(ctx.Habitat, ctx.LayerIdx)).Get()
	if biomass <= 0 {
		return
	}

	frac := symbiontFrac(ctx, g)

	spaceFactor := 1.0
	if p.SpaceCompIdx >= 0 {
		occupied := ambient(ctx, p.SpaceCompIdx)
		spaceFactor = 1 - occupied
		if spaceFactor < 0 {
			spaceFactor = 0
		}
	}

	scale := frac * spaceFactor
	if scale > 0 {
		processSymbiontPhotosynthesis(ctx, g, &p.Symbiont, scale)
	}

	// Heterotrophic feeding, independent of symbiont state.
	result := diet.Eat(ctx.PreyTable, p.Eat, biomass)
	for key, grazed := range result.Graze {
		ctx.Acc.AddLost(ctx.GroupBiomassIdx[key.PreyGroupIdx], grazed, ctx.IsGlobalIteration)
		diet.UpdateTrackedMort(ctx.Acc.TrackedMort, key.PreyGroupIdx, key.CohortIdx, key.Habitat, grazed)
	}
	ctx.Acc.AddProd(g.BiomassIdx, result.GrazeLive, ctx.IsGlobalIteration)

	// Bleaching / recovery on the symbiont fraction.
	stress := ambient(ctx, p.ThermalStressIdx)
	if g.StructNIdx >= 0 {
		var dFrac float64
		if stress > p.ThermalThreshold {
			dFrac = -p.BleachRate * (stress - p.ThermalThreshold)
		} else {
			dFrac = p.RecoveryRate * (1 - frac)
		}
		if dFrac > 0 {
			ctx.Acc.AddProd(g.StructNIdx, dFrac, ctx.IsGlobalIteration)
		} else if dFrac < 0 {
			ctx.Acc.AddLost(g.StructNIdx, -dFrac, ctx.IsGlobalIteration)
		}
	}

	if p.RugosityIdx >= 0 && result.GrazeLive > 0 {
		ctx.Acc.AddProd(p.RugosityIdx, result.GrazeLive*p.RugosityContribution, ctx.IsGlobalIteration)
	}
}

// processSymbiontPhotosynthesis runs the phytoplankton-style growth/uptake
// math for the coral's symbionts, scaling the resulting production and
// nutrient uptake by scale (space competition x live symbiont fraction).
// Duplicated from ProcessPrimaryProducer rather than shared through it,
// since the coral variant needs a uniform scalar applied across every
// accumulator entry the photosynthetic pass would otherwise write
// unscaled.
func processSymbiontPhotosynthesis(ctx *ProcessContext, g *FunctionalGroup, p *PhytoParams, scale float64) {
	biomass := ctx.Store.At(g.BiomassIdx, ctx.Box.ID, ctx.Box.LayerIndex(ctx.Habitat, ctx.LayerIdx)).Get()
	if biomass <= 0 {
		return
	}

	light := ambient(ctx, p.LightIdx)
	hI := hollingLight(light, p.KLight)

	limiters := make([]float64, 0, 3)
	uptakes := map[int]float64{}
	if p.KN > 0 && p.NH4Idx >= 0 {
		h := monod(ambient(ctx, p.NH4Idx), p.KN)
		limiters = append(limiters, h)
		uptakes[p.NH4Idx] = h
	}
	if p.KNO > 0 && p.NO3Idx >= 0 {
		h := monod(ambient(ctx, p.NO3Idx), p.KNO)
		limiters = append(limiters, h)
		uptakes[p.NO3Idx] = h
	}
	hN := liebigMin(limiters...)
	if len(limiters) == 0 {
		hN = 1
	}

	growth := p.MuMax * hI * hN * biomass * scale
	ctx.Acc.AddProd(g.BiomassIdx, growth, ctx.IsGlobalIteration)

	totalLimiter := 0.0
	for _, h := range uptakes {
		totalLimiter += h
	}
	for idx, h := range uptakes {
		share := 1.0
		if totalLimiter > 0 {
			share = h / totalLimiter
		}
		ctx.Acc.AddLost(idx, growth*share, ctx.IsGlobalIteration)
	}
}
