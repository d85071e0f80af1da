package biology

import "github.com/nereusmodel/ecosim/diet"

// ConsumerParams is the kind-specific parameter bundle for
// KindInvertConsumer, covering zooplankton, benthos, cephalopods, prawns,
// epibenthos, and filter feeders (§4.1 "Invertebrate consumers").
type ConsumerParams struct {
	Eat diet.EatParams

	// UseQuadraticCrowding selects the ERSEM-style (1-μ(x,sat))^2 cap;
	// otherwise the simple linear cap is used (§4.1).
	UseQuadraticCrowding bool
	AreaWeightedMax      float64 // carrying capacity this group's biomass is checked against

	// HabitatScaledGrowth multiplies MuMax by the habitat area fraction
	// when the benthos-sediment link flag is set (§4.1
	// "flag_benthos_sediment_link").
	HabitatScaledGrowth bool
	AreaHabitatFrac     float64

	MuMax float64

	// LinearMortality is the group's baseline mortality rate, before the
	// oxygen-driven addition.
	LinearMortality float64
	MO              float64 // oxygen-mortality coefficient
	OxygenIdx       int
	KOxygenMort     float64

	// Spawning interaction (§9 Open Questions: "ordering between
	// 'feed while spawning' and crowding caps... adopt a single, explicit
	// order"): when config.BugCompat.FeedWhileSpawnBeforeCrowding is false,
	// crowding is applied first and feeding of the spawning fraction of the
	// population is suppressed after it; when true, feeding suppression is
	// applied before crowding instead.
	MatureFraction   float64 // fraction of biomass that is mature/spawning-eligible
	FeedsWhileSpawn  bool
}

// ProcessInvertConsumer implements the shared invertebrate consumer
// variant: Holling type-II Eat(), an oxygen-gated mortality addition, and a
// crowding cap on net growth (§4.1).
func ProcessInvertConsumer(ctx *ProcessContext, g *FunctionalGroup) {
	p, ok := g.Params.(*ConsumerParams)
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

	hO := 1.0
	if p.KOxygenMort > 0 {
		hO = monod(ambient(ctx, p.OxygenIdx), p.KOxygenMort)
	}
	mortRate := p.LinearMortality + oxygenMortality(p.MO, hO)

	feedingBiomass := biomass
	applyCrowdingFirst := ctx.Cfg == nil || !ctx.Cfg.BugCompat.FeedWhileSpawnBeforeCrowding
	spawningSuppressed := !p.FeedsWhileSpawn

	muMax := p.MuMax
	if p.HabitatScaledGrowth {
		muMax *= p.AreaHabitatFrac
	}

	cappedMu := muMax
	if applyCrowdingFirst {
		if p.UseQuadraticCrowding {
			cappedMu = diet.Crowding(muMax, biomass, p.AreaWeightedMax)
		} else {
			cappedMu = diet.LinearCrowding(muMax, biomass, p.AreaWeightedMax)
		}
		if spawningSuppressed {
			feedingBiomass = biomass * (1 - p.MatureFraction)
		}
	} else {
		if spawningSuppressed {
			feedingBiomass = biomass * (1 - p.MatureFraction)
		}
		if p.UseQuadraticCrowding {
			cappedMu = diet.Crowding(muMax, feedingBiomass, p.AreaWeightedMax)
		} else {
			cappedMu = diet.LinearCrowding(muMax, feedingBiomass, p.AreaWeightedMax)
		}
	}

	result := diet.Eat(ctx.PreyTable, p.Eat, feedingBiomass)

	for key, grazed := range result.Graze {
		ctx.Acc.AddLost(ctx.GroupBiomassIdx[key.PreyGroupIdx], grazed, ctx.IsGlobalIteration)
		diet.UpdateTrackedMort(ctx.Acc.TrackedMort, key.PreyGroupIdx, key.CohortIdx, key.Habitat, grazed)
	}

	growth := result.GrazeLive
	if growth > cappedMu*biomass && cappedMu > 0 {
		growth = cappedMu * biomass
	}
	ctx.Acc.AddProd(g.BiomassIdx, growth, ctx.IsGlobalIteration)

	mortality := mortRate * biomass
	if mortality > 0 {
		ctx.Acc.AddLost(g.BiomassIdx, mortality, ctx.IsGlobalIteration)
		ctx.Acc.AddProd(g.DetritusLabileIdx, mortality, ctx.IsGlobalIteration)
	}
}
