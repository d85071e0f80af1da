package biology

import "github.com/nereusmodel/ecosim/diet"

// DinoParams is the kind-specific parameter bundle for KindDinoflagellate
// (§4.1 "Dinoflagellate (mixotroph)").
type DinoParams struct {
	Photo PhytoParams // photosynthetic component, reused wholesale

	MaxPhagotrophy float64 // cap on heterotrophic ingestion
	Eat            diet.EatParams

	// Prey this group grazes: pelagic bacteria, DL, DR.
	BacteriaGroupIdx int
	DLGroupIdx       int
	DRGroupIdx       int

	// NutrientStressSensitivity scales how much grazing contribution
	// inflates the effective hN term used by lysis (§4.1: "nutrient-
	// stress-sensitive lysis modulated by effective hN inflated by
	// grazing contribution").
	NutrientStressSensitivity float64
}

// ProcessDinoflagellate implements the mixotroph variant: photosynthesis as
// in ProcessPrimaryProducer, plus phagotrophy capped by MaxPhagotrophy,
// reallocating grazed nitrogen across bacteria/DL/DR via
// DFscale = phagotroph/totalGraze (§4.1).
func ProcessDinoflagellate(ctx *ProcessContext, g *FunctionalGroup) {
	p, ok := g.Params.(*DinoParams)
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

	// Photosynthetic component (shares the primary-producer math).
	// Lysis is left out here and applied once, below, net of grazing relief.
	photoGroup := *g
	photoParams := p.Photo
	photoParams.LysisRate = 0
	photoGroup.Params = &photoParams
	ProcessPrimaryProducer(ctx, &photoGroup)

	// Phagotrophic component.
	result := diet.Eat(ctx.PreyTable, p.Eat, biomass)
	phagotroph := result.GrazeLive
	if phagotroph > p.MaxPhagotrophy*biomass {
		phagotroph = p.MaxPhagotrophy * biomass
	}

	totalGraze := result.GrazeLive
	dfScale := 1.0
	if totalGraze > 0 {
		dfScale = phagotroph / totalGraze
	}

	for key, grazed := range result.Graze {
		scaled := grazed * dfScale
		ctx.Acc.AddLost(ctx.GroupBiomassIdx[key.PreyGroupIdx], scaled, ctx.IsGlobalIteration)
		diet.UpdateTrackedMort(ctx.Acc.TrackedMort, key.PreyGroupIdx, key.CohortIdx, key.Habitat, scaled)
	}
	ctx.Acc.AddProd(g.BiomassIdx, phagotroph, ctx.IsGlobalIteration)

	// Nutrient-stress-sensitive lysis: effective hN is inflated by the
	// grazing contribution so a well-fed but nutrient-starved cell lyses
	// less than pure autotroph math would predict.
	effectiveRelief := phagotroph * p.NutrientStressSensitivity
	lysis := p.Photo.LysisRate*biomass - effectiveRelief
	if lysis > 0 {
		ctx.Acc.AddLost(g.BiomassIdx, lysis, ctx.IsGlobalIteration)
		ctx.Acc.AddProd(g.DetritusLabileIdx, lysis, ctx.IsGlobalIteration)
	}
}

