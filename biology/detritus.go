package biology

// DetritusParams is the kind-specific parameter bundle shared by labile and
// refractory detritus pools (§4.1 "Detritus (labile/refractory)": breakdown
// rate r, split into DR/DON/NH4 according to whether a bacteria group is
// active in this habitat).
type DetritusParams struct {
	BreakdownRate float64 // r in break_down = r * D

	// BacteriaActive gates which products the breakdown yields: when a
	// bacteria group occupies this habitat, breakdown feeds DR/DON/NH4 in
	// the given split; otherwise it simply ages labile into refractory
	// (or, for refractory itself, is inert).
	BacteriaActive bool
	FDR            float64 // fraction of breakdown routed to refractory detritus
	FDON           float64 // fraction of the remainder routed to DON; rest to NH4

	DRIdx  int
	DONIdx int
	NH4Idx int
}

// ProcessDetritusLabile implements the labile detritus variant: breakdown
// at rate r, split DR/DON/NH4 when bacteria are active in this habitat, or
// ageing straight into refractory detritus when they are not (§4.1).
func ProcessDetritusLabile(ctx *ProcessContext, g *FunctionalGroup) {
	p, ok := g.Params.(*DetritusParams)
	if !ok {
		return
	}

	dl := ctx.Store.At(g.BiomassIdx, ctx.Box.ID, ctx.Box.LayerIndex(ctx.Habitat, ctx.LayerIdx)).Get()
	if dl <= 0 {
		return
	}

	breakDown := p.BreakdownRate * dl
	if breakDown <= 0 {
		return
	}
	ctx.Acc.AddLost(g.BiomassIdx, breakDown, ctx.IsGlobalIteration)

	if !p.BacteriaActive {
		ctx.Acc.AddProd(p.DRIdx, breakDown, ctx.IsGlobalIteration)
		return
	}

	toDR := breakDown * p.FDR
	remainder := breakDown - toDR
	toDON := remainder * p.FDON
	toNH4 := remainder - toDON

	ctx.Acc.AddProd(p.DRIdx, toDR, ctx.IsGlobalIteration)
	ctx.Acc.AddProd(p.DONIdx, toDON, ctx.IsGlobalIteration)
	ctx.Acc.AddProd(p.NH4Idx, toNH4, ctx.IsGlobalIteration)
}

// ProcessDetritusRefractory implements the refractory detritus variant: a
// slower breakdown rate, directly to DON/NH4 (refractory material has
// already passed through the labile->refractory split, so it never
// produces further DR).
func ProcessDetritusRefractory(ctx *ProcessContext, g *FunctionalGroup) {
	p, ok := g.Params.(*DetritusParams)
	if !ok {
		return
	}

	dr := ctx.Store.At(g.BiomassIdx, ctx.Box.ID, ctx.Box.LayerIndex(ctx.Habitat, ctx.LayerIdx)).Get()
	if dr <= 0 {
		return
	}
	if !p.BacteriaActive {
		return
	}

	breakDown := p.BreakdownRate * dr
	if breakDown <= 0 {
		return
	}
	ctx.Acc.AddLost(g.BiomassIdx, breakDown, ctx.IsGlobalIteration)

	toDON := breakDown * p.FDON
	toNH4 := breakDown - toDON
	ctx.Acc.AddProd(p.DONIdx, toDON, ctx.IsGlobalIteration)
	ctx.Acc.AddProd(p.NH4Idx, toNH4, ctx.IsGlobalIteration)
}

// CarrionParams is the kind-specific parameter bundle for KindCarrion
// (§4.1 "Carrion": breakdown r_DC * DC split into DL/DR by FDR_DC).
type CarrionParams struct {
	BreakdownRate float64 // r_DC
	FDRCarrion    float64 // FDR_DC: fraction routed to refractory detritus

	DLIdx int
	DRIdx int
}

// ProcessCarrion implements the carrion breakdown variant: a single
// breakdown rate splitting mass between labile and refractory detritus,
// independent of bacterial activity (carrion decomposes via scavenging and
// autolysis, not microbial uptake, §4.1).
func ProcessCarrion(ctx *ProcessContext, g *FunctionalGroup) {
	p, ok := g.Params.(*CarrionParams)
	if !ok {
		return
	}

	dc := ctx.Store.At(g.BiomassIdx, ctx.Box.ID, ctx.Box.LayerIndex(ctx.Habitat, ctx.LayerIdx)).Get()
	if dc <= 0 {
		return
	}

	breakDown := p.BreakdownRate * dc
	if breakDown <= 0 {
		return
	}
	ctx.Acc.AddLost(g.BiomassIdx, breakDown, ctx.IsGlobalIteration)

	toDR := breakDown * p.FDRCarrion
	toDL := breakDown - toDR
	ctx.Acc.AddProd(p.DRIdx, toDR, ctx.IsGlobalIteration)
	ctx.Acc.AddProd(p.DLIdx, toDL, ctx.IsGlobalIteration)
}
