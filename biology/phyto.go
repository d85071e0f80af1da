package biology

// PhytoParams is the kind-specific parameter bundle for
// KindPrimaryProducer (§4.1 "Phytoplankton/microphytobenthos").
type PhytoParams struct {
	MuMax  float64 // maximum specific growth rate
	KLight float64 // light half-saturation

	// Nutrient half-saturations; a zero half-saturation means that
	// nutrient is not limiting for this group (single- or multi-nutrient
	// Liebig limitation).
	KN, KNO, KSi, KFe, KP float64

	// Ambient tracer indices this group draws down. An index of -1 means
	// the group does not use that nutrient.
	LightIdx, NH4Idx, NO3Idx, SiIdx, FeIdx, PIdx int

	LysisRate float64 // natural mortality -> DL

	// IsSedimentVariant marks microphytobenthos: plankton sinking into
	// sediment causes additional natural mortality.
	IsSedimentVariant bool
	SinkMortRate      float64

	// IsMacrophyte splits death between above/below-ground fractions.
	IsMacrophyte  bool
	FDLSGLeaves   float64
	FDLSGRoots    float64
}

// ProcessPrimaryProducer implements §4.1's phytoplankton/microphytobenthos
// variant: μ = μ_max * hI(light) * hN(nutrients), Liebig-limited across
// whichever nutrients the group's parameters enable, with lysis producing
// labile detritus and, for the sediment variant, additional sinking
// mortality.
func ProcessPrimaryProducer(ctx *ProcessContext, g *FunctionalGroup) {
	p, ok := g.Params.(*PhytoParams)
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

	light := ambient(ctx, p.LightIdx)
	hI := hollingLight(light, p.KLight)

	limiters := make([]float64, 0, 5)
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
	if p.KSi > 0 && p.SiIdx >= 0 {
		h := monod(ambient(ctx, p.SiIdx), p.KSi)
		limiters = append(limiters, h)
		uptakes[p.SiIdx] = h
	}
	if p.KFe > 0 && p.FeIdx >= 0 {
		limiters = append(limiters, monod(ambient(ctx, p.FeIdx), p.KFe))
	}
	if p.KP > 0 && p.PIdx >= 0 {
		limiters = append(limiters, monod(ambient(ctx, p.PIdx), p.KP))
	}
	hN := liebigMin(limiters...)
	if len(limiters) == 0 {
		hN = 1
	}

	mu := p.MuMax * hI * hN
	growth := mu * biomass

	ctx.Acc.AddProd(g.BiomassIdx, growth, ctx.IsGlobalIteration)
	// Nutrient uptake is proportional to each limiter's share of demand.
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

	lysis := p.LysisRate * biomass
	if p.IsSedimentVariant && ctx.Habitat != 0 {
		lysis += p.SinkMortRate * biomass
	}
	if ctx.Cfg != nil && ctx.Cfg.BugCompat.FlagReplicatedOldPPMort {
		// Bug-compat: the growth pass zeroes mortality for this step,
		// reproducing "flag_replicated_old_PPmort" (§9 Open Questions).
		lysis = 0
	}

	if lysis > 0 {
		ctx.Acc.AddLost(g.BiomassIdx, lysis, ctx.IsGlobalIteration)
		if p.IsMacrophyte {
			ctx.Acc.AddProd(g.DetritusLabileIdx, lysis*p.FDLSGLeaves, ctx.IsGlobalIteration)
			ctx.Acc.AddProd(g.DetritusRefractoryIdx, lysis*p.FDLSGRoots, ctx.IsGlobalIteration)
		} else {
			ctx.Acc.AddProd(g.DetritusLabileIdx, lysis, ctx.IsGlobalIteration)
		}
	}
}

// ambient reads a tracer value at the process context's current box/layer.
// idx < 0 is used as a sentinel for "not applicable" throughout the param
// bundles.
func ambient(ctx *ProcessContext, idx int) float64 {
	if idx < 0 {
		return 0
	}
	layerIdx := ctx.Box.LayerIndex(ctx.Habitat, ctx.LayerIdx)
	return ctx.Store.At(idx, ctx.Box.ID, layerIdx).Get()
}
