package biology

import "math"

// BacteriaParams is the kind-specific parameter bundle shared by pelagic
// and sediment bacteria (§4.1 "Pelagic bacteria" / "Sediment bacteria").
type BacteriaParams struct {
	MuMax float64
	// K is the Droop-style exponent (3 when FlagKDrop is set, else
	// configurable) governing the colonisation saturation curve.
	K        float64
	FlagKDrop bool

	// DL/DR affinities: X scales the labile pool's effective
	// concentration in the saturation term.
	X float64

	E3, E4 float64 // assimilation efficiencies for DL, DR uptake

	// Product-fraction splits: FProdDR -> refractory detritus,
	// FProdDON*(1-FProdDR) -> DON, remainder -> NH4.
	FProdDR  float64
	FProdDON float64

	// Oxygen gate (both variants) and nitrification (pelagic only: sediment
	// bacteria run with nitrification switched off).
	KOxygen float64
	KNit    float64
	KConc   float64

	OxygenIdx   int
	NH4Idx      int
	SuspSedIdx  int // suspended sediment tracer driving nitrification

	DLIdx, DRIdx int // ambient detritus pool tracer indices
	DONIdx       int
}

func bacteriaGrowth(p *BacteriaParams, dl, dr float64) (growthDL, growthDR float64) {
	k := p.K
	if p.FlagKDrop {
		k = 3
	}
	satDL := 0.0
	if p.X*dl > epsilonBac {
		ratio := dl / (p.X*dl + epsilonBac)
		satDL = 1 - math.Pow(ratio, k)
	}
	satDR := 0.0
	if p.X*dr > epsilonBac {
		ratio := dr / (p.X*dr + epsilonBac)
		satDR = 1 - math.Pow(ratio, k)
	}
	growthDL = p.MuMax * dl * satDL
	growthDR = p.MuMax * dr * satDR
	return
}

const epsilonBac = 1e-9

// processBacteria is the common body shared by pelagic and sediment
// bacteria; the only per-variant difference is which ambient tracer
// indices and oxygen/nitrification behaviour apply, all carried in p.
func processBacteria(ctx *ProcessContext, g *FunctionalGroup, p *BacteriaParams, withNitrification bool) {
	top, _ := ctx.Box.LayerDepthRange(ctx.LayerIdx)
	if !ActivityGate(g, ctx.Box, top) {
		return
	}

	biomass := ctx.Store.At(g.BiomassIdx, ctx.Box.ID, ctx.Box.LayerIndex(ctx.Habitat, ctx.LayerIdx)).Get()
	if biomass <= 0 {
		return
	}

	dl := ambient(ctx, p.DLIdx)
	dr := ambient(ctx, p.DRIdx)

	hO := 1.0
	if p.KOxygen > 0 {
		hO = monod(ambient(ctx, p.OxygenIdx), p.KOxygen)
	}

	growthDL, growthDR := bacteriaGrowth(p, dl, dr)
	growthDL *= hO
	growthDR *= hO

	uptakeDL := growthDL / maxf(p.E3, epsilonBac)
	uptakeDR := growthDR / maxf(p.E4, epsilonBac)

	ctx.Acc.AddLost(p.DLIdx, uptakeDL, ctx.IsGlobalIteration)
	ctx.Acc.AddLost(p.DRIdx, uptakeDR, ctx.IsGlobalIteration)

	totalGrowth := growthDL + growthDR
	ctx.Acc.AddProd(g.BiomassIdx, totalGrowth, ctx.IsGlobalIteration)

	totalUptake := uptakeDL + uptakeDR
	assimLoss := totalUptake - totalGrowth
	if assimLoss > 0 {
		prodDR := assimLoss * p.FProdDR
		prodDON := assimLoss * p.FProdDON * (1 - p.FProdDR)
		prodNH := assimLoss - prodDR - prodDON
		ctx.Acc.AddProd(p.DRIdx, prodDR, ctx.IsGlobalIteration)
		ctx.Acc.AddProd(p.DONIdx, prodDON, ctx.IsGlobalIteration)
		ctx.Acc.AddProd(p.NH4Idx, prodNH, ctx.IsGlobalIteration)
	}

	if withNitrification && p.KNit > 0 {
		nh4 := ambient(ctx, p.NH4Idx)
		suspSed := ambient(ctx, p.SuspSedIdx)
		nitrified := p.KNit * nh4 * suspSed / (p.KConc + epsilonBac)
		ctx.Acc.AddLost(p.NH4Idx, nitrified, ctx.IsGlobalIteration)
	}
}

// ProcessPelagicBacteria implements §4.1's pelagic bacterium variant.
func ProcessPelagicBacteria(ctx *ProcessContext, g *FunctionalGroup) {
	p, ok := g.Params.(*BacteriaParams)
	if !ok {
		return
	}
	processBacteria(ctx, g, p, true)
}

// ProcessSedimentBacteria implements §4.1's sediment bacterium variant
// (analogous to pelagic, with sediment-specific affinities and no pelagic
// nitrification term).
func ProcessSedimentBacteria(ctx *ProcessContext, g *FunctionalGroup) {
	p, ok := g.Params.(*BacteriaParams)
	if !ok {
		return
	}
	processBacteria(ctx, g, p, false)
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
