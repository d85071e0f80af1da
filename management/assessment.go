// Package management implements the annual management/HCR engine (§4.5):
// stock assessments, tiered harvest control rules, companion/basket TAC
// rescaling, multi-year TAC scheduling, F-only rescale modes, and
// spatial/contaminant-triggered MPA activation.
package management

import (
	"context"
	"math/rand"

	channerics "github.com/niceyeti/channerics/channels"
	"golang.org/x/sync/errgroup"

	"github.com/nereusmodel/ecosim/internal/ecolog"
)

// StockState is the subset of live simulation state an Assessor needs to
// produce an Estimate for one stock (§3 Assessment estimate).
type StockState struct {
	GroupCode string
	GroupIdx  int

	TrueBiomass  float64 // perfect-knowledge biomass, for pseudo-assessment
	InitialPop   float64 // estinitpop, the §4.1 fallback when estBo == 0
	CumCatch     float64
	Year         int
}

// Estimate is the outcome of one stock's assessment (§3).
type Estimate struct {
	GroupCode     string
	Bcurr         float64
	Depletion     float64
	RBC           float64 // recommended biological catch
	ConvergenceOK bool
	Bias          float64 // injected bias applied (pseudo-assessment diagnostics)
	CV            float64
}

// Assessor is the shared contract for all three §4.5 assessment variants.
type Assessor interface {
	Assess(ctx context.Context, s StockState) (Estimate, error)
}

// PseudoAssessor implements perfect-knowledge assessment with injected bias
// and CV (§4.5 "(a) pseudo-assessment").
type PseudoAssessor struct {
	Bias float64 // multiplicative bias on true biomass
	CV   float64 // coefficient of variation for the injected noise
	Rand *rand.Rand
}

func (p *PseudoAssessor) Assess(_ context.Context, s StockState) (Estimate, error) {
	noise := 1.0
	if p.Rand != nil && p.CV > 0 {
		noise = 1 + p.Rand.NormFloat64()*p.CV
	}
	bCurr := s.TrueBiomass * p.Bias * noise
	if bCurr < 0 {
		bCurr = 0
	}
	estBo := s.InitialPop
	depletion := 0.0
	if estBo > 0 {
		depletion = bCurr / estBo
	}
	return Estimate{
		GroupCode: s.GroupCode,
		Bcurr:     bCurr,
		Depletion: depletion,
		RBC:       bCurr * 0.1, // nominal default harvest fraction, overridden by the HCR
		ConvergenceOK: true,
		Bias:      p.Bias,
		CV:        p.CV,
	}, nil
}

// ExternalBridgeAssessor delegates to an external Stock-Synthesis-style
// binary via the assessfile.Bridge contract (§4.5 "(b) external assessment
// bridge"). The concrete file-writing/invocation/parsing lives in package
// assessfile; this type only adapts its result into an Estimate.
type ExternalBridgeAssessor struct {
	Run func(ctx context.Context, s StockState) (Estimate, error)
}

func (e *ExternalBridgeAssessor) Assess(ctx context.Context, s StockState) (Estimate, error) {
	return e.Run(ctx, s)
}

// RBridgeAssessor implements "(c) R-side assessment via a function
// dispatcher" — an out-of-process R script invoked through the same
// function-pointer seam as ExternalBridgeAssessor, kept as a distinct type
// so callers can tell which bridge failed in logs/metrics.
type RBridgeAssessor struct {
	Run func(ctx context.Context, s StockState) (Estimate, error)
}

func (r *RBridgeAssessor) Assess(ctx context.Context, s StockState) (Estimate, error) {
	return r.Run(ctx, s)
}

// AssessAll fans assessment out across stocks — each stock's Assessor call
// is independent and may shell out to a slow external binary, so per-stock
// calls are run concurrently via channerics.Merge/errgroup, the same
// pattern as fisheries/cpue's shot fan-out (§4.5 [ADD], §5). A failing
// stock's assessment is logged and excluded from the returned map rather
// than aborting the others.
func AssessAll(ctx context.Context, stocks []StockState, assessorFor func(code string) Assessor, logger *ecolog.Logger, simTime float64) map[string]Estimate {
	g, gctx := errgroup.WithContext(ctx)
	done := make(chan struct{})
	go func() {
		<-gctx.Done()
		close(done)
	}()

	type result struct {
		est Estimate
		err error
	}
	workers := make([]<-chan result, 0, len(stocks))
	for _, s := range stocks {
		s := s
		ch := make(chan result, 1)
		workers = append(workers, ch)
		g.Go(func() error {
			defer close(ch)
			a := assessorFor(s.GroupCode)
			if a == nil {
				return nil
			}
			est, err := a.Assess(gctx, s)
			select {
			case ch <- result{est: est, err: err}:
			case <-done:
			}
			return nil
		})
	}

	merged := channerics.Merge(done, workers...)
	out := make(map[string]Estimate, len(stocks))
	for r := range merged {
		if r.err != nil {
			if logger != nil {
				logger.AssessmentFailuref(simTime, r.est.GroupCode, "assessment failed: %v", r.err)
			}
			continue
		}
		if r.est.GroupCode == "" {
			continue
		}
		if !r.est.ConvergenceOK && logger != nil {
			logger.AssessmentFailuref(simTime, r.est.GroupCode, "assessment did not converge")
		}
		out[r.est.GroupCode] = r.est
	}
	_ = g.Wait()
	return out
}
