package management_test

import (
	"bytes"
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nereusmodel/ecosim/internal/ecolog"
	"github.com/nereusmodel/ecosim/management"
)

func TestPseudoAssessorAppliesBiasAndDepletion(t *testing.T) {
	p := &management.PseudoAssessor{Bias: 0.8}
	est, err := p.Assess(context.Background(), management.StockState{
		GroupCode:   "FIS",
		TrueBiomass: 100,
		InitialPop:  200,
	})
	require.NoError(t, err)
	assert.InDelta(t, 80, est.Bcurr, 1e-9)
	assert.InDelta(t, 0.4, est.Depletion, 1e-9)
	assert.True(t, est.ConvergenceOK)
	assert.InDelta(t, 8, est.RBC, 1e-9)
}

func TestPseudoAssessorZeroInitialPopGivesZeroDepletion(t *testing.T) {
	p := &management.PseudoAssessor{Bias: 1.0}
	est, err := p.Assess(context.Background(), management.StockState{TrueBiomass: 50, InitialPop: 0})
	require.NoError(t, err)
	assert.Equal(t, 0.0, est.Depletion)
}

func TestPseudoAssessorClampsNegativeBiomassToZero(t *testing.T) {
	p := &management.PseudoAssessor{Bias: -1.0}
	est, err := p.Assess(context.Background(), management.StockState{TrueBiomass: 50, InitialPop: 100})
	require.NoError(t, err)
	assert.Equal(t, 0.0, est.Bcurr)
}

func TestPseudoAssessorIsDeterministicWithoutRand(t *testing.T) {
	p := &management.PseudoAssessor{Bias: 1.0, CV: 0.5}
	est, err := p.Assess(context.Background(), management.StockState{TrueBiomass: 50, InitialPop: 100})
	require.NoError(t, err)
	assert.InDelta(t, 50, est.Bcurr, 1e-9) // no *rand.Rand supplied, noise stays 1.0
}

func TestPseudoAssessorAppliesNoiseWhenRandSupplied(t *testing.T) {
	p := &management.PseudoAssessor{Bias: 1.0, CV: 1.0, Rand: rand.New(rand.NewSource(42))}
	est, err := p.Assess(context.Background(), management.StockState{TrueBiomass: 50, InitialPop: 100})
	require.NoError(t, err)
	assert.NotEqual(t, 50.0, est.Bcurr)
}

func TestAssessAllCollectsResultsAcrossStocks(t *testing.T) {
	stocks := []management.StockState{
		{GroupCode: "FIS", TrueBiomass: 100, InitialPop: 200},
		{GroupCode: "CRA", TrueBiomass: 50, InitialPop: 100},
	}
	assessorFor := func(code string) management.Assessor {
		return &management.PseudoAssessor{Bias: 1.0}
	}

	out := management.AssessAll(context.Background(), stocks, assessorFor, nil, 0)
	require.Len(t, out, 2)
	assert.InDelta(t, 100, out["FIS"].Bcurr, 1e-9)
	assert.InDelta(t, 50, out["CRA"].Bcurr, 1e-9)
}

func TestAssessAllSkipsStocksWithNoAssessor(t *testing.T) {
	stocks := []management.StockState{{GroupCode: "FIS", TrueBiomass: 100, InitialPop: 200}}
	assessorFor := func(code string) management.Assessor { return nil }

	out := management.AssessAll(context.Background(), stocks, assessorFor, nil, 0)
	assert.Empty(t, out)
}

type failingAssessor struct{}

func (f *failingAssessor) Assess(_ context.Context, s management.StockState) (management.Estimate, error) {
	return management.Estimate{GroupCode: s.GroupCode}, errors.New("external bridge unavailable")
}

func TestAssessAllLogsAndExcludesFailingStock(t *testing.T) {
	var buf bytes.Buffer
	logger := ecolog.New(&buf)

	stocks := []management.StockState{
		{GroupCode: "FIS", TrueBiomass: 100, InitialPop: 200},
		{GroupCode: "BAD", TrueBiomass: 10, InitialPop: 20},
	}
	assessorFor := func(code string) management.Assessor {
		if code == "BAD" {
			return &failingAssessor{}
		}
		return &management.PseudoAssessor{Bias: 1.0}
	}

	out := management.AssessAll(context.Background(), stocks, assessorFor, logger, 3.5)
	require.Len(t, out, 1)
	_, ok := out["BAD"]
	assert.False(t, ok)
	assert.Contains(t, buf.String(), "BAD")
	assert.Contains(t, buf.String(), "assessment failed")
}

type nonconvergingAssessor struct{}

func (n *nonconvergingAssessor) Assess(_ context.Context, s management.StockState) (management.Estimate, error) {
	return management.Estimate{GroupCode: s.GroupCode, ConvergenceOK: false}, nil
}

func TestAssessAllLogsNonConvergenceButStillReturnsEstimate(t *testing.T) {
	var buf bytes.Buffer
	logger := ecolog.New(&buf)

	stocks := []management.StockState{{GroupCode: "FIS", TrueBiomass: 100, InitialPop: 200}}
	assessorFor := func(code string) management.Assessor { return &nonconvergingAssessor{} }

	out := management.AssessAll(context.Background(), stocks, assessorFor, logger, 1.0)
	require.Len(t, out, 1)
	assert.Contains(t, buf.String(), "did not converge")
}
