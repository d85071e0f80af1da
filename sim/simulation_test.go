package sim_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nereusmodel/ecosim/biology"
	"github.com/nereusmodel/ecosim/config"
	"github.com/nereusmodel/ecosim/diet"
	"github.com/nereusmodel/ecosim/fisheries"
	"github.com/nereusmodel/ecosim/management"
	"github.com/nereusmodel/ecosim/sim"
	"github.com/nereusmodel/ecosim/spatial"
	"github.com/nereusmodel/ecosim/tracer"
)

func buildMinimalSimulation(t *testing.T) *sim.Simulation {
	t.Helper()

	box := spatial.Box{ID: 0, Type: spatial.Dynamic, Area: 1000, BotZ: -10, Layers: []spatial.Layer{{DzMeters: 10}}}
	grid := spatial.NewGrid([]spatial.Box{box})

	store := tracer.NewStore([]tracer.Descriptor{
		{Name: "light", Kind: tracer.KindLight},
		{Name: "NH4", Kind: tracer.KindNutrient, NonNeg: true},
		{Name: "phyto", Kind: tracer.KindBiomass, NonNeg: true},
		{Name: "DL", Kind: tracer.KindDetritus, NonNeg: true},
	}, []int{1})
	lightIdx := store.MustIndex("light")
	nh4Idx := store.MustIndex("NH4")
	phytoIdx := store.MustIndex("phyto")
	dlIdx := store.MustIndex("DL")

	store.At(lightIdx, 0, 0).Set(100)
	store.At(nh4Idx, 0, 0).Set(1)
	store.At(phytoIdx, 0, 0).Set(10)

	reg := biology.NewRegistry([]biology.FunctionalGroup{
		{
			Code: "PPL", Kind: biology.KindPrimaryProducer, Active: true,
			Affinity:          biology.HabitatAffinity{spatial.HabitatWater: 1},
			BiomassIdx:        phytoIdx,
			DetritusLabileIdx: dlIdx,
			Params: &biology.PhytoParams{
				MuMax: 0.1, KLight: 50, KN: 0.5,
				LightIdx: lightIdx, NH4Idx: nh4Idx, NO3Idx: -1, SiIdx: -1, FeIdx: -1, PIdx: -1,
				LysisRate: 0.01,
			},
		},
	})
	pref := diet.NewPreference(nil)

	cfg := &config.ScenarioConfig{
		Scheduling: config.SchedulingConfig{DtSeconds: 43200, StartYear: 2020, NumYears: 1},
	}

	mgmt := sim.ManagementState{
		TAC:         map[int]management.TACRecord{},
		MPA:         map[int]*management.MPASchedule{},
		HCRByGroup:  map[int]management.TieredRule{},
		AssessorFor: func(code string) management.Assessor { return nil },
	}

	return sim.New(cfg, grid, store, reg, pref, nil, mgmt, nil, nil, 1)
}

func TestStepRunsBiologyPassAndPublishesSnapshot(t *testing.T) {
	s := buildMinimalSimulation(t)

	err := s.Step(context.Background())
	require.NoError(t, err)

	select {
	case snap := <-s.Snapshots:
		assert.InDelta(t, s.Clock.Dt, snap.SimTime, 1e-6)
		require.Len(t, snap.Groups, 1)
		assert.Equal(t, "PPL", snap.Groups[0].GroupCode)
		assert.Greater(t, snap.Groups[0].Biomass, 10.0) // phyto grew this step
	default:
		t.Fatal("expected a snapshot to be published")
	}
}

func TestStepFirstCallAlwaysCrossesDayBoundaryAndRunsHarvestPass(t *testing.T) {
	s := buildMinimalSimulation(t)
	require.NoError(t, s.Step(context.Background()))
	<-s.Snapshots
	// no fleets configured; harvest pass runs but produces no catch records,
	// so nothing further to assert beyond "did not panic".
}

func TestRunAdvancesThroughOneFullYearAndClosesSnapshots(t *testing.T) {
	s := buildMinimalSimulation(t)

	done := make(chan error, 1)
	go func() { done <- s.Run(context.Background()) }()

	drained := 0
	for range s.Snapshots {
		drained++
	}
	require.NoError(t, <-done)
	assert.Greater(t, drained, 0)
	assert.Equal(t, 2021, s.Clock.ThisYear)
}

func TestRunStopsEarlyWhenContextCancelled(t *testing.T) {
	s := buildMinimalSimulation(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	go func() {
		for range s.Snapshots {
		}
	}()
	err := s.Run(ctx)
	assert.Error(t, err)
}
