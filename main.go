/*
Ecosim is a spatially explicit, age/biomass-structured marine ecosystem
simulator coupled to a fisheries management strategy evaluation layer. This
entrypoint wires a small demo scenario (one box, a primary producer, pelagic
bacteria, and one fished invertebrate consumer worked by one fleet under a
tiered harvest control rule) and runs it to completion while a live monitor
streams snapshots over HTTP/websocket, mirroring the split the teacher's
reinforcement-learning trainer and server.Server kept between "run the
simulation" and "watch it run".
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"

	"github.com/nereusmodel/ecosim/biology"
	"github.com/nereusmodel/ecosim/config"
	"github.com/nereusmodel/ecosim/diet"
	"github.com/nereusmodel/ecosim/fisheries"
	"github.com/nereusmodel/ecosim/internal/ecolog"
	"github.com/nereusmodel/ecosim/internal/metrics"
	"github.com/nereusmodel/ecosim/internal/server"
	"github.com/nereusmodel/ecosim/management"
	"github.com/nereusmodel/ecosim/sim"
	"github.com/nereusmodel/ecosim/spatial"
	"github.com/nereusmodel/ecosim/tracer"
)

var (
	scenarioPath *string
	host         *string
	port         *string
	addr         string
	seed         *int64
)

// TODO: per 12-factor rules these should be taken from env too; KISS for a
// single demo scenario.
func init() {
	scenarioPath = flag.String("scenario", "./scenario.yaml", "path to scenario config yaml")
	host = flag.String("host", "", "monitor host ip")
	port = flag.String("port", "8080", "monitor host port")
	seed = flag.Int64("seed", 1, "PRNG seed")
	flag.Parse()
	addr = *host + ":" + *port
}

// demoTracers declares the fixed tracer catalogue the demo scenario's
// groups draw down and produce into (§2 Tracer store, §3 Descriptor).
func demoTracers() []tracer.Descriptor {
	return []tracer.Descriptor{
		{Name: "light", Kind: tracer.KindLight, Units: "W/m2", SumPolicy: tracer.SumAdditive},
		{Name: "NH4", Kind: tracer.KindNutrient, Units: "mg N/m3", SumPolicy: tracer.SumAdditive, NonNeg: true},
		{Name: "NO3", Kind: tracer.KindNutrient, Units: "mg N/m3", SumPolicy: tracer.SumAdditive, NonNeg: true},
		{Name: "DON", Kind: tracer.KindNutrient, Units: "mg N/m3", SumPolicy: tracer.SumAdditive, NonNeg: true},
		{Name: "O2", Kind: tracer.KindGas, Units: "mg O2/m3", SumPolicy: tracer.SumAdditive, NonNeg: true},
		{Name: "DL", Kind: tracer.KindDetritus, Units: "mg N/m3", SumPolicy: tracer.SumAdditive, NonNeg: true},
		{Name: "DR", Kind: tracer.KindDetritus, Units: "mg N/m3", SumPolicy: tracer.SumAdditive, NonNeg: true},
		{Name: "phyto_biomass", Kind: tracer.KindBiomass, Units: "mg N/m3", SumPolicy: tracer.SumAdditive, NonNeg: true},
		{Name: "bacteria_biomass", Kind: tracer.KindBiomass, Units: "mg N/m3", SumPolicy: tracer.SumAdditive, NonNeg: true},
		{Name: "fish_biomass", Kind: tracer.KindBiomass, Units: "mg N/m3", SumPolicy: tracer.SumAdditive, NonNeg: true},
	}
}

// buildDemoGrid constructs a single dynamic box with a water column and a
// sediment habitat, enough to exercise the producer/bacteria/consumer
// dispatch variants (§2 Spatial grid).
func buildDemoGrid() *spatial.Grid {
	box := spatial.Box{
		ID:          0,
		Type:        spatial.Dynamic,
		Area:        1_000_000,
		BotZ:        -50,
		RegionID:    0,
		Layers:      []spatial.Layer{{DzMeters: 50}},
		HasSediment: true,
		Neighbors:   nil,
	}
	return spatial.NewGrid([]spatial.Box{box})
}

// buildDemoRegistry builds the three-group demo catalogue: a primary
// producer, pelagic bacteria, and a fished invertebrate consumer (§3
// FunctionalGroup), plus the tracer indices each needs resolved against the
// store.
func buildDemoRegistry(store *tracer.Store) (*biology.Registry, *diet.Preference) {
	lightIdx := store.MustIndex("light")
	nh4Idx := store.MustIndex("NH4")
	no3Idx := store.MustIndex("NO3")
	donIdx := store.MustIndex("DON")
	o2Idx := store.MustIndex("O2")
	dlIdx := store.MustIndex("DL")
	drIdx := store.MustIndex("DR")
	phytoIdx := store.MustIndex("phyto_biomass")
	bactIdx := store.MustIndex("bacteria_biomass")
	fishIdx := store.MustIndex("fish_biomass")

	phyto := biology.FunctionalGroup{
		Code:              "PPL",
		Kind:              biology.KindPrimaryProducer,
		AgeModel:          biology.AgeSingleBiomass,
		Affinity:          biology.HabitatAffinity{spatial.HabitatWater: 1},
		Active:            true,
		BiomassIdx:        phytoIdx,
		DetritusLabileIdx: dlIdx,
		DetritusRefractoryIdx: drIdx,
		Params: &biology.PhytoParams{
			MuMax:     3e-6,
			KLight:    80,
			KN:        0.05,
			KNO:       0.1,
			LightIdx:  lightIdx,
			NH4Idx:    nh4Idx,
			NO3Idx:    no3Idx,
			SiIdx:     -1,
			FeIdx:     -1,
			PIdx:      -1,
			LysisRate: 1e-7,
		},
	}

	bacteria := biology.FunctionalGroup{
		Code:              "PB",
		Kind:              biology.KindPelagicBacteria,
		AgeModel:          biology.AgeSingleBiomass,
		Affinity:          biology.HabitatAffinity{spatial.HabitatWater: 1},
		Active:            true,
		BiomassIdx:        bactIdx,
		DetritusLabileIdx: dlIdx,
		DetritusRefractoryIdx: drIdx,
		Params: &biology.BacteriaParams{
			MuMax:    2e-6,
			K:        2,
			X:        1.5,
			E3:       0.4,
			E4:       0.3,
			FProdDR:  0.2,
			FProdDON: 0.3,
			KOxygen:  0,
			KNit:     0,
			OxygenIdx: o2Idx,
			NH4Idx:   nh4Idx,
			DLIdx:    dlIdx,
			DRIdx:    drIdx,
			DONIdx:   donIdx,
		},
	}

	fish := biology.FunctionalGroup{
		Code:              "FIS",
		Kind:              biology.KindInvertConsumer,
		AgeModel:          biology.AgeSingleBiomass,
		Affinity:          biology.HabitatAffinity{spatial.HabitatWater: 1},
		Active:            true,
		IsFished:          true,
		IsTAC:             true,
		BiomassIdx:        fishIdx,
		DetritusLabileIdx: dlIdx,
		Cohorts:           []biology.Cohort{{Index: 0, Stage: biology.StageAdult, MeanWgt: 1, Numbers: 0}},
		Params: &biology.ConsumerParams{
			Eat: diet.EatParams{
				C:    1.0,
				MuMax: 5e-6,
				KL:   0.1,
				KU:   0.5,
				Vl:   1,
				Ht:   1,
				E1:   0.6,
				E2:   0.1,
				E3:   0.1,
				E4:   0.2,
			},
			UseQuadraticCrowding: true,
			AreaWeightedMax:      500,
			MuMax:                5e-6,
			LinearMortality:      1e-8,
			OxygenIdx:            o2Idx,
			FeedsWhileSpawn:      true,
		},
	}

	reg := biology.NewRegistry([]biology.FunctionalGroup{phyto, bacteria, fish})

	pref := diet.NewPreference([][3]float64{
		{2, 0, 1.0}, // fish preys on phyto
		{2, 1, 0.5}, // fish preys on bacteria
	})
	return reg, pref
}

// seedDemoState sets the initial tracer values for the demo box (§3 initial
// conditions are otherwise an external scenario-file concern, out of scope
// per §1; hardcoded here for the demo run).
func seedDemoState(store *tracer.Store, grid *spatial.Grid) {
	box := grid.Box(0)
	water := box.LayerIndex(spatial.HabitatWater, 0)
	store.At(store.MustIndex("light"), 0, water).Set(200)
	store.At(store.MustIndex("NH4"), 0, water).Set(0.2)
	store.At(store.MustIndex("NO3"), 0, water).Set(0.3)
	store.At(store.MustIndex("O2"), 0, water).Set(300)
	store.At(store.MustIndex("DL"), 0, water).Set(0.5)
	store.At(store.MustIndex("DR"), 0, water).Set(0.5)
	store.At(store.MustIndex("phyto_biomass"), 0, water).Set(20)
	store.At(store.MustIndex("bacteria_biomass"), 0, water).Set(5)
	store.At(store.MustIndex("fish_biomass"), 0, water).Set(50)
}

// buildDemoFleet wires one fleet fishing the demo box under a constant
// equal-share effort model (§3 Fleet, §4.4).
func buildDemoFleet(fishGroupIdx int) *fisheries.Fleet {
	return &fisheries.Fleet{
		Code:          "TrawlA",
		HomePortBoxID: 0,
		EligibleBoxes: []int{0},
		Selectivities: []fisheries.Selectivity{
			{GroupIdx: fishGroupIdx, PerCohort: []float64{1.0}, Q: 1.0, DiscardFraction: 0.05},
		},
		EffortModel:     fisheries.ConstantEffort{},
		AllowEffortDrop: true,
	}
}

// buildDemoManagement wires a Tier1 broken-stick HCR and a pseudo-assessor
// for the fished stock (§4.5).
func buildDemoManagement(fishGroupIdx int, rng *rand.Rand) sim.ManagementState {
	assessor := &management.PseudoAssessor{Bias: 1.0, CV: 0.1, Rand: rng}
	return sim.ManagementState{
		TAC: map[int]management.TACRecord{
			fishGroupIdx: {GroupIdx: fishGroupIdx, Tonnes: 5},
		},
		MPA: map[int]*management.MPASchedule{},
		HCRByGroup: map[int]management.TieredRule{
			fishGroupIdx: {
				Tier: management.Tier1,
				Points: management.BrokenStick{
					BrefA: 40, BrefB: 20, BrefE: 10, Blim: 5,
					FRefA: 0.2,
				},
			},
		},
		AssessorFor: func(groupCode string) management.Assessor { return assessor },
	}
}

func runApp() error {
	cfg, err := config.Load(*scenarioPath)
	if err != nil {
		return fmt.Errorf("loading scenario: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validating scenario: %w", err)
	}

	grid := buildDemoGrid()
	layersPerBox := make([]int, len(grid.Boxes))
	grid.VisitBoxes(func(b *spatial.Box) { layersPerBox[b.ID] = b.TracerLayerSlots() })
	store := tracer.NewStore(demoTracers(), layersPerBox)
	seedDemoState(store, grid)

	reg, pref := buildDemoRegistry(store)
	const fishIdx = 2 // registry order: PPL=0, PB=1, FIS=2 (buildDemoRegistry)

	fleet := buildDemoFleet(fishIdx)
	mgmt := buildDemoManagement(fishIdx, rand.New(rand.NewSource(*seed)))

	logger := ecolog.Default()
	metricsReg := metrics.New()

	simulation := sim.New(cfg, grid, store, reg, pref, []*fisheries.Fleet{fleet}, mgmt, logger, metricsReg, *seed)

	appCtx, appCancel := context.WithCancel(context.Background())
	defer appCancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Logf(simulation.Clock.T, ecolog.Info, "shutdown signal received, stopping run")
		appCancel()
	}()

	srv := server.NewServer(addr, store, metricsReg, simulation.Snapshots, nil)
	srvErr := make(chan error, 1)
	go func() { srvErr <- srv.Serve(appCtx) }()

	runErr := simulation.Run(appCtx)
	appCancel()
	if err := <-srvErr; err != nil && appCtx.Err() == nil {
		logger.Logf(simulation.Clock.T, ecolog.ConfigError, "monitor server: %v", err)
	}
	return runErr
}

func main() {
	if err := runApp(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
