// Package sim wires every component package into the per-step loop named
// by SPEC_FULL.md §2's dependency order: Clock -> Tracer store ->
// Functional-group registry -> Process dispatcher -> Diet resolver -> Flux
// accumulator -> Harvest engine -> Management engine. Simulation plays the
// role the teacher's main.go/reinforcement.Train loop played together
// (own the run's top-level state, drive it forward, export snapshots) but
// as a struct with an explicit Step method rather than a free function
// closed over package-level vars, since ecosim's state (grid, registry,
// fleets, TAC ledger) is far larger than the teacher's single states array.
package sim

import (
	"context"
	"math/rand"
	"time"

	"github.com/nereusmodel/ecosim/assessfile"
	"github.com/nereusmodel/ecosim/biology"
	"github.com/nereusmodel/ecosim/clock"
	"github.com/nereusmodel/ecosim/config"
	"github.com/nereusmodel/ecosim/diet"
	"github.com/nereusmodel/ecosim/fisheries"
	"github.com/nereusmodel/ecosim/fisheries/cpue"
	"github.com/nereusmodel/ecosim/flux"
	"github.com/nereusmodel/ecosim/internal/ecolog"
	"github.com/nereusmodel/ecosim/internal/metrics"
	"github.com/nereusmodel/ecosim/management"
	"github.com/nereusmodel/ecosim/report"
	"github.com/nereusmodel/ecosim/spatial"
	"github.com/nereusmodel/ecosim/tracer"
)

// ManagementState carries the year-over-year bookkeeping the management
// engine needs across annual boundaries (§4.5): per-stock TAC records,
// per-box/fleet MPA schedules, and each stock's chosen Assessor/HCR.
type ManagementState struct {
	TAC          map[int]management.TACRecord // by groupIdx
	MPA          map[int]*management.MPASchedule // by boxID, fleet-agnostic closures
	HCRByGroup   map[int]management.TieredRule
	AssessorFor  func(groupCode string) management.Assessor
	CompanionOf  map[int][]int // groupIdx -> companion groupIdxs
	CompanionRatios map[int]float64
	BasketShares map[int]map[int]float64 // basketCode -> groupIdx -> share (unused keys skipped)
}

// Simulation bundles every subsystem needed to advance one scenario.
type Simulation struct {
	Cfg    *config.ScenarioConfig
	Clock  *clock.Clock
	Grid   *spatial.Grid
	Store  *tracer.Store
	Reg    *biology.Registry
	Disp   *biology.Dispatcher
	Pref   *diet.Preference
	Arena  *flux.Arena

	FishEngine *fisheries.Engine
	Mgmt       ManagementState

	CPUEParams map[string]*cpue.FleetShotParams

	Logger  *ecolog.Logger
	Metrics *metrics.Registry
	Rand    *rand.Rand

	// Snapshots is where committed per-step state is published for
	// internal/server to stream; never read by the step loop itself
	// (§5 "a live monitor, not the simulation loop").
	Snapshots chan report.Snapshot

	AssessBridge *assessfile.Bridge
	WorkDir      string

	yearAnnualLines []report.AnnualLine
}

// New wires a Simulation from its already-loaded static inputs. Callers
// (package main) are responsible for constructing Grid/Store/Reg/fleets from
// scenario data files; New only wires the process graph over them.
func New(cfg *config.ScenarioConfig, grid *spatial.Grid, store *tracer.Store,
	reg *biology.Registry, pref *diet.Preference, fleets []*fisheries.Fleet,
	mgmt ManagementState, logger *ecolog.Logger, reg_ *metrics.Registry, seed int64) *Simulation {

	s := &Simulation{
		Cfg:        cfg,
		Clock:      clock.New(cfg.Scheduling.DtSeconds, cfg.Scheduling.StartYear),
		Grid:       grid,
		Store:      store,
		Reg:        reg,
		Disp:       biology.NewDispatcher(),
		Pref:       pref,
		Arena:      flux.NewArena(grid),
		FishEngine: fisheries.NewEngine(grid, fleets),
		Mgmt:       mgmt,
		CPUEParams: make(map[string]*cpue.FleetShotParams),
		Logger:     logger,
		Metrics:    reg_,
		Rand:       rand.New(rand.NewSource(seed)),
		Snapshots:  make(chan report.Snapshot, 1),
	}
	s.FishEngine.Cfg.EffortDisplacementThreshold = cfg.Fisheries.EffortDisplacementThreshold
	s.FishEngine.Cfg.TestFishEffort = cfg.Fisheries.TestFishEffort
	s.FishEngine.Cfg.AllowEffortDrop = cfg.Fisheries.AllowEffortDrop
	s.FishEngine.Cfg.FlagTACIncludeDiscard = cfg.Fisheries.FlagTACIncludeDiscard
	s.FishEngine.Cfg.BoatSpeedInertia = cfg.Fisheries.BoatSpeedInertia
	return s
}

// Run advances the simulation to cfg.Scheduling.NumYears, publishing a
// snapshot once per step and returning only once the run completes or ctx
// is cancelled.
func (s *Simulation) Run(ctx context.Context) error {
	defer close(s.Snapshots)
	stepsPerDay := int(86400.0 / s.Clock.Dt)
	if stepsPerDay < 1 {
		stepsPerDay = 1
	}
	for s.Clock.YearsElapsed() < s.Cfg.Scheduling.NumYears {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := s.Step(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Step advances the simulation by one Δt: the biology pass over every box/
// habitat/layer, the flux commit, the daily harvest/effort pass on day
// boundaries, and the annual management pass on year boundaries
// (SPEC_FULL.md §2/§4 dependency order).
func (s *Simulation) Step(ctx context.Context) error {
	start := time.Now()
	bounds := s.Clock.Advance()

	s.runBiologyPass()

	if bounds.NewDay {
		s.runHarvestPass()
	}
	if bounds.NewYear {
		if err := s.runManagementPass(ctx); err != nil {
			return err
		}
	}

	s.publishSnapshot()

	if s.Metrics != nil {
		s.Metrics.StepDuration.Observe(time.Since(start).Seconds())
		s.Metrics.ClampEvents.Add(float64(s.Store.ClampWarnings))
		s.Store.ClampWarnings = 0
	}
	return nil
}

// runBiologyPass implements §4.1/§4.2/§4.3 for one Δt: for every box, build
// the prey snapshot once, run every habitat's process functions against it,
// then commit the arena for that box (§5 "tracer reads snapshotted at box
// entry, writes committed once per box").
func (s *Simulation) runBiologyPass() {
	s.Arena.Reset()
	itCount := 1 // single-pass stepping; itCount==1 is always the global-flux pass

	s.Grid.VisitBoxes(func(box *spatial.Box) {
		raw := s.snapshotPreyTable(box)

		habitats := []struct {
			h        spatial.Habitat
			waterIdx int
		}{}
		for li := range box.Layers {
			habitats = append(habitats, struct {
				h        spatial.Habitat
				waterIdx int
			}{spatial.HabitatWater, li})
		}
		if box.HasSediment {
			habitats = append(habitats, struct {
				h        spatial.Habitat
				waterIdx int
			}{spatial.HabitatSediment, 0})
		}
		if box.HasEpibenthic {
			habitats = append(habitats, struct {
				h        spatial.Habitat
				waterIdx int
			}{spatial.HabitatEpibenthic, 0})
		}

		for _, hb := range habitats {
			acc := s.Arena.For(box.ID, hb.h)
			_, depthBottom := box.LayerDepthRange(hb.waterIdx)
			ctx := &biology.ProcessContext{
				Box:               box,
				LayerIdx:          hb.waterIdx,
				Habitat:           hb.h,
				Store:             s.Store,
				Acc:               acc,
				Dt:                s.Clock.Dt,
				ItCount:           itCount,
				IsGlobalIteration: itCount == 1,
				Cfg:               s.Cfg,
				Pref:              s.Pref,
				Rand:              s.Rand,
				PreyRaw:           raw,
				O2Depth:           depthBottom,
				GroupBiomassIdx:   s.groupBiomassIdx(),
			}
			s.Disp.RunBox(ctx, s.Reg)
			s.Arena.Commit(s.Store, box, hb.h, hb.waterIdx, s.Clock.Dt, s.Clock.T, s.Logger)
		}
	})
}

// snapshotPreyTable builds the raw per-box prey availability snapshot read
// once at box entry, before any predator in the box runs (§4.2, §5).
func (s *Simulation) snapshotPreyTable(box *spatial.Box) map[diet.PreyKey]float64 {
	raw := make(map[diet.PreyKey]float64)
	s.Reg.Visit(func(g *biology.FunctionalGroup) {
		groupIdx := s.groupIdxOf(g)
		for h, aff := range g.Affinity {
			if aff <= 0 {
				continue
			}
			layerIdx := box.LayerIndex(h, 0)
			if layerIdx >= box.TracerLayerSlots() {
				continue
			}
			biomass := s.Store.At(g.BiomassIdx, box.ID, layerIdx).Get()
			if biomass <= 0 {
				continue
			}
			raw[diet.PreyKey{PreyGroupIdx: groupIdx, Habitat: h}] = biomass
		}
	})
	return raw
}

func (s *Simulation) groupIdxOf(g *biology.FunctionalGroup) int {
	for i := range s.Reg.Groups {
		if &s.Reg.Groups[i] == g {
			return i
		}
	}
	return -1
}

func (s *Simulation) groupBiomassIdx() []int {
	out := make([]int, len(s.Reg.Groups))
	for i := range s.Reg.Groups {
		out[i] = s.Reg.Groups[i].BiomassIdx
	}
	return out
}

// runHarvestPass drives §4.4's daily harvest/effort sequence, folding in
// whatever management signals are currently in force (MPA closures, TAC-
// driven fleet closures carried in s.Mgmt across the year).
func (s *Simulation) runHarvestPass() {
	sig := fisheries.ManagementSignals{
		EffScale:      make(map[string]float64),
		MPAMultiplier: make(map[int]float64),
		PortShare:     make(map[int]float64),
		FleetClosed:   make(map[string]bool),
	}
	for _, f := range s.FishEngine.Fleets {
		sig.EffScale[f.Code] = 1
	}
	for boxID, m := range s.Mgmt.MPA {
		if m != nil {
			sig.MPAMultiplier[boxID] = m.Multiplier()
		}
	}
	s.Grid.VisitFishable(func(b *spatial.Box) {
		if _, ok := sig.PortShare[b.ID]; !ok {
			sig.PortShare[b.ID] = 1
		}
	})

	records := s.FishEngine.Step(s.Reg, s.Store, sig, s.Clock.TofY, s.Clock.QofY, s.Clock.Dt, nil)

	effortByFleet := make(map[string]float64, len(s.FishEngine.Fleets))
	for _, f := range s.FishEngine.Fleets {
		field := s.FishEngine.Fields[f.Code]
		total := 0.0
		for _, v := range field.Effort {
			total += v
		}
		effortByFleet[f.Code] = total
	}
	lines := report.BuildAnnualLines(records, s.groupCodeOf, effortByFleet)
	s.yearAnnualLines = append(s.yearAnnualLines, lines...)

	for _, f := range s.FishEngine.Fleets {
		if !f.NeedsShots {
			continue
		}
		params, ok := s.CPUEParams[f.Code]
		if !ok {
			continue
		}
		s.synthesizeShots(f, params, records)
	}
}

func (s *Simulation) groupCodeOf(groupIdx int) string {
	if groupIdx < 0 || groupIdx >= len(s.Reg.Groups) {
		return ""
	}
	return s.Reg.Groups[groupIdx].Code
}

// synthesizeShots hands one fleet's today's catch/effort to fisheries/cpue
// (§4.6); failures are logged, never fatal (§7 "step-time errors never
// abort the simulation loop").
func (s *Simulation) synthesizeShots(f *fisheries.Fleet, params *cpue.FleetShotParams, records []fisheries.CatchRecord) {
	allocated := make(map[string]map[int]map[int]float64)
	effort := make(map[string]map[int]float64)
	byBox := make(map[int]map[int]float64)
	for _, r := range records {
		if r.FleetCode != f.Code {
			continue
		}
		if byBox[r.BoxID] == nil {
			byBox[r.BoxID] = make(map[int]float64)
		}
		byBox[r.BoxID][r.GroupIdx] += r.Retained
	}
	for boxID, byGroup := range byBox {
		if allocated[f.Code] == nil {
			allocated[f.Code] = make(map[int]map[int]float64)
		}
		allocated[f.Code][boxID] = byGroup
	}
	field := s.FishEngine.Fields[f.Code]
	effort[f.Code] = field.Effort

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	day, err := cpue.Synthesize(ctx, []*fisheries.Fleet{f}, allocated, effort,
		map[string]*cpue.FleetShotParams{f.Code: params}, s.Rand)
	if err != nil {
		if s.Logger != nil {
			s.Logger.Logf(s.Clock.T, ecolog.Info, "cpue: fleet=%s synthesis error: %v", f.Code, err)
		}
		return
	}
	if s.Metrics != nil {
		s.Metrics.CPUEShots.Add(float64(len(day.Shots)))
	}
}

// runManagementPass drives the annual part of §4.5: it assesses every
// fished or TAC-managed group (management.AssessAll), sets each assessed
// group's TAC to Bcurr times its HCR's F (clearing Taken and counting
// YearsSinceReset up), activates a fixed TAC-triggered MPA over every box
// for each TAC record EvaluateTACTriggeredMPA flags, and prints the annual
// report. Companion/basket and multi-year TAC rescaling, contaminant-
// triggered MPAs and any reset of the harvest engine's bookkeeping are not
// done here.
func (s *Simulation) runManagementPass(ctx context.Context) error {
	stocks := make([]management.StockState, 0, len(s.Reg.Groups))
	s.Reg.Visit(func(g *biology.FunctionalGroup) {
		if !g.IsFished && !g.IsTAC {
			return
		}
		groupIdx := s.groupIdxOf(g)
		trueBiomass := 0.0
		s.Grid.VisitBoxes(func(b *spatial.Box) {
			trueBiomass += s.Store.At(g.BiomassIdx, b.ID, b.LayerIndex(spatial.HabitatWater, 0)).Get()
		})
		stocks = append(stocks, management.StockState{
			GroupCode: g.Code,
			GroupIdx:  groupIdx,
			TrueBiomass: trueBiomass,
			CumCatch:  s.Mgmt.TAC[groupIdx].Taken,
			Year:      s.Clock.ThisYear,
		})
	})

	estimates := management.AssessAll(ctx, stocks, s.Mgmt.AssessorFor, s.Logger, s.Clock.T)

	for _, st := range stocks {
		est, ok := estimates[st.GroupCode]
		if !ok {
			continue
		}
		rule, ok := s.Mgmt.HCRByGroup[st.GroupIdx]
		if !ok {
			continue
		}
		fMult := rule.F(est.Bcurr)
		rec := s.Mgmt.TAC[st.GroupIdx]
		rec.GroupIdx = st.GroupIdx
		rec.Tonnes = est.Bcurr * fMult
		rec.Taken = 0
		rec.YearsSinceReset++
		s.Mgmt.TAC[st.GroupIdx] = rec

		if s.Metrics != nil {
			s.Metrics.CumulativeCatch.WithLabelValues(st.GroupCode, "all").Set(rec.Tonnes)
		}
	}

	allBoxIDs := make([]int, 0, len(s.Grid.Boxes))
	s.Grid.VisitBoxes(func(b *spatial.Box) { allBoxIDs = append(allBoxIDs, b.ID) })
	for _, rec := range s.Mgmt.TAC {
		triggered := management.EvaluateTACTriggeredMPA(rec, management.MPAFixed, allBoxIDs)
		for _, m := range triggered {
			mCopy := m
			s.Mgmt.MPA[mCopy.BoxID] = &mCopy
		}
	}

	s.flushAnnualReport()
	return nil
}

// flushAnnualReport prints the year's catch/discard/effort table and
// resets the accumulator for the next year (§6 "annual catch/discard/
// effort text reports").
func (s *Simulation) flushAnnualReport() {
	if len(s.yearAnnualLines) > 0 {
		report.PrintAnnualTable(ecologWriter{s.Logger}, s.Clock.ThisYear-1, s.yearAnnualLines)
	}
	s.yearAnnualLines = nil
}

// ecologWriter adapts an *ecolog.Logger to io.Writer for PrintAnnualTable,
// which otherwise expects a plain stream; table rows are written verbatim
// as Info-severity log lines.
type ecologWriter struct{ l *ecolog.Logger }

func (w ecologWriter) Write(p []byte) (int, error) {
	if w.l != nil {
		w.l.Logf(0, ecolog.Info, "%s", string(p))
	}
	return len(p), nil
}

// publishSnapshot builds and (non-blockingly) publishes the current tracer
// state for internal/server to stream (§6, §5 "a live monitor, not the
// simulation loop").
func (s *Simulation) publishSnapshot() {
	snap := report.Snapshot{
		SimTime:       s.Clock.T,
		Year:          s.Clock.ThisYear,
		DayOfYear:     s.Clock.TofY,
		ClampWarnings: s.Store.ClampWarnings,
		TakenAt:       time.Now(),
	}
	s.Reg.Visit(func(g *biology.FunctionalGroup) {
		s.Grid.VisitBoxes(func(b *spatial.Box) {
			biomass := s.Store.At(g.BiomassIdx, b.ID, b.LayerIndex(spatial.HabitatWater, 0)).Get()
			if biomass == 0 {
				return
			}
			snap.Groups = append(snap.Groups, report.GroupSnapshot{
				GroupCode: g.Code,
				BoxID:     b.ID,
				Biomass:   biomass,
			})
		})
	})
	select {
	case s.Snapshots <- snap:
	default:
		// Drop the snapshot if nobody's draining fast enough; the server
		// keeps only the most recent one anyway (§6).
		select {
		case <-s.Snapshots:
		default:
		}
		select {
		case s.Snapshots <- snap:
		default:
		}
	}
}
