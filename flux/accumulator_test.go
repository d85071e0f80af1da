package flux

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/nereusmodel/ecosim/spatial"
	"github.com/nereusmodel/ecosim/tracer"
)

func testGrid() *spatial.Grid {
	return spatial.NewGrid([]spatial.Box{
		{ID: 0, Type: spatial.Dynamic, Area: 1, Layers: []spatial.Layer{{DzMeters: 10}}},
	})
}

func testStore() *tracer.Store {
	return tracer.NewStore([]tracer.Descriptor{
		{Name: "biomass", Kind: tracer.KindBiomass, NonNeg: true},
	}, []int{1})
}

func TestArenaCommit(t *testing.T) {
	Convey("Given an arena over a one-box grid", t, func() {
		g := testGrid()
		store := testStore()
		arena := NewArena(g)
		biomassIdx := store.MustIndex("biomass")
		box := g.Box(0)

		Convey("Production nets against loss, scaled by dt", func() {
			store.At(biomassIdx, 0, 0).Set(10)
			acc := arena.For(0, spatial.HabitatWater)
			acc.AddProd(biomassIdx, 2.0, true)
			acc.AddLost(biomassIdx, 0.5, true)

			arena.Commit(store, box, spatial.HabitatWater, 0, 1.0, 0, nil)

			So(store.At(biomassIdx, 0, 0).Get(), ShouldEqual, 11.5)
		})

		Convey("A loss that would drive the tracer negative clamps to zero", func() {
			store.At(biomassIdx, 0, 0).Set(1)
			acc := arena.For(0, spatial.HabitatWater)
			acc.AddLost(biomassIdx, 5.0, true)

			arena.Commit(store, box, spatial.HabitatWater, 0, 1.0, 0, nil)

			So(store.At(biomassIdx, 0, 0).Get(), ShouldEqual, 0)
			So(store.ClampWarnings, ShouldEqual, 1)
		})

		Convey("Reset clears accumulated flux between steps", func() {
			acc := arena.For(0, spatial.HabitatWater)
			acc.AddProd(biomassIdx, 3.0, true)
			arena.Reset()
			So(acc.Prod[biomassIdx], ShouldEqual, 0)
			So(acc.GlobalProd[biomassIdx], ShouldEqual, 0)
		})

		Convey("TransferContaminant moves mass from source to destination", func() {
			srcAcc := arena.For(0, spatial.HabitatWater)
			destAcc := arena.For(0, spatial.HabitatSediment)
			TransferContaminant(destAcc, srcAcc, biomassIdx, 10.0, 0.2, true)
			So(srcAcc.Lost[biomassIdx], ShouldEqual, 2.0)
			So(destAcc.Prod[biomassIdx], ShouldEqual, 2.0)
		})
	})
}
