package clock

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestClockAdvance(t *testing.T) {
	Convey("Given a clock with a 12h step starting in 2020", t, func() {
		c := New(43200, 2020)

		Convey("Two 12h steps complete one day", func() {
			b1 := c.Advance()
			So(b1.NewDay, ShouldBeTrue) // the run's first step is itself a day boundary
			So(c.T, ShouldEqual, 43200.0)
			So(c.TofY, ShouldEqual, 0)

			b2 := c.Advance()
			So(b2.NewDay, ShouldBeTrue)
			So(c.TofY, ShouldEqual, 1)
			So(c.DayT, ShouldEqual, 0.0)
		})

		Convey("YearsElapsed reaches 2 after 730 days", func() {
			for i := 0; i < 2*365*2; i++ {
				c.Advance()
			}
			So(c.YearsElapsed(), ShouldEqual, 2)
			So(c.ThisYear, ShouldEqual, 2022)
		})

		Convey("Quarter and bimonthly boundaries fire on schedule", func() {
			sawQuarter, sawBiM := false, false
			for i := 0; i < 2*200; i++ {
				b := c.Advance()
				if b.NewQuarter {
					sawQuarter = true
				}
				if b.NewBiM {
					sawBiM = true
				}
			}
			So(sawQuarter, ShouldBeTrue)
			So(sawBiM, ShouldBeTrue)
		})
	})
}
