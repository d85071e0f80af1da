// Package clock implements the global scheduler: it advances simulated time
// by a fixed Δt and flags day/month/year/quarter boundaries (§2 Clock &
// scheduler, §3 Clock).
package clock

// Clock tracks simulated time and boundary flags. Fields mirror §3's data
// model: t (s), dt, dayt, TofY (0-364), MofY, QofY, BiM, thisyear.
type Clock struct {
	// T is simulated time in seconds since run start. Monotone.
	T float64
	// Dt is the fixed step size in seconds.
	Dt float64
	// DayT is elapsed seconds within the current day.
	DayT float64
	// TofY is the day-of-year, 0-364 (leap days are not modelled; the
	// calendar is the 365-day biological year the source used throughout).
	TofY int
	// MofY is month-of-year, 1-12.
	MofY int
	// QofY is quarter-of-year, 1-4.
	QofY int
	// BiM is the bimonthly period index, 1-6 (used by BiTACamt bookkeeping).
	BiM int
	// ThisYear is the absolute calendar year.
	ThisYear int

	startYear int
}

const (
	secondsPerDay  = 86400.0
	daysPerYear    = 365
	daysPerMonth   = daysPerYear / 12
	daysPerQuarter = daysPerYear / 4
	daysPerBiM     = daysPerYear / 6
)

// New creates a Clock starting at the first instant of startYear, stepping
// by dtSeconds.
func New(dtSeconds float64, startYear int) *Clock {
	c := &Clock{
		Dt:        dtSeconds,
		ThisYear:  startYear,
		startYear: startYear,
		MofY:      1,
		QofY:      1,
		BiM:       1,
	}
	return c
}

// Boundaries reports which scheduling boundaries the step just crossed.
type Boundaries struct {
	NewDay, NewMonth, NewQuarter, NewBiM, NewYear bool
}

// Advance steps the clock forward by Dt and returns which boundaries were
// crossed. Boundary flags are derived purely from t, never drift
// independently, satisfying the §3 invariant "boundary flags consistent
// with t".
func (c *Clock) Advance() Boundaries {
	prevTofY := c.TofY
	prevDayT := c.DayT

	c.T += c.Dt
	c.DayT += c.Dt

	var b Boundaries
	if c.DayT >= secondsPerDay {
		c.DayT -= secondsPerDay
		c.TofY++
		b.NewDay = true
	} else if prevDayT == 0 && c.T == c.Dt {
		// first step of the run is also a day boundary
		b.NewDay = true
	}

	if c.TofY >= daysPerYear {
		c.TofY -= daysPerYear
		c.ThisYear++
		b.NewYear = true
	}

	newMofY := 1 + c.TofY/daysPerMonth
	if newMofY > 12 {
		newMofY = 12
	}
	if newMofY != c.MofY {
		c.MofY = newMofY
		b.NewMonth = true
	}

	newQofY := 1 + c.TofY/daysPerQuarter
	if newQofY > 4 {
		newQofY = 4
	}
	if newQofY != c.QofY {
		c.QofY = newQofY
		b.NewQuarter = true
	}

	newBiM := 1 + c.TofY/daysPerBiM
	if newBiM > 6 {
		newBiM = 6
	}
	if newBiM != c.BiM {
		c.BiM = newBiM
		b.NewBiM = true
	}

	_ = prevTofY
	return b
}

// YearsElapsed returns how many full years have elapsed since the run
// start; used to drive multi-year TAC reset counters (§4.5).
func (c *Clock) YearsElapsed() int {
	return c.ThisYear - c.startYear
}
