// Package report implements the output-facing side of §6 External
// interfaces: a live JSON tracer snapshot DTO for internal/server, and the
// annual catch/discard/effort text reports and HarvestIndx.txt writer.
//
// Snapshot is a purpose-built output DTO rather than a reuse of the
// teacher's models.State grid (which mixed simulation state, RL value
// estimates, and rendering hints in one struct) — the distinction the
// teacher's own root_view.go comments flag as worth separating "once
// testability drives decomposition".
package report

import "time"

// GroupSnapshot is one functional group's reported state for one box.
type GroupSnapshot struct {
	GroupCode string  `json:"groupCode"`
	BoxID     int     `json:"boxId"`
	Biomass   float64 `json:"biomass"`
	Numbers   float64 `json:"numbers,omitempty"`
}

// Snapshot is the full live-monitor payload published once per commit
// pass (§5 "a live snapshot monitor reading while the single-threaded step
// loop writes").
type Snapshot struct {
	SimTime   float64         `json:"simTime"`
	Year      int             `json:"year"`
	DayOfYear int             `json:"dayOfYear"`
	Groups    []GroupSnapshot `json:"groups"`
	ClampWarnings int         `json:"clampWarnings"`
	TakenAt   time.Time       `json:"takenAt"`
}
