package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/nereusmodel/ecosim/fisheries"
)

// AnnualLine is one (species, fleet) row of the annual catch/discard/effort
// table (§6 "annual catch/discard/effort text reports").
type AnnualLine struct {
	GroupCode string
	FleetCode string
	Retained  float64 // tonnes
	Discarded float64 // tonnes
	Effort    float64
}

// PrintAnnualTable renders the year's catch/discard/effort summary to out,
// grounded on the teacher's table-building idiom in
// Sumatoshi-tech-codefang/internal/analyzers/common/formatter.go.
func PrintAnnualTable(out io.Writer, year int, lines []AnnualLine) {
	sorted := make([]AnnualLine, len(lines))
	copy(sorted, lines)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].GroupCode != sorted[j].GroupCode {
			return sorted[i].GroupCode < sorted[j].GroupCode
		}
		return sorted[i].FleetCode < sorted[j].FleetCode
	})

	tbl := table.NewWriter()
	tbl.SetOutputMirror(out)
	tbl.AppendHeader(table.Row{"Species", "Fleet", "Retained", "Discarded", "Effort"})
	for _, l := range sorted {
		tbl.AppendRow(table.Row{
			l.GroupCode, l.FleetCode,
			humanize.Commaf(l.Retained),
			humanize.Commaf(l.Discarded),
			humanize.Commaf(l.Effort),
		})
	}
	fmt.Fprintf(out, "-- Year %d --\n", year)
	tbl.Render()
}

// BuildAnnualLines reduces a day-by-day catch ledger into the year's
// per-(species, fleet) totals used by PrintAnnualTable and
// WriteHarvestIndx.
func BuildAnnualLines(records []fisheries.CatchRecord, groupCode func(groupIdx int) string, effortByFleet map[string]float64) []AnnualLine {
	type key struct {
		group string
		fleet string
	}
	totals := make(map[key]*AnnualLine)
	for _, r := range records {
		k := key{group: groupCode(r.GroupIdx), fleet: r.FleetCode}
		line, ok := totals[k]
		if !ok {
			line = &AnnualLine{GroupCode: k.group, FleetCode: k.fleet}
			totals[k] = line
		}
		line.Retained += r.Retained
		line.Discarded += r.Discarded
	}
	out := make([]AnnualLine, 0, len(totals))
	for k, line := range totals {
		line.Effort = effortByFleet[k.fleet]
		out = append(out, *line)
	}
	return out
}

// WriteHarvestIndx writes the HarvestIndx.txt time series file (§6): one
// row per year, per species, of cumulative retained catch, matching the
// strict space-delimited format original assessment-adjacent tooling
// expects to parse.
func WriteHarvestIndx(out io.Writer, year int, lines []AnnualLine) error {
	totals := make(map[string]float64)
	for _, l := range lines {
		totals[l.GroupCode] += l.Retained
	}
	codes := make([]string, 0, len(totals))
	for code := range totals {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	if _, err := fmt.Fprintf(out, "%d", year); err != nil {
		return err
	}
	for _, code := range codes {
		if _, err := fmt.Fprintf(out, " %s=%g", code, totals[code]); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(out)
	return err
}
