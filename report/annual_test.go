package report_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nereusmodel/ecosim/fisheries"
	"github.com/nereusmodel/ecosim/report"
)

func TestBuildAnnualLinesAggregatesByGroupAndFleet(t *testing.T) {
	records := []fisheries.CatchRecord{
		{GroupIdx: 0, FleetCode: "TrawlA", Retained: 10, Discarded: 1},
		{GroupIdx: 0, FleetCode: "TrawlA", Retained: 5, Discarded: 0.5},
		{GroupIdx: 1, FleetCode: "TrawlA", Retained: 3, Discarded: 0},
	}
	groupCode := func(idx int) string {
		if idx == 0 {
			return "FIS"
		}
		return "CRA"
	}
	effort := map[string]float64{"TrawlA": 42}

	lines := report.BuildAnnualLines(records, groupCode, effort)
	require.Len(t, lines, 2)

	byGroup := make(map[string]report.AnnualLine)
	for _, l := range lines {
		byGroup[l.GroupCode] = l
	}
	assert.InDelta(t, 15, byGroup["FIS"].Retained, 1e-9)
	assert.InDelta(t, 1.5, byGroup["FIS"].Discarded, 1e-9)
	assert.InDelta(t, 3, byGroup["CRA"].Retained, 1e-9)
	assert.InDelta(t, 42, byGroup["FIS"].Effort, 1e-9)
}

func TestWriteHarvestIndxFormatsSpaceDelimitedTotalsSortedByCode(t *testing.T) {
	var buf bytes.Buffer
	lines := []report.AnnualLine{
		{GroupCode: "FIS", Retained: 10},
		{GroupCode: "CRA", Retained: 3},
		{GroupCode: "FIS", Retained: 5},
	}
	require.NoError(t, report.WriteHarvestIndx(&buf, 2024, lines))
	assert.Equal(t, "2024 CRA=3 FIS=15\n", buf.String())
}

func TestPrintAnnualTableRendersYearHeaderAndSpeciesRows(t *testing.T) {
	var buf bytes.Buffer
	report.PrintAnnualTable(&buf, 2024, []report.AnnualLine{
		{GroupCode: "FIS", FleetCode: "TrawlA", Retained: 1234.5, Discarded: 12, Effort: 3},
	})
	out := buf.String()
	assert.Contains(t, out, "-- Year 2024 --")
	assert.Contains(t, out, "FIS")
	assert.Contains(t, out, "TrawlA")
}
