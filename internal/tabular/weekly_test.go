package tabular

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "claimpulse/internal/errors"
	"claimpulse/internal/shared/testutil"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func v1Rows() [][]any {
	return [][]any{
		{"Weekly Claims Report"},
		{"1/12/2024"},
		{"", "Reserves", "$110,000.00", "42000", "95000"},
		{"", "Features", 53, 21, 6},
		{"", "Change", "10,000", 3},
		{"1/5/2024"},
		{"", "Reserves", 100000, 40000, 90000},
		{"", "Features", 50, 20, 5},
		{"", "Change", "(2,500)", -1},
		{"1/19/2024"},
		{"", "Reserves", 1, 2, 3},
	}
}

func v2Rows() [][]any {
	return [][]any{
		{"Week of 2024-02-02", "", "Prior Week", "Current Week"},
		{"", "Reserve Totals", 100000, 120000, 50000, 130000},
		{"", "Feature Counts", 50, 55, 22, 7},
		{"", "WoW Change", "", 20000, 5},
	}
}

func gridFrom(t *testing.T, rows [][]any) [][]string {
	t.Helper()
	grid, err := ReadGrid(testutil.Workbook(t, rows))
	require.NoError(t, err)
	return grid
}

func TestParseWeeklyV1(t *testing.T) {
	parsed := ParseWeekly(gridFrom(t, v1Rows()), DefaultWeeklyLayouts())

	assert.Equal(t, "v1", parsed.Version)
	require.Len(t, parsed.Snapshots, 2)
	assert.Equal(t, 1, parsed.Dropped, "truncated final window")
	assert.Len(t, parsed.Warnings, 1)

	first, second := parsed.Snapshots[0], parsed.Snapshots[1]
	assert.True(t, first.WeekOf.Equal(date(2024, time.January, 5)), "oldest first")
	assert.Equal(t, "1/5/2024", first.Label)
	assert.InDelta(t, 100000, first.TotalReserves, 1e-9)
	assert.InDelta(t, 40000, first.LowEval, 1e-9)
	assert.InDelta(t, 90000, first.HighEval, 1e-9)
	assert.Equal(t, 50, first.OpenFeatures)
	assert.Equal(t, 20, first.BIFeatures)
	assert.Equal(t, 5, first.CP1Features)
	assert.InDelta(t, -2500, first.ReportedReserveChange, 1e-9)
	assert.Equal(t, -1, first.ReportedFeatureChange)

	assert.True(t, second.WeekOf.Equal(date(2024, time.January, 12)))
	assert.InDelta(t, 110000, second.TotalReserves, 1e-9)
	assert.Equal(t, 53, second.OpenFeatures)
	assert.InDelta(t, 10000, second.ReportedReserveChange, 1e-9)
}

func TestParseWeeklyV2(t *testing.T) {
	parsed := ParseWeekly(gridFrom(t, v2Rows()), DefaultWeeklyLayouts())

	assert.Equal(t, "v2", parsed.Version)
	require.Len(t, parsed.Snapshots, 1)
	snap := parsed.Snapshots[0]
	assert.True(t, snap.WeekOf.Equal(date(2024, time.February, 2)))
	assert.InDelta(t, 120000, snap.TotalReserves, 1e-9, "current week column, not prior")
	assert.InDelta(t, 50000, snap.LowEval, 1e-9)
	assert.InDelta(t, 130000, snap.HighEval, 1e-9)
	assert.Equal(t, 55, snap.OpenFeatures)
	assert.Equal(t, 22, snap.BIFeatures)
	assert.Equal(t, 7, snap.CP1Features)
	assert.InDelta(t, 20000, snap.ReportedReserveChange, 1e-9)
	assert.Equal(t, 5, snap.ReportedFeatureChange)
}

func TestParseWeeklyV2ReadWithV1OnlyIsWrongShape(t *testing.T) {
	// A v2 document still satisfies the v1 probes, which is why v2 is tried first.
	parsed := ParseWeekly(gridFrom(t, v2Rows()), []WeeklyLayout{WeeklyLayoutV1})
	assert.Equal(t, "v1", parsed.Version)
	require.Len(t, parsed.Snapshots, 1)
	assert.InDelta(t, 100000, parsed.Snapshots[0].TotalReserves, 1e-9)
}

func TestParseWeeklyDropsUnlabelledWindow(t *testing.T) {
	rows := [][]any{
		{"3/1/2024"},
		{"", "Reserves", 10, 1, 2},
		{"", "Features", 1, 1, 0},
		{"", "Change", 0, 0},
		{"3/8/2024"},
		{"", "Reserves", 20, 1, 2},
		{"", "", 2, 1, 0},
		{"", "Change", 10, 1},
	}
	parsed := ParseWeekly(gridFrom(t, rows), DefaultWeeklyLayouts())

	assert.Equal(t, "v1", parsed.Version)
	require.Len(t, parsed.Snapshots, 1)
	assert.True(t, parsed.Snapshots[0].WeekOf.Equal(date(2024, time.March, 1)))
	assert.Equal(t, 1, parsed.Dropped)
	require.Len(t, parsed.Warnings, 1)
	assert.Contains(t, parsed.Warnings[0], "feature")
}

func TestParseWeeklyNoMatchingLayout(t *testing.T) {
	grid := [][]string{{"Claims"}, {"1/5/2024"}, {"", "Totals", "1"}}
	parsed := ParseWeekly(grid, DefaultWeeklyLayouts())

	assert.Empty(t, parsed.Version)
	assert.Empty(t, parsed.Snapshots)
	assert.Equal(t, 1, parsed.Dropped)
	assert.NotEmpty(t, parsed.Warnings)
}

func TestParseWeeklyNoLayouts(t *testing.T) {
	parsed := ParseWeekly([][]string{{"1/5/2024"}}, nil)
	assert.Empty(t, parsed.Snapshots)
	assert.Empty(t, parsed.Warnings)
}

func TestReadGridRejectsNonWorkbook(t *testing.T) {
	_, err := ReadGrid([]byte("Claim Number,Reserves\n"))
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeParsing))
}

func TestSpreadsheetLoaderLoadWeekly(t *testing.T) {
	fetcher := &stubFetcher{docs: map[string][]byte{
		"weekly.xlsx": testutil.Workbook(t, v1Rows()),
	}}
	logger, logs := testutil.NewTestLogger(t)
	loader := NewSpreadsheetLoader(fetcher, logger, nil)

	parsed, err := loader.LoadWeekly(context.Background(), "weekly", "weekly.xlsx", DefaultWeeklyLayouts())
	require.NoError(t, err)
	assert.Len(t, parsed.Snapshots, 2)
	assert.True(t, logs.ContainsMessage("weekly report assembled"))
	assert.True(t, logs.ContainsMessage("parse warning"))

	_, err = loader.LoadWeekly(context.Background(), "weekly", "missing.xlsx", DefaultWeeklyLayouts())
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeFetch))
}
