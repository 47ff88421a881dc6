package tabular

import (
	"regexp"
	"strings"
)

// WeeklyMetric names a figure read from a weekly report window.
type WeeklyMetric string

const (
	WeeklyTotalReserves         WeeklyMetric = "total_reserves"
	WeeklyLowEval               WeeklyMetric = "low_eval"
	WeeklyHighEval              WeeklyMetric = "high_eval"
	WeeklyOpenFeatures          WeeklyMetric = "open_features"
	WeeklyBIFeatures            WeeklyMetric = "bi_features"
	WeeklyCP1Features           WeeklyMetric = "cp1_features"
	WeeklyReportedReserveChange WeeklyMetric = "reported_reserve_change"
	WeeklyReportedFeatureChange WeeklyMetric = "reported_feature_change"
)

// Cell addresses a value relative to an anchor row.
type Cell struct {
	RowOffset int
	Column    int
}

// LabelProbe requires the cell at {RowOffset, Column} from the anchor to
// contain Contains, case-insensitively. Probes both select the layout version
// and validate every window.
type LabelProbe struct {
	RowOffset int
	Column    int
	Contains  string
}

// WeeklyLayout is one version of the weekly report's positional format. A
// logical week starts at a row whose AnchorColumn cell matches AnchorPattern;
// every metric sits at a fixed offset from that row.
type WeeklyLayout struct {
	Version       string
	AnchorColumn  int
	AnchorPattern *regexp.Regexp
	Probes        []LabelProbe
	Cells         map[WeeklyMetric]Cell
}

// weekDatePattern matches the week-of date written in the anchor cell, either
// bare ("1/5/2024") or inside a caption ("Week of 2024-01-05").
var weekDatePattern = regexp.MustCompile(`\d{1,2}[/-]\d{1,2}[/-]\d{2,4}|\d{4}-\d{2}-\d{2}`)

// The weekly report window, relative to the anchor row (offset 0):
//
//	offset 0  week-of date in column A
//	offset 1  "Reserves" row: total reserves, low eval, high eval
//	offset 2  "Features" row: open features, BI features, CP1 features
//	offset 3  "Change" row:   reported reserve change, reported feature change
//
// Row labels are in column B for both versions.
//
// v1 value columns (0-based):
//
//	metric                    row  col
//	total_reserves            1    2 (C)
//	low_eval                  1    3 (D)
//	high_eval                 1    4 (E)
//	open_features             2    2 (C)
//	bi_features               2    3 (D)
//	cp1_features              2    4 (E)
//	reported_reserve_change   3    2 (C)
//	reported_feature_change   3    3 (D)
//
// v2 inserted a "Prior Week" comparison column at C, captioned on the anchor
// row, so every current-week value moved one column right (C->D, D->E, E->F).
var (
	WeeklyLayoutV1 = WeeklyLayout{
		Version:       "v1",
		AnchorColumn:  0,
		AnchorPattern: weekDatePattern,
		Probes: []LabelProbe{
			{RowOffset: 1, Column: 1, Contains: "reserve"},
			{RowOffset: 2, Column: 1, Contains: "feature"},
			{RowOffset: 3, Column: 1, Contains: "change"},
		},
		Cells: map[WeeklyMetric]Cell{
			WeeklyTotalReserves:         {RowOffset: 1, Column: 2},
			WeeklyLowEval:               {RowOffset: 1, Column: 3},
			WeeklyHighEval:              {RowOffset: 1, Column: 4},
			WeeklyOpenFeatures:          {RowOffset: 2, Column: 2},
			WeeklyBIFeatures:            {RowOffset: 2, Column: 3},
			WeeklyCP1Features:           {RowOffset: 2, Column: 4},
			WeeklyReportedReserveChange: {RowOffset: 3, Column: 2},
			WeeklyReportedFeatureChange: {RowOffset: 3, Column: 3},
		},
	}

	WeeklyLayoutV2 = WeeklyLayout{
		Version:       "v2",
		AnchorColumn:  0,
		AnchorPattern: weekDatePattern,
		Probes: []LabelProbe{
			{RowOffset: 0, Column: 2, Contains: "prior"},
			{RowOffset: 1, Column: 1, Contains: "reserve"},
			{RowOffset: 2, Column: 1, Contains: "feature"},
			{RowOffset: 3, Column: 1, Contains: "change"},
		},
		Cells: map[WeeklyMetric]Cell{
			WeeklyTotalReserves:         {RowOffset: 1, Column: 3},
			WeeklyLowEval:               {RowOffset: 1, Column: 4},
			WeeklyHighEval:              {RowOffset: 1, Column: 5},
			WeeklyOpenFeatures:          {RowOffset: 2, Column: 3},
			WeeklyBIFeatures:            {RowOffset: 2, Column: 4},
			WeeklyCP1Features:           {RowOffset: 2, Column: 5},
			WeeklyReportedReserveChange: {RowOffset: 3, Column: 3},
			WeeklyReportedFeatureChange: {RowOffset: 3, Column: 4},
		},
	}
)

// DefaultWeeklyLayouts lists the known versions, most specific first so a v2
// document is never read with v1 offsets.
func DefaultWeeklyLayouts() []WeeklyLayout {
	return []WeeklyLayout{WeeklyLayoutV2, WeeklyLayoutV1}
}

// span returns the last row offset the layout reads.
func (l WeeklyLayout) span() int {
	last := 0
	for _, p := range l.Probes {
		last = max(last, p.RowOffset)
	}
	for _, c := range l.Cells {
		last = max(last, c.RowOffset)
	}
	return last
}

// isAnchor reports whether row r of grid starts a window.
func (l WeeklyLayout) isAnchor(grid [][]string, r int) bool {
	return l.AnchorPattern.MatchString(cellAt(grid, r, l.AnchorColumn))
}

// matches reports whether every probe holds for the window anchored at r.
// The failing probe is returned when one does not.
func (l WeeklyLayout) matches(grid [][]string, r int) (LabelProbe, bool) {
	for _, p := range l.Probes {
		text := strings.ToLower(cellAt(grid, r+p.RowOffset, p.Column))
		if !strings.Contains(text, p.Contains) {
			return p, false
		}
	}
	return LabelProbe{}, true
}

func cellAt(grid [][]string, r, c int) string {
	if r < 0 || r >= len(grid) || c < 0 || c >= len(grid[r]) {
		return ""
	}
	return strings.TrimSpace(grid[r][c])
}
