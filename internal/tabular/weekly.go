package tabular

import (
	"fmt"
	"sort"
	"time"

	"claimpulse/internal/coerce"
	"claimpulse/pkg/contracts/domain"
)

// WeeklyParse is the outcome of assembling weekly snapshots from a grid.
type WeeklyParse struct {
	Version   string
	Snapshots []domain.WeeklySnapshot
	Dropped   int
	Warnings  []string
}

// ParseWeekly scans grid for anchor rows and reads each window with the first
// layout whose probes hold at the first complete window. Windows that run off
// the sheet or fail a probe are dropped with a warning. Snapshots are returned
// oldest first.
func ParseWeekly(grid [][]string, layouts []WeeklyLayout) *WeeklyParse {
	result := &WeeklyParse{}
	if len(layouts) == 0 {
		return result
	}

	layout, ok := detectLayout(grid, layouts)
	if !ok {
		layout = layouts[len(layouts)-1]
		result.Warnings = append(result.Warnings, "no weekly layout matched the report")
	} else {
		result.Version = layout.Version
	}

	span := layout.span()
	for r := range grid {
		if !layout.isAnchor(grid, r) {
			continue
		}
		anchor := cellAt(grid, r, layout.AnchorColumn)

		if r+span >= len(grid) {
			result.Dropped++
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("row %d (%s): window truncated at end of sheet", r+1, anchor))
			continue
		}
		if probe, ok := layout.matches(grid, r); !ok {
			result.Dropped++
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("row %d (%s): expected %q in row %d column %d",
					r+1, anchor, probe.Contains, r+probe.RowOffset+1, probe.Column+1))
			continue
		}

		weekOf, ok := coerce.ParseDate(layout.AnchorPattern.FindString(anchor))
		if !ok {
			result.Dropped++
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("row %d: unreadable week date %q", r+1, anchor))
			continue
		}

		result.Snapshots = append(result.Snapshots, readSnapshot(grid, r, layout, weekOf, anchor))
	}

	sort.SliceStable(result.Snapshots, func(i, j int) bool {
		return result.Snapshots[i].WeekOf.Before(result.Snapshots[j].WeekOf)
	})
	return result
}

func detectLayout(grid [][]string, layouts []WeeklyLayout) (WeeklyLayout, bool) {
	for r := range grid {
		for _, l := range layouts {
			if !l.isAnchor(grid, r) || r+l.span() >= len(grid) {
				continue
			}
			if _, ok := l.matches(grid, r); ok {
				return l, true
			}
		}
	}
	return WeeklyLayout{}, false
}

func readSnapshot(grid [][]string, r int, l WeeklyLayout, weekOf time.Time, label string) domain.WeeklySnapshot {
	money := func(m WeeklyMetric) float64 {
		c := l.Cells[m]
		return coerce.ParseCurrency(cellAt(grid, r+c.RowOffset, c.Column))
	}
	count := func(m WeeklyMetric) int {
		c := l.Cells[m]
		return coerce.ParseInteger(cellAt(grid, r+c.RowOffset, c.Column), 0)
	}

	return domain.WeeklySnapshot{
		WeekOf:                weekOf,
		Label:                 label,
		TotalReserves:         money(WeeklyTotalReserves),
		LowEval:               money(WeeklyLowEval),
		HighEval:              money(WeeklyHighEval),
		OpenFeatures:          count(WeeklyOpenFeatures),
		BIFeatures:            count(WeeklyBIFeatures),
		CP1Features:           count(WeeklyCP1Features),
		ReportedReserveChange: money(WeeklyReportedReserveChange),
		ReportedFeatureChange: count(WeeklyReportedFeatureChange),
	}
}
