package aggregation

import (
	"sort"

	"claimpulse/pkg/contracts/domain"
)

// BuildWeekly orders snapshots oldest first. When a week appears more than
// once the later occurrence in the report wins.
func BuildWeekly(layout string, snapshots []domain.WeeklySnapshot, dropped int) *domain.WeeklySummary {
	byWeek := make(map[int64]int, len(snapshots))
	out := make([]domain.WeeklySnapshot, 0, len(snapshots))
	for _, snap := range snapshots {
		key := snap.WeekOf.Unix()
		if i, ok := byWeek[key]; ok {
			out[i] = snap
			continue
		}
		byWeek[key] = len(out)
		out = append(out, snap)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].WeekOf.Before(out[j].WeekOf)
	})
	return &domain.WeeklySummary{Layout: layout, Snapshots: out, Dropped: dropped}
}
