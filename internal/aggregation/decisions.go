package aggregation

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"claimpulse/internal/coerce"
	"claimpulse/pkg/contracts/domain"
)

// DefaultDecisionThreshold is the reserve level at which an unevaluated claim
// needs a decision. The comparison is inclusive.
const DefaultDecisionThreshold = 15000.0

// Decision categories, in display order.
const (
	CategoryPending = "Pending"
	CategoryHigh    = "High (5+)"
	CategoryOther   = "Other"
)

var decisionCategories = []string{CategoryPending, CategoryHigh, CategoryOther}

var leadingNumber = regexp.MustCompile(`^\d+(\.\d+)?`)

// highPain reports whether a pain-level cell carries a high marker: "5+",
// "high", "severe", or a leading score of 5 or more.
func highPain(pain string) bool {
	p := coerce.Normalize(pain)
	if strings.Contains(p, "5+") || coerce.ContainsAny(p, "high", "severe") {
		return true
	}
	if m := leadingNumber.FindString(p); m != "" {
		n, err := strconv.ParseFloat(m, 64)
		return err == nil && n >= 5
	}
	return false
}

// ClassifyPain returns the decision category and reason for a pain level.
// Conditions are checked in priority order: pending or blank first, then
// high markers, then the default.
func ClassifyPain(pain string) (category, reason string) {
	p := coerce.Normalize(pain)
	switch {
	case p == "" || p == "(blank)" || strings.Contains(p, "pending"):
		return CategoryPending, "Pain level pending; evaluation cannot be set"
	case highPain(p):
		return CategoryHigh, "High pain level with no evaluation set"
	default:
		return CategoryOther, "Reserves at or above threshold with no evaluation set"
	}
}

// BuildDecisions flags every claim with reserves >= threshold and no
// evaluation. Flagged claims are ordered by descending reserves; claims with
// equal reserves keep their input order.
func BuildDecisions(records []domain.ExposureRecord, threshold float64) *domain.DecisionsSummary {
	s := &domain.DecisionsSummary{
		Threshold:  threshold,
		Flagged:    []domain.DecisionRecord{},
		ByCategory: domain.NewBreakdown(decisionCategories...),
	}

	for _, r := range records {
		if r.Reserves < threshold || r.HasEvaluation() {
			continue
		}
		category, reason := ClassifyPain(r.PainLevel)
		s.Flagged = append(s.Flagged, domain.DecisionRecord{
			ClaimNumber:  r.ClaimNumber,
			Adjuster:     r.Adjuster,
			Jurisdiction: r.Jurisdiction,
			DaysOpen:     r.DaysOpen,
			Reserves:     r.Reserves,
			PainLevel:    r.PainLevel,
			Category:     category,
			Reason:       reason,
		})
		s.FlaggedCount++
		s.FlaggedReserves += r.Reserves
		s.ByCategory.AddReserve(category, r.Reserves)
	}

	sort.SliceStable(s.Flagged, func(i, j int) bool {
		return s.Flagged[i].Reserves > s.Flagged[j].Reserves
	})
	return s
}
