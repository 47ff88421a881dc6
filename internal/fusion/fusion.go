// Package fusion combines the independently loaded aggregates into one
// UnifiedMetrics value.
//
// A figure reported by more than one aggregate is resolved through an ordered
// chain of candidate sources; the first source holding a present value wins
// and is recorded in Provenance. Fusion does no I/O and never reads the
// clock, so equal inputs and as-of time give equal output.
package fusion

import (
	"time"

	"claimpulse/pkg/contracts/domain"
)

// Provenance values for figures owned by derived aggregates.
const (
	SourceDecisions = "decisions"
	SourceSpend     = "spend"
)

// Inputs holds the last known-good aggregates. A nil field is an
// unavailable source.
type Inputs struct {
	Exposure        *domain.ExposureSummary
	Risk            *domain.RiskSummary
	Spend           *domain.SpendSummary
	Decisions       *domain.DecisionsSummary
	Intervention    *domain.InterventionSummary
	LossDevelopment *domain.LossDevelopmentSummary
	Weekly          *domain.WeeklySummary
}

// Candidate is one entry of a resolution chain. Extract reports false when
// its source has nothing to contribute.
type Candidate[T any] struct {
	Source  string
	Extract func(Inputs) (T, bool)
}

// Resolve walks chain in order and returns the first present value with the
// source that supplied it. The zero value and "" come back when no source
// has one.
func Resolve[T any](in Inputs, chain []Candidate[T]) (T, string) {
	for _, c := range chain {
		if v, ok := c.Extract(in); ok {
			return v, c.Source
		}
	}
	var zero T
	return zero, ""
}

func exposure(in Inputs) (*domain.ExposureSummary, bool) {
	return in.Exposure, in.Exposure != nil && in.Exposure.TotalClaims > 0
}

func risk(in Inputs) (*domain.RiskSummary, bool) {
	return in.Risk, in.Risk != nil && in.Risk.TotalClaims > 0
}

func latestWeek(in Inputs) (domain.WeeklySnapshot, bool) {
	return in.Weekly.Latest()
}

type cp1Figures struct {
	count int
	rate  float64
}

// Resolution chains for figures shared between aggregates.
var (
	TotalClaimsChain = []Candidate[int]{
		{domain.SourceRisk, func(in Inputs) (int, bool) {
			r, ok := risk(in)
			if !ok {
				return 0, false
			}
			return r.TotalClaims, true
		}},
		{domain.SourceExposure, func(in Inputs) (int, bool) {
			e, ok := exposure(in)
			if !ok {
				return 0, false
			}
			return e.TotalClaims, true
		}},
		{domain.SourceWeekly, func(in Inputs) (int, bool) {
			w, ok := latestWeek(in)
			return w.OpenFeatures, ok && w.OpenFeatures > 0
		}},
	}

	TotalReservesChain = []Candidate[float64]{
		{domain.SourceExposure, func(in Inputs) (float64, bool) {
			e, ok := exposure(in)
			if !ok {
				return 0, false
			}
			return e.TotalReserves, true
		}},
		{domain.SourceRisk, func(in Inputs) (float64, bool) {
			r, ok := risk(in)
			if !ok {
				return 0, false
			}
			return r.TotalReserves, true
		}},
		{domain.SourceWeekly, func(in Inputs) (float64, bool) {
			w, ok := latestWeek(in)
			return w.TotalReserves, ok
		}},
	}

	TotalLowEvalChain = []Candidate[float64]{
		{domain.SourceExposure, func(in Inputs) (float64, bool) {
			e, ok := exposure(in)
			if !ok {
				return 0, false
			}
			return e.TotalLowEval, true
		}},
		{domain.SourceWeekly, func(in Inputs) (float64, bool) {
			w, ok := latestWeek(in)
			return w.LowEval, ok
		}},
	}

	TotalHighEvalChain = []Candidate[float64]{
		{domain.SourceExposure, func(in Inputs) (float64, bool) {
			e, ok := exposure(in)
			if !ok {
				return 0, false
			}
			return e.TotalHighEval, true
		}},
		{domain.SourceWeekly, func(in Inputs) (float64, bool) {
			w, ok := latestWeek(in)
			return w.HighEval, ok
		}},
	}

	cp1Chain = []Candidate[cp1Figures]{
		{domain.SourceRisk, func(in Inputs) (cp1Figures, bool) {
			r, ok := risk(in)
			if !ok {
				return cp1Figures{}, false
			}
			return cp1Figures{count: r.CP1Count, rate: r.CP1Rate}, true
		}},
		{domain.SourceExposure, func(in Inputs) (cp1Figures, bool) {
			e, ok := exposure(in)
			if !ok {
				return cp1Figures{}, false
			}
			return cp1Figures{
				count: e.CP1Count,
				rate:  float64(e.CP1Count) / float64(e.TotalClaims) * 100,
			}, true
		}},
	}
)

// Fuse builds the unified metrics from in as of asOf.
func Fuse(in Inputs, asOf time.Time) domain.UnifiedMetrics {
	m := domain.UnifiedMetrics{
		AsOf:       asOf,
		Provenance: make(map[string]string),
	}
	record := func(figure, source string) {
		if source != "" {
			m.Provenance[figure] = source
		}
	}

	var src string
	m.TotalClaims, src = Resolve(in, TotalClaimsChain)
	record(domain.FigureTotalClaims, src)
	m.TotalReserves, src = Resolve(in, TotalReservesChain)
	record(domain.FigureTotalReserves, src)
	m.TotalLowEval, src = Resolve(in, TotalLowEvalChain)
	record(domain.FigureTotalLowEval, src)
	m.TotalHighEval, src = Resolve(in, TotalHighEvalChain)
	record(domain.FigureTotalHighEval, src)

	cp1, src := Resolve(in, cp1Chain)
	m.CP1Count, m.CP1Rate = cp1.count, cp1.rate
	record(domain.FigureCP1Count, src)

	if e, ok := exposure(in); ok {
		m.NoEvaluationCount = e.NoEvaluationCount
		m.NoEvaluationReserves = e.NoEvaluationReserves
		m.AgeBands = e.AgeBands
		record(domain.FigureNoEvaluationCount, domain.SourceExposure)
		record(domain.FigureNoEvaluationReserves, domain.SourceExposure)
	}
	if d := in.Decisions; d != nil {
		m.DecisionsPending = d.FlaggedCount
		m.DecisionsReserves = d.FlaggedReserves
		record(domain.FigureDecisionsPending, SourceDecisions)
		record(domain.FigureDecisionsReserves, SourceDecisions)
	}
	if s := in.Spend; s != nil {
		m.ExpenseTotal = s.ExpenseTotal
		m.IndemnityTotal = s.IndemnityTotal
		m.NetSpend = s.NetTotal
		record(domain.FigureExpenseTotal, SourceSpend)
		record(domain.FigureIndemnityTotal, SourceSpend)
		record(domain.FigureNetSpend, SourceSpend)
	}
	if iv := in.Intervention; iv != nil {
		m.InterventionCandidates = iv.Retained
		record(domain.FigureInterventionCount, domain.SourceIntervention)
	}
	if ld := in.LossDevelopment; ld != nil {
		m.UltimateIncurred = ld.TotalUltimateIncurred
		record(domain.FigureUltimateIncurred, domain.SourceLossDevelopment)
	}

	m.WeekOverWeek = WeekOverWeek(in.Weekly)
	return m
}

// WeekOverWeek compares the latest weekly snapshot with the most recent one
// dated strictly before it. It returns nil without such a pair.
func WeekOverWeek(w *domain.WeeklySummary) *domain.DeltaBlock {
	latest, ok := w.Latest()
	if !ok {
		return nil
	}
	prior, ok := w.Prior()
	if !ok {
		return nil
	}
	return &domain.DeltaBlock{
		From:                  prior.WeekOf,
		To:                    latest.WeekOf,
		ReserveChange:         latest.TotalReserves - prior.TotalReserves,
		OpenFeatureChange:     latest.OpenFeatures - prior.OpenFeatures,
		BIFeatureChange:       latest.BIFeatures - prior.BIFeatures,
		CP1FeatureChange:      latest.CP1Features - prior.CP1Features,
		ReportedReserveChange: latest.ReportedReserveChange,
		ReportedFeatureChange: latest.ReportedFeatureChange,
	}
}
