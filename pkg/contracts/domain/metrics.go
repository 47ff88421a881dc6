package domain

import "time"

// Source names identify each tabular source. They double as cache keys.
const (
	SourceExposure        = "exposure"
	SourceRisk            = "risk"
	SourceChecks          = "checks"
	SourceIntervention    = "intervention"
	SourceLossDevelopment = "loss_development"
	SourceWeekly          = "weekly"
)

// AllSources lists every source in refresh order.
var AllSources = []string{
	SourceExposure,
	SourceRisk,
	SourceChecks,
	SourceIntervention,
	SourceLossDevelopment,
	SourceWeekly,
}

// Figure names used as Provenance keys.
const (
	FigureTotalClaims          = "total_claims"
	FigureTotalReserves        = "total_reserves"
	FigureTotalLowEval         = "total_low_eval"
	FigureTotalHighEval        = "total_high_eval"
	FigureCP1Count             = "cp1_count"
	FigureNoEvaluationCount    = "no_evaluation_count"
	FigureNoEvaluationReserves = "no_evaluation_reserves"
	FigureDecisionsPending     = "decisions_pending"
	FigureDecisionsReserves    = "decisions_reserves"
	FigureExpenseTotal         = "expense_total"
	FigureIndemnityTotal       = "indemnity_total"
	FigureNetSpend             = "net_spend"
	FigureInterventionCount    = "intervention_candidates"
	FigureUltimateIncurred     = "ultimate_incurred"
)

// UnifiedMetrics is the single metrics model handed to consumers. Every
// figure is taken from exactly one upstream aggregate, recorded in Provenance.
type UnifiedMetrics struct {
	AsOf time.Time `json:"as_of"`

	TotalClaims          int     `json:"total_claims"`
	TotalReserves        float64 `json:"total_reserves"`
	TotalLowEval         float64 `json:"total_low_eval"`
	TotalHighEval        float64 `json:"total_high_eval"`
	CP1Count             int     `json:"cp1_count"`
	CP1Rate              float64 `json:"cp1_rate"`
	NoEvaluationCount    int     `json:"no_evaluation_count"`
	NoEvaluationReserves float64 `json:"no_evaluation_reserves"`

	DecisionsPending  int     `json:"decisions_pending"`
	DecisionsReserves float64 `json:"decisions_reserves"`

	ExpenseTotal   float64 `json:"expense_total"`
	IndemnityTotal float64 `json:"indemnity_total"`
	NetSpend       float64 `json:"net_spend"`

	InterventionCandidates int     `json:"intervention_candidates"`
	UltimateIncurred       float64 `json:"ultimate_incurred"`

	AgeBands *Breakdown `json:"age_bands,omitempty"`

	Provenance   map[string]string `json:"provenance"`
	WeekOverWeek *DeltaBlock       `json:"week_over_week"`
}
