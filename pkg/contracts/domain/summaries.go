package domain

import "time"

// Age bands used by the exposure engine, in display order.
const (
	AgeBand0To60    = "0-60"
	AgeBand61To180  = "61-180"
	AgeBand181To365 = "181-365"
	AgeBandOver365  = "365+"
)

// AgeBands lists the exposure age bands in their fixed order.
var AgeBands = []string{AgeBand0To60, AgeBand61To180, AgeBand181To365, AgeBandOver365}

// ExposureSummary is the exposure/inventory aggregate.
type ExposureSummary struct {
	TotalClaims          int        `json:"total_claims"`
	TotalReserves        float64    `json:"total_reserves"`
	TotalLowEval         float64    `json:"total_low_eval"`
	TotalHighEval        float64    `json:"total_high_eval"`
	CP1Count             int        `json:"cp1_count"`
	NoEvaluationCount    int        `json:"no_evaluation_count"`
	NoEvaluationReserves float64    `json:"no_evaluation_reserves"`
	AgeBands             *Breakdown `json:"age_bands"`
	TypeGroups           *Breakdown `json:"type_groups"`
	NoEvaluationByAge    *Breakdown `json:"no_evaluation_by_age"`
}

// RiskSummary is the CP1 risk-analysis aggregate.
type RiskSummary struct {
	TotalClaims   int        `json:"total_claims"`
	CP1Count      int        `json:"cp1_count"`
	CP1Rate       float64    `json:"cp1_rate"`
	TotalReserves float64    `json:"total_reserves"`
	CP1Reserves   float64    `json:"cp1_reserves"`
	ByCoverage    *Breakdown `json:"by_coverage"`
	ByReason      *Breakdown `json:"by_reason"`
}

// SpendSummary is the check-history aggregate. Expense and indemnity totals
// are on net amount.
type SpendSummary struct {
	TotalChecks        int        `json:"total_checks"`
	GrossTotal         float64    `json:"gross_total"`
	NetTotal           float64    `json:"net_total"`
	ExpenseTotal       float64    `json:"expense_total"`
	IndemnityTotal     float64    `json:"indemnity_total"`
	ExpenseCount       int        `json:"expense_count"`
	IndemnityCount     int        `json:"indemnity_count"`
	ByCoverage         *Breakdown `json:"by_coverage"`
	ByDepartment       *Breakdown `json:"by_department"`
	ByTeam             *Breakdown `json:"by_team"`
	ByExposureCategory *Breakdown `json:"by_exposure_category"`
	ByLineItemCategory *Breakdown `json:"by_line_item_category"`
}

// DecisionsSummary is the decisions-pending aggregate. Flagged is ordered by
// descending reserves.
type DecisionsSummary struct {
	Threshold       float64          `json:"threshold"`
	FlaggedCount    int              `json:"flagged_count"`
	FlaggedReserves float64          `json:"flagged_reserves"`
	Flagged         []DecisionRecord `json:"flagged"`
	ByCategory      *Breakdown       `json:"by_category"`
}

// AccidentYearDevelopment is the latest development state of one accident year.
type AccidentYearDevelopment struct {
	AccidentYear     int     `json:"accident_year"`
	DevelopmentMonth int     `json:"development_month"`
	NetPaidLoss      float64 `json:"net_paid_loss"`
	ClaimReserves    float64 `json:"claim_reserves"`
	BulkIBNR         float64 `json:"bulk_ibnr"`
	EarnedPremium    float64 `json:"earned_premium"`
	UltimateIncurred float64 `json:"ultimate_incurred"`
	LossRatio        float64 `json:"loss_ratio"`
	LossRatioSource  string  `json:"loss_ratio_source"`
}

// Loss ratio provenance values.
const (
	LossRatioStored   = "stored"
	LossRatioComputed = "computed"
)

// LossDevelopmentSummary is the loss-development aggregate, years ascending.
type LossDevelopmentSummary struct {
	Years                 []AccidentYearDevelopment `json:"years"`
	TotalUltimateIncurred float64                   `json:"total_ultimate_incurred"`
	TotalEarnedPremium    float64                   `json:"total_earned_premium"`
}

// WeeklySummary holds the snapshots assembled from the weekly report, oldest first.
type WeeklySummary struct {
	Layout    string           `json:"layout"`
	Snapshots []WeeklySnapshot `json:"snapshots"`
	Dropped   int              `json:"dropped_windows"`
}

// Latest returns the most recent snapshot.
func (s *WeeklySummary) Latest() (WeeklySnapshot, bool) {
	if s == nil || len(s.Snapshots) == 0 {
		return WeeklySnapshot{}, false
	}
	return s.Snapshots[len(s.Snapshots)-1], true
}

// Prior returns the most recent snapshot dated strictly before the latest one.
func (s *WeeklySummary) Prior() (WeeklySnapshot, bool) {
	latest, ok := s.Latest()
	if !ok {
		return WeeklySnapshot{}, false
	}
	for i := len(s.Snapshots) - 2; i >= 0; i-- {
		if s.Snapshots[i].WeekOf.Before(latest.WeekOf) {
			return s.Snapshots[i], true
		}
	}
	return WeeklySnapshot{}, false
}

// DeltaBlock is the week-over-week change between two weekly snapshots.
type DeltaBlock struct {
	From                  time.Time `json:"from"`
	To                    time.Time `json:"to"`
	ReserveChange         float64   `json:"reserve_change"`
	OpenFeatureChange     int       `json:"open_feature_change"`
	BIFeatureChange       int       `json:"bi_feature_change"`
	CP1FeatureChange      int       `json:"cp1_feature_change"`
	ReportedReserveChange float64   `json:"reported_reserve_change"`
	ReportedFeatureChange int       `json:"reported_feature_change"`
}
