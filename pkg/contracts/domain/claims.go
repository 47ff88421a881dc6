package domain

import "time"

// ExposureRecord is one open claim from the exposure/inventory export.
type ExposureRecord struct {
	ClaimNumber  string  `json:"claim_number"`
	Coverage     string  `json:"coverage"`
	TypeGroup    string  `json:"type_group"`
	Adjuster     string  `json:"adjuster,omitempty"`
	Team         string  `json:"team,omitempty"`
	Jurisdiction string  `json:"jurisdiction,omitempty"`
	DaysOpen     int     `json:"days_open"`
	Reserves     float64 `json:"reserves"`
	LowEval      float64 `json:"low_eval"`
	HighEval     float64 `json:"high_eval"`
	PainLevel    string  `json:"pain_level,omitempty"`
	CP1          bool    `json:"cp1"`
}

// HasEvaluation reports whether an adjuster evaluation has been set.
// Both estimates at exactly zero means no evaluation.
func (r ExposureRecord) HasEvaluation() bool {
	return r.LowEval != 0 || r.HighEval != 0
}

// RiskRecord is one claim from the dedicated CP1 risk-analysis export.
type RiskRecord struct {
	ClaimNumber string  `json:"claim_number"`
	Coverage    string  `json:"coverage"`
	Reserves    float64 `json:"reserves"`
	CP1         bool    `json:"cp1"`
	CP1Reason   string  `json:"cp1_reason,omitempty"`
}

// CheckRecord is one issued check (payment line) from the check-history export.
type CheckRecord struct {
	CheckNumber      string    `json:"check_number,omitempty"`
	ClaimNumber      string    `json:"claim_number,omitempty"`
	IssuedOn         time.Time `json:"issued_on,omitempty"`
	Payee            string    `json:"payee,omitempty"`
	Coverage         string    `json:"coverage"`
	Department       string    `json:"department"`
	Team             string    `json:"team"`
	ExposureCategory string    `json:"exposure_category"`
	LineItemCategory string    `json:"line_item_category"`
	GrossAmount      float64   `json:"gross_amount"`
	NetAmount        float64   `json:"net_amount"`
}

// DecisionRecord is a claim flagged as needing a reserve/evaluation decision.
type DecisionRecord struct {
	ClaimNumber  string  `json:"claim_number"`
	Adjuster     string  `json:"adjuster,omitempty"`
	Jurisdiction string  `json:"jurisdiction,omitempty"`
	DaysOpen     int     `json:"days_open"`
	Reserves     float64 `json:"reserves"`
	PainLevel    string  `json:"pain_level"`
	Category     string  `json:"category"`
	Reason       string  `json:"reason"`
}

// LossDevelopmentPoint is one cell of a loss-development triangle.
type LossDevelopmentPoint struct {
	AccidentYear     int     `json:"accident_year"`
	DevelopmentMonth int     `json:"development_month"`
	Metric           string  `json:"metric"`
	Value            float64 `json:"value"`
}

// Loss-development metric types. Source labels are mapped onto these.
const (
	MetricNetPaidLoss   = "net_paid_loss"
	MetricClaimReserves = "claim_reserves"
	MetricBulkIBNR      = "bulk_ibnr"
	MetricEarnedPremium = "earned_premium"
	MetricLossRatio     = "loss_ratio"
)

// WeeklySnapshot is one logical week assembled from the multi-row windows of
// the weekly spreadsheet report.
type WeeklySnapshot struct {
	WeekOf                time.Time `json:"week_of"`
	Label                 string    `json:"label"`
	TotalReserves         float64   `json:"total_reserves"`
	LowEval               float64   `json:"low_eval"`
	HighEval              float64   `json:"high_eval"`
	OpenFeatures          int       `json:"open_features"`
	BIFeatures            int       `json:"bi_features"`
	CP1Features           int       `json:"cp1_features"`
	ReportedReserveChange float64   `json:"reported_reserve_change"`
	ReportedFeatureChange int       `json:"reported_feature_change"`
}
