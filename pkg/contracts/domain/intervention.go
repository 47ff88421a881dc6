package domain

import "time"

// Strategy tags an intervention strategy a claim matched.
type Strategy string

const (
	StrategyLOR                  Strategy = "lor_candidate"
	StrategyProactiveNegotiation Strategy = "proactive_negotiation"
	StrategyReserveCorrection    Strategy = "reserve_correction"
	StrategyExpertEarly          Strategy = "expert_early"
)

// Strategies lists every strategy in evaluation order.
var Strategies = []Strategy{
	StrategyLOR,
	StrategyProactiveNegotiation,
	StrategyReserveCorrection,
	StrategyExpertEarly,
}

// RiskIndicators are the eleven binary risk indicators of a claim.
type RiskIndicators struct {
	Fatality            bool `json:"fatality"`
	Surgery             bool `json:"surgery"`
	Hospitalization     bool `json:"hospitalization"`
	LossOfConsciousness bool `json:"loss_of_consciousness"`
	LifeCarePlanner     bool `json:"life_care_planner"`
	Fracture            bool `json:"fracture"`
	BrainInjury         bool `json:"brain_injury"`
	SpinalInjury        bool `json:"spinal_injury"`
	Injections          bool `json:"injections"`
	PermanentImpairment bool `json:"permanent_impairment"`
	LostWages           bool `json:"lost_wages"`
}

// Count returns how many indicators are set.
func (ri RiskIndicators) Count() int {
	n := 0
	for _, set := range []bool{
		ri.Fatality, ri.Surgery, ri.Hospitalization, ri.LossOfConsciousness,
		ri.LifeCarePlanner, ri.Fracture, ri.BrainInjury, ri.SpinalInjury,
		ri.Injections, ri.PermanentImpairment, ri.LostWages,
	} {
		if set {
			n++
		}
	}
	return n
}

// SeriousInjury reports surgery, hospitalization or loss of consciousness.
func (ri RiskIndicators) SeriousInjury() bool {
	return ri.Surgery || ri.Hospitalization || ri.LossOfConsciousness
}

// ClaimFacts is the coerced view of one early-intervention row.
type ClaimFacts struct {
	ClaimNumber   string         `json:"claim_number"`
	Claimant      string         `json:"claimant,omitempty"`
	Adjuster      string         `json:"adjuster,omitempty"`
	PolicyType    string         `json:"policy_type"`
	Status        string         `json:"status"`
	Jurisdiction  string         `json:"jurisdiction"`
	LossDate      time.Time      `json:"loss_date,omitempty"`
	DaysOpen      int            `json:"days_open"`
	Reserves      float64        `json:"reserves"`
	LowEval       float64        `json:"low_eval"`
	HighEval      float64        `json:"high_eval"`
	MedicalBilled float64        `json:"medical_billed"`
	MedicalPaid   float64        `json:"medical_paid"`
	FaultRating   string         `json:"fault_rating,omitempty"`
	ActiveDemand  bool           `json:"active_demand"`
	TriggerTotal  *int           `json:"trigger_total,omitempty"`
	Indicators    RiskIndicators `json:"indicators"`
}

// DerivedFacts are the values the scoring engine computes for a claim.
type DerivedFacts struct {
	DaysOpen       int     `json:"days_open"`
	AgeBucket      string  `json:"age_bucket"`
	PolicyLimit    float64 `json:"policy_limit"`
	ReserveRatio   float64 `json:"reserve_ratio"`
	MedicalSpend   float64 `json:"medical_spend"`
	LiabilityClear bool    `json:"liability_clear"`
	RiskFlags      int     `json:"risk_flags"`
}

// InterventionCandidate is a retained claim with its matched strategies, an
// ordered reasoning trail and a priority score.
type InterventionCandidate struct {
	Claim         ClaimFacts   `json:"claim"`
	Derived       DerivedFacts `json:"derived"`
	Strategies    []Strategy   `json:"strategies"`
	Reasoning     []string     `json:"reasoning"`
	PriorityScore int          `json:"priority_score"`
}

// Has reports whether the candidate matched s.
func (c InterventionCandidate) Has(s Strategy) bool {
	for _, got := range c.Strategies {
		if got == s {
			return true
		}
	}
	return false
}

// InterventionSummary is the early-intervention aggregate. Candidates are
// ordered by descending priority score.
type InterventionSummary struct {
	Evaluated        int                     `json:"evaluated"`
	Eligible         int                     `json:"eligible"`
	Retained         int                     `json:"retained"`
	RetainedReserves float64                 `json:"retained_reserves"`
	ByStrategy       *Breakdown              `json:"by_strategy"`
	Candidates       []InterventionCandidate `json:"candidates"`
}

// Alert is the outbound payload handed to the notification collaborator.
type Alert struct {
	ClaimNumber   string     `json:"claim_number"`
	Claimant      string     `json:"claimant,omitempty"`
	Adjuster      string     `json:"adjuster,omitempty"`
	Jurisdiction  string     `json:"jurisdiction"`
	Reserves      float64    `json:"reserves"`
	Strategies    []Strategy `json:"strategies"`
	PriorityScore int        `json:"priority_score"`
	Deadline      time.Time  `json:"deadline"`
	DaysRemaining int        `json:"days_remaining"`
}
