package intervention

import (
	"strings"

	"claimpulse/internal/config"
)

// Score contributions. Each strategy has a base score and conditional
// additions; bonuses apply only to retained claims.
const (
	ScoreLORBase         = 40
	ScoreLORFastTrack    = 20
	ScoreLORHighRatio    = 15
	ScoreLORPilot        = 10
	ScoreNegotiationBase = 35
	ScoreNegotiationFast = 15
	ScoreReserveCorrect  = 30
	ScoreExpertBase      = 45
	ScoreExpertFatality  = 20
	BonusHighRiskState   = 10
	BonusLORLowMedical   = 10
	DefaultMinRiskFlags  = 3
	DefaultWindowDays    = 180
	DefaultFastTrackDays = 90
	DefaultPolicyLimit   = 25000.0
	DefaultLowMedicalCap = 10000.0
	DefaultCoveredPolicy = "BI"
	DefaultPilotState    = "TX"
	lorMinReserveRatio   = 0.50
	lorHighReserveRatio  = 0.80
	correctionEvalFactor = 1.5
	correctionMaxRatio   = 0.60
)

// Rules carries every threshold and table the engine evaluates against.
type Rules struct {
	CoveredPolicyType     string
	ExcludedStatuses      []string
	PolicyLimits          map[string]float64
	DefaultPolicyLimit    float64
	PilotJurisdiction     string
	HighRiskJurisdictions map[string]bool
	MinRiskFlags          int
	WindowDays            int
	FastTrackDays         int
	LowMedicalSpend       float64
}

// DefaultRules returns the production rule set.
func DefaultRules() Rules {
	return Rules{
		CoveredPolicyType: DefaultCoveredPolicy,
		ExcludedStatuses:  []string{"settled", "closed"},
		PolicyLimits: map[string]float64{
			"TX": 30000,
			"CA": 15000,
			"FL": 10000,
			"NY": 25000,
			"GA": 25000,
			"NV": 25000,
			"AZ": 25000,
			"IL": 25000,
		},
		DefaultPolicyLimit:    DefaultPolicyLimit,
		PilotJurisdiction:     DefaultPilotState,
		HighRiskJurisdictions: jurisdictionSet([]string{"CA", "FL", "NV", "GA", "NY"}),
		MinRiskFlags:          DefaultMinRiskFlags,
		WindowDays:            DefaultWindowDays,
		FastTrackDays:         DefaultFastTrackDays,
		LowMedicalSpend:       DefaultLowMedicalCap,
	}
}

// RulesFromConfig overlays the configured scoring settings on DefaultRules.
// Zero values keep the defaults.
func RulesFromConfig(cfg config.ScoringConfig) Rules {
	r := DefaultRules()
	if cfg.CoveredPolicyType != "" {
		r.CoveredPolicyType = cfg.CoveredPolicyType
	}
	if cfg.PilotJurisdiction != "" {
		r.PilotJurisdiction = strings.ToUpper(cfg.PilotJurisdiction)
	}
	if len(cfg.HighRiskJurisdictions) > 0 {
		r.HighRiskJurisdictions = jurisdictionSet(cfg.HighRiskJurisdictions)
	}
	if cfg.DefaultPolicyLimit > 0 {
		r.DefaultPolicyLimit = cfg.DefaultPolicyLimit
	}
	if cfg.MinRiskFlags > 0 {
		r.MinRiskFlags = cfg.MinRiskFlags
	}
	if cfg.AlertWindowDays > 0 {
		r.WindowDays = cfg.AlertWindowDays
	}
	return r
}

// PolicyLimit returns the limit for a jurisdiction, or the default when the
// jurisdiction is not listed.
func (r Rules) PolicyLimit(jurisdiction string) float64 {
	if limit, ok := r.PolicyLimits[normalizeJurisdiction(jurisdiction)]; ok {
		return limit
	}
	return r.DefaultPolicyLimit
}

// HighRisk reports whether jurisdiction is in the high-risk set.
func (r Rules) HighRisk(jurisdiction string) bool {
	return r.HighRiskJurisdictions[normalizeJurisdiction(jurisdiction)]
}

// Pilot reports whether jurisdiction is the pilot jurisdiction.
func (r Rules) Pilot(jurisdiction string) bool {
	j := normalizeJurisdiction(jurisdiction)
	return j != "" && j == normalizeJurisdiction(r.PilotJurisdiction)
}

func normalizeJurisdiction(j string) string {
	return strings.ToUpper(strings.TrimSpace(j))
}

func jurisdictionSet(codes []string) map[string]bool {
	set := make(map[string]bool, len(codes))
	for _, c := range codes {
		if c = normalizeJurisdiction(c); c != "" {
			set[c] = true
		}
	}
	return set
}
