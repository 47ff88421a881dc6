// Package intervention scores open bodily-injury claims against the early
// intervention strategies and keeps the ones worth acting on.
//
// Evaluation is per claim and state-free:
//
//  1. Filter to the covered policy type, skipping settled and closed claims.
//  2. Derive age, reserve ratio against the jurisdiction's policy limit,
//     medical spend, liability clarity and the risk-flag count.
//  3. Match the four strategies, each adding to the priority score.
//  4. Retain the claim only with at least one strategy and enough risk flags.
//  5. Add the jurisdiction and low-medical bonuses to retained claims.
//
// Retained claims are ordered by descending score; equal scores keep input
// order.
package intervention

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"claimpulse/internal/coerce"
	"claimpulse/internal/infrastructure"
	"claimpulse/pkg/contracts/domain"
)

// Age buckets reported in DerivedFacts.
const (
	AgeBucketEarly      = "0-89"
	AgeBucketDeveloping = "90-179"
	AgeBucketMature     = "180+"
)

var (
	unclearLiability = []string{"unclear", "not clear", "disputed", "denied", "comparative", "not at fault", "pending"}
	clearLiability   = []string{"clear", "100%", "accepted", "at fault", "full"}
	negotiationPhase = []string{"demand", "negotiat"}
)

// Eligible reports whether a claim passes the policy-type and status filter.
func Eligible(c domain.ClaimFacts, r Rules) bool {
	if !strings.EqualFold(strings.TrimSpace(c.PolicyType), r.CoveredPolicyType) {
		return false
	}
	return !coerce.ContainsAny(c.Status, r.ExcludedStatuses...)
}

// LiabilityClear reads a fault-rating cell. Negative wording wins over a
// positive match ("not clear" is not clear).
func LiabilityClear(faultRating string) bool {
	if coerce.ContainsAny(faultRating, unclearLiability...) {
		return false
	}
	return coerce.ContainsAny(faultRating, clearLiability...)
}

// Derive computes the scoring inputs for a claim as of asOf. Days open comes
// from the export when present, otherwise from the loss date.
func Derive(c domain.ClaimFacts, r Rules, asOf time.Time) domain.DerivedFacts {
	days := c.DaysOpen
	if days < 0 {
		days = 0
		if !c.LossDate.IsZero() && asOf.After(c.LossDate) {
			days = int(asOf.Sub(c.LossDate).Hours() / 24)
		}
	}

	d := domain.DerivedFacts{
		DaysOpen:       days,
		AgeBucket:      ageBucket(days, r),
		PolicyLimit:    r.PolicyLimit(c.Jurisdiction),
		MedicalSpend:   c.MedicalBilled + c.MedicalPaid,
		LiabilityClear: LiabilityClear(c.FaultRating),
		RiskFlags:      c.Indicators.Count(),
	}
	if d.PolicyLimit > 0 {
		d.ReserveRatio = c.Reserves / d.PolicyLimit
	}
	if c.TriggerTotal != nil {
		d.RiskFlags = *c.TriggerTotal
	}
	return d
}

func ageBucket(days int, r Rules) string {
	switch {
	case days < r.FastTrackDays:
		return AgeBucketEarly
	case days < r.WindowDays:
		return AgeBucketDeveloping
	default:
		return AgeBucketMature
	}
}

func inNegotiation(c domain.ClaimFacts) bool {
	return c.ActiveDemand || coerce.ContainsAny(c.Status, negotiationPhase...)
}

func percent(ratio float64) string {
	return fmt.Sprintf("%.0f%%", math.Round(ratio*100))
}

// Score evaluates one claim. The second result is false when the claim is
// filtered out or fails the retention gate; a dropped claim is not reported.
func Score(c domain.ClaimFacts, r Rules, asOf time.Time) (domain.InterventionCandidate, bool) {
	if !Eligible(c, r) {
		return domain.InterventionCandidate{}, false
	}
	d := Derive(c, r, asOf)
	cand := domain.InterventionCandidate{Claim: c, Derived: d}

	add := func(points int, reason string) {
		cand.PriorityScore += points
		cand.Reasoning = append(cand.Reasoning, fmt.Sprintf("%s (+%d)", reason, points))
	}
	young := d.DaysOpen < r.WindowDays
	fast := d.DaysOpen < r.FastTrackDays

	if d.LiabilityClear && d.ReserveRatio >= lorMinReserveRatio && young && d.RiskFlags >= r.MinRiskFlags {
		cand.Strategies = append(cand.Strategies, domain.StrategyLOR)
		add(ScoreLORBase, fmt.Sprintf("LOR candidate: liability clear, reserves at %s of %.0f limit, %d risk flags",
			percent(d.ReserveRatio), d.PolicyLimit, d.RiskFlags))
		if fast {
			add(ScoreLORFastTrack, fmt.Sprintf("LOR: claim open %d days, under %d", d.DaysOpen, r.FastTrackDays))
		}
		if d.ReserveRatio >= lorHighReserveRatio {
			add(ScoreLORHighRatio, fmt.Sprintf("LOR: reserves at %s of limit", percent(d.ReserveRatio)))
		}
		if r.Pilot(c.Jurisdiction) {
			add(ScoreLORPilot, fmt.Sprintf("LOR: %s pilot jurisdiction", normalizeJurisdiction(c.Jurisdiction)))
		}
	}

	if c.Indicators.SeriousInjury() && young && inNegotiation(c) {
		cand.Strategies = append(cand.Strategies, domain.StrategyProactiveNegotiation)
		add(ScoreNegotiationBase, "Proactive negotiation: serious injury with an active demand")
		if fast {
			add(ScoreNegotiationFast, fmt.Sprintf("Negotiation: claim open %d days, under %d", d.DaysOpen, r.FastTrackDays))
		}
	}

	if c.HighEval > correctionEvalFactor*d.PolicyLimit && d.ReserveRatio < correctionMaxRatio {
		cand.Strategies = append(cand.Strategies, domain.StrategyReserveCorrection)
		add(ScoreReserveCorrect, fmt.Sprintf("Reserve correction: high eval %.0f exceeds %.1fx the %.0f limit while reserves sit at %s",
			c.HighEval, correctionEvalFactor, d.PolicyLimit, percent(d.ReserveRatio)))
	}

	ind := c.Indicators
	if (ind.Fatality || ind.LossOfConsciousness || ind.LifeCarePlanner) && young {
		cand.Strategies = append(cand.Strategies, domain.StrategyExpertEarly)
		add(ScoreExpertBase, "Expert early: fatality, loss of consciousness or life care planner indicated")
		if ind.Fatality {
			add(ScoreExpertFatality, "Expert early: fatality")
		}
	}

	if len(cand.Strategies) == 0 || d.RiskFlags < r.MinRiskFlags {
		return domain.InterventionCandidate{}, false
	}

	if r.HighRisk(c.Jurisdiction) {
		add(BonusHighRiskState, fmt.Sprintf("High-risk jurisdiction %s", normalizeJurisdiction(c.Jurisdiction)))
	}
	if cand.Has(domain.StrategyLOR) && d.MedicalSpend < r.LowMedicalSpend {
		add(BonusLORLowMedical, fmt.Sprintf("Medical spend %.0f under %.0f favors an early LOR", d.MedicalSpend, r.LowMedicalSpend))
	}
	return cand, true
}

// Evaluate scores every claim and returns the retained candidates, best first.
func Evaluate(claims []domain.ClaimFacts, r Rules, asOf time.Time) *domain.InterventionSummary {
	s := &domain.InterventionSummary{
		ByStrategy: domain.NewBreakdown(strategyKeys()...),
		Candidates: []domain.InterventionCandidate{},
	}
	for _, c := range claims {
		s.Evaluated++
		if Eligible(c, r) {
			s.Eligible++
		}
		cand, ok := Score(c, r, asOf)
		if !ok {
			continue
		}
		s.Candidates = append(s.Candidates, cand)
	}

	sort.SliceStable(s.Candidates, func(i, j int) bool {
		return s.Candidates[i].PriorityScore > s.Candidates[j].PriorityScore
	})

	for _, cand := range s.Candidates {
		s.Retained++
		s.RetainedReserves += cand.Claim.Reserves
		for _, st := range cand.Strategies {
			s.ByStrategy.AddReserve(string(st), cand.Claim.Reserves)
		}
	}
	return s
}

func strategyKeys() []string {
	keys := make([]string, len(domain.Strategies))
	for i, s := range domain.Strategies {
		keys[i] = string(s)
	}
	return keys
}

// Engine runs Evaluate over raw intervention rows.
type Engine struct {
	rules   Rules
	fields  Fields
	logger  *slog.Logger
	metrics *infrastructure.PipelineMetrics
}

// NewEngine creates an Engine. metrics may be nil.
func NewEngine(rules Rules, fields Fields, logger *slog.Logger, metrics *infrastructure.PipelineMetrics) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		rules:   rules,
		fields:  fields,
		logger:  logger.With(slog.String("component", "intervention")),
		metrics: metrics,
	}
}

// Rules returns the rule set the engine evaluates against.
func (e *Engine) Rules() Rules {
	return e.rules
}

// Run parses rows and evaluates them as of asOf.
func (e *Engine) Run(ctx context.Context, rows []domain.RawRow, asOf time.Time) *domain.InterventionSummary {
	s := Evaluate(ParseClaims(rows, e.fields), e.rules, asOf)
	e.metrics.RecordInterventionCandidates(ctx, s.Retained)
	e.logger.InfoContext(ctx, "intervention candidates scored",
		slog.Int("evaluated", s.Evaluated),
		slog.Int("eligible", s.Eligible),
		slog.Int("retained", s.Retained))
	return s
}
