// Package aggregation reduces typed claim records into the summary aggregates
// the fusion layer combines. There is one engine per source domain; header
// spellings are data in a FieldMap rather than per-variant code.
package aggregation

import (
	"context"
	"log/slog"

	"claimpulse/pkg/contracts/domain"
)

// Config holds the engine settings.
type Config struct {
	Fields            FieldMap
	DecisionThreshold float64
}

// Engine runs the per-domain reductions over raw rows.
type Engine struct {
	logger *slog.Logger
	fields FieldMap
	thresh float64
}

// New creates an Engine. A zero threshold uses DefaultDecisionThreshold and
// a zero field map uses DefaultFieldMap.
func New(logger *slog.Logger, cfg Config) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Fields.Exposure.ClaimNumber == nil {
		cfg.Fields = DefaultFieldMap()
	}
	if cfg.DecisionThreshold <= 0 {
		cfg.DecisionThreshold = DefaultDecisionThreshold
	}
	return &Engine{
		logger: logger.With(slog.String("component", "aggregation")),
		fields: cfg.Fields,
		thresh: cfg.DecisionThreshold,
	}
}

// Exposure builds the exposure summary.
func (e *Engine) Exposure(ctx context.Context, rows []domain.RawRow) *domain.ExposureSummary {
	s := BuildExposure(ParseExposure(rows, e.fields.Exposure))
	e.logger.DebugContext(ctx, "exposure aggregated",
		slog.Int("claims", s.TotalClaims),
		slog.Float64("reserves", s.TotalReserves),
		slog.Int("no_evaluation", s.NoEvaluationCount))
	return s
}

// Decisions builds the decisions-pending summary from the exposure rows.
func (e *Engine) Decisions(ctx context.Context, rows []domain.RawRow) *domain.DecisionsSummary {
	s := BuildDecisions(ParseExposure(rows, e.fields.Exposure), e.thresh)
	e.logger.DebugContext(ctx, "decisions aggregated",
		slog.Int("flagged", s.FlaggedCount),
		slog.Float64("reserves", s.FlaggedReserves))
	return s
}

// Risk builds the CP1 risk summary.
func (e *Engine) Risk(ctx context.Context, rows []domain.RawRow) *domain.RiskSummary {
	s := BuildRisk(ParseRisk(rows, e.fields.Risk))
	e.logger.DebugContext(ctx, "risk aggregated",
		slog.Int("claims", s.TotalClaims),
		slog.Int("cp1", s.CP1Count))
	return s
}

// Spend builds the check-history summary.
func (e *Engine) Spend(ctx context.Context, rows []domain.RawRow) *domain.SpendSummary {
	s := BuildSpend(ParseChecks(rows, e.fields.Checks))
	e.logger.DebugContext(ctx, "spend aggregated",
		slog.Int("checks", s.TotalChecks),
		slog.Float64("expense", s.ExpenseTotal),
		slog.Float64("indemnity", s.IndemnityTotal))
	return s
}

// LossDevelopment builds the loss-development summary.
func (e *Engine) LossDevelopment(ctx context.Context, rows []domain.RawRow) *domain.LossDevelopmentSummary {
	points := ParseLossDevelopment(rows, e.fields.LossDevelopment)
	s := BuildLossDevelopment(points)
	e.logger.DebugContext(ctx, "loss development aggregated",
		slog.Int("points", len(points)),
		slog.Int("years", len(s.Years)))
	return s
}
