package intervention

import (
	"context"
	"log/slog"
	"time"

	"claimpulse/pkg/contracts/domain"
)

// BuildAlerts turns retained candidates into notification payloads. The
// deadline is the day the claim reaches the intervention window; claims
// already past it are left out. Candidate order is kept.
func BuildAlerts(candidates []domain.InterventionCandidate, windowDays int, asOf time.Time) []domain.Alert {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	today := time.Date(asOf.Year(), asOf.Month(), asOf.Day(), 0, 0, 0, 0, time.UTC)

	alerts := make([]domain.Alert, 0, len(candidates))
	for _, cand := range candidates {
		remaining := windowDays - cand.Derived.DaysOpen
		if remaining <= 0 {
			continue
		}
		strategies := make([]domain.Strategy, len(cand.Strategies))
		copy(strategies, cand.Strategies)

		alerts = append(alerts, domain.Alert{
			ClaimNumber:   cand.Claim.ClaimNumber,
			Claimant:      cand.Claim.Claimant,
			Adjuster:      cand.Claim.Adjuster,
			Jurisdiction:  cand.Claim.Jurisdiction,
			Reserves:      cand.Claim.Reserves,
			Strategies:    strategies,
			PriorityScore: cand.PriorityScore,
			Deadline:      today.AddDate(0, 0, remaining),
			DaysRemaining: remaining,
		})
	}
	return alerts
}

// Notifier hands alerts to the delivery collaborator. Formatting and
// delivery are the collaborator's concern.
type Notifier interface {
	Notify(ctx context.Context, alerts []domain.Alert) error
}

// LogNotifier writes each alert as a structured log record.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger.With(slog.String("component", "notifier"))}
}

// Notify implements Notifier.
func (n *LogNotifier) Notify(ctx context.Context, alerts []domain.Alert) error {
	for _, a := range alerts {
		n.logger.InfoContext(ctx, "intervention alert",
			slog.String("claim_number", a.ClaimNumber),
			slog.String("jurisdiction", a.Jurisdiction),
			slog.Float64("reserves", a.Reserves),
			slog.Int("priority_score", a.PriorityScore),
			slog.Any("strategies", a.Strategies),
			slog.Time("deadline", a.Deadline),
			slog.Int("days_remaining", a.DaysRemaining))
	}
	return nil
}
