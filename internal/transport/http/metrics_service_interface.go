package http

import (
	"context"

	"claimpulse/internal/cache"
	"claimpulse/internal/services"
	"claimpulse/pkg/contracts/domain"
)

// MetricsServiceInterface defines the read and refresh operations the metrics
// API serves.
type MetricsServiceInterface interface {
	Metrics() domain.Result[domain.UnifiedMetrics]
	Exposure() domain.Result[domain.ExposureSummary]
	Decisions() domain.Result[domain.DecisionsSummary]
	Risk() domain.Result[domain.RiskSummary]
	Spend() domain.Result[domain.SpendSummary]
	LossDevelopment() domain.Result[domain.LossDevelopmentSummary]
	Weekly() domain.Result[domain.WeeklySummary]
	Intervention() domain.Result[domain.InterventionSummary]
	Alerts() domain.Result[[]domain.Alert]

	Refresh(ctx context.Context) []services.SourceStatus
	Status() []services.SourceStatus
	Invalidate(source string) error
	InvalidateAll()
	CacheStats() cache.Stats
}
