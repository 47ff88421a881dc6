package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"claimpulse/internal/aggregation"
	"claimpulse/internal/cache"
	apperrors "claimpulse/internal/errors"
	"claimpulse/internal/fusion"
	"claimpulse/internal/infrastructure"
	"claimpulse/internal/intervention"
	"claimpulse/internal/tabular"
	"claimpulse/pkg/contracts/domain"
)

// MessageMetricsUpdated is the push message type sent after every refresh.
const MessageMetricsUpdated = "metrics_updated"

// RowSource loads one tabular source as rows.
type RowSource interface {
	Load(ctx context.Context, source, uri string) ([]domain.RawRow, error)
}

// WeeklySource loads and parses the weekly spreadsheet report.
type WeeklySource interface {
	LoadWeekly(ctx context.Context, source, uri string, layouts []tabular.WeeklyLayout) (*tabular.WeeklyParse, error)
}

// Broadcaster pushes messages to connected consumers.
type Broadcaster interface {
	Broadcast(messageType string, data interface{})
}

// MetricsServiceConfig configures a MetricsService.
type MetricsServiceConfig struct {
	// Sources maps source names to URIs. Sources without a URI are not loaded.
	Sources map[string]string
	Layouts []tabular.WeeklyLayout
	// AlertWindowDays bounds alert deadlines; zero uses the rules' window.
	AlertWindowDays int
	Now             func() time.Time
}

// SourceStatus reports the load state of one source.
type SourceStatus struct {
	Source    string     `json:"source"`
	URI       string     `json:"uri,omitempty"`
	Available bool       `json:"available"`
	Loading   bool       `json:"loading"`
	Error     *string    `json:"error"`
	LoadedAt  *time.Time `json:"loaded_at"`
}

type sourceState struct {
	loading  bool
	err      error
	loadedAt time.Time
}

// MetricsService loads every configured source through the shared cache,
// keeps the last known-good aggregate per source and publishes the fused
// metrics after each refresh.
type MetricsService struct {
	cache       *cache.Cache
	rows        RowSource
	weekly      WeeklySource
	aggregator  *aggregation.Engine
	scorer      *intervention.Engine
	notifier    intervention.Notifier
	broadcaster Broadcaster
	logger      *slog.Logger

	sources    map[string]string
	layouts    []tabular.WeeklyLayout
	windowDays int
	now        func() time.Time

	refreshMu sync.Mutex
	// notified fingerprints the alert set last handed to the notifier.
	// Guarded by refreshMu.
	notified string

	mu      sync.RWMutex
	states  map[string]*sourceState
	inputs  fusion.Inputs
	alerts  []domain.Alert
	unified atomic.Pointer[domain.UnifiedMetrics]
}

// NewMetricsService creates a MetricsService. notifier and broadcaster may be nil.
func NewMetricsService(
	cfg MetricsServiceConfig,
	c *cache.Cache,
	rows RowSource,
	weekly WeeklySource,
	aggregator *aggregation.Engine,
	scorer *intervention.Engine,
	notifier intervention.Notifier,
	broadcaster Broadcaster,
	logger *slog.Logger,
) *MetricsService {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if len(cfg.Layouts) == 0 {
		cfg.Layouts = tabular.DefaultWeeklyLayouts()
	}
	if cfg.AlertWindowDays <= 0 {
		cfg.AlertWindowDays = scorer.Rules().WindowDays
	}

	s := &MetricsService{
		cache:       c,
		rows:        rows,
		weekly:      weekly,
		aggregator:  aggregator,
		scorer:      scorer,
		notifier:    notifier,
		broadcaster: broadcaster,
		logger:      infrastructure.WithComponent(logger, "metrics_service"),
		sources:     make(map[string]string),
		layouts:     cfg.Layouts,
		windowDays:  cfg.AlertWindowDays,
		now:         cfg.Now,
		states:      make(map[string]*sourceState),
	}
	for _, name := range domain.AllSources {
		s.states[name] = &sourceState{}
		if uri := cfg.Sources[name]; uri != "" {
			s.sources[name] = uri
		}
	}

	s.logger.Info("MetricsService initialized", slog.Int("sources", len(s.sources)))
	return s
}

// Refresh loads every configured source concurrently. A failing source keeps
// its previous aggregate and never stops the others. The fused metrics are
// recomputed and published once all loads finish.
func (s *MetricsService) Refresh(ctx context.Context) []SourceStatus {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	ctx = infrastructure.EnsureTraceID(ctx)
	ctx, span := infrastructure.StartSpan(ctx, "metrics.refresh")
	defer span.End()

	start := time.Now()
	asOf := s.now()

	s.mu.Lock()
	for name := range s.sources {
		s.states[name].loading = true
	}
	s.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(len(s.sources), 1))
	for name, uri := range s.sources {
		g.Go(func() error {
			s.refreshSource(gctx, name, uri, asOf)
			return nil
		})
	}
	_ = g.Wait()

	m := s.publish(ctx, asOf)
	s.logger.InfoContext(ctx, "metrics refreshed",
		slog.Int("sources", len(s.sources)),
		slog.Int("total_claims", m.TotalClaims),
		slog.Duration("duration", time.Since(start)))
	return s.Status()
}

func (s *MetricsService) refreshSource(ctx context.Context, name, uri string, asOf time.Time) {
	key := cache.Key(name, uri)

	var apply func(in *fusion.Inputs)
	var err error
	switch name {
	case domain.SourceWeekly:
		var parsed *tabular.WeeklyParse
		parsed, err = cache.Load(ctx, s.cache, key, func(ctx context.Context) (*tabular.WeeklyParse, error) {
			return s.weekly.LoadWeekly(ctx, name, uri, s.layouts)
		})
		if err == nil {
			w := aggregation.BuildWeekly(parsed.Version, parsed.Snapshots, parsed.Dropped)
			apply = func(in *fusion.Inputs) { in.Weekly = w }
		}
	default:
		var rows []domain.RawRow
		rows, err = cache.Load(ctx, s.cache, key, func(ctx context.Context) ([]domain.RawRow, error) {
			return s.rows.Load(ctx, name, uri)
		})
		if err == nil {
			apply = s.aggregate(ctx, name, rows, asOf)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.states[name]
	st.loading = false
	if err != nil {
		st.err = err
		s.logger.WarnContext(ctx, "source refresh failed, keeping last known-good data",
			slog.String("source", name),
			slog.String("error", err.Error()))
		return
	}
	st.err = nil
	st.loadedAt = s.now()
	apply(&s.inputs)
}

// aggregate runs the engines owning a row source. The returned func installs
// the results under the state lock.
func (s *MetricsService) aggregate(ctx context.Context, name string, rows []domain.RawRow, asOf time.Time) func(in *fusion.Inputs) {
	switch name {
	case domain.SourceExposure:
		exposure := s.aggregator.Exposure(ctx, rows)
		decisions := s.aggregator.Decisions(ctx, rows)
		return func(in *fusion.Inputs) { in.Exposure, in.Decisions = exposure, decisions }
	case domain.SourceRisk:
		risk := s.aggregator.Risk(ctx, rows)
		return func(in *fusion.Inputs) { in.Risk = risk }
	case domain.SourceChecks:
		spend := s.aggregator.Spend(ctx, rows)
		return func(in *fusion.Inputs) { in.Spend = spend }
	case domain.SourceLossDevelopment:
		ld := s.aggregator.LossDevelopment(ctx, rows)
		return func(in *fusion.Inputs) { in.LossDevelopment = ld }
	case domain.SourceIntervention:
		summary := s.scorer.Run(ctx, rows, asOf)
		alerts := intervention.BuildAlerts(summary.Candidates, s.windowDays, asOf)
		s.notify(ctx, alerts)
		return func(in *fusion.Inputs) {
			in.Intervention = summary
			s.alerts = alerts
		}
	}
	return func(*fusion.Inputs) {}
}

// notify hands alerts to the notifier unless the same set was already
// delivered. A failed delivery is retried on the next refresh.
func (s *MetricsService) notify(ctx context.Context, alerts []domain.Alert) {
	if s.notifier == nil {
		return
	}
	key := alertsKey(alerts)
	if key == s.notified {
		s.logger.DebugContext(ctx, "alert set unchanged, skipping delivery", slog.Int("alerts", len(alerts)))
		return
	}
	if err := s.notifier.Notify(ctx, alerts); err != nil {
		s.logger.WarnContext(ctx, "alert delivery failed", slog.String("error", err.Error()))
		return
	}
	s.notified = key
}

// alertsKey identifies an alert set by claim, score and strategies. The
// deadline moves with the clock and is left out.
func alertsKey(alerts []domain.Alert) string {
	var b strings.Builder
	for _, a := range alerts {
		fmt.Fprintf(&b, "%s|%d|", a.ClaimNumber, a.PriorityScore)
		for _, st := range a.Strategies {
			b.WriteString(string(st))
			b.WriteByte(',')
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func (s *MetricsService) publish(ctx context.Context, asOf time.Time) domain.UnifiedMetrics {
	s.mu.RLock()
	in := s.inputs
	s.mu.RUnlock()

	m := fusion.Fuse(in, asOf)
	s.unified.Store(&m)
	if s.broadcaster != nil {
		s.broadcaster.Broadcast(MessageMetricsUpdated, m)
	}
	s.logger.DebugContext(ctx, "unified metrics published", slog.Int("figures", len(m.Provenance)))
	return m
}

// Invalidate drops the cached data of source so the next refresh fetches it
// again. Aggregates already derived from it stay until then.
func (s *MetricsService) Invalidate(source string) error {
	if _, known := s.states[source]; !known {
		return apperrors.UnknownSourceError(source)
	}
	uri, ok := s.sources[source]
	if !ok {
		return apperrors.NewNotFoundError(fmt.Sprintf("configured source %q", source))
	}
	s.cache.Invalidate(cache.Key(source, uri))
	return nil
}

// InvalidateAll drops every cached source.
func (s *MetricsService) InvalidateAll() {
	s.cache.Flush()
}

// CacheStats reports the shared cache counters.
func (s *MetricsService) CacheStats() cache.Stats {
	return s.cache.Stats()
}

// Status reports every source in refresh order.
func (s *MetricsService) Status() []SourceStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]SourceStatus, 0, len(domain.AllSources))
	for _, name := range domain.AllSources {
		st := s.states[name]
		status := SourceStatus{
			Source:    name,
			URI:       s.sources[name],
			Available: s.availableLocked(name),
			Loading:   st.loading,
		}
		if st.err != nil {
			msg := st.err.Error()
			status.Error = &msg
		}
		if !st.loadedAt.IsZero() {
			at := st.loadedAt
			status.LoadedAt = &at
		}
		out = append(out, status)
	}
	return out
}

func (s *MetricsService) availableLocked(name string) bool {
	switch name {
	case domain.SourceExposure:
		return s.inputs.Exposure != nil
	case domain.SourceRisk:
		return s.inputs.Risk != nil
	case domain.SourceChecks:
		return s.inputs.Spend != nil
	case domain.SourceIntervention:
		return s.inputs.Intervention != nil
	case domain.SourceLossDevelopment:
		return s.inputs.LossDevelopment != nil
	case domain.SourceWeekly:
		return s.inputs.Weekly != nil
	}
	return false
}

// sourceResult wraps data with the load state of the source that owns it.
func sourceResult[T any](s *MetricsService, source string, pick func(in fusion.Inputs) *T) domain.Result[T] {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data := pick(s.inputs)
	st := s.states[source]
	switch {
	case st.loading:
		return domain.Pending(data)
	case st.err != nil:
		return domain.Failed(data, st.err)
	case data == nil:
		if _, configured := s.sources[source]; !configured {
			return domain.Failed[T](nil, apperrors.NewConfigError(fmt.Sprintf("source %q has no URI configured", source), nil))
		}
		return domain.Pending[T](nil)
	}
	return domain.Ready(data)
}

// Exposure returns the exposure aggregate.
func (s *MetricsService) Exposure() domain.Result[domain.ExposureSummary] {
	return sourceResult(s, domain.SourceExposure, func(in fusion.Inputs) *domain.ExposureSummary { return in.Exposure })
}

// Decisions returns the decisions-pending aggregate, derived from the exposure source.
func (s *MetricsService) Decisions() domain.Result[domain.DecisionsSummary] {
	return sourceResult(s, domain.SourceExposure, func(in fusion.Inputs) *domain.DecisionsSummary { return in.Decisions })
}

// Risk returns the CP1 risk aggregate.
func (s *MetricsService) Risk() domain.Result[domain.RiskSummary] {
	return sourceResult(s, domain.SourceRisk, func(in fusion.Inputs) *domain.RiskSummary { return in.Risk })
}

// Spend returns the check-history aggregate.
func (s *MetricsService) Spend() domain.Result[domain.SpendSummary] {
	return sourceResult(s, domain.SourceChecks, func(in fusion.Inputs) *domain.SpendSummary { return in.Spend })
}

// LossDevelopment returns the loss-development aggregate.
func (s *MetricsService) LossDevelopment() domain.Result[domain.LossDevelopmentSummary] {
	return sourceResult(s, domain.SourceLossDevelopment, func(in fusion.Inputs) *domain.LossDevelopmentSummary { return in.LossDevelopment })
}

// Weekly returns the weekly report snapshots.
func (s *MetricsService) Weekly() domain.Result[domain.WeeklySummary] {
	return sourceResult(s, domain.SourceWeekly, func(in fusion.Inputs) *domain.WeeklySummary { return in.Weekly })
}

// Intervention returns the retained intervention candidates.
func (s *MetricsService) Intervention() domain.Result[domain.InterventionSummary] {
	return sourceResult(s, domain.SourceIntervention, func(in fusion.Inputs) *domain.InterventionSummary { return in.Intervention })
}

// Alerts returns the alert payloads built from the last intervention run.
func (s *MetricsService) Alerts() domain.Result[[]domain.Alert] {
	return sourceResult(s, domain.SourceIntervention, func(in fusion.Inputs) *[]domain.Alert {
		if in.Intervention == nil {
			return nil
		}
		alerts := s.alerts
		return &alerts
	})
}

// Metrics returns the last published unified metrics. It is loading while
// any source is.
func (s *MetricsService) Metrics() domain.Result[domain.UnifiedMetrics] {
	m := s.unified.Load()

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, st := range s.states {
		if st.loading {
			return domain.Pending(m)
		}
	}
	if m == nil {
		return domain.Pending[domain.UnifiedMetrics](nil)
	}
	return domain.Ready(m)
}

// Run refreshes once and then every interval until ctx is done. A
// non-positive interval refreshes once.
func (s *MetricsService) Run(ctx context.Context, interval time.Duration) {
	s.Refresh(ctx)
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Refresh(ctx)
		}
	}
}
