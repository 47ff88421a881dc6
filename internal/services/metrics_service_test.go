package services

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"claimpulse/internal/aggregation"
	"claimpulse/internal/cache"
	apperrors "claimpulse/internal/errors"
	"claimpulse/internal/infrastructure"
	"claimpulse/internal/intervention"
	"claimpulse/internal/shared/testutil"
	"claimpulse/internal/tabular"
	"claimpulse/pkg/contracts/domain"
)

var refreshTime = time.Date(2024, time.June, 1, 9, 0, 0, 0, time.UTC)

// fakeSources serves canned rows per source and counts loads.
type fakeSources struct {
	mu     sync.Mutex
	rows   map[string][]domain.RawRow
	weekly *tabular.WeeklyParse
	fail   map[string]error
	calls  map[string]int
}

func newFakeSources() *fakeSources {
	return &fakeSources{
		rows: map[string][]domain.RawRow{
			domain.SourceExposure: {
				{"Claim Number": "C-1", "Reserves": "$20,000.00", "Days Open": "40", "Pain Level": ""},
				{"Claim Number": "C-2", "Reserves": "5000", "Low Eval": "1000", "High Eval": "3000", "Days Open": "200"},
			},
			domain.SourceRisk: {
				{"Claim Number": "C-1", "Coverage": "BI", "Reserves": "20000", "CP1": "Yes", "CP1 Reason": "Surgery"},
				{"Claim Number": "C-2", "Coverage": "BI", "Reserves": "5000", "CP1": "No"},
				{"Claim Number": "C-3", "Coverage": "PD", "Reserves": "1000", "CP1": "No"},
			},
			domain.SourceChecks: {
				{"Line Item Category": "Expert Fees", "Net Amount": "500", "Coverage": "BI"},
				{"Line Item Category": "Indemnity Payment", "Net Amount": "1000", "Coverage": "BI"},
			},
			domain.SourceIntervention: {
				{"Claim Number": "C-1", "Policy Type": "BI", "Days Open": "20", "Jurisdiction": "CA",
					"Fatality": "yes", "Surgery": "yes", "Fracture": "yes"},
				{"Claim Number": "C-9", "Policy Type": "PD", "Days Open": "20"},
			},
			domain.SourceLossDevelopment: {
				{"Accident Year": "2022", "Development Month": "12", "Metric": "Net Paid Loss", "Value": "1000"},
			},
		},
		weekly: &tabular.WeeklyParse{
			Version: "v1",
			Snapshots: []domain.WeeklySnapshot{
				{WeekOf: time.Date(2024, time.May, 24, 0, 0, 0, 0, time.UTC), TotalReserves: 24000, OpenFeatures: 3},
				{WeekOf: time.Date(2024, time.May, 31, 0, 0, 0, 0, time.UTC), TotalReserves: 25000, OpenFeatures: 3},
			},
		},
		fail:  map[string]error{},
		calls: map[string]int{},
	}
}

func (f *fakeSources) Load(ctx context.Context, source, uri string) ([]domain.RawRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[source]++
	if err := f.fail[source]; err != nil {
		return nil, err
	}
	return f.rows[source], nil
}

func (f *fakeSources) LoadWeekly(ctx context.Context, source, uri string, layouts []tabular.WeeklyLayout) (*tabular.WeeklyParse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[source]++
	if err := f.fail[source]; err != nil {
		return nil, err
	}
	return f.weekly, nil
}

func (f *fakeSources) setFailure(source string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[source] = err
}

func (f *fakeSources) callCount(source string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[source]
}

type recordingBroadcaster struct {
	mu       sync.Mutex
	messages []string
	last     interface{}
}

func (b *recordingBroadcaster) Broadcast(messageType string, data interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = append(b.messages, messageType)
	b.last = data
}

type recordingNotifier struct {
	alerts   []domain.Alert
	calls    int
	traceIDs []string
	err      error
}

func (n *recordingNotifier) Notify(ctx context.Context, alerts []domain.Alert) error {
	n.calls++
	n.alerts = append(n.alerts, alerts...)
	n.traceIDs = append(n.traceIDs, infrastructure.GetTraceID(ctx))
	return n.err
}

func allURIs() map[string]string {
	return map[string]string{
		domain.SourceExposure:        "exposure.csv",
		domain.SourceRisk:            "risk.csv",
		domain.SourceChecks:          "checks.csv",
		domain.SourceIntervention:    "intervention.csv",
		domain.SourceLossDevelopment: "loss.csv",
		domain.SourceWeekly:          "weekly.xlsx",
	}
}

type serviceFixture struct {
	svc         *MetricsService
	sources     *fakeSources
	broadcaster *recordingBroadcaster
	notifier    *recordingNotifier
	logs        *testutil.CaptureHandler
}

func newFixture(t *testing.T, uris map[string]string) *serviceFixture {
	t.Helper()
	logger, logs := testutil.NewTestLogger(t)
	f := &serviceFixture{
		sources:     newFakeSources(),
		broadcaster: &recordingBroadcaster{},
		notifier:    &recordingNotifier{},
		logs:        logs,
	}
	f.svc = NewMetricsService(
		MetricsServiceConfig{Sources: uris, Now: func() time.Time { return refreshTime }},
		cache.New(logger, nil),
		f.sources,
		f.sources,
		aggregation.New(logger, aggregation.Config{}),
		intervention.NewEngine(intervention.DefaultRules(), intervention.DefaultFields(), logger, nil),
		f.notifier,
		f.broadcaster,
		logger,
	)
	return f
}

func TestMetricsBeforeFirstRefresh(t *testing.T) {
	f := newFixture(t, allURIs())

	m := f.svc.Metrics()
	assert.Nil(t, m.Data)
	assert.True(t, m.Loading)
	assert.Nil(t, m.Error)

	e := f.svc.Exposure()
	assert.Nil(t, e.Data)
	assert.True(t, e.Loading, "configured but not yet loaded")
}

func TestRefreshLoadsAllSources(t *testing.T) {
	f := newFixture(t, allURIs())

	statuses := f.svc.Refresh(context.Background())
	require.Len(t, statuses, len(domain.AllSources))
	for _, st := range statuses {
		assert.True(t, st.Available, st.Source)
		assert.False(t, st.Loading, st.Source)
		assert.Nil(t, st.Error, st.Source)
		require.NotNil(t, st.LoadedAt, st.Source)
		assert.Equal(t, refreshTime, *st.LoadedAt)
	}

	m := f.svc.Metrics()
	require.NotNil(t, m.Data)
	assert.False(t, m.Loading)
	assert.Equal(t, refreshTime, m.Data.AsOf)
	assert.Equal(t, 3, m.Data.TotalClaims)
	assert.Equal(t, domain.SourceRisk, m.Data.Provenance[domain.FigureTotalClaims])
	assert.InDelta(t, 25000, m.Data.TotalReserves, 1e-9)
	assert.Equal(t, 1, m.Data.CP1Count)
	assert.Equal(t, 1, m.Data.DecisionsPending)
	assert.InDelta(t, 500, m.Data.ExpenseTotal, 1e-9)
	assert.InDelta(t, 1000, m.Data.IndemnityTotal, 1e-9)
	assert.Equal(t, 1, m.Data.InterventionCandidates)
	require.NotNil(t, m.Data.WeekOverWeek)
	assert.InDelta(t, 1000, m.Data.WeekOverWeek.ReserveChange, 1e-9)

	decisions := f.svc.Decisions()
	require.NotNil(t, decisions.Data)
	assert.Equal(t, "C-1", decisions.Data.Flagged[0].ClaimNumber)

	spend := f.svc.Spend()
	require.NotNil(t, spend.Data)
	assert.Equal(t, 2, spend.Data.TotalChecks)

	ld := f.svc.LossDevelopment()
	require.NotNil(t, ld.Data)
	require.Len(t, ld.Data.Years, 1)

	weekly := f.svc.Weekly()
	require.NotNil(t, weekly.Data)
	assert.Equal(t, "v1", weekly.Data.Layout)

	alerts := f.svc.Alerts()
	require.NotNil(t, alerts.Data)
	require.Len(t, *alerts.Data, 1)
	assert.Equal(t, 160, (*alerts.Data)[0].DaysRemaining)
	assert.Len(t, f.notifier.alerts, 1)

	assert.Equal(t, []string{MessageMetricsUpdated}, f.broadcaster.messages)
	assert.IsType(t, domain.UnifiedMetrics{}, f.broadcaster.last)
	assert.True(t, f.logs.ContainsMessage("metrics refreshed"))
}

func TestRefreshKeepsOtherSourcesWhenOneFails(t *testing.T) {
	f := newFixture(t, allURIs())
	f.sources.setFailure(domain.SourceRisk, apperrors.NewFetchError("risk.csv", errors.New("connection refused")))

	f.svc.Refresh(context.Background())

	risk := f.svc.Risk()
	assert.Nil(t, risk.Data)
	require.NotNil(t, risk.Error)
	assert.Contains(t, *risk.Error, "connection refused")

	exposure := f.svc.Exposure()
	require.NotNil(t, exposure.Data)
	assert.Nil(t, exposure.Error)

	m := f.svc.Metrics()
	require.NotNil(t, m.Data)
	assert.Equal(t, 2, m.Data.TotalClaims)
	assert.Equal(t, domain.SourceExposure, m.Data.Provenance[domain.FigureTotalClaims])
	testutil.AssertLogContains(t, f.logs, slog.LevelWarn, "source refresh failed, keeping last known-good data")
}

func TestRefreshKeepsLastKnownGood(t *testing.T) {
	f := newFixture(t, allURIs())
	f.svc.Refresh(context.Background())

	f.sources.setFailure(domain.SourceRisk, errors.New("upstream down"))
	require.NoError(t, f.svc.Invalidate(domain.SourceRisk))
	f.svc.Refresh(context.Background())

	risk := f.svc.Risk()
	require.NotNil(t, risk.Data, "last known-good data survives the failure")
	require.NotNil(t, risk.Error)
	assert.Equal(t, "upstream down", *risk.Error)
	assert.Equal(t, 3, risk.Data.TotalClaims)

	m := f.svc.Metrics()
	require.NotNil(t, m.Data)
	assert.Equal(t, 3, m.Data.TotalClaims)

	f.sources.setFailure(domain.SourceRisk, nil)
	f.svc.Refresh(context.Background())
	assert.Nil(t, f.svc.Risk().Error, "a failed load is not cached")
}

func TestRefreshUsesCache(t *testing.T) {
	f := newFixture(t, allURIs())
	f.svc.Refresh(context.Background())
	f.svc.Refresh(context.Background())

	for _, source := range domain.AllSources {
		assert.Equal(t, 1, f.sources.callCount(source), source)
	}
	assert.Len(t, f.broadcaster.messages, 2)

	require.NoError(t, f.svc.Invalidate(domain.SourceExposure))
	f.svc.Refresh(context.Background())
	assert.Equal(t, 2, f.sources.callCount(domain.SourceExposure))
	assert.Equal(t, 1, f.sources.callCount(domain.SourceRisk))

	f.svc.InvalidateAll()
	f.svc.Refresh(context.Background())
	assert.Equal(t, 2, f.sources.callCount(domain.SourceRisk))
	assert.Positive(t, f.svc.CacheStats().Hits)
}

func TestUnconfiguredSource(t *testing.T) {
	f := newFixture(t, map[string]string{domain.SourceExposure: "exposure.csv"})
	f.svc.Refresh(context.Background())

	risk := f.svc.Risk()
	assert.Nil(t, risk.Data)
	assert.False(t, risk.Loading)
	require.NotNil(t, risk.Error)
	assert.Contains(t, *risk.Error, "no URI configured")
	assert.Zero(t, f.sources.callCount(domain.SourceRisk))

	err := f.svc.Invalidate(domain.SourceRisk)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))
	err = f.svc.Invalidate("claims")
	var apiErr *apperrors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "UNKNOWN_SOURCE", apiErr.ErrorCode)
	assert.Equal(t, "claims", apiErr.Details)

	m := f.svc.Metrics()
	require.NotNil(t, m.Data)
	assert.Equal(t, 2, m.Data.TotalClaims)
	assert.NotContains(t, m.Data.Provenance, domain.FigureCP1Count)
}

func TestAlertsDeliveredOncePerChange(t *testing.T) {
	f := newFixture(t, allURIs())

	f.svc.Refresh(context.Background())
	require.NoError(t, f.svc.Invalidate(domain.SourceIntervention))
	f.svc.Refresh(context.Background())
	assert.Equal(t, 2, f.sources.callCount(domain.SourceIntervention), "the source is rescored")
	assert.Equal(t, 1, f.notifier.calls, "an unchanged alert set is not re-sent")
	require.Len(t, f.notifier.traceIDs, 1)
	assert.NotEmpty(t, f.notifier.traceIDs[0], "refreshes carry a trace id")

	f.sources.mu.Lock()
	f.sources.rows[domain.SourceIntervention] = append(f.sources.rows[domain.SourceIntervention], domain.RawRow{
		"Claim Number": "C-7", "Policy Type": "BI", "Days Open": "20", "Jurisdiction": "CA",
		"Fatality": "yes", "Surgery": "yes", "Fracture": "yes",
	})
	f.sources.mu.Unlock()
	require.NoError(t, f.svc.Invalidate(domain.SourceIntervention))
	f.svc.Refresh(context.Background())

	assert.Equal(t, 2, f.notifier.calls)
	require.NotNil(t, f.svc.Alerts().Data)
	assert.Len(t, *f.svc.Alerts().Data, 2)
}

func TestNotifierFailureIsRetried(t *testing.T) {
	f := newFixture(t, allURIs())
	f.notifier.err = errors.New("smtp unavailable")
	f.svc.Refresh(context.Background())

	f.notifier.err = nil
	f.svc.Refresh(context.Background())
	f.svc.Refresh(context.Background())
	assert.Equal(t, 2, f.notifier.calls, "a failed delivery is attempted again, then settles")
}

func TestNotifierFailureIsNotFatal(t *testing.T) {
	f := newFixture(t, allURIs())
	f.notifier.err = errors.New("smtp unavailable")

	f.svc.Refresh(context.Background())
	assert.NotNil(t, f.svc.Intervention().Data)
	assert.True(t, f.logs.ContainsMessage("alert delivery failed"))
}

func TestRunStopsWithContext(t *testing.T) {
	f := newFixture(t, allURIs())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		f.svc.Run(ctx, 10*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool {
		f.broadcaster.mu.Lock()
		defer f.broadcaster.mu.Unlock()
		return len(f.broadcaster.messages) >= 2
	}, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
