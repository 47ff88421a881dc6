package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"claimpulse/internal/config"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLogLevel(tt.in))
		})
	}
}

func TestNewLoggerInjectsTraceID(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "debug").With(slog.String("component", "loader"))

	ctx := WithTraceID(context.Background(), "trace-123")
	logger.InfoContext(ctx, "source loaded", slog.String("source", "exposure"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "source loaded", entry["msg"])
	assert.Equal(t, "trace-123", entry["trace_id"])
	assert.Equal(t, "loader", entry["component"])
	assert.Equal(t, "exposure", entry["source"])
}

func TestNewLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "warn")
	logger.Info("dropped")
	assert.Zero(t, buf.Len())
	logger.Warn("kept")
	assert.NotZero(t, buf.Len())
}

func TestEnsureTraceID(t *testing.T) {
	ctx := EnsureTraceID(context.Background())
	id := GetTraceID(ctx)
	assert.NotEmpty(t, id)
	assert.Equal(t, id, GetTraceID(EnsureTraceID(ctx)), "existing id is kept")
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	WithComponent(NewLogger(&buf, "info"), "cache").Info("hit")

	var record map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "cache", record["component"])
	assert.NotNil(t, WithComponent(nil, "cache"))
}

func TestInitializeLoggerFileOutput(t *testing.T) {
	ResetLoggerForTesting()
	prev := slog.Default()
	t.Cleanup(func() {
		ResetLoggerForTesting()
		slog.SetDefault(prev)
	})

	path := filepath.Join(t.TempDir(), "logs", "app.log")
	logger, err := InitializeLogger(config.LoggingConfig{Level: "info", Output: "file", FilePath: path})
	require.NoError(t, err)
	require.NotNil(t, logger)
	assert.Same(t, logger, slog.Default())
	assert.FileExists(t, path)
}

func TestInitializeOTelDisabled(t *testing.T) {
	providers, err := InitializeOTel(&OTelConfig{
		ServiceName:    "claimpulse-test",
		TraceExporter:  "none",
		MetricExporter: "none",
	}, nil)
	require.NoError(t, err)
	assert.Nil(t, providers.TracerProvider)
	assert.Nil(t, providers.MeterProvider)
	assert.NoError(t, providers.Shutdown(context.Background()))
}

func TestInitializeOTelRejectsUnknownExporter(t *testing.T) {
	_, err := InitializeOTel(&OTelConfig{EnableMetrics: true, MetricExporter: "statsd"}, nil)
	assert.Error(t, err)
}

func TestOTelConfigFrom(t *testing.T) {
	cfg := OTelConfigFrom(config.TelemetryConfig{ServiceName: "svc", MetricsEnabled: true})
	assert.Equal(t, "svc", cfg.ServiceName)
	assert.Equal(t, "prometheus", cfg.MetricExporter)
	assert.Equal(t, "none", cfg.TraceExporter)
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestPipelineMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewPipelineMetrics(mp.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordSourceLoad(ctx, "exposure", 120*time.Millisecond, nil)
	m.RecordSourceLoad(ctx, "risk", time.Millisecond, errors.New("404"))
	m.RecordCacheLookup(ctx, "exposure", true)
	m.RecordParseWarnings(ctx, "weekly", 2)
	m.RecordParseWarnings(ctx, "weekly", 0)
	m.RecordInterventionCandidates(ctx, 4)

	got := collect(t, reader)

	loads, ok := got["claims_source_loads_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	var total int64
	for _, dp := range loads.DataPoints {
		total += dp.Value
	}
	assert.Equal(t, int64(2), total)

	warnings, ok := got["claims_parse_warnings_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, warnings.DataPoints, 1)
	assert.Equal(t, int64(2), warnings.DataPoints[0].Value)

	retained, ok := got["claims_intervention_candidates"].Data.(metricdata.Gauge[int64])
	require.True(t, ok)
	require.Len(t, retained.DataPoints, 1)
	assert.Equal(t, int64(4), retained.DataPoints[0].Value)
}

func TestNilPipelineMetricsIsNoop(t *testing.T) {
	var m *PipelineMetrics
	assert.NotPanics(t, func() {
		m.RecordSourceLoad(context.Background(), "x", time.Second, nil)
		m.RecordHTTPRequest(context.Background(), "GET", "/", 200, time.Second)
		m.AddWebSocketClients(context.Background(), 1)
	})

	noopMetrics, err := NewPipelineMetrics(nil)
	require.NoError(t, err)
	assert.NotPanics(t, func() {
		noopMetrics.RecordCacheLookup(context.Background(), "x", false)
	})
}
