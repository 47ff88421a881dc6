package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"claimpulse/internal/shared/testutil"
)

type staticSources []SourceStatus

func (s staticSources) Status() []SourceStatus { return s }

type staticClients int

func (c staticClients) ClientCount() int { return int(c) }

func TestHealthCheck(t *testing.T) {
	failure := "fetch failed"
	tests := []struct {
		name    string
		sources staticSources
		want    string
	}{
		{"all sources fine", staticSources{{Source: "exposure", Available: true}}, StatusHealthy},
		{"no sources configured", staticSources{{Source: "exposure"}}, StatusHealthy},
		{"one source failing", staticSources{{Source: "exposure", Available: true}, {Source: "risk", Error: &failure}}, StatusDegraded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, logs := testutil.NewTestLogger(t)
			svc := NewHealthService("v1.2.3", "2024-06-01", tt.sources, staticClients(2), logger)

			status := svc.HealthCheck(context.Background())
			assert.Equal(t, tt.want, status.Status)
			assert.Equal(t, "v1.2.3", status.Version)
			assert.Equal(t, 2, status.WebSocketClients)
			assert.Len(t, status.Sources, len(tt.sources))
			assert.NotEmpty(t, status.Runtime.GoVersion)
			assert.Equal(t, tt.want == StatusDegraded, logs.ContainsMessage("health check degraded"))
		})
	}
}

func TestHealthVersionAndLiveness(t *testing.T) {
	svc := NewHealthService("v1.2.3", "", staticSources{}, nil, nil)

	assert.Equal(t, "v1.2.3", svc.Version()["version"])
	assert.Equal(t, "alive", svc.LivenessCheck(context.Background())["status"])
	assert.Zero(t, svc.HealthCheck(context.Background()).WebSocketClients)
}
