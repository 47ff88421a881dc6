package http

import (
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"claimpulse/internal/services"
	"claimpulse/internal/shared/testutil"
)

type sourceList []services.SourceStatus

func (s sourceList) Status() []services.SourceStatus { return s }

func TestHealthHandler(t *testing.T) {
	failure := "[FETCH] fetch failed: timeout"
	logger, _ := testutil.NewTestLogger(t)
	svc := services.NewHealthService("v1.0.0-test", "", sourceList{
		{Source: "exposure", Available: true},
		{Source: "risk", Error: &failure},
	}, nil, logger)

	r := chi.NewRouter()
	r.Route("/api", NewHealthHandler(svc, logger).RegisterRoutes)

	tests := []struct {
		path string
		key  string
		want interface{}
	}{
		{"/api/health", "status", services.StatusDegraded},
		{"/api/health/live", "status", "alive"},
		{"/api/version", "version", "v1.0.0-test"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := serve(r, http.MethodGet, tt.path)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.want, decode(t, rec)[tt.key])
		})
	}
}
