package errors

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"claimpulse/internal/shared/testutil"
)

func TestAppError(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := NewFetchError("https://example.test/exposure.csv", cause)

	assert.Equal(t, "[FETCH] fetch failed: connection refused", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "https://example.test/exposure.csv", err.Context["uri"])

	wrapped := fmt.Errorf("load exposure: %w", err)
	assert.True(t, IsType(wrapped, ErrTypeFetch))
	assert.False(t, IsType(wrapped, ErrTypeParsing))
	assert.Equal(t, ErrorType(""), TypeOf(cause))
}

func TestErrorHandler_HandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{
			name:       "context deadline",
			err:        context.DeadlineExceeded,
			wantStatus: http.StatusGatewayTimeout,
			wantType:   TypeTimeout,
		},
		{
			name:       "fetch failure",
			err:        NewFetchError("file:///missing.csv", fmt.Errorf("no such file")),
			wantStatus: http.StatusBadGateway,
			wantType:   TypeSourceFetch,
		},
		{
			name:       "parse failure",
			err:        NewParsingError("read workbook", nil),
			wantStatus: http.StatusBadGateway,
			wantType:   TypeSourceParse,
		},
		{
			name:       "source without uri",
			err:        NewNotFoundError(`configured source "risk"`),
			wantStatus: http.StatusNotFound,
			wantType:   TypeNotFound,
		},
		{
			name:       "unknown source api error",
			err:        UnknownSourceError("payroll"),
			wantStatus: http.StatusNotFound,
			wantType:   TypeSourceUnknown,
		},
		{
			name:       "rejected websocket origin",
			err:        WebSocketUpgradeError(http.StatusForbidden, fmt.Errorf("origin not allowed")),
			wantStatus: http.StatusForbidden,
			wantType:   TypeWebSocketUpgrade,
		},
		{
			name:       "rate limit",
			err:        ErrRateLimitExceeded,
			wantStatus: http.StatusTooManyRequests,
			wantType:   TypeRateLimit,
		},
		{
			name:       "plain error",
			err:        fmt.Errorf("boom"),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, logs := testutil.NewTestLogger(t)
			h := NewErrorHandler(logger, false)

			req := httptest.NewRequest(http.MethodGet, "/api/metrics", nil)
			rec := httptest.NewRecorder()
			h.HandleError(rec, req, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantType, body["type"])
			assert.Equal(t, "/api/metrics", body["instance"])
			assert.NotContains(t, body, "stack")

			testutil.AssertLogContains(t, logs, slog.LevelError, "request failed")
		})
	}
}

func TestErrorHandler_NilErrorWritesNothing(t *testing.T) {
	h := NewErrorHandler(nil, false)
	rec := httptest.NewRecorder()
	h.HandleError(rec, httptest.NewRequest(http.MethodGet, "/", nil), nil)
	assert.Zero(t, rec.Body.Len())
}

func TestErrorHandler_AppErrorContextBecomesExtensions(t *testing.T) {
	h := NewErrorHandler(nil, false)
	req := httptest.NewRequest(http.MethodPost, "/api/refresh", nil)
	problem := h.ErrorToProblem(NewFetchError("https://x.test/a.csv", nil), req)

	assert.Equal(t, "https://x.test/a.csv", problem.Extensions["uri"])
	assert.Equal(t, "FETCH", problem.Extensions["error_type"])
}

func TestErrorHandler_HandlePanic(t *testing.T) {
	h := NewErrorHandler(nil, true)
	rec := httptest.NewRecorder()
	h.HandlePanic(rec, httptest.NewRequest(http.MethodGet, "/api/spend", nil), "kaboom")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "kaboom", body["panic"])
	assert.Contains(t, body, "stack")
}
