package errors

import (
	"fmt"
	"net/http"

	"github.com/go-chi/render"
)

// APIError represents a structured API error response
type APIError struct {
	StatusCode int         `json:"status_code"`
	ErrorCode  string      `json:"error_code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// Render implements the render.Renderer interface for chi/render
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

// New creates a new APIError with the given parameters
func New(statusCode int, errorCode, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
	}
}

// NewWithDetails creates a new APIError with additional details
func NewWithDetails(statusCode int, errorCode, message string, details interface{}) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
		Details:    details,
	}
}

// ErrRateLimitExceeded answers a client that spent its request budget.
var ErrRateLimitExceeded = New(http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED", "Rate limit exceeded")

// UnknownSourceError names the source that was requested.
func UnknownSourceError(source string) *APIError {
	return NewWithDetails(http.StatusNotFound, "UNKNOWN_SOURCE", fmt.Sprintf("unknown source %q", source), source)
}

// WebSocketUpgradeError reports a rejected websocket handshake with the status
// the upgrader chose.
func WebSocketUpgradeError(status int, reason error) *APIError {
	msg := "WebSocket upgrade failed"
	if reason != nil {
		msg = fmt.Sprintf("%s: %v", msg, reason)
	}
	return New(status, "WEBSOCKET_UPGRADE_FAILED", msg)
}
