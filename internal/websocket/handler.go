package websocket

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	apperrors "claimpulse/internal/errors"
)

// Handler upgrades HTTP requests on /ws and attaches them to a hub.
type Handler struct {
	hub      *Hub
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// Options tunes the upgrade handler.
type Options struct {
	// AllowedOrigins lists cross-origin dashboards. Requests without an
	// Origin header and same-host origins are always accepted; an empty list
	// or "*" accepts every origin.
	AllowedOrigins  []string
	ReadBufferSize  int
	WriteBufferSize int
}

// NewHandler creates the upgrade handler. Rejected handshakes are answered
// as problem details through errorHandler.
func NewHandler(hub *Hub, opts Options, errorHandler *apperrors.ErrorHandler, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if errorHandler == nil {
		errorHandler = apperrors.NewErrorHandler(logger, false)
	}
	h := &Handler{
		hub:    hub,
		logger: logger.With(slog.String("component", "websocket.handler")),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  opts.ReadBufferSize,
		WriteBufferSize: opts.WriteBufferSize,
		CheckOrigin: func(r *http.Request) bool {
			return originAllowed(r, opts.AllowedOrigins)
		},
		Error: func(w http.ResponseWriter, r *http.Request, status int, reason error) {
			errorHandler.HandleError(w, r, apperrors.WebSocketUpgradeError(status, reason))
		},
	}
	return h
}

func originAllowed(r *http.Request, allowed []string) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(allowed) == 0 {
		return true
	}
	if u, err := url.Parse(origin); err == nil && strings.EqualFold(u.Host, r.Host) {
		return true
	}
	for _, a := range allowed {
		if a == "*" || strings.EqualFold(a, origin) {
			return true
		}
	}
	return false
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	traceID := middleware.GetReqID(ctx)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already written the problem response.
		h.logger.WarnContext(ctx, "websocket upgrade failed",
			slog.String("remote_addr", r.RemoteAddr),
			slog.String("origin", r.Header.Get("Origin")),
			slog.String("error", err.Error()))
		return
	}

	if client := ServeWS(h.hub, conn, traceID, h.logger); client != nil {
		h.logger.InfoContext(ctx, "websocket connected",
			slog.String("client_id", client.ID()),
			slog.String("remote_addr", r.RemoteAddr))
	}
}
