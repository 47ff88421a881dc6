package config

import "time"

// Application constants
const (
	AppName    = "claimpulse"
	AppVersion = "1.0.0"

	// HTTP endpoints
	APIBasePath       = "/api"
	MetricsEndpoint   = "/metrics"
	WebSocketEndpoint = "/ws"

	// Network timeouts
	DefaultHTTPTimeout  = 30 * time.Second
	WebSocketPingPeriod = 30 * time.Second
	WebSocketPongWait   = 60 * time.Second

	// WebSocket buffer sizes
	WebSocketReadBufferSize  = 1024
	WebSocketWriteBufferSize = 1024
)
