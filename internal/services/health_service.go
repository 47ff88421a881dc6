package services

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"claimpulse/internal/infrastructure"
)

// Health status values.
const (
	StatusHealthy  = "healthy"
	StatusDegraded = "degraded"
)

// SourceReporter reports per-source load state.
type SourceReporter interface {
	Status() []SourceStatus
}

// ClientCounter reports connected push clients.
type ClientCounter interface {
	ClientCount() int
}

// HealthService provides health check functionality
type HealthService struct {
	version   string
	buildTime string
	sources   SourceReporter
	clients   ClientCounter
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status           string         `json:"status"`
	Timestamp        time.Time      `json:"timestamp"`
	Version          string         `json:"version"`
	BuildTime        string         `json:"build_time,omitempty"`
	UptimeSeconds    float64        `json:"uptime_seconds"`
	WebSocketClients int            `json:"websocket_clients"`
	Sources          []SourceStatus `json:"sources"`
	Runtime          RuntimeInfo    `json:"runtime"`
}

// RuntimeInfo describes the running process.
type RuntimeInfo struct {
	GoVersion  string `json:"go_version"`
	OS         string `json:"os"`
	Arch       string `json:"arch"`
	Goroutines int    `json:"goroutines"`
}

// NewHealthService creates a new health service. clients may be nil.
func NewHealthService(version, buildTime string, sources SourceReporter, clients ClientCounter, logger *slog.Logger) *HealthService {
	logger = infrastructure.WithComponent(logger, "health_service")
	logger.Info("HealthService initialized",
		slog.String("version", version),
		slog.String("build_time", buildTime))

	return &HealthService{
		version:   version,
		buildTime: buildTime,
		sources:   sources,
		clients:   clients,
		startTime: time.Now(),
		logger:    logger,
	}
}

// HealthCheck reports the service as degraded while any source carries an
// error; the API keeps serving last known-good data either way.
func (s *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:        StatusHealthy,
		Timestamp:     time.Now().UTC(),
		Version:       s.version,
		BuildTime:     s.buildTime,
		UptimeSeconds: time.Since(s.startTime).Seconds(),
		Sources:       s.sources.Status(),
		Runtime: RuntimeInfo{
			GoVersion:  runtime.Version(),
			OS:         runtime.GOOS,
			Arch:       runtime.GOARCH,
			Goroutines: runtime.NumGoroutine(),
		},
	}
	if s.clients != nil {
		status.WebSocketClients = s.clients.ClientCount()
	}

	for _, src := range status.Sources {
		if src.Error != nil {
			status.Status = StatusDegraded
			break
		}
	}
	if status.Status != StatusHealthy {
		s.logger.WarnContext(ctx, "health check degraded")
	}
	return status
}

// LivenessCheck reports that the process is serving requests.
func (s *HealthService) LivenessCheck(ctx context.Context) map[string]interface{} {
	return map[string]interface{}{
		"status":    "alive",
		"timestamp": time.Now().UTC(),
	}
}

// Version reports build information.
func (s *HealthService) Version() map[string]string {
	return map[string]string{
		"version":    s.version,
		"build_time": s.buildTime,
		"go_version": runtime.Version(),
	}
}
