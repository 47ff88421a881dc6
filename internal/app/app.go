package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"claimpulse/internal/aggregation"
	"claimpulse/internal/cache"
	"claimpulse/internal/config"
	apperrors "claimpulse/internal/errors"
	"claimpulse/internal/infrastructure"
	"claimpulse/internal/intervention"
	customMiddleware "claimpulse/internal/middleware"
	"claimpulse/internal/services"
	"claimpulse/internal/tabular"
	handlers "claimpulse/internal/transport/http"
	ws "claimpulse/internal/websocket"
)

const AppName = "ClaimPulse - Claims Metrics Pipeline"

var (
	// Version and BuildTime are set at link time.
	Version   = config.AppVersion
	BuildTime = ""
)

// Application represents the main application container
type Application struct {
	Config         *config.Config
	Router         *chi.Mux
	Server         *http.Server
	Logger         *slog.Logger
	OTelProviders  *infrastructure.OTelProviders
	Metrics        *infrastructure.PipelineMetrics
	ErrorHandler   *apperrors.ErrorHandler
	WebSocketHub   *ws.Hub
	MetricsService *services.MetricsService
	HealthService  *services.HealthService

	stopRefresh context.CancelFunc
	refreshDone chan struct{}
}

// NewApplication loads configuration and logging from the environment and
// builds the application.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return New(cfg, logger)
}

// New wires every component for cfg.
func New(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("Application starting",
		slog.String("name", AppName),
		slog.String("version", Version),
		slog.Int("configured_sources", len(cfg.Sources.URIs())))

	providers, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFrom(cfg.Telemetry), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	metrics, err := infrastructure.NewPipelineMetrics(providers.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline metrics: %w", err)
	}

	a := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: providers,
		Metrics:       metrics,
		ErrorHandler:  apperrors.NewErrorHandler(logger, false),
	}

	a.initializeServices()
	a.setupRouter()
	a.createServer()
	return a, nil
}

func (a *Application) initializeServices() {
	a.WebSocketHub = ws.NewHub(a.Logger, a.Metrics)
	a.WebSocketHub.SetKeepalive(a.Config.WebSocket.PingPeriod, a.Config.WebSocket.PongWait)

	a.MetricsService = NewPipeline(a.Config, a.Logger, a.Metrics, a.WebSocketHub, nil)
	a.HealthService = services.NewHealthService(Version, BuildTime, a.MetricsService, a.WebSocketHub, a.Logger)
}

// NewPipeline builds the loaders, cache, engines and metrics service for cfg.
// broadcaster and now may be nil.
func NewPipeline(cfg *config.Config, logger *slog.Logger, metrics *infrastructure.PipelineMetrics, broadcaster services.Broadcaster, now func() time.Time) *services.MetricsService {
	fetcher := tabular.NewSourceFetcher(
		tabular.NewHTTPFetcher(cfg.Sources.FetchTimeout, cfg.Sources.MaxBytes),
		tabular.NewFileFetcher(cfg.Sources.MaxBytes),
		logger)
	spreadsheet := tabular.NewSpreadsheetLoader(fetcher, logger, metrics)
	rows := tabular.NewRowLoader(tabular.NewDelimitedLoader(fetcher, logger, metrics), spreadsheet)

	aggregator := aggregation.New(logger, aggregation.Config{DecisionThreshold: cfg.Scoring.DecisionThreshold})
	scorer := intervention.NewEngine(intervention.RulesFromConfig(cfg.Scoring), intervention.DefaultFields(), logger, metrics)

	return services.NewMetricsService(
		services.MetricsServiceConfig{
			Sources:         cfg.Sources.URIs(),
			AlertWindowDays: cfg.Scoring.AlertWindowDays,
			Now:             now,
		},
		cache.New(logger, metrics),
		rows,
		spreadsheet,
		aggregator,
		scorer,
		intervention.NewLogNotifier(logger),
		broadcaster,
		logger,
	)
}

func (a *Application) setupRouter() {
	r := chi.NewRouter()

	// Tracing -> RequestID -> RealIP -> Logger -> Recoverer, then per-group middleware
	r.Use(customMiddleware.Tracing(a.OTelProviders.Tracer))
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)
	r.Use(customMiddleware.StructuredLogger(a.Logger, a.Metrics))
	r.Use(customMiddleware.Recoverer(a.ErrorHandler))

	r.NotFound(a.ErrorHandler.NotFound)
	r.MethodNotAllowed(a.ErrorHandler.MethodNotAllowed)

	// The upgrade must not sit behind the request timeout.
	r.Handle(config.WebSocketEndpoint, ws.NewHandler(a.WebSocketHub, ws.Options{
		AllowedOrigins:  a.Config.Security.AllowedOrigins,
		ReadBufferSize:  a.Config.WebSocket.ReadBufferSize,
		WriteBufferSize: a.Config.WebSocket.WriteBufferSize,
	}, a.ErrorHandler, a.Logger))

	r.Group(func(r chi.Router) {
		r.Use(customMiddleware.SecurityHeaders)
		r.Use(customMiddleware.CORS(customMiddleware.CORSConfig{
			AllowedOrigins: a.Config.Security.AllowedOrigins,
		}))
		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.ErrorHandler,
				a.Logger,
			).Handler)
		}
		r.Use(middleware.Timeout(a.Config.Server.RequestTimeout))

		a.setupAPIRoutes(r)
	})

	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle(config.MetricsEndpoint, a.OTelProviders.PrometheusHTTP)
	}

	a.Router = r
}

func (a *Application) setupAPIRoutes(r chi.Router) {
	r.Route(config.APIBasePath, func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		handlers.NewHealthHandler(a.HealthService, a.Logger).RegisterRoutes(r)
		handlers.NewMetricsHandler(a.MetricsService, a.Logger, a.ErrorHandler).RegisterRoutes(r)
	})
}

func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// StartBackground starts the hub and the refresh loop without the HTTP
// server. The first refresh runs immediately.
func (a *Application) StartBackground(ctx context.Context) {
	a.WebSocketHub.Start()

	refreshCtx, cancel := context.WithCancel(ctx)
	a.stopRefresh = cancel
	a.refreshDone = make(chan struct{})
	go func() {
		defer close(a.refreshDone)
		a.MetricsService.Run(refreshCtx, a.Config.Sources.RefreshInterval)
	}()
}

// Start starts the background services and the HTTP server. A server failure
// calls cancel.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", AppName),
		slog.String("version", Version),
		slog.Int("port", a.Config.Server.Port),
		slog.String("level", a.Config.Logging.Level),
		slog.Duration("refresh_interval", a.Config.Sources.RefreshInterval))

	a.StartBackground(ctx)

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	a.Logger.InfoContext(ctx, "Application started",
		slog.String("address", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)))
	return nil
}

// Stop shuts the server down, stops the refresh loop and the hub, and
// flushes telemetry.
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
	}

	if a.stopRefresh != nil {
		a.stopRefresh()
		select {
		case <-a.refreshDone:
		case <-shutdownCtx.Done():
			a.Logger.WarnContext(ctx, "refresh still running at shutdown deadline")
		}
	}
	a.WebSocketHub.Stop()

	if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
		a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	if err := infrastructure.CloseLogFile(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Run runs the application until interrupted
func (a *Application) Run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	<-ctx.Done()
	a.Logger.Info("Received shutdown signal")

	// ctx is already cancelled; shutdown gets its own deadline.
	return a.Stop(context.Background())
}
