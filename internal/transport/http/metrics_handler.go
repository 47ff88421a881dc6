package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	apierrors "claimpulse/internal/errors"
	"claimpulse/pkg/contracts/domain"
)

// MetricsHandler serves the aggregate, fused and intervention results. Every
// read endpoint answers 200 with a Result body; load failures travel in the
// body's error field rather than the status code.
type MetricsHandler struct {
	service      MetricsServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewMetricsHandler creates a new metrics handler
func NewMetricsHandler(service MetricsServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *MetricsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &MetricsHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "metrics_handler")),
		errorHandler: errorHandler,
	}
}

// RegisterRoutes registers the metrics routes on r.
func (h *MetricsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/metrics", h.GetMetrics)
	r.Get("/exposure", h.GetExposure)
	r.Get("/decisions", h.GetDecisions)
	r.Get("/risk", h.GetRisk)
	r.Get("/spend", h.GetSpend)
	r.Get("/loss-development", h.GetLossDevelopment)
	r.Get("/weekly", h.GetWeekly)
	r.Route("/intervention", func(r chi.Router) {
		r.Get("/", h.GetIntervention)
		r.Get("/alerts", h.GetAlerts)
	})
	r.Get("/sources", h.GetSources)

	r.Post("/refresh", h.Refresh)
	r.Route("/cache", func(r chi.Router) {
		r.Get("/stats", h.GetCacheStats)
		r.Delete("/", h.InvalidateAll)
		r.Delete("/{source}", h.Invalidate)
	})
}

// Routes returns the metrics routes as a standalone router.
func (h *MetricsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))
	h.RegisterRoutes(r)
	return r
}

// GetMetrics handles GET /api/metrics
func (h *MetricsHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.Metrics())
}

// GetExposure handles GET /api/exposure
func (h *MetricsHandler) GetExposure(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.Exposure())
}

// GetDecisions handles GET /api/decisions
func (h *MetricsHandler) GetDecisions(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.Decisions())
}

// GetRisk handles GET /api/risk
func (h *MetricsHandler) GetRisk(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.Risk())
}

// GetSpend handles GET /api/spend
func (h *MetricsHandler) GetSpend(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.Spend())
}

// GetLossDevelopment handles GET /api/loss-development
func (h *MetricsHandler) GetLossDevelopment(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.LossDevelopment())
}

// GetWeekly handles GET /api/weekly
func (h *MetricsHandler) GetWeekly(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.Weekly())
}

// GetIntervention handles GET /api/intervention
func (h *MetricsHandler) GetIntervention(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.Intervention())
}

// GetAlerts handles GET /api/intervention/alerts
func (h *MetricsHandler) GetAlerts(w http.ResponseWriter, r *http.Request) {
	res := h.service.Alerts()
	if res.Data == nil && res.Error == nil && !res.Loading {
		empty := []domain.Alert{}
		res.Data = &empty
	}
	render.JSON(w, r, res)
}

// GetSources handles GET /api/sources
func (h *MetricsHandler) GetSources(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{
		"sources": h.service.Status(),
	})
}

// GetCacheStats handles GET /api/cache/stats
func (h *MetricsHandler) GetCacheStats(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.CacheStats())
}

// Refresh handles POST /api/refresh. It blocks until every configured source
// has been attempted.
func (h *MetricsHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	h.logger.InfoContext(r.Context(), "refresh requested",
		slog.String("request_id", middleware.GetReqID(r.Context())))

	render.JSON(w, r, map[string]interface{}{
		"sources": h.service.Refresh(r.Context()),
	})
}

// Invalidate handles DELETE /api/cache/{source}
func (h *MetricsHandler) Invalidate(w http.ResponseWriter, r *http.Request) {
	source := chi.URLParam(r, "source")
	if err := h.service.Invalidate(source); err != nil {
		h.logger.WarnContext(r.Context(), "cache invalidation rejected",
			slog.String("source", source),
			slog.String("error", err.Error()))
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "cache entry invalidated", slog.String("source", source))
	render.JSON(w, r, map[string]string{"invalidated": source})
}

// InvalidateAll handles DELETE /api/cache
func (h *MetricsHandler) InvalidateAll(w http.ResponseWriter, r *http.Request) {
	h.service.InvalidateAll()
	h.logger.InfoContext(r.Context(), "cache flushed")
	render.JSON(w, r, map[string]string{"invalidated": "all"})
}
