package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/weather-history-service/internal/domain"
	"github.com/couchcryptid/weather-history-service/internal/pipeline"
	"github.com/couchcryptid/weather-history-service/internal/region"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// HistoryService is the query side of the range pipeline.
type HistoryService interface {
	ReadinessChecker
	Regions() *region.Directory
	Fetch(ctx context.Context, q domain.HistoryQuery) ([]domain.TemperatureRecord, error)
	Records(ctx context.Context, areaID string, start, end time.Time) ([]domain.TemperatureRecord, error)
	Chart(ctx context.Context, reqs []pipeline.SeriesRequest) (domain.Chart, error)
}

// CacheAdmin removes entries from the expiring cache.
type CacheAdmin interface {
	Remove(ctx context.Context, prefix string, parts ...string) error
	Clear(ctx context.Context, prefix string) (int, error)
}

// Server exposes the history API alongside health, readiness, and metrics.
type Server struct {
	httpServer *http.Server
	history    HistoryService
	cache      CacheAdmin
	validate   *validator.Validate
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics and the
// /api/v1 routes.
func NewServer(addr string, history HistoryService, cache CacheAdmin, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:    addr,
			Handler: mux,
			// Range requests fan out to many upstream calls.
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 2 * time.Minute,
			IdleTimeout:  60 * time.Second,
		},
		history:  history,
		cache:    cache,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(history))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/v1/regions", s.handleProvinces)
	mux.HandleFunc("GET /api/v1/regions/{province}/cities", s.handleCities)
	mux.HandleFunc("GET /api/v1/regions/{province}/cities/{city}/districts", s.handleDistricts)
	mux.HandleFunc("GET /api/v1/regions/{province}/cities/{city}/districts/{district}/names", s.handleRegionNames)

	mux.HandleFunc("GET /api/v1/history", s.handleHistory)
	mux.HandleFunc("GET /api/v1/history/range", s.handleHistoryRange)
	mux.HandleFunc("POST /api/v1/chart", s.handleChart)

	mux.HandleFunc("DELETE /api/v1/cache/{areaId}/{year}/{month}", s.handleCacheRemove)
	mux.HandleFunc("DELETE /api/v1/cache", s.handleCacheClear)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // client may have gone away
}
