// Package server exposes the search coordinator over HTTP.
package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	apperrors "price-finder/internal/common/errors"
	"price-finder/internal/common/logger"
	"price-finder/internal/search"
)

type Options struct {
	AdminCode      string
	WorkerSecret   string
	StaticDir      string
	RequestTimeout time.Duration
	MaxBodyBytes   int64
	RatePerSecond  float64
	RateBurst      int
}

type Server struct {
	opts    Options
	svc     *search.Service
	worker  http.Handler
	errs    *apperrors.ErrorHandler
	logger  logger.Logger
	limiter *RateLimiter
}

// New builds the server. worker serves the scraping worker's websocket.
// ctx bounds background goroutines such as the rate limiter cleanup.
func New(ctx context.Context, opts Options, svc *search.Service, worker http.Handler, log logger.Logger) *Server {
	l := logger.Component(log, "http")
	s := &Server{
		opts:   opts,
		svc:    svc,
		worker: worker,
		errs:   apperrors.NewErrorHandler(l),
		logger: l,
	}
	s.limiter = NewRateLimiter(ctx, rate.Limit(opts.RatePerSecond), opts.RateBurst, func(w http.ResponseWriter, r *http.Request) {
		s.errs.WriteHTTPError(w, r, apperrors.NewRateLimitedError())
	})
	return s
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(chimiddleware.Recoverer)

	// websocket connections outlive the request timeout
	r.Get("/ws", s.worker.ServeHTTP)

	r.Group(func(r chi.Router) {
		if s.opts.RequestTimeout > 0 {
			r.Use(chimiddleware.Timeout(s.opts.RequestTimeout))
		}

		r.Group(func(r chi.Router) {
			r.Use(s.limiter.Middleware)
			r.Get("/search", s.handleSearch)
			r.Post("/heartbeat", s.handleHeartbeat)
		})
		r.Get("/results/{query}", s.handleResults)
		r.Get("/live-state", s.handleLiveState)
		r.Post("/api/submit-results", s.handleSubmitResults)

		r.Route("/admin", func(r chi.Router) {
			r.Use(s.adminAuth)
			r.Post("/traffic-data", s.handleTrafficData)
			r.Post("/toggle-maintenance", s.handleToggleMaintenance)
			r.Post("/toggle-queue", s.handleToggleQueue)
			r.Post("/disconnect-worker", s.handleDisconnectWorker)
			r.Post("/clear-queue", s.handleClearQueue)
			r.Post("/clear-cache", s.handleClearCache)
			r.Post("/clear-image-cache", s.handleClearImageCache)
			r.Post("/clear-stats", s.handleClearStats)
			r.Post("/set-theme", s.handleSetTheme)
			r.Post("/set-banner", s.handleSetBanner)
			r.Post("/trigger-rain", s.handleTriggerRain)
		})

		if s.opts.StaticDir != "" {
			r.Handle("/*", http.FileServer(http.Dir(s.opts.StaticDir)))
		}
	})

	return r
}

// OpsRouter serves liveness, readiness and Prometheus metrics. ready is
// called on every /ready request.
func OpsRouter(ready func(ctx context.Context) error) http.Handler {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})
	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		if ready != nil {
			if err := ready(r.Context()); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready", "error": err.Error()})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})
	r.Handle("/metrics", promhttp.Handler())
	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request", map[string]interface{}{
			"requestId":  chimiddleware.GetReqID(r.Context()),
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"durationMs": time.Since(start).Milliseconds(),
		})
	})
}

func secretsEqual(got, want string) bool {
	return want != "" && subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

type messageResponse struct {
	Message string `json:"message"`
}
