package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	apierrors "cleansed/internal/errors"
	"cleansed/internal/config"
	"cleansed/internal/ws"
)

// NewRouter wires the job endpoints, websocket upgrade and metrics under
// the standard middleware stack.
func NewRouter(cfg *config.Config, jobs *JobsHandler, hub *ws.Hub, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(logger))
	if cfg.Server.RateLimit.Enabled {
		r.Use(rateLimiter(rate.Limit(cfg.Server.RateLimit.RPS), cfg.Server.RateLimit.Burst))
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/ingest", jobs.Ingest)
		r.Post("/process/{job_id}", jobs.Process)
		r.Get("/status/{job_id}", jobs.Status)
		r.Get("/result/{job_id}", jobs.Result)
		r.Get("/result/{job_id}/download", jobs.Download)
		r.Get("/result/{job_id}/errors", jobs.Errors)
		r.Post("/jobs/{job_id}/cancel", jobs.Cancel)
		r.Delete("/jobs/{job_id}", jobs.Delete)
		r.Get("/jobs", jobs.List)
	})

	r.Get("/ws", func(w http.ResponseWriter, req *http.Request) {
		ws.ServeWS(hub, w, req)
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		render.JSON(w, req, map[string]string{"status": "ok"})
	})

	return r
}

// rateLimiter applies a global token-bucket limit across all clients.
func rateLimiter(limit rate.Limit, burst int) func(http.Handler) http.Handler {
	limiter := rate.NewLimiter(limit, burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				render.Render(w, r, apierrors.ErrRateLimitExceeded)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requestLogger emits one structured line per request.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			wrapped := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(wrapped, r)
			logger.InfoContext(r.Context(), "http request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", wrapped.Status()),
				slog.Int("bytes", wrapped.BytesWritten()),
				slog.String("request_id", middleware.GetReqID(r.Context())))
		})
	}
}
