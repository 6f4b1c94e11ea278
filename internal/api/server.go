// Package api serves profiling and pipeline runs over HTTP.
package api

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"tabprep/internal/config"
	"tabprep/internal/importer"
	"tabprep/internal/logging"
	"tabprep/internal/metrics"
	"tabprep/internal/pipeline"
	"tabprep/internal/profiler"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/sync/semaphore"
)

// Server is the HTTP front end of the pipeline
type Server struct {
	cfg      *config.Config
	logger   *slog.Logger
	importer *importer.Importer
	profiler *profiler.Profiler
	pipeline *pipeline.Pipeline
	metrics  *metrics.Metrics
	runs     *semaphore.Weighted
	router   chi.Router
}

// NewServer wires the routes. m may be nil, in which case /metrics is not served.
func NewServer(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) *Server {
	s := &Server{
		cfg:      cfg,
		logger:   logging.Component(logger, "api"),
		importer: importer.New(logger),
		profiler: profiler.New(logger),
		pipeline: pipeline.New(logger, pipeline.WithOutput(io.Discard), pipeline.WithMetrics(m)),
		metrics:  m,
		runs:     semaphore.NewWeighted(cfg.MaxConcurrentRuns),
	}
	s.router = s.routes()
	return s
}

// Handler returns the root handler
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{RunIDHeader, DroppedHeader, ImputedHeader},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Route("/v1", func(r chi.Router) {
		r.Use(s.limitRuns)
		r.Use(s.limitBody)
		r.Post("/profile", s.handleProfile)
		r.Post("/pipeline", s.handlePipeline)
	})
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Server.Port),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()
	s.logger.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

// limitRuns admits at most MaxConcurrentRuns requests; the rest get 429
func (s *Server) limitRuns(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.runs.TryAcquire(1) {
			w.Header().Set("Retry-After", "1")
			s.respond(w, r, http.StatusTooManyRequests, errorResponse{
				Code:    CodeTooManyRequests,
				Message: "too many concurrent runs, retry later",
			})
			return
		}
		defer s.runs.Release(1)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		s.metrics.ObserveRequest(route, ww.Status())
		s.logger.InfoContext(r.Context(), "request",
			"method", r.Method,
			"route", route,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
