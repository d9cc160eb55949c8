// Package api exposes the HTTP interface of the control panel.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/josiah-nelson/crawldeck/internal/crawl"
	"github.com/josiah-nelson/crawldeck/internal/jobs"
	"github.com/josiah-nelson/crawldeck/internal/metrics"
)

// GatewayClient is the slice of the crawl engine client the server proxies
// through directly.
type GatewayClient interface {
	Crawl(ctx context.Context, baseURL string, config json.RawMessage) (json.RawMessage, error)
	Health(ctx context.Context, baseURL string) (json.RawMessage, error)
	Requests(ctx context.Context, baseURL string) (json.RawMessage, error)
	Cleanup(ctx context.Context, baseURL string) (json.RawMessage, error)
}

// Server wires HTTP handlers to the job manager, the stores and the crawl
// engine client.
type Server struct {
	router    chi.Router
	manager   *jobs.Manager
	gateway   GatewayClient
	settings  crawl.SettingsStore
	profiles  crawl.AuthProfileStore
	providers crawl.ProviderStore
	ids       crawl.IDGenerator
	logger    *zap.Logger
}

// NewServer constructs a Server with middleware and routes. The timeout
// bounds every request; it must exceed the gateway timeout or the
// synchronous crawl proxy gets cut off before its downstream call.
func NewServer(
	manager *jobs.Manager,
	gateway GatewayClient,
	settings crawl.SettingsStore,
	profiles crawl.AuthProfileStore,
	providers crawl.ProviderStore,
	ids crawl.IDGenerator,
	logger *zap.Logger,
	timeout time.Duration,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		manager:   manager,
		gateway:   gateway,
		settings:  settings,
		profiles:  profiles,
		providers: providers,
		ids:       ids,
		logger:    logger,
	}

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoverMiddleware)
	r.Use(metricsMiddleware)
	r.Use(timeoutMiddleware(timeout))

	r.Get("/healthz", s.healthz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Post("/crawl", s.crawlSync)

	r.Route("/jobs", func(r chi.Router) {
		r.Get("/", s.listJobs)
		r.Post("/", s.submitJob)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.getJob)
			r.Delete("/", s.deleteJob)
		})
	})

	r.Get("/settings", s.getSettings)
	r.Put("/settings", s.updateSettings)

	r.Route("/auth-profiles", func(r chi.Router) {
		r.Get("/", s.listAuthProfiles)
		r.Post("/", s.createAuthProfile)
		r.Route("/{id}", func(r chi.Router) {
			r.Put("/", s.updateAuthProfile)
			r.Delete("/", s.deleteAuthProfile)
		})
	})

	r.Route("/llm-providers", func(r chi.Router) {
		r.Get("/", s.listProviders)
		r.Put("/{id}", s.updateProvider)
	})

	r.Route("/monitoring", func(r chi.Router) {
		r.Get("/health", s.monitorHealth)
		r.Get("/requests", s.monitorRequests)
		r.Post("/cleanup", s.monitorCleanup)
	})

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)
		s.logger.Info("request completed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.status),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
	})
}

func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic recovered", zap.Any("panic", rec))
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)
		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = r.URL.Path
		}
		metrics.ObserveHTTPRequest(r.Method, route, ww.status, time.Since(start))
	})
}

func timeoutMiddleware(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, d, "request timed out")
	}
}

type requestIDKey struct{}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	if err != nil {
		return n, fmt.Errorf("write response: %w", err)
	}
	return n, nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Error("write JSON failed", zap.Error(err))
	}
}

// writeRawJSON forwards an already-encoded JSON payload untouched.
func writeRawJSON(w http.ResponseWriter, status int, payload json.RawMessage) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(payload); err != nil {
		zap.L().Error("write JSON failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
