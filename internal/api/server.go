// Package api wires the HTTP server: routes, middleware, and lifecycle.
package api

import (
	"context"
	_ "embed"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"mandi/internal/api/handlers"
	"mandi/internal/api/health"
	"mandi/internal/metrics"
	"mandi/pkg/errors"
	"mandi/pkg/logger"
)

//go:embed web/index.html
var indexHTML []byte

// ServerConfig contains configuration for the HTTP server
type ServerConfig struct {
	Port        int
	ServiceName string
	Version     string
}

// Handlers groups the endpoint handlers the server mounts
type Handlers struct {
	Health    *health.Handler
	Predict   *handlers.PredictHandler
	Assistant *handlers.AssistantHandler
	TTS       *handlers.TTSHandler
}

// Server wraps the HTTP server with lifecycle management
type Server struct {
	httpServer *http.Server
	log        *logger.Logger
}

// NewServer creates and configures the HTTP server with all routes
func NewServer(cfg ServerConfig, h Handlers, log *logger.Logger) *Server {
	mux := http.NewServeMux()

	// Health check endpoints (Kubernetes probes)
	mux.HandleFunc("/health", h.Health.HandleHealth)
	mux.HandleFunc("/ready", h.Health.HandleReadiness)
	mux.HandleFunc("/live", h.Health.HandleLiveness)

	// Prometheus metrics endpoint
	mux.Handle("/metrics", metrics.Handler())

	mux.Handle("/predict", instrument("predict", h.Predict.Handle))
	mux.Handle("/assistant/analyze", instrument("assistant_analyze", h.Assistant.Handle))
	mux.Handle("/assistant/text-to-speech", instrument("assistant_tts", h.TTS.Handle))

	// Root endpoint serves the dashboard UI
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(indexHTML)
	})

	port := 5000
	if cfg.Port > 0 {
		port = cfg.Port
	}

	log.Infof("HTTP server configured on port %d", port)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      cors(mux),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		log:        log,
	}
}

// Start begins listening for HTTP requests.
// Blocks until the server is stopped or encounters an error.
func (s *Server) Start() error {
	s.log.Infof("Starting HTTP server on %s", s.httpServer.Addr)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return errors.Wrap(err, "http server failed")
	}

	return nil
}

// Shutdown gracefully stops the HTTP server.
// Waits for active connections to complete within the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Stopping HTTP server...")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "http server shutdown failed")
	}

	s.log.Info("✓ HTTP server stopped")
	return nil
}

// cors allows the browser UI to call the API from any origin
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response status for metrics
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// instrument records request counts and latency per handler
func instrument(name string, next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next(rec, r)

		metrics.HTTPRequests.WithLabelValues(name, strconv.Itoa(rec.status)).Inc()
		metrics.HTTPDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	})
}
